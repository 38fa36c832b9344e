package generation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/castlemilk/regresponse/internal/inference"
)

type fakeModel struct {
	resp  *inference.Response
	err   error
	panic bool
	block bool
	got   []inference.Request
}

func (f *fakeModel) Converse(ctx context.Context, req inference.Request) (*inference.Response, error) {
	f.got = append(f.got, req)
	if f.panic {
		panic("boom")
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.resp, f.err
}

func realConfig() Config {
	return Config{
		Mode:        ModeReal,
		ModelID:     "test-model",
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

func TestGenerate_MockIsDeterministic(t *testing.T) {
	g := NewGenerator(Config{Mode: ModeMock}, nil, nil)

	a := g.Generate(context.Background(), "adverse event reported", "")
	b := g.Generate(context.Background(), "completely different text", "labeling")

	assert.Equal(t, SourceMock, a.Source)
	assert.Equal(t, a.Text, b.Text)
	assert.Equal(t, MockResponse(), a.Text)
}

func TestMockResponse_HasAllSections(t *testing.T) {
	text := MockResponse()
	last := -1
	for _, s := range Sections {
		idx := strings.Index(text, s+":")
		require.GreaterOrEqual(t, idx, 0, "missing section %q", s)
		assert.Greater(t, idx, last, "section %q out of order", s)
		last = idx
	}
}

func TestGenerate_ModelSuccess(t *testing.T) {
	m := &fakeModel{resp: &inference.Response{Segments: []string{"drafted reply", "ignored"}}}
	g := NewGenerator(realConfig(), m, nil)

	res := g.Generate(context.Background(), "deficiency text", "")

	assert.Equal(t, SourceModel, res.Source)
	assert.Equal(t, "drafted reply", res.Text)
	assert.NoError(t, res.Err)
	require.Len(t, m.got, 1)
	assert.Equal(t, "test-model", m.got[0].ModelID)
	assert.InDelta(t, 0.2, m.got[0].Temperature, 1e-6)
	assert.Equal(t, int32(400), m.got[0].MaxTokens)
	assert.Contains(t, m.got[0].Prompt, "Deficiency:\ndeficiency text")
}

func TestGenerate_FallbackMatchesMock(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeModel
	}{
		{"error", &fakeModel{err: errors.New("throttled")}},
		{"nil response", &fakeModel{}},
		{"no segments", &fakeModel{resp: &inference.Response{}}},
		{"blank first segment", &fakeModel{resp: &inference.Response{Segments: []string{"  ", "later"}}}},
		{"panic", &fakeModel{panic: true}},
	}

	mock := NewGenerator(Config{Mode: ModeMock}, nil, nil).Generate(context.Background(), "x", "")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.WarnLevel)
			g := NewGenerator(realConfig(), tt.model, zap.New(core))

			res := g.Generate(context.Background(), "some deficiency", "cmc")

			assert.Equal(t, SourceFallback, res.Source)
			assert.Equal(t, mock.Text, res.Text)
			assert.Error(t, res.Err)
			assert.Equal(t, 1, logs.FilterMessage("inference failed, using mock response").Len())
		})
	}
}

func TestGenerate_NilModelFallsBack(t *testing.T) {
	g := NewGenerator(realConfig(), nil, nil)
	res := g.Generate(context.Background(), "text", "")
	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, MockResponse(), res.Text)
}

func TestGenerate_TimeoutFallsBack(t *testing.T) {
	cfg := realConfig()
	cfg.Timeout = 20 * time.Millisecond
	g := NewGenerator(cfg, &fakeModel{block: true}, nil)

	res := g.Generate(context.Background(), "text", "")

	assert.Equal(t, SourceFallback, res.Source)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestGenerate_TruncatesInput(t *testing.T) {
	m := &fakeModel{resp: &inference.Response{Segments: []string{"ok"}}}
	g := NewGenerator(realConfig(), m, nil)

	long := strings.Repeat("é", DefaultMaxInputChars+500)
	g.Generate(context.Background(), long, "")

	require.Len(t, m.got, 1)
	want := BuildPrompt(strings.Repeat("é", DefaultMaxInputChars))
	assert.Equal(t, want, m.got[0].Prompt)
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"", 3, ""},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
		{"ééé", 2, "éé"},
		{"éé", 2, "éé"},
	}
	for _, tt := range tests {
		if got := truncateRunes(tt.in, tt.n); got != tt.want {
			t.Fatalf("truncateRunes(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("real")
	require.NoError(t, err)
	assert.Equal(t, ModeReal, m)

	_, err = ParseMode("auto")
	assert.Error(t, err)
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("Missing stability data.")
	assert.True(t, strings.HasPrefix(p, "You are a senior regulatory affairs specialist."))
	for _, s := range Sections {
		assert.Contains(t, p, "- "+s+"\n")
	}
	assert.True(t, strings.HasSuffix(p, "Deficiency:\nMissing stability data.\n"))
}
