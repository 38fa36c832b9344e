// Package generation produces the structured regulatory response for an
// extracted document, either from a fixed template or from a hosted model.
package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/castlemilk/regresponse/internal/inference"
)

// Mode selects how responses are produced. It is fixed at startup.
type Mode string

const (
	ModeMock Mode = "mock"
	ModeReal Mode = "real"
)

// ParseMode validates a configured mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeMock, ModeReal:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown generation mode %q: expected mock or real", s)
	}
}

// Source records where a response's text came from.
type Source string

const (
	SourceMock     Source = "mock"
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

const (
	DefaultMaxInputChars = 12000
	DefaultTemperature   = 0.2
	DefaultMaxTokens     = 400
	DefaultTimeout       = 30 * time.Second
)

// Config holds the generator settings.
type Config struct {
	Mode          Mode
	ModelID       string
	Temperature   float32
	MaxTokens     int32
	MaxInputChars int
	Timeout       time.Duration
}

// Result is a generated response. Text is never empty.
type Result struct {
	Text   string
	Source Source
	// Err is the inference failure that caused a fallback, if any.
	Err error
}

// Generator produces regulatory responses. Generate never fails: in real
// mode any inference error is replaced by the mock response.
type Generator struct {
	cfg    Config
	model  inference.Model
	logger *zap.Logger
}

// NewGenerator creates a generator. model may be nil in mock mode.
func NewGenerator(cfg Config, model inference.Model, logger *zap.Logger) *Generator {
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = DefaultMaxInputChars
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{cfg: cfg, model: model, logger: logger}
}

// Mode returns the configured mode.
func (g *Generator) Mode() Mode {
	return g.cfg.Mode
}

// Generate returns a six-section response for text. queryType is an
// optional hint recorded in logs; it does not change the output.
func (g *Generator) Generate(ctx context.Context, text, queryType string) Result {
	if g.cfg.Mode != ModeReal {
		return Result{Text: MockResponse(), Source: SourceMock}
	}

	out, err := g.converse(ctx, text)
	if err != nil {
		g.logger.Warn("inference failed, using mock response",
			zap.String("model_id", g.cfg.ModelID),
			zap.String("query_type", queryType),
			zap.Error(err),
		)
		return Result{Text: MockResponse(), Source: SourceFallback, Err: err}
	}
	return Result{Text: out, Source: SourceModel}
}

func (g *Generator) converse(ctx context.Context, text string) (out string, err error) {
	if g.model == nil {
		return "", errors.New("no inference model configured")
	}

	// A misbehaving provider SDK must not take the request down with it.
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("inference panicked: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	resp, err := g.model.Converse(ctx, inference.Request{
		ModelID:     g.cfg.ModelID,
		Prompt:      BuildPrompt(truncateRunes(text, g.cfg.MaxInputChars)),
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.FirstSegment()
}

// truncateRunes limits s to at most n characters.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
