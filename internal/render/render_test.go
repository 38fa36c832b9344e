package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numberedLines(n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %03d", i+1)
	}
	return strings.Join(lines, "\n")
}

func TestLinesPerPage(t *testing.T) {
	if LinesPerPage != 48 {
		t.Fatalf("LinesPerPage = %d, want 48", LinesPerPage)
	}
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		pages int
		last  int
	}{
		{"empty", "", 1, 1},
		{"one line", "hello", 1, 1},
		{"exactly one page", numberedLines(48), 1, 48},
		{"spills", numberedLines(49), 2, 1},
		{"two hundred", numberedLines(200), 5, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := Paginate(tt.text)
			if len(pages) != tt.pages {
				t.Fatalf("pages = %d, want %d", len(pages), tt.pages)
			}
			for i, p := range pages {
				if len(p) > LinesPerPage {
					t.Fatalf("page %d has %d lines", i, len(p))
				}
			}
			if got := len(pages[len(pages)-1]); got != tt.last {
				t.Fatalf("last page lines = %d, want %d", got, tt.last)
			}
		})
	}
}

func TestPaginate_TruncatesWithoutWrapping(t *testing.T) {
	long := strings.Repeat("x", 150)
	pages := Paginate(long + "\r\nshort")
	require.Len(t, pages, 1)
	require.Len(t, pages[0], 2)
	assert.Equal(t, strings.Repeat("x", MaxLineLen), pages[0][0])
	assert.Equal(t, "short", pages[0][1])

	multibyte := strings.Repeat("ü", 120)
	assert.Equal(t, strings.Repeat("ü", MaxLineLen), Paginate(multibyte)[0][0])
}

func TestRender_PageCount(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRenderer(dir)
	require.NoError(t, err)

	path, err := r.RenderFile(numberedLines(200))
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.Equal(t, ".pdf", filepath.Ext(path))

	n, err := api.PageCountFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestRender_TextReadsBack(t *testing.T) {
	var buf bytes.Buffer
	pages, err := Render(&buf, "REGULATORY RESPONSE\nQuery Summary:\nCafé data")
	require.NoError(t, err)
	assert.Equal(t, 1, pages)

	rd, err := pdf.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Equal(t, 1, rd.NumPage())

	text, err := rd.Page(1).GetPlainText(nil)
	require.NoError(t, err)
	assert.Contains(t, text, "REGULATORY RESPONSE")
	assert.Contains(t, text, "Query Summary:")
}

func TestRenderFile_UniqueNames(t *testing.T) {
	r, err := NewRenderer(t.TempDir())
	require.NoError(t, err)

	a, err := r.RenderFile("one")
	require.NoError(t, err)
	b, err := r.RenderFile("one")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	for _, p := range []string{a, b} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestEncodeLine(t *testing.T) {
	assert.Equal(t, "caf\xe9", encodeLine("café"))
	assert.Equal(t, "a?b", encodeLine("a中b"))
}
