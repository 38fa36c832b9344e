// Package render lays out generated response text as a plain US Letter PDF.
package render

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"
)

// Page geometry in points.
const (
	PageWidth   = 612.0
	PageHeight  = 792.0
	Margin      = 40.0
	LineAdvance = 15.0
	FontSize    = 12.0
	MaxLineLen  = 95

	// LinesPerPage is how many baselines fit between the top baseline and
	// the bottom margin, both inclusive.
	LinesPerPage = (int(PageHeight)-2*int(Margin))/int(LineAdvance) + 1
)

// Renderer writes PDFs into a directory.
type Renderer struct {
	dir string
}

// NewRenderer returns a renderer that writes into dir, creating it if needed.
func NewRenderer(dir string) (*Renderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Renderer{dir: dir}, nil
}

// Dir returns the output directory.
func (r *Renderer) Dir() string {
	return r.dir
}

// NewFilename returns a fresh random PDF file name.
func NewFilename() string {
	return uuid.New().String() + ".pdf"
}

// RenderFile renders text into a new uniquely named file and returns its path.
func (r *Renderer) RenderFile(text string) (string, error) {
	var buf bytes.Buffer
	if _, err := Render(&buf, text); err != nil {
		return "", err
	}
	path := filepath.Join(r.dir, NewFilename())
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}
	return path, nil
}

// Render writes text to w as a PDF and returns the page count. Each input
// line is one output line, truncated to MaxLineLen characters.
func Render(w io.Writer, text string) (int, error) {
	pages := Paginate(text)

	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetMargins(Margin, Margin, Margin)
	doc.SetAutoPageBreak(false, Margin)
	doc.SetFont("Helvetica", "", FontSize)

	for _, lines := range pages {
		doc.AddPage()
		for i, line := range lines {
			doc.Text(Margin, Margin+float64(i)*LineAdvance, encodeLine(line))
		}
	}

	if err := doc.Output(w); err != nil {
		return 0, fmt.Errorf("render pdf: %w", err)
	}
	return len(pages), nil
}

// Paginate splits text into pages of at most LinesPerPage truncated lines.
// Text always yields at least one page.
func Paginate(text string) [][]string {
	raw := strings.Split(text, "\n")
	pages := make([][]string, 0, len(raw)/LinesPerPage+1)
	for start := 0; start < len(raw); start += LinesPerPage {
		end := min(start+LinesPerPage, len(raw))
		page := make([]string, 0, end-start)
		for _, l := range raw[start:end] {
			page = append(page, truncate(strings.TrimSuffix(l, "\r"), MaxLineLen))
		}
		pages = append(pages, page)
	}
	return pages
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// encodeLine converts s to the Windows-1252 bytes the core fonts expect.
func encodeLine(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		c, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			c = '?'
		}
		b.WriteByte(c)
	}
	return b.String()
}
