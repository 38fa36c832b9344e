package extraction

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
)

// makePDF builds a PDF with one page per entry; each entry's lines are drawn
// with the core Helvetica font.
func makePDF(t *testing.T, pages ...[]string) []byte {
	t.Helper()
	doc := fpdf.New("P", "pt", "Letter", "")
	for _, lines := range pages {
		doc.AddPage()
		doc.SetFont("Helvetica", "", 12)
		for i, line := range lines {
			doc.Text(40, 40+float64(i)*15, line)
		}
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("render fixture pdf: %v", err)
	}
	return buf.Bytes()
}

// makeDOCX builds a minimal .docx archive around the given body XML.
func makeDOCX(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(docxBodyPart)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"` +
		` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"` +
		` xmlns:v="urn:schemas-microsoft-com:vml">` +
		`<w:body>` + body + `</w:body></w:document>`
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtract_Dispatch(t *testing.T) {
	ex := NewExtractor(Capabilities{Docx: true})

	tests := []struct {
		name     string
		filename string
		data     []byte
		expected string
	}{
		{"plain text", "query.txt", []byte("line one\nline two"), "line one\nline two"},
		{"upper-case extension", "QUERY.TXT", []byte("hello"), "hello"},
		{"utf-8 bom stripped", "bom.txt", []byte("\xef\xbb\xbfhello"), "hello"},
		{"unsupported extension", "notes.md", []byte("# heading"), ""},
		{"no extension", "README", []byte("text"), ""},
		{"empty txt", "empty.txt", nil, ""},
		{"empty pdf", "empty.pdf", nil, ""},
		{"empty docx", "empty.docx", nil, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ex.Extract(tc.filename, tc.data)
			if err != nil {
				t.Fatalf("Extract(%q) error: %v", tc.filename, err)
			}
			if got != tc.expected {
				t.Fatalf("Extract(%q) = %q, want %q", tc.filename, got, tc.expected)
			}
		})
	}
}

func TestExtract_UTF16WithBOM(t *testing.T) {
	ex := NewExtractor(Capabilities{})
	// "hi" in UTF-16LE with BOM
	data := []byte{0xff, 0xfe, 'h', 0x00, 'i', 0x00}
	got, err := ex.Extract("windows.txt", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hi" {
		t.Fatalf("got %q, want %q", got, "hi")
	}
}

func TestExtract_PDF(t *testing.T) {
	ex := NewExtractor(Capabilities{})
	data := makePDF(t,
		[]string{"Deficiency letter", "Patient reported a Serious Adverse Event"},
		[]string{"Second page content"},
	)

	got, err := ex.Extract("letter.pdf", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "Deficiency") {
		t.Fatalf("expected first page text, got %q", got)
	}
	if !strings.Contains(got, "Second") {
		t.Fatalf("expected second page text, got %q", got)
	}
	if strings.Index(got, "Deficiency") > strings.Index(got, "Second") {
		t.Fatalf("pages out of order: %q", got)
	}
	if ClassifyRisk(got) != RiskHigh {
		t.Fatalf("expected extracted text to classify HIGH, got %q", got)
	}
}

func TestExtract_PDFWithoutText(t *testing.T) {
	ex := NewExtractor(Capabilities{})
	data := makePDF(t, []string{})

	got, err := ex.Extract("blank.pdf", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(got) != "" {
		t.Fatalf("expected no text, got %q", got)
	}
}

func TestExtract_MalformedPDF(t *testing.T) {
	ex := NewExtractor(Capabilities{})
	_, err := ex.Extract("broken.pdf", []byte("this is not a pdf"))
	if err == nil {
		t.Fatal("expected error for malformed pdf")
	}
	var extErr *ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected *ExtractionError, got %T", err)
	}
	if extErr.Code != ErrInvalidDocument {
		t.Fatalf("expected %s, got %s", ErrInvalidDocument, extErr.Code)
	}
}

func TestExtract_DOCX(t *testing.T) {
	ex := NewExtractor(Capabilities{Docx: true})
	body := `<w:p><w:r><w:t>Query Summary</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t xml:space="preserve">Split </w:t></w:r><w:r><w:t>run</w:t></w:r></w:p>` +
		`<w:p/>` +
		`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>table cell</w:t></w:r></w:p></w:tc></w:tr></w:tbl>` +
		`<w:p><w:r><w:t>a</w:t><w:tab/><w:t>b</w:t></w:r></w:p>` +
		`<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/><w:tab w:val="right" w:pos="9000"/></w:tabs></w:pPr>` +
		`<w:r><w:rPr><w:b/></w:rPr><w:t>Key Concern</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Body</w:t></w:r><w:r><w:pict><v:shape><v:textbox><w:txbxContent>` +
		`<w:p><w:r><w:t>Box</w:t><w:br/></w:r></w:p>` +
		`</w:txbxContent></v:textbox></v:shape></w:pict></w:r></w:p>` +
		`<w:p><w:hyperlink r:id="rId4"><w:r><w:t>linked</w:t></w:r></w:hyperlink><w:r><w:br/><w:t>next</w:t></w:r></w:p>`

	got, err := ex.Extract("response.docx", makeDOCX(t, body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Query Summary\nSplit run\n\na\tb\nKey Concern\nBody\nlinked\nnext"
	if got != want {
		t.Fatalf("Extract docx = %q, want %q", got, want)
	}
}

func TestExtract_DOCXEmptyBody(t *testing.T) {
	ex := NewExtractor(Capabilities{Docx: true})
	got, err := ex.Extract("empty.docx", makeDOCX(t, `<w:p/>`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}

func TestExtract_DOCXCapabilityDisabled(t *testing.T) {
	ex := NewExtractor(Capabilities{Docx: false})
	body := `<w:p><w:r><w:t>ignored</w:t></w:r></w:p>`

	got, err := ex.Extract("response.docx", makeDOCX(t, body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty text when docx is disabled, got %q", got)
	}
	if ex.Supports("response.docx") {
		t.Fatal("Supports(.docx) should be false when capability is disabled")
	}
}

func TestExtract_MalformedDOCX(t *testing.T) {
	ex := NewExtractor(Capabilities{Docx: true})
	_, err := ex.Extract("broken.docx", []byte("PK not really a zip"))

	var extErr *ExtractionError
	if !errors.As(err, &extErr) || extErr.Code != ErrInvalidDocument {
		t.Fatalf("expected INVALID_DOCUMENT error, got %v", err)
	}
}

func TestExtractFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "query.txt")
	if err := os.WriteFile(path, []byte("no adverse findings reported"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	ex := NewExtractor(Capabilities{})
	got, err := ex.ExtractFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "no adverse findings reported" {
		t.Fatalf("got %q", got)
	}

	_, err = ex.ExtractFile(filepath.Join(dir, "missing.txt"))
	var extErr *ExtractionError
	if !errors.As(err, &extErr) || extErr.Code != ErrReadFailed {
		t.Fatalf("expected READ_FAILED for missing file, got %v", err)
	}

	// Unsupported formats are never read.
	got, err = ex.ExtractFile(filepath.Join(dir, "missing.odt"))
	if err != nil || got != "" {
		t.Fatalf("expected empty result for unsupported format, got %q, %v", got, err)
	}
}
