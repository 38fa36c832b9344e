// Package extraction turns uploaded regulatory documents into plain text and
// derives the coarse signals (risk level, preview) shown alongside a response.
package extraction

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Capabilities lists the optional readers resolved once at startup.
type Capabilities struct {
	Docx bool
}

// Extractor dispatches on file extension to the matching text reader.
// Unsupported formats yield empty text rather than an error.
type Extractor struct {
	caps Capabilities
}

// NewExtractor creates an extractor with the given capabilities.
func NewExtractor(caps Capabilities) *Extractor {
	return &Extractor{caps: caps}
}

// Capabilities returns the capability set the extractor was built with.
func (e *Extractor) Capabilities() Capabilities {
	return e.caps
}

// Supports reports whether filename has an extension the extractor can read.
func (e *Extractor) Supports(filename string) bool {
	switch Format(filename) {
	case ".pdf", ".txt":
		return true
	case ".docx":
		return e.caps.Docx
	default:
		return false
	}
}

// ExtractFile reads the file at path and extracts its text.
func (e *Extractor) ExtractFile(path string) (string, error) {
	if !e.Supports(path) {
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ExtractionError{
			Code:    ErrReadFailed,
			Message: fmt.Sprintf("read %s", filepath.Base(path)),
			Format:  Format(path),
			Cause:   err,
		}
	}
	return e.Extract(path, data)
}

// Extract returns the plain text of data, using filename only for dispatch.
// A malformed PDF or DOCX returns an *ExtractionError with ErrInvalidDocument.
func (e *Extractor) Extract(filename string, data []byte) (string, error) {
	if !e.Supports(filename) || len(data) == 0 {
		return "", nil
	}

	switch Format(filename) {
	case ".pdf":
		return extractPDF(data)
	case ".txt":
		return decodeText(data)
	case ".docx":
		return extractDOCX(data)
	}
	return "", nil
}

// Format returns the lower-cased extension of filename, including the dot.
func Format(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}
