package extraction

import "fmt"

// ExtractionErrorCode represents specific extraction error types.
type ExtractionErrorCode string

const (
	ErrInvalidDocument ExtractionErrorCode = "INVALID_DOCUMENT"
	ErrReadFailed      ExtractionErrorCode = "READ_FAILED"
)

// ExtractionError is a structured error for extraction failures.
type ExtractionError struct {
	Code    ExtractionErrorCode
	Message string
	Format  string // e.g. ".pdf" or ".docx"
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

func invalidDocument(format, message string, cause error) *ExtractionError {
	return &ExtractionError{
		Code:    ErrInvalidDocument,
		Message: message,
		Format:  format,
		Cause:   cause,
	}
}
