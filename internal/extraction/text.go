package extraction

import (
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodeText decodes a plain-text upload as UTF-8. A leading byte order mark
// is honoured (and stripped), so UTF-16 exports from Windows editors read too.
func decodeText(data []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", &ExtractionError{
			Code:    ErrReadFailed,
			Message: "decode text",
			Format:  ".txt",
			Cause:   err,
		}
	}
	return string(out), nil
}
