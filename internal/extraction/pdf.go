package extraction

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF concatenates the plain text of every page in order.
// Pages without a text layer contribute nothing. The pdf library panics on
// some malformed inputs, so the whole read is guarded.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = invalidDocument(".pdf", "pdf reader panicked", fmt.Errorf("%v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", invalidDocument(".pdf", "open PDF reader", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", invalidDocument(".pdf", fmt.Sprintf("extract text from page %d", i), err)
		}
		b.WriteString(pageText)
	}

	return b.String(), nil
}
