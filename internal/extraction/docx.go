package extraction

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

const docxBodyPart = "word/document.xml"

// extractDOCX joins the text of every top-level body paragraph with newlines.
// Paragraphs inside tables, headers and footers are not included.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", invalidDocument(".docx", "open docx archive", err)
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == docxBodyPart {
			part = f
			break
		}
	}
	if part == nil {
		return "", invalidDocument(".docx", "missing "+docxBodyPart, nil)
	}

	rc, err := part.Open()
	if err != nil {
		return "", invalidDocument(".docx", "open "+docxBodyPart, err)
	}
	defer rc.Close()

	paragraphs, err := docxParagraphs(rc)
	if err != nil {
		return "", invalidDocument(".docx", "parse "+docxBodyPart, err)
	}
	return strings.Join(paragraphs, "\n"), nil
}

// docxParagraphs streams the WordprocessingML body and returns the text of
// each w:p that is a direct child of w:body. Only runs directly under the
// paragraph or one of its hyperlinks contribute: w:t text, w:tab as a tab and
// w:br / w:cr as a newline. Property elements (w:pPr, w:rPr) and nested
// content such as text boxes are ignored.
func docxParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		stack      []string
		paragraphs []string
		current    strings.Builder
		inPara     bool
		inText     bool
		paraIdx    int
	)

	// inRun reports whether the element about to be pushed is a direct child
	// of a paragraph-level run.
	inRun := func() bool {
		depth := len(stack) - 1
		if !inPara || depth < 0 || stack[depth] != "r" {
			return false
		}
		switch depth - paraIdx {
		case 1:
			return true
		case 2:
			return stack[paraIdx+1] == "hyperlink"
		}
		return false
	}

	parent := func() string {
		if len(stack) == 0 {
			return ""
		}
		return stack[len(stack)-1]
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			switch {
			case name == "p" && parent() == "body":
				inPara = true
				paraIdx = len(stack)
				current.Reset()
			case name == "t" && inRun():
				inText = true
			case name == "tab" && inRun():
				current.WriteByte('\t')
			case (name == "br" || name == "cr") && inRun():
				current.WriteByte('\n')
			}
			stack = append(stack, name)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			switch name := t.Name.Local; {
			case name == "t":
				inText = false
			case name == "p" && inPara && parent() == "body":
				paragraphs = append(paragraphs, current.String())
				inPara = false
			}

		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}

	return paragraphs, nil
}
