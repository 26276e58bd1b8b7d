package section

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// FromPDF extracts the plain text of a PDF and splits it into sections.
// Pages that fail text extraction are skipped; a PDF that yields no text
// at all is an error.
func FromPDF(path string) (Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	var builder strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}

	text := builder.String()
	if strings.TrimSpace(text) == "" {
		return Document{}, fmt.Errorf("no extractable text in %s", path)
	}

	return Split(text), nil
}

// FromText splits already-extracted text, for callers that have the
// document contents from another source.
func FromText(text string) Document {
	return Split(text)
}
