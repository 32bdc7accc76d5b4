package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF returns the text of every page, each preceded by its page marker.
// A page whose text cannot be read contributes only its marker.
func extractPDF(content []byte) (text string, err error) {
	// ledongthuc/pdf panics on some malformed object streams.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("parse PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	numPages := r.NumPage()
	pages := make([]string, numPages)
	for i := 0; i < numPages; i++ {
		pages[i] = pageText(r.Page(i + 1))
	}
	return joinPages(pages), nil
}

func pageText(page pdf.Page) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}

// pageMarker is written before each page's text; page numbers are 1-based.
func pageMarker(n int) string {
	return fmt.Sprintf("\n--- Page %d ---\n", n)
}

func joinPages(pages []string) string {
	var b strings.Builder
	for i, p := range pages {
		b.WriteString(pageMarker(i + 1))
		b.WriteString(p)
	}
	return b.String()
}
