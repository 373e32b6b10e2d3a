package pdfextract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Page holds the plain text of a single PDF page. Number is 1-based.
type Page struct {
	Number int
	Text   string
}

// ExtractPages reads the entire content of r and extracts plain text per page.
// Pages without extractable text (scans, pure images) come back with an empty
// Text so page numbering stays aligned with the document.
func ExtractPages(r io.Reader) ([]Page, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf content failed: %w", err)
	}
	if len(b) == 0 {
		return nil, nil
	}
	readerAt := bytes.NewReader(b)
	pdfReader, err := pdf.NewReader(readerAt, int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf failed: %w", err)
	}

	total := pdfReader.NumPage()
	pages := make([]Page, 0, total)
	for i := 1; i <= total; i++ {
		p := pdfReader.Page(i)
		if p.V.IsNull() {
			pages = append(pages, Page{Number: i})
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			// A single malformed page should not sink the whole document.
			pages = append(pages, Page{Number: i})
			continue
		}
		pages = append(pages, Page{Number: i, Text: strings.TrimSpace(text)})
	}
	return pages, nil
}

// WordCount counts whitespace-separated words across all pages.
func WordCount(pages []Page) int {
	count := 0
	for _, p := range pages {
		count += len(strings.Fields(p.Text))
	}
	return count
}
