package corpus

import (
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/LexGuardAI/lexguard-mvp/engine/domain"
)

// Page is a single PDF page's extracted, normalized text. Number is
// 1-indexed to match the "p{n}" anchor convention.
type Page struct {
	Number int
	Text   string
}

// ExtractPDFPages extracts text page by page. A page with no extractable
// text yields an empty Text and is skipped downstream; a file that cannot
// be parsed at all is a fatal ExtractionError, never a silent drop.
func ExtractPDFPages(path string) ([]Page, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, domain.NewExtractionError(path, err)
	}
	defer f.Close()

	pages := make([]Page, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			pages = append(pages, Page{Number: i})
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, domain.NewExtractionError(path, fmt.Errorf("page %d: %w", i, err))
		}
		pages = append(pages, Page{Number: i, Text: CleanText(text)})
	}
	return pages, nil
}
