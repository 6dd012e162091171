package parser

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFParser extracts full text, per-page text, and citation metadata from a
// judgment PDF using native PDF text extraction (no OCR, no vision model).
type PDFParser struct{}

// Parse opens path, extracts text page by page (preserving reading order),
// and derives citation/title/case-number metadata from the first page.
//
// Failure modes: an unreadable file returns ErrParseFailed; a PDF with no
// extractable text on any page returns ErrEmptyDocument.
func (p *PDFParser) Parse(ctx context.Context, path string) (*ParseResult, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrParseFailed, path, err)
	}
	defer f.Close()

	totalPages := reader.NumPage()
	pages := make([]string, 0, totalPages)

	for i := 1; i <= totalPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		text, err := extractPageTextOrdered(page)
		if err != nil {
			// A single unreadable page does not fail the whole document;
			// it simply contributes no text.
			pages = append(pages, "")
			continue
		}
		pages = append(pages, strings.TrimSpace(text))
	}

	fullText := strings.TrimSpace(strings.Join(pages, "\n\n"))
	if fullText == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, path)
	}

	firstPage := ""
	if len(pages) > 0 {
		firstPage = pages[0]
	}

	return &ParseResult{
		FullText:     fullText,
		PerPageTexts: pages,
		Metadata:     extractMetadata(firstPage),
	}, nil
}

// ExtractPageTextOrdered reconstructs reading order from the PDF content
// stream by grouping text elements into visual lines by Y proximity, then
// ordering lines top-to-bottom. Sorting by X within a line is deliberately
// avoided: some PDFs emit text runs with negative text matrices that would
// scramble column order under a naive X-sort. Exported for reuse by the
// excerpt reader, which extracts single pages from downloaded PDF bytes
// rather than a parsed whole document.
func ExtractPageTextOrdered(page pdf.Page) (string, error) {
	return extractPageTextOrdered(page)
}

func extractPageTextOrdered(page pdf.Page) (string, error) {
	content := page.Content()
	if len(content.Text) == 0 {
		return page.GetPlainText(nil)
	}

	const lineTolerance = 3.0

	type visualLine struct {
		y   float64
		buf strings.Builder
	}

	var lines []*visualLine
	var cur *visualLine

	for _, t := range content.Text {
		if cur == nil || math.Abs(t.Y-cur.y) > lineTolerance {
			lines = append(lines, &visualLine{y: t.Y})
			cur = lines[len(lines)-1]
		}
		cur.buf.WriteString(t.S)
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].y > lines[j].y
	})

	var parts []string
	for _, l := range lines {
		text := strings.TrimSpace(l.buf.String())
		if text != "" {
			parts = append(parts, text)
		}
	}

	result := strings.Join(parts, "\n")
	if strings.TrimSpace(result) == "" {
		return page.GetPlainText(nil)
	}
	return result, nil
}
