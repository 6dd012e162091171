// Package excerpt lazily fetches individual pages (or a page range) of a
// source judgment PDF by URL, for the chat engine to quote from. It is
// never part of the ingest path.
package excerpt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/lexiq-ai/lexiq/parser"
)

// urlResolver translates a stored document URL into the HTTPS form this
// reader downloads from. The objectstore package satisfies this.
type urlResolver interface {
	ToHTTPS(url string) string
}

// Reader downloads PDFs by URL and extracts page text on demand.
type Reader struct {
	resolver urlResolver
	client   *http.Client
}

// New returns a Reader that resolves locators through resolver using an
// HTTP client with a download timeout suited to multi-megabyte PDFs.
func New(resolver urlResolver) *Reader {
	return &Reader{
		resolver: resolver,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

// ExtractPageContent resolves url, downloads the PDF, and returns the text
// of the given 1-indexed page. It never returns an error for an
// out-of-range page number or an unreadable page — callers treat the
// returned empty string as "no excerpt available"; a warning is logged
// instead.
func (r *Reader) ExtractPageContent(ctx context.Context, url string, pageNumber int) string {
	reader, closeFn, err := r.open(ctx, url)
	if err != nil {
		slog.Warn("excerpt: failed to open document", "url", url, "error", err)
		return ""
	}
	defer closeFn()

	if pageNumber < 1 || pageNumber > reader.NumPage() {
		slog.Warn("excerpt: page number out of range", "url", url, "page", pageNumber, "total_pages", reader.NumPage())
		return ""
	}

	page := reader.Page(pageNumber)
	if page.V.IsNull() {
		slog.Warn("excerpt: page is empty", "url", url, "page", pageNumber)
		return ""
	}

	text, err := parser.ExtractPageTextOrdered(page)
	if err != nil {
		slog.Warn("excerpt: failed to extract page text", "url", url, "page", pageNumber, "error", err)
		return ""
	}
	return strings.TrimSpace(text)
}

// pageMarker separates consecutive pages in ExtractFullPDFContent's output.
const pageMarker = "\n--- page %d ---\n"

// ExtractFullPDFContent returns the concatenation of up to maxPages pages
// from the document at url, each preceded by a page marker line. Unreadable
// or out-of-range pages contribute no text but do not abort extraction.
func (r *Reader) ExtractFullPDFContent(ctx context.Context, url string, maxPages int) string {
	reader, closeFn, err := r.open(ctx, url)
	if err != nil {
		slog.Warn("excerpt: failed to open document", "url", url, "error", err)
		return ""
	}
	defer closeFn()

	total := reader.NumPage()
	if maxPages > 0 && maxPages < total {
		total = maxPages
	}

	var out strings.Builder
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := parser.ExtractPageTextOrdered(page)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		fmt.Fprintf(&out, pageMarker, i)
		out.WriteString(strings.TrimSpace(text))
		out.WriteString("\n")
	}
	return strings.TrimSpace(out.String())
}

// open downloads the document at url and returns an open pdf.Reader backed
// by the in-memory bytes.
func (r *Reader) open(ctx context.Context, url string) (*pdf.Reader, func(), error) {
	if r.resolver == nil {
		return nil, nil, fmt.Errorf("no object store configured")
	}
	httpsURL := r.resolver.ToHTTPS(url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, httpsURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("downloading %s: %w", httpsURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("downloading %s: status %d", httpsURL, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading response body: %w", err)
	}

	ra := bytes.NewReader(data)
	reader, err := pdf.NewReader(ra, int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("opening pdf: %w", err)
	}
	return reader, func() {}, nil
}
