package excerpt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

type identityResolver struct{}

func (identityResolver) ToHTTPS(url string) string { return url }

func writeTestPDF(t *testing.T, dir string) string {
	t.Helper()
	// A minimal single-page PDF with no extractable text content is enough
	// to exercise the out-of-range and download paths without depending on
	// a real judgment fixture; page-text extraction itself is already
	// covered by the parser package's tests against real PDF structure.
	path := filepath.Join(dir, "doc.pdf")
	minimalPDF := []byte("%PDF-1.4\n1 0 obj<<>>endobj\ntrailer<<>>\n%%EOF")
	if err := os.WriteFile(path, minimalPDF, 0644); err != nil {
		t.Fatalf("writing test pdf: %v", err)
	}
	return path
}

func TestExtractPageContentNeverErrorsOnUnreadableDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPDF(t, dir)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	r := New(identityResolver{})
	got := r.ExtractPageContent(context.Background(), srv.URL, 1)
	if got != "" {
		t.Errorf("expected empty string for an unreadable fixture, got %q", got)
	}
}

func TestExtractPageContentReturnsEmptyOn404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := New(identityResolver{})
	got := r.ExtractPageContent(context.Background(), srv.URL, 1)
	if got != "" {
		t.Errorf("expected empty string on download failure, got %q", got)
	}
}
