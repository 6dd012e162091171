package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lexiq-ai/lexiq/llm"
	"github.com/lexiq-ai/lexiq/objectstore"
	"github.com/lexiq-ai/lexiq/parser"
	"github.com/lexiq-ai/lexiq/store"
)

type fakeParser struct {
	result *parser.ParseResult
	err    error
}

func (f fakeParser) Parse(ctx context.Context, path string) (*parser.ParseResult, error) {
	return f.result, f.err
}

type fakeEmbedder struct{ dim int }

func (f fakeEmbedder) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	return nil, nil
}

func (f fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, f.dim)
		for j := range v {
			v[j] = 0.1
		}
		out[i] = v
	}
	return out, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"), 4)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

const sampleJudgment = `Facts:
The appellant was convicted under Section 302 of the Indian Penal Code.

Held:
The appeal is dismissed. Citation: 2020 SCC 123.`

func TestIngestInsertsChunksAndEmbeddings(t *testing.T) {
	s := newTestStore(t)
	p := fakeParser{result: &parser.ParseResult{
		FullText:     sampleJudgment,
		PerPageTexts: []string{sampleJudgment},
		Metadata:     parser.Metadata{Citation: "2020 SCC 123", CaseTitle: "State v. Appellant"},
	}}

	pipeline := New(Config{}, p, nil, fakeEmbedder{dim: 4}, s)
	res, err := pipeline.Ingest(context.Background(), "judgment.pdf")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.NumChunks == 0 {
		t.Fatal("expected at least one chunk")
	}
	if res.CaseKey != "2020 SCC 123" {
		t.Errorf("expected case key to be the parsed citation, got %q", res.CaseKey)
	}

	stored, err := s.GetChunksByCaseKey(context.Background(), res.CaseKey)
	if err != nil {
		t.Fatalf("GetChunksByCaseKey: %v", err)
	}
	if len(stored) != res.NumChunks {
		t.Errorf("expected %d stored chunks, got %d", res.NumChunks, len(stored))
	}
	for _, c := range stored {
		has, err := s.ChunkHasEmbedding(context.Background(), c.ID)
		if err != nil {
			t.Fatalf("ChunkHasEmbedding: %v", err)
		}
		if !has {
			t.Errorf("chunk %d has no embedding", c.ID)
		}
	}
}

func TestIngestWithoutCitationFallsBackToContentHash(t *testing.T) {
	s := newTestStore(t)
	p := fakeParser{result: &parser.ParseResult{
		FullText:     "Facts:\nNo identifiable citation appears anywhere in this text.",
		PerPageTexts: []string{"Facts:\nNo identifiable citation appears anywhere in this text."},
	}}

	pipeline := New(Config{}, p, nil, fakeEmbedder{dim: 4}, s)
	res, err := pipeline.Ingest(context.Background(), "judgment.pdf")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.CaseKey == "" {
		t.Fatal("expected a derived case key")
	}
}

func TestReingestReplacesChunks(t *testing.T) {
	s := newTestStore(t)
	p := fakeParser{result: &parser.ParseResult{
		FullText:     sampleJudgment,
		PerPageTexts: []string{sampleJudgment},
		Metadata:     parser.Metadata{Citation: "2020 SCC 123"},
	}}
	pipeline := New(Config{}, p, nil, fakeEmbedder{dim: 4}, s)

	first, err := pipeline.Ingest(context.Background(), "judgment.pdf")
	if err != nil {
		t.Fatalf("first Ingest: %v", err)
	}
	second, err := pipeline.Ingest(context.Background(), "judgment.pdf")
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}
	if first.NumChunks != second.NumChunks {
		t.Errorf("expected re-ingest to produce the same chunk count, got %d vs %d", first.NumChunks, second.NumChunks)
	}

	stored, err := s.GetChunksByCaseKey(context.Background(), "2020 SCC 123")
	if err != nil {
		t.Fatalf("GetChunksByCaseKey: %v", err)
	}
	if len(stored) != second.NumChunks {
		t.Errorf("expected no duplicate chunks after re-ingest, got %d rows for %d chunks", len(stored), second.NumChunks)
	}
}

func TestIngestEmptyDocumentFails(t *testing.T) {
	s := newTestStore(t)
	p := fakeParser{result: &parser.ParseResult{FullText: ""}}
	pipeline := New(Config{}, p, nil, fakeEmbedder{dim: 4}, s)

	if _, err := pipeline.Ingest(context.Background(), "empty.pdf"); err == nil {
		t.Fatal("expected an error for an empty document")
	}
}

func TestIngestArchivesToObjectStore(t *testing.T) {
	dir := t.TempDir()
	obj, err := objectstore.NewLocalStore(dir)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	s := newTestStore(t)
	p := fakeParser{result: &parser.ParseResult{
		FullText:     sampleJudgment,
		PerPageTexts: []string{sampleJudgment},
		Metadata:     parser.Metadata{Citation: "2020 SCC 123"},
	}}

	srcPath := filepath.Join(dir, "source.pdf")
	if err := os.WriteFile(srcPath, []byte("%PDF-fake"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	pipeline := New(Config{}, p, obj, fakeEmbedder{dim: 4}, s)
	res, err := pipeline.Ingest(context.Background(), srcPath)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.DocumentURL == "" {
		t.Error("expected a non-empty document URL when an object store is configured")
	}
}
