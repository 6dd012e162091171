// Package ingest orchestrates the pipeline that turns one judgment PDF into
// searchable chunks: parse, optionally archive to the object store, chunk,
// embed, and write to the vector index.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lexiq-ai/lexiq/chunker"
	"github.com/lexiq-ai/lexiq/llm"
	"github.com/lexiq-ai/lexiq/objectstore"
	"github.com/lexiq-ai/lexiq/parser"
	"github.com/lexiq-ai/lexiq/store"
)

// defaultConcurrency bounds the number of in-flight embedding requests
// during a single ingest run.
const defaultConcurrency = 8

// pageMatchPrefixLen is how many leading characters of a chunk's body are
// used to locate its source page: the first page whose text contains that
// prefix is the chunk's page.
const pageMatchPrefixLen = 100

// Config controls one Pipeline's behaviour.
type Config struct {
	Chunker          chunker.Config
	Concurrency      int
	ObjectStoreKeyFn func(caseKey string) string // defaults to "<caseKey>.pdf"
}

// Pipeline wires the parser, chunker, object store, embedding provider, and
// vector index into the single Ingest operation.
type Pipeline struct {
	cfg     Config
	parser  parser.Parser
	objects objectstore.Store // may be nil: ingestion proceeds without archiving the source PDF
	chunkr  *chunker.Chunker
	embed   llm.Provider
	store   *store.Store

	writeMu sync.Mutex // serializes vector-index writes; sqlite-vec permits one writer
}

// New builds a Pipeline. objects may be nil to skip archiving source PDFs.
func New(cfg Config, p parser.Parser, objects objectstore.Store, embed llm.Provider, s *store.Store) *Pipeline {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.ObjectStoreKeyFn == nil {
		cfg.ObjectStoreKeyFn = func(caseKey string) string { return caseKey + ".pdf" }
	}
	return &Pipeline{
		cfg:     cfg,
		parser:  p,
		objects: objects,
		chunkr:  chunker.New(cfg.Chunker),
		embed:   embed,
		store:   s,
	}
}

// Result summarizes one Ingest call.
type Result struct {
	CaseKey     string
	Citation    string
	CaseTitle   string
	CaseNumber  string
	DocumentURL string
	NumChunks   int
	ChunkIDs    []int64
}

// Ingest parses path, derives a case key from its parsed citation (falling
// back to the file's content hash when no citation is recoverable),
// archives the source file to the object store if configured, chunks the
// text, embeds every chunk, and writes chunks and embeddings to the index.
// Re-ingesting a path whose case key already exists replaces that case's
// chunks.
func (p *Pipeline) Ingest(ctx context.Context, path string) (*Result, error) {
	parsed, err := p.parser.Parse(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("ingest: parsing %s: %w", path, err)
	}
	if len(parsed.FullText) == 0 {
		return nil, fmt.Errorf("ingest: %s: %w", path, errEmptyDocument)
	}

	caseKey := deriveCaseKey(parsed)

	documentURL := ""
	if p.objects != nil {
		key := p.cfg.ObjectStoreKeyFn(caseKey)
		url, err := p.objects.Upload(ctx, path, key)
		if err != nil {
			return nil, fmt.Errorf("ingest: archiving %s: %w", path, err)
		}
		documentURL = url
	}

	rawChunks := p.chunkr.Chunk(parsed.FullText)
	if len(rawChunks) == 0 {
		return nil, fmt.Errorf("ingest: %s: %w", path, errEmptyDocument)
	}

	totalPages := len(parsed.PerPageTexts)
	storeChunks := make([]store.Chunk, len(rawChunks))
	for i, rc := range rawChunks {
		storeChunks[i] = store.Chunk{
			CaseKey:      caseKey,
			Citation:     parsed.Metadata.Citation,
			CaseTitle:    parsed.Metadata.CaseTitle,
			CaseNumber:   parsed.Metadata.CaseNumber,
			DocumentURL:  documentURL,
			SourceFile:   filepath.Base(path),
			Section:      rc.SectionHeader,
			ChunkOrdinal: i,
			Content:      rc.Body,
			PageNumber:   locatePage(rc.Body, parsed.PerPageTexts),
			TotalPages:   totalPages,
		}
	}

	if err := p.store.DeleteCase(ctx, caseKey); err != nil {
		return nil, fmt.Errorf("ingest: clearing prior chunks for %s: %w", caseKey, err)
	}

	chunkIDs, err := p.store.InsertChunks(ctx, storeChunks)
	if err != nil {
		return nil, fmt.Errorf("ingest: inserting chunks for %s: %w", caseKey, err)
	}

	if err := p.embedAndStore(ctx, storeChunks, chunkIDs); err != nil {
		return nil, err
	}

	slog.Info("ingest: completed", "case_key", caseKey, "chunks", len(chunkIDs))

	return &Result{
		CaseKey:     caseKey,
		Citation:    parsed.Metadata.Citation,
		CaseTitle:   parsed.Metadata.CaseTitle,
		CaseNumber:  parsed.Metadata.CaseNumber,
		DocumentURL: documentURL,
		NumChunks:   len(chunkIDs),
		ChunkIDs:    chunkIDs,
	}, nil
}

// embedAndStore embeds every chunk with bounded concurrency and writes each
// embedding to the index. Index writes are serialized across goroutines:
// sqlite-vec's virtual table accepts only one writer at a time.
func (p *Pipeline) embedAndStore(ctx context.Context, chunks []store.Chunk, chunkIDs []int64) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	for i := range chunks {
		i := i
		g.Go(func() error {
			vectors, err := p.embed.Embed(gctx, []string{chunks[i].Content})
			if err != nil {
				return fmt.Errorf("embedding chunk %d: %w", chunkIDs[i], err)
			}
			if len(vectors) == 0 || len(vectors[0]) == 0 {
				return fmt.Errorf("embedding chunk %d: empty vector returned", chunkIDs[i])
			}

			p.writeMu.Lock()
			err = p.store.InsertEmbedding(gctx, chunkIDs[i], vectors[0])
			p.writeMu.Unlock()
			if err != nil {
				return fmt.Errorf("storing embedding for chunk %d: %w", chunkIDs[i], err)
			}
			return nil
		})
	}

	return g.Wait()
}

// locatePage finds which page a chunk body originated from by searching for
// its first pageMatchPrefixLen characters among the document's per-page
// texts. Returns 1 (the first page) when no page yields a match, e.g. for
// chunks assembled from a normalized header line that does not appear
// verbatim on any single page.
func locatePage(body string, pages []string) int {
	prefix := body
	if len(prefix) > pageMatchPrefixLen {
		prefix = prefix[:pageMatchPrefixLen]
	}
	for i, page := range pages {
		if containsFold(page, prefix) {
			return i + 1
		}
	}
	return 1
}

func containsFold(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	return indexFold(haystack, needle) >= 0
}

// indexFold is a small case-sensitive substring search; page attribution
// compares against the parser's raw page text, which preserves original
// casing, so no folding is actually required here beyond a direct Contains.
func indexFold(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

// deriveCaseKey builds a stable identifier for a parsed document: the
// citation when the parser recovered one, otherwise a content hash so
// re-ingesting the same file is idempotent even without a citation.
func deriveCaseKey(parsed *parser.ParseResult) string {
	if parsed.Metadata.Citation != "" {
		return parsed.Metadata.Citation
	}
	h := sha256.Sum256([]byte(parsed.FullText))
	return "doc_" + hex.EncodeToString(h[:])[:16]
}
