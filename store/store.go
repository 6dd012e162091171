package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// Chunk represents a row in the chunks table: the unit of retrieval and the
// object on which every downstream component (similarity grouping, excerpt
// lookup, prompt assembly) operates.
type Chunk struct {
	ID           int64  `json:"id"`
	CaseKey      string `json:"case_key"`
	Citation     string `json:"citation"`
	CaseTitle    string `json:"case_title"`
	CaseNumber   string `json:"case_number"`
	DocumentURL  string `json:"document_url"`
	SourceFile   string `json:"source_file"`
	Section      string `json:"section"`
	ChunkOrdinal int    `json:"chunk_ordinal"`
	Content      string `json:"content"`
	PageNumber   int    `json:"page_number"`
	TotalPages   int    `json:"total_pages"`
	ContentHash  string `json:"content_hash"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// Judge represents a row in the judges table, extracted post-hoc per case.
type Judge struct {
	ID      int64  `json:"id"`
	CaseKey string `json:"case_key"`
	Name    string `json:"name"`
}

// RetrievalResult pairs a stored chunk with its distance from a query vector.
// Lower Distance means more similar; this is the raw ANN contract consumed
// by the similarity package before any deduplication or grouping.
type RetrievalResult struct {
	Chunk
	Distance float64 `json:"distance"`
}

// Store wraps the SQLite database holding chunks, their embeddings, and
// extracted judges.
type Store struct {
	db           *sql.DB
	embeddingDim int
}

// New opens (or creates) a SQLite database at the given path and
// initialises the schema including the sqlite-vec and FTS5 virtual tables.
func New(dbPath string, embeddingDim int) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schemaSQL(embeddingDim)); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db, embeddingDim: embeddingDim}

	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// EmbeddingDim returns the configured embedding dimension.
func (s *Store) EmbeddingDim() int {
	return s.embeddingDim
}

// --- Chunk operations ---

// InsertChunks inserts a batch of chunks belonging to the same case and
// returns their assigned IDs in input order. ContentHash is computed here
// from Content so callers never have to keep it in sync by hand.
func (s *Store) InsertChunks(ctx context.Context, chunks []Chunk) ([]int64, error) {
	ids := make([]int64, len(chunks))

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO chunks (case_key, citation, case_title, case_number, document_url,
				source_file, section, chunk_ordinal, content, page_number, total_pages, content_hash)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(case_key, chunk_ordinal) DO UPDATE SET
				content = excluded.content,
				content_hash = excluded.content_hash,
				page_number = excluded.page_number,
				total_pages = excluded.total_pages
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, c := range chunks {
			hash := sha256.Sum256([]byte(c.Content))
			contentHash := hex.EncodeToString(hash[:])

			if _, err := stmt.ExecContext(ctx,
				c.CaseKey, c.Citation, c.CaseTitle, c.CaseNumber, c.DocumentURL,
				c.SourceFile, c.Section, c.ChunkOrdinal, c.Content, c.PageNumber,
				c.TotalPages, contentHash); err != nil {
				return err
			}
			// LastInsertId is left unchanged when the upsert takes its DO UPDATE
			// branch, so the row id is always read back by its unique key.
			var id int64
			row := tx.QueryRowContext(ctx,
				"SELECT id FROM chunks WHERE case_key = ? AND chunk_ordinal = ?",
				c.CaseKey, c.ChunkOrdinal)
			if err := row.Scan(&id); err != nil {
				return err
			}
			ids[i] = id
		}
		return nil
	})

	return ids, err
}

// GetChunksByCaseKey returns every chunk for a case, ordered by chunk_ordinal.
func (s *Store) GetChunksByCaseKey(ctx context.Context, caseKey string) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_key, citation, case_title, case_number, document_url,
			source_file, section, chunk_ordinal, content, page_number, total_pages, content_hash
		FROM chunks WHERE case_key = ? ORDER BY chunk_ordinal
	`, caseKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunks(rows)
}

// GetChunkByID returns a single chunk by its primary key.
func (s *Store) GetChunkByID(ctx context.Context, id int64) (*Chunk, error) {
	var c Chunk
	err := s.db.QueryRowContext(ctx, `
		SELECT id, case_key, citation, case_title, case_number, document_url,
			source_file, section, chunk_ordinal, content, page_number, total_pages, content_hash
		FROM chunks WHERE id = ?
	`, id).Scan(&c.ID, &c.CaseKey, &c.Citation, &c.CaseTitle, &c.CaseNumber, &c.DocumentURL,
		&c.SourceFile, &c.Section, &c.ChunkOrdinal, &c.Content, &c.PageNumber, &c.TotalPages, &c.ContentHash)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteCase removes all chunks, embeddings, and judges for a case_key. Used
// when re-ingesting a document that already exists in the index.
func (s *Store) DeleteCase(ctx context.Context, caseKey string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM vec_chunks WHERE chunk_id IN (
				SELECT id FROM chunks WHERE case_key = ?
			)`, caseKey); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE case_key = ?", caseKey); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM judges WHERE case_key = ?", caseKey); err != nil {
			return err
		}
		return nil
	})
}

// --- Embedding operations ---

// InsertEmbedding stores a vector embedding for a chunk. The index's writer
// side must be serialized by the caller (sqlite-vec permits only one writer).
func (s *Store) InsertEmbedding(ctx context.Context, chunkID int64, embedding []float32) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO vec_chunks (chunk_id, embedding) VALUES (?, ?)",
		chunkID, serializeFloat32(embedding))
	return err
}

// VectorSearch performs a KNN search returning the top-k nearest chunks in
// ascending distance order, per the ANN contract consumed by the similarity
// package.
func (s *Store) VectorSearch(ctx context.Context, queryEmbedding []float32, k int) ([]RetrievalResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.chunk_id, v.distance,
			c.case_key, c.citation, c.case_title, c.case_number, c.document_url,
			c.source_file, c.section, c.chunk_ordinal, c.content, c.page_number,
			c.total_pages, c.content_hash
		FROM vec_chunks v
		JOIN chunks c ON c.id = v.chunk_id
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance
	`, serializeFloat32(queryEmbedding), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []RetrievalResult
	for rows.Next() {
		var r RetrievalResult
		if err := rows.Scan(&r.Chunk.ID, &r.Distance,
			&r.CaseKey, &r.Citation, &r.CaseTitle, &r.CaseNumber, &r.DocumentURL,
			&r.SourceFile, &r.Section, &r.ChunkOrdinal, &r.Content, &r.PageNumber,
			&r.TotalPages, &r.ContentHash); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// FTSSearch performs a full-text search using FTS5 BM25 ranking. This is
// never part of the core retrieval contract; it backs only the chat
// engine's optional follow-up-question ranking signal.
func (s *Store) FTSSearch(ctx context.Context, query string, limit int) ([]RetrievalResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.rowid, f.rank,
			c.case_key, c.citation, c.case_title, c.case_number, c.document_url,
			c.source_file, c.section, c.chunk_ordinal, c.content, c.page_number,
			c.total_pages, c.content_hash
		FROM chunks_fts f
		JOIN chunks c ON c.id = f.rowid
		WHERE chunks_fts MATCH ?
		ORDER BY f.rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []RetrievalResult
	for rows.Next() {
		var r RetrievalResult
		var rank float64
		if err := rows.Scan(&r.Chunk.ID, &rank,
			&r.CaseKey, &r.Citation, &r.CaseTitle, &r.CaseNumber, &r.DocumentURL,
			&r.SourceFile, &r.Section, &r.ChunkOrdinal, &r.Content, &r.PageNumber,
			&r.TotalPages, &r.ContentHash); err != nil {
			return nil, err
		}
		// FTS5 rank is negative (lower = better); store it as a distance-like
		// quantity so callers can sort ascending the same way as VectorSearch.
		r.Distance = rank
		results = append(results, r)
	}
	return results, rows.Err()
}

// --- Judge operations ---

// InsertJudges records the judges extracted for a case, ignoring duplicates.
func (s *Store) InsertJudges(ctx context.Context, caseKey string, names []string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT OR IGNORE INTO judges (case_key, name) VALUES (?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, name := range names {
			if _, err := stmt.ExecContext(ctx, caseKey, name); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetJudgesByCaseKey returns the judge names recorded for a case.
func (s *Store) GetJudgesByCaseKey(ctx context.Context, caseKey string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM judges WHERE case_key = ? ORDER BY name", caseKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// --- Diagnostic helpers ---

// ChunkMatch holds the result of a content substring search.
type ChunkMatch struct {
	ChunkID    int64  `json:"chunk_id"`
	CaseKey    string `json:"case_key"`
	Section    string `json:"section"`
	PageNumber int    `json:"page_number"`
}

// SearchChunksByContent searches all chunks for a case-insensitive substring match.
func (s *Store) SearchChunksByContent(ctx context.Context, substring string) ([]ChunkMatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_key, section, page_number FROM chunks
		WHERE LOWER(content) LIKE '%' || LOWER(?) || '%'
	`, substring)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []ChunkMatch
	for rows.Next() {
		var m ChunkMatch
		if err := rows.Scan(&m.ChunkID, &m.CaseKey, &m.Section, &m.PageNumber); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// ChunkHasEmbedding checks if a specific chunk has a vector embedding.
func (s *Store) ChunkHasEmbedding(ctx context.Context, chunkID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM vec_chunks WHERE chunk_id = ?", chunkID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DBStats holds counts of key database objects.
type DBStats struct {
	Chunks     int `json:"chunks"`
	Embeddings int `json:"embeddings"`
	Cases      int `json:"cases"`
	Judges     int `json:"judges"`
}

// Stats returns counts of chunks, embeddings, distinct cases, and judges.
func (s *Store) Stats(ctx context.Context) (*DBStats, error) {
	stats := &DBStats{}
	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM chunks", &stats.Chunks},
		{"SELECT COUNT(*) FROM vec_chunks", &stats.Embeddings},
		{"SELECT COUNT(DISTINCT case_key) FROM chunks", &stats.Cases},
		{"SELECT COUNT(*) FROM judges", &stats.Judges},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("counting %s: %w", q.query, err)
		}
	}
	return stats, nil
}

// SampleChunks returns up to n chunks sampled from the database.
func (s *Store) SampleChunks(ctx context.Context, n int) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_key, citation, case_title, case_number, document_url,
			source_file, section, chunk_ordinal, content, page_number, total_pages, content_hash
		FROM chunks ORDER BY RANDOM() LIMIT ?
	`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunks(rows)
}

// --- helpers ---

func scanChunks(rows *sql.Rows) ([]Chunk, error) {
	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.ID, &c.CaseKey, &c.Citation, &c.CaseTitle, &c.CaseNumber, &c.DocumentURL,
			&c.SourceFile, &c.Section, &c.ChunkOrdinal, &c.Content, &c.PageNumber, &c.TotalPages, &c.ContentHash); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// serializeFloat32 converts a float32 slice to little-endian bytes for sqlite-vec.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
