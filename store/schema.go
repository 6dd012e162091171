package store

import "fmt"

// schemaSQL returns the DDL for the vector index's on-disk schema.
// embeddingDim controls the vec0 virtual table dimension and must match
// every embedding inserted afterward.
func schemaSQL(embeddingDim int) string {
	return fmt.Sprintf(`
-- Chunk records: the unit of retrieval. case_key is the grouping key used
-- throughout the system (citation when present, else title+case_number).
CREATE TABLE IF NOT EXISTS chunks (
    id INTEGER PRIMARY KEY,
    case_key TEXT NOT NULL,
    citation TEXT NOT NULL DEFAULT '',
    case_title TEXT NOT NULL DEFAULT '',
    case_number TEXT NOT NULL DEFAULT '',
    document_url TEXT NOT NULL,
    source_file TEXT NOT NULL DEFAULT '',
    section TEXT NOT NULL,
    chunk_ordinal INTEGER NOT NULL,
    content TEXT NOT NULL,
    page_number INTEGER NOT NULL,
    total_pages INTEGER NOT NULL,
    content_hash TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(case_key, chunk_ordinal)
);

-- Vector embeddings via sqlite-vec. One row per chunk.
CREATE VIRTUAL TABLE IF NOT EXISTS vec_chunks USING vec0(
    chunk_id INTEGER PRIMARY KEY,
    embedding float[%d]
);

-- Full-text search, used only by the optional follow-up-suggestion ranking
-- signal in the chat engine — never part of the core retrieval contract.
CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
    content,
    section,
    content='chunks',
    content_rowid='id',
    tokenize='porter unicode61'
);

CREATE TRIGGER IF NOT EXISTS chunks_ai AFTER INSERT ON chunks BEGIN
    INSERT INTO chunks_fts(rowid, content, section) VALUES (new.id, new.content, new.section);
END;
CREATE TRIGGER IF NOT EXISTS chunks_ad AFTER DELETE ON chunks BEGIN
    INSERT INTO chunks_fts(chunks_fts, rowid, content, section) VALUES ('delete', old.id, old.content, old.section);
END;
CREATE TRIGGER IF NOT EXISTS chunks_au AFTER UPDATE ON chunks BEGIN
    INSERT INTO chunks_fts(chunks_fts, rowid, content, section) VALUES ('delete', old.id, old.content, old.section);
    INSERT INTO chunks_fts(rowid, content, section) VALUES (new.id, new.content, new.section);
END;

-- Judges extracted post-hoc per case (§3 Case.Judges), grouped by case_key.
CREATE TABLE IF NOT EXISTS judges (
    id INTEGER PRIMARY KEY,
    case_key TEXT NOT NULL,
    name TEXT NOT NULL,
    UNIQUE(case_key, name)
);

CREATE INDEX IF NOT EXISTS idx_chunks_case_key ON chunks(case_key);
CREATE INDEX IF NOT EXISTS idx_judges_case_key ON judges(case_key);
`, embeddingDim)
}
