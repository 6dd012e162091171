package ingest

import "errors"

// errEmptyDocument is returned when a parsed PDF yields no text, or when
// chunking it produces no chunks.
var errEmptyDocument = errors.New("ingest: empty document")
