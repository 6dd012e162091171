package parser

import "errors"

var (
	// ErrParseFailed is returned when a PDF cannot be opened or decoded.
	ErrParseFailed = errors.New("parser: failed to parse document")

	// ErrEmptyDocument is returned when no page yields extractable text.
	ErrEmptyDocument = errors.New("parser: document has no extractable text")
)
