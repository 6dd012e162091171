// Package parser extracts full text, per-page text, and citation-grade
// metadata from judgment PDFs.
package parser

import "context"

// Metadata carries the fields a judgment parse can recover. Fields the
// source document does not clearly state are left empty — the parser never
// fabricates a citation, title, or case number.
type Metadata struct {
	Citation   string
	CaseTitle  string
	CaseNumber string
}

// ParseResult is what the PDF parser produces for one judgment.
type ParseResult struct {
	FullText     string   // concatenation of all page texts, in order, separated by "\n\n"
	PerPageTexts []string // index 0 is page 1
	Metadata     Metadata
}

// Parser parses a judgment document into full text, per-page text, and
// citation metadata.
type Parser interface {
	Parse(ctx context.Context, path string) (*ParseResult, error)
}
