package chunker

import (
	"regexp"
	"strings"
)

// ---------------------------------------------------------------------------
// Clause boundary detection
// ---------------------------------------------------------------------------

// clausePattern matches hierarchical numbered clauses such as
// "1.1", "1.1.1", "12.3.4", etc. at the start of a line.
var clausePattern = regexp.MustCompile(`^(\d+(?:\.\d+)+)\s`)

// DetectClauseBoundaries scans text and returns the byte offsets where
// new numbered clauses begin.  Each entry in the returned slice is the
// index of the first byte of a clause number at the start of a line.
func DetectClauseBoundaries(text string) []int {
	lines := strings.Split(text, "\n")
	var boundaries []int
	offset := 0

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if clausePattern.MatchString(trimmed) {
			boundaries = append(boundaries, offset)
		}
		offset += len(line) + 1 // +1 for the newline
	}
	return boundaries
}

// SplitByClauses splits text at clause boundaries so that each
// returned string starts with a clause number.  Text before the
// first clause (preamble) is returned as the first element if
// non-empty.
func SplitByClauses(text string) []string {
	boundaries := DetectClauseBoundaries(text)
	if len(boundaries) == 0 {
		return []string{text}
	}

	var parts []string
	for i, b := range boundaries {
		// Preamble before the first clause.
		if i == 0 && b > 0 {
			preamble := strings.TrimSpace(text[:b])
			if preamble != "" {
				parts = append(parts, preamble)
			}
		}

		var end int
		if i+1 < len(boundaries) {
			end = boundaries[i+1]
		} else {
			end = len(text)
		}
		part := strings.TrimSpace(text[b:end])
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

// ExtractClauseNumber extracts the leading clause number from text.
// For example, given "1.2.3 The contractor shall..." it returns
// "1.2.3" and true.
func ExtractClauseNumber(text string) (string, bool) {
	text = strings.TrimSpace(text)
	m := clausePattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

// ClauseDepth returns the nesting depth of a clause number.
// "1.1" returns 2, "1.1.1" returns 3, etc.
func ClauseDepth(clause string) int {
	if clause == "" {
		return 0
	}
	return strings.Count(clause, ".") + 1
}
