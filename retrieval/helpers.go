package retrieval

import (
	"regexp"
	"strings"
)

// identifierPatterns recognizes structured identifiers (citations, section
// numbers, case numbers) in a follow-up topic. FollowUpSuggestions only logs
// their presence; the FTS ranking is the same with or without them.
var identifierPatterns = []*regexp.Regexp{
	// Citations: [2025] 9 S.C.R. 585, 2024 INSC 112
	regexp.MustCompile(`(?i)\[\d{4}\]\s*\d+\s*S\.?C\.?R\.?\s*\d+`),
	regexp.MustCompile(`(?i)\d{4}\s+INSC\s+\d+`),
	// Section/article references: Section 302, Article 21
	regexp.MustCompile(`(?i)(?:section|article)\s+\d+[A-Za-z]?`),
}

// detectIdentifiers returns true if the topic contains at least one
// structured identifier.
func detectIdentifiers(topic string) bool {
	for _, p := range identifierPatterns {
		if p.MatchString(topic) {
			return true
		}
	}
	return false
}

// extractSignificantTerms returns the meaningful words from a topic,
// filtering out short words and stop words.
func extractSignificantTerms(topic string) []string {
	replacer := strings.NewReplacer(
		"\"", "", "*", "", "(", "", ")", "",
		"+", "", "-", "", "^", "", ":", "",
		"?", "", "[", "", "]", "", "{", "",
		"}", "", "!", "", ".", "", ",", "",
		";", "",
	)
	cleaned := replacer.Replace(topic)
	words := strings.Fields(cleaned)

	seen := make(map[string]bool)
	var terms []string
	for _, w := range words {
		lower := strings.ToLower(w)
		if len(lower) > 2 && !isStopWord(lower) && !seen[lower] {
			seen[lower] = true
			terms = append(terms, lower)
		}
	}
	return terms
}

// sanitizeFTSQuery escapes special FTS5 syntax characters and builds a
// basic OR query from the input terms. extra contains additional terms to
// append (may be nil).
func sanitizeFTSQuery(query string, extra []string) string {
	replacer := strings.NewReplacer(
		"\"", "", "*", "", "(", "", ")", "",
		"+", "", "-", "", "^", "", ":", "",
		"?", "", "[", "", "]", "", "{", "",
		"}", "", "!", "", ".", "", ",", "",
		";", "",
	)
	cleaned := replacer.Replace(query)

	words := strings.Fields(cleaned)
	if len(words) == 0 {
		return query
	}

	var parts []string
	if len(words) > 1 {
		parts = append(parts, "\""+strings.Join(words, " ")+"\"")
	}
	for _, w := range words {
		if len(w) > 2 && !isStopWord(w) {
			parts = append(parts, w)
		}
	}
	parts = append(parts, extra...)

	if len(parts) == 0 {
		return strings.Join(words, " OR ")
	}
	return strings.Join(parts, " OR ")
}

// isSynthesisQuery returns true if topic has exhaustive intent — asking for
// all items, every reference, a complete list — which benefits from a wider
// follow-up search window since relevant matches are scattered across more
// topically distant chunks.
func isSynthesisQuery(topic string) bool {
	lower := strings.ToLower(topic)

	exhaustivePatterns := []string{
		"all the", "all of the", "every ", "each of",
		"complete list", "comprehensive", "list all",
		"all references", "what are all", "name all",
		"list every", "list each", "enumerate",
		"full list", "entire list",
		"every single",
	}
	for _, p := range exhaustivePatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}

	words := strings.Fields(lower)
	if len(words) >= 15 {
		qWords := 0
		for _, w := range words {
			switch w {
			case "what", "which", "how", "where", "when", "why", "list", "describe", "name":
				qWords++
			}
		}
		if qWords >= 2 {
			return true
		}
	}

	return false
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "by": true, "from": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"been": true, "being": true, "have": true, "has": true, "had": true,
	"do": true, "does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "may": true, "might": true, "must": true,
	"shall": true, "can": true, "this": true, "that": true, "these": true,
	"those": true, "what": true, "which": true, "who": true, "whom": true,
	"where": true, "when": true, "how": true, "why": true, "not": true,
	"no": true, "nor": true, "if": true, "then": true, "than": true,
	"so": true, "as": true, "about": true, "into": true, "between": true,
}

func isStopWord(w string) bool {
	return stopWords[strings.ToLower(w)]
}
