package parser

import (
	"regexp"
	"strings"
)

// Citation patterns. Indian Supreme Court citations appear in two common
// forms; when both appear on the same physical line (reporters sometimes
// print both the SCR neutral citation and the INSC number together) they
// are joined with ":" per the parse contract.
var (
	scrCitationPattern  = regexp.MustCompile(`\[\d{4}\]\s*\d+\s*S\.?\s*C\.?\s*R\.?\s*\d+`)
	inscCitationPattern = regexp.MustCompile(`\d{4}\s+INSC\s+\d+`)

	titlePattern = regexp.MustCompile(`(?i)^(.{2,120}?)\s+(?:v\.|vs\.|versus)\s+(.{2,120})$`)

	caseNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Civil Appeal No\.?\s*[\d/]+\s*of\s*\d{4}`),
		regexp.MustCompile(`(?i)Criminal Appeal No\.?\s*[\d/]+\s*of\s*\d{4}`),
		regexp.MustCompile(`(?i)Writ Petition\s*\([^)]*\)\s*No\.?\s*[\d/]+\s*of\s*\d{4}`),
		regexp.MustCompile(`(?i)Writ Petition No\.?\s*[\d/]+\s*of\s*\d{4}`),
		regexp.MustCompile(`(?i)SLP\s*\([^)]*\)\s*No\.?\s*[\d/]+\s*of\s*\d{4}`),
		regexp.MustCompile(`(?i)Special Leave Petition\s*\([^)]*\)\s*No\.?\s*[\d/]+\s*of\s*\d{4}`),
	}
)

// extractMetadata scans the first page's text for a citation, a party-title
// line, and a case number. Any field it cannot find with confidence is left
// empty rather than guessed.
func extractMetadata(firstPage string) Metadata {
	return Metadata{
		Citation:   extractCitation(firstPage),
		CaseTitle:  extractTitle(firstPage),
		CaseNumber: extractCaseNumber(firstPage),
	}
}

func extractCitation(text string) string {
	for _, line := range strings.Split(text, "\n") {
		scr := scrCitationPattern.FindString(line)
		insc := inscCitationPattern.FindString(line)
		switch {
		case scr != "" && insc != "":
			return strings.TrimSpace(scr) + ":" + strings.TrimSpace(insc)
		case scr != "":
			return strings.TrimSpace(scr)
		case insc != "":
			return strings.TrimSpace(insc)
		}
	}
	return ""
}

func extractTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := titlePattern.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1]) + " v. " + strings.TrimSpace(m[2])
		}
	}
	return ""
}

func extractCaseNumber(text string) string {
	for _, re := range caseNumberPatterns {
		if m := re.FindString(text); m != "" {
			return strings.Join(strings.Fields(m), " ")
		}
	}
	return ""
}
