// Package validate performs input sanitation on free-text submitted to the
// research engine: length bounds, prompt-injection, XSS, SQL, and
// special-character-ratio checks.
package validate

import (
	"regexp"
	"strings"
	"unicode"
)

// Config controls validator thresholds.
type Config struct {
	MinLength          int     // default 10
	MaxLength          int     // default 50_000
	SpecialCharRatio    float64 // reject above this fraction, default 0.3
	MaxFileSizeBytes   int64   // default 10 MiB
}

// DefaultConfig returns the thresholds named in the external configuration
// contract.
func DefaultConfig() Config {
	return Config{
		MinLength:        10,
		MaxLength:        50_000,
		SpecialCharRatio: 0.3,
		MaxFileSizeBytes: 10 * 1024 * 1024,
	}
}

// Violation is one failed check, identified by a category rather than the
// specific pattern that matched — the category is surfaced to callers;
// the matched pattern itself never is, so a rejected caller learns nothing
// about which signature tripped the filter.
type Violation struct {
	Category string
	Detail   string
}

// Result is the output of Validate: a pass/fail flag, the violations found,
// and an aggregate risk score.
type Result struct {
	IsValid     bool
	Violations  []Violation
	RiskScore   float64
}

// category risk weights, summed across distinct categories and clamped to 1.0.
const (
	riskLength         = 0.2
	riskSpecialChars   = 0.3
	riskSQL            = 0.4
	riskXSS            = 0.5
	riskPromptInjection = 0.5
)

var promptInjectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?(the\s+)?(above|prior)\s+instructions`),
	regexp.MustCompile(`(?i)the\s+above\s+(is|was)\s+(a\s+)?(test|joke|lie)`),
	regexp.MustCompile(`/\*\s*SYSTEM\s*\*/`),
	regexp.MustCompile(`(?i)---\s*BEGIN\s+SYSTEM\s*---`),
	regexp.MustCompile(`\[SYSTEM\]`),
	regexp.MustCompile(`(?i)^\s*SYSTEM\s*:`),
}

var xssPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script[\s>]`),
	regexp.MustCompile(`(?i)<iframe[\s>]`),
	regexp.MustCompile(`(?i)<svg[^>]*\bonload\s*=`),
	regexp.MustCompile(`(?i)<img[^>]*\bonerror\s*=`),
	regexp.MustCompile(`(?i)javascript\s*:`),
}

var sqlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bUNION\s+(ALL\s+)?SELECT\b`),
	regexp.MustCompile(`(?i)\bDROP\s+TABLE\b`),
	regexp.MustCompile(`(?i)\bOR\s+1\s*=\s*1\b`),
	regexp.MustCompile(`(?i)\bINSERT\s+INTO\b.+\bVALUES\b`),
	regexp.MustCompile(`(?i);\s*--`),
	regexp.MustCompile(`(?i)\bxp_cmdshell\b`),
}

// Validate runs every check, in the order documented in SPEC_FULL.md §4.11,
// and returns an aggregate Result. Unlike the provider-outage errors
// elsewhere in the system, validation failure is a result value, never an
// error — only genuine infrastructure outages raise.
func Validate(cfg Config, text string) Result {
	var violations []Violation
	var risk float64

	if n := len(text); n < cfg.MinLength || n > cfg.MaxLength {
		violations = append(violations, Violation{Category: "length", Detail: "input length out of bounds"})
		risk += riskLength
	}

	if matchesAny(promptInjectionPatterns, text) {
		violations = append(violations, Violation{Category: "prompt_injection", Detail: "prompt-injection pattern detected"})
		risk += riskPromptInjection
	}

	if matchesAny(xssPatterns, text) {
		violations = append(violations, Violation{Category: "xss", Detail: "markup injection pattern detected"})
		risk += riskXSS
	}

	if matchesAny(sqlPatterns, text) {
		violations = append(violations, Violation{Category: "sql", Detail: "sql injection pattern detected"})
		risk += riskSQL
	}

	if specialCharRatio(text) > cfg.SpecialCharRatio {
		violations = append(violations, Violation{Category: "special_chars", Detail: "non-alphanumeric ratio exceeds threshold"})
		risk += riskSpecialChars
	}

	if risk > 1.0 {
		risk = 1.0
	}

	return Result{
		IsValid:    len(violations) == 0,
		Violations: violations,
		RiskScore:  risk,
	}
}

func matchesAny(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// specialCharRatio returns the fraction of runes in text that are neither
// letters, digits, nor whitespace.
func specialCharRatio(text string) float64 {
	if text == "" {
		return 0
	}
	var total, special int
	for _, r := range text {
		total++
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			special++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(special) / float64(total)
}

// FileResult is the outcome of validating an uploaded file's metadata.
type FileResult struct {
	IsValid bool
	Reason  string
}

var allowedFileExtensions = map[string]bool{"pdf": true}

// ValidateFile enforces the upload contract: extension in {pdf}, size within
// the configured limit, and no path-traversal components in the filename.
func ValidateFile(cfg Config, filename string, size int64) FileResult {
	ext := strings.ToLower(strings.TrimPrefix(extOf(filename), "."))
	if !allowedFileExtensions[ext] {
		return FileResult{IsValid: false, Reason: "unsupported file extension"}
	}
	maxSize := cfg.MaxFileSizeBytes
	if maxSize <= 0 {
		maxSize = DefaultConfig().MaxFileSizeBytes
	}
	if size > maxSize {
		return FileResult{IsValid: false, Reason: "file exceeds size limit"}
	}
	if strings.Contains(filename, "..") || strings.ContainsAny(filename, "/\\") {
		return FileResult{IsValid: false, Reason: "invalid filename"}
	}
	return FileResult{IsValid: true}
}

func extOf(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}
	return filename[idx:]
}
