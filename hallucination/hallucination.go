// Package hallucination scans a generated answer for statute, article, and
// case-law references and flags any that do not correspond to a real
// section/article or to a case actually present in the retrieved context.
package hallucination

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/lexiq-ai/lexiq/retrieval"
)

// RefType classifies an extracted legal reference.
type RefType string

const (
	RefStatute RefType = "statute"
	RefArticle RefType = "article"
	RefCase    RefType = "case"
)

// Verdict is the outcome of validating one reference.
type Verdict string

const (
	VerdictValid        Verdict = "valid"
	VerdictSuspectedFake Verdict = "suspected_fake"
	VerdictUnknown       Verdict = "unknown"
)

// Reference is one extracted, validated legal citation.
type Reference struct {
	Type       RefType
	Raw        string
	Code       string // statute/code name, empty for articles and cases
	Key        string // section number, article number, or case text
	Verdict    Verdict
	Confidence float64
	Reason     string
}

// statutePattern captures "Section <num><suffix?> of the <Code>", the
// shorthand "<Code> Section <num>" / "<Code> s. <num>" forms, and the
// number-then-code shorthand "Section <num> [of] <Code>" / "s. <num> <Code>".
var statutePattern = regexp.MustCompile(`(?i)(?:[Ss]ection|[Ss]\.?)\s*(\d{1,4}[A-Za-z]?)\s+of\s+the\s+([A-Za-z ]+?(?:Code|Act))\b` +
	`|\b(IPC|CrPC|CPC|IT Act|Evidence Act)\s*,?\s*(?:[Ss]ection|[Ss]\.?)\s*(\d{1,4}[A-Za-z]?)\b` +
	`|(?:[Ss]ection|[Ss]\.?)\s*(\d{1,4}[A-Za-z]?)\s+(?:of\s+)?(IPC|CrPC|CPC|IT Act|Evidence Act)\b`)

// articlePattern captures "Article <num><suffix?> of the Constitution" and
// "Article <num><suffix?>" alone.
var articlePattern = regexp.MustCompile(`(?i)[Aa]rticle\s*(\d{1,3}[A-Za-z]?)\s*(?:of\s+the\s+Constitution)?`)

// caseCitationPattern captures the neutral citation formats a judgment's
// header actually carries ("[YYYY] N S.C.R. N", "YYYY INSC N", "YYYY SCC N"),
// the same families parser/citation.go extracts at ingest time, rather than
// free-text party names.
var caseCitationPattern = regexp.MustCompile(`\[\d{4}\]\s*\d+\s*S\.?\s*C\.?\s*R\.?\s*\d+|\d{4}\s+INSC\s+\d+|\d{4}\s+SCC\s+\d+`)

// codeAliases maps shorthand names found in text to the table keys in
// tables.go.
var codeAliases = map[string]string{
	"IPC":          "IPC",
	"CRPC":         "CRPC",
	"CR.P.C":       "CRPC",
	"CPC":          "CPC",
	"IT ACT":       "IT ACT",
	"EVIDENCE ACT": "EVIDENCE ACT",
	"PENAL CODE":   "IPC",
}

func normalizeCode(raw string) string {
	key := strings.ToUpper(strings.TrimSpace(raw))
	key = strings.TrimSuffix(key, ",")
	if alias, ok := codeAliases[key]; ok {
		return alias
	}
	for alias, code := range codeAliases {
		if strings.Contains(key, alias) {
			return code
		}
	}
	return key
}

// caseSource is the narrow capability the detector needs to check whether a
// case citation corresponds to a chunk actually present in the retrieved
// context, keeping the detector's dependency on the retriever one-directional.
type caseSource interface {
	RetrieveWithScores(ctx context.Context, queryText string, k int) ([]retrieval.Hit, error)
}

// Detector extracts and validates legal references in generated text.
type Detector struct {
	tables Tables
	cases  caseSource
	log    *auditLog
}

// Config controls where the statute/article valid-range table is loaded
// from and where the hallucination audit log is written.
type Config struct {
	TablePath    string
	AuditLogPath string
}

// New builds a Detector. cases may be nil, in which case case citations are
// always reported with VerdictUnknown rather than validated against context.
func New(cfg Config, cases caseSource) (*Detector, error) {
	tables, err := LoadTables(cfg.TablePath)
	if err != nil {
		return nil, err
	}
	var log *auditLog
	if cfg.AuditLogPath != "" {
		l, err := newAuditLog(cfg.AuditLogPath)
		if err != nil {
			return nil, err
		}
		log = l
	}
	return &Detector{tables: tables, cases: cases, log: log}, nil
}

// Close releases the audit log file handle, if any.
func (d *Detector) Close() error {
	if d.log == nil {
		return nil
	}
	return d.log.Close()
}

// Result is the aggregate outcome of scanning one answer.
type Result struct {
	HasHallucinations bool
	NumReferences     int
	NumSuspected      int
	References        []Reference
	SuspectedFakeRefs []Reference
	ConfidenceScore   float64
	Summary           string
}

// Check extracts every statute, article, and case reference from answer,
// validates each, writes an audit record, and returns the aggregate result.
func (d *Detector) Check(ctx context.Context, userID, query, answer string) Result {
	var refs []Reference

	for _, m := range statutePattern.FindAllStringSubmatch(answer, -1) {
		var section, code string
		switch {
		case m[1] != "":
			section, code = m[1], m[2]
		case m[3] != "":
			code, section = m[3], m[4]
		default:
			section, code = m[5], m[6]
		}
		refs = append(refs, d.validateStatute(m[0], code, section))
	}

	for _, m := range articlePattern.FindAllStringSubmatch(answer, -1) {
		refs = append(refs, d.validateArticle(m[0], m[1]))
	}

	for _, m := range caseCitationPattern.FindAllString(answer, -1) {
		refs = append(refs, d.validateCase(ctx, m))
	}

	result := summarize(refs)
	d.writeAudit(userID, query, answer, result)
	return result
}

func (d *Detector) validateStatute(raw, code, section string) Reference {
	normCode := normalizeCode(code)
	valid, rangeDesc, known := d.tables.ValidateStatute(normCode, strings.ToUpper(section))
	ref := Reference{Type: RefStatute, Raw: strings.TrimSpace(raw), Code: normCode, Key: strings.ToUpper(section)}
	switch {
	case !known:
		ref.Verdict = VerdictUnknown
		ref.Confidence = 0.5
		ref.Reason = "unrecognized code: " + code
	case valid:
		ref.Verdict = VerdictValid
		ref.Confidence = 1.0
		ref.Reason = "section " + section + " is within " + normCode + " " + rangeDesc
	default:
		ref.Verdict = VerdictSuspectedFake
		ref.Confidence = 0.9
		ref.Reason = normCode + " valid sections are " + rangeDesc + "; " + section + " is outside that range"
	}
	return ref
}

func (d *Detector) validateArticle(raw, article string) Reference {
	valid, rangeDesc := d.tables.ValidateArticle(strings.ToUpper(article))
	ref := Reference{Type: RefArticle, Raw: strings.TrimSpace(raw), Key: strings.ToUpper(article)}
	if valid {
		ref.Verdict = VerdictValid
		ref.Confidence = 1.0
		ref.Reason = "article " + article + " is within Constitution " + rangeDesc
	} else {
		ref.Verdict = VerdictSuspectedFake
		ref.Confidence = 0.9
		ref.Reason = "Constitution valid articles are " + rangeDesc + "; " + article + " is outside that range"
	}
	return ref
}

// validateCase checks a case citation against the chunks the retriever would
// surface for that same citation text: if a chunk's citation or case title
// contains the cited text (or vice versa), the case is treated as grounded
// in the retrieved corpus rather than fabricated.
func (d *Detector) validateCase(ctx context.Context, raw string) Reference {
	ref := Reference{Type: RefCase, Raw: strings.TrimSpace(raw), Key: strings.TrimSpace(raw)}
	if d.cases == nil {
		ref.Verdict = VerdictUnknown
		ref.Confidence = 0.5
		ref.Reason = "no retrieval context available to verify case citation"
		return ref
	}

	hits, err := d.cases.RetrieveWithScores(ctx, raw, 5)
	if err != nil || len(hits) == 0 {
		ref.Verdict = VerdictSuspectedFake
		ref.Confidence = 0.7
		ref.Reason = "no retrieved case matches this citation"
		return ref
	}

	target := strings.ToLower(ref.Key)
	for _, h := range hits {
		title := strings.ToLower(h.Chunk.CaseTitle)
		citation := strings.ToLower(h.Chunk.Citation)
		if title == "" && citation == "" {
			continue
		}
		if (title != "" && (strings.Contains(target, title) || strings.Contains(title, target))) ||
			(citation != "" && (strings.Contains(target, citation) || strings.Contains(citation, target))) {
			ref.Verdict = VerdictValid
			ref.Confidence = 0.85
			ref.Reason = "matches retrieved case: " + h.Chunk.CaseTitle
			return ref
		}
	}

	ref.Verdict = VerdictSuspectedFake
	ref.Confidence = 0.7
	ref.Reason = "no retrieved case title or citation matches this citation"
	return ref
}

func summarize(refs []Reference) Result {
	var suspected []Reference
	overall := 1.0
	for _, r := range refs {
		if r.Verdict == VerdictSuspectedFake {
			if len(suspected) == 0 || r.Confidence > overall {
				overall = r.Confidence
			}
			suspected = append(suspected, r)
		}
	}

	summary := "no legal references found"
	if len(refs) > 0 {
		summary = "checked " + strconv.Itoa(len(refs)) + " reference(s), " + strconv.Itoa(len(suspected)) + " suspected fabricated"
	}

	return Result{
		HasHallucinations: len(suspected) > 0,
		NumReferences:     len(refs),
		NumSuspected:       len(suspected),
		References:        refs,
		SuspectedFakeRefs: suspected,
		ConfidenceScore:   overall,
		Summary:           summary,
	}
}
