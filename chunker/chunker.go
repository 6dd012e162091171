// Package chunker splits a judgment's full text into an ordered sequence of
// (section_header, chunk_body) pairs, size-bounded and header-attributed,
// per the contract in SPEC_FULL.md §4.3.
package chunker

import (
	"regexp"
	"strings"
)

// DefaultMaxChunkSize is the default maximum chunk_body length in bytes.
const DefaultMaxChunkSize = 2000

// Config controls chunking behaviour.
type Config struct {
	MaxChunkSize int // maximum chunk_body length; 0 means DefaultMaxChunkSize
}

// Chunk is one (section_header, chunk_body) pair produced by the chunker,
// prior to any store-level identifiers being assigned.
type Chunk struct {
	SectionHeader string
	Body          string
	ClauseNumber  string // leading numbered-clause label, empty if the body doesn't start with one
	ClauseDepth   int    // nesting depth of ClauseNumber, 0 when ClauseNumber is empty
}

// Chunker splits full judgment text into header-attributed, size-bounded
// chunks.
type Chunker struct {
	cfg Config
}

// New returns a Chunker with the given configuration. A zero MaxChunkSize
// is replaced with DefaultMaxChunkSize.
func New(cfg Config) *Chunker {
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = DefaultMaxChunkSize
	}
	return &Chunker{cfg: cfg}
}

// sectionHeaderPattern matches one of the closed set of recognized legal
// section headers, optionally followed by a colon, occupying its own line.
// The set intentionally mirrors the closed list in SPEC_FULL.md §4.3.
var sectionHeaderPattern = regexp.MustCompile(
	`(?im)^\s*(issue(?:s)? for consideration|headnotes?|held|facts?|analysis|reasoning|judg[e]?ment|order|keywords?)\s*:?\s*$`,
)

// bodyHeader is the implicit section name used when no recognized header is
// present anywhere in the document.
const bodyHeader = "Body"

// Chunk splits fullText into an ordered sequence of header-attributed chunks,
// each no longer than the configured MaxChunkSize. Concatenating the
// returned bodies in order recovers fullText modulo whitespace
// normalization. Empty or whitespace-only fragments are dropped.
func (c *Chunker) Chunk(fullText string) []Chunk {
	sections := splitBySectionHeaders(fullText)

	var out []Chunk
	for _, sec := range sections {
		for _, frag := range c.boundFragments(sec.body) {
			if strings.TrimSpace(frag) == "" {
				continue
			}
			chunk := Chunk{SectionHeader: sec.header, Body: frag}
			if num, ok := ExtractClauseNumber(frag); ok {
				chunk.ClauseNumber = num
				chunk.ClauseDepth = ClauseDepth(num)
			}
			out = append(out, chunk)
		}
	}
	return out
}

type rawSection struct {
	header string
	body   string
}

// splitBySectionHeaders locates every recognized header line and assigns the
// text up to (but not including) the next header to it. Text preceding the
// first header, if any, is attributed to the preamble under the same header
// as the first recognized section (a judgment's caption/parties line belongs
// to whatever section follows it). If no header is found at all, the entire
// text is one implicit "Body" section.
func splitBySectionHeaders(fullText string) []rawSection {
	locs := sectionHeaderPattern.FindAllStringIndex(fullText, -1)
	if len(locs) == 0 {
		return []rawSection{{header: bodyHeader, body: fullText}}
	}

	var sections []rawSection
	if locs[0][0] > 0 {
		preamble := fullText[:locs[0][0]]
		if strings.TrimSpace(preamble) != "" {
			headerName := normalizeHeaderName(fullText[locs[0][0]:locs[0][1]])
			sections = append(sections, rawSection{header: headerName, body: preamble})
		}
	}

	for i, loc := range locs {
		start := loc[0]
		end := len(fullText)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		headerName := normalizeHeaderName(fullText[loc[0]:loc[1]])
		sections = append(sections, rawSection{header: headerName, body: fullText[start:end]})
	}
	return sections
}

func normalizeHeaderName(raw string) string {
	name := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(raw), ":"))
	lower := strings.ToLower(name)
	switch {
	case strings.HasPrefix(lower, "issue"):
		return "Issue for Consideration"
	case strings.HasPrefix(lower, "headnote"):
		return "Headnotes"
	case lower == "held":
		return "Held"
	case strings.HasPrefix(lower, "fact"):
		return "Facts"
	case lower == "analysis":
		return "Analysis"
	case lower == "reasoning":
		return "Reasoning"
	case strings.HasPrefix(lower, "judg"):
		return "Judgment"
	case lower == "order":
		return "Order"
	case strings.HasPrefix(lower, "keyword"):
		return "Keywords"
	default:
		return name
	}
}

// boundFragments subdivides a section body so that every returned fragment
// is at most c.cfg.MaxChunkSize bytes long, splitting first at paragraph
// boundaries and, for any paragraph still too large, at sentence boundaries;
// a single sentence still exceeding the limit is hard-split.
func (c *Chunker) boundFragments(body string) []string {
	if len(body) <= c.cfg.MaxChunkSize {
		return []string{body}
	}

	var out []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}

	for _, para := range splitParagraphs(body) {
		if len(para) > c.cfg.MaxChunkSize {
			flush()
			// Many judgments keep numbered paragraphs even inside Facts/Held
			// sections; prefer clause boundaries over raw sentence splitting
			// when present, since they carry more semantic signal.
			units := SplitByClauses(para)
			if len(units) <= 1 {
				units = splitSentences(para)
			}
			for _, unit := range units {
				c.appendBounded(&cur, unit, &out)
			}
			continue
		}
		if cur.Len()+len(para)+2 > c.cfg.MaxChunkSize && cur.Len() > 0 {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(para)
	}
	flush()
	return out
}

// appendBounded appends a sentence-level fragment to cur, flushing to out
// when it would overflow, and hard-splitting any sentence that alone
// exceeds the limit.
func (c *Chunker) appendBounded(cur *strings.Builder, sent string, out *[]string) {
	if len(sent) > c.cfg.MaxChunkSize {
		if cur.Len() > 0 {
			*out = append(*out, cur.String())
			cur.Reset()
		}
		for len(sent) > c.cfg.MaxChunkSize {
			*out = append(*out, sent[:c.cfg.MaxChunkSize])
			sent = sent[c.cfg.MaxChunkSize:]
		}
		if sent != "" {
			cur.WriteString(sent)
		}
		return
	}
	if cur.Len()+len(sent)+1 > c.cfg.MaxChunkSize && cur.Len() > 0 {
		*out = append(*out, cur.String())
		cur.Reset()
	}
	if cur.Len() > 0 {
		cur.WriteString(" ")
	}
	cur.WriteString(sent)
}

// splitParagraphs splits text on blank-line boundaries.
func splitParagraphs(text string) []string {
	raw := strings.Split(text, "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitSentences is a simple sentence tokenizer splitting on
// period/question-mark/exclamation followed by whitespace or end of string.
func splitSentences(text string) []string {
	var sentences []string
	var cur strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		cur.WriteRune(runes[i])
		if runes[i] == '.' || runes[i] == '?' || runes[i] == '!' {
			if i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
				s := cur.String()
				if strings.TrimSpace(s) != "" {
					sentences = append(sentences, s)
				}
				cur.Reset()
			}
		}
	}
	if cur.Len() > 0 {
		s := cur.String()
		if strings.TrimSpace(s) != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
