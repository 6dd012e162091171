// Package prompt assembles the three-slot LLM request — a fixed system
// instruction, a retrieval-context block, and the sanitized user input (plus
// any prior chat turns) — and the Markdown output contract the model is
// asked to follow.
package prompt

import (
	"fmt"
	"strings"
)

// systemInstruction is the fixed first slot: the assistant's role and the
// required output shape.
const systemInstruction = `You are a legal research assistant analyzing a new case against a corpus of prior judgments.
Base every claim strictly on the retrieval context provided below; never invent a citation, case title, or page number.
Respond in Markdown with exactly these sections, in this order:

# Current Case Summary
A concise summary of the case description provided by the user.

# Similar Precedents Found
A numbered list. Each entry must include: case title, citation, page, a one-sentence relevance explanation, a direct quote from the source, and the document URL.

# Strategic Recommendations
Guidance grounded in the precedents above.

# All References
A flat list of every citation referenced anywhere above, each with its document URL.`

// Turn is one prior exchange in a chat session, included in the input slot
// when building a follow-up turn's prompt.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

// Hit is one retrieval result rendered into the context block.
type Hit struct {
	CaseTitle  string
	Citation   string
	PageNumber int
	Section    string
	Excerpt    string // full-page excerpt from the PDF Excerpt Reader, if fetched
	Body       string // fallback chunk body when no excerpt was fetched
	URL        string
}

// Request holds everything needed to assemble a complete prompt.
type Request struct {
	Input      string // sanitized user input (case description or chat message)
	PriorTurns []Turn
	Hits       []Hit
}

// maxContextChars bounds the retrieval-context block's total size. When the
// rendered context would exceed it, excerpt bodies are trimmed first, then
// whole hits are dropped from the end — citation and URL fields are never
// truncated under any circumstance.
const maxContextChars = 24000

// excerptTrimLen is the length an over-budget excerpt/body is cut to before a
// trailing ellipsis is appended; trimming runs before any whole hit is dropped.
const excerptTrimLen = 800

// Build renders the complete prompt: system instruction, context block, and
// input slot (with any prior turns), ready to send to the LLM client.
func Build(req Request) string {
	context := renderContext(req.Hits, SignificantWords(req.Input))

	var b strings.Builder
	b.WriteString(systemInstruction)
	b.WriteString("\n\n## Retrieval Context\n\n")
	b.WriteString(context)

	if len(req.PriorTurns) > 0 {
		b.WriteString("\n## Prior Conversation\n\n")
		for _, t := range req.PriorTurns {
			fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
		}
	}

	b.WriteString("\n## User Input\n\n")
	b.WriteString(req.Input)
	return b.String()
}

// renderContext renders hits in order, applying the trim policy: first
// shrink excerpt/body text for hits that push the block over budget, and
// only if that's insufficient, drop whole hits from the end. Citation and
// URL text is never touched.
func renderContext(hits []Hit, queryWords map[string]bool) string {
	rendered := make([]string, len(hits))
	for i, h := range hits {
		rendered[i] = renderHit(i+1, h, queryWords)
	}

	total := func() int {
		n := 0
		for _, r := range rendered {
			n += len(r)
		}
		return n
	}

	// Pass 1: trim excerpt/body text on the longest entries until the block
	// fits or nothing is left to trim.
	for total() > maxContextChars {
		longest := -1
		for i, h := range hits {
			// Text already cut to excerptTrimLen plus the ellipsis is not picked again.
			if len(bodyText(h)) > excerptTrimLen+len("…") && (longest == -1 || len(bodyText(hits[longest])) < len(bodyText(h))) {
				longest = i
			}
		}
		if longest == -1 {
			break
		}
		hits[longest] = trimBody(hits[longest])
		rendered[longest] = renderHit(longest+1, hits[longest], queryWords)
	}

	// Pass 2: drop whole hits from the end until the block fits.
	for total() > maxContextChars && len(rendered) > 0 {
		rendered = rendered[:len(rendered)-1]
	}

	if len(rendered) == 0 {
		return "(no similar precedents found)"
	}
	return strings.Join(rendered, "\n\n")
}

func bodyText(h Hit) string {
	if h.Excerpt != "" {
		return h.Excerpt
	}
	return h.Body
}

func trimBody(h Hit) Hit {
	if h.Excerpt != "" {
		if len(h.Excerpt) > excerptTrimLen {
			h.Excerpt = h.Excerpt[:excerptTrimLen] + "…"
		}
		return h
	}
	if len(h.Body) > excerptTrimLen {
		h.Body = h.Body[:excerptTrimLen] + "…"
	}
	return h
}

func renderHit(index int, h Hit, queryWords map[string]bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d. %s — %s — page %d — section %s\n", index, h.CaseTitle, h.Citation, h.PageNumber, h.Section)
	b.WriteString(bodyText(h))
	b.WriteString("\n")
	if quote := ExtractQuote(bodyText(h), queryWords); quote != "" {
		fmt.Fprintf(&b, "Quote: %q\n", quote)
	}
	b.WriteString(h.URL)
	return b.String()
}
