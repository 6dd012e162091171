package prompt

import (
	"strings"
	"testing"
)

func sampleHit(title string, bodyLen int) Hit {
	return Hit{
		CaseTitle:  title,
		Citation:   "[2025] 9 S.C.R. 585",
		PageNumber: 3,
		Section:    "Held",
		Body:       strings.Repeat("x", bodyLen),
		URL:        "https://example.com/judgments/" + title + ".pdf",
	}
}

func TestBuildIncludesAllSlots(t *testing.T) {
	out := Build(Request{
		Input: "The appellant was convicted under Section 302.",
		Hits:  []Hit{sampleHit("case-a", 50)},
	})
	if !strings.Contains(out, systemInstruction) {
		t.Error("expected system instruction in output")
	}
	if !strings.Contains(out, "Section 302") {
		t.Error("expected user input in output")
	}
	if !strings.Contains(out, "[2025] 9 S.C.R. 585") {
		t.Error("expected citation in rendered context")
	}
}

func TestBuildIncludesPriorTurns(t *testing.T) {
	out := Build(Request{
		Input: "What about the sentence length?",
		PriorTurns: []Turn{
			{Role: "user", Content: "Summarize the case."},
			{Role: "assistant", Content: "The case concerns theft under Section 378."},
		},
		Hits: []Hit{sampleHit("case-a", 50)},
	})
	if !strings.Contains(out, "Summarize the case.") {
		t.Error("expected prior user turn in output")
	}
	if !strings.Contains(out, "Section 378") {
		t.Error("expected prior assistant turn in output")
	}
}

func TestRenderContextNeverTruncatesCitationOrURL(t *testing.T) {
	hits := make([]Hit, 0, 200)
	for i := 0; i < 200; i++ {
		h := sampleHit("case", 2000)
		hits = append(hits, h)
	}
	out := renderContext(hits, nil)
	if !strings.Contains(out, "[2025] 9 S.C.R. 585") {
		t.Fatal("expected at least one surviving citation")
	}
	if !strings.Contains(out, "https://example.com") {
		t.Fatal("expected at least one surviving URL")
	}
	if len(out) > maxContextChars+excerptTrimLen {
		t.Errorf("context block not bounded: %d chars", len(out))
	}
}

func TestRenderContextEmptyHitsIsNotError(t *testing.T) {
	out := renderContext(nil, nil)
	if out == "" {
		t.Error("expected placeholder text for empty hits, got empty string")
	}
}

func TestExtractQuotePicksHighestOverlapSentence(t *testing.T) {
	content := "The weather was pleasant that day. The accused was found guilty of theft under Section 378. The court adjourned."
	words := SignificantWords("guilty theft Section 378")
	quote := ExtractQuote(content, words)
	if !strings.Contains(quote, "guilty") {
		t.Errorf("expected quote to contain the highest-overlap sentence, got %q", quote)
	}
}

func TestExtractQuoteEmptyWhenNoOverlap(t *testing.T) {
	quote := ExtractQuote("Irrelevant unrelated text about weather patterns.", SignificantWords("theft Section 378"))
	if quote != "" {
		t.Errorf("expected empty quote for no overlap, got %q", quote)
	}
}
