package chunker

import (
	"strings"
	"testing"
)

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func TestChunkRoundTrip(t *testing.T) {
	text := "Facts\nThe appellant filed a suit in 2019. The respondent contested it.\n\nHeld\nThe appeal is dismissed."
	c := New(Config{MaxChunkSize: DefaultMaxChunkSize})
	chunks := c.Chunk(text)

	var rebuilt strings.Builder
	for _, ch := range chunks {
		rebuilt.WriteString(ch.Body)
	}

	if normalizeWhitespace(rebuilt.String()) != normalizeWhitespace(text) {
		t.Errorf("round trip failed:\ngot:  %q\nwant: %q", normalizeWhitespace(rebuilt.String()), normalizeWhitespace(text))
	}
}

func TestChunkNoHeaderIsBody(t *testing.T) {
	text := "Just some unstructured text with no recognized headers at all."
	c := New(Config{})
	chunks := c.Chunk(text)
	if len(chunks) != 1 || chunks[0].SectionHeader != "Body" {
		t.Fatalf("expected single Body chunk, got %+v", chunks)
	}
}

func TestChunkHeaderAttribution(t *testing.T) {
	text := "Facts\nParty A sued Party B.\n\nHeld\nThe claim succeeds."
	c := New(Config{})
	chunks := c.Chunk(text)

	headers := map[string]bool{}
	for _, ch := range chunks {
		headers[ch.SectionHeader] = true
	}
	if !headers["Facts"] || !headers["Held"] {
		t.Fatalf("expected Facts and Held headers, got %+v", chunks)
	}
}

func TestChunkSizeBound(t *testing.T) {
	var b strings.Builder
	b.WriteString("Analysis\n")
	for i := 0; i < 500; i++ {
		b.WriteString("This is a moderately long sentence used to exercise the size bound. ")
	}
	c := New(Config{MaxChunkSize: 500})
	chunks := c.Chunk(b.String())
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks for oversized section, got %d", len(chunks))
	}
	for _, ch := range chunks {
		if len(ch.Body) > 500 {
			t.Errorf("chunk body exceeds MaxChunkSize: %d bytes", len(ch.Body))
		}
	}
}

func TestChunkDropsEmptyFragments(t *testing.T) {
	text := "Facts\n\n\n\nHeld\nDismissed."
	c := New(Config{})
	chunks := c.Chunk(text)
	for _, ch := range chunks {
		if strings.TrimSpace(ch.Body) == "" {
			t.Errorf("found empty/whitespace-only chunk body")
		}
	}
}

func TestChunkAttributesClauseNumberOnOversizedSection(t *testing.T) {
	var b strings.Builder
	b.WriteString("Analysis\n")
	for i := 1; i <= 20; i++ {
		b.WriteString("1.")
		b.WriteString(strings.Repeat("1", 1))
		b.WriteString(" This numbered clause restates the contractor's obligations at length so the section overflows the configured bound.\n")
	}
	c := New(Config{MaxChunkSize: 200})
	chunks := c.Chunk(b.String())

	var sawClause bool
	for _, ch := range chunks {
		if ch.ClauseNumber != "" {
			sawClause = true
			if ch.ClauseDepth != 2 {
				t.Errorf("expected clause depth 2 for %q, got %d", ch.ClauseNumber, ch.ClauseDepth)
			}
		}
	}
	if !sawClause {
		t.Fatalf("expected at least one chunk to carry a clause number, got %+v", chunks)
	}
}
