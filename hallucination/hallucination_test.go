package hallucination

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lexiq-ai/lexiq/retrieval"
	"github.com/lexiq-ai/lexiq/store"
)

type fakeCaseSource struct {
	hits []retrieval.Hit
	err  error
}

func (f fakeCaseSource) RetrieveWithScores(ctx context.Context, query string, k int) ([]retrieval.Hit, error) {
	return f.hits, f.err
}

func newTestDetector(t *testing.T, cases caseSource) *Detector {
	t.Helper()
	dir := t.TempDir()
	cfg := Config{AuditLogPath: filepath.Join(dir, "hallucination.log")}
	d, err := New(cfg, cases)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestFakeStatuteSectionCaught(t *testing.T) {
	d := newTestDetector(t, nil)
	answer := "The accused was charged under Section 999 of the Penal Code."
	res := d.Check(context.Background(), "user-1", "q", answer)

	if !res.HasHallucinations {
		t.Fatal("expected hallucination to be flagged")
	}
	if res.NumSuspected != 1 {
		t.Fatalf("expected 1 suspected ref, got %d", res.NumSuspected)
	}
	if !strings.Contains(res.SuspectedFakeRefs[0].Reason, "1–511") {
		t.Errorf("expected reason to cite IPC's valid range, got %q", res.SuspectedFakeRefs[0].Reason)
	}
}

func TestFakeArticleCaught(t *testing.T) {
	d := newTestDetector(t, nil)
	answer := "This right is guaranteed under Article 999 of the Constitution."
	res := d.Check(context.Background(), "user-1", "q", answer)

	if !res.HasHallucinations {
		t.Fatal("expected hallucination to be flagged")
	}
	if !strings.Contains(res.SuspectedFakeRefs[0].Reason, "1–395") {
		t.Errorf("expected reason to cite Constitution's valid range, got %q", res.SuspectedFakeRefs[0].Reason)
	}
}

func TestValidReferencesPass(t *testing.T) {
	cases := fakeCaseSource{hits: []retrieval.Hit{
		{Chunk: store.Chunk{CaseTitle: "Kesavananda Bharati v. State of Kerala", Citation: "2015 SCC 5"}},
	}}
	d := newTestDetector(t, cases)
	answer := "Under Section 302 of the Indian Penal Code and Article 21 of the Constitution, as held in 2015 SCC 5."
	res := d.Check(context.Background(), "user-1", "q", answer)

	if res.HasHallucinations {
		t.Fatalf("expected no hallucinations, got suspected=%v", res.SuspectedFakeRefs)
	}
	if res.ConfidenceScore != 1.0 {
		t.Errorf("expected confidence 1.0, got %v", res.ConfidenceScore)
	}
}

func TestStatuteLiteralShorthandFormsMatch(t *testing.T) {
	d := newTestDetector(t, nil)
	answer := "The accused was charged under Section 999 of IPC."
	res := d.Check(context.Background(), "user-1", "q", answer)

	if res.NumReferences != 1 {
		t.Fatalf("expected 1 reference, got %d", res.NumReferences)
	}
	if !res.HasHallucinations {
		t.Fatal("expected hallucination to be flagged")
	}
	if !strings.Contains(res.SuspectedFakeRefs[0].Reason, "1–511") {
		t.Errorf("expected reason to cite IPC's valid range, got %q", res.SuspectedFakeRefs[0].Reason)
	}
}

func TestStatuteAndArticleShorthandAllValid(t *testing.T) {
	d := newTestDetector(t, nil)
	answer := "Section 302 IPC, Article 21, Section 154 CrPC"
	res := d.Check(context.Background(), "user-1", "q", answer)

	if res.NumReferences != 3 {
		t.Fatalf("expected 3 references, got %d: %+v", res.NumReferences, res.References)
	}
	if res.HasHallucinations {
		t.Fatalf("expected all three references to validate, got suspected=%v", res.SuspectedFakeRefs)
	}
}

func TestUnknownCodeMarkedUnknownNotFake(t *testing.T) {
	d := newTestDetector(t, nil)
	answer := "As per Section 10 of the Motor Vehicles Act."
	res := d.Check(context.Background(), "user-1", "q", answer)

	if res.HasHallucinations {
		t.Fatal("unrecognized code should not be reported as a suspected fake")
	}
}

func TestCaseCitationWithoutContextIsUnknown(t *testing.T) {
	d := newTestDetector(t, nil)
	answer := "As established in 2019 SCC 12."
	res := d.Check(context.Background(), "user-1", "q", answer)

	if len(res.References) == 0 {
		t.Fatal("expected a case reference to be extracted")
	}
	if res.References[0].Verdict != VerdictUnknown {
		t.Errorf("expected unknown verdict with no retrieval context, got %v", res.References[0].Verdict)
	}
}

func TestCaseCitationNotInContextSuspected(t *testing.T) {
	cases := fakeCaseSource{hits: []retrieval.Hit{
		{Chunk: store.Chunk{CaseTitle: "Some Other Case", Citation: "2010 SCC 9"}},
	}}
	d := newTestDetector(t, cases)
	answer := "As established in [2025] 9 S.C.R. 585."
	res := d.Check(context.Background(), "user-1", "q", answer)

	if !res.HasHallucinations {
		t.Fatal("expected citation absent from retrieved context to be flagged")
	}
}

func TestStatuteValidRangeProperty(t *testing.T) {
	tables := defaultTables()
	valid, _, known := tables.ValidateStatute("IPC", "511")
	if !known || !valid {
		t.Error("511 should be the upper bound of a valid IPC section")
	}
	valid, _, known = tables.ValidateStatute("IPC", "512")
	if !known || valid {
		t.Error("512 should be just outside the valid IPC range")
	}
	valid, _, known = tables.ValidateStatute("IPC", "498A")
	if !known || !valid {
		t.Error("498A is an explicitly enumerated valid IPC section")
	}
}

func TestAuditLogWritesOneLinePerCheck(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "hallucination.log")
	d, err := New(Config{AuditLogPath: logPath}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d.Check(context.Background(), "user-1", "q1", "Section 5 of the IPC.")
	d.Check(context.Background(), "user-1", "q2", "Section 999 of the IPC.")
	d.Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Errorf("expected 2 audit lines, got %d", len(lines))
	}
}
