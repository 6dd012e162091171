package security

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.AuditLogPath = filepath.Join(dir, "security.log")
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func TestProcessRejectsInvalidInput(t *testing.T) {
	e := newTestEnforcer(t)
	res := e.Process(context.Background(), "user-1", "127.0.0.1", "short")
	if res.Success {
		t.Fatal("expected short input to fail validation")
	}
	if len(res.Violations) == 0 {
		t.Error("expected violations to be populated")
	}
}

func TestProcessRedactsValidInput(t *testing.T) {
	e := newTestEnforcer(t)
	input := "The appellant John Doe can be reached at +91-9876543210 regarding the appeal filed in this matter."
	res := e.Process(context.Background(), "user-1", "127.0.0.1", input)
	if !res.Success {
		t.Fatalf("expected valid input to succeed, violations=%v", res.Violations)
	}
	if res.NumRedactions == 0 {
		t.Error("expected at least one redaction for phone number")
	}
	if strings.Contains(res.ProcessedText, "9876543210") {
		t.Error("expected phone number to be redacted from processed text")
	}
}

func TestAuditLogWritesOneLinePerCall(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "security.log")
	cfg := DefaultConfig()
	cfg.AuditLogPath = logPath
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	e.Process(context.Background(), "user-1", "127.0.0.1", "short")
	e.Process(context.Background(), "user-2", "127.0.0.1", "This is a long enough input to pass the length validation check.")
	e.Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Errorf("expected 2 audit lines, got %d", len(lines))
	}
}

func TestRequestIDsAreMonotoneAndUnique(t *testing.T) {
	a := nextRequestID()
	b := nextRequestID()
	if a == b {
		t.Error("expected distinct request ids")
	}
	if !strings.HasPrefix(a, "REQ_") || !strings.HasPrefix(b, "REQ_") {
		t.Error("expected REQ_ prefix")
	}
}
