package lexiq

import (
	"context"
	"path/filepath"
	"testing"
)

func TestNewWiresEngineWithoutNetworkCalls(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.VectorIndexPath = filepath.Join(dir, "lexiq.db")
	cfg.AuditLogDir = filepath.Join(dir, "audit")
	cfg.EmbeddingDim = 4

	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	if e.Store() == nil {
		t.Error("expected a non-nil store handle")
	}
}

func TestDefaultConfigHasDocumentedDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.InputMinLength != 10 || cfg.InputMaxLength != 50_000 {
		t.Errorf("unexpected input length defaults: %d/%d", cfg.InputMinLength, cfg.InputMaxLength)
	}
	if cfg.PIIConfidenceThreshold != 0.7 {
		t.Errorf("unexpected PII confidence default: %v", cfg.PIIConfidenceThreshold)
	}
	if cfg.MaxFileUploadBytes != 10*1024*1024 {
		t.Errorf("unexpected file upload limit default: %d", cfg.MaxFileUploadBytes)
	}
	if cfg.ChatStorageBackend != "inmemory" {
		t.Errorf("unexpected chat storage backend default: %v", cfg.ChatStorageBackend)
	}
}

func TestAnalyzeRejectsInvalidInput(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.VectorIndexPath = filepath.Join(dir, "lexiq.db")
	cfg.AuditLogDir = filepath.Join(dir, "audit")
	cfg.EmbeddingDim = 4

	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	if _, err := e.Analyze(context.Background(), "user-1", "127.0.0.1", "short"); err == nil {
		t.Fatal("expected an error for input too short to pass validation")
	}
}
