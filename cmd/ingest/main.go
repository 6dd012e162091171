package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lexiq-ai/lexiq"
	"github.com/lexiq-ai/lexiq/ingest"
)

func main() {
	sourceDir := flag.String("source", "", "Directory of judgment PDFs to ingest (defaults to the configured PDF source dir)")
	manifestPath := flag.String("manifest", "", "Path to write the per-run .xlsx manifest (skipped if empty)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg := lexiq.LoadConfigFromEnv()
	dir := *sourceDir
	if dir == "" {
		dir = cfg.PDFSourceDir
	}

	engine, err := lexiq.New(cfg)
	if err != nil {
		slog.Error("creating engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Error("reading source dir", "dir", dir, "error", err)
		os.Exit(1)
	}

	manifest := ingest.NewManifest()
	ctx := context.Background()

	succeeded, failed := 0, 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		result, err := engine.Ingest(ctx, path)
		if err != nil {
			slog.Error("ingest failed", "file", entry.Name(), "error", err)
			manifest.AddWarning(entry.Name(), err.Error())
			failed++
			continue
		}
		manifest.Add(entry.Name(), result)
		succeeded++
		slog.Info("ingested", "file", entry.Name(), "case_key", result.CaseKey, "chunks", result.NumChunks)
	}

	if *manifestPath != "" {
		if err := manifest.WriteXLSX(*manifestPath); err != nil {
			slog.Error("writing manifest", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("ingestion run complete", "succeeded", succeeded, "failed", failed)
	if failed > 0 && succeeded == 0 {
		os.Exit(1)
	}
}
