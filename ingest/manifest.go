package ingest

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// manifestSheet is the single worksheet a Manifest writes to, inverting the
// teacher's XLSXParser read path (one sheet per table) into a single
// per-run audit table.
const manifestSheet = "Ingested Cases"

// ManifestEntry is one row of a per-run ingestion manifest.
type ManifestEntry struct {
	SourceFile string
	CaseKey    string
	Citation   string
	CaseTitle  string
	CaseNumber string
	NumChunks  int
	Warning    string // non-empty when the file was skipped or partially ingested
}

// Manifest accumulates ManifestEntry rows across a batch ingestion run and
// writes them to an .xlsx workbook for human audit review.
type Manifest struct {
	entries []ManifestEntry
}

// NewManifest returns an empty Manifest.
func NewManifest() *Manifest {
	return &Manifest{}
}

// Add records a successful Ingest result.
func (m *Manifest) Add(sourceFile string, r *Result) {
	m.entries = append(m.entries, ManifestEntry{
		SourceFile: sourceFile,
		CaseKey:    r.CaseKey,
		Citation:   r.Citation,
		CaseTitle:  r.CaseTitle,
		CaseNumber: r.CaseNumber,
		NumChunks:  r.NumChunks,
	})
}

// AddWarning records a file that failed or was skipped, with a reason.
func (m *Manifest) AddWarning(sourceFile, warning string) {
	m.entries = append(m.entries, ManifestEntry{SourceFile: sourceFile, Warning: warning})
}

// WriteXLSX writes the accumulated entries to path as a single-sheet
// workbook: one header row followed by one row per ingested or skipped
// file.
func (m *Manifest) WriteXLSX(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := manifestSheet
	f.SetSheetName(f.GetSheetName(0), sheet)

	header := []string{"Source File", "Case Key", "Citation", "Case Title", "Case Number", "Chunks", "Warning", "Ingested At"}
	for col, name := range header {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, name)
	}

	now := ingestedAtStamp()
	for i, e := range m.entries {
		row := i + 2
		values := []interface{}{e.SourceFile, e.CaseKey, e.Citation, e.CaseTitle, e.CaseNumber, e.NumChunks, e.Warning, now}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("ingest: writing manifest %s: %w", path, err)
	}
	return nil
}

// ingestedAtStamp is isolated behind a function so tests can override it;
// production code always wants wall-clock time here.
var ingestedAtStamp = func() string {
	return time.Now().UTC().Format(time.RFC3339)
}
