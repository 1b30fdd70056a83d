package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"photox/pkg/models"
)

func TestSinkEmitAndFinalize(t *testing.T) {
	dataDir := t.TempDir()
	sink, err := NewSink(dataDir, "20260803-000000-abcd1234", false)
	if err != nil {
		t.Fatalf("NewSink: %v", err)
	}

	if err := sink.Emit(models.ReportRow{
		Kind: models.RowMoved, RunID: "r1", Timestamp: time.Now(),
		SrcPath: "/src/a.jpg", DstPath: "/dest/2024/03/a.jpg", Group: "/src/a.jpg",
	}); err != nil {
		t.Fatalf("Emit moved: %v", err)
	}
	if err := sink.Emit(models.ReportRow{
		Kind: models.RowError, RunID: "r1", Timestamp: time.Now(),
		SrcPath: "/src/bad.jpg", ErrorKind: models.HashReadFailed, ErrorDetail: "boom",
	}); err != nil {
		t.Fatalf("Emit error: %v", err)
	}

	counts := sink.Counts()
	if counts.Moved != 1 || counts.Error != 1 {
		t.Errorf("unexpected counts: %+v", counts)
	}

	if err := sink.Finalize(time.Now(), time.Now(), false); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	summaryPath := filepath.Join(sink.Dir(), "summary.json")
	if _, err := os.Stat(summaryPath); err != nil {
		t.Errorf("expected summary.json to exist: %v", err)
	}
	movedPath := filepath.Join(sink.Dir(), "moved.csv")
	data, err := os.ReadFile(movedPath)
	if err != nil {
		t.Fatalf("read moved.csv: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected moved.csv to be non-empty")
	}
}

func TestSinkDryRunSuffixesFiles(t *testing.T) {
	dataDir := t.TempDir()
	sink, err := NewSink(dataDir, "run1", true)
	if err != nil {
		t.Fatalf("NewSink: %v", err)
	}
	defer sink.Finalize(time.Now(), time.Now(), false)

	if _, err := os.Stat(filepath.Join(sink.Dir(), "moved_dryrun.csv")); err != nil {
		t.Errorf("expected moved_dryrun.csv: %v", err)
	}
}

func TestAppendHistoryAccumulates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_history.json")

	if err := AppendHistory(path, models.RunRecord{RunID: "r1"}); err != nil {
		t.Fatalf("AppendHistory 1: %v", err)
	}
	if err := AppendHistory(path, models.RunRecord{RunID: "r2"}); err != nil {
		t.Fatalf("AppendHistory 2: %v", err)
	}

	history, err := LoadHistory(path)
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 records, got %d", len(history))
	}
	if history[0].RunID != "r1" || history[1].RunID != "r2" {
		t.Errorf("unexpected order: %+v", history)
	}
}

func TestLoadHistoryMissingFileIsEmpty(t *testing.T) {
	history, err := LoadHistory(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("expected empty history, got %d", len(history))
	}
}
