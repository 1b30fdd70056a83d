// Package integration exercises the full archiving pipeline across
// package boundaries: rebuilding the index from an existing archive,
// then scanning and organizing a source tree against it.
package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"photox/pkg/config"
	"photox/pkg/grouper"
	"photox/pkg/hasher"
	"photox/pkg/index"
	"photox/pkg/logging"
	"photox/pkg/organizer"
	"photox/pkg/pathutil"
	"photox/pkg/report"
)

func write(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// TestBuildIndexThenRunSkipsArchivedDuplicate seeds an archive tree with
// one file and no index, rebuilds the index from disk (as build-index
// does), then scans a source tree containing both a byte-identical copy
// and a genuinely new file. The copy must land in duplicate quarantine
// without touching the index; the new file must archive and extend it.
func TestBuildIndexThenRunSkipsArchivedDuplicate(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.Source = filepath.Join(t.TempDir(), "src")
	cfg.Paths.Dest = filepath.Join(t.TempDir(), "dest")
	if err := os.MkdirAll(cfg.Paths.Source, 0o755); err != nil {
		t.Fatalf("mkdir source: %v", err)
	}
	if err := cfg.Paths.Resolve(); err != nil {
		t.Fatalf("resolve paths: %v", err)
	}

	archivedContent := []byte("already archived bytes")
	archivedDir := filepath.Join(cfg.Paths.Dest, "2023", "11")
	write(t, archivedDir, "IMG_0100.JPG", archivedContent)

	store := index.NewStore(cfg.Paths.IndexPath())
	h := hasher.New(2, cfg.TailThresholdBytes())

	buildResult, err := index.BuildFrom(context.Background(), store, h, cfg.Paths.Dest)
	if err != nil {
		t.Fatalf("BuildFrom: %v", err)
	}
	if buildResult.Indexed != 1 {
		t.Fatalf("expected 1 indexed entry from archive rebuild, got %d", buildResult.Indexed)
	}
	if err := store.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	copyPath := write(t, filepath.Join(cfg.Paths.Source, "roll"), "scan_0001.jpg", archivedContent)
	newPath := write(t, filepath.Join(cfg.Paths.Source, "roll"), "scan_0002.jpg", []byte("brand new bytes"))

	scanner := grouper.New(pathutil.NewClassifier(cfg), cfg.LivePhoto)
	groups, orphans, unrecognized, err := scanner.Scan(cfg.Paths.Source)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(orphans) != 0 || len(unrecognized) != 0 {
		t.Fatalf("unexpected orphans/unrecognized: %d/%d", len(orphans), len(unrecognized))
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}

	captureTime := time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)
	captureTimes := map[string]time.Time{
		copyPath: captureTime,
		newPath:  captureTime,
	}

	sink, err := report.NewSink(cfg.Paths.DataDir, "integration-run", false)
	if err != nil {
		t.Fatalf("NewSink: %v", err)
	}
	t.Cleanup(func() { sink.Finalize(time.Now(), time.Now(), true) })

	org := organizer.New(cfg, store, h, sink, logging.NewNullLogger(), "integration-run")
	if err := org.Run(context.Background(), groups, captureTimes); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, err := os.Stat(filepath.Join(cfg.Paths.DupDir, "roll", "scan_0001.jpg")); err != nil {
		t.Errorf("expected duplicate copy quarantined: %v", err)
	}
	if _, err := os.Stat(copyPath); !os.IsNotExist(err) {
		t.Errorf("expected duplicate source file moved out")
	}

	monthDir := filepath.Join(cfg.Paths.Dest, "2024", "06")
	if _, err := os.Stat(filepath.Join(monthDir, "scan_0002.jpg")); err != nil {
		t.Errorf("expected new file archived: %v", err)
	}
	if _, err := os.Stat(newPath); !os.IsNotExist(err) {
		t.Errorf("expected new source file moved out")
	}

	if store.Len() != 2 {
		t.Errorf("expected 2 index entries (archived original + new file), got %d", store.Len())
	}
	if sink.Counts().Duplicate != 1 {
		t.Errorf("expected 1 duplicate row, got %d", sink.Counts().Duplicate)
	}
	if sink.Counts().Moved != 1 {
		t.Errorf("expected 1 moved row, got %d", sink.Counts().Moved)
	}

	reloaded, err := index.Load(cfg.Paths.IndexPath())
	if err != nil {
		t.Fatalf("reload index: %v", err)
	}
	if reloaded.Len() != 2 {
		t.Errorf("expected persisted index to have 2 entries, got %d", reloaded.Len())
	}
}
