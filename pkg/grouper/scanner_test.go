package grouper

import (
	"os"
	"path/filepath"
	"testing"

	"photox/pkg/config"
	"photox/pkg/models"
	"photox/pkg/pathutil"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func newScanner() *Scanner {
	cfg := config.Default()
	return New(pathutil.NewClassifier(cfg), cfg.LivePhoto)
}

func TestScanLivePhotoPairing(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "IMG_0001.HEIC")
	touch(t, dir, "IMG_0001.MOV")
	touch(t, dir, "IMG_0001.AAE")

	groups, orphans, unrecognized, err := newScanner().Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(orphans) != 0 || len(unrecognized) != 0 {
		t.Fatalf("expected no orphans/unrecognized, got %d/%d", len(orphans), len(unrecognized))
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	g := groups[0]
	if g.PrimaryKind != models.PrimaryImage {
		t.Errorf("expected image primary, got %s", g.PrimaryKind)
	}
	if _, ok := g.Motion(); !ok {
		t.Error("expected a bound motion satellite")
	}
	if _, ok := g.SidecarAAE(); !ok {
		t.Error("expected a bound sidecar")
	}
	if len(g.AllPaths()) != 3 {
		t.Errorf("expected 3 paths in group, got %d", len(g.AllPaths()))
	}
}

func TestScanOrphanSidecar(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "IMG_9999.AAE")

	groups, orphans, _, err := newScanner().Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("expected no groups, got %d", len(groups))
	}
	if len(orphans) != 1 {
		t.Fatalf("expected 1 orphan sidecar, got %d", len(orphans))
	}
}

func TestScanAmbiguousStemDegradesToIndependentGroups(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "IMG_0001.JPG")
	touch(t, dir, "IMG_0001.HEIC")
	touch(t, dir, "IMG_0001.MOV")

	groups, _, _, err := newScanner().Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(groups) != 3 {
		t.Fatalf("expected 3 independent groups, got %d", len(groups))
	}
	for _, g := range groups {
		if len(g.Satellites) != 0 {
			t.Errorf("expected no satellites on degraded group %s", g.PrimaryPath)
		}
	}
}

func TestScanUnrecognizedExtension(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "notes.txt")

	groups, orphans, unrecognized, err := newScanner().Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(groups) != 0 || len(orphans) != 0 {
		t.Fatalf("expected no groups/orphans, got %d/%d", len(groups), len(orphans))
	}
	if len(unrecognized) != 1 {
		t.Fatalf("expected 1 unrecognized file, got %d", len(unrecognized))
	}
}

func TestScanSkipsHiddenFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, ".DS_Store")
	touch(t, dir, "photo.jpg")

	groups, _, unrecognized, err := newScanner().Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(unrecognized) != 0 {
		t.Errorf("expected hidden file to be skipped, not unrecognized, got %d", len(unrecognized))
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group for photo.jpg, got %d", len(groups))
	}
}

func TestScanVideoAloneFormsOwnGroup(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "clip.mov")

	groups, _, _, err := newScanner().Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if groups[0].PrimaryKind != models.PrimaryVideo {
		t.Errorf("expected video primary, got %s", groups[0].PrimaryKind)
	}
}

func TestScanIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.jpg")
	touch(t, dir, "a.jpg")
	touch(t, dir, "c.jpg")

	groups1, _, _, err := newScanner().Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	groups2, _, _, err := newScanner().Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(groups1) != len(groups2) {
		t.Fatalf("non-deterministic group count")
	}
	for i := range groups1 {
		if groups1[i].PrimaryPath != groups2[i].PrimaryPath {
			t.Errorf("non-deterministic ordering at index %d: %s != %s", i, groups1[i].PrimaryPath, groups2[i].PrimaryPath)
		}
	}
}
