package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"photox/pkg/hasher"
)

func TestBuildFromKeepsLexicallyFirstOnCollision(t *testing.T) {
	archive := t.TempDir()
	dir := filepath.Join(archive, "2024", "03")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	content := []byte("identical content")
	if err := os.WriteFile(filepath.Join(dir, "A.JPG"), content, 0o644); err != nil {
		t.Fatalf("write A.JPG: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "B.JPG"), content, 0o644); err != nil {
		t.Fatalf("write B.JPG: %v", err)
	}

	store := NewStore(filepath.Join(t.TempDir(), "index.json"))
	h := hasher.New(2, 10*1024*1024)

	result, err := BuildFrom(context.Background(), store, h, archive)
	if err != nil {
		t.Fatalf("BuildFrom: %v", err)
	}

	if result.Indexed != 1 {
		t.Errorf("expected 1 indexed entry, got %d", result.Indexed)
	}
	if len(result.Duplicates) != 1 {
		t.Fatalf("expected 1 duplicate, got %d", len(result.Duplicates))
	}
	dup := result.Duplicates[0]
	if filepath.Base(dup.Kept) != "A.JPG" {
		t.Errorf("expected A.JPG kept as canonical, got %s", dup.Kept)
	}
	if filepath.Base(dup.Discarded) != "B.JPG" {
		t.Errorf("expected B.JPG discarded, got %s", dup.Discarded)
	}
}

func TestBuildFromPurgesStaleEntries(t *testing.T) {
	archive := t.TempDir()
	dir := filepath.Join(archive, "2024", "03")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "keep.jpg"), []byte("kept"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	store := NewStore(filepath.Join(t.TempDir(), "index.json"))
	if err := store.Insert(fp(999, 7), "2024/03/gone.jpg"); err != nil {
		t.Fatalf("seed insert: %v", err)
	}

	h := hasher.New(1, 10*1024*1024)
	result, err := BuildFrom(context.Background(), store, h, archive)
	if err != nil {
		t.Fatalf("BuildFrom: %v", err)
	}
	if result.Purged != 1 {
		t.Errorf("expected 1 purged entry, got %d", result.Purged)
	}
}
