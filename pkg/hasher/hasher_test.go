package hasher

import (
	"os"
	"path/filepath"
	"testing"

	"photox/pkg/models"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestHashSmallFileIsFull(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "small.jpg", []byte("hello world"))

	h := New(2, 1024)
	fp, err := h.Hash(path)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if fp.Method != models.Full {
		t.Errorf("expected Full, got %s", fp.Method)
	}
	if fp.Size != int64(len("hello world")) {
		t.Errorf("expected size %d, got %d", len("hello world"), fp.Size)
	}
}

func TestHashLargeFileIsTail(t *testing.T) {
	dir := t.TempDir()
	content := make([]byte, 4096)
	for i := range content {
		content[i] = byte(i)
	}
	path := writeFile(t, dir, "large.mov", content)

	h := New(2, 1024)
	fp, err := h.Hash(path)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if fp.Method != models.Tail {
		t.Errorf("expected Tail, got %s", fp.Method)
	}
}

func TestHashDeterministic(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "f.jpg", []byte("repeat me please"))

	h := New(1, 1024)
	fp1, err := h.Hash(path)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	fp2, err := h.Hash(path)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if fp1.Key() != fp2.Key() {
		t.Errorf("fingerprint not deterministic: %s != %s", fp1.Key(), fp2.Key())
	}
}

func TestTailCollisionDistinguishedAfterPromotion(t *testing.T) {
	dir := t.TempDir()
	threshold := int64(16)

	bodyA := append([]byte("AAAAAAAAAAAAAAAA"), []byte("TAILTAILTAILTAIL")...)
	bodyB := append([]byte("BBBBBBBBBBBBBBBB"), []byte("TAILTAILTAILTAIL")...)

	pathA := writeFile(t, dir, "a.mov", bodyA)
	pathB := writeFile(t, dir, "b.mov", bodyB)

	h := New(1, threshold)
	fpA, err := h.Hash(pathA)
	if err != nil {
		t.Fatalf("Hash a: %v", err)
	}
	fpB, err := h.Hash(pathB)
	if err != nil {
		t.Fatalf("Hash b: %v", err)
	}

	if fpA.Key() != fpB.Key() {
		t.Fatalf("expected tail collision before promotion")
	}

	fullA, err := h.Promote(pathA)
	if err != nil {
		t.Fatalf("promote a: %v", err)
	}
	fullB, err := h.Promote(pathB)
	if err != nil {
		t.Fatalf("promote b: %v", err)
	}
	if fullA.Key() == fullB.Key() {
		t.Errorf("expected distinct full fingerprints after promotion")
	}
}

func TestHashAllPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	paths := make([]string, 5)
	for i := range paths {
		paths[i] = writeFile(t, dir, filepath.Base(dir)+string(rune('a'+i))+".jpg", []byte{byte(i)})
	}

	h := New(3, 1024)
	results := h.HashAll(paths)
	if len(results) != len(paths) {
		t.Fatalf("expected %d results, got %d", len(paths), len(results))
	}
	for i, r := range results {
		if r.Path != paths[i] {
			t.Errorf("result %d: expected path %s, got %s", i, paths[i], r.Path)
		}
		if r.Err != nil {
			t.Errorf("result %d: unexpected error: %v", i, r.Err)
		}
	}
}
