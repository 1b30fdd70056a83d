package index

import (
	"path/filepath"
	"testing"

	"photox/pkg/models"
)

func fp(size int64, b byte) models.Fingerprint {
	var digest [16]byte
	digest[0] = b
	return models.Fingerprint{Size: size, Digest: digest, Method: models.Full}
}

func TestInsertAndLookup(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "index.json"))

	f := fp(100, 1)
	if err := s.Insert(f, "2024/03/a.jpg"); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, ok := s.Lookup(f)
	if !ok {
		t.Fatal("expected lookup hit")
	}
	if got != "2024/03/a.jpg" {
		t.Errorf("expected 2024/03/a.jpg, got %s", got)
	}
}

func TestInsertConflictingPathFails(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "index.json"))
	f := fp(100, 1)

	if err := s.Insert(f, "2024/03/a.jpg"); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	err := s.Insert(f, "2024/03/b.jpg")
	if err == nil {
		t.Fatal("expected duplicate key error")
	}
}

func TestInsertSamePathIsIdempotent(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "index.json"))
	f := fp(100, 1)

	if err := s.Insert(f, "2024/03/a.jpg"); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Insert(f, "2024/03/a.jpg"); err != nil {
		t.Fatalf("expected idempotent re-insert to succeed, got %v", err)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	s := NewStore(path)

	f := fp(100, 1)
	if err := s.Insert(f, "2024/03/a.jpg"); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, ok := loaded.Lookup(f)
	if !ok || got != "2024/03/a.jpg" {
		t.Errorf("expected round-tripped entry, got %q ok=%v", got, ok)
	}
}

func TestLoadMissingFileYieldsEmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d entries", s.Len())
	}
}

func TestLookupBySize(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "index.json"))
	tailFp := models.Fingerprint{Size: 50_000_000, Digest: [16]byte{9}, Method: models.Tail}
	if err := s.Insert(tailFp, "2024/03/big.mov"); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	_, ok := s.LookupBySize(50_000_000, models.Tail)
	if !ok {
		t.Fatal("expected LookupBySize hit")
	}
	_, ok = s.LookupBySize(50_000_000, models.Full)
	if ok {
		t.Fatal("expected no hit for a different method")
	}
}
