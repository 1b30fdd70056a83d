// Package index implements the persistent fingerprint index of spec
// section 4.B: a durable key-value store mapping a content fingerprint to
// the archive-relative path that owns it.
package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"photox/pkg/models"
)

// storeVersion is bumped if the on-disk schema changes shape.
const storeVersion = 1

// onDisk is the JSON document persisted at the configured index path,
// mirroring the teacher's SyncState envelope (a version field plus a map).
type onDisk struct {
	Version int                          `json:"version"`
	Entries map[string]models.IndexEntry `json:"entries"`
}

// Store is a durable key-value store keyed by fingerprint, matching spec
// section 4.B. Lookup and Insert are safe for concurrent use; in practice
// only the organizer's main control-flow goroutine ever calls Insert (see
// spec section 5), but every method takes the same mutex so that a Lookup
// never reads the map while an Insert is changing it.
type Store struct {
	mu      sync.RWMutex
	path    string
	entries map[string]models.IndexEntry
}

// NewStore builds an empty Store backed by path. Callers that want the
// on-disk contents loaded should call Load afterward.
func NewStore(path string) *Store {
	return &Store{
		path:    path,
		entries: make(map[string]models.IndexEntry),
	}
}

// Load reads the index from disk. A missing file is not an error: a fresh
// archive starts with an empty index.
func Load(path string) (*Store, error) {
	s := NewStore(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, &models.StartupIOError{Op: fmt.Sprintf("read index %s", path), Err: err}
	}

	var doc onDisk
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &models.StartupIOError{Op: fmt.Sprintf("parse index %s", path), Err: err}
	}
	if doc.Entries != nil {
		s.entries = doc.Entries
	}
	return s, nil
}

// Save persists the index atomically: write to a temp file in the same
// directory, then rename over the destination, so a crash mid-write never
// leaves a truncated or corrupt index behind (spec section 4.B: "must
// survive abrupt termination").
func (s *Store) Save() error {
	s.mu.RLock()
	doc := onDisk{Version: storeVersion, Entries: s.entries}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".index-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp index file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp index file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp index file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp index file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename temp index file into place: %w", err)
	}
	return nil
}

// Lookup returns the archive path recorded for fp, if any.
func (s *Store) Lookup(fp models.Fingerprint) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[fp.Key()]
	if !ok {
		return "", false
	}
	return e.ArchivePath, true
}

// LookupBySize reports whether any entry of the given size and method
// exists, and returns it. Used by the organizer to decide whether a Tail
// fingerprint needs promotion before a disposition decision, per spec
// section 4.D step 4.
func (s *Store) LookupBySize(size int64, method models.FingerprintMethod) (models.IndexEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		sizeStr, rest, ok := strings.Cut(e.Key, ":")
		if !ok {
			continue
		}
		methodStr, _, ok := strings.Cut(rest, ":")
		if !ok {
			continue
		}
		entrySize, err := strconv.ParseInt(sizeStr, 10, 64)
		if err != nil {
			continue
		}
		if entrySize == size && models.FingerprintMethod(methodStr) == method {
			return e, true
		}
	}
	return models.IndexEntry{}, false
}

// Insert records fp as owned by archivePath. It fails with
// models.ErrDuplicateKey if fp already maps to a different path; an insert
// of a key already mapped to the same path is a no-op success (idempotent
// re-insertion, used by BuildFrom when an entry survives unchanged).
func (s *Store) Insert(fp models.Fingerprint, archivePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fp.Key()
	if existing, ok := s.entries[key]; ok {
		if existing.ArchivePath != archivePath {
			return fmt.Errorf("%w: %s already maps to %s, not %s", models.ErrDuplicateKey, key, existing.ArchivePath, archivePath)
		}
		return nil
	}

	s.entries[key] = models.IndexEntry{
		Key:         key,
		ArchivePath: archivePath,
		RecordedAt:  time.Now(),
	}
	return nil
}

// Delete removes the entry for fp, if present.
func (s *Store) Delete(fp models.Fingerprint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, fp.Key())
}

// DeleteKey removes the entry for the raw key string, if present. Used by
// BuildFrom to purge stale entries whose backing file is no longer on disk.
func (s *Store) DeleteKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Len reports the number of entries currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot returns a copy of every entry, for use by BuildFrom's
// stale-entry purge pass.
func (s *Store) Snapshot() []models.IndexEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.IndexEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out
}
