package models

import (
	"encoding/hex"
	"fmt"
	"time"
)

// FingerprintMethod records which of the two hashing phases produced a
// digest. A Tail digest is provisional until promoted: two files of equal
// size with colliding Tail digests are not known to be identical content
// until both are re-hashed in Full mode.
type FingerprintMethod string

const (
	// Full is the MD5 of the entire file content.
	Full FingerprintMethod = "full"
	// Tail is the MD5 of the last tail_threshold bytes only.
	Tail FingerprintMethod = "tail10m"
)

// Fingerprint identifies file content under the tail-sample-then-promote
// protocol described in spec section 3.
type Fingerprint struct {
	Size   int64
	Digest [16]byte
	Method FingerprintMethod
}

// Key returns the string used to index this fingerprint in the Store. The
// method is part of the key: a Tail and a Full digest for the same bytes
// are never confused with one another, matching the original schema's
// (md5, size, method) composite primary key.
func (f Fingerprint) Key() string {
	return fmt.Sprintf("%d:%s:%s", f.Size, f.Method, hex.EncodeToString(f.Digest[:]))
}

func (f Fingerprint) String() string {
	return f.Key()
}

// IndexEntry is one row of the persistent index: a fingerprint key mapped
// to the archive-relative path that owns it.
type IndexEntry struct {
	Key         string    `json:"key"`
	ArchivePath string    `json:"archive_path"`
	RecordedAt  time.Time `json:"recorded_at"`
}
