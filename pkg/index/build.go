package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"photox/pkg/hasher"
	"photox/pkg/models"
	"photox/pkg/storage"
)

// DestDuplicate reports one within-archive collision found by BuildFrom:
// kept is the lexically-first path retained as canonical, discarded is the
// path that should be moved to the duplicate quarantine by the caller.
type DestDuplicate struct {
	Fingerprint models.Fingerprint
	Kept        string
	Discarded   string
}

// BuildResult summarizes one BuildFrom pass.
type BuildResult struct {
	Indexed    int
	Purged     int
	Duplicates []DestDuplicate
}

// BuildFrom performs a full scan of archiveRoot, fingerprinting every
// regular file and populating the Store, per spec section 4.B. It is
// idempotent: entries already present and still backed by an existing file
// are retained, stale entries (file no longer present) are purged, and a
// within-archive collision is resolved by keeping the lexically-first path
// as canonical and reporting the rest as DestDuplicate rows — the actual
// move to quarantine is the organizer's job, not the index's. Any group of
// two or more files sharing one Tail fingerprint key (same size and same
// tail digest) is promoted to Full before that decision is made, so a
// coincidental tail-sample collision never misfiles distinct content as a
// duplicate.
func BuildFrom(ctx context.Context, store *Store, h *hasher.Hasher, archiveRoot string) (BuildResult, error) {
	var result BuildResult

	preExisting := store.Snapshot()

	if err := os.MkdirAll(archiveRoot, 0o755); err != nil {
		return result, &models.StartupIOError{Op: fmt.Sprintf("ensure archive root %s", archiveRoot), Err: err}
	}
	backend, err := storage.NewLocal(archiveRoot)
	if err != nil {
		return result, &models.StartupIOError{Op: fmt.Sprintf("open archive root %s", archiveRoot), Err: err}
	}
	defer backend.Close()

	infos, err := backend.List(ctx, ".")
	if err != nil {
		return result, &models.StartupIOError{Op: fmt.Sprintf("walk archive root %s", archiveRoot), Err: err}
	}
	var paths []string
	for _, info := range infos {
		if info.IsDir {
			continue
		}
		paths = append(paths, info.Path)
	}
	sort.Strings(paths)

	results := h.HashAll(paths)

	type keyed struct {
		fp  models.Fingerprint
		rel string
		abs string
	}
	byKey := make(map[string][]keyed)
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		rel, relErr := filepath.Rel(archiveRoot, r.Path)
		if relErr != nil {
			rel = r.Path
		}
		key := r.Fingerprint.Key()
		byKey[key] = append(byKey[key], keyed{fp: r.Fingerprint, rel: rel, abs: r.Path})
	}

	// A same-size Tail/Tail collision is only a suspected duplicate, not a
	// confirmed one: two large files can share a trailing-bytes digest by
	// coincidence while differing earlier in the file. Promote every member
	// of such a group to a Full digest and re-key before any file is
	// reported as a duplicate, mirroring the organizer's live-scan
	// resolveFingerprint.
	promoted := make(map[string][]keyed, len(byKey))
	for key, group := range byKey {
		if len(group) < 2 || group[0].fp.Method != models.Tail {
			promoted[key] = append(promoted[key], group...)
			continue
		}
		for _, member := range group {
			fullFp, err := h.Promote(member.abs)
			if err != nil {
				continue
			}
			member.fp = fullFp
			newKey := fullFp.Key()
			promoted[newKey] = append(promoted[newKey], member)
		}
	}
	byKey = promoted

	seenRel := make(map[string]bool, len(paths))
	for _, group := range byKey {
		sort.Slice(group, func(i, j int) bool { return group[i].rel < group[j].rel })

		canonical := group[0]
		seenRel[canonical.rel] = true
		if err := store.Insert(canonical.fp, canonical.rel); err != nil {
			return result, fmt.Errorf("insert canonical entry for %s: %w", canonical.rel, err)
		}
		result.Indexed++

		for _, dup := range group[1:] {
			seenRel[dup.rel] = true
			result.Duplicates = append(result.Duplicates, DestDuplicate{
				Fingerprint: dup.fp,
				Kept:        canonical.rel,
				Discarded:   dup.rel,
			})
		}
	}

	for _, e := range preExisting {
		abs := filepath.Join(archiveRoot, e.ArchivePath)
		if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
			store.DeleteKey(e.Key)
			result.Purged++
		}
	}

	return result, nil
}
