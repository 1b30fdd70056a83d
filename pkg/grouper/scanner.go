// Package grouper walks a source tree and reconstructs logical media
// groups from a flat directory of files, per spec section 4.E.
package grouper

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"photox/pkg/config"
	"photox/pkg/models"
	"photox/pkg/pathutil"
)

// Scanner partitions each directory's entries by stem and binds Live Photo
// pairs and .aae sidecars, matching the original's MediaScanner.scan.
type Scanner struct {
	classifier *pathutil.Classifier
	livePhoto  config.LivePhotoConfig
}

// New builds a Scanner from the run's classifier and Live Photo policy.
func New(classifier *pathutil.Classifier, livePhoto config.LivePhotoConfig) *Scanner {
	return &Scanner{classifier: classifier, livePhoto: livePhoto}
}

// fileEntry is one classified file awaiting partitioning.
type fileEntry struct {
	path string
	name string
	kind models.FileKind
}

// Scan walks source once and returns every MediaGroup it was able to form,
// plus the orphan sidecars and unrecognized files that never joined one.
// Walking is deterministic: filepath.WalkDir already visits entries in
// lexical order within each directory, satisfying the reproducibility
// requirement of spec section 4.E.
func (s *Scanner) Scan(source string) (groups []models.MediaGroup, orphanSidecars, unrecognized []string, err error) {
	byDir := make(map[string][]fileEntry)
	var dirOrder []string

	walkErr := filepath.WalkDir(source, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") {
			return nil
		}

		dir := filepath.Dir(path)
		if _, seen := byDir[dir]; !seen {
			dirOrder = append(dirOrder, dir)
		}
		byDir[dir] = append(byDir[dir], fileEntry{
			path: path,
			name: name,
			kind: s.classifier.Classify(name),
		})
		return nil
	})
	if walkErr != nil {
		return nil, nil, nil, walkErr
	}

	sort.Strings(dirOrder)

	for _, dir := range dirOrder {
		entries := byDir[dir]
		sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

		dirGroups, dirOrphans, dirUnrecognized := s.partitionDirectory(entries)
		groups = append(groups, dirGroups...)
		orphanSidecars = append(orphanSidecars, dirOrphans...)
		unrecognized = append(unrecognized, dirUnrecognized...)
	}

	return groups, orphanSidecars, unrecognized, nil
}

// partitionDirectory implements §4.E's per-directory stem partitioning.
func (s *Scanner) partitionDirectory(entries []fileEntry) (groups []models.MediaGroup, orphanSidecars, unrecognized []string) {
	type stemBucket struct {
		images   []fileEntry
		videos   []fileEntry
		sidecars []fileEntry
	}
	buckets := make(map[string]*stemBucket)
	var stemOrder []string

	for _, e := range entries {
		if e.kind == models.Unknown {
			unrecognized = append(unrecognized, e.path)
			continue
		}

		stem := strings.ToLower(pathutil.Stem(e.name))
		b, ok := buckets[stem]
		if !ok {
			b = &stemBucket{}
			buckets[stem] = b
			stemOrder = append(stemOrder, stem)
		}
		switch e.kind {
		case models.PrimaryImage:
			b.images = append(b.images, e)
		case models.PrimaryVideo:
			b.videos = append(b.videos, e)
		case models.Sidecar:
			b.sidecars = append(b.sidecars, e)
		}
	}

	for _, stem := range stemOrder {
		b := buckets[stem]

		switch {
		case len(b.images) > 1:
			// Ambiguous stem: degrade every image and video to an
			// independent primary, per spec section 3's invariant. No
			// satellites bind in this case; the sidecar has no single
			// target and is treated as orphaned.
			for _, img := range b.images {
				groups = append(groups, soloGroup(img))
			}
			for _, vid := range b.videos {
				groups = append(groups, soloGroup(vid))
			}
			for _, sc := range b.sidecars {
				orphanSidecars = append(orphanSidecars, sc.path)
			}

		case len(b.images) == 1:
			primary := b.images[0]
			group := soloGroup(primary)

			if motion, ok := s.pairedMotion(primary, b.videos); ok {
				group.Satellites = append(group.Satellites, models.Satellite{
					Path: motion.path, Kind: models.SatelliteMotion,
				})
			} else {
				for _, vid := range b.videos {
					groups = append(groups, soloGroup(vid))
				}
			}

			if len(b.sidecars) > 0 {
				group.Satellites = append(group.Satellites, models.Satellite{
					Path: b.sidecars[0].path, Kind: models.SatelliteSidecar,
				})
				for _, extra := range b.sidecars[1:] {
					orphanSidecars = append(orphanSidecars, extra.path)
				}
			}
			groups = append(groups, group)

		case len(b.videos) == 1:
			group := soloGroup(b.videos[0])
			if len(b.sidecars) > 0 {
				group.Satellites = append(group.Satellites, models.Satellite{
					Path: b.sidecars[0].path, Kind: models.SatelliteSidecar,
				})
				for _, extra := range b.sidecars[1:] {
					orphanSidecars = append(orphanSidecars, extra.path)
				}
			}
			groups = append(groups, group)

		case len(b.videos) > 1:
			// Multiple videos, no image: each stands alone; the sidecar
			// has no single target.
			for _, vid := range b.videos {
				groups = append(groups, soloGroup(vid))
			}
			for _, sc := range b.sidecars {
				orphanSidecars = append(orphanSidecars, sc.path)
			}

		default:
			// No image, no video: every sidecar at this stem is orphaned.
			for _, sc := range b.sidecars {
				orphanSidecars = append(orphanSidecars, sc.path)
			}
		}
	}

	return groups, orphanSidecars, unrecognized
}

// pairedMotion returns the single video eligible to bind as this image's
// Live Photo motion satellite, honoring the configured enable flag and
// extension policy. Exactly one candidate video must exist; more than one
// is ambiguous and is left for the caller to emit as standalone groups.
func (s *Scanner) pairedMotion(primary fileEntry, videos []fileEntry) (fileEntry, bool) {
	if !s.livePhoto.Enabled || len(videos) != 1 {
		return fileEntry{}, false
	}
	if !extMatches(primary.name, s.livePhoto.MasterExts) {
		return fileEntry{}, false
	}
	if !strings.EqualFold(extOf(videos[0].name), s.livePhoto.VideoExt) {
		return fileEntry{}, false
	}
	return videos[0], true
}

func extMatches(name string, exts []string) bool {
	ext := extOf(name)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

func extOf(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[i:]
}

func soloGroup(e fileEntry) models.MediaGroup {
	size, _ := fileSize(e.path)
	return models.MediaGroup{
		PrimaryPath: e.path,
		PrimaryKind: e.kind,
		Size:        size,
	}
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
