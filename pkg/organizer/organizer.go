// Package organizer is the pipeline coordinator: for each media group it
// resolves a disposition, performs transactional placement, and updates
// the index and report. Grounded in the teacher's pkg/sync.Pipeline/Engine
// "scan then execute" shape, generalized from two-tree diffing to
// single-tree archiving, per spec section 4.F.
package organizer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"photox/pkg/config"
	"photox/pkg/hasher"
	"photox/pkg/index"
	"photox/pkg/logging"
	"photox/pkg/models"
	"photox/pkg/pathutil"
	"photox/pkg/report"
)

// Organizer is the stateful coordinator for one run. It is not safe for
// concurrent use: every method is meant to be driven from a single
// control-flow goroutine, per spec section 5.
type Organizer struct {
	cfg    *config.Config
	store  *index.Store
	hasher *hasher.Hasher
	sink   *report.Sink
	log    logging.Logger
	runID  string
	dryRun bool
}

// New builds an Organizer for one run.
func New(cfg *config.Config, store *index.Store, h *hasher.Hasher, sink *report.Sink, log logging.Logger, runID string) *Organizer {
	return &Organizer{
		cfg:    cfg,
		store:  store,
		hasher: h,
		sink:   sink,
		log:    log,
		runID:  runID,
		dryRun: cfg.DryRun,
	}
}

// Run processes every group, in order, against the resolved capture times
// map (primary path -> capture time; a primary absent from the map has no
// usable timestamp). It honors ctx cancellation cooperatively: the group
// currently in flight is always finished before Run returns.
func (o *Organizer) Run(ctx context.Context, groups []models.MediaGroup, captureTimes map[string]time.Time) error {
	toHash := make([]string, 0, len(groups))
	for _, g := range groups {
		if _, ok := captureTimes[g.PrimaryPath]; ok {
			toHash = append(toHash, g.PrimaryPath)
		}
	}
	hashResults := make(map[string]hasher.Result, len(toHash))
	for _, r := range o.hasher.HashAll(toHash) {
		hashResults[r.Path] = r
	}

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			o.log.Warn(ctx, "run cancelled, stopping before next group", logging.Fields{"reason": err.Error()})
			break
		}
		if err := o.processGroup(ctx, g, captureTimes, hashResults); err != nil {
			return err
		}
	}

	return nil
}

func (o *Organizer) processGroup(ctx context.Context, g models.MediaGroup, captureTimes map[string]time.Time, hashResults map[string]hasher.Result) error {
	captureTime, timed := captureTimes[g.PrimaryPath]
	if !timed {
		return o.quarantineUnrecognized(g)
	}

	hr, hashed := hashResults[g.PrimaryPath]
	if !hashed || hr.Err != nil {
		detail := "no hash result"
		if hashed {
			detail = hr.Err.Error()
		}
		return o.recordGroupError(g, models.HashReadFailed, detail)
	}

	fp, err := o.resolveFingerprint(g.PrimaryPath, hr.Fingerprint)
	if err != nil {
		return o.recordGroupError(g, models.HashReadFailed, err.Error())
	}

	if existingPath, hit := o.store.Lookup(fp); hit {
		return o.quarantineDuplicate(g, existingPath)
	}

	return o.placeArchived(g, captureTime, fp)
}

// resolveFingerprint implements spec section 4.D step 4: before trusting a
// Tail fingerprint for a disposition decision, check for any other
// same-size Tail entry and promote both to Full on a match.
func (o *Organizer) resolveFingerprint(primaryPath string, fp models.Fingerprint) (models.Fingerprint, error) {
	if fp.Method != models.Tail || !o.cfg.Dedup.VerifyTailCollision {
		return fp, nil
	}

	existing, ok := o.store.LookupBySize(fp.Size, models.Tail)
	if !ok {
		return fp, nil
	}

	existingAbs := filepath.Join(o.cfg.Paths.Dest, existing.ArchivePath)
	existingFull, err := o.hasher.Promote(existingAbs)
	if err != nil {
		return fp, fmt.Errorf("promote existing archive entry %s: %w", existing.ArchivePath, err)
	}
	currentFull, err := o.hasher.Promote(primaryPath)
	if err != nil {
		return fp, fmt.Errorf("promote %s: %w", primaryPath, err)
	}

	if !o.dryRun {
		o.store.DeleteKey(existing.Key)
		if err := o.store.Insert(existingFull, existing.ArchivePath); err != nil {
			return fp, fmt.Errorf("re-insert promoted entry for %s: %w", existing.ArchivePath, err)
		}
		if err := o.store.Save(); err != nil {
			return fp, fmt.Errorf("persist index after promotion: %w", err)
		}
	}

	return currentFull, nil
}

// quarantineUnrecognized moves every file of g, preserving its relative
// position under source, into second_check_dir.
func (o *Organizer) quarantineUnrecognized(g models.MediaGroup) error {
	for _, path := range g.AllPaths() {
		dst, err := o.quarantinePath(o.cfg.Paths.SecondCheckDir, path)
		if err != nil {
			return o.recordGroupError(g, models.MoveFailed, err.Error())
		}
		if err := o.movePath(path, dst); err != nil {
			return o.emitError(path, g.PrimaryPath, models.MoveFailed, err.Error())
		}
		if err := o.emit(models.RowUnrecognized, path, dst, "", g.PrimaryPath, "", ""); err != nil {
			return err
		}
	}
	return nil
}

// quarantineDuplicate moves every file of g into dup_dir, recording the
// archive path it collided with.
func (o *Organizer) quarantineDuplicate(g models.MediaGroup, existingPath string) error {
	for _, path := range g.AllPaths() {
		dst, err := o.quarantinePath(o.cfg.Paths.DupDir, path)
		if err != nil {
			return o.recordGroupError(g, models.MoveFailed, err.Error())
		}
		if err := o.movePath(path, dst); err != nil {
			return o.emitError(path, g.PrimaryPath, models.MoveFailed, err.Error())
		}
		if err := o.emit(models.RowDuplicate, path, dst, existingPath, g.PrimaryPath, "", ""); err != nil {
			return err
		}
	}
	return nil
}

// QuarantineOrphanSidecars files every .aae the scanner could not bind to
// a primary into orphan_aae_dir, one RowOrphanSidecar per file. These
// paths never formed a MediaGroup, so they bypass Run entirely.
func (o *Organizer) QuarantineOrphanSidecars(paths []string) error {
	for _, path := range paths {
		dst, err := o.quarantinePath(o.cfg.Paths.OrphanAAEDir, path)
		if err != nil {
			if emitErr := o.emitError(path, path, models.MoveFailed, err.Error()); emitErr != nil {
				return emitErr
			}
			continue
		}
		if err := o.movePath(path, dst); err != nil {
			if emitErr := o.emitError(path, path, models.MoveFailed, err.Error()); emitErr != nil {
				return emitErr
			}
			continue
		}
		if err := o.emit(models.RowOrphanSidecar, path, dst, "", path, "", ""); err != nil {
			return err
		}
	}
	return nil
}

// QuarantineUnrecognizedPaths files every path the scanner could not
// classify into second_check_dir, mirroring quarantineUnrecognized but for
// files that never formed a MediaGroup in the first place.
func (o *Organizer) QuarantineUnrecognizedPaths(paths []string) error {
	for _, path := range paths {
		dst, err := o.quarantinePath(o.cfg.Paths.SecondCheckDir, path)
		if err != nil {
			if emitErr := o.emitError(path, path, models.MoveFailed, err.Error()); emitErr != nil {
				return emitErr
			}
			continue
		}
		if err := o.movePath(path, dst); err != nil {
			if emitErr := o.emitError(path, path, models.MoveFailed, err.Error()); emitErr != nil {
				return emitErr
			}
			continue
		}
		if err := o.emit(models.RowUnrecognized, path, dst, "", path, "", ""); err != nil {
			return err
		}
	}
	return nil
}

// quarantinePath computes a collision-free destination under root,
// preserving the file's position relative to the configured source root.
func (o *Organizer) quarantinePath(root, srcPath string) (string, error) {
	rel, err := filepath.Rel(o.cfg.Paths.Source, srcPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(srcPath)
	}
	dir := filepath.Join(root, filepath.Dir(rel))
	name := filepath.Base(rel)

	if o.dryRun {
		return pathutil.PreviewUnique(dir, name)
	}
	return pathutil.ReserveUnique(dir, name)
}

// placeArchived implements spec section 4.F steps 4-5: place the primary
// and its satellites under <dest>/YYYY/MM/, then commit the index entry
// before reporting success.
func (o *Organizer) placeArchived(g models.MediaGroup, captureTime time.Time, fp models.Fingerprint) error {
	monthDir := filepath.Join(o.cfg.Paths.Dest, captureTime.Format("2006"), captureTime.Format("01"))

	primaryName := filepath.Base(g.PrimaryPath)
	var primaryDst string
	var err error
	if o.dryRun {
		primaryDst, err = pathutil.PreviewUnique(monthDir, primaryName)
	} else {
		primaryDst, err = pathutil.ReserveUnique(monthDir, primaryName)
	}
	if err != nil {
		return o.recordGroupError(g, models.TargetExists, err.Error())
	}

	if err := o.movePath(g.PrimaryPath, primaryDst); err != nil {
		return o.emitError(g.PrimaryPath, g.PrimaryPath, models.MoveFailed, err.Error())
	}

	archiveRel, err := filepath.Rel(o.cfg.Paths.Dest, primaryDst)
	if err != nil {
		archiveRel = primaryDst
	}

	if !o.dryRun {
		if err := o.store.Insert(fp, archiveRel); err != nil {
			return o.emitError(g.PrimaryPath, g.PrimaryPath, models.IndexConflict, err.Error())
		}
		if err := o.store.Save(); err != nil {
			return fmt.Errorf("persist index: %w", err)
		}
	}

	if err := o.emit(models.RowMoved, g.PrimaryPath, primaryDst, "", g.PrimaryPath, "", ""); err != nil {
		return err
	}

	finalPrimaryName := filepath.Base(primaryDst)
	for _, sat := range g.Satellites {
		satName := pathutil.SharesStem(finalPrimaryName, filepath.Base(sat.Path))
		var satDst string
		if o.dryRun {
			satDst, err = pathutil.PreviewUnique(monthDir, satName)
		} else {
			satDst, err = pathutil.ReserveUnique(monthDir, satName)
		}
		if err != nil {
			if emitErr := o.emitError(sat.Path, g.PrimaryPath, models.TargetExists, err.Error()); emitErr != nil {
				return emitErr
			}
			continue
		}
		if err := o.movePath(sat.Path, satDst); err != nil {
			if emitErr := o.emitError(sat.Path, g.PrimaryPath, models.MoveFailed, err.Error()); emitErr != nil {
				return emitErr
			}
			continue
		}
		if err := o.emit(models.RowMoved, sat.Path, satDst, "", g.PrimaryPath, "", ""); err != nil {
			return err
		}
	}

	return nil
}

func (o *Organizer) movePath(src, dst string) error {
	if o.dryRun {
		return nil
	}
	return move(src, dst)
}

func (o *Organizer) recordGroupError(g models.MediaGroup, kind models.ErrorKind, detail string) error {
	for _, path := range g.AllPaths() {
		if err := o.emitError(path, g.PrimaryPath, kind, detail); err != nil {
			return err
		}
	}
	return nil
}

func (o *Organizer) emitError(path, group string, kind models.ErrorKind, detail string) error {
	o.log.Error(context.Background(), "group member errored", fmt.Errorf("%s", detail), logging.Fields{
		"path": path, "kind": string(kind), "group": group,
	})
	return o.emit(models.RowError, path, "", "", group, kind, detail)
}

func (o *Organizer) emit(kind models.RowKind, src, dst, existing, group string, errKind models.ErrorKind, errDetail string) error {
	return o.sink.Emit(models.ReportRow{
		Kind:         kind,
		RunID:        o.runID,
		Timestamp:    time.Now(),
		SrcPath:      src,
		DstPath:      dst,
		ExistingPath: existing,
		Group:        group,
		ErrorKind:    errKind,
		ErrorDetail:  errDetail,
	})
}
