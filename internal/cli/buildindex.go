package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"photox/pkg/config"
	"photox/pkg/hasher"
	"photox/pkg/index"
	"photox/pkg/models"
	"photox/pkg/organizer"
	"photox/pkg/pathutil"
	"photox/pkg/report"
)

// NewBuildIndexCommand rebuilds the fingerprint index directly from the
// archive tree, without touching the source tree at all. Equivalent to
// run --include-dest with an empty scan, per spec section 6.
func NewBuildIndexCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "build-index",
		Short: "Rebuild the fingerprint index by rescanning the archive tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg.DryRun = cfg.DryRun || dryRun
			cfg.IncludeDest = true
			if err := cfg.Paths.Resolve(); err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			startedAt := time.Now()
			runID := newRunID()

			store, err := index.Load(cfg.Paths.IndexPath())
			if err != nil {
				return fmt.Errorf("load index: %w", err)
			}

			h := hasher.New(cfg.Performance.HashWorkers, cfg.TailThresholdBytes())

			sink, err := report.NewSink(cfg.Paths.DataDir, runID, cfg.DryRun)
			if err != nil {
				return fmt.Errorf("open report sink: %w", err)
			}

			result, err := index.BuildFrom(cmd.Context(), store, h, cfg.Paths.Dest)
			if err != nil {
				sink.Finalize(startedAt, time.Now(), true)
				return fmt.Errorf("rebuild index: %w", err)
			}
			if !cfg.DryRun {
				if err := store.Save(); err != nil {
					sink.Finalize(startedAt, time.Now(), true)
					return fmt.Errorf("persist index: %w", err)
				}
			}

			if err := recordDestDuplicates(cfg, sink, runID, result.Duplicates); err != nil {
				sink.Finalize(startedAt, time.Now(), true)
				return fmt.Errorf("quarantine in-archive duplicates: %w", err)
			}

			finishedAt := time.Now()
			if err := sink.Finalize(startedAt, finishedAt, true); err != nil {
				return fmt.Errorf("finalize report: %w", err)
			}

			record := models.RunRecord{
				RunID:       runID,
				StartedAt:   startedAt,
				FinishedAt:  finishedAt,
				DryRun:      cfg.DryRun,
				IncludeDest: true,
				Counts:      sink.Counts(),
				ReportDir:   sink.Dir(),
			}
			if err := report.AppendHistory(cfg.Paths.HistoryFile(), record); err != nil {
				return fmt.Errorf("append run history: %w", err)
			}

			fmt.Printf("indexed=%d purged=%d dest_duplicate=%d\n", result.Indexed, result.Purged, len(result.Duplicates))
			fmt.Printf("report: %s\n", sink.Dir())
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report duplicates without moving anything")

	return cmd
}

// recordDestDuplicates moves every discarded in-archive collision found by
// index.BuildFrom into dup_dir and emits a RowDestDuplicate row for each,
// preserving its position relative to the archive root.
func recordDestDuplicates(cfg *config.Config, sink *report.Sink, runID string, dups []index.DestDuplicate) error {
	for _, d := range dups {
		srcAbs := filepath.Join(cfg.Paths.Dest, d.Discarded)

		dir := filepath.Join(cfg.Paths.DupDir, filepath.Dir(d.Discarded))
		name := filepath.Base(d.Discarded)

		var dstAbs string
		var err error
		if cfg.DryRun {
			dstAbs, err = pathutil.PreviewUnique(dir, name)
		} else {
			dstAbs, err = pathutil.ReserveUnique(dir, name)
		}
		if err != nil {
			if emitErr := sink.Emit(models.ReportRow{
				Kind: models.RowError, RunID: runID, Timestamp: time.Now(),
				SrcPath: srcAbs, Group: d.Kept,
				ErrorKind: models.TargetExists, ErrorDetail: err.Error(),
			}); emitErr != nil {
				return emitErr
			}
			continue
		}

		if !cfg.DryRun {
			if err := organizer.Move(srcAbs, dstAbs); err != nil {
				if emitErr := sink.Emit(models.ReportRow{
					Kind: models.RowError, RunID: runID, Timestamp: time.Now(),
					SrcPath: srcAbs, Group: d.Kept,
					ErrorKind: models.MoveFailed, ErrorDetail: err.Error(),
				}); emitErr != nil {
					return emitErr
				}
				continue
			}
		}

		if err := sink.Emit(models.ReportRow{
			Kind: models.RowDestDuplicate, RunID: runID, Timestamp: time.Now(),
			SrcPath: srcAbs, DstPath: dstAbs, ExistingPath: d.Kept, Group: d.Kept,
		}); err != nil {
			return err
		}
	}
	return nil
}
