package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"

	"photox/pkg/config"
	"photox/pkg/grouper"
	"photox/pkg/hasher"
	"photox/pkg/index"
	"photox/pkg/metadata"
	"photox/pkg/models"
	"photox/pkg/organizer"
	"photox/pkg/pathutil"
	"photox/pkg/report"
)

// NewRunCommand builds the pipeline's main entrypoint: scan, probe
// timestamps, fingerprint, place, report. Per spec section 6's
// run [--source DIR] [--dry-run] [--include-dest] surface.
func NewRunCommand() *cobra.Command {
	var source string
	var dryRun bool
	var includeDest bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scan the source tree and archive new media",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if source != "" {
				cfg.Paths.Source = source
			}
			cfg.DryRun = cfg.DryRun || dryRun
			cfg.IncludeDest = cfg.IncludeDest || includeDest
			if err := cfg.Paths.Resolve(); err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runPipeline(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "override the configured scan root")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report planned moves without touching the filesystem")
	cmd.Flags().BoolVar(&includeDest, "include-dest", false, "rebuild the index from the archive tree before scanning")

	return cmd
}

func runPipeline(ctx context.Context, cfg *config.Config) error {
	startedAt := time.Now()
	runID := newRunID()

	log, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Close()

	store, err := index.Load(cfg.Paths.IndexPath())
	if err != nil {
		return fmt.Errorf("load index: %w", err)
	}

	h := hasher.New(cfg.Performance.HashWorkers, cfg.TailThresholdBytes())

	sink, err := report.NewSink(cfg.Paths.DataDir, runID, cfg.DryRun)
	if err != nil {
		return fmt.Errorf("open report sink: %w", err)
	}

	if cfg.IncludeDest {
		buildResult, err := index.BuildFrom(ctx, store, h, cfg.Paths.Dest)
		if err != nil {
			sink.Finalize(startedAt, time.Now(), cfg.IncludeDest)
			return fmt.Errorf("rebuild index from archive: %w", err)
		}
		if !cfg.DryRun {
			if err := store.Save(); err != nil {
				sink.Finalize(startedAt, time.Now(), cfg.IncludeDest)
				return fmt.Errorf("persist rebuilt index: %w", err)
			}
		}
		if err := recordDestDuplicates(cfg, sink, runID, buildResult.Duplicates); err != nil {
			sink.Finalize(startedAt, time.Now(), cfg.IncludeDest)
			return fmt.Errorf("quarantine in-archive duplicates: %w", err)
		}
	}

	classifier := pathutil.NewClassifier(cfg)
	scanner := grouper.New(classifier, cfg.LivePhoto)

	groups, orphanSidecars, unrecognized, err := scanner.Scan(cfg.Paths.Source)
	if err != nil {
		sink.Finalize(startedAt, time.Now(), cfg.IncludeDest)
		return fmt.Errorf("scan source tree: %w", err)
	}

	primaries := make([]string, 0, len(groups))
	for _, g := range groups {
		primaries = append(primaries, g.PrimaryPath)
	}

	prober := metadata.New(cfg.Performance.ExiftoolChunkSize, "exiftool")

	var bar *pb.ProgressBar
	if len(primaries) > 0 {
		bar = pb.StartNew(len(primaries))
	}
	probes, err := prober.ProbeAll(ctx, primaries, func(done, total int) {
		if bar != nil {
			bar.SetCurrent(int64(done))
		}
	})
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		sink.Finalize(startedAt, time.Now(), cfg.IncludeDest)
		return fmt.Errorf("probe metadata: %w", err)
	}

	captureTimes := make(map[string]time.Time, len(probes))
	for _, p := range probes {
		if p.Resolved {
			captureTimes[p.Path] = p.CaptureTime
		}
	}

	org := organizer.New(cfg, store, h, sink, log, runID)

	if err := org.QuarantineOrphanSidecars(orphanSidecars); err != nil {
		sink.Finalize(startedAt, time.Now(), cfg.IncludeDest)
		return fmt.Errorf("quarantine orphan sidecars: %w", err)
	}
	if err := org.QuarantineUnrecognizedPaths(unrecognized); err != nil {
		sink.Finalize(startedAt, time.Now(), cfg.IncludeDest)
		return fmt.Errorf("quarantine unrecognized files: %w", err)
	}

	runErr := org.Run(ctx, groups, captureTimes)

	finishedAt := time.Now()
	if err := sink.Finalize(startedAt, finishedAt, cfg.IncludeDest); err != nil {
		return fmt.Errorf("finalize report: %w", err)
	}

	record := models.RunRecord{
		RunID:       runID,
		StartedAt:   startedAt,
		FinishedAt:  finishedAt,
		DryRun:      cfg.DryRun,
		IncludeDest: cfg.IncludeDest,
		Counts:      sink.Counts(),
		ReportDir:   sink.Dir(),
	}
	if err := report.AppendHistory(cfg.Paths.HistoryFile(), record); err != nil {
		return fmt.Errorf("append run history: %w", err)
	}

	if runErr != nil {
		return fmt.Errorf("organize media: %w", runErr)
	}

	fmt.Printf("run %s complete: moved=%d duplicate=%d orphan_sidecar=%d unrecognized=%d error=%d\n",
		runID, record.Counts.Moved, record.Counts.Duplicate, record.Counts.OrphanSidecar,
		record.Counts.Unrecognized, record.Counts.Error)
	fmt.Printf("report: %s\n", sink.Dir())

	return nil
}
