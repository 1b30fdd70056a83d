package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"photox/pkg/report"
)

// NewStatusCommand prints a read-only summary of past runs from
// run_history.json, the out-of-core status surface of spec section 6.
func NewStatusCommand() *cobra.Command {
	var last int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent run history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			history, err := report.LoadHistory(cfg.Paths.HistoryFile())
			if err != nil {
				return fmt.Errorf("load run history: %w", err)
			}
			if len(history) == 0 {
				fmt.Println("no runs recorded yet")
				return nil
			}

			start := 0
			if last > 0 && len(history) > last {
				start = len(history) - last
			}

			for _, r := range history[start:] {
				fmt.Printf("run %s  started=%s  duration=%s  dry_run=%v\n",
					r.RunID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Duration(), r.DryRun)
				fmt.Printf("  moved=%d duplicate=%d dest_duplicate=%d orphan_sidecar=%d unrecognized=%d error=%d\n",
					r.Counts.Moved, r.Counts.Duplicate, r.Counts.DestDuplicate,
					r.Counts.OrphanSidecar, r.Counts.Unrecognized, r.Counts.Error)
				fmt.Printf("  report: %s\n", r.ReportDir)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&last, "last", 10, "show at most this many most-recent runs (0 = all)")

	return cmd
}
