package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"photox/internal/cli"
	"photox/pkg/models"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		var ioErr *models.StartupIOError
		if errors.As(err, &ioErr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run() error {
	rootCmd := &cobra.Command{
		Use:   "photox",
		Short: "Photo and video archiving pipeline with content-based deduplication",
		Long: `photox scans a source tree for photos and videos, groups Live Photo
pairs and edit sidecars, resolves capture timestamps, and archives each
group into a dated tree while filtering out anything already present
by content, not by name.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cli.AddGlobalFlags(rootCmd)

	rootCmd.AddCommand(cli.NewRunCommand())
	rootCmd.AddCommand(cli.NewBuildIndexCommand())
	rootCmd.AddCommand(cli.NewStatusCommand())
	rootCmd.AddCommand(cli.NewInitCommand())
	rootCmd.AddCommand(cli.NewVersionCommand())

	return rootCmd.Execute()
}
