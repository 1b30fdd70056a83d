package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"photox/pkg/config"
)

// NewInitCommand bootstraps a run environment: writes a default config
// file and creates the archive's data directory, matching the original
// tool's setup step. This is spec section 6's "init" CLI surface,
// explicitly out of the pipeline's own scope but still a real
// implementation, since a runnable module needs an entrypoint for it.
func NewInitCommand() *cobra.Command {
	var source, dest string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file and create archive directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if source != "" {
				cfg.Paths.Source = source
			}
			if dest != "" {
				cfg.Paths.Dest = dest
			}
			if err := cfg.Paths.Resolve(); err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}

			path := globalFlags.ConfigFile
			if path == "" {
				var err error
				path, err = config.DefaultConfigPath()
				if err != nil {
					return err
				}
			}

			if err := config.SaveToFile(cfg, path); err != nil {
				return fmt.Errorf("write config: %w", err)
			}

			if err := os.MkdirAll(cfg.Paths.DataDir, 0o755); err != nil {
				return fmt.Errorf("create data directory: %w", err)
			}

			fmt.Printf("Configuration written to %s\n", path)
			fmt.Printf("Archive data directory: %s\n", cfg.Paths.DataDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "scan root (default: current directory)")
	cmd.Flags().StringVar(&dest, "dest", "", "archive root (default: ./archive)")

	return cmd
}
