package cli

import (
	"photox/pkg/config"
	"photox/pkg/logging"
)

// loadConfig loads configuration from the --config flag path, or the
// default location if unset.
func loadConfig() (*config.Config, error) {
	if globalFlags.ConfigFile != "" {
		return config.LoadFromFile(globalFlags.ConfigFile)
	}
	return config.LoadDefault()
}

// buildLogger constructs the run's Logger from cfg.Logging, mirroring the
// teacher's createLogger: a null logger when logging is disabled or no
// file is configured, a FileLogger otherwise.
func buildLogger(cfg *config.Config) (logging.Logger, error) {
	if !cfg.Logging.Enabled || cfg.Logging.File == "" {
		return logging.NewNullLogger(), nil
	}

	format := logging.FormatText
	if cfg.Logging.Format == "json" {
		format = logging.FormatJSON
	}

	return logging.NewFileLogger(logging.FileLoggerConfig{
		Path:       cfg.Logging.File,
		Format:     format,
		Level:      logging.ParseLevel(cfg.Logging.Level),
		MaxSize:    10 * 1024 * 1024,
		MaxBackups: 5,
	})
}
