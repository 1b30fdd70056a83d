package config

import (
	"path/filepath"

	"photox/pkg/models"
)

// Config is the single explicit configuration value threaded through the
// whole pipeline. No component reads the environment or a package-level
// global; everything needed is resolved here, once, up front.
type Config struct {
	Paths       PathsConfig       `yaml:"paths"`
	Extensions  ExtensionsConfig  `yaml:"extensions"`
	LivePhoto   LivePhotoConfig   `yaml:"live_photo"`
	Performance PerformanceConfig `yaml:"performance"`
	Dedup       DedupConfig       `yaml:"dedup"`
	Logging     LoggingConfig     `yaml:"logging"`

	// DryRun and IncludeDest are run-time options, set by CLI flags
	// rather than loaded from YAML (matching the original tool's
	// CLI-overrides-config behavior).
	DryRun      bool `yaml:"-"`
	IncludeDest bool `yaml:"-"`
}

// PathsConfig holds every path the pipeline touches, all resolved to
// absolutes before the pipeline starts.
type PathsConfig struct {
	Source          string `yaml:"source"`
	Dest            string `yaml:"dest"`
	DataDir         string `yaml:"data_dir"`
	DupDir          string `yaml:"dup_dir"`
	OrphanAAEDir    string `yaml:"orphan_aae_dir"`
	SecondCheckDir  string `yaml:"second_check_dir"`
}

// IndexPath is where the persistent fingerprint index lives.
func (p PathsConfig) IndexPath() string {
	return filepath.Join(p.DataDir, "photo_md5.json")
}

// ReportsDir is where per-run report directories are created.
func (p PathsConfig) ReportsDir() string {
	return filepath.Join(p.DataDir, "reports")
}

// HistoryFile is the path to the persistent run ledger.
func (p PathsConfig) HistoryFile() string {
	return filepath.Join(p.DataDir, "run_history.json")
}

// Resolve fills in path defaults relative to Dest and makes every path
// absolute, mirroring PathsConfig.__post_init__ in the original tool.
func (p *PathsConfig) Resolve() error {
	abs := func(s string) (string, error) {
		if s == "" {
			return "", nil
		}
		return filepath.Abs(s)
	}

	var err error
	if p.Source, err = abs(p.Source); err != nil {
		return err
	}
	if p.Dest, err = abs(p.Dest); err != nil {
		return err
	}

	if p.DataDir == "" {
		p.DataDir = filepath.Join(p.Dest, ".photox")
	} else if p.DataDir, err = abs(p.DataDir); err != nil {
		return err
	}

	if p.DupDir == "" {
		p.DupDir = filepath.Join(p.Dest, "_duplicates")
	} else if p.DupDir, err = abs(p.DupDir); err != nil {
		return err
	}

	if p.OrphanAAEDir == "" {
		p.OrphanAAEDir = filepath.Join(p.Dest, "_orphan_aae")
	} else if p.OrphanAAEDir, err = abs(p.OrphanAAEDir); err != nil {
		return err
	}

	if p.SecondCheckDir == "" {
		p.SecondCheckDir = filepath.Join(p.Dest, "_needs_review")
	} else if p.SecondCheckDir, err = abs(p.SecondCheckDir); err != nil {
		return err
	}

	return nil
}

// ExtensionsConfig groups the three extension sets used for classification.
type ExtensionsConfig struct {
	Still   []string `yaml:"still"`
	Video   []string `yaml:"video"`
	Sidecar []string `yaml:"sidecar"`
}

// LivePhotoConfig controls Live Photo pairing.
type LivePhotoConfig struct {
	Enabled       bool     `yaml:"enabled"`
	VideoExt      string   `yaml:"video_ext"`
	MasterExts    []string `yaml:"master_exts"`
}

// PerformanceConfig holds the performance knobs from spec section 6.
type PerformanceConfig struct {
	ExiftoolChunkSize int `yaml:"exiftool_chunk_size"`
	HashWorkers       int `yaml:"hash_workers"`
	HashThresholdMB   int `yaml:"hash_threshold_mb"`
}

// DedupConfig controls the duplicate-checking policy.
type DedupConfig struct {
	VerifyTailCollision bool `yaml:"verify_tail_collision"`
}

// LoggingConfig mirrors the teacher's logging configuration shape.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"` // "json" or "text"
	Level   string `yaml:"level"`  // "debug", "info", "warn", "error"
	File    string `yaml:"file"`   // empty = no log output (null logger)
}

// Default returns the default configuration, matching spec section 6's
// enumerated defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Source: ".",
			Dest:   "./archive",
		},
		Extensions: ExtensionsConfig{
			Still: []string{
				".jpg", ".jpeg", ".png", ".heic", ".heif", ".tif", ".tiff",
				".gif", ".bmp", ".webp", ".dng", ".cr2", ".nef", ".arw",
			},
			Video: []string{
				".mp4", ".mov", ".m4v", ".avi", ".mkv", ".3gp",
			},
			Sidecar: []string{".aae"},
		},
		LivePhoto: LivePhotoConfig{
			Enabled:    true,
			VideoExt:   ".mov",
			MasterExts: []string{".heic", ".heif", ".jpg", ".jpeg"},
		},
		Performance: PerformanceConfig{
			ExiftoolChunkSize: 800,
			HashWorkers:       4,
			HashThresholdMB:   10,
		},
		Dedup: DedupConfig{
			VerifyTailCollision: true,
		},
		Logging: LoggingConfig{
			Enabled: true,
			Format:  "text",
			Level:   "info",
			File:    "",
		},
	}
}

// Validate checks invariants the pipeline depends on, returning a
// models.ValidationError (and thus a models.ConfigInvalid condition) on
// failure. This must be checked before the run starts; a failure here is
// fatal (exit code 1), per spec section 7.
func (c *Config) Validate() error {
	if c.Paths.Dest == "" {
		return &models.ValidationError{Field: "paths.dest", Message: "must not be empty"}
	}
	if c.Performance.HashWorkers < 1 {
		return &models.ValidationError{Field: "performance.hash_workers", Message: "must be at least 1"}
	}
	if c.Performance.ExiftoolChunkSize < 1 {
		return &models.ValidationError{Field: "performance.exiftool_chunk_size", Message: "must be at least 1"}
	}
	if c.Performance.HashThresholdMB < 1 {
		return &models.ValidationError{Field: "performance.hash_threshold_mb", Message: "must be at least 1"}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{Field: "logging.format", Message: "must be 'json' or 'text'"}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{Field: "logging.level", Message: "must be 'debug', 'info', 'warn', or 'error'"}
	}

	return nil
}

// TailThresholdBytes returns the size, in bytes, at or below which a file
// is fully hashed rather than tail-sampled.
func (c *Config) TailThresholdBytes() int64 {
	return int64(c.Performance.HashThresholdMB) * 1024 * 1024
}
