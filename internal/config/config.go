// Package config loads vaultkit configuration from environment variables
// (VAULTKIT_ prefix) with an optional YAML file overlay. Command-line flags
// take precedence over anything loaded here.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration container.
type Config struct {
	// DataDir is where per-vault index databases are created.
	// Env: VAULTKIT_DATA_DIR
	DataDir string `env:"DATA_DIR" yaml:"data_dir"`

	// LogJSON switches log output from console lines to JSON.
	// Env: VAULTKIT_LOG_JSON
	LogJSON bool `env:"LOG_JSON" yaml:"log_json"`

	// ConfigFile is an optional YAML file merged over env values.
	// Env: VAULTKIT_CONFIG
	ConfigFile string `env:"CONFIG" yaml:"-"`

	Scan     Scan     `envPrefix:"SCAN_" yaml:"scan"`
	Validate Validate `envPrefix:"VALIDATE_" yaml:"validate"`
	Quality  Quality  `envPrefix:"QUALITY_" yaml:"quality"`
	Archive  Archive  `envPrefix:"ARCHIVE_" yaml:"archive"`
}

// Scan controls vault indexing.
type Scan struct {
	// BatchSize is the number of note records written per transaction.
	BatchSize int `env:"BATCH_SIZE" yaml:"batch_size"`

	// IgnoreDirs are directory names skipped during the walk, in addition
	// to dot-directories and the vault's archive folder.
	IgnoreDirs []string `env:"IGNORE_DIRS" yaml:"ignore_dirs"`
}

// Validate controls the note validators.
type Validate struct {
	// RequiredKeys are frontmatter keys every note must declare.
	RequiredKeys []string `env:"REQUIRED_KEYS" yaml:"required_keys"`

	// MinWords is the body word count under which a note is flagged empty.
	MinWords int `env:"MIN_WORDS" yaml:"min_words"`
}

// Quality controls the lazy quality assessor.
type Quality struct {
	// CacheSize bounds the in-memory assessment cache.
	CacheSize int `env:"CACHE_SIZE" yaml:"cache_size"`

	// FreshnessHalfLife is the age at which the freshness score halves.
	FreshnessHalfLife time.Duration `env:"FRESHNESS_HALF_LIFE" yaml:"freshness_half_life"`
}

// Archive controls stale-note archival.
type Archive struct {
	// Workers is the upload worker pool size.
	Workers int `env:"WORKERS" yaml:"workers"`

	// OlderThan is the default staleness cutoff.
	OlderThan time.Duration `env:"OLDER_THAN" yaml:"older_than"`

	// Statuses are frontmatter status values that mark a note archivable
	// regardless of age.
	Statuses []string `env:"STATUSES" yaml:"statuses"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir: ".",
		Scan: Scan{
			BatchSize:  500,
			IgnoreDirs: []string{"templates"},
		},
		Validate: Validate{
			RequiredKeys: []string{"title", "created", "tags"},
			MinWords:     5,
		},
		Quality: Quality{
			CacheSize:         256,
			FreshnessHalfLife: 90 * 24 * time.Hour,
		},
		Archive: Archive{
			Workers:   8,
			OlderThan: 90 * 24 * time.Hour,
			Statuses:  []string{"archived", "done"},
		},
	}
}

// Load builds the effective configuration: defaults, then environment
// variables, then the optional YAML file named by VAULTKIT_CONFIG.
func Load() (*Config, error) {
	cfg := Default()

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "VAULTKIT_"}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.ConfigFile != "" {
		if err := cfg.applyFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validation(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validation checks value ranges after all sources are merged.
func (c *Config) Validation() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.DataDir, validation.Required),
	); err != nil {
		return err
	}
	// Threshold rules skip zero values, so required fields carry both.
	if err := validation.ValidateStruct(&c.Scan,
		validation.Field(&c.Scan.BatchSize, validation.Required, validation.Min(1)),
	); err != nil {
		return err
	}
	if err := validation.ValidateStruct(&c.Validate,
		validation.Field(&c.Validate.MinWords, validation.Min(0)),
	); err != nil {
		return err
	}
	if err := validation.ValidateStruct(&c.Quality,
		validation.Field(&c.Quality.CacheSize, validation.Required, validation.Min(1)),
		validation.Field(&c.Quality.FreshnessHalfLife, validation.Min(time.Hour)),
	); err != nil {
		return err
	}
	return validation.ValidateStruct(&c.Archive,
		validation.Field(&c.Archive.Workers, validation.Required, validation.Min(1), validation.Max(128)),
	)
}
