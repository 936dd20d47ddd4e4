package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.DataDir)
	assert.Equal(t, 500, cfg.Scan.BatchSize)
	assert.Equal(t, []string{"title", "created", "tags"}, cfg.Validate.RequiredKeys)
	assert.Equal(t, 5, cfg.Validate.MinWords)
	assert.Equal(t, 256, cfg.Quality.CacheSize)
	assert.Equal(t, 90*24*time.Hour, cfg.Quality.FreshnessHalfLife)
	assert.Equal(t, 8, cfg.Archive.Workers)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VAULTKIT_DATA_DIR", "/var/lib/vaultkit")
	t.Setenv("VAULTKIT_LOG_JSON", "true")
	t.Setenv("VAULTKIT_SCAN_BATCH_SIZE", "100")
	t.Setenv("VAULTKIT_QUALITY_CACHE_SIZE", "64")
	t.Setenv("VAULTKIT_ARCHIVE_OLDER_THAN", "720h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/vaultkit", cfg.DataDir)
	assert.True(t, cfg.LogJSON)
	assert.Equal(t, 100, cfg.Scan.BatchSize)
	assert.Equal(t, 64, cfg.Quality.CacheSize)
	assert.Equal(t, 720*time.Hour, cfg.Archive.OlderThan)
}

func TestFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vaultkit.yaml")
	content := `
data_dir: /data
validate:
  min_words: 10
  required_keys: [title]
archive:
  statuses: [obsolete]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("VAULTKIT_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data", cfg.DataDir)
	assert.Equal(t, 10, cfg.Validate.MinWords)
	assert.Equal(t, []string{"title"}, cfg.Validate.RequiredKeys)
	assert.Equal(t, []string{"obsolete"}, cfg.Archive.Statuses)
	// Untouched sections keep their defaults.
	assert.Equal(t, 500, cfg.Scan.BatchSize)
}

func TestFileOverlayMissingFile(t *testing.T) {
	t.Setenv("VAULTKIT_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"zero batch size", func(c *Config) { c.Scan.BatchSize = 0 }},
		{"negative min words", func(c *Config) { c.Validate.MinWords = -1 }},
		{"zero cache size", func(c *Config) { c.Quality.CacheSize = 0 }},
		{"tiny half life", func(c *Config) { c.Quality.FreshnessHalfLife = time.Minute }},
		{"too many workers", func(c *Config) { c.Archive.Workers = 1000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validation())
		})
	}

	assert.NoError(t, Default().Validation())
}
