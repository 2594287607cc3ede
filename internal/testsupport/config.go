package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"shoebox/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// All directories exist when it returns.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OriginalsDir = filepath.Join(base, "originals")
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.ExportDir = filepath.Join(base, "export")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.SnapshotPath = filepath.Join(base, "state", "folder_status.json")
	cfg.Paths.HistoryDBPath = filepath.Join(base, "state", "history.db")
	cfg.Backup.Enabled = true
	cfg.Backup.RetentionDays = 7

	for _, opt := range opts {
		opt(&cfg)
	}

	for _, dir := range []string{
		cfg.Paths.OriginalsDir,
		cfg.Paths.StagingDir,
		cfg.Paths.ExportDir,
		cfg.Paths.LogDir,
		filepath.Dir(cfg.Paths.SnapshotPath),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	return &cfg
}

// WithAutoFlagProcessed toggles the commit-time recursive processed flag.
func WithAutoFlagProcessed(enabled bool) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Import.AutoFlagProcessed = enabled
	}
}

// WithImmich points the upload client at a test server.
func WithImmich(baseURL, apiKey string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Immich.Enabled = true
		cfg.Immich.BaseURL = baseURL
		cfg.Immich.APIKey = apiKey
	}
}
