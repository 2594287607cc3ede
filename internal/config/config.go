package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file locations the daemon operates on.
type Paths struct {
	OriginalsDir  string `toml:"originals_dir"`
	StagingDir    string `toml:"staging_dir"`
	ExportDir     string `toml:"export_dir"`
	LogDir        string `toml:"log_dir"`
	SnapshotPath  string `toml:"snapshot_path"`
	HistoryDBPath string `toml:"history_db_path"`
}

// Backup contains configuration for snapshot backup retention.
type Backup struct {
	Enabled       bool `toml:"enabled"`
	RetentionDays int  `toml:"retention_days"`
}

// Import contains configuration for the staging/analysis/commit flow.
type Import struct {
	AutoFlagProcessed bool   `toml:"auto_flag_processed"`
	ExiftoolBinary    string `toml:"exiftool_binary"`
}

// Watcher contains configuration for the removable-media monitor.
type Watcher struct {
	Enabled bool `toml:"enabled"`
}

// Immich contains configuration for the Immich asset upload client.
type Immich struct {
	Enabled        bool   `toml:"enabled"`
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for Shoebox.
//
// Configuration sections by subsystem:
//   - Paths: library, staging, export, and state file locations
//   - Backup: snapshot backup retention
//   - Import: staging/commit behavior and the exiftool binary
//   - Watcher: removable-media monitoring
//   - Immich: remote asset upload endpoint
//   - Logging: log format, level, and retention
type Config struct {
	Paths   Paths   `toml:"paths"`
	Backup  Backup  `toml:"backup"`
	Import  Import  `toml:"import"`
	Watcher Watcher `toml:"watcher"`
	Immich  Immich  `toml:"immich"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/shoebox/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/shoebox/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("shoebox.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// OriginalsDir and ExportDir are created on a best-effort basis so the daemon
// can run when external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.StagingDir,
		c.Paths.LogDir,
		filepath.Dir(c.Paths.SnapshotPath),
		filepath.Dir(c.Paths.HistoryDBPath),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	for _, dir := range []string{c.Paths.OriginalsDir, c.Paths.ExportDir} {
		if strings.TrimSpace(dir) != "" {
			_ = os.MkdirAll(dir, 0o755)
		}
	}
	return nil
}

// ExiftoolBinary returns the exiftool executable used for metadata writes.
func (c *Config) ExiftoolBinary() string {
	if strings.TrimSpace(c.Import.ExiftoolBinary) != "" {
		return c.Import.ExiftoolBinary
	}
	return defaultExiftoolBinary
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
