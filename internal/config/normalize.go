package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBackup()
	c.normalizeImport()
	c.normalizeImmich()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.OriginalsDir, err = expandPath(c.Paths.OriginalsDir); err != nil {
		return fmt.Errorf("paths.originals_dir: %w", err)
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.ExportDir, err = expandPath(c.Paths.ExportDir); err != nil {
		return fmt.Errorf("paths.export_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SnapshotPath) == "" {
		c.Paths.SnapshotPath = defaultSnapshotPath
	}
	if c.Paths.SnapshotPath, err = expandPath(c.Paths.SnapshotPath); err != nil {
		return fmt.Errorf("paths.snapshot_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryDBPath) == "" {
		c.Paths.HistoryDBPath = defaultHistoryDBPath
	}
	if c.Paths.HistoryDBPath, err = expandPath(c.Paths.HistoryDBPath); err != nil {
		return fmt.Errorf("paths.history_db_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeBackup() {
	if c.Backup.RetentionDays < 0 {
		c.Backup.RetentionDays = 0
	}
}

func (c *Config) normalizeImport() {
	c.Import.ExiftoolBinary = strings.TrimSpace(c.Import.ExiftoolBinary)
	if c.Import.ExiftoolBinary == "" {
		c.Import.ExiftoolBinary = defaultExiftoolBinary
	}
}

func (c *Config) normalizeImmich() {
	c.Immich.BaseURL = strings.TrimRight(strings.TrimSpace(c.Immich.BaseURL), "/")
	if c.Immich.BaseURL == "" {
		c.Immich.BaseURL = defaultImmichBaseURL
	}
	c.Immich.APIKey = strings.TrimSpace(c.Immich.APIKey)
	if c.Immich.APIKey == "" {
		if value, ok := os.LookupEnv("IMMICH_API_KEY"); ok {
			c.Immich.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Immich.RequestTimeout <= 0 {
		c.Immich.RequestTimeout = defaultImmichRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
