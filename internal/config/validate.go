package config

import (
	"errors"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateImport(); err != nil {
		return err
	}
	if err := c.validateImmich(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OriginalsDir) == "" {
		return errors.New("paths.originals_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	if c.Paths.StagingDir == c.Paths.OriginalsDir {
		return errors.New("paths.staging_dir must differ from paths.originals_dir")
	}
	if strings.TrimSpace(c.Paths.ExportDir) != "" && c.Paths.ExportDir == c.Paths.OriginalsDir {
		return errors.New("paths.export_dir must differ from paths.originals_dir")
	}
	return nil
}

func (c *Config) validateImport() error {
	if strings.TrimSpace(c.Import.ExiftoolBinary) == "" {
		return errors.New("import.exiftool_binary must be set")
	}
	return nil
}

func (c *Config) validateImmich() error {
	if !c.Immich.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Immich.BaseURL) == "" {
		return errors.New("immich.base_url must be set when immich.enabled is true")
	}
	if strings.TrimSpace(c.Immich.APIKey) == "" {
		return errors.New("immich.api_key must be set when immich.enabled is true (or set IMMICH_API_KEY)")
	}
	if c.Immich.RequestTimeout <= 0 {
		return errors.New("immich.request_timeout must be positive (seconds)")
	}
	return nil
}
