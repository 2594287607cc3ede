package config

const (
	defaultOriginalsDir         = "~/photos/originals"
	defaultStagingDir           = "~/.local/share/shoebox/staging"
	defaultExportDir            = "~/photos/export"
	defaultLogDir               = "~/.local/share/shoebox/logs"
	defaultSnapshotPath         = "~/.local/share/shoebox/folder_status.json"
	defaultHistoryDBPath        = "~/.local/share/shoebox/history.db"
	defaultBackupRetentionDays  = 7
	defaultExiftoolBinary       = "exiftool"
	defaultImmichBaseURL        = "http://127.0.0.1:2283/api"
	defaultImmichRequestTimeout = 30
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OriginalsDir:  defaultOriginalsDir,
			StagingDir:    defaultStagingDir,
			ExportDir:     defaultExportDir,
			LogDir:        defaultLogDir,
			SnapshotPath:  defaultSnapshotPath,
			HistoryDBPath: defaultHistoryDBPath,
		},
		Backup: Backup{
			Enabled:       true,
			RetentionDays: defaultBackupRetentionDays,
		},
		Import: Import{
			ExiftoolBinary: defaultExiftoolBinary,
		},
		Immich: Immich{
			BaseURL:        defaultImmichBaseURL,
			RequestTimeout: defaultImmichRequestTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
