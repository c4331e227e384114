package config

const (
	defaultDestinationDir = "~/media"
	defaultLogFilename    = "~/.torex/log.txt"
	defaultLogLevel       = "debug"
	defaultLogFormat      = "console"
	defaultTVPath         = "TV Series"
	defaultArchivePattern = "*.rar"
	defaultLockPath       = "~/.torex/torex.lock"
	defaultLockTimeout    = 600
	defaultHistoryPath    = "~/.torex/history.db"
	envDestinationDir     = "TOREX_DESTINATION_DIR"
	envArchivePassword    = "TOREX_ARCHIVE_PASSWORD"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Defaults: Defaults{
			DestinationDir: defaultDestinationDir,
			LogFilename:    defaultLogFilename,
			LogLevel:       defaultLogLevel,
			LogFormat:      defaultLogFormat,
		},
		Categories: map[string]Category{
			"tv": {Path: defaultTVPath},
		},
		Extraction: Extraction{
			ArchivePattern: defaultArchivePattern,
			Overwrite:      true,
			CheckFreeSpace: true,
		},
		Lock: Lock{
			Path:           defaultLockPath,
			TimeoutSeconds: defaultLockTimeout,
		},
		History: History{
			Path: defaultHistoryPath,
		},
	}
}
