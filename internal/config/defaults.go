package config

const (
	defaultCacheDir     = "~/.cache/beatprobe"
	defaultLogDir       = "~/.local/share/beatprobe/logs"
	defaultVenvDir      = "~/.local/share/beatprobe/venv"
	defaultWorkerScript = "~/.local/share/beatprobe/worker/analyzer.py"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultPreflightTimeout = 20

	defaultQuickDeadline  = 30
	defaultSingleDeadline = 180
	defaultBatchDeadline  = 600

	defaultWatchSettleSeconds = 2
)

var defaultPreflightImports = []string{"numpy", "librosa"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir: defaultCacheDir,
			LogDir:   defaultLogDir,
			VenvDir:  defaultVenvDir,
		},
		Runtime: Runtime{
			PreflightImports: append([]string(nil), defaultPreflightImports...),
			PreflightTimeout: defaultPreflightTimeout,
		},
		Worker: Worker{
			Script: defaultWorkerScript,
		},
		Deadlines: Deadlines{
			Quick:  defaultQuickDeadline,
			Single: defaultSingleDeadline,
			Batch:  defaultBatchDeadline,
		},
		Watch: Watch{
			SettleSeconds: defaultWatchSettleSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
