package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// CacheDir is the private cache directory handed to workers.
	CacheDir string `toml:"cache_dir"`
	// LogDir receives the application log and the job-history database.
	LogDir string `toml:"log_dir"`
	// VenvDir is the bundled virtualenv probed last during runtime
	// resolution.
	VenvDir string `toml:"venv_dir"`
}

// Runtime configures worker-runtime resolution.
type Runtime struct {
	// Python short-circuits discovery with an explicit interpreter path.
	Python string `toml:"python"`
	// Requirements names a pip manifest; when set, a failing candidate
	// gets one dependency-install pass before being rejected.
	Requirements string `toml:"requirements"`
	// PreflightImports are the modules the verification payload must
	// import before a candidate is trusted.
	PreflightImports []string `toml:"preflight_imports"`
	// PreflightTimeout bounds each verification run, in seconds.
	PreflightTimeout int `toml:"preflight_timeout"`
}

// Worker configures job launching.
type Worker struct {
	// Script is the analysis entry point handed to the interpreter.
	Script string `toml:"script"`
}

// Deadlines sets per-kind job deadlines, in seconds.
type Deadlines struct {
	Quick  int `toml:"quick"`
	Single int `toml:"single"`
	Batch  int `toml:"batch"`
}

// Watch configures the drop-folder watcher.
type Watch struct {
	// SettleSeconds is how long a file must stay quiet before it is
	// considered fully written and submitted.
	SettleSeconds int `toml:"settle_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for beatprobe.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Runtime   Runtime   `toml:"runtime"`
	Worker    Worker    `toml:"worker"`
	Deadlines Deadlines `toml:"deadlines"`
	Watch     Watch     `toml:"watch"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path of the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/beatprobe/config.toml")
}

// Load locates, parses, and validates a configuration file. An optional .env
// file in the working directory supplies BEATPROBE_* fallbacks before the
// TOML file is read. The returned config has all path fields expanded.
func Load(path string) (*Config, string, bool, error) {
	// Best-effort: a missing .env is the normal case.
	_ = godotenv.Load()

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
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("beatprobe.toml")
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

// EnsureDirectories creates the directories the orchestrator and CLI need.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// PreflightTimeout returns the bounded verification-run duration.
func (c *Config) PreflightTimeout() time.Duration {
	return time.Duration(c.Runtime.PreflightTimeout) * time.Second
}

// DeadlineFor returns a per-kind deadline in seconds as a duration.
func deadlineDuration(seconds, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}

// QuickDeadline returns the deadline for quick jobs.
func (c *Config) QuickDeadline() time.Duration {
	return deadlineDuration(c.Deadlines.Quick, defaultQuickDeadline)
}

// SingleDeadline returns the deadline for full single-file jobs.
func (c *Config) SingleDeadline() time.Duration {
	return deadlineDuration(c.Deadlines.Single, defaultSingleDeadline)
}

// BatchDeadline returns the deadline for batch jobs.
func (c *Config) BatchDeadline() time.Duration {
	return deadlineDuration(c.Deadlines.Batch, defaultBatchDeadline)
}

// WatchSettle returns the drop-folder settle duration.
func (c *Config) WatchSettle() time.Duration {
	seconds := c.Watch.SettleSeconds
	if seconds <= 0 {
		seconds = defaultWatchSettleSeconds
	}
	return time.Duration(seconds) * time.Second
}

// HistoryDBPath returns the job-history database location.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.LogDir, "history.db")
}

// LogFilePath returns the application log location.
func (c *Config) LogFilePath() string {
	if c.Paths.LogDir == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "beatprobe.log")
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
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
