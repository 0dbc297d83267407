package config

import (
	"os"
	"strings"
)

// normalize expands path fields and lowercases logging selectors. Environment
// variables (possibly loaded from .env) fill fields the file left unset.
func (c *Config) normalize() error {
	if c.Worker.Script == "" {
		c.Worker.Script = strings.TrimSpace(os.Getenv("BEATPROBE_WORKER_SCRIPT"))
	}
	if c.Runtime.Requirements == "" {
		c.Runtime.Requirements = strings.TrimSpace(os.Getenv("BEATPROBE_REQUIREMENTS"))
	}

	for _, field := range []*string{
		&c.Paths.CacheDir,
		&c.Paths.LogDir,
		&c.Paths.VenvDir,
		&c.Runtime.Python,
		&c.Runtime.Requirements,
		&c.Worker.Script,
	} {
		if *field == "" {
			continue
		}
		expanded, err := expandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}
