package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWorker(); err != nil {
		return err
	}
	if err := c.validateRuntime(); err != nil {
		return err
	}
	if err := c.validateDeadlines(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateWorker() error {
	if c.Worker.Script == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/beatprobe/config.toml"
		}
		return fmt.Errorf("worker.script is required. Set BEATPROBE_WORKER_SCRIPT or edit %s (create with 'beatprobe config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateRuntime() error {
	if c.Runtime.PreflightTimeout <= 0 {
		return errors.New("runtime.preflight_timeout must be positive")
	}
	if len(c.Runtime.PreflightImports) == 0 {
		return errors.New("runtime.preflight_imports must name at least one module")
	}
	return nil
}

func (c *Config) validateDeadlines() error {
	for name, value := range map[string]int{
		"deadlines.quick":  c.Deadlines.Quick,
		"deadlines.single": c.Deadlines.Single,
		"deadlines.batch":  c.Deadlines.Batch,
	} {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	if c.Watch.SettleSeconds < 0 {
		return errors.New("watch.settle_seconds must not be negative")
	}
	return nil
}
