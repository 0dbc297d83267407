package main

import (
	"log/slog"
	"strings"
	"sync"

	"beatprobe/internal/config"
	"beatprobe/internal/history"
	"beatprobe/internal/logging"
	"beatprobe/internal/orchestrator"
	"beatprobe/internal/pyruntime"
	"beatprobe/internal/worker"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.New(logging.Options{
			Level:    cfg.Logging.Level,
			Format:   cfg.Logging.Format,
			FilePath: cfg.LogFilePath(),
		})
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) newResolver() (pyruntime.Resolver, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return pyruntime.NewResolver(pyruntime.Options{
		PythonOverride:   cfg.Runtime.Python,
		VenvDir:          cfg.Paths.VenvDir,
		RequirementsPath: cfg.Runtime.Requirements,
		Imports:          cfg.Runtime.PreflightImports,
		ProbeTimeout:     cfg.PreflightTimeout(),
		LockDir:          cfg.Paths.CacheDir,
	}, logger), nil
}

func (c *commandContext) newOrchestrator() (*orchestrator.Orchestrator, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	resolver, err := c.newResolver()
	if err != nil {
		return nil, err
	}
	launcher := &worker.Launcher{
		Script:   cfg.Worker.Script,
		CacheDir: cfg.Paths.CacheDir,
	}
	deadlines := orchestrator.DeadlinePolicy{
		Quick:  cfg.QuickDeadline(),
		Single: cfg.SingleDeadline(),
		Batch:  cfg.BatchDeadline(),
	}
	return orchestrator.New(resolver, launcher, deadlines, logger), nil
}

func (c *commandContext) openHistory() (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return history.Open(cfg.HistoryDBPath())
}
