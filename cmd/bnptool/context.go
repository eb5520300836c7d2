package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"bnptool/internal/config"
	"bnptool/internal/engine"
	"bnptool/internal/logging"
	"bnptool/internal/workflow"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
	logger     *slog.Logger
	closeLog   logging.CloseFunc
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(c.configFlagValue())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		logger, closeLog, err := logging.NewFromConfig(cfg, c.verboseValue())
		if err != nil {
			c.configErr = fmt.Errorf("init logging: %w", err)
			return
		}
		c.config = cfg
		c.configPath = path
		c.logger = logger
		c.closeLog = closeLog
	})
	return c.config, c.configErr
}

// close releases the log file opened by ensureConfig, if any.
func (c *commandContext) close() error {
	if c.closeLog == nil {
		return nil
	}
	return c.closeLog()
}

func (c *commandContext) configFlagValue() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) verboseValue() bool {
	return c.verbose != nil && *c.verbose
}

func (c *commandContext) loggerValue() *slog.Logger {
	if c.logger == nil {
		return logging.NewNop()
	}
	return c.logger
}

func (c *commandContext) engineClient() (*engine.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return engine.New(
		cfg.Engine.Binary,
		cfg.Engine.Args,
		engine.WithLogger(c.loggerValue()),
		engine.WithTimeout(cfg.EngineTimeout()),
		engine.WithStoreDir(cfg.Engine.StoreDir),
	)
}

func (c *commandContext) runner() (*workflow.Runner, error) {
	client, err := c.engineClient()
	if err != nil {
		return nil, err
	}
	return workflow.New(client, c.config.Paths.ScratchDir, workflow.WithLogger(c.loggerValue())), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func skipConfig() map[string]string {
	return map[string]string{"skipConfigLoad": "true"}
}
