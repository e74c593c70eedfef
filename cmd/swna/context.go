package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/RabowNicholas/swna-automation/internal/config"
	"github.com/RabowNicholas/swna-automation/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	dirsOnce sync.Once
	dirsErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// loadConfig reads the configuration without touching the filesystem.
func (c *commandContext) loadConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		c.config, _, _, c.configErr = config.Load(c.configPath())
	})
	return c.config, c.configErr
}

// ensureConfig loads the configuration and creates the log, state and inbox
// directories.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	c.dirsOnce.Do(func() {
		c.dirsErr = cfg.EnsureDirectories()
	})
	if c.dirsErr != nil {
		return nil, c.dirsErr
	}
	return cfg, nil
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
