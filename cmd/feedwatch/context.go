package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"feedwatch/internal/core"
	"feedwatch/internal/server"
)

type commandContext struct {
	envFile  *string
	logLevel *string

	config *core.Config
	logger *core.Logger
}

func newCommandContext(envFile, logLevel *string) *commandContext {
	return &commandContext{envFile: envFile, logLevel: logLevel}
}

// ensureConfig loads the env file once, then reads and validates configuration.
// Logs go to stderr so command output stays machine readable.
func (c *commandContext) ensureConfig(cmd *cobra.Command) (*core.Config, error) {
	if c.config != nil {
		return c.config, nil
	}

	if path := *c.envFile; path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", path, err)
		}
	}

	config, err := core.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	c.config = config
	c.logger = core.NewLoggerWithWriter(cmd.ErrOrStderr(), core.ParseLevel(*c.logLevel))
	return config, nil
}

func (c *commandContext) openApp(ctx context.Context, cmd *cobra.Command) (*server.App, error) {
	config, err := c.ensureConfig(cmd)
	if err != nil {
		return nil, err
	}
	return server.NewApp(ctx, config, c.logger)
}
