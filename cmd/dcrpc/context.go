package main

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dmora/dcrpc"
	"github.com/dmora/dcrpc/internal/config"
)

type commandContext struct {
	flags *rootFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(flags *rootFlags) *commandContext {
	return &commandContext{flags: flags}
}

// ensureConfig loads the configuration once and applies flag overrides,
// which win over the file and the environment.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if c.flags.binary != "" {
			cfg.Server.Binary = c.flags.binary
		}
		if c.flags.accountsDir != "" {
			cfg.Server.AccountsDir = c.flags.accountsDir
		}
		if c.flags.logLevel != "" {
			cfg.Logging.Level = strings.ToLower(c.flags.logLevel)
			if err := cfg.Validate(); err != nil {
				c.configErr = err
				return
			}
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger builds the command logger on the command's stderr.
func (c *commandContext) logger(w io.Writer) zerolog.Logger {
	cfg, err := c.ensureConfig()
	if err != nil {
		return zerolog.Nop()
	}
	return newLogger(w, cfg.LogLevel(), cfg.Logging.Format)
}

// withClient starts the server, runs fn and stops the server.
func (c *commandContext) withClient(cmd *cobra.Command, fn func(context.Context, *dcrpc.Client) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := c.logger(cmd.ErrOrStderr())
	opts := append(cfg.ClientOptions(log), dcrpc.WithStderr(cmd.ErrOrStderr()))
	opts = append(opts, dcrpc.WithUnhandledHandler(func(line []byte) {
		log.Debug().Bytes("line", line).Msg("Ignoring server message")
	}))
	return dcrpc.Run(ctx, func(client *dcrpc.Client) error {
		return fn(ctx, client)
	}, opts...)
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
