package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"

	"github.com/dmora/dcrpc"
)

// Environment variables that override the config file.
const (
	EnvBinary   = "DCRPC_BINARY"
	EnvLogLevel = "DCRPC_LOG_LEVEL"
)

// dotEnvFile is read from the working directory when present.
var dotEnvFile = ".env"

// loadDotEnv exports the variables of dotEnvFile that are not already set.
func loadDotEnv() error {
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", dotEnvFile, err)
	}
	return nil
}

// applyEnv overrides file values with set environment variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvBinary); ok && v != "" {
		c.Server.Binary = v
	}
	if v, ok := lookup(dcrpc.AccountsPathEnv); ok && v != "" {
		c.Server.AccountsDir = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
}
