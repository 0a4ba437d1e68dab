package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeServer(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeServer() error {
	c.Server.Binary = strings.TrimSpace(c.Server.Binary)
	if c.Server.Binary == "" {
		c.Server.Binary = Default().Server.Binary
	}
	// Bare names are looked up in PATH; only expand explicit paths.
	if strings.ContainsAny(c.Server.Binary, `/\`) || strings.HasPrefix(c.Server.Binary, "~") {
		binary, err := expandPath(c.Server.Binary)
		if err != nil {
			return fmt.Errorf("server.binary: %w", err)
		}
		c.Server.Binary = binary
	}

	var err error
	if c.Server.AccountsDir, err = expandPath(strings.TrimSpace(c.Server.AccountsDir)); err != nil {
		return fmt.Errorf("server.accounts_dir: %w", err)
	}
	if c.Server.Dir, err = expandPath(strings.TrimSpace(c.Server.Dir)); err != nil {
		return fmt.Errorf("server.dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
