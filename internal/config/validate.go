package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Binary == "" {
		return errors.New("server.binary must be set")
	}
	if c.Server.GracePeriod <= 0 {
		return errors.New("server.grace_period must be positive")
	}
	if c.Server.MaxMessageSize < 4096 {
		return errors.New("server.max_message_size must be at least 4096 bytes")
	}
	for k := range c.Server.Env {
		if k == "" || strings.Contains(k, "=") {
			return fmt.Errorf("server.env: invalid variable name %q", k)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "auto", "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be auto, console or json, got %q", c.Logging.Format)
	}
}

// LogLevel returns the parsed logging level. Call after Validate.
func (c *Config) LogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.Logging.Level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
