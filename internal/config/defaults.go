package config

import (
	"time"

	"github.com/dmora/dcrpc"
)

const (
	defaultConfigPath = "~/.config/dcrpc/config.yaml"
	defaultLogLevel   = "info"
	defaultLogFormat  = "auto"
)

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server: Server{
			Binary:         dcrpc.DefaultBinary,
			GracePeriod:    5 * time.Second,
			MaxMessageSize: 64 << 20,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
