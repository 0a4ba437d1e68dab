package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/dmora/dcrpc"
)

// Config is the top-level configuration.
type Config struct {
	Server  Server  `yaml:"server" json:"server"`
	Logging Logging `yaml:"logging" json:"logging"`
}

// Server describes how to start the RPC server process.
type Server struct {
	Binary         string            `yaml:"binary" json:"binary"`
	Args           []string          `yaml:"args" json:"args"`
	Dir            string            `yaml:"dir" json:"dir"`
	AccountsDir    string            `yaml:"accounts_dir" json:"accounts_dir"`
	Env            map[string]string `yaml:"env" json:"env"` // added to the inherited environment
	GracePeriod    time.Duration     `yaml:"grace_period" json:"grace_period"`
	MaxMessageSize int               `yaml:"max_message_size" json:"max_message_size"`
}

// Logging controls the command's log output.
type Logging struct {
	Level  string `yaml:"level" json:"level"`   // zerolog level name
	Format string `yaml:"format" json:"format"` // auto, console or json
}

// DefaultConfigPath returns the absolute path of the default config file.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load reads the config file at path (the default location when empty),
// applies .env and environment overrides, then normalizes and validates.
// A missing file is not an error; exists reports whether one was read.
func Load(path string) (cfg *Config, resolved string, exists bool, err error) {
	if err := loadDotEnv(); err != nil {
		return nil, "", false, err
	}

	c := Default()
	resolved, exists, err = resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}
	if exists {
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("read config: %w", err)
		}
		if err := c.decode(data); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}

	c.applyEnv(os.LookupEnv)
	if err := c.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := c.Validate(); err != nil {
		return nil, "", false, err
	}
	return &c, resolved, exists, nil
}

// decode parses YAML over the current values. ${VAR} references are
// expanded first. Unknown keys are rejected.
func (c *Config) decode(data []byte) error {
	expanded := os.ExpandEnv(string(data))
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = defaultConfigPath
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", expanded)
	}
	return expanded, true, nil
}

// ClientOptions converts the server section into dcrpc options.
func (c *Config) ClientOptions(logger zerolog.Logger) []dcrpc.Option {
	opts := []dcrpc.Option{
		dcrpc.WithBinary(c.Server.Binary),
		dcrpc.WithArgs(c.Server.Args...),
		dcrpc.WithDir(c.Server.Dir),
		dcrpc.WithAccountsDir(c.Server.AccountsDir),
		dcrpc.WithGracePeriod(c.Server.GracePeriod),
		dcrpc.WithMaxMessageSize(c.Server.MaxMessageSize),
		dcrpc.WithLogger(logger),
	}
	if len(c.Server.Env) > 0 {
		keys := make([]string, 0, len(c.Server.Env))
		for k := range c.Server.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		env := os.Environ()
		for _, k := range keys {
			env = append(env, k+"="+c.Server.Env[k])
		}
		opts = append(opts, dcrpc.WithEnv(env))
	}
	return opts
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// CreateSample writes a commented sample config to path. An existing file
// is left alone and reported as an error.
func CreateSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config %s already exists", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(sampleHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	sample := Default()
	sample.Server.AccountsDir = "~/.local/share/dcrpc/accounts"
	if err := enc.Encode(sample); err != nil {
		return fmt.Errorf("encode sample: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode sample: %w", err)
	}
	return os.WriteFile(expanded, buf.Bytes(), 0o644)
}

const sampleHeader = `# dcrpc configuration.
# Environment overrides: DCRPC_BINARY, DC_ACCOUNTS_PATH, DCRPC_LOG_LEVEL.
# ${VAR} references are expanded from the environment.
`
