package dcrpc

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBinary is the server executable started when WithBinary is not used.
const DefaultBinary = "deltachat-rpc-server"

// AccountsPathEnv is the environment variable that pins the server's
// accounts (storage root) directory.
const AccountsPathEnv = "DC_ACCOUNTS_PATH"

// Default client configuration values.
const (
	defaultGracePeriod    = 5 * time.Second
	defaultMaxMessageSize = 64 << 20 // 64 MiB
)

// Options holds resolved construction-time configuration for a Client.
type Options struct {
	// Binary is the server executable name or path.
	Binary string

	// Args are passed to the binary.
	Args []string

	// Dir is the working directory of the server process. Empty means the
	// caller's working directory.
	Dir string

	// Env replaces the inherited environment when non-nil.
	Env []string

	// AccountsDir, when set, is exported to the server as AccountsPathEnv,
	// replacing any value already present in the environment.
	AccountsDir string

	// Stderr receives the server's stderr. Defaults to os.Stderr.
	Stderr io.Writer

	// GracePeriod is how long Close waits after SIGTERM before SIGKILL.
	GracePeriod time.Duration

	// MaxMessageSize is the longest line in bytes the reader accepts.
	MaxMessageSize int

	// Logger receives transport diagnostics. Defaults to a no-op logger.
	Logger zerolog.Logger

	// OnUnhandled is called from the reader goroutine for every server
	// message that is neither a response nor an event. It must not block.
	OnUnhandled func(line []byte)
}

// Option configures a Client at construction time.
type Option func(*Options)

// WithBinary sets the server executable name or path.
func WithBinary(binary string) Option {
	return func(o *Options) {
		if binary != "" {
			o.Binary = binary
		}
	}
}

// WithArgs sets the arguments passed to the server binary.
func WithArgs(args ...string) Option {
	return func(o *Options) {
		o.Args = args
	}
}

// WithDir sets the working directory of the server process.
func WithDir(dir string) Option {
	return func(o *Options) {
		o.Dir = dir
	}
}

// WithEnv replaces the environment inherited by the server process.
// Entries use the "KEY=value" form of os.Environ.
func WithEnv(env []string) Option {
	return func(o *Options) {
		o.Env = env
	}
}

// WithAccountsDir pins the server's accounts directory. The rest of the
// environment is left as is.
func WithAccountsDir(dir string) Option {
	return func(o *Options) {
		o.AccountsDir = dir
	}
}

// WithStderr redirects the server's stderr. Nil is ignored; pass
// io.Discard to silence it.
func WithStderr(w io.Writer) Option {
	return func(o *Options) {
		if w != nil {
			o.Stderr = w
		}
	}
}

// WithGracePeriod sets the delay between SIGTERM and SIGKILL on Close.
// Values <= 0 are ignored.
func WithGracePeriod(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.GracePeriod = d
		}
	}
}

// WithMaxMessageSize sets the longest accepted server line in bytes.
// Values <= 0 are ignored.
func WithMaxMessageSize(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.MaxMessageSize = size
		}
	}
}

// WithLogger sets the logger for transport diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithUnhandledHandler registers a callback for server messages that are
// neither responses nor events. They are always logged as well.
func WithUnhandledHandler(h func(line []byte)) Option {
	return func(o *Options) {
		o.OnUnhandled = h
	}
}

// ResolveOptions applies opts over the defaults. Nil options are skipped.
func ResolveOptions(opts ...Option) Options {
	o := Options{
		Binary:         DefaultBinary,
		Stderr:         os.Stderr,
		GracePeriod:    defaultGracePeriod,
		MaxMessageSize: defaultMaxMessageSize,
		Logger:         zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
