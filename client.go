package dcrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// closedChan is returned by Done on a Client that was never started.
var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// state is the Client lifecycle: unstarted → running → closing → closed.
type state int

const (
	stateUnstarted state = iota
	stateRunning
	stateClosing
	stateClosed
)

// Client talks JSON-RPC 2.0 to a server process over its stdin/stdout.
//
// One goroutine reads the server's stdout for the life of the Client and
// routes each line to the call waiting for that id or to the event queue of
// the line's account. Any number of goroutines may call Call and
// WaitForEvent concurrently.
//
// A Client is single-use: Start once, Close once. Calls outside that
// window fail with ErrNotStarted or ErrClosed.
type Client struct {
	opts Options
	log  zerolog.Logger

	mu     sync.Mutex // guards state
	state  state
	proc   child
	conn   *Conn
	events *eventDemux
	done   chan struct{} // closed after ReadLoop exit and process reaped

	closeOnce sync.Once
	closeErr  error
}

// New creates a Client. No process is started until Start.
func New(opts ...Option) *Client {
	o := ResolveOptions(opts...)
	return &Client{
		opts: o,
		log:  o.Logger.With().Str("component", "dcrpc").Logger(),
	}
}

// Start spawns the server and launches the reader goroutine. It returns as
// soon as the process exists; it does not wait for the server to answer
// anything.
func (c *Client) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateUnstarted {
		return ErrAlreadyStarted
	}

	proc, stdout, stdin, err := startServer(c.opts)
	if err != nil {
		return err
	}
	c.attach(proc, stdout, stdin)
	c.log.Info().Int("pid", proc.pid()).Str("binary", c.opts.Binary).Msg("Started RPC server")
	return nil
}

// attach wires the reader and event demux to the child's pipes and moves
// the Client to running. Caller holds c.mu.
func (c *Client) attach(proc child, r io.Reader, w io.Writer) {
	c.proc = proc
	c.events = newEventDemux()
	c.conn = newConn(r, w, connConfig{
		maxMessageSize: c.opts.MaxMessageSize,
		onEvent:        c.events.push,
		onUnhandled:    c.opts.OnUnhandled,
		log:            c.log,
	})
	c.done = make(chan struct{})
	c.state = stateRunning

	go func() {
		defer close(c.done)
		c.conn.ReadLoop()
		c.events.close()
		if err := proc.wait(); err != nil {
			c.log.Debug().Err(err).Int("pid", proc.pid()).Msg("RPC server exited")
		}
	}()
}

// Close terminates the server and waits until the reader has seen EOF and
// the process is reaped. Calls still waiting for a response fail with
// ErrClosed. If the server ignores SIGTERM for the grace period it is
// killed.
//
// Close returns the reader's terminal error: nil after a clean EOF, a
// wrapped ErrProtocol if the server broke the protocol earlier. Safe to
// call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	switch c.state {
	case stateUnstarted:
		c.mu.Unlock()
		return ErrNotStarted
	case stateRunning:
		c.state = stateClosing
	}
	c.mu.Unlock()

	c.closeOnce.Do(func() {
		pid := c.proc.pid()
		c.log.Info().Int("pid", pid).Msg("Stopping RPC server")
		if err := c.proc.terminate(); err != nil {
			c.log.Warn().Err(err).Int("pid", pid).Msg("Failed to signal RPC server")
		}

		select {
		case <-c.done:
		case <-time.After(c.opts.GracePeriod):
			c.log.Warn().Int("pid", pid).Dur("grace_period", c.opts.GracePeriod).Msg("RPC server ignored SIGTERM, killing")
			_ = c.proc.kill()
			<-c.done
		}

		c.closeErr = c.conn.Err()
		c.mu.Lock()
		c.state = stateClosed
		c.mu.Unlock()
	})
	return c.closeErr
}

// Run starts a Client, passes it to fn and closes it when fn returns or
// panics. fn's error takes precedence over the Close error.
func Run(ctx context.Context, fn func(*Client) error, opts ...Option) (err error) {
	c := New(opts...)
	if err := c.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if closeErr := c.Close(); err == nil {
			err = closeErr
		}
	}()
	return fn(c)
}

// Call invokes method on the server and returns its raw result.
//
// args are positional parameters, or a single Named value for by-name
// parameters. Mixing the two fails with ErrMixedParams before anything is
// sent. A null or absent result is returned as (nil, nil). A server error
// object is returned as *RemoteError.
//
// Call has no deadline of its own; use ctx to bound it.
func (c *Client) Call(ctx context.Context, method string, args ...any) (json.RawMessage, error) {
	params, err := encodeParams(args)
	if err != nil {
		return nil, fmt.Errorf("dcrpc: %s: %w", method, err)
	}
	conn, err := c.activeConn()
	if err != nil {
		return nil, fmt.Errorf("dcrpc: %s: %w", method, err)
	}
	return conn.Call(ctx, method, params)
}

// CallInto is Call followed by json.Unmarshal of the result into out.
// A nil out or a null result leaves out untouched.
func (c *Client) CallInto(ctx context.Context, out any, method string, args ...any) error {
	raw, err := c.Call(ctx, method, args...)
	if err != nil {
		return err
	}
	if out == nil || raw == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("dcrpc: unmarshal %s result: %w", method, err)
	}
	return nil
}

// WaitForEvent returns the next event the server emitted for the account,
// waiting while none is buffered. If the server has never emitted an event
// for the account it returns (nil, nil) immediately.
//
// After the server's output ends, buffered events are still returned;
// an empty queue then yields ErrClosed.
func (c *Client) WaitForEvent(ctx context.Context, contextID int64) (json.RawMessage, error) {
	c.mu.Lock()
	st, events := c.state, c.events
	c.mu.Unlock()
	switch st {
	case stateUnstarted:
		return nil, ErrNotStarted
	case stateClosed:
		return nil, ErrClosed
	}
	return events.wait(ctx, contextID)
}

// PendingEvents returns the number of buffered events for the account.
func (c *Client) PendingEvents(contextID int64) int {
	c.mu.Lock()
	events := c.events
	c.mu.Unlock()
	if events == nil {
		return 0
	}
	return events.buffered(contextID)
}

// EventContexts returns the ids of accounts that have received events.
func (c *Client) EventContexts() []int64 {
	c.mu.Lock()
	events := c.events
	c.mu.Unlock()
	if events == nil {
		return nil
	}
	return events.contexts()
}

// Unhandled returns how many server messages were neither a response nor
// an event. 0 before Start.
func (c *Client) Unhandled() int64 {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return 0
	}
	return conn.Unhandled()
}

// Done returns a channel closed once the reader has exited and the server
// process is reaped. Before Start there is nothing to wait for and the
// returned channel is already closed.
func (c *Client) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == nil {
		return closedChan
	}
	return c.done
}

// Err returns the reader's terminal error once it has exited, else nil.
func (c *Client) Err() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Err()
}

// Pid returns the server's process id, or 0 before Start.
func (c *Client) Pid() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.proc == nil {
		return 0
	}
	return c.proc.pid()
}

// activeConn returns the connection if calls are currently allowed.
func (c *Client) activeConn() (*Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case stateUnstarted:
		return nil, ErrNotStarted
	case stateRunning:
		return c.conn, nil
	default:
		return nil, ErrClosed
	}
}
