package dcrpc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/dmora/dcrpc/internal/errfmt"
)

// jsonrpcVersion is the protocol version stamped on every request.
const jsonrpcVersion = "2.0"

// methodEvent is the notification method the server uses for account events.
const methodEvent = "event"

// Conn is a JSON-RPC 2.0 client multiplexer over newline-delimited JSON.
//
// Conn serializes outbound requests via a mutex-protected encoder and
// routes inbound lines in ReadLoop: responses resolve the pending call with
// the same id, "event" notifications go to the event handler, anything
// else is reported as unhandled.
//
// Pending calls live in a map[int64]chan guarded by pendingMu. An entry is
// removed exactly when it is resolved. On ReadLoop exit every remaining
// entry is failed with the terminal error.
type Conn struct {
	mu  sync.Mutex // serializes writes
	enc *json.Encoder

	nextID atomic.Int64

	pendingMu sync.Mutex
	pending   map[int64]chan *response
	exitErr   error // set under pendingMu when ReadLoop exits

	onEvent     func(contextID int64, event json.RawMessage)
	onUnhandled func(line []byte)
	unhandled   atomic.Int64
	log         zerolog.Logger

	scanner *bufio.Scanner

	done    chan struct{}
	readErr atomic.Value // stores error (nil = no error)
}

// connConfig holds optional configuration for a Conn.
type connConfig struct {
	maxMessageSize int
	onEvent        func(contextID int64, event json.RawMessage)
	onUnhandled    func(line []byte)
	log            zerolog.Logger
}

// newConn creates a connection reading from r and writing to w.
// Call ReadLoop in a goroutine to start processing inbound lines.
func newConn(r io.Reader, w io.Writer, cfg connConfig) *Conn {
	maxSize := cfg.maxMessageSize
	if maxSize <= 0 {
		maxSize = defaultMaxMessageSize
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Conn{
		enc:         enc,
		pending:     make(map[int64]chan *response),
		onEvent:     cfg.onEvent,
		onUnhandled: cfg.onUnhandled,
		log:         cfg.log,
		scanner:     newScanner(r, maxSize),
		done:        make(chan struct{}),
	}
}

func newScanner(r io.Reader, maxSize int) *bufio.Scanner {
	s := bufio.NewScanner(r)
	initCap := min(64*1024, maxSize)
	s.Buffer(make([]byte, 0, initCap), maxSize)
	return s
}

// Call sends a request and blocks until its response arrives, ctx ends, or
// the reader exits. params must already be the wire value (array or object).
//
// A caller whose ctx ends leaves its entry registered: the response, when
// it comes, resolves the orphaned entry instead of being reported as a
// response for an unknown id.
func (c *Conn) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id, ch, err := c.register()
	if err != nil {
		return nil, fmt.Errorf("dcrpc: %s: %w", method, err)
	}

	req := &request{
		JSONRPC: jsonrpcVersion,
		Method:  method,
		Params:  params,
		ID:      id,
	}
	c.log.Debug().Int64("id", id).Str("method", method).Msg("Sending request")
	if err := c.send(req); err != nil {
		c.unregister(id)
		if c.writeClosed(err) {
			return nil, fmt.Errorf("dcrpc: send %s: %w: %w", method, ErrClosed, err)
		}
		return nil, fmt.Errorf("dcrpc: send %s: %w", method, err)
	}

	select {
	case resp, ok := <-ch:
		return c.handleCallResponse(resp, ok, method)
	case <-ctx.Done():
		// Response may have arrived just before cancellation.
		select {
		case resp, ok := <-ch:
			return c.handleCallResponse(resp, ok, method)
		default:
			return nil, ctx.Err()
		}
	}
}

// register allocates the next id and inserts its pending entry. The entry
// exists before the request is written, so the reader can never see a
// response ahead of its registration.
func (c *Conn) register() (int64, chan *response, error) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	if c.exitErr != nil {
		return 0, nil, c.exitErr
	}
	id := c.nextID.Add(1)
	ch := make(chan *response, 1)
	c.pending[id] = ch
	return id, ch, nil
}

func (c *Conn) unregister(id int64) {
	c.pendingMu.Lock()
	delete(c.pending, id)
	c.pendingMu.Unlock()
}

// writeClosed reports whether a failed send hit a server that is gone
// rather than some other I/O error.
func (c *Conn) writeClosed(err error) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	return errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, syscall.EPIPE)
}

// resolve pops the entry for id and hands it the response. A missing entry
// means the server answered an id it was never sent, or answered twice.
func (c *Conn) resolve(id int64, resp *response) error {
	c.pendingMu.Lock()
	ch, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()

	if !ok {
		return protocolErrorf("response for unknown or already answered id %d", id)
	}
	ch <- resp // capacity 1, sole send for this entry
	return nil
}

// handleCallResponse turns a resolved entry into Call's return values.
func (c *Conn) handleCallResponse(resp *response, ok bool, method string) (json.RawMessage, error) {
	if !ok {
		c.pendingMu.Lock()
		err := c.exitErr
		c.pendingMu.Unlock()
		return nil, fmt.Errorf("dcrpc: %s: %w", method, err)
	}
	if resp.hasError() {
		return nil, newRemoteError(method, resp.Error)
	}
	if isNull(resp.Result) {
		return nil, nil
	}
	return resp.Result, nil
}

// pendingCount returns the number of registered, unresolved calls,
// including entries orphaned by canceled callers.
func (c *Conn) pendingCount() int {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	return len(c.pending)
}

// Unhandled returns how many inbound lines were neither a response nor an
// event.
func (c *Conn) Unhandled() int64 {
	return c.unhandled.Load()
}

// ReadLoop reads and routes inbound lines until EOF, a read error, or a
// protocol violation. On exit every pending call fails. Must be called
// exactly once.
func (c *Conn) ReadLoop() {
	defer close(c.done)

	err := c.readLines()
	if err != nil {
		c.readErr.Store(err)
	}
	c.drainPending(err)
}

func (c *Conn) readLines() error {
	for c.scanner.Scan() {
		line := bytes.TrimSpace(c.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := c.dispatch(line); err != nil {
			c.log.Error().Err(err).Str("line", errfmt.Line(line)).Msg("Protocol violation, stopping reader")
			return err
		}
	}
	if err := c.scanner.Err(); err != nil {
		c.log.Error().Err(err).Msg("Reading server output failed")
		return fmt.Errorf("dcrpc: read: %w", err)
	}
	c.log.Debug().Msg("Server closed its output")
	return nil
}

// Err returns the ReadLoop error after it exits. Returns nil if ReadLoop
// hasn't finished or exited cleanly at EOF.
func (c *Conn) Err() error {
	if v := c.readErr.Load(); v != nil {
		return v.(error)
	}
	return nil
}

// Done returns a channel that is closed when ReadLoop exits.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// --- Internal ---

// send serializes and writes one request line. Thread-safe; the encoder
// issues the whole line in a single Write.
func (c *Conn) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enc.Encode(v)
}

// dispatch routes one inbound line: response, event, or unhandled.
func (c *Conn) dispatch(line []byte) error {
	if line[0] != '{' {
		return protocolErrorf("line is not a JSON object")
	}
	var msg inboundMessage
	if err := json.Unmarshal(line, &msg); err != nil {
		return protocolErrorf("malformed JSON: %v", err)
	}

	if msg.ID != nil {
		if isNull(msg.ID) {
			return protocolErrorf("response with null id: %s", errfmt.Line(line))
		}
		var id int64
		if err := json.Unmarshal(msg.ID, &id); err != nil {
			return protocolErrorf("response id %s is not an integer", errfmt.Line(msg.ID))
		}
		c.log.Debug().Int64("id", id).Bool("error", msg.Error != nil).Msg("Received response")
		return c.resolve(id, &response{Result: msg.Result, Error: msg.Error})
	}

	if msg.Method == methodEvent {
		var params eventParams
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return protocolErrorf("malformed event params: %v", err)
		}
		if params.ContextID == nil || params.Event == nil {
			return protocolErrorf("event without contextId or event")
		}
		if c.onEvent != nil {
			c.onEvent(*params.ContextID, params.Event)
		}
		return nil
	}

	c.unhandled.Add(1)
	c.log.Warn().Str("method", msg.Method).Str("line", errfmt.Line(line)).Msg("Unhandled server message")
	if c.onUnhandled != nil {
		c.onUnhandled(append([]byte(nil), line...))
	}
	return nil
}

// drainPending records the terminal error and closes all pending channels
// so blocked callers unblock. Later calls fail at registration.
func (c *Conn) drainPending(readErr error) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	c.exitErr = ErrClosed
	if readErr != nil {
		c.exitErr = readErr
	}
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// --- Wire types ---

// request is an outbound JSON-RPC 2.0 request. Field order is the wire order.
type request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int64  `json:"id"`
}

// inboundMessage is any line the server writes: a response or a notification.
// RawMessage fields stay nil when the key is absent and hold "null" when
// the key is present with a null value.
type inboundMessage struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  json.RawMessage `json:"error,omitempty"`
}

// response is the resolution handed to a pending call.
type response struct {
	Result json.RawMessage
	Error  json.RawMessage
}

func (r *response) hasError() bool {
	return !isNull(r.Error)
}

// eventParams is the params object of an "event" notification.
type eventParams struct {
	ContextID *int64          `json:"contextId"`
	Event     json.RawMessage `json:"event"`
}
