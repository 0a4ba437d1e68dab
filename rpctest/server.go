package rpctest

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

	"github.com/rs/zerolog"
)

// Standard JSON-RPC 2.0 error codes used by the Server.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// ErrNotServing is returned by Emit and Notify before Serve has started.
var ErrNotServing = errors.New("rpctest: server not serving")

// HandlerFunc answers one request. Returning an *Error sends that error
// object; any other error is sent as an internal error with its text.
type HandlerFunc func(ctx context.Context, params json.RawMessage) (any, error)

// Error is a JSON-RPC error object returned by a handler.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpctest: error %d: %s", e.Code, e.Message)
}

// Request is a request as received by the Server.
type Request struct {
	Method string
	Params json.RawMessage
	ID     int64
}

// Server is a fake JSON-RPC server. Handlers run concurrently, one
// goroutine per request, so responses go out in completion order.
type Server struct {
	log zerolog.Logger

	mu       sync.Mutex
	handlers map[string]HandlerFunc
	requests []Request

	wmu sync.Mutex // serializes writes
	w   io.Writer
	enc *json.Encoder
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the Server's logger. The default discards everything.
func WithLogger(l zerolog.Logger) ServerOption {
	return func(s *Server) { s.log = l }
}

// NewServer creates a Server with no handlers.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		log:      zerolog.Nop(),
		handlers: make(map[string]HandlerFunc),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handle registers h for method, replacing any previous handler.
func (s *Server) Handle(method string, h HandlerFunc) {
	s.mu.Lock()
	s.handlers[method] = h
	s.mu.Unlock()
}

// HandleResult registers a handler that always returns result.
func (s *Server) HandleResult(method string, result any) {
	s.Handle(method, func(context.Context, json.RawMessage) (any, error) {
		return result, nil
	})
}

// Requests returns the requests received so far, in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// ServeStdio serves on the process's stdin and stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads requests from r and writes responses to w until r reaches
// EOF or ctx is done. In-flight handlers are waited for before Serve
// returns. ctx is passed to every handler.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	s.wmu.Lock()
	s.w, s.enc = w, enc
	s.wmu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	defer wg.Wait()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64<<20)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var req struct {
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
			ID     *int64          `json:"id"`
		}
		if err := json.Unmarshal(line, &req); err != nil || req.ID == nil {
			s.log.Warn().Str("line", string(line)).Msg("Dropping malformed request")
			if err := s.write(errorResponse{JSONRPC: "2.0", Error: &Error{Code: CodeParseError, Message: "parse error"}}); err != nil {
				return err
			}
			continue
		}

		request := Request{Method: req.Method, Params: req.Params, ID: *req.ID}
		s.mu.Lock()
		s.requests = append(s.requests, request)
		h := s.handlers[req.Method]
		s.mu.Unlock()

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.answer(ctx, request, h)
		}()

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return scanner.Err()
}

// answer runs the handler for req and writes its response.
func (s *Server) answer(ctx context.Context, req Request, h HandlerFunc) {
	id := req.ID
	if h == nil {
		s.log.Debug().Str("method", req.Method).Msg("Method not found")
		_ = s.write(errorResponse{JSONRPC: "2.0", ID: &id, Error: &Error{Code: CodeMethodNotFound, Message: "method not found: " + req.Method}})
		return
	}

	result, err := h(ctx, req.Params)
	if err != nil {
		var rpcErr *Error
		if !errors.As(err, &rpcErr) {
			rpcErr = &Error{Code: CodeInternalError, Message: err.Error()}
		}
		_ = s.write(errorResponse{JSONRPC: "2.0", ID: &id, Error: rpcErr})
		return
	}
	if err := s.write(resultResponse{JSONRPC: "2.0", ID: id, Result: result}); err != nil {
		s.log.Warn().Err(err).Int64("id", id).Msg("Writing response failed")
	}
}

// Emit sends an event notification for the account. event is encoded as
// the notification's params.event value.
func (s *Server) Emit(contextID int64, event any) error {
	return s.Notify("event", map[string]any{"contextId": contextID, "event": event})
}

// Notify sends an arbitrary notification.
func (s *Server) Notify(method string, params any) error {
	return s.write(notification{JSONRPC: "2.0", Method: method, Params: params})
}

// WriteLine writes line verbatim followed by a newline, for feeding a
// client malformed or unexpected output.
func (s *Server) WriteLine(line string) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if s.w == nil {
		return ErrNotServing
	}
	_, err := io.WriteString(s.w, line+"\n")
	return err
}

func (s *Server) write(v any) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if s.enc == nil {
		return ErrNotServing
	}
	return s.enc.Encode(v)
}

// --- Wire types ---

type resultResponse struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Result  any    `json:"result"`
}

type errorResponse struct {
	JSONRPC string `json:"jsonrpc"`
	ID      *int64 `json:"id"`
	Error   *Error `json:"error"`
}

type notification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}
