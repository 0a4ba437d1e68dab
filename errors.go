package dcrpc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmora/dcrpc/internal/errfmt"
)

// Sentinel errors for client operations.
var (
	// ErrUnavailable indicates the server binary cannot be found or started.
	ErrUnavailable = errors.New("dcrpc: server unavailable")

	// ErrNotStarted indicates the client was used before Start completed.
	ErrNotStarted = errors.New("dcrpc: client not started")

	// ErrAlreadyStarted indicates Start was called on a running or
	// closed client. A Client is single-use.
	ErrAlreadyStarted = errors.New("dcrpc: client already started")

	// ErrClosed indicates the connection is gone: Close was called, or
	// the server closed its stdout before the call was answered.
	ErrClosed = errors.New("dcrpc: connection closed")

	// ErrMixedParams indicates a call mixed positional and named
	// arguments. JSON-RPC allows exactly one encoding per request.
	ErrMixedParams = errors.New("dcrpc: mixing positional and named arguments")

	// ErrProtocol indicates the server violated the wire protocol
	// (malformed line, response for an unknown or already answered id).
	// The reader stops and the client is unusable afterwards.
	ErrProtocol = errors.New("dcrpc: protocol violation")
)

// RemoteError is returned by Call when the server answers with an error
// object. Payload holds the error value exactly as received; Code and
// Message are decoded from it when it has the usual JSON-RPC shape.
type RemoteError struct {
	Method  string
	Code    int
	Message string
	Data    json.RawMessage
	Payload json.RawMessage
}

func newRemoteError(method string, payload json.RawMessage) *RemoteError {
	e := &RemoteError{Method: method, Payload: payload}
	var obj struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data,omitempty"`
	}
	if err := json.Unmarshal(payload, &obj); err == nil {
		e.Code = obj.Code
		e.Message = obj.Message
		e.Data = obj.Data
	}
	return e
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("dcrpc: %s: remote error %d: %s", e.Method, e.Code, errfmt.Truncate(e.Message))
	}
	return fmt.Sprintf("dcrpc: %s: remote error: %s", e.Method, errfmt.Truncate(string(e.Payload)))
}

// AsRemoteError extracts a *RemoteError from an error chain.
func AsRemoteError(err error) (*RemoteError, bool) {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr, true
	}
	return nil, false
}

// protocolErrorf wraps ErrProtocol with detail about the offending line.
func protocolErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrProtocol, fmt.Sprintf(format, args...))
}
