package rpctest

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"
)

const testTimeout = 5 * time.Second

// serverPipe runs s.Serve over io.Pipe and returns the client's ends.
type serverPipe struct {
	in  *io.PipeWriter // requests to the server
	out *bufio.Reader  // server output
	err chan error     // Serve's return value
}

func startServer(t *testing.T, s *Server) *serverPipe {
	t.Helper()
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	p := &serverPipe{in: inW, out: bufio.NewReader(outR), err: make(chan error, 1)}

	ctx, cancel := context.WithCancel(context.Background())
	go func() { p.err <- s.Serve(ctx, inR, outW) }()

	t.Cleanup(func() {
		cancel()
		inW.Close()
		outR.Close()
	})
	return p
}

func (p *serverPipe) send(t *testing.T, line string) {
	t.Helper()
	if _, err := io.WriteString(p.in, line+"\n"); err != nil {
		t.Fatalf("send: %v", err)
	}
}

func (p *serverPipe) readLine(t *testing.T) string {
	t.Helper()
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := p.out.ReadString('\n')
		ch <- result{line, err}
	}()
	select {
	case r := <-ch:
		if r.err != nil {
			t.Fatalf("readLine: %v", r.err)
		}
		return r.line[:len(r.line)-1]
	case <-time.After(testTimeout):
		t.Fatal("timeout waiting for server output")
		return ""
	}
}

func TestServer_Result(t *testing.T) {
	s := NewServer()
	s.HandleResult("get_system_info", map[string]string{"version": "test"})
	p := startServer(t, s)

	p.send(t, `{"jsonrpc":"2.0","method":"get_system_info","params":[],"id":1}`)
	want := `{"jsonrpc":"2.0","id":1,"result":{"version":"test"}}`
	if got := p.readLine(t); got != want {
		t.Errorf("response = %s, want %s", got, want)
	}

	reqs := s.Requests()
	if len(reqs) != 1 || reqs[0].Method != "get_system_info" || reqs[0].ID != 1 {
		t.Errorf("Requests = %+v", reqs)
	}
}

func TestServer_NullResult(t *testing.T) {
	s := NewServer()
	s.HandleResult("noop", nil)
	p := startServer(t, s)

	p.send(t, `{"jsonrpc":"2.0","method":"noop","params":[],"id":3}`)
	if got, want := p.readLine(t), `{"jsonrpc":"2.0","id":3,"result":null}`; got != want {
		t.Errorf("response = %s, want %s", got, want)
	}
}

func TestServer_Errors(t *testing.T) {
	s := NewServer()
	s.Handle("typed", func(context.Context, json.RawMessage) (any, error) {
		return nil, &Error{Code: -1, Message: "x"}
	})
	s.Handle("plain", func(context.Context, json.RawMessage) (any, error) {
		return nil, errors.New("boom")
	})
	p := startServer(t, s)

	tests := []struct {
		request string
		want    string
	}{
		{`{"method":"typed","params":[],"id":1}`, `{"jsonrpc":"2.0","id":1,"error":{"code":-1,"message":"x"}}`},
		{`{"method":"plain","params":[],"id":2}`, `{"jsonrpc":"2.0","id":2,"error":{"code":-32603,"message":"boom"}}`},
		{`{"method":"missing","params":[],"id":3}`, `{"jsonrpc":"2.0","id":3,"error":{"code":-32601,"message":"method not found: missing"}}`},
		{`garbage`, `{"jsonrpc":"2.0","id":null,"error":{"code":-32700,"message":"parse error"}}`},
	}
	for _, tt := range tests {
		p.send(t, tt.request)
		if got := p.readLine(t); got != tt.want {
			t.Errorf("%s: response = %s, want %s", tt.request, got, tt.want)
		}
	}
}

func TestServer_EmitAndNotify(t *testing.T) {
	s := NewServer()
	if err := s.Emit(1, "A"); !errors.Is(err, ErrNotServing) {
		t.Fatalf("Emit before Serve = %v, want ErrNotServing", err)
	}

	started := make(chan struct{})
	s.Handle("start", func(context.Context, json.RawMessage) (any, error) {
		close(started)
		return true, nil
	})
	p := startServer(t, s)
	p.send(t, `{"method":"start","params":[],"id":1}`)
	p.readLine(t)
	<-started

	errCh := make(chan error, 3)
	go func() {
		errCh <- s.Emit(7, map[string]string{"kind": "Info"})
		errCh <- s.Notify("log", []string{"hi"})
		errCh <- s.WriteLine("not json")
	}()

	wants := []string{
		`{"jsonrpc":"2.0","method":"event","params":{"contextId":7,"event":{"kind":"Info"}}}`,
		`{"jsonrpc":"2.0","method":"log","params":["hi"]}`,
		`not json`,
	}
	for _, want := range wants {
		if got := p.readLine(t); got != want {
			t.Errorf("line = %s, want %s", got, want)
		}
	}
	for range wants {
		if err := <-errCh; err != nil {
			t.Errorf("write: %v", err)
		}
	}
}

func TestServer_ConcurrentHandlers(t *testing.T) {
	s := NewServer()
	release := make(chan struct{})
	s.Handle("slow", func(ctx context.Context, _ json.RawMessage) (any, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return "slow", nil
	})
	s.HandleResult("fast", "fast")
	p := startServer(t, s)

	p.send(t, `{"method":"slow","params":[],"id":1}`)
	p.send(t, `{"method":"fast","params":[],"id":2}`)
	if got := p.readLine(t); got != `{"jsonrpc":"2.0","id":2,"result":"fast"}` {
		t.Errorf("first response = %s, want the fast one", got)
	}
	close(release)
	if got := p.readLine(t); got != `{"jsonrpc":"2.0","id":1,"result":"slow"}` {
		t.Errorf("second response = %s", got)
	}
}

func TestServer_ServeReturnsAtEOF(t *testing.T) {
	s := NewServer()
	p := startServer(t, s)
	p.in.Close()
	select {
	case err := <-p.err:
		if err != nil {
			t.Errorf("Serve = %v, want nil", err)
		}
	case <-time.After(testTimeout):
		t.Fatal("Serve did not return at EOF")
	}
}

func TestParams(t *testing.T) {
	var id int64
	var key string
	if err := Params(json.RawMessage(`[1,"addr"]`), &id, &key); err != nil {
		t.Fatalf("Params: %v", err)
	}
	if id != 1 || key != "addr" {
		t.Errorf("decoded (%d, %q), want (1, \"addr\")", id, key)
	}

	key = "unchanged"
	if err := Params(json.RawMessage(`[2]`), &id, &key); err != nil || id != 2 || key != "unchanged" {
		t.Errorf("short params: (%d, %q, %v)", id, key, err)
	}

	var rpcErr *Error
	if err := Params(json.RawMessage(`[1,2,3]`), &id); !errors.As(err, &rpcErr) || rpcErr.Code != CodeInvalidParams {
		t.Errorf("extra params = %v, want invalid params error", err)
	}
	if err := Params(json.RawMessage(`{"a":1}`), &id); !errors.As(err, &rpcErr) {
		t.Errorf("object params = %v, want invalid params error", err)
	}
}
