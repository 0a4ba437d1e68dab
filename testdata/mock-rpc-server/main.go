//go:build ignore

// Command mock-rpc-server simulates deltachat-rpc-server for integration
// tests. It serves these methods over stdin/stdout:
//
//	get_system_info          fixed info object
//	echo ARG...              returns its params array
//	get_env NAME             value of an environment variable
//	get_cwd                  working directory
//	sleep MS VALUE           returns VALUE after MS milliseconds
//	fail                     error {"code":-1,"message":"x"}
//	emit ACCOUNT EVENT...    emits each EVENT for ACCOUNT, returns null
//	stderr TEXT              writes TEXT to stderr
//	exit                     exits without answering
//
// MOCK_RPC_MODE controls failure modes:
//
//	MOCK_RPC_MODE=ignore-term   ignore SIGTERM (for kill-after-grace tests)
//	MOCK_RPC_MODE=garbage       write a non-JSON line at startup
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmora/dcrpc/rpctest"
)

func main() {
	switch os.Getenv("MOCK_RPC_MODE") {
	case "ignore-term":
		signal.Ignore(syscall.SIGTERM)
	case "garbage":
		fmt.Println("this is not json")
	}

	s := rpctest.NewServer()
	s.HandleResult("get_system_info", map[string]string{
		"deltachat_core_version": "mock",
		"arch":                   "test",
	})
	s.Handle("echo", func(_ context.Context, params json.RawMessage) (any, error) {
		return params, nil
	})
	s.Handle("get_env", func(_ context.Context, params json.RawMessage) (any, error) {
		var name string
		if err := rpctest.Params(params, &name); err != nil {
			return nil, err
		}
		return os.Getenv(name), nil
	})
	s.Handle("get_cwd", func(context.Context, json.RawMessage) (any, error) {
		return os.Getwd()
	})
	s.Handle("sleep", func(ctx context.Context, params json.RawMessage) (any, error) {
		var ms int
		var value any
		if err := rpctest.Params(params, &ms, &value); err != nil {
			return nil, err
		}
		select {
		case <-time.After(time.Duration(ms) * time.Millisecond):
		case <-ctx.Done():
		}
		return value, nil
	})
	s.Handle("fail", func(context.Context, json.RawMessage) (any, error) {
		return nil, &rpctest.Error{Code: -1, Message: "x"}
	})
	s.Handle("emit", func(_ context.Context, params json.RawMessage) (any, error) {
		var args []json.RawMessage
		if err := json.Unmarshal(params, &args); err != nil || len(args) == 0 {
			return nil, &rpctest.Error{Code: rpctest.CodeInvalidParams, Message: "emit ACCOUNT EVENT..."}
		}
		var account int64
		if err := json.Unmarshal(args[0], &account); err != nil {
			return nil, err
		}
		for _, ev := range args[1:] {
			if err := s.Emit(account, ev); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	s.Handle("stderr", func(_ context.Context, params json.RawMessage) (any, error) {
		var text string
		if err := rpctest.Params(params, &text); err != nil {
			return nil, err
		}
		fmt.Fprintln(os.Stderr, text)
		return nil, nil
	})
	s.Handle("exit", func(context.Context, json.RawMessage) (any, error) {
		os.Exit(0)
		return nil, nil
	})

	if err := s.ServeStdio(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "mock-rpc-server:", err)
		os.Exit(1)
	}
}
