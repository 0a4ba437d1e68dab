package rpctest_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/dmora/dcrpc"
	"github.com/dmora/dcrpc/rpctest"
)

// TestHelperProcess is the server side of TestHelperOptions. It only runs
// inside the child process.
func TestHelperProcess(t *testing.T) {
	if !rpctest.IsHelperProcess() {
		t.Skip("helper process only")
	}
	s := rpctest.NewServer()
	s.Handle("get_env", func(_ context.Context, params json.RawMessage) (any, error) {
		var name string
		if err := rpctest.Params(params, &name); err != nil {
			return nil, err
		}
		return os.Getenv(name), nil
	})
	s.Handle("add_account", func(context.Context, json.RawMessage) (any, error) {
		if err := s.Emit(1, map[string]string{"kind": "AccountsChanged"}); err != nil {
			return nil, err
		}
		return 1, nil
	})
	_ = s.ServeStdio(context.Background())
	os.Exit(0)
}

func TestHelperOptions(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := rpctest.HelperOptions("TestHelperProcess", "RPCTEST_MARKER=present")
	err := dcrpc.Run(ctx, func(c *dcrpc.Client) error {
		var marker string
		if err := c.CallInto(ctx, &marker, "get_env", "RPCTEST_MARKER"); err != nil {
			return err
		}
		if marker != "present" {
			t.Errorf("RPCTEST_MARKER = %q, want %q", marker, "present")
		}

		var id int64
		if err := c.CallInto(ctx, &id, "add_account"); err != nil {
			return err
		}
		ev, err := c.WaitForEvent(ctx, id)
		if err != nil {
			return err
		}
		if string(ev) != `{"kind":"AccountsChanged"}` {
			t.Errorf("event = %s", ev)
		}
		return nil
	}, opts...)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
}
