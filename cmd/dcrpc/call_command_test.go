package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/dmora/dcrpc"
)

func TestBuildCallArgs(t *testing.T) {
	args, err := buildCallArgs([]string{"1", "addr", "null", `["x"]`}, nil)
	if err != nil {
		t.Fatalf("buildCallArgs: %v", err)
	}
	data, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `[1,"addr",null,["x"]]` {
		t.Errorf("args = %s", data)
	}

	args, err = buildCallArgs(nil, []string{"key=addr", "id=2", "empty="})
	if err != nil {
		t.Fatalf("buildCallArgs named: %v", err)
	}
	if len(args) != 1 {
		t.Fatalf("named args = %v, want one Named", args)
	}
	named, ok := args[0].(dcrpc.Named)
	if !ok || named["key"] != "addr" || string(named["id"].(json.RawMessage)) != "2" || named["empty"] != "" {
		t.Errorf("named = %#v", args[0])
	}

	if _, err := buildCallArgs([]string{"1"}, []string{"a=1"}); !errors.Is(err, dcrpc.ErrMixedParams) {
		t.Errorf("mixed = %v, want ErrMixedParams", err)
	}
	if _, err := buildCallArgs(nil, []string{"novalue"}); err == nil {
		t.Error("expected error for --named without =")
	}
}

// fakeWaiter replays queued events, then reports the connection closed.
type fakeWaiter struct {
	events []json.RawMessage
	empty  int // leading calls that report no queue
}

func (f *fakeWaiter) WaitForEvent(context.Context, int64) (json.RawMessage, error) {
	if f.empty > 0 {
		f.empty--
		return nil, nil
	}
	if len(f.events) == 0 {
		return nil, dcrpc.ErrClosed
	}
	ev := f.events[0]
	f.events = f.events[1:]
	return ev, nil
}

func TestStreamEvents(t *testing.T) {
	w := &fakeWaiter{
		empty:  1,
		events: []json.RawMessage{json.RawMessage(`"a"`), json.RawMessage(`"b"`)},
	}
	var got []string
	err := streamEvents(context.Background(), w, 1, func(ev json.RawMessage) error {
		got = append(got, string(ev))
		return nil
	})
	if err != nil {
		t.Fatalf("streamEvents: %v", err)
	}
	if len(got) != 2 || got[0] != `"a"` || got[1] != `"b"` {
		t.Errorf("events = %v", got)
	}
}

func TestStreamEvents_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := streamEvents(ctx, &fakeWaiter{empty: 1}, 1, func(json.RawMessage) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("streamEvents = %v, want context.Canceled", err)
	}
}
