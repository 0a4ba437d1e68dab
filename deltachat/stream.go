package deltachat

import (
	"context"
	"errors"
	"time"

	"github.com/dmora/dcrpc"
)

// EventStream delivers an account's events on a channel.
type EventStream struct {
	events chan *Event
	err    error
}

// Events starts streaming the account's events. The stream ends when ctx
// is canceled or the connection closes. Callers must drain C or cancel ctx
// to let the stream goroutine exit.
func (a Account) Events(ctx context.Context) *EventStream {
	s := &EventStream{events: make(chan *Event)}
	go s.run(ctx, a)
	return s
}

// C returns the event channel. It is closed when the stream ends.
func (s *EventStream) C() <-chan *Event {
	return s.events
}

// Err returns why the stream ended: nil when the connection closed, the
// context error on cancellation. It is only valid once C is closed.
func (s *EventStream) Err() error {
	return s.err
}

func (s *EventStream) run(ctx context.Context, a Account) {
	defer close(s.events)
	for {
		ev, err := a.WaitForEvent(ctx)
		if err != nil {
			if !errors.Is(err, dcrpc.ErrClosed) {
				s.err = err
			}
			return
		}
		if ev == nil {
			select {
			case <-ctx.Done():
				s.err = ctx.Err()
				return
			case <-time.After(eventPollInterval):
			}
			continue
		}
		if !trySend(ctx, s.events, ev) {
			s.err = ctx.Err()
			return
		}
	}
}

// FilterEvents returns a channel that only passes events of the given
// kinds. Spawns a goroutine that exits when ctx is canceled or ch is
// closed. The returned channel is closed when the goroutine exits.
func FilterEvents(ctx context.Context, ch <-chan *Event, kinds ...EventType) <-chan *Event {
	allowed := make(map[EventType]struct{}, len(kinds))
	for _, k := range kinds {
		allowed[k] = struct{}{}
	}
	return pipe(ctx, ch, func(ev *Event) bool {
		_, ok := allowed[ev.Kind]
		return ok
	})
}

// LogEvents returns a channel that passes only Info, Warning and Error
// events.
func LogEvents(ctx context.Context, ch <-chan *Event) <-chan *Event {
	return pipe(ctx, ch, func(ev *Event) bool {
		return IsLogEvent(ev.Kind)
	})
}

// IsLogEvent reports whether k carries a core log line in Msg.
func IsLogEvent(k EventType) bool {
	switch k {
	case EventInfo, EventWarning, EventError, EventErrorSelfNotInGroup:
		return true
	}
	return false
}

// pipe passes events matching accept from ch to the returned channel and
// closes it when ch closes or ctx is canceled. Events accepted while ctx
// is being canceled may be dropped.
func pipe(ctx context.Context, ch <-chan *Event, accept func(*Event) bool) <-chan *Event {
	out := make(chan *Event)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if accept(ev) && !trySend(ctx, out, ev) {
					return
				}
			}
		}
	}()
	return out
}

// trySend sends ev on out. It returns false if ctx is canceled first.
func trySend(ctx context.Context, out chan<- *Event, ev *Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
