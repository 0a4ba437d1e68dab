package dcrpc

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"

	"github.com/dmora/dcrpc/internal/queue"
)

// eventDemux buffers server events per account (context id).
//
// Queues are created by the reader on the first event for an account and
// never removed. Push never blocks, so a slow consumer on one account can
// neither stall the reader nor delay another account's events.
type eventDemux struct {
	mu     sync.Mutex
	queues map[int64]*queue.Queue[json.RawMessage]
	closed bool
}

func newEventDemux() *eventDemux {
	return &eventDemux{queues: make(map[int64]*queue.Queue[json.RawMessage])}
}

// push appends event to the account's queue, creating it if needed.
func (d *eventDemux) push(contextID int64, event json.RawMessage) {
	d.mu.Lock()
	q, ok := d.queues[contextID]
	if !ok {
		q = queue.New[json.RawMessage]()
		if d.closed {
			q.Close()
		}
		d.queues[contextID] = q
	}
	d.mu.Unlock()
	q.Push(event)
}

// wait pops the next event for the account. Without a queue for the
// account it returns (nil, nil) at once: the presence of a queue, not of
// data, decides whether the caller suspends.
func (d *eventDemux) wait(ctx context.Context, contextID int64) (json.RawMessage, error) {
	d.mu.Lock()
	q, ok := d.queues[contextID]
	d.mu.Unlock()
	if !ok {
		return nil, nil
	}
	ev, err := q.Pop(ctx)
	if errors.Is(err, queue.ErrClosed) {
		return nil, ErrClosed
	}
	return ev, err
}

// buffered returns the number of events waiting for the account.
func (d *eventDemux) buffered(contextID int64) int {
	d.mu.Lock()
	q, ok := d.queues[contextID]
	d.mu.Unlock()
	if !ok {
		return 0
	}
	return q.Len()
}

// contexts returns the ids of all accounts that have received events.
func (d *eventDemux) contexts() []int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]int64, 0, len(d.queues))
	for id := range d.queues {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// close stops every queue. Buffered events stay poppable; waiters on empty
// queues get ErrClosed.
func (d *eventDemux) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for _, q := range d.queues {
		q.Close()
	}
}
