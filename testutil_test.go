package dcrpc

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeChild stands in for the server process. Terminating it hangs up the
// peer's pipes unless ignoreTerm is set; killing it always does.
type fakeChild struct {
	peer       *testPeer
	ignoreTerm bool

	mu         sync.Mutex
	terminated int
	killed     int
	waited     int
}

func (f *fakeChild) pid() int { return 4242 }

func (f *fakeChild) terminate() error {
	f.mu.Lock()
	f.terminated++
	f.mu.Unlock()
	if !f.ignoreTerm {
		f.peer.hangUp()
	}
	return nil
}

func (f *fakeChild) kill() error {
	f.mu.Lock()
	f.killed++
	f.mu.Unlock()
	f.peer.hangUp()
	return nil
}

func (f *fakeChild) wait() error {
	f.mu.Lock()
	f.waited++
	f.mu.Unlock()
	return nil
}

func (f *fakeChild) counts() (terminated, killed, waited int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.terminated, f.killed, f.waited
}

// newTestClient returns a running Client attached to a fake child.
func newTestClient(t *testing.T, ignoreTerm bool, opts ...Option) (*Client, *testPeer, *fakeChild) {
	t.Helper()
	r, w, peer := newTestPeer(t)
	proc := &fakeChild{peer: peer, ignoreTerm: ignoreTerm}

	c := New(opts...)
	c.mu.Lock()
	c.attach(proc, r, w)
	c.mu.Unlock()
	t.Cleanup(func() { _ = c.Close() })
	return c, peer, proc
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	t.Cleanup(cancel)
	return ctx
}

// waitForCondition polls cond until it holds or the test times out.
func waitForCondition(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(testTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for condition")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
