package relay

import (
	"sync"
	"testing"
	"time"

	"rocketsim-relay/internal/logging"
)

type fakeSub struct {
	name   string
	mu     sync.Mutex
	state  SubscriberState
	msgs   []string
	err    error
	onSend func(*fakeSub)
	closed bool
}

func newFakeSub(name string) *fakeSub {
	return &fakeSub{name: name, state: StateOpen}
}

func (f *fakeSub) ID() string { return f.name }

func (f *fakeSub) State() SubscriberState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSub) setState(s SubscriberState) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

func (f *fakeSub) Send(msg []byte) error {
	if f.onSend != nil {
		f.onSend(f)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, string(msg))
	return nil
}

func (f *fakeSub) Close() error {
	f.mu.Lock()
	f.closed = true
	f.state = StateClosed
	f.mu.Unlock()
	return nil
}

func (f *fakeSub) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.msgs))
	copy(out, f.msgs)
	return out
}

func newTestHub() *Hub {
	return NewHub(logging.Discard())
}

func mustSnapshot(t *testing.T, s string) Snapshot {
	t.Helper()
	snap, err := DecodeSnapshot([]byte(s))
	if err != nil {
		t.Fatalf("DecodeSnapshot(%q): %v", s, err)
	}
	return snap
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func openCount(h *Hub) int {
	n := 0
	for _, s := range h.members() {
		if s.State() == StateOpen {
			n++
		}
	}
	return n
}
