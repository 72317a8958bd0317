// Package relay forwards simulation state datagrams to stream subscribers.
//
// A Listener decodes each UDP datagram into a Snapshot and hands it to the
// Hub, which fans it out to every open Subscriber. Per-message and
// per-subscriber failures are logged and contained; only bind failures are
// reported to the caller.
package relay

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SubscriberState is the lifecycle position of a subscriber.
type SubscriberState int32

const (
	StateConnecting SubscriberState = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s SubscriberState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Subscriber is one outbound stream. Send must not block.
type Subscriber interface {
	State() SubscriberState
	Send(msg []byte) error
}

// Observer receives every snapshot after it has been fanned out.
type Observer interface {
	ObserveSnapshot(s Snapshot, delivered int)
}

// Hub owns the subscriber registry and fans snapshots out to it.
type Hub struct {
	mu       sync.Mutex
	subs     map[Subscriber]struct{}
	observer Observer

	stats *Stats
	log   *slog.Logger
	now   func() time.Time
}

// NewHub creates an empty hub.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		subs:  make(map[Subscriber]struct{}),
		stats: newStats(time.Now()),
		log:   log,
		now:   time.Now,
	}
}

// SetObserver registers o to be notified after each broadcast.
func (h *Hub) SetObserver(o Observer) {
	h.mu.Lock()
	h.observer = o
	h.mu.Unlock()
}

// Register adds s to the registry. There is no capacity limit.
func (h *Hub) Register(s Subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[s]; ok {
		h.mu.Unlock()
		return
	}
	h.subs[s] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()
	h.stats.connects.Add(1)
	h.log.Info("subscriber registered", "subscriber", subscriberID(s), "subscribers", n)
}

// Unregister removes s. Removing an absent subscriber is a no-op.
func (h *Hub) Unregister(s Subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[s]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.subs, s)
	n := len(h.subs)
	h.mu.Unlock()
	h.stats.disconnects.Add(1)
	h.log.Info("subscriber unregistered", "subscriber", subscriberID(s), "subscribers", n)
}

// Len returns the number of registered subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Broadcast encodes snap once and sends it to every open subscriber.
// Failures are contained per subscriber. It returns the number of
// subscribers the message was handed to.
func (h *Hub) Broadcast(snap Snapshot) int {
	msg, err := snap.Encode()
	if err != nil {
		h.log.Warn("dropping snapshot", "err", err)
		return 0
	}
	h.stats.broadcasts.Add(1)

	delivered := 0
	for _, s := range h.members() {
		switch s.State() {
		case StateOpen:
		case StateClosed:
			h.Unregister(s)
			continue
		default:
			continue
		}
		// a subscriber may have been removed by an earlier send in this pass
		if !h.registered(s) {
			continue
		}
		if err := s.Send(msg); err != nil {
			h.stats.sendFailures.Add(1)
			h.log.Warn("subscriber send failed", "subscriber", subscriberID(s), "err", err)
			continue
		}
		delivered++
	}
	h.stats.deliveries.Add(uint64(delivered))

	h.mu.Lock()
	obs := h.observer
	h.mu.Unlock()
	if obs != nil {
		obs.ObserveSnapshot(snap, delivered)
	}
	return delivered
}

// Close closes every subscriber that supports it. Subscribers unregister
// themselves as they reach StateClosed.
func (h *Hub) Close() {
	for _, s := range h.members() {
		if c, ok := s.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				h.log.Debug("subscriber close", "subscriber", subscriberID(s), "err", err)
			}
		}
		h.Unregister(s)
	}
}

// StatsRow returns the current counters.
func (h *Hub) StatsRow() StatsRow {
	return h.stats.row(h.Len(), h.now())
}

// Stats exposes the counters shared with the listener.
func (h *Hub) Stats() *Stats { return h.stats }

func (h *Hub) members() []Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Subscriber, 0, len(h.subs))
	for s := range h.subs {
		out = append(out, s)
	}
	return out
}

func (h *Hub) registered(s Subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.subs[s]
	return ok
}

func subscriberID(s Subscriber) string {
	if id, ok := s.(interface{ ID() string }); ok {
		return id.ID()
	}
	return fmt.Sprintf("%p", s)
}
