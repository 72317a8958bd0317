package relay

import (
	"sync/atomic"
	"time"
)

// Stats counts relay activity. All counters are safe for concurrent use.
type Stats struct {
	datagrams    atomic.Uint64
	decodeErrors atomic.Uint64
	broadcasts   atomic.Uint64
	deliveries   atomic.Uint64
	sendFailures atomic.Uint64
	connects     atomic.Uint64
	disconnects  atomic.Uint64
	started      time.Time
}

func newStats(now time.Time) *Stats {
	return &Stats{started: now}
}

// StatsRow is a point-in-time copy of the relay counters.
type StatsRow struct {
	Datagrams    uint64    `json:"datagrams"`
	DecodeErrors uint64    `json:"decode_errors"`
	Broadcasts   uint64    `json:"broadcasts"`
	Deliveries   uint64    `json:"deliveries"`
	SendFailures uint64    `json:"send_failures"`
	Connects     uint64    `json:"connects"`
	Disconnects  uint64    `json:"disconnects"`
	Subscribers  int       `json:"subscribers"`
	Uptime       float64   `json:"uptime_seconds"`
	Timestamp    time.Time `json:"ts"`
}

func (s *Stats) row(subscribers int, now time.Time) StatsRow {
	return StatsRow{
		Datagrams:    s.datagrams.Load(),
		DecodeErrors: s.decodeErrors.Load(),
		Broadcasts:   s.broadcasts.Load(),
		Deliveries:   s.deliveries.Load(),
		SendFailures: s.sendFailures.Load(),
		Connects:     s.connects.Load(),
		Disconnects:  s.disconnects.Load(),
		Subscribers:  subscribers,
		Uptime:       now.Sub(s.started).Seconds(),
		Timestamp:    now.UTC(),
	}
}
