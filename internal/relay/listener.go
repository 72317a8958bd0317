package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
)

// maxDatagramSize is the largest UDP payload.
const maxDatagramSize = 65535

// Listener receives state datagrams on a UDP socket and broadcasts each
// decoded snapshot through the hub.
type Listener struct {
	conn   net.PacketConn
	hub    *Hub
	log    *slog.Logger
	closed atomic.Bool
}

// ListenUDP binds addr. A bind failure is returned to the caller, which
// should treat it as fatal.
func ListenUDP(addr string, hub *Hub, log *slog.Logger) (*Listener, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen udp %s: %w", addr, err)
	}
	return &Listener{conn: conn, hub: hub, log: log}, nil
}

// SetReadBuffer sets the OS receive buffer. Zero keeps the OS default.
func (l *Listener) SetReadBuffer(bytes int) error {
	if bytes == 0 {
		return nil
	}
	uc, ok := l.conn.(*net.UDPConn)
	if !ok {
		return fmt.Errorf("read buffer unsupported on %T", l.conn)
	}
	return uc.SetReadBuffer(bytes)
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr { return l.conn.LocalAddr() }

// Serve reads datagrams until ctx is cancelled or Close is called, in which
// case it returns nil. Datagrams are handled one at a time in arrival order.
func (l *Listener) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = l.Close() })
	defer stop()

	l.log.Info("udp listener started", "addr", l.Addr().String())
	buf := make([]byte, maxDatagramSize)
	for {
		n, src, err := l.conn.ReadFrom(buf)
		if err != nil {
			if l.closed.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read datagram: %w", err)
		}
		l.HandleDatagram(buf[:n], src)
	}
}

// HandleDatagram decodes one payload and broadcasts it. Malformed payloads
// are logged and dropped.
func (l *Listener) HandleDatagram(b []byte, src net.Addr) {
	stats := l.hub.Stats()
	stats.datagrams.Add(1)
	snap, err := DecodeSnapshot(b)
	if err != nil {
		stats.decodeErrors.Add(1)
		l.log.Warn("error parsing udp message", "from", addrString(src), "bytes", len(b), "err", err)
		return
	}
	l.hub.Broadcast(snap)
}

// Close stops Serve and releases the socket. It is safe to call more than once.
func (l *Listener) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	return l.conn.Close()
}

func addrString(a net.Addr) string {
	if a == nil {
		return ""
	}
	return a.String()
}
