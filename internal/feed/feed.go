// Package feed sends game state datagrams to a relay ingress port. It backs
// the demo and replay commands.
package feed

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"rocketsim-relay/internal/telemetry"
)

// DatagramWriter delivers one payload per call.
type DatagramWriter interface {
	WriteDatagram(b []byte) error
}

// UDPSender writes datagrams to a fixed target.
type UDPSender struct {
	conn net.Conn
}

// NewUDPSender dials target ("host:port").
func NewUDPSender(target string) (*UDPSender, error) {
	conn, err := net.Dial("udp", target)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	return &UDPSender{conn: conn}, nil
}

// WriteDatagram sends b as a single datagram.
func (s *UDPSender) WriteDatagram(b []byte) error {
	_, err := s.conn.Write(b)
	return err
}

// Close releases the socket.
func (s *UDPSender) Close() error { return s.conn.Close() }

// RunDemo sends one generated state every 1/rate seconds until ctx is done.
// It returns the number of datagrams sent.
func RunDemo(ctx context.Context, gen *telemetry.Generator, w DatagramWriter, rate float64, log *slog.Logger) (int, error) {
	if rate <= 0 {
		return 0, fmt.Errorf("rate must be positive, got %v", rate)
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / rate))
	defer ticker.Stop()

	sent := 0
	for {
		select {
		case <-ctx.Done():
			return sent, nil
		case now := <-ticker.C:
			data, err := json.Marshal(gen.Generate(now))
			if err != nil {
				return sent, err
			}
			if err := w.WriteDatagram(data); err != nil {
				// the relay may not be up yet
				log.Debug("send failed", "err", err)
				continue
			}
			sent++
		}
	}
}

// ReplayLog sends each non-blank line of r as one datagram, waiting
// interval/speed between lines. A speed <= 0 or a zero interval sends
// without delay. Lines are forwarded verbatim so captures with malformed
// entries replay faithfully.
func ReplayLog(ctx context.Context, r io.Reader, w DatagramWriter, interval time.Duration, speed float64) (int, error) {
	delay := time.Duration(0)
	if speed > 0 && interval > 0 {
		delay = time.Duration(float64(interval) / speed)
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 65535)
	sent := 0
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if sent > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				return sent, nil
			case <-time.After(delay):
			}
		}
		if err := w.WriteDatagram(line); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, sc.Err()
}

// ReplayLogFile opens a capture file and replays it.
func ReplayLogFile(ctx context.Context, path string, w DatagramWriter, interval time.Duration, speed float64) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return ReplayLog(ctx, f, w, interval, speed)
}
