package relay

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	// ErrQueueFull is returned when a subscriber cannot keep up. The
	// subscriber is closed when this happens.
	ErrQueueFull = errors.New("subscriber send queue full")
	// ErrSubscriberClosed is returned by Send after the subscriber left StateOpen.
	ErrSubscriberClosed = errors.New("subscriber closed")
)

const (
	writeWait      = 10 * time.Second
	maxClientFrame = 4096
)

// wsSubscriber is a WebSocket client. Writes happen on one goroutine fed by
// the send queue; a second goroutine reads to notice disconnects.
type wsSubscriber struct {
	id    string
	conn  *websocket.Conn
	hub   *Hub
	log   *slog.Logger
	send  chan []byte
	done  chan struct{}
	state atomic.Int32
	once  sync.Once
}

func newWSSubscriber(conn *websocket.Conn, hub *Hub, queue int, log *slog.Logger) *wsSubscriber {
	id := uuid.NewString()
	s := &wsSubscriber{
		id:   id,
		conn: conn,
		hub:  hub,
		log:  log.With("subscriber", id, "remote", conn.RemoteAddr().String()),
		send: make(chan []byte, queue),
		done: make(chan struct{}),
	}
	s.state.Store(int32(StateConnecting))
	return s
}

func (s *wsSubscriber) ID() string { return s.id }

func (s *wsSubscriber) State() SubscriberState { return SubscriberState(s.state.Load()) }

// Send queues msg without blocking. A full queue closes the subscriber.
func (s *wsSubscriber) Send(msg []byte) error {
	if s.State() != StateOpen {
		return ErrSubscriberClosed
	}
	select {
	case s.send <- msg:
		return nil
	case <-s.done:
		return ErrSubscriberClosed
	default:
		s.finish(ErrQueueFull)
		return ErrQueueFull
	}
}

// Close sends a going-away frame and tears the connection down.
func (s *wsSubscriber) Close() error {
	if s.State() >= StateClosing {
		return nil
	}
	err := s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
		time.Now().Add(writeWait))
	s.finish(nil)
	return err
}

// start opens the subscriber and runs its pumps.
func (s *wsSubscriber) start() {
	s.state.CompareAndSwap(int32(StateConnecting), int32(StateOpen))
	s.log.Info("client connected")
	go s.writePump()
	go s.readPump()
}

func (s *wsSubscriber) writePump() {
	for {
		select {
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.finish(err)
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *wsSubscriber) readPump() {
	s.conn.SetReadLimit(maxClientFrame)
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				err = nil
			}
			s.finish(err)
			return
		}
	}
}

// finish moves the subscriber to StateClosed and removes it from the hub.
// Only the first call has an effect.
func (s *wsSubscriber) finish(cause error) {
	s.once.Do(func() {
		s.state.Store(int32(StateClosing))
		close(s.done)
		_ = s.conn.Close()
		s.state.Store(int32(StateClosed))
		s.hub.Unregister(s)
		if cause != nil {
			s.log.Warn("websocket error", "err", cause)
			return
		}
		s.log.Info("client disconnected")
	})
}
