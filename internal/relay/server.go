package relay

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

const shutdownTimeout = 5 * time.Second

//go:embed static/index.html
var content embed.FS

// Server serves the front-end assets, the stats endpoint and WebSocket
// subscribers on one HTTP port.
type Server struct {
	Hub      *Hub
	queue    int
	static   http.Handler
	upgrader websocket.Upgrader
	log      *slog.Logger
}

// NewServer creates a server. When staticDir does not exist an embedded
// placeholder page is served instead.
func NewServer(hub *Hub, staticDir string, queue int, log *slog.Logger) *Server {
	return &Server{
		Hub:    hub,
		queue:  queue,
		static: staticHandler(staticDir, log),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log,
	}
}

func staticHandler(dir string, log *slog.Logger) http.Handler {
	if dir != "" {
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			log.Info("serving static assets", "dir", dir)
			return http.FileServer(http.Dir(dir))
		}
		log.Warn("static directory not found, serving placeholder page", "dir", dir)
	}
	sub, _ := fs.Sub(content, "static")
	return http.FileServer(http.FS(sub))
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/", s.handleRoot)
	return mux
}

// Start listens on addr and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts the HTTP server
// down and closes every subscriber.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.log.Info("http server started", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		s.Hub.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	// hijacked WebSocket connections are not tracked by Shutdown
	s.Hub.Close()
	if serveErr := <-errc; serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}
	return err
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		s.handleWS(w, r)
		return
	}
	s.static.ServeHTTP(w, r)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	sub := newWSSubscriber(conn, s.Hub, s.queue, s.log)
	s.Hub.Register(sub)
	sub.start()
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.Hub.StatsRow())
}
