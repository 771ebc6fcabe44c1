// Package livetest provides an in-process live server for tests and the
// `live serve` command.
//
// The server upgrades connections on its socket path, decodes everything
// clients send and lets the caller push commands:
//
//	srv := livetest.New()
//	ts := httptest.NewServer(srv.Handler())
//	defer ts.Close()
//
//	c, _ := srv.WaitClient(ctx)
//	_ = c.Send(&protocol.Update{ID: "my", HTML: "<p>hi</p>"})
//	reply, _ := c.Call(ctx, &protocol.Script{ID: "my", Source: "return 1"})
package livetest

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vango-dev/live/pkg/protocol"
)

// DefaultPath is the socket path clients connect to.
const DefaultPath = "/live"

// Server accepts live clients.
type Server struct {
	path      string
	logger    *slog.Logger
	gatherer  prometheus.Gatherer
	onConnect func(*Client)
	upgrader  websocket.Upgrader

	mu        sync.RWMutex
	clients   map[*Client]struct{}
	connected chan *Client
	closed    bool
}

// Option configures a Server.
type Option func(*Server)

// WithPath sets the socket path. Default: "/live".
func WithPath(path string) Option {
	return func(s *Server) {
		s.path = path
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer exposes g on /metrics. Default: prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// OnConnect runs fn in the connection's goroutine for every new client,
// before its messages are read.
func OnConnect(fn func(*Client)) Option {
	return func(s *Server) {
		s.onConnect = fn
	}
}

// New creates a Server.
func New(opts ...Option) *Server {
	s := &Server{
		path:      DefaultPath,
		gatherer:  prometheus.DefaultGatherer,
		clients:   make(map[*Client]struct{}),
		connected: make(chan *Client, 64),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// Handler returns the router serving the socket path, /healthz and
// /metrics.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get(s.path, s.HandleWebSocket)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

// HandleWebSocket upgrades the request and serves the client until it
// disconnects.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(protocol.MaxMessageSize)

	c := newClient(conn, s.logger.With("remote", r.RemoteAddr))

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	s.logger.Info("client connected", "remote", r.RemoteAddr)
	select {
	case s.connected <- c:
	default:
	}
	if s.onConnect != nil {
		s.onConnect(c)
	}

	c.readLoop()

	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.Close()
	s.logger.Info("client disconnected", "remote", r.RemoteAddr)
}

// WaitClient returns the next client to connect.
func (s *Server) WaitClient(ctx context.Context) (*Client, error) {
	select {
	case c := <-s.connected:
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Clients returns the connected clients.
func (s *Server) Clients() []*Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clients := make([]*Client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	return clients
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast sends cmd to every client. Clients that fail to receive it are
// closed.
func (s *Server) Broadcast(cmd protocol.Command) error {
	data, err := protocol.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	for _, c := range s.Clients() {
		if err := c.SendRaw(data); err != nil {
			s.logger.Warn("broadcast failed", "error", err)
			c.Close()
		}
	}
	return nil
}

// Close closes all client connections. Later upgrades are refused.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	clients := make([]*Client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}
