package server

import (
	"context"
	"net"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/mittwald/mittcheck/pkg/check"
	"github.com/mittwald/mittcheck/pkg/sink"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const DefaultListen = ":9103"

// Server exposes the snapshots of a Manager over HTTP.
type Server struct {
	listenAddr string
	manager    *check.Manager
	history    sink.Sink
	gatherer   prometheus.Gatherer
	hub        *Hub

	router   *mux.Router
	upgrader websocket.Upgrader

	mu     sync.Mutex
	srv    *http.Server
	closed bool
}

type Option func(*Server)

// WithHistory serves /v1/checks/{name}/history from k.
func WithHistory(k sink.Sink) Option {
	return func(s *Server) {
		s.history = k
	}
}

// WithGatherer serves /metrics from g.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// New builds the server. listenAddr is either host:port or
// unix:///path/to/socket.
func New(listenAddr string, m *check.Manager, opts ...Option) *Server {
	if listenAddr == "" {
		listenAddr = DefaultListen
	}

	s := &Server{
		listenAddr: listenAddr,
		manager:    m,
		hub:        NewHub(),
		router:     mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.routes()
	return s
}

// Hub returns the change stream served on /v1/watch. It is meant to be
// registered as a notifier.
func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) RegisterHandler(path string, methods []string, handler func(http.ResponseWriter, *http.Request)) {
	s.router.
		Path(path).
		HandlerFunc(handler).
		Methods(methods...)
}

func (s *Server) routes() {
	s.RegisterHandler("/status", []string{http.MethodGet}, s.handleStatus)
	s.RegisterHandler("/v1/checks", []string{http.MethodGet}, s.handleChecks)
	s.RegisterHandler("/v1/watch", []string{http.MethodGet}, s.handleWatch)

	s.router.Path("/v1/checks/{name}").Handler(s.requireCheck(http.HandlerFunc(s.handleCheck))).Methods(http.MethodGet)
	s.router.Path("/v1/checks/{name}/history").Handler(s.requireCheck(http.HandlerFunc(s.handleHistory))).Methods(http.MethodGet)

	if s.gatherer != nil {
		s.router.Path("/metrics").Handler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.srv = &http.Server{
		Addr:    s.listenAddr,
		Handler: s.router,
	}
	srv := s.srv
	s.mu.Unlock()

	log.Infof("status api listens on %s", srv.Addr)
	if err := listen(srv); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.closed = true
	s.mu.Unlock()

	s.hub.Close()
	if srv == nil {
		return nil
	}

	log.Info("shutting down status api")
	return srv.Shutdown(ctx)
}

func listen(srv *http.Server) error {
	socketParts := strings.Split(srv.Addr, "unix://")
	if len(socketParts) <= 1 {
		return srv.ListenAndServe()
	}

	socketFile := socketParts[1]
	if err := os.MkdirAll(path.Dir(socketFile), 0o755); err != nil {
		return errors.Wrap(err, "failed to prepare folder for socket-file")
	}
	_ = os.Remove(socketFile)

	conn, err := net.Listen("unix", socketFile)
	if err != nil {
		return err
	}
	return srv.Serve(conn)
}
