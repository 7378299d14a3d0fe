package manhole

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/manholectl/internal/observability"
)

var ErrNoListener = errors.New("manhole: at least one of addr or socket_path must be configured")

// ServerConfig configures one console server instance.
type ServerConfig struct {
	// Node labels this instance in logs and metrics.
	Node string
	// Addr is the TCP listen address; empty disables TCP.
	Addr string
	// SocketPath is the unix domain socket path; empty disables the socket.
	SocketPath string
	Mode       NamespaceMode
	// Threaded selects the pooled execution strategy with Timeout bounds;
	// false executes inline on the session goroutine.
	Threaded bool
	Workers  int
	Timeout  time.Duration
	Session  SessionConfig
	Backoff  BackoffConfig
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Node:    "manhole.local",
		Mode:    ModeIsolated,
		Workers: DefaultWorkerCount,
		Timeout: DefaultExecTimeout,
		Session: DefaultSessionConfig(),
		Backoff: DefaultBackoffConfig(),
	}
}

func (c ServerConfig) WithDefaults() ServerConfig {
	if strings.TrimSpace(c.Node) == "" {
		c.Node = "manhole.local"
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkerCount
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultExecTimeout
	}
	c.Session = c.Session.WithDefaults()
	if c.Backoff.InitialDelay <= 0 {
		c.Backoff = DefaultBackoffConfig()
	}
	return c
}

// Server accepts transport connections and hands each one to a new Session.
type Server struct {
	cfg      ServerConfig
	factory  *Factory
	strategy Strategy
	log      zerolog.Logger

	mu        sync.Mutex
	listeners []net.Listener
	conns     map[net.Conn]struct{}

	wg     sync.WaitGroup
	closed atomic.Bool
	active atomic.Int64
}

// NewServer validates config, builds the namespace factory, and selects the
// execution strategy. Listeners are not bound until Start.
func NewServer(cfg ServerConfig, seed map[string]any) (*Server, error) {
	cfg = cfg.WithDefaults()
	if strings.TrimSpace(cfg.Addr) == "" && strings.TrimSpace(cfg.SocketPath) == "" {
		return nil, ErrNoListener
	}
	factory, err := NewFactory(cfg.Mode, seed)
	if err != nil {
		return nil, err
	}
	var strategy Strategy = InlineStrategy{}
	if cfg.Threaded {
		strategy = NewPooledStrategy(cfg.Workers, cfg.Timeout)
	}
	return &Server{
		cfg:      cfg,
		factory:  factory,
		strategy: strategy,
		conns:    make(map[net.Conn]struct{}),
		log:      log.With().Str("node", cfg.Node).Logger(),
	}, nil
}

// Start binds the configured listeners and spawns their accept loops. A bind
// failure propagates to the caller; it is the only failure allowed out of
// startup.
func (s *Server) Start() error {
	var listeners []net.Listener
	if addr := strings.TrimSpace(s.cfg.Addr); addr != "" {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("manhole: listen tcp %s: %w", addr, err)
		}
		listeners = append(listeners, ln)
	}
	if path := strings.TrimSpace(s.cfg.SocketPath); path != "" {
		ln, err := net.Listen("unix", path)
		if err != nil {
			for _, open := range listeners {
				_ = open.Close()
			}
			return fmt.Errorf("manhole: listen unix %s: %w", path, err)
		}
		listeners = append(listeners, ln)
	}

	s.mu.Lock()
	s.listeners = listeners
	s.mu.Unlock()

	for _, ln := range listeners {
		s.log.Info().
			Str("network", ln.Addr().Network()).
			Str("addr", ln.Addr().String()).
			Str("mode", string(s.factory.Mode())).
			Bool("threaded", s.cfg.Threaded).
			Msg("manhole_listening")
		s.wg.Add(1)
		go s.acceptLoop(ln)
	}
	return nil
}

// TCPAddr returns the bound TCP address, or nil when TCP is disabled. Useful
// with an ephemeral port.
func (s *Server) TCPAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ln := range s.listeners {
		if ln.Addr().Network() == "tcp" {
			return ln.Addr()
		}
	}
	return nil
}

func (s *Server) ActiveSessions() int64 {
	return s.active.Load()
}

func (s *Server) Mode() NamespaceMode {
	return s.factory.Mode()
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()
	attempt := 0
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.closed.Load() {
				return
			}
			attempt++
			delay := NextBackoffDelay(s.cfg.Backoff, attempt, nil)
			s.log.Warn().Err(err).Dur("retry_in", delay).Msg("accept_failed")
			time.Sleep(delay)
			continue
		}
		attempt = 0
		s.track(conn)
		s.wg.Add(1)
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)

	ns, err := s.factory.Namespace()
	if err != nil {
		s.log.Error().Err(err).Msg("namespace_build_failed")
		_, _ = conn.Write([]byte("internal error: console unavailable\n"))
		_ = conn.Close()
		return
	}

	s.active.Add(1)
	observability.RecordSessionStart(s.cfg.Node)
	sess := NewSession(s.cfg.Node, conn, ns, s.strategy, s.cfg.Session)
	sess.Run()
	observability.RecordSessionEnd(s.cfg.Node)
	s.active.Add(-1)
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

// Close stops the listeners, disconnects open sessions, waits for them to
// drain, and removes the socket file.
func (s *Server) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.mu.Lock()
	for _, ln := range s.listeners {
		_ = ln.Close()
	}
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	if p, ok := s.strategy.(*PooledStrategy); ok {
		p.Close()
	}
	if path := strings.TrimSpace(s.cfg.SocketPath); path != "" {
		_ = os.Remove(path)
	}
	s.log.Info().Msg("manhole_closed")
	return nil
}
