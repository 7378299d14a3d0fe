package manhole

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

// ServiceConfig configures the standalone daemon wrapper around one Server.
type ServiceConfig struct {
	Server ServerConfig
	// AdminListenAddr serves /health, /status and /metrics; empty disables
	// the admin surface.
	AdminListenAddr string
	CorsOrigins     []string
}

func DefaultServiceConfig() ServiceConfig {
	cfg := ServiceConfig{Server: DefaultServerConfig()}
	cfg.Server.Addr = "127.0.0.1:2323"
	return cfg
}

// Service runs the console server lifecycle as a standalone process.
type Service struct {
	cfg     ServiceConfig
	seed    map[string]any
	server  *Server
	admin   *http.Server
	started time.Time
}

func NewService(cfg ServiceConfig, seed map[string]any) *Service {
	return &Service{cfg: cfg, seed: seed}
}

// Run blocks until process signal shutdown.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.RunContext(ctx)
}

// RunContext serves until ctx is done, then drains sessions and shuts the
// admin surface down.
func (s *Service) RunContext(ctx context.Context) error {
	s.started = time.Now()

	server, err := NewServer(s.cfg.Server, s.seed)
	if err != nil {
		return err
	}
	if err := server.Start(); err != nil {
		return err
	}
	s.server = server

	if addr := strings.TrimSpace(s.cfg.AdminListenAddr); addr != "" {
		s.admin = &http.Server{Addr: addr, Handler: s.adminRouter()}
		go func() {
			if err := s.admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("admin_listen_failed")
			}
		}()
		log.Info().Str("addr", addr).Msg("admin_listening")
	}

	<-ctx.Done()

	if s.admin != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.admin.Shutdown(shutdownCtx)
	}
	return server.Close()
}

// Server exposes the underlying console server to the admin surface and
// tests.
func (s *Service) Server() *Server {
	return s.server
}
