package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/agbru/hypbound/internal/config"
	apperrors "github.com/agbru/hypbound/internal/errors"
	"github.com/agbru/hypbound/internal/hypgeom"
	"github.com/agbru/hypbound/internal/logging"
	"github.com/agbru/hypbound/internal/service"
)

// Server serves tail-bound requests over HTTP with graceful shutdown.
type Server struct {
	service    service.Service
	cfg        config.AppConfig
	httpServer *http.Server
	logger     logging.Logger
	timeouts   Timeouts
}

// NewServer builds a server for cfg. Unless WithService is given, requests
// go to a BoundService with cfg's iteration ceiling and cache size and the
// default limits.
func NewServer(cfg config.AppConfig, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:      cfg,
		logger:   logging.NewLogger(os.Stdout, "server", zerolog.InfoLevel),
		timeouts: DefaultServerTimeouts(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.service == nil {
		svc, err := service.NewBoundService(hypgeom.NewSolver(cfg.SolverOptions()...), cfg.CacheSize, service.DefaultLimits())
		if err != nil {
			return nil, err
		}
		s.service = svc
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/bound", s.wrap("/bound", s.handleBound))
	mux.HandleFunc("/health", s.wrap("/health", s.handleHealth))
	mux.HandleFunc("/metrics", s.wrap("/metrics", s.handleMetrics))

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  s.timeouts.ReadTimeout,
		WriteTimeout: s.timeouts.WriteTimeout,
		IdleTimeout:  s.timeouts.IdleTimeout,
	}
	return s, nil
}

// Handler returns the server's routed handler.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully within the shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening",
			logging.String("addr", ln.Addr().String()),
			logging.Int64("max_iterations", s.cfg.MaxIterations),
			logging.Int("cache_size", s.cfg.CacheSize),
		)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown requested, draining connections")
	case err, ok := <-errCh:
		if ok {
			return apperrors.NewServerError("server failed", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.timeouts.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return apperrors.NewServerError("failed to gracefully shutdown server", err)
	}
	<-errCh
	s.logger.Info("server stopped gracefully")
	return nil
}

// Start listens on the configured port and serves until SIGINT or SIGTERM.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return apperrors.NewServerError("server failed to start", err)
	}
	return s.Serve(ctx, ln)
}
