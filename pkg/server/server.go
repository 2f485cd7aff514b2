package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"patternweb/playground/pkg/app"
	"patternweb/playground/pkg/config"
	"patternweb/playground/pkg/server/middleware"
	"patternweb/playground/pkg/telemetry/health"
	"patternweb/playground/pkg/telemetry/metrics"
	"patternweb/playground/pkg/telemetry/tracing"
)

// BuildInfo is reported by /version.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Options holds the optional collaborators of a Server.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Collector
	Tracer  *tracing.Tracer
	Build   BuildInfo
}

// Server is the HTTP front end of one playground session.
type Server struct {
	config     *config.Config
	controller *app.Controller
	checker    *health.Checker
	logger     *slog.Logger
	metrics    *metrics.Collector
	tracer     *tracing.Tracer
	build      BuildInfo

	httpServer   *http.Server
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
	addr         net.Addr
}

// New creates a server for controller.
func New(cfg *config.Config, controller *app.Controller, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	checker := health.New(5 * time.Second)
	bridge := controller.Bridge()
	checker.RegisterCheck("engine", health.ReadyFlag(bridge.Ready, bridge.InitErr))

	return &Server{
		config:     cfg,
		controller: controller,
		checker:    checker,
		logger:     logger.With("component", "server"),
		metrics:    opts.Metrics,
		tracer:     opts.Tracer,
		build:      opts.Build,
	}
}

// Start listens on the configured address and serves until ctx ends.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	ln, err := net.Listen("tcp", s.config.Server.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.Server.ListenAddress, err)
	}

	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.addr = ln.Addr()
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting playground server", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully stops the server within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		running := s.isRunning
		s.mu.Unlock()
		if !running {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.Server.ShutdownTimeout.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		s.logger.Info("playground server stopped")
	})

	return shutdownErr
}

// Addr returns the listening address once Start is running.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the routed handler with its middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("POST /api/file", s.handleFile)
	mux.HandleFunc("GET /api/source", s.handleGetSource)
	mux.HandleFunc("PUT /api/source", s.handlePutSource)
	mux.HandleFunc("POST /api/run", s.handleRun)
	mux.HandleFunc("GET /api/console", s.handleConsole)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/runs", s.handleRuns)

	health.Register(mux, s.checker, s.build.Version, s.build.Commit, s.build.BuildTime)
	if s.config.Telemetry.Metrics.Enabled && s.metrics != nil {
		mux.Handle("GET "+s.config.Telemetry.Metrics.Path, s.metrics.Handler())
	}

	return middleware.Chain(mux,
		middleware.Recovery(s.logger),
		tracing.HTTPMiddleware(s.tracer),
		middleware.RequestID,
		middleware.Session,
		middleware.Logging(s.logger),
	)
}
