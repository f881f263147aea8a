// Package server wires the HTTP API, the foreground stream and the root
// registry into one process.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/workerview/internal/api/http"
	"github.com/GriffinCanCode/workerview/internal/api/middleware"
	"github.com/GriffinCanCode/workerview/internal/api/ws"
	"github.com/GriffinCanCode/workerview/internal/domain/apps"
	"github.com/GriffinCanCode/workerview/internal/domain/root"
	"github.com/GriffinCanCode/workerview/internal/infrastructure/config"
	"github.com/GriffinCanCode/workerview/internal/infrastructure/logging"
	"github.com/GriffinCanCode/workerview/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/workerview/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/workerview/internal/sandbox"
)

// StreamPath is where foregrounds open their WebSocket
const StreamPath = "/stream"

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	roots   *root.Manager
	stream  *ws.Handler
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer

	cancelStream context.CancelFunc
}

// Factory builds the root factory described by cfg
func Factory(cfg *config.Config, logger *logging.Logger) apps.Factory {
	sb := sandbox.DefaultConfig()
	sb.Timeout = cfg.Worker.ScriptTimeout
	return apps.Factory{
		App:      cfg.Worker.App,
		Interval: cfg.Worker.TickInterval,
		Script:   cfg.Worker.Script,
		Sandbox:  sb,
		Logger:   logger,
	}
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.FromLevel(cfg.Logging.Level, cfg.Logging.Development)
	}

	logger.Info("Initializing workerview server",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("app", cfg.Worker.App),
	)

	factory := Factory(cfg, logger)
	if err := factory.Validate(); err != nil {
		return nil, fmt.Errorf("invalid worker config: %w", err)
	}
	// load scripts once so a broken file fails at startup, not per connection
	if _, err := factory.New(); err != nil {
		return nil, fmt.Errorf("failed to build root: %w", err)
	}

	metrics := monitoring.NewMetrics()
	roots := root.NewManager().WithMetrics(metrics)

	streamCtx, cancel := context.WithCancel(context.Background())
	stream := ws.NewHandler(roots, factory, metrics, logger).
		WithOrigins(cfg.Server.AllowOrigins).
		WithContext(streamCtx)

	handlers, err := apihttp.NewHandlers(roots, metrics, logger, cfg.Worker.App)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create handlers: %w", err)
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	tracer := tracing.New("workerview", logger)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig().WithOrigins(cfg.Server.AllowOrigins)))

	handlers.Register(router)

	streamGroup := router.Group("")
	if cfg.RateLimit.Enabled {
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		streamGroup.Use(middleware.RateLimit(rl))
		logger.Info("Rate limiting enabled",
			zap.Int("rps", rl.RequestsPerSecond),
			zap.Int("burst", rl.Burst))
	}
	streamGroup.GET(StreamPath, stream.HandleConnection)

	logger.Info("Server initialized successfully")

	return &Server{
		router:       router,
		roots:        roots,
		stream:       stream,
		logger:       logger,
		config:       cfg,
		metrics:      metrics,
		tracer:       tracer,
		cancelStream: cancel,
	}, nil
}

// Router exposes the gin engine, mainly for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Roots returns the live root registry
func (s *Server) Roots() *root.Manager {
	return s.roots
}

// Run listens on the configured address and serves until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully:
// stop accepting, stop every worker, wait for them to unmount.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		s.cancelStream()
		s.stream.Wait()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	s.cancelStream()
	s.stream.Wait()
	s.logger.Info("Server stopped", zap.Int("roots_started", s.roots.Stats().Started))

	if err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

// Close stops every worker, flushes pending spans and syncs the logger
func (s *Server) Close() error {
	s.cancelStream()
	s.stream.Wait()
	s.tracer.Close()
	_ = s.logger.Sync()
	return nil
}
