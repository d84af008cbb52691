package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"attendx/internal/config"
	apperrors "attendx/internal/errors"
	"attendx/internal/infrastructure"
	customMiddleware "attendx/internal/middleware"
	"attendx/internal/services"
)

// RouterDeps are the collaborators of the status router.
type RouterDeps struct {
	Config    config.StatusConfig
	Health    *services.HealthService
	Summary   SummaryServiceInterface
	Providers *infrastructure.OTelProviders
	Logger    *slog.Logger
}

// NewRouter builds the read-only status router.
//
// Middleware order: RequestID, OTel, logger, recoverer, rate limit.
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	errorHandler := apperrors.NewErrorHandler(logger)

	r := chi.NewRouter()
	r.Use(customMiddleware.RequestID)
	if deps.Providers != nil {
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(deps.Providers)
		if err != nil {
			logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}
	}
	r.Use(customMiddleware.StructuredLogger(logger))
	r.Use(errorHandler.Recoverer)
	if deps.Config.RateLimit > 0 {
		r.Use(customMiddleware.NewRateLimiter(deps.Config.RateLimit, deps.Config.RateBurst, logger).Handler)
	}

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	health := NewHealthHandler(deps.Health, logger)
	health.Register(r)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/version", health.Version)
		NewSummaryHandler(deps.Summary, logger).Register(r)
	})

	if deps.Providers != nil && deps.Providers.PrometheusHTTP != nil {
		r.Handle("/metrics", deps.Providers.PrometheusHTTP)
	}
	return r
}

// Server is the status HTTP server.
type Server struct {
	server          *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// NewServer wraps handler in an http.Server configured from cfg.
func NewServer(cfg config.StatusConfig, handler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		server: &http.Server{
			Addr:              cfg.Address,
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.ReadTimeout,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger.With(slog.String("component", "status_server")),
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully within the shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "Status server listening", slog.String("address", ln.Addr().String()))
		errCh <- s.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("status server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.logger.InfoContext(ctx, "Status server stopped")
	return nil
}
