package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"retaildq/internal/config"
	"retaildq/internal/infrastructure"
	"retaildq/internal/report"
)

// Server is the dashboard HTTP server exposing the stored quality
// reports, alerts and Prometheus metrics.
type Server struct {
	cfg     config.ServerConfig
	logger  *slog.Logger
	httpSrv *http.Server
}

// NewServer wires the router and handlers. metricsHandler may be nil,
// in which case /metrics is not mounted.
func NewServer(cfg config.ServerConfig, store *report.Store, metrics *infrastructure.PipelineMetrics, metricsHandler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "dashboard"))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(StructuredLogger(logger))
	r.Use(Recoverer(logger))
	r.Use(MetricsMiddleware(metrics))
	if cfg.RateLimit.Enabled {
		r.Use(NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, logger).Handler)
	}

	reportsHandler := NewReportsHandler(store, logger)
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Mount("/reports", reportsHandler.Routes())
		r.Get("/alerts", reportsHandler.Alerts)
	})

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		render.JSON(w, req, map[string]string{"status": "ok"})
	})
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	return &Server{
		cfg:    cfg,
		logger: logger,
		httpSrv: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Start serves until the context is cancelled, then shuts down
// gracefully within the configured timeout.
func (s *Server) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Dashboard listening", slog.String("addr", s.httpSrv.Addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		s.logger.Info("Dashboard shutting down")
		return s.httpSrv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if err != nil && err != context.Canceled {
		return err
	}
	return nil
}
