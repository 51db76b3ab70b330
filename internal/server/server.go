package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/HerbHall/managedrecords/internal/metrics"
	"github.com/HerbHall/managedrecords/internal/plugin"
	"github.com/HerbHall/managedrecords/internal/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Server is the main records HTTP server.
type Server struct {
	httpServer *http.Server
	registry   *plugin.Registry
	logger     *zap.Logger
	mux        *http.ServeMux

	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	limiter  *rate.Limiter
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records request metrics in m and serves g on /metrics.
func WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// WithRateLimit caps the server at rps requests per second with the given
// burst. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New creates a new Server instance.
func New(addr string, reg *plugin.Registry, logger *zap.Logger, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		registry: reg,
		logger:   logger,
		mux:      mux,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.withMiddleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.registerCoreRoutes()
	s.mountPluginRoutes()

	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// registerCoreRoutes sets up routes that are always available.
func (s *Server) registerCoreRoutes() {
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/plugins", s.handlePlugins)
	if s.gatherer != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

// mountPluginRoutes registers the routes of every initialized module.
func (s *Server) mountPluginRoutes() {
	allRoutes := s.registry.AllRoutes()
	for pluginName, routes := range allRoutes {
		for _, route := range routes {
			pattern := fmt.Sprintf("%s %s", route.Method, route.Path)
			s.mux.HandleFunc(pattern, route.Handler)
			s.logger.Debug("mounted route",
				zap.String("plugin", pluginName),
				zap.String("pattern", pattern),
			)
		}
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Managed-Records-Version", version.Short())
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "managedrecords",
		"version": version.Map(),
	})
}

// handlePlugins returns the list of registered modules.
func (s *Server) handlePlugins(w http.ResponseWriter, _ *http.Request) {
	plugins := s.registry.All()
	type pluginResponse struct {
		Name    string `json:"name"`
		Version string `json:"version"`
		Enabled bool   `json:"enabled"`
	}
	info := make([]pluginResponse, 0, len(plugins))
	for _, p := range plugins {
		info = append(info, pluginResponse{
			Name:    p.Name(),
			Version: p.Version(),
			Enabled: s.registry.Enabled(p.Name()),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Managed-Records-Version", version.Short())
	_ = json.NewEncoder(w).Encode(info)
}
