// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	handler "github.com/quantmath/quantmath/internal/api/handler/api"
	"github.com/quantmath/quantmath/internal/api/middleware"
	"github.com/quantmath/quantmath/internal/api/response"
	"github.com/quantmath/quantmath/internal/metrics"
	"go.uber.org/zap"
)

// ServiceName is reported by the status endpoint.
const ServiceName = "QuantMath Financial API"

// Server represents the HTTP server for QuantMath
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	handler    http.Handler
	cfg        Config
	deps       Dependencies
}

// Config holds server configuration
type Config struct {
	Host         string
	Port         int
	APIKey       string
	Version      string
	MaxBodyBytes int64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MetricsPath  string // empty disables /metrics
	CORSOrigins  []string

	// DefaultSource is the collector used when a symbol request names none.
	DefaultSource string
}

// Dependencies are the collaborators the routes serve.
type Dependencies struct {
	Analyzer   handler.Analyzer
	Collectors handler.Fetcher   // optional, enables the symbol route
	Metrics    *metrics.Registry // optional
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.Analyzer == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 15 * time.Second
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	s := &Server{
		logger: logger,
		mux:    http.NewServeMux(),
		cfg:    cfg,
		deps:   deps,
	}

	s.setupRoutes()
	s.handler = s.wrap(s.mux)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	analyze := handler.NewAnalyzeHandler(s.deps.Analyzer, s.cfg.MaxBodyBytes, s.logger)
	auth := middleware.APIKeyAuth(s.cfg.APIKey)

	s.mux.HandleFunc("GET /{$}", s.handleStatus)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	s.mux.Handle("POST /analyze", auth(http.HandlerFunc(analyze.Analyze)))
	s.mux.Handle("POST /api/v1/analyze", auth(http.HandlerFunc(analyze.AnalyzeV1)))
	s.mux.Handle("POST /api/v1/indicators", auth(http.HandlerFunc(analyze.Series)))

	if s.deps.Collectors != nil {
		symbols := handler.NewSymbolHandler(s.deps.Analyzer, s.deps.Collectors, s.cfg.DefaultSource, s.logger)
		s.mux.Handle("GET /api/v1/symbols/{symbol}/analysis", auth(http.HandlerFunc(symbols.Analysis)))
	}

	if s.deps.Metrics != nil && s.cfg.MetricsPath != "" {
		s.mux.Handle("GET "+s.cfg.MetricsPath,
			promhttp.HandlerFor(s.deps.Metrics, promhttp.HandlerOpts{Registry: s.deps.Metrics}))
	}
}

// wrap applies the cross-cutting middleware, outermost first:
// access log, metrics, CORS.
func (s *Server) wrap(h http.Handler) http.Handler {
	h = middleware.CORS(s.cfg.CORSOrigins...)(h)
	if s.deps.Metrics != nil {
		h = metrics.HTTPMiddleware(s.deps.Metrics, s.routes()...)(h)
	}
	return metrics.LoggingMiddleware(s.logger)(h)
}

func (s *Server) routes() []string {
	paths := []string{"/", "/api/health", "/analyze", "/api/v1/analyze", "/api/v1/indicators"}
	if s.cfg.MetricsPath != "" {
		paths = append(paths, s.cfg.MetricsPath)
	}
	return paths
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	response.Raw(w, http.StatusOK, map[string]string{
		"status":  "Active",
		"service": ServiceName,
		"version": s.cfg.Version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.Raw(w, http.StatusOK, map[string]string{"status": "ok"})
}
