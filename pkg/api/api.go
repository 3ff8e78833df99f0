// pkg/api/api.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/valpere/SocialScrapexter/internal/config"
	scrapeerrors "github.com/valpere/SocialScrapexter/internal/errors"
	"github.com/valpere/SocialScrapexter/internal/extractor"
	"github.com/valpere/SocialScrapexter/internal/monitoring"
	"github.com/valpere/SocialScrapexter/internal/utils"
)

// maxBodyBytes bounds request bodies; a metrics request is two short strings.
const maxBodyBytes = 64 << 10

// Server exposes the metrics service over HTTP.
type Server struct {
	service MetricsService
	history HistoryStore
	health  *monitoring.HealthManager
	metrics *monitoring.MetricsManager
	limiter *rate.Limiter
	logger  utils.Logger

	corsOrigins []string
	metricsPath string

	handler http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithHistory enables the snapshot history endpoint.
func WithHistory(h HistoryStore) Option { return func(s *Server) { s.history = h } }

// WithHealth serves /health, /ready and /live from a health manager.
func WithHealth(h *monitoring.HealthManager) Option { return func(s *Server) { s.health = h } }

// WithMetrics records request metrics and serves them at path.
func WithMetrics(m *monitoring.MetricsManager, path string) Option {
	return func(s *Server) {
		s.metrics = m
		s.metricsPath = path
	}
}

// WithRateLimit limits API requests to perSecond with the given burst.
// A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithCORSOrigins restricts CORS to the given origins. Without it every
// origin is allowed.
func WithCORSOrigins(origins []string) Option { return func(s *Server) { s.corsOrigins = origins } }

// WithLogger sets the request logger.
func WithLogger(l utils.Logger) Option { return func(s *Server) { s.logger = l } }

// NewServer creates the HTTP API around a metrics service.
func NewServer(service MetricsService, opts ...Option) *Server {
	s := &Server{
		service:     service,
		logger:      utils.NewComponentLogger("api"),
		metricsPath: "/metrics",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.corsMiddleware(s.routes())
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.recoveryMiddleware, s.requestIDMiddleware, s.loggingMiddleware)

	if s.health != nil {
		r.HandleFunc("/health", s.health.HealthHandler()).Methods(http.MethodGet)
		r.HandleFunc("/ready", s.health.ReadinessHandler()).Methods(http.MethodGet)
		r.HandleFunc("/live", s.health.LivenessHandler()).Methods(http.MethodGet)
	} else {
		r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	}
	if s.metrics != nil {
		r.Handle(s.metricsPath, s.metrics.MetricsHandler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/social").Subrouter()
	api.Use(s.rateLimitMiddleware)
	api.HandleFunc("/metrics", s.handleGetMetrics).Methods(http.MethodPost)
	api.HandleFunc("/metrics/history", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/platforms", s.handlePlatforms).Methods(http.MethodGet)

	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on cfg.Address until ctx is done, then shuts down
// gracefully within cfg.ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           s,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("listening on %s", cfg.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return <-errCh
}

func (s *Server) handleGetMetrics(w http.ResponseWriter, r *http.Request) {
	var req MetricsRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	result, err := s.service.GetMetrics(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	status := scrapeerrors.HTTPStatus(err)

	var ve *scrapeerrors.ValidationError
	if errors.As(err, &ve) {
		writeError(w, status, ve.Message)
		return
	}
	writeError(w, status, "Failed to fetch social metrics: "+err.Error())
}

func (s *Server) handlePlatforms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PlatformsResponse{Platforms: s.service.Platforms()})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "Snapshot history is not enabled")
		return
	}

	q := r.URL.Query()
	platform := extractor.NormalizePlatform(q.Get("platform"))
	if platform == "" {
		writeError(w, http.StatusBadRequest, "platform is required")
		return
	}
	if !s.supports(platform) {
		writeError(w, http.StatusBadRequest, "Unsupported platform")
		return
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	url := strings.TrimSpace(q.Get("url"))
	snapshots, err := s.history.History(r.Context(), platform, url, limit)
	if err != nil {
		s.logger.Errorf("history query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load snapshot history")
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Platform: platform, URL: url, Snapshots: snapshots})
}

func (s *Server) supports(platform string) bool {
	for _, p := range s.service.Platforms() {
		if p == platform {
			return true
		}
	}
	return false
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}
