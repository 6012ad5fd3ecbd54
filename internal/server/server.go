package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/voyagen/xtreamgate/internal/cache"
	"github.com/voyagen/xtreamgate/internal/config"
	"github.com/voyagen/xtreamgate/internal/logging"
	"github.com/voyagen/xtreamgate/internal/metrics"
	"github.com/voyagen/xtreamgate/internal/service"
	"github.com/voyagen/xtreamgate/internal/store"
	"github.com/voyagen/xtreamgate/internal/xtream"
)

const maxBodyBytes = 1 << 20

// Server holds dependencies for the HTTP API.
type Server struct {
	engine   *service.Engine
	cfg      *config.Config
	redis    *cache.Redis // nil when REDIS_URL is not set
	validate *validator.Validate
	mux      *http.ServeMux
}

// New creates a Server and registers routes.
// rds may be nil; background category refresh is then unavailable.
func New(engine *service.Engine, cfg *config.Config, rds *cache.Redis) *Server {
	srv := &Server{
		engine:   engine,
		cfg:      cfg,
		redis:    rds,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		mux:      http.NewServeMux(),
	}
	srv.routes()
	return srv
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /health/memory", s.handleMemory)
	s.mux.Handle("GET /metrics", metrics.Handler())

	// Xtream-compatible surface
	s.mux.HandleFunc("GET /{id}/player_api.php", s.handlePlayerAPI)
	s.mux.HandleFunc("GET /{id}/xmltv.php", s.handleGuide)
	s.mux.HandleFunc("GET /{id}/get.php", s.handlePlaylist)
	s.mux.HandleFunc("GET /{id}/{type}/{username}/{password}/{stream}", s.handleStreamRedirect)

	// Accounts
	s.mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	s.mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	s.mux.HandleFunc("GET /api/accounts/{id}", s.handleGetAccount)
	s.mux.HandleFunc("PUT /api/accounts/{id}", s.handleUpdateAccount)
	s.mux.HandleFunc("DELETE /api/accounts/{id}", s.handleDeleteAccount)

	// Categories
	s.mux.HandleFunc("POST /api/accounts/{id}/categories/initialize", s.handleInitializeCategories)
	s.mux.HandleFunc("POST /api/accounts/{id}/categories/refresh", s.handleEnqueueRefresh)
	s.mux.HandleFunc("POST /api/accounts/{id}/categories/{type}/refresh", s.handleRefreshCategories)
	s.mux.HandleFunc("GET /api/accounts/{id}/categories/{type}", s.handleUpstreamCategories)
	s.mux.HandleFunc("PUT /api/accounts/{id}/categories/{type}", s.handleUpdateCategories)

	// Channel mappings
	s.mux.HandleFunc("GET /api/accounts/{id}/mappings", s.handleListMappings)
	s.mux.HandleFunc("POST /api/accounts/{id}/mappings", s.handleCreateMapping)
	s.mux.HandleFunc("DELETE /api/accounts/{id}/mappings", s.handleDeleteAccountMappings)
	s.mux.HandleFunc("GET /api/mappings/{mappingId}", s.handleGetMapping)
	s.mux.HandleFunc("PUT /api/mappings/{mappingId}", s.handleUpdateMapping)
	s.mux.HandleFunc("DELETE /api/mappings/{mappingId}", s.handleDeleteMapping)

	// Legacy global filter settings and cache maintenance
	s.mux.HandleFunc("GET /api/filters", s.handleGetFilters)
	s.mux.HandleFunc("POST /api/filters", s.handleSaveFilters)
	s.mux.HandleFunc("POST /api/cache/clear", s.handleClearCache)

	// Docs
	s.mux.HandleFunc("GET /api/docs", handleSwaggerUI)
	s.mux.HandleFunc("GET /api/docs/openapi.yaml", handleOpenAPISpec)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Handler returns the server wrapped in its middleware chain.
func (s *Server) Handler() http.Handler {
	return withCORS(withLogging(s))
}

// ListenAndServe starts the HTTP server on the configured port.
// It blocks until the server is shut down or ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := ":" + s.cfg.ServerPort
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logging.Ctx(ctx).Error().Err(err).Msg("server shutdown")
		}
	}()

	logging.Ctx(ctx).Info().Str("addr", addr).Msg("listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ListenAndServe: %w", err)
	}
	return nil
}

// --- middleware ---

// withCORS adds CORS headers to every response and handles preflight OPTIONS requests.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// withLogging tags the request with an id, then logs and times it. Paths of
// routes that carry credentials are not logged.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		r = r.WithContext(logging.WithRequestID(r.Context(), id))
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		duration := time.Since(start)
		metrics.ObserveHTTP(r.Method, route, sw.status, duration)

		ev := logging.Ctx(r.Context()).Info()
		if sw.status >= 500 {
			ev = logging.Ctx(r.Context()).Warn()
		}
		if !strings.Contains(route, "{password}") {
			ev = ev.Str("path", r.URL.Path)
		}
		ev.Str("method", r.Method).
			Str("route", route).
			Int("status", sw.status).
			Dur("duration", duration).
			Msg("request")
	})
}

// --- helpers ---

// APIError is the standard error envelope for all error responses.
type APIError struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// errorStatus maps engine error kinds to HTTP statuses.
func errorStatus(err error) int {
	var upstream *xtream.UpstreamError
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict), errors.Is(err, cache.ErrLocked):
		return http.StatusConflict
	case errors.Is(err, service.ErrNotImplemented):
		return http.StatusNotImplemented
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) check(v any, except ...string) error {
	var err error
	if len(except) > 0 {
		err = s.validate.StructExcept(v, except...)
	} else {
		err = s.validate.Struct(v)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", service.ErrValidation, err)
	}
	return nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", service.ErrValidation)
		}
		return fmt.Errorf("%w: invalid JSON: %v", service.ErrValidation, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("writeJSON")
	}
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func writeErr(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, APIError{
		Status: status,
		Error:  http.StatusText(status),
		Detail: err.Error(),
	})
}

// fail answers a management request with the status for err and its detail.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status >= 500 {
		logging.Ctx(r.Context()).Error().Err(err).Int("status", status).Msg("request failed")
	}
	writeErr(w, status, err)
}

// failProxy answers a proxied client request. Only the error kind reaches
// the caller; the detail is logged.
func (s *Server) failProxy(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	ev := logging.Ctx(r.Context()).Warn()
	if status >= 500 {
		ev = logging.Ctx(r.Context()).Error()
	}
	ev.Err(err).Str("account", r.PathValue("id")).Int("status", status).Msg("proxy request failed")
	writeJSON(w, status, APIError{Status: status, Error: http.StatusText(status)})
}
