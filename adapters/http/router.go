// Package http provides the HTTP API of the form service.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/artpar/formgate/adapters/metrics"
	"github.com/artpar/formgate/pkg/formjson"
	"github.com/artpar/formgate/ports"
)

// VersionResponse is the body of GET /version.
type VersionResponse struct {
	Version string `json:"version"`
	Service string `json:"service"`
}

// HealthChecker reports whether a dependency is ready.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	checker HealthChecker
}

// NewHealthHandler creates a health handler. checker may be nil.
func NewHealthHandler(checker HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Liveness returns OK while the process is running.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness checks that the form store is reachable.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.checker != nil {
		if err := h.checker.HealthCheck(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// VersionHandler returns the service version.
func VersionHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(VersionResponse{Version: version, Service: "formgate"})
	}
}

// SchemaHandler serves the JSON Schema of a wire payload by name.
func SchemaHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s, ok := formjson.Schema(name)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "unknown schema "+name)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// RouterConfig holds optional configuration for the router.
type RouterConfig struct {
	Version string
	Metrics *metrics.Collector
	// MetricsHandler serves /metrics. It defaults to promhttp.Handler when
	// Metrics is set.
	MetricsHandler http.Handler
	EnableOpenAPI  bool
	Hasher         ports.Hasher
	// APIKeyHash returns the current bcrypt hash of the admin key. Nil or an
	// empty hash disables authentication.
	APIKeyHash     func() string
	RequestTimeout time.Duration
}

// NewRouter creates the main HTTP router.
func NewRouter(forms *FormHandler, health *HealthHandler, logger zerolog.Logger, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics))
	}

	r.Get("/health", health.Liveness)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Get("/version", VersionHandler(cfg.Version))
	r.Get("/schema/{name}", SchemaHandler)

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	} else if cfg.Metrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}

	if cfg.EnableOpenAPI {
		doc := OpenAPIDocument(cfg.Version)
		r.Get("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			writeJSON(w, http.StatusOK, doc)
		})
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/openapi.json"),
		))
	}

	r.Route("/api/forms", func(r chi.Router) {
		r.Use(RequireJSON)
		if cfg.Hasher != nil && cfg.APIKeyHash != nil {
			r.Use(NewAPIKeyMiddleware(cfg.Hasher, cfg.APIKeyHash, cfg.Metrics))
		}
		forms.Register(r)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	return r
}
