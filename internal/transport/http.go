// Package transport serves the MCP endpoint and health check over HTTP.
package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// HealthFunc reports daemon state for the /health endpoint.
type HealthFunc func() map[string]any

// RouterConfig configures the HTTP router.
type RouterConfig struct {
	MCP       http.Handler
	Health    HealthFunc
	AuthToken string
	Logger    *slog.Logger
}

// NewRouter mounts the MCP handler at /mcp behind bearer auth and an
// unauthenticated JSON health check at /health.
func NewRouter(cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(SessionMiddleware)
	r.Use(requestLogger(logger))

	r.Get("/health", healthHandler(cfg.Health, logger))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.AuthToken))
		r.Handle("/mcp", cfg.MCP)
		r.Handle("/mcp/*", cfg.MCP)
	})

	return r
}

func healthHandler(health HealthFunc, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		body := map[string]any{"status": "ok"}
		if health != nil {
			for k, v := range health() {
				body[k] = v
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(body); err != nil {
			logger.Warn("failed to write health response", "error", err)
		}
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !logger.Enabled(r.Context(), slog.LevelDebug) {
				next.ServeHTTP(w, r)
				return
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			}
			if id := SessionID(r.Context()); id != "" {
				attrs = append(attrs, "session_id", id)
			} else if id := ww.Header().Get(mcpSessionHeader); id != "" {
				attrs = append(attrs, "new_session_id", id)
			}
			logger.Debug("http request", attrs...)
		})
	}
}
