package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apiMiddleware "github.com/tasktracker/reminder-worker/internal/api/middleware"
)

// NewRouter wires the monitoring routes. metrics may be nil to disable /metrics.
func NewRouter(health *HealthHandler, metrics http.Handler, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(log))

	r.Get("/health", health.Health)
	r.Get("/health/worker", health.Worker)
	r.Get("/health/db", health.Database)

	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	return r
}
