package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RIDLEYsan/studio-classification-app/internal/handlers"
)

// HealthRoutes mounts probes and, when metricsHandler is non-nil, /metrics
func HealthRoutes(router *chi.Mux, healthHandler *handlers.HealthHandler, metricsHandler http.Handler) {
	router.Get("/healthz", healthHandler.HealthzHandler)
	router.Get("/readyz", healthHandler.ReadyzHandler)
	if metricsHandler != nil {
		router.Method(http.MethodGet, "/metrics", metricsHandler)
	}
}
