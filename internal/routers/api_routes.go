package routers

import (
	"github.com/go-chi/chi/v5"

	"github.com/RIDLEYsan/studio-classification-app/internal/handlers"
	"github.com/RIDLEYsan/studio-classification-app/internal/middleware"
	"github.com/RIDLEYsan/studio-classification-app/internal/models"
)

// APIHandlers groups the handlers mounted under /api/v1
type APIHandlers struct {
	Classify *handlers.ClassifyHandler
	Catalog  *handlers.CatalogHandler
	History  *handlers.HistoryHandler
	Batch    *handlers.BatchHandler
}

type APIOptions struct {
	MaxBodyBytes int64  // caps classify upload bodies
	JWTSecret    string // empty leaves the API open
}

// APIRoutes mounts the classification API
func APIRoutes(router *chi.Mux, h APIHandlers, opts APIOptions) {
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireJWT(opts.JWTSecret))

		r.With(
			middleware.LimitBody(opts.MaxBodyBytes),
			middleware.ValidateRequest[*models.ClassifyRequest](),
		).Post("/classify", h.Classify.ClassifyHandler)
		r.Get("/classify/{request_id}", h.Classify.GetResultHandler)

		r.Get("/examples", h.Catalog.ExamplesHandler)
		r.Get("/taxonomy", h.Catalog.TaxonomyHandler)

		r.Route("/history", func(r chi.Router) {
			r.Get("/stats", h.History.StatsHandler)
			r.Get("/recent", h.History.RecentHandler)
			r.Get("/folders/{folder}", h.History.FolderHandler)
		})

		r.Get("/batch/last", h.Batch.LastRunHandler)
	})
}
