package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"docsync/internal/api"
	"docsync/internal/metrics"
)

func New(h *api.Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.Get("/api/v1/healthz", h.Health)
	r.Handle("/metrics", metrics.Handler())

	r.Get("/ws/documents/{id}", h.EditorWS)

	return r
}
