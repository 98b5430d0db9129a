package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/grove/internal/garden"
)

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is mounted at GET /events outside the caching
// group.
func NewRouter(svc *garden.Service, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(ConditionalGet(svc.Version, "3600"))

		r.Get("/notes", h.ListNotes)
		r.Get("/notes/rendered", h.RenderedNotes)
		r.Get("/notes/{slug}", h.GetNote)
		r.Get("/topics", h.Topics)
		r.Get("/stats", h.Stats)

		r.Get("/graph", h.Graph)
		r.Get("/graph.dot", h.GraphDOT)
		r.Get("/graph.svg", h.GraphSVG)

		r.Get("/backlinks/{slug}", h.Backlinks)
	})

	r.Get("/search", h.Search)
	r.Get("/check", h.Check)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
