package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/grove/internal/apperr"
	"github.com/starford/grove/internal/garden"
	"github.com/starford/grove/internal/graph"
	"github.com/starford/grove/internal/render"
)

// Handler holds API route handlers.
type Handler struct {
	svc *garden.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *garden.Service) *Handler {
	return &Handler{svc: svc}
}

// renderMode reads ?mode=, falling back to the service default.
func (h *Handler) renderMode(w http.ResponseWriter, r *http.Request) (render.Mode, bool) {
	raw := r.URL.Query().Get("mode")
	if raw == "" {
		return h.svc.DefaultMode(), true
	}
	mode, err := render.ParseMode(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("mode must be inline or tree"))
		return "", false
	}
	return mode, true
}

// notFoundOr writes 404 for apperr.ErrNotFound and 500 otherwise.
func notFoundOr(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, apperr.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	slog.Error("api: "+op+" failed", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
}

// ListNotes handles GET /api/notes.
//
//	@Summary		Published notes keyed by slug, with raw Markdown bodies
//	@Tags			notes
//	@Produce		json
//	@Success		200	{object}	map[string]garden.NoteSource
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Notes())
}

// RenderedNotes handles GET /api/notes/rendered.
//
//	@Summary		Published notes keyed by slug, rendered to HTML
//	@Tags			notes
//	@Produce		json
//	@Param			mode	query		string	false	"Render path"	Enums(inline, tree)
//	@Success		200		{object}	map[string]garden.RenderedNote
//	@Failure		400		{object}	errResponse
//	@Router			/notes/rendered [get]
func (h *Handler) RenderedNotes(w http.ResponseWriter, r *http.Request) {
	mode, ok := h.renderMode(w, r)
	if !ok {
		return
	}
	out, err := h.svc.Rendered(mode)
	if err != nil {
		notFoundOr(w, "render notes", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GetNote handles GET /api/notes/{slug}.
//
//	@Summary		One rendered note with links and backlinks
//	@Tags			notes
//	@Produce		json
//	@Param			slug	path		string	true	"Note slug"
//	@Param			mode	query		string	false	"Render path"	Enums(inline, tree)
//	@Success		200		{object}	garden.NoteDetail
//	@Failure		404		{object}	errResponse
//	@Router			/notes/{slug} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	mode, ok := h.renderMode(w, r)
	if !ok {
		return
	}
	d, err := h.svc.Note(chi.URLParam(r, "slug"), mode)
	if err != nil {
		notFoundOr(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Topics handles GET /api/topics.
func (h *Handler) Topics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Topics())
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Stats())
}

// Graph handles GET /api/graph.
//
//	@Summary		Knowledge graph of published notes
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	graph.Graph
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Graph())
}

// GraphDOT handles GET /api/graph.dot.
func (h *Handler) GraphDOT(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	_, _ = w.Write([]byte(graph.ToDOT(h.svc.Graph())))
}

// GraphSVG handles GET /api/graph.svg.
func (h *Handler) GraphSVG(w http.ResponseWriter, r *http.Request) {
	svg, err := graph.RenderSVG(r.Context(), graph.ToDOT(h.svc.Graph()))
	if err != nil {
		slog.Error("api: graph svg failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

// Backlinks handles GET /api/backlinks/{slug}.
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Lookup(chi.URLParam(r, "slug"))
	if err != nil {
		notFoundOr(w, "backlinks", err)
		return
	}
	bl, err := h.svc.Backlinks(n.Slug)
	if err != nil {
		notFoundOr(w, "backlinks", err)
		return
	}
	writeJSON(w, http.StatusOK, BacklinksResponse{Slug: n.Slug, Backlinks: bl})
}

// Search handles GET /api/search.
//
//	@Summary		Search published notes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(q, limit)
	if err != nil {
		slog.Error("api: search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Query: q, Results: results})
}

// Check handles GET /api/check.
func (h *Handler) Check(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Check())
}
