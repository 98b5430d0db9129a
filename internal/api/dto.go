package api

import "github.com/starford/grove/internal/index"

// SearchResponse wraps search results.
type SearchResponse struct {
	Query   string               `json:"query" example:"feedback"`
	Results []index.SearchResult `json:"results" validate:"required"`
}

// BacklinksResponse lists the notes pointing at one note.
type BacklinksResponse struct {
	Slug      string           `json:"slug" example:"leverage-points" validate:"required"`
	Backlinks []index.Backlink `json:"backlinks" validate:"required"`
}
