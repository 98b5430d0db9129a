package garden

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/starford/grove/internal/graph"
	"github.com/starford/grove/internal/render"
	"github.com/starford/grove/internal/storage"
)

// ExportOptions controls a static build.
type ExportOptions struct {
	Mode        render.Mode // note fragment render mode; empty uses the default
	SVG         bool        // also lay out graph.svg with Graphviz
	Concurrency int         // parallel fragment renders; <= 0 means 8
}

// ExportResult summarises a static build.
type ExportResult struct {
	Files int `json:"files"`
	Notes int `json:"notes"`
}

// Export writes the JSON views, the graph and one HTML fragment per
// published note into out:
//
//	api/notes.json api/notes-rendered.json api/topics.json
//	api/stats.json api/graph.json graph.dot [graph.svg]
//	garden/<slug>.html
func (s *Service) Export(ctx context.Context, out storage.Provider, opts ExportOptions) (ExportResult, error) {
	var files atomic.Int64
	write := func(p string, data []byte) error {
		if err := out.Write(p, data); err != nil {
			return fmt.Errorf("garden: export %s: %w", p, err)
		}
		files.Add(1)
		return nil
	}
	writeJSON := func(p string, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("garden: encode %s: %w", p, err)
		}
		return write(p, data)
	}

	// One snapshot backs every file, so a reload mid-build cannot mix
	// generations.
	snap := s.current()

	limit := opts.Concurrency
	if limit <= 0 {
		limit = 8
	}
	pages := make([]RenderedNote, len(snap.published))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for i, n := range snap.published {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			r, err := s.Render(n, opts.Mode)
			if err != nil {
				return err
			}
			pages[i] = r
			return write(path.Join("garden", n.Slug+".html"), []byte(r.Content))
		})
	}
	if err := eg.Wait(); err != nil {
		return ExportResult{}, err
	}
	rendered := make(map[string]RenderedNote, len(pages))
	for _, r := range pages {
		rendered[r.Slug] = r
	}

	dot := graph.ToDOT(snap.graph)
	views := []struct {
		path string
		v    any
	}{
		{"api/notes.json", notesOf(snap)},
		{"api/notes-rendered.json", rendered},
		{"api/topics.json", s.topicsOf(snap)},
		{"api/stats.json", s.statsOf(snap)},
		{"api/graph.json", snap.graph},
	}
	for _, v := range views {
		if err := writeJSON(v.path, v.v); err != nil {
			return ExportResult{}, err
		}
	}
	if err := write("graph.dot", []byte(dot)); err != nil {
		return ExportResult{}, err
	}
	if opts.SVG {
		svg, err := graph.RenderSVG(ctx, dot)
		if err != nil {
			return ExportResult{}, err
		}
		if err := write("graph.svg", svg); err != nil {
			return ExportResult{}, err
		}
	}

	res := ExportResult{Files: int(files.Load()), Notes: len(rendered)}
	s.logger.Info("garden: exported", slog.Int("files", res.Files), slog.Int("notes", res.Notes))
	return res, nil
}
