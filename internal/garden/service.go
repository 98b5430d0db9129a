// Package garden loads the vault into an immutable snapshot of notes and
// serves every derived view (note lists, rendered HTML, topics, stats, the
// knowledge graph and lint reports) from it.
package garden

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/grove/internal/apperr"
	"github.com/starford/grove/internal/checksum"
	"github.com/starford/grove/internal/graph"
	"github.com/starford/grove/internal/index"
	"github.com/starford/grove/internal/logging"
	"github.com/starford/grove/internal/models"
	"github.com/starford/grove/internal/parser"
	"github.com/starford/grove/internal/render"
	"github.com/starford/grove/internal/storage"
	"github.com/starford/grove/internal/wikilink"
)

// Service owns the current snapshot. Reload swaps it atomically; readers
// never see a partially loaded garden.
type Service struct {
	store    storage.Provider
	db       *index.DB
	basePath string
	mode     render.Mode
	builder  *graph.Builder
	renderer *render.Renderer
	logger   *slog.Logger
	now      func() time.Time

	reloadMu sync.Mutex
	mu       sync.RWMutex
	snap     *snapshot
}

// Option configures a Service.
type Option func(*Service)

// WithIndex mirrors every reload into db and serves search and backlinks
// from it.
func WithIndex(db *index.DB) Option {
	return func(s *Service) { s.db = db }
}

// WithBasePath sets the path prefix of note pages. Default "/garden".
func WithBasePath(p string) Option {
	return func(s *Service) { s.basePath = p }
}

// WithRenderMode sets the mode used when callers pass an empty mode.
func WithRenderMode(m render.Mode) Option {
	return func(s *Service) { s.mode = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service reading notes from store. Call Reload before
// serving.
func New(store storage.Provider, opts ...Option) *Service {
	s := &Service{
		store:    store,
		basePath: wikilink.DefaultBasePath,
		mode:     render.ModeInline,
		logger:   logging.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.builder = graph.NewBuilder(s.basePath)
	s.renderer = render.NewRenderer(s.basePath)
	s.snap = newSnapshot(nil, nil, s.builder, time.Time{})
	return s
}

// Renderer returns the renderer shared by all views.
func (s *Service) Renderer() *render.Renderer { return s.renderer }

// Builder returns the graph builder.
func (s *Service) Builder() *graph.Builder { return s.builder }

// DefaultMode returns the configured render mode.
func (s *Service) DefaultMode() render.Mode { return s.mode }

func (s *Service) current() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Reload reads every note file, replaces the snapshot and reports which
// published notes were created, updated or deleted compared to the previous
// snapshot. Files that fail to parse are skipped with a warning; only a
// failure to list the vault aborts the reload.
func (s *Service) Reload(ctx context.Context) (index.Changes, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := time.Now()
	metas, err := s.store.List("")
	if err != nil {
		return index.Changes{}, fmt.Errorf("garden: reload: %w", err)
	}

	var (
		notes    []models.Note
		problems []Problem
		seen     = make(map[string]string, len(metas))
	)
	for _, m := range metas {
		if err := ctx.Err(); err != nil {
			return index.Changes{}, err
		}
		data, err := s.store.Read(m.Path)
		if err != nil {
			s.logger.Warn("garden: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			problems = append(problems, Problem{Path: m.Path, Kind: ProblemUnreadable, Message: err.Error()})
			continue
		}
		n, err := parser.ParseNote(m.Path, data)
		if err != nil {
			if !errors.Is(err, apperr.ErrInvalidNote) {
				return index.Changes{}, err
			}
			s.logger.Warn("garden: skipping invalid note", slog.String("path", m.Path), slog.String("error", err.Error()))
			problems = append(problems, Problem{Path: m.Path, Kind: ProblemInvalid, Message: err.Error()})
			continue
		}
		if first, dup := seen[n.Slug]; dup {
			s.logger.Warn("garden: duplicate slug", slog.String("slug", n.Slug),
				slog.String("path", m.Path), slog.String("first", first))
			problems = append(problems, Problem{Slug: n.Slug, Path: m.Path, Kind: ProblemDuplicate,
				Message: "slug already used by " + first})
			continue
		}
		seen[n.Slug] = m.Path
		notes = append(notes, n)
	}

	next := newSnapshot(notes, problems, s.builder, s.now())

	s.mu.Lock()
	prev := s.snap
	s.snap = next
	s.mu.Unlock()

	changes := diff(prev, next)

	if s.db != nil {
		if _, err := index.Sync(s.db, notes, s.builder, s.logger); err != nil {
			s.logger.Error("garden: index sync failed", slog.String("error", err.Error()))
		}
	}

	s.logger.Info("garden: loaded",
		slog.Int("notes", len(next.published)),
		slog.Int("drafts", len(notes)-len(next.published)),
		slog.Int("skipped", len(problems)),
		slog.Int("edges", len(next.graph.Edges)),
		slog.String("version", checksum.Short(next.version)),
		slog.Duration("took", time.Since(start)))
	return changes, nil
}

// Version identifies the content of the current snapshot.
func (s *Service) Version() string { return s.current().version }

// LoadedAt returns when the current snapshot was built; zero before the
// first Reload.
func (s *Service) LoadedAt() time.Time { return s.current().loadedAt }

// Published returns the non-draft notes in path order.
func (s *Service) Published() []models.Note {
	snap := s.current()
	out := make([]models.Note, len(snap.published))
	copy(out, snap.published)
	return out
}

// Lookup returns the published note with the given slug. The slug is
// canonicalized first, so "Leverage Points" finds "leverage-points".
func (s *Service) Lookup(slug string) (models.Note, error) {
	snap := s.current()
	n, ok := snap.lookup(slug)
	if !ok {
		return models.Note{}, fmt.Errorf("garden: note %q: %w", slug, apperr.ErrNotFound)
	}
	return n, nil
}

// Graph returns the knowledge graph of the current snapshot.
func (s *Service) Graph() *graph.Graph { return s.current().graph }
