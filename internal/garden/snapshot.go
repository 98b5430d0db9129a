package garden

import (
	"time"

	"github.com/starford/grove/internal/checksum"
	"github.com/starford/grove/internal/graph"
	"github.com/starford/grove/internal/index"
	"github.com/starford/grove/internal/models"
	"github.com/starford/grove/internal/slug"
)

// snapshot is one immutable load of the vault.
type snapshot struct {
	all       []models.Note // drafts included, path order
	published []models.Note
	bySlug    map[string]int // canonical slug -> index into published
	known     graph.Keys
	refs      map[string][]graph.Reference // target -> incoming references
	graph     *graph.Graph
	problems  []Problem
	version   string
	loadedAt  time.Time
}

func newSnapshot(notes []models.Note, problems []Problem, b *graph.Builder, at time.Time) *snapshot {
	s := &snapshot{
		all:      notes,
		bySlug:   make(map[string]int, len(notes)),
		known:    graph.KnownKeys(notes),
		refs:     make(map[string][]graph.Reference),
		graph:    b.Build(notes),
		problems: problems,
		loadedAt: at,
	}
	sums := make([]string, 0, len(notes))
	for _, n := range notes {
		sums = append(sums, n.Checksum)
		if n.Draft {
			continue
		}
		s.bySlug[slug.Canonicalize(n.Slug)] = len(s.published)
		s.published = append(s.published, n)
		for _, r := range b.References(n, s.known) {
			s.refs[r.Target] = append(s.refs[r.Target], r)
		}
	}
	s.version = checksum.Combine(sums)
	return s
}

func (s *snapshot) lookup(key string) (models.Note, bool) {
	i, ok := s.bySlug[slug.Canonicalize(key)]
	if !ok {
		return models.Note{}, false
	}
	return s.published[i], true
}

// diff compares the published notes of two snapshots.
func diff(prev, next *snapshot) index.Changes {
	var ch index.Changes
	for _, n := range next.published {
		old, ok := prev.lookup(n.Slug)
		switch {
		case !ok:
			ch.Created = append(ch.Created, n.Slug)
		case old.Checksum != n.Checksum:
			ch.Updated = append(ch.Updated, n.Slug)
		}
	}
	for _, n := range prev.published {
		if _, ok := next.lookup(n.Slug); !ok {
			ch.Deleted = append(ch.Deleted, n.Slug)
		}
	}
	return ch
}
