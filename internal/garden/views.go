package garden

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/starford/grove/internal/graph"
	"github.com/starford/grove/internal/index"
	"github.com/starford/grove/internal/models"
	"github.com/starford/grove/internal/render"
	"github.com/starford/grove/internal/wikilink"
)

// NoteMeta is the frontmatter part shared by every note view.
type NoteMeta struct {
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Maturity    string     `json:"maturity"`
	Topic       string     `json:"topic"`
	Created     time.Time  `json:"created"`
	Updated     *time.Time `json:"updated,omitempty"`
	Tags        []string   `json:"tags"`
}

func metaOf(n models.Note) NoteMeta {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	return NoteMeta{
		Slug:        n.Slug,
		Title:       n.Title,
		Description: n.Description,
		Maturity:    n.Maturity,
		Topic:       n.Topic,
		Created:     n.Created,
		Updated:     n.Updated,
		Tags:        tags,
	}
}

// NoteSource is a note with its raw Markdown body.
type NoteSource struct {
	NoteMeta
	Body string `json:"body"`
}

// RenderedNote is a note with its body rendered to HTML.
type RenderedNote struct {
	NoteMeta
	Content string `json:"content"`
}

// NoteDetail is a single rendered note with its connections.
type NoteDetail struct {
	RenderedNote
	Featured     bool             `json:"featured"`
	RelatedNotes []string         `json:"relatedNotes"`
	Links        []wikilink.Link  `json:"links"`
	Backlinks    []index.Backlink `json:"backlinks"`
}

// Notes returns every published note keyed by slug.
func (s *Service) Notes() map[string]NoteSource {
	return notesOf(s.current())
}

func notesOf(snap *snapshot) map[string]NoteSource {
	out := make(map[string]NoteSource, len(snap.published))
	for _, n := range snap.published {
		out[n.Slug] = NoteSource{NoteMeta: metaOf(n), Body: n.Body}
	}
	return out
}

func (s *Service) resolveMode(mode render.Mode) render.Mode {
	if mode == "" {
		return s.mode
	}
	return mode
}

// Render renders a single note body.
func (s *Service) Render(n models.Note, mode render.Mode) (RenderedNote, error) {
	html, err := s.renderer.HTML(n.Body, s.resolveMode(mode))
	if err != nil {
		return RenderedNote{}, fmt.Errorf("garden: render %s: %w", n.Slug, err)
	}
	return RenderedNote{NoteMeta: metaOf(n), Content: html}, nil
}

// Rendered returns every published note rendered with mode, keyed by slug.
// An empty mode uses the configured default.
func (s *Service) Rendered(mode render.Mode) (map[string]RenderedNote, error) {
	return s.renderedOf(s.current(), mode)
}

func (s *Service) renderedOf(snap *snapshot, mode render.Mode) (map[string]RenderedNote, error) {
	out := make(map[string]RenderedNote, len(snap.published))
	for _, n := range snap.published {
		r, err := s.Render(n, mode)
		if err != nil {
			return nil, err
		}
		out[n.Slug] = r
	}
	return out, nil
}

// Note returns the rendered detail of one published note, or
// apperr.ErrNotFound.
func (s *Service) Note(slug string, mode render.Mode) (*NoteDetail, error) {
	n, err := s.Lookup(slug)
	if err != nil {
		return nil, err
	}
	mode = s.resolveMode(mode)
	r, err := s.Render(n, mode)
	if err != nil {
		return nil, err
	}
	backlinks, err := s.Backlinks(n.Slug)
	if err != nil {
		return nil, err
	}
	related := n.RelatedNotes
	if related == nil {
		related = []string{}
	}
	links := render.Links(s.renderer.Tree(n.Body))
	if links == nil {
		links = []wikilink.Link{}
	}
	return &NoteDetail{
		RenderedNote: r,
		Featured:     n.Featured,
		RelatedNotes: related,
		Links:        links,
		Backlinks:    backlinks,
	}, nil
}

// Backlinks returns the published notes referencing slug. With an index
// configured the answer comes from SQLite, otherwise from the snapshot.
func (s *Service) Backlinks(slug string) ([]index.Backlink, error) {
	n, err := s.Lookup(slug)
	if err != nil {
		return nil, err
	}
	if s.db != nil {
		return s.db.Backlinks(n.Slug)
	}

	snap := s.current()
	bySource := make(map[string]*index.Backlink)
	var order []string
	for _, r := range snap.refs[n.Slug] {
		b, ok := bySource[r.Source]
		if !ok {
			src, _ := snap.lookup(r.Source)
			b = &index.Backlink{Slug: r.Source, Title: src.Title}
			bySource[r.Source] = b
			order = append(order, r.Source)
		}
		b.Kinds = append(b.Kinds, r.Kind)
	}
	out := make([]index.Backlink, 0, len(order))
	for _, src := range order {
		b := bySource[src]
		sort.Slice(b.Kinds, func(i, j int) bool { return b.Kinds[i] < b.Kinds[j] })
		out = append(out, *b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].Slug < out[j].Slug
	})
	return out, nil
}

// Search finds published notes matching query, through the index when one
// is configured, otherwise by a case-insensitive scan of the snapshot.
func (s *Service) Search(query string, limit int) ([]index.SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	if s.db != nil {
		return s.db.Search(query, limit)
	}

	q := strings.ToLower(query)
	out := []index.SearchResult{}
	for _, n := range s.current().published {
		if len(out) == limit {
			break
		}
		if strings.Contains(strings.ToLower(n.Title), q) ||
			strings.Contains(strings.ToLower(n.Body), q) ||
			strings.Contains(strings.ToLower(strings.Join(n.Tags, " ")), q) {
			out = append(out, index.SearchResult{Slug: n.Slug, Title: n.Title, Snippet: snippet(n.Body, 200)})
		}
	}
	return out, nil
}

func snippet(body string, max int) string {
	r := []rune(body)
	if len(r) <= max {
		return body
	}
	return string(r[:max])
}

// MaturityCounts counts notes per maturity level.
type MaturityCounts struct {
	Seedling  int `json:"seedling"`
	Budding   int `json:"budding"`
	Evergreen int `json:"evergreen"`
}

func (m *MaturityCounts) add(maturity string) {
	switch maturity {
	case models.MaturitySeedling:
		m.Seedling++
	case models.MaturityBudding:
		m.Budding++
	case models.MaturityEvergreen:
		m.Evergreen++
	}
}

// TopicNote is a note entry in a topic listing.
type TopicNote struct {
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Maturity string `json:"maturity"`
	Href     string `json:"href"`
}

// TopicView is a catalogue topic with its notes.
type TopicView struct {
	models.Topic
	NoteCount         int            `json:"noteCount"`
	MaturityBreakdown MaturityCounts `json:"maturityBreakdown"`
	Notes             []TopicNote    `json:"notes"`
}

// Topics returns every catalogue topic, in catalogue order, with the
// published notes filed under it.
func (s *Service) Topics() []TopicView {
	return s.topicsOf(s.current())
}

func (s *Service) topicsOf(snap *snapshot) []TopicView {
	resolver := s.renderer.Resolver()
	out := make([]TopicView, 0, len(models.Topics))
	for _, t := range models.Topics {
		v := TopicView{Topic: t, Notes: []TopicNote{}}
		for _, n := range snap.published {
			if n.Topic != t.Slug {
				continue
			}
			v.NoteCount++
			v.MaturityBreakdown.add(n.Maturity)
			v.Notes = append(v.Notes, TopicNote{
				Slug:     n.Slug,
				Title:    n.Title,
				Maturity: n.Maturity,
				Href:     resolver.Href(n.Slug),
			})
		}
		out = append(out, v)
	}
	return out
}

// TagCount is a tag and the number of notes carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// LastUpdated names the most recently modified note.
type LastUpdated struct {
	Slug  string    `json:"slug"`
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
}

// Stats summarises the published garden.
type Stats struct {
	Notes struct {
		Total      int            `json:"total"`
		ByMaturity MaturityCounts `json:"byMaturity"`
		ByTopic    map[string]int `json:"byTopic"`
	} `json:"notes"`
	Tags struct {
		Total   int        `json:"total"`
		Popular []TagCount `json:"popular"`
	} `json:"tags"`
	Content struct {
		TotalWordCount   int `json:"totalWordCount"`
		AverageWordCount int `json:"averageWordCount"`
	} `json:"content"`
	Graph struct {
		Nodes int `json:"nodes"`
		Edges int `json:"edges"`
	} `json:"graph"`
	LastUpdated *LastUpdated `json:"lastUpdated"`
	GeneratedAt time.Time    `json:"generatedAt"`
}

const popularTags = 10

// Stats computes garden statistics over published notes.
func (s *Service) Stats() Stats {
	return s.statsOf(s.current())
}

func (s *Service) statsOf(snap *snapshot) Stats {
	var st Stats
	st.Notes.ByTopic = make(map[string]int)
	tagCounts := make(map[string]int)

	for _, n := range snap.published {
		st.Notes.Total++
		st.Notes.ByMaturity.add(n.Maturity)
		st.Notes.ByTopic[n.Topic]++
		for _, t := range n.Tags {
			tagCounts[t]++
		}
		st.Content.TotalWordCount += len(strings.Fields(n.Body))

		mod := n.LastModified()
		if st.LastUpdated == nil || mod.After(st.LastUpdated.Date) {
			st.LastUpdated = &LastUpdated{Slug: n.Slug, Title: n.Title, Date: mod}
		}
	}
	if st.Notes.Total > 0 {
		st.Content.AverageWordCount = (st.Content.TotalWordCount + st.Notes.Total/2) / st.Notes.Total
	}

	st.Tags.Total = len(tagCounts)
	st.Tags.Popular = make([]TagCount, 0, len(tagCounts))
	for tag, c := range tagCounts {
		st.Tags.Popular = append(st.Tags.Popular, TagCount{Tag: tag, Count: c})
	}
	sort.Slice(st.Tags.Popular, func(i, j int) bool {
		a, b := st.Tags.Popular[i], st.Tags.Popular[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Tag < b.Tag
	})
	if len(st.Tags.Popular) > popularTags {
		st.Tags.Popular = st.Tags.Popular[:popularTags]
	}

	st.Graph.Nodes = len(snap.graph.Nodes)
	st.Graph.Edges = len(snap.graph.Edges)
	st.GeneratedAt = s.now().UTC()
	return st
}

// Neighbours returns the notes adjacent to slug in the graph.
func (s *Service) Neighbours(slug string) ([]graph.Node, error) {
	n, err := s.Lookup(slug)
	if err != nil {
		return nil, err
	}
	g := s.Graph()
	byID := make(map[string]graph.Node, len(g.Nodes))
	for _, node := range g.Nodes {
		byID[node.ID] = node
	}
	out := []graph.Node{}
	for _, id := range g.Neighbours(n.Slug) {
		out = append(out, byID[id])
	}
	return out, nil
}
