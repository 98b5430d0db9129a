package garden_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/starford/grove/internal/apperr"
	"github.com/starford/grove/internal/garden"
	"github.com/starford/grove/internal/graph"
	"github.com/starford/grove/internal/render"
	"github.com/starford/grove/internal/storage"
	"github.com/starford/grove/internal/testutil"
)

var fixedNow = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

func sample(t *testing.T, opts ...garden.Option) (*garden.Service, string) {
	t.Helper()
	opts = append([]garden.Option{garden.WithClock(func() time.Time { return fixedNow })}, opts...)
	return testutil.Garden(t, testutil.Sample, opts...)
}

func TestReload_SkipsDraftsAndInvalid(t *testing.T) {
	root, store := testutil.TestVault(t)
	for _, n := range testutil.Sample {
		testutil.WriteNote(t, root, n)
	}
	testutil.WriteFile(t, root, "broken.md", "---\ntitle: Broken\ntopic: cooking\ncreated: 2024-01-01\n---\n")
	testutil.WriteFile(t, root, "plain.md", "# No frontmatter\n")

	svc := garden.New(store)
	ch, err := svc.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	want := []string{"ai-agents", "feedback-loops", "leverage-points", "stocks-and-flows"}
	if !slices.Equal(ch.Created, want) {
		t.Errorf("created = %v, want %v", ch.Created, want)
	}
	if got := len(svc.Published()); got != 4 {
		t.Errorf("published = %d, want 4", got)
	}

	rep := svc.Check()
	var invalid []string
	for _, p := range rep.Problems {
		if p.Kind == garden.ProblemInvalid {
			invalid = append(invalid, p.Path)
		}
	}
	if !slices.Equal(invalid, []string{"broken.md", "plain.md"}) {
		t.Errorf("invalid = %v", invalid)
	}
}

func TestReload_ReportsChanges(t *testing.T) {
	svc, root := sample(t)
	v1 := svc.Version()

	testutil.WriteNote(t, root, testutil.Note{Path: "stocks-and-flows.md", Title: "Stocks and Flows", Body: "Edited.\n"})
	testutil.WriteNote(t, root, testutil.Note{Path: "new-idea.md", Title: "New Idea", Body: "[[stocks-and-flows]]\n"})
	if err := os.Remove(filepath.Join(root, "feedback-loops.md")); err != nil {
		t.Fatal(err)
	}

	ch, err := svc.Reload(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(ch.Created, []string{"new-idea"}) ||
		!slices.Equal(ch.Updated, []string{"stocks-and-flows"}) ||
		!slices.Equal(ch.Deleted, []string{"feedback-loops"}) {
		t.Errorf("changes = %+v", ch)
	}
	if svc.Version() == v1 {
		t.Error("version did not change")
	}

	ch, _ = svc.Reload(context.Background())
	if !ch.Empty() {
		t.Errorf("second reload changes = %+v", ch)
	}
}

func TestReload_DuplicateSlug(t *testing.T) {
	svc, _ := testutil.Garden(t, []testutil.Note{
		{Path: "systems/loops.md", Title: "First"},
		{Path: "systems-loops.md", Title: "Second"},
	})
	if n := len(svc.Published()); n != 1 {
		t.Fatalf("published = %d, want 1", n)
	}
	rep := svc.Check()
	if len(rep.Problems) != 1 || rep.Problems[0].Kind != garden.ProblemDuplicate {
		t.Errorf("problems = %+v", rep.Problems)
	}
}

func TestReload_Cancelled(t *testing.T) {
	root, store := testutil.TestVault(t)
	testutil.WriteNote(t, root, testutil.Sample[0])
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := garden.New(store).Reload(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}

func TestGraph(t *testing.T) {
	svc, _ := sample(t)
	g := svc.Graph()

	var ids []string
	for _, n := range g.Nodes {
		ids = append(ids, n.ID)
	}
	if !slices.Equal(ids, []string{"ai-agents", "feedback-loops", "leverage-points", "stocks-and-flows"}) {
		t.Errorf("nodes = %v", ids)
	}
	want := []graph.Edge{
		{Source: "ai-agents", Target: "leverage-points"},
		{Source: "feedback-loops", Target: "leverage-points"},
		{Source: "leverage-points", Target: "stocks-and-flows"},
	}
	if !slices.Equal(g.Edges, want) {
		t.Errorf("edges = %v\nwant %v", g.Edges, want)
	}
}

func TestNotes(t *testing.T) {
	svc, _ := sample(t)
	notes := svc.Notes()
	if _, ok := notes["secret-plans"]; ok {
		t.Error("draft listed")
	}
	lp, ok := notes["leverage-points"]
	if !ok {
		t.Fatal("leverage-points missing")
	}
	if lp.Maturity != "evergreen" || !strings.Contains(lp.Body, "[[stocks-and-flows]]") {
		t.Errorf("note = %+v", lp)
	}

	data, _ := json.Marshal(notes["stocks-and-flows"])
	s := string(data)
	if !strings.Contains(s, `"maturity":"seedling"`) || strings.Contains(s, `"updated"`) || !strings.Contains(s, `"tags":[]`) {
		t.Errorf("json = %s", s)
	}
}

func TestRendered_BothModes(t *testing.T) {
	svc, _ := sample(t)
	for _, mode := range []render.Mode{render.ModeInline, render.ModeTree} {
		out, err := svc.Rendered(mode)
		if err != nil {
			t.Fatalf("%s: %v", mode, err)
		}
		html := out["feedback-loops"].Content
		if !strings.Contains(html, `<a href="/garden/leverage-points" class="wikilink" data-note="leverage-points">Leverage Points</a>`) {
			t.Errorf("%s: content = %q", mode, html)
		}
		if !strings.Contains(out["ai-agents"].Content, "<code>[[not-a-link]]</code>") {
			t.Errorf("%s: code span rewritten: %q", mode, out["ai-agents"].Content)
		}
	}
}

func TestNote_Detail(t *testing.T) {
	svc, _ := sample(t)
	d, err := svc.Note("Leverage Points", "")
	if err != nil {
		t.Fatalf("Note: %v", err)
	}
	if d.Slug != "leverage-points" || !strings.Contains(d.Content, "wikilink") {
		t.Errorf("detail = %+v", d)
	}
	if len(d.Links) != 2 || d.Links[1].Label != "loops" {
		t.Errorf("links = %+v", d.Links)
	}
	var back []string
	for _, b := range d.Backlinks {
		back = append(back, b.Slug)
	}
	if !slices.Equal(back, []string{"ai-agents", "feedback-loops"}) {
		t.Errorf("backlinks = %v", back)
	}

	if _, err := svc.Note("secret-plans", ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("draft lookup err = %v", err)
	}
	if _, err := svc.Note("nope", ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing lookup err = %v", err)
	}
}

func TestBacklinks_IndexAndMemoryAgree(t *testing.T) {
	mem, _ := sample(t)
	idx, _ := sample(t, garden.WithIndex(testutil.TestDB(t)))

	for _, s := range []string{"leverage-points", "feedback-loops", "stocks-and-flows", "ai-agents"} {
		a, err := mem.Backlinks(s)
		if err != nil {
			t.Fatal(err)
		}
		b, err := idx.Backlinks(s)
		if err != nil {
			t.Fatal(err)
		}
		ja, _ := json.Marshal(a)
		jb, _ := json.Marshal(b)
		if string(ja) != string(jb) {
			t.Errorf("%s: memory %s, index %s", s, ja, jb)
		}
	}
}

func TestSearch(t *testing.T) {
	for name, opts := range map[string][]garden.Option{
		"memory": nil,
		"index":  {garden.WithIndex(testutil.TestDB(t))},
	} {
		t.Run(name, func(t *testing.T) {
			svc, _ := sample(t, opts...)
			res, err := svc.Search("vocabulary", 10)
			if err != nil {
				t.Fatal(err)
			}
			if len(res) != 1 || res[0].Slug != "stocks-and-flows" {
				t.Errorf("results = %+v", res)
			}
			res, _ = svc.Search("Secret", 10)
			if len(res) != 0 {
				t.Errorf("draft found: %+v", res)
			}
		})
	}
}

func TestTopics(t *testing.T) {
	svc, _ := sample(t)
	topics := svc.Topics()
	if len(topics) != 6 || topics[0].Slug != "systems" {
		t.Fatalf("topics = %+v", topics)
	}
	sys := topics[0]
	if sys.NoteCount != 3 || sys.MaturityBreakdown != (garden.MaturityCounts{Seedling: 1, Budding: 1, Evergreen: 1}) {
		t.Errorf("systems = %+v", sys)
	}
	if sys.Notes[0].Href != "/garden/feedback-loops" {
		t.Errorf("href = %q", sys.Notes[0].Href)
	}
	for _, tp := range topics {
		if tp.Slug == "play" && (tp.NoteCount != 0 || tp.Notes == nil) {
			t.Errorf("empty topic = %+v", tp)
		}
	}
}

func TestStats(t *testing.T) {
	svc, _ := sample(t)
	st := svc.Stats()
	if st.Notes.Total != 4 || st.Notes.ByTopic["ai"] != 1 || st.Notes.ByMaturity.Seedling != 2 {
		t.Errorf("notes = %+v", st.Notes)
	}
	if st.Tags.Total != 3 || st.Tags.Popular[0] != (garden.TagCount{Tag: "systems", Count: 2}) || st.Tags.Popular[1].Tag != "ai" {
		t.Errorf("tags = %+v", st.Tags)
	}
	if st.LastUpdated == nil || st.LastUpdated.Slug != "leverage-points" {
		t.Errorf("lastUpdated = %+v", st.LastUpdated)
	}
	if st.Graph.Edges != 3 || !st.GeneratedAt.Equal(fixedNow) {
		t.Errorf("graph/generatedAt = %+v %v", st.Graph, st.GeneratedAt)
	}
	if st.Content.TotalWordCount == 0 || st.Content.AverageWordCount == 0 {
		t.Errorf("content = %+v", st.Content)
	}
}

func TestStats_Empty(t *testing.T) {
	svc, _ := testutil.Garden(t, nil)
	st := svc.Stats()
	if st.Notes.Total != 0 || st.Content.AverageWordCount != 0 || st.LastUpdated != nil {
		t.Errorf("stats = %+v", st)
	}
}

func TestCheck(t *testing.T) {
	svc, _ := sample(t)
	rep := svc.Check()
	if rep.Notes != 4 || rep.Drafts != 1 {
		t.Errorf("counts = %d/%d", rep.Notes, rep.Drafts)
	}
	var got []string
	for _, p := range rep.Problems {
		got = append(got, p.Slug+":"+p.Kind+":"+p.Target)
	}
	want := []string{
		"ai-agents:dangling-related:secret-plans",
		"feedback-loops:unresolved-link:missing-note",
	}
	if !slices.Equal(got, want) {
		t.Errorf("problems = %v\nwant %v", got, want)
	}
}

func TestCheck_EmptyTarget(t *testing.T) {
	svc, _ := testutil.Garden(t, []testutil.Note{{Path: "a.md", Body: "odd [[ ]] link\n"}})
	rep := svc.Check()
	if len(rep.Problems) != 1 || rep.Problems[0].Kind != garden.ProblemEmptyTarget || rep.Problems[0].Message != "resolves to /garden/" {
		t.Errorf("problems = %+v", rep.Problems)
	}
}

func TestNeighbours(t *testing.T) {
	svc, _ := sample(t)
	ns, err := svc.Neighbours("leverage-points")
	if err != nil {
		t.Fatal(err)
	}
	if len(ns) != 3 {
		t.Errorf("neighbours = %+v", ns)
	}
}

func TestBasePathOption(t *testing.T) {
	svc, _ := sample(t, garden.WithBasePath("/notes"), garden.WithRenderMode(render.ModeTree))
	if svc.DefaultMode() != render.ModeTree {
		t.Errorf("mode = %q", svc.DefaultMode())
	}
	d, err := svc.Note("feedback-loops", "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(d.Content, `href="/notes/leverage-points"`) {
		t.Errorf("content = %q", d.Content)
	}
	if svc.Graph().Nodes[0].Href != "/notes/ai-agents" {
		t.Errorf("node href = %q", svc.Graph().Nodes[0].Href)
	}
}

func TestExport(t *testing.T) {
	svc, _ := sample(t)
	outDir := filepath.Join(t.TempDir(), "site")
	out, err := storage.CreateFS(outDir)
	if err != nil {
		t.Fatal(err)
	}
	res, err := svc.Export(context.Background(), out, garden.ExportOptions{Concurrency: 2})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.Notes != 4 || res.Files != 6+4 {
		t.Errorf("result = %+v", res)
	}
	for _, p := range []string{
		"api/notes.json", "api/notes-rendered.json", "api/topics.json", "api/stats.json",
		"api/graph.json", "graph.dot", "garden/leverage-points.html",
	} {
		if _, err := os.Stat(filepath.Join(outDir, p)); err != nil {
			t.Errorf("missing %s: %v", p, err)
		}
	}
	if _, err := os.Stat(filepath.Join(outDir, "garden", "secret-plans.html")); err == nil {
		t.Error("draft exported")
	}

	data, _ := os.ReadFile(filepath.Join(outDir, "api", "graph.json"))
	var g graph.Graph
	if err := json.Unmarshal(data, &g); err != nil || len(g.Edges) != 3 {
		t.Errorf("graph.json = %s (%v)", data, err)
	}

	data, _ = os.ReadFile(filepath.Join(outDir, "api", "notes-rendered.json"))
	var rendered map[string]garden.RenderedNote
	if err := json.Unmarshal(data, &rendered); err != nil || len(rendered) != 4 {
		t.Fatalf("notes-rendered.json = %s (%v)", data, err)
	}
	for slug, r := range rendered {
		frag, err := os.ReadFile(filepath.Join(outDir, "garden", slug+".html"))
		if err != nil {
			t.Errorf("fragment %s: %v", slug, err)
			continue
		}
		if string(frag) != r.Content {
			t.Errorf("fragment %s differs from notes-rendered.json", slug)
		}
	}
}

func TestExport_SingleGeneration(t *testing.T) {
	svc, _ := sample(t)
	outDir := t.TempDir()
	out, err := storage.CreateFS(outDir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Export(context.Background(), out, garden.ExportOptions{}); err != nil {
		t.Fatal(err)
	}

	var notes map[string]garden.NoteSource
	var st garden.Stats
	var g graph.Graph
	for p, v := range map[string]any{"notes.json": &notes, "stats.json": &st, "graph.json": &g} {
		data, err := os.ReadFile(filepath.Join(outDir, "api", p))
		if err != nil {
			t.Fatal(err)
		}
		if err := json.Unmarshal(data, v); err != nil {
			t.Fatalf("%s: %v", p, err)
		}
	}
	if st.Notes.Total != len(notes) || len(g.Nodes) != len(notes) || st.Graph.Edges != len(g.Edges) {
		t.Errorf("notes %d, stats %d/%d edges, graph %d nodes/%d edges",
			len(notes), st.Notes.Total, st.Graph.Edges, len(g.Nodes), len(g.Edges))
	}
}
