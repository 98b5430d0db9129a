// Package testutil provides shared test helpers for vaults, databases and
// loaded gardens.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/grove/internal/garden"
	"github.com/starford/grove/internal/index"
	"github.com/starford/grove/internal/storage"
)

// TestDB creates a temporary SQLite index that is closed on cleanup.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "grove-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// Note describes a note file for WriteNote. Zero fields get usable
// defaults: topic "systems", created 2024-01-01 and a title derived from
// the slug.
type Note struct {
	Path        string
	Title       string
	Description string
	Maturity    string
	Topic       string
	Created     string
	Updated     string
	Tags        []string
	Related     []string
	Featured    bool
	Draft       bool
	Body        string
}

// Markdown renders n as a note file with YAML frontmatter.
func (n Note) Markdown() string {
	var b strings.Builder
	b.WriteString("---\n")
	title := n.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(n.Path), filepath.Ext(n.Path))
	}
	fmt.Fprintf(&b, "title: %q\n", title)
	if n.Description != "" {
		fmt.Fprintf(&b, "description: %q\n", n.Description)
	}
	if n.Maturity != "" {
		fmt.Fprintf(&b, "maturity: %s\n", n.Maturity)
	}
	topic := n.Topic
	if topic == "" {
		topic = "systems"
	}
	fmt.Fprintf(&b, "topic: %s\n", topic)
	created := n.Created
	if created == "" {
		created = "2024-01-01"
	}
	fmt.Fprintf(&b, "created: %s\n", created)
	if n.Updated != "" {
		fmt.Fprintf(&b, "updated: %s\n", n.Updated)
	}
	writeList(&b, "tags", n.Tags)
	writeList(&b, "relatedNotes", n.Related)
	if n.Featured {
		b.WriteString("featured: true\n")
	}
	if n.Draft {
		b.WriteString("draft: true\n")
	}
	b.WriteString("---\n\n")
	b.WriteString(n.Body)
	return b.String()
}

func writeList(b *strings.Builder, key string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", key)
	for _, it := range items {
		fmt.Fprintf(b, "  - %q\n", it)
	}
}

// WriteNote writes n under root.
func WriteNote(t *testing.T, root string, n Note) {
	t.Helper()
	WriteFile(t, root, n.Path, n.Markdown())
}

// WriteFile writes raw content to rel under root, creating directories.
func WriteFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// Garden writes notes into a fresh vault and returns a loaded service.
func Garden(t *testing.T, notes []Note, opts ...garden.Option) (*garden.Service, string) {
	t.Helper()
	root, store := TestVault(t)
	for _, n := range notes {
		WriteNote(t, root, n)
	}
	svc := garden.New(store, opts...)
	if _, err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	return svc, root
}

// Sample is a small interlinked garden used across packages.
var Sample = []Note{
	{
		Path: "leverage-points.md", Title: "Leverage Points", Maturity: "evergreen",
		Tags: []string{"systems", "meadows"}, Related: []string{"feedback-loops"},
		Created: "2024-02-01", Updated: "2024-05-01",
		Body: "Places to intervene. See [[stocks-and-flows]] and [[feedback-loops|loops]].\n",
	},
	{
		Path: "feedback-loops.md", Title: "Feedback Loops", Maturity: "budding",
		Tags: []string{"systems"}, Created: "2024-03-01",
		Body: "Loops back to [[leverage-points]]. Also [[missing-note]].\n",
	},
	{
		Path: "stocks-and-flows.md", Title: "Stocks and Flows", Created: "2024-01-15",
		Body: "The basic vocabulary.\n",
	},
	{
		Path: "ai/agents.md", Title: "Agents", Topic: "ai", Created: "2024-04-01",
		Tags: []string{"ai"}, Related: []string{"secret-plans"},
		Body: "Agents as [[Leverage Points]]. Code: `[[not-a-link]]`.\n",
	},
	{
		Path: "secret-plans.md", Title: "Secret Plans", Draft: true, Created: "2024-06-01",
		Body: "Links to [[leverage-points]].\n",
	},
}
