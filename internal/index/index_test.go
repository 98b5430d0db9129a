package index

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/starford/grove/internal/apperr"
	"github.com/starford/grove/internal/graph"
	"github.com/starford/grove/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "grove-test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func row(s, title, cs string) NoteRow {
	return NoteRow{Slug: s, Path: s + ".md", Title: title, Topic: "systems",
		Maturity: models.MaturitySeedling, Checksum: cs, Tags: []string{}, UpdatedAt: time.Now()}
}

func ref(src, dst string, kind graph.Kind) graph.Reference {
	return graph.Reference{Source: src, Target: dst, Kind: kind}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&count); err != nil {
		t.Fatalf("notes table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM links`).Scan(&count); err != nil {
		t.Fatalf("links table missing: %v", err)
	}
}

func TestUpsertAndGetNote(t *testing.T) {
	db := testDB(t)
	r := row("hello", "Hello World", "abc123")
	r.Tags = []string{"go", "test"}
	if err := db.UpsertNote(r, "This is a hello world note.", nil); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}
	got, err := db.GetNote("hello")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got.Title != "Hello World" || got.Checksum != "abc123" || !slices.Equal(got.Tags, []string{"go", "test"}) {
		t.Errorf("row = %+v", got)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.GetNote("nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestBacklinks_GroupedKinds(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(row("b", "Bravo", "1"), "", nil)
	_ = db.UpsertNote(row("a", "Alpha", "2"), "[[b]]", []graph.Reference{
		ref("a", "b", graph.KindImplicit), ref("a", "b", graph.KindExplicit),
	})
	_ = db.UpsertNote(row("c", "Charlie", "3"), "[[b]]", []graph.Reference{ref("c", "b", graph.KindImplicit)})

	bl, err := db.Backlinks("b")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(bl) != 2 {
		t.Fatalf("backlinks = %+v, want 2", bl)
	}
	if bl[0].Slug != "a" || !slices.Equal(bl[0].Kinds, []graph.Kind{graph.KindExplicit, graph.KindImplicit}) {
		t.Errorf("first = %+v", bl[0])
	}
	if bl[1].Slug != "c" || bl[1].Title != "Charlie" {
		t.Errorf("second = %+v", bl[1])
	}

	none, err := db.Backlinks("zzz")
	if err != nil || none == nil || len(none) != 0 {
		t.Errorf("Backlinks(unknown) = %v, %v", none, err)
	}
}

func TestOutlinks(t *testing.T) {
	db := testDB(t)
	refs := []graph.Reference{ref("a", "c", graph.KindImplicit), ref("a", "b", graph.KindExplicit)}
	_ = db.UpsertNote(row("a", "A", "1"), "", refs)
	got, err := db.Outlinks("a")
	if err != nil {
		t.Fatal(err)
	}
	want := []graph.Reference{ref("a", "b", graph.KindExplicit), ref("a", "c", graph.KindImplicit)}
	if !slices.Equal(got, want) {
		t.Errorf("Outlinks = %v, want %v", got, want)
	}
}

func TestDeleteNote(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(row("del", "Del", "x"), "body", []graph.Reference{ref("del", "target", graph.KindImplicit)})

	if err := db.DeleteNote("del"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if _, err := db.GetNote("del"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("deleted note still present: %v", err)
	}
	if bl, _ := db.Backlinks("target"); len(bl) != 0 {
		t.Errorf("expected 0 backlinks after delete, got %d", len(bl))
	}
}

func TestUpsertReplacesLinks(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(row("x", "X", "0"), "", nil)
	_ = db.UpsertNote(row("y", "Y", "0"), "", nil)
	_ = db.UpsertNote(row("up", "Old", "1"), "", []graph.Reference{ref("up", "x", graph.KindImplicit)})
	_ = db.UpsertNote(row("up", "New", "2"), "", []graph.Reference{ref("up", "y", graph.KindImplicit)})

	if bl, _ := db.Backlinks("x"); len(bl) != 0 {
		t.Error("old link should be removed on upsert")
	}
	if bl, _ := db.Backlinks("y"); len(bl) != 1 || bl[0].Title != "New" {
		t.Errorf("new link missing: %+v", bl)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(row("s", "Search Me", "1"), "uniqueword appears here", nil)
	_ = db.UpsertNote(row("t", "Other", "2"), "nothing to see", nil)

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Slug != "s" {
		t.Errorf("search results = %+v, want 1 hit for s", results)
	}
}

func gardenNote(s, body string, related ...string) models.Note {
	return models.Note{Slug: s, Path: s + ".md", Title: s, Topic: "systems",
		Maturity: models.MaturitySeedling, Body: body, RelatedNotes: related,
		Tags: []string{}, Checksum: "cs-" + body}
}

func TestSync_CreatesUpdatesDeletes(t *testing.T) {
	db := testDB(t)
	b := graph.NewBuilder("/garden")

	first := []models.Note{
		gardenNote("a", "links [[b]]"),
		gardenNote("b", "", "a"),
		gardenNote("c", "alone"),
	}
	ch, err := Sync(db, first, b, quiet)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if !slices.Equal(ch.Created, []string{"a", "b", "c"}) || len(ch.Updated) != 0 || len(ch.Deleted) != 0 {
		t.Errorf("first sync changes = %+v", ch)
	}

	bl, _ := db.Backlinks("a")
	if len(bl) != 1 || bl[0].Slug != "b" || bl[0].Kinds[0] != graph.KindExplicit {
		t.Errorf("backlinks(a) = %+v", bl)
	}

	second := []models.Note{
		gardenNote("a", "links [[b]] and [[c]]"),
		gardenNote("b", "", "a"),
	}
	ch, err = Sync(db, second, b, quiet)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(ch.Created) != 0 || !slices.Equal(ch.Updated, []string{"a"}) || !slices.Equal(ch.Deleted, []string{"c"}) {
		t.Errorf("second sync changes = %+v", ch)
	}
	// c is gone, so the new [[c]] reference is not stored.
	out, _ := db.Outlinks("a")
	if len(out) != 1 || out[0].Target != "b" {
		t.Errorf("outlinks(a) = %v", out)
	}

	ch, _ = Sync(db, second, b, quiet)
	if !ch.Empty() {
		t.Errorf("unchanged sync reported %+v", ch)
	}
}

func TestSync_DraftsNotIndexed(t *testing.T) {
	db := testDB(t)
	d := gardenNote("secret", "[[a]]")
	d.Draft = true
	if _, err := Sync(db, []models.Note{gardenNote("a", "[[secret]]"), d}, graph.NewBuilder(""), quiet); err != nil {
		t.Fatal(err)
	}
	if _, err := db.GetNote("secret"); !errors.Is(err, apperr.ErrNotFound) {
		t.Error("draft note was indexed")
	}
	if bl, _ := db.Backlinks("a"); len(bl) != 0 {
		t.Errorf("draft reference stored: %+v", bl)
	}
}
