package parser

import (
	"errors"
	"testing"

	"github.com/starford/grove/internal/apperr"
	"github.com/starford/grove/internal/models"
)

const validNote = `---
title: Leverage Points
description: Where to intervene in a system
maturity: budding
topic: systems
created: 2024-03-01
updated: 2024-04-02
tags:
  - systems
  - meadows
relatedNotes:
  - feedback-loops
---

Places to intervene, see [[stocks-and-flows]] and [[feedback-loops|loops]].
Again [[stocks-and-flows]].
`

func TestParseNote_Valid(t *testing.T) {
	n, err := ParseNote("systems/leverage-points.md", []byte(validNote))
	if err != nil {
		t.Fatalf("ParseNote: %v", err)
	}
	if n.Slug != "systems-leverage-points" {
		t.Errorf("slug = %q", n.Slug)
	}
	if n.Title != "Leverage Points" || n.Maturity != models.MaturityBudding || n.Topic != "systems" {
		t.Errorf("note = %+v", n)
	}
	if n.Created.Year() != 2024 || n.Updated == nil || n.Updated.Month() != 4 {
		t.Errorf("dates: created %v updated %v", n.Created, n.Updated)
	}
	if len(n.Tags) != 2 || n.Tags[1] != "meadows" {
		t.Errorf("tags = %v", n.Tags)
	}
	if len(n.RelatedNotes) != 1 || n.RelatedNotes[0] != "feedback-loops" {
		t.Errorf("relatedNotes = %v", n.RelatedNotes)
	}
	if n.Body[:len("Places")] != "Places" {
		t.Errorf("body = %q", n.Body)
	}
	if n.Checksum == "" {
		t.Error("checksum not set")
	}
}

func TestParseNote_Defaults(t *testing.T) {
	src := "---\ntopic: meta\ncreated: 2024-01-01\n---\n# From Heading\ntext\n"
	n, err := ParseNote("about.md", []byte(src))
	if err != nil {
		t.Fatalf("ParseNote: %v", err)
	}
	if n.Title != "From Heading" {
		t.Errorf("title = %q, want H1 fallback", n.Title)
	}
	if n.Maturity != models.MaturitySeedling {
		t.Errorf("maturity = %q, want seedling", n.Maturity)
	}
	if n.Tags == nil || n.RelatedNotes == nil {
		t.Error("slices should default to empty, not nil")
	}
	if n.Draft || n.Featured {
		t.Error("flags should default to false")
	}
}

func TestParseNote_Invalid(t *testing.T) {
	tests := map[string]string{
		"no frontmatter":  "# Title\nbody\n",
		"bad maturity":    "---\ntitle: x\ntopic: ai\nmaturity: ancient\ncreated: 2024-01-01\n---\n",
		"unknown topic":   "---\ntitle: x\ntopic: cooking\ncreated: 2024-01-01\n---\n",
		"missing created": "---\ntitle: x\ntopic: ai\n---\n",
		"missing title":   "---\ntopic: ai\ncreated: 2024-01-01\n---\nno heading\n",
		"invalid yaml":    "---\ntitle: [unclosed\n---\nBody\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseNote("x.md", []byte(src))
			if !errors.Is(err, apperr.ErrInvalidNote) {
				t.Errorf("err = %v, want ErrInvalidNote", err)
			}
		})
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	r, err := Parse([]byte("# Just a heading\nSome [[link]].\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.HasFrontmatter {
		t.Error("expected no frontmatter")
	}
	if r.Body != "# Just a heading\nSome [[link]].\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_UnclosedFrontmatterIsBody(t *testing.T) {
	src := "---\ntitle: never closed\nbody"
	r, err := Parse([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if r.HasFrontmatter || r.Body != src {
		t.Errorf("result = %+v", r)
	}
}

func TestSlugFromPath(t *testing.T) {
	tests := map[string]string{
		"leverage-points.md":          "leverage-points",
		"systems/Leverage Points.md":  "systems-leverage-points",
		"deep\\nested\\note.markdown": "deep-nested-note",
	}
	for in, want := range tests {
		if got := SlugFromPath(in); got != want {
			t.Errorf("SlugFromPath(%q) = %q, want %q", in, got, want)
		}
	}
}
