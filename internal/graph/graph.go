// Package graph derives the garden's knowledge graph from a note set.
//
// Every non-draft note becomes a node. Edges are undirected and come from two
// sources: the explicit relatedNotes metadata of a note and the wikilinks
// found in its body. An edge is kept only when both endpoints are non-draft
// notes, never joins a note to itself, and appears once per unordered pair no
// matter how many times or in which direction it was proposed.
package graph

import (
	"github.com/starford/grove/internal/models"
	"github.com/starford/grove/internal/slug"
	"github.com/starford/grove/internal/wikilink"
)

// Node is one non-draft note.
type Node struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Topic    string `json:"topic"`
	Maturity string `json:"maturity"`
	Href     string `json:"href"`
}

// Edge is an undirected connection between two nodes.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph is the builder output. Edges serialise under "links", the key the
// force-graph client reads.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"links"`
}

// Neighbours returns the IDs adjacent to id in edge order.
func (g *Graph) Neighbours(id string) []string {
	var out []string
	for _, e := range g.Edges {
		switch id {
		case e.Source:
			out = append(out, e.Target)
		case e.Target:
			out = append(out, e.Source)
		}
	}
	return out
}

// Kind tells where a reference was found.
type Kind string

const (
	KindExplicit Kind = "explicit" // relatedNotes entry
	KindImplicit Kind = "implicit" // wikilink in the body
)

// Reference is a directed, typed link from one note to another known note.
type Reference struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Kind   Kind   `json:"kind"`
}

// Keys is a set of canonical note keys.
type Keys map[string]struct{}

// Has reports whether key is in the set.
func (k Keys) Has(key string) bool {
	_, ok := k[key]
	return ok
}

// Builder builds graphs for one base path. It holds no state between calls
// and is safe for concurrent use.
type Builder struct {
	resolver wikilink.Resolver
}

// NewBuilder returns a Builder whose node hrefs live under basePath.
func NewBuilder(basePath string) *Builder {
	return &Builder{resolver: wikilink.NewResolver(basePath)}
}

// KnownKeys returns the canonical slugs of every non-draft note.
func KnownKeys(notes []models.Note) Keys {
	known := make(Keys, len(notes))
	for i := range notes {
		if notes[i].Draft {
			continue
		}
		known[slug.Canonicalize(notes[i].Slug)] = struct{}{}
	}
	return known
}

// References returns the outgoing references of n that land on a known
// note: relatedNotes entries first, then body wikilinks, each in source
// order. Self-references are dropped, and a target appears at most once per
// kind. A draft note has no references.
func (b *Builder) References(n models.Note, known Keys) []Reference {
	if n.Draft {
		return nil
	}
	self := slug.Canonicalize(n.Slug)
	var refs []Reference
	seen := make(map[Reference]struct{})
	add := func(target string, kind Kind) {
		key := slug.Canonicalize(target)
		if key == self || !known.Has(key) {
			return
		}
		r := Reference{Source: self, Target: key, Kind: kind}
		if _, dup := seen[r]; dup {
			return
		}
		seen[r] = struct{}{}
		refs = append(refs, r)
	}

	for _, related := range n.RelatedNotes {
		add(related, KindExplicit)
	}
	for tok := range wikilink.Tokenize(n.Body) {
		if tok.IsLink() {
			add(tok.Ref.Target, KindImplicit)
		}
	}
	return refs
}

// Build computes the graph of notes. Node order follows input order; edge
// order follows first discovery, walking notes in input order and each
// note's explicit references before its implicit ones.
func (b *Builder) Build(notes []models.Note) *Graph {
	known := KnownKeys(notes)
	g := &Graph{Nodes: []Node{}, Edges: []Edge{}}
	pairs := make(map[[2]string]struct{})

	for i := range notes {
		n := notes[i]
		if n.Draft {
			continue
		}
		id := slug.Canonicalize(n.Slug)
		g.Nodes = append(g.Nodes, Node{
			ID:       id,
			Title:    n.Title,
			Topic:    n.Topic,
			Maturity: n.Maturity,
			Href:     b.resolver.Href(id),
		})

		for _, ref := range b.References(n, known) {
			key := pairKey(ref.Source, ref.Target)
			if _, dup := pairs[key]; dup {
				continue
			}
			pairs[key] = struct{}{}
			g.Edges = append(g.Edges, Edge{Source: ref.Source, Target: ref.Target})
		}
	}
	return g
}

func pairKey(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}
