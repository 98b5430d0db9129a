// Package render turns note bodies into HTML with [[wikilinks]] resolved.
// Two paths share one tokenizer: Rewrite works on a parsed document tree,
// Substitute works on raw Markdown text before block parsing.
package render

import (
	"strings"

	"github.com/starford/grove/internal/doctree"
	"github.com/starford/grove/internal/wikilink"
)

type replacement struct {
	parent *doctree.Node
	index  int
	nodes  []*doctree.Node
}

// Rewrite replaces every plain text leaf of root that contains wikilinks
// with the sequence of text and link nodes the tokenizer produces, keeping
// order and position. Code spans, code blocks, raw HTML and the labels of
// existing links are never scanned. It returns the number of leaves replaced.
//
// Replacements are collected in a read-only walk and applied afterwards in
// reverse order, so each recorded index is still valid when its splice runs.
func Rewrite(root *doctree.Node, r wikilink.Resolver) int {
	var pending []replacement

	doctree.Walk(root, func(n, parent *doctree.Node, index int) bool {
		switch n.Kind {
		case doctree.KindLink, doctree.KindCode, doctree.KindCodeBlock,
			doctree.KindHTMLBlock, doctree.KindRawHTML, doctree.KindImage:
			return false
		case doctree.KindText:
			if parent == nil || !strings.Contains(n.Value, wikilink.Opener) {
				return false
			}
			if nodes, ok := linkNodes(n.Value, r); ok {
				pending = append(pending, replacement{parent: parent, index: index, nodes: nodes})
			}
			return false
		}
		return true
	})

	for i := len(pending) - 1; i >= 0; i-- {
		rep := pending[i]
		rep.parent.Splice(rep.index, rep.nodes...)
	}
	return len(pending)
}

// linkNodes tokenizes text into nodes. ok is false when no link was found.
func linkNodes(text string, r wikilink.Resolver) (nodes []*doctree.Node, ok bool) {
	for tok := range wikilink.Tokenize(text) {
		if !tok.IsLink() {
			nodes = append(nodes, doctree.NewText(tok.Literal))
			continue
		}
		ok = true
		nodes = append(nodes, LinkNode(r.Resolve(*tok.Ref)))
	}
	return nodes, ok
}

// LinkNode returns the tree form of a resolved link.
func LinkNode(l wikilink.Link) *doctree.Node {
	return &doctree.Node{
		Kind:     doctree.KindLink,
		Href:     l.Href,
		Wiki:     true,
		Target:   l.Target,
		Key:      l.Key,
		Children: []*doctree.Node{doctree.NewText(l.Label)},
	}
}

// Links returns the resolved wikilinks present in a rewritten tree, in
// document order.
func Links(root *doctree.Node) []wikilink.Link {
	var out []wikilink.Link
	doctree.Walk(root, func(n, _ *doctree.Node, _ int) bool {
		if n.Kind == doctree.KindLink && n.Wiki {
			out = append(out, wikilink.Link{Href: n.Href, Label: n.PlainText(), Target: n.Target, Key: n.Key})
			return false
		}
		return true
	})
	return out
}
