package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/starford/grove/internal/doctree"
	"github.com/starford/grove/internal/wikilink"
)

// Mode selects the rendering path.
type Mode string

const (
	// ModeInline substitutes links in the raw body, then renders Markdown.
	// Only links goldmark sees as plain text are substituted, so escaped
	// openers and links in code spans or link labels stay literal.
	ModeInline Mode = "inline"
	// ModeTree parses Markdown into a document tree, rewrites text leaves,
	// then renders the tree.
	ModeTree Mode = "tree"
)

// ParseMode validates s as a Mode. The empty string means ModeInline.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeInline:
		return ModeInline, nil
	case ModeTree:
		return ModeTree, nil
	}
	return "", fmt.Errorf("render: unknown mode %q", s)
}

// Renderer converts note bodies to HTML. It holds no per-call state and is
// safe for concurrent use.
type Renderer struct {
	resolver wikilink.Resolver
	md       goldmark.Markdown
}

// NewRenderer returns a Renderer resolving links under basePath.
func NewRenderer(basePath string) *Renderer {
	return &Renderer{
		resolver: wikilink.NewResolver(basePath),
		md: goldmark.New(
			goldmark.WithExtensions(doctree.WikiLinks),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Resolver returns the link resolver used by r.
func (r *Renderer) Resolver() wikilink.Resolver { return r.resolver }

// HTML renders body with the given mode.
func (r *Renderer) HTML(body string, mode Mode) (string, error) {
	switch mode {
	case ModeTree:
		return doctree.Render(r.Tree(body)), nil
	case ModeInline, "":
		live := doctree.LiveLinks(r.md, []byte(body))
		var buf bytes.Buffer
		if err := r.md.Convert([]byte(substituteLive(body, r.resolver, live)), &buf); err != nil {
			return "", fmt.Errorf("render: convert markdown: %w", err)
		}
		return buf.String(), nil
	}
	return "", fmt.Errorf("render: unknown mode %q", mode)
}

// Tree parses body and rewrites its wikilinks.
func (r *Renderer) Tree(body string) *doctree.Node {
	root := doctree.FromMarkdown(r.md, []byte(body))
	Rewrite(root, r.resolver)
	return root
}
