package render

import (
	"strings"

	"github.com/starford/grove/internal/wikilink"
)

// Substitute rewrites every wikilink in body into inline anchor markup
// (see wikilink.Link.HTML) and leaves all other characters untouched. It is
// works on plain text and knows nothing about Markdown: links inside code
// spans or link labels are substituted too. Renderer.HTML uses a
// Markdown-aware variant.
func Substitute(body string, r wikilink.Resolver) string {
	if !strings.Contains(body, wikilink.Opener) {
		return body
	}
	var b strings.Builder
	b.Grow(len(body))
	for tok := range wikilink.Tokenize(body) {
		if !tok.IsLink() {
			b.WriteString(tok.Literal)
			continue
		}
		b.WriteString(r.Resolve(*tok.Ref).HTML())
	}
	return b.String()
}

// substituteLive is Substitute restricted to the links whose opening bracket
// offset is in live. Other links are kept as written.
func substituteLive(body string, r wikilink.Resolver, live map[int]bool) string {
	if len(live) == 0 {
		return body
	}
	var b strings.Builder
	b.Grow(len(body))
	pos := 0
	for tok := range wikilink.Tokenize(body) {
		src := tok.Source()
		if tok.IsLink() && live[pos] {
			b.WriteString(r.Resolve(*tok.Ref).HTML())
		} else {
			b.WriteString(src)
		}
		pos += len(src)
	}
	return b.String()
}
