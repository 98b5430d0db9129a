package wikilink

import (
	"html"
	"strings"

	"github.com/starford/grove/internal/slug"
)

// DefaultBasePath is prefixed to every resolved link unless configured otherwise.
const DefaultBasePath = "/garden"

// Link is a resolved reference, ready to be rendered as a hyperlink.
type Link struct {
	Href   string `json:"href"`
	Label  string `json:"label"`
	Target string `json:"target"` // as written in the source
	Key    string `json:"key"`    // canonical form of Target
}

// Resolver turns references into links under a base path.
type Resolver struct {
	BasePath string
}

// NewResolver returns a Resolver for basePath. A trailing slash is dropped so
// that "/garden/" and "/garden" resolve identically.
func NewResolver(basePath string) Resolver {
	return Resolver{BasePath: strings.TrimRight(basePath, "/")}
}

// Resolve applies the link policy to ref:
//
//	href  = base + "/" + Canonicalize(target) [ + "#" + Canonicalize(anchor) ]
//	label = custom label, or Prettify(target) on the raw target
//
// A target that canonicalizes to "" resolves to base + "/".
func (r Resolver) Resolve(ref Reference) Link {
	key := slug.Canonicalize(ref.Target)
	href := r.Href(key)
	if ref.HasAnchor {
		href += "#" + slug.Canonicalize(ref.Anchor)
	}
	label := ref.Label
	if !ref.HasLabel {
		label = slug.Prettify(ref.Target)
	}
	return Link{
		Href:   href,
		Label:  label,
		Target: ref.Target,
		Key:    key,
	}
}

// Href returns the page path of the note with the given key.
func (r Resolver) Href(key string) string {
	return r.BasePath + "/" + key
}

// Class is the CSS class carried by every rendered cross-reference.
const Class = "wikilink"

// HTML renders l as an anchor element:
//
//	<a href="HREF" class="wikilink" data-note="TARGET">LABEL</a>
//
// Attribute values and the label are HTML-escaped.
func (l Link) HTML() string {
	var b strings.Builder
	b.WriteString(`<a href="`)
	b.WriteString(html.EscapeString(l.Href))
	b.WriteString(`" class="` + Class + `" data-note="`)
	b.WriteString(html.EscapeString(l.Target))
	b.WriteString(`">`)
	b.WriteString(html.EscapeString(l.Label))
	b.WriteString(`</a>`)
	return b.String()
}
