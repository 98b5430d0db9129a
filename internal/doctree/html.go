package doctree

import (
	"html"
	"strconv"
	"strings"

	"github.com/starford/grove/internal/wikilink"
)

// Render returns the HTML form of the tree rooted at n. Wiki links render
// exactly like wikilink.Link.HTML so both rendering paths agree byte for byte.
func Render(n *Node) string {
	var b strings.Builder
	render(&b, n)
	return b.String()
}

func render(b *strings.Builder, n *Node) {
	switch n.Kind {
	case KindDocument, KindTextBlock:
		renderChildren(b, n)
	case KindParagraph:
		b.WriteString("<p>")
		renderChildren(b, n)
		b.WriteString("</p>\n")
	case KindHeading:
		level := strconv.Itoa(min(max(n.Level, 1), 6))
		b.WriteString("<h" + level + ">")
		renderChildren(b, n)
		b.WriteString("</h" + level + ">\n")
	case KindBlockquote:
		b.WriteString("<blockquote>\n")
		renderChildren(b, n)
		b.WriteString("</blockquote>\n")
	case KindList:
		tag := "ul"
		if n.Ordered {
			tag = "ol"
		}
		b.WriteString("<" + tag)
		if n.Ordered && n.Start != 1 {
			b.WriteString(` start="` + strconv.Itoa(n.Start) + `"`)
		}
		b.WriteString(">\n")
		renderChildren(b, n)
		b.WriteString("</" + tag + ">\n")
	case KindListItem:
		b.WriteString("<li>")
		renderChildren(b, n)
		b.WriteString("</li>\n")
	case KindCodeBlock:
		b.WriteString("<pre><code")
		if n.Info != "" {
			b.WriteString(` class="language-` + html.EscapeString(n.Info) + `"`)
		}
		b.WriteString(">")
		b.WriteString(html.EscapeString(n.Value))
		b.WriteString("</code></pre>\n")
	case KindHTMLBlock, KindRawHTML:
		b.WriteString(n.Value)
	case KindThematicBreak:
		b.WriteString("<hr>\n")
	case KindText:
		b.WriteString(html.EscapeString(n.Value))
	case KindCode:
		b.WriteString("<code>" + html.EscapeString(n.Value) + "</code>")
	case KindEmphasis:
		b.WriteString("<em>")
		renderChildren(b, n)
		b.WriteString("</em>")
	case KindStrong:
		b.WriteString("<strong>")
		renderChildren(b, n)
		b.WriteString("</strong>")
	case KindLink:
		if n.Wiki {
			b.WriteString(wikilink.Link{Href: n.Href, Label: n.PlainText(), Target: n.Target}.HTML())
			return
		}
		b.WriteString(`<a href="` + html.EscapeString(n.Href) + `"`)
		if n.Title != "" {
			b.WriteString(` title="` + html.EscapeString(n.Title) + `"`)
		}
		b.WriteString(">")
		renderChildren(b, n)
		b.WriteString("</a>")
	case KindImage:
		b.WriteString(`<img src="` + html.EscapeString(n.Href) + `" alt="` + html.EscapeString(n.Value) + `"`)
		if n.Title != "" {
			b.WriteString(` title="` + html.EscapeString(n.Title) + `"`)
		}
		b.WriteString(">")
	case KindLineBreak:
		b.WriteString("<br>\n")
	}
}

func renderChildren(b *strings.Builder, n *Node) {
	for _, c := range n.Children {
		render(b, c)
	}
}
