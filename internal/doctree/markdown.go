package doctree

import (
	"bytes"
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// FromMarkdown parses source with md and converts the goldmark AST into a
// document tree. Adjacent text segments are merged into a single text leaf,
// so inline syntax goldmark splits across segments (such as "[[") ends up in
// one leaf. Characters written as escapes or character references stay in
// leaves of their own. Soft line breaks are kept as "\n" inside the text.
func FromMarkdown(md goldmark.Markdown, source []byte) *Node {
	root := md.Parser().Parse(text.NewReader(source))
	doc := NewDocument()
	convertChildren(doc, root, source)
	return doc
}

func convertChildren(dst *Node, src ast.Node, source []byte) {
	for c := src.FirstChild(); c != nil; c = c.NextSibling() {
		convert(dst, c, source)
	}
}

func convert(dst *Node, n ast.Node, source []byte) {
	switch v := n.(type) {
	case *ast.Paragraph:
		appendBlock(dst, &Node{Kind: KindParagraph}, n, source)
	case *ast.TextBlock:
		appendBlock(dst, &Node{Kind: KindTextBlock}, n, source)
	case *ast.Heading:
		appendBlock(dst, &Node{Kind: KindHeading, Level: v.Level}, n, source)
	case *ast.Blockquote:
		appendBlock(dst, &Node{Kind: KindBlockquote}, n, source)
	case *ast.List:
		appendBlock(dst, &Node{Kind: KindList, Ordered: v.IsOrdered(), Start: v.Start}, n, source)
	case *ast.ListItem:
		appendBlock(dst, &Node{Kind: KindListItem}, n, source)
	case *ast.FencedCodeBlock:
		dst.Append(&Node{Kind: KindCodeBlock, Info: string(v.Language(source)), Value: lines(v, source)})
	case *ast.CodeBlock:
		dst.Append(&Node{Kind: KindCodeBlock, Value: lines(v, source)})
	case *ast.HTMLBlock:
		value := lines(v, source)
		if v.HasClosure() {
			value += string(v.ClosureLine.Value(source))
		}
		dst.Append(&Node{Kind: KindHTMLBlock, Value: value})
	case *ast.ThematicBreak:
		dst.Append(&Node{Kind: KindThematicBreak})

	case *ast.Text:
		appendText(dst, v, source)
		switch {
		case v.HardLineBreak():
			dst.Append(&Node{Kind: KindLineBreak})
		case v.SoftLineBreak():
			dst.Append(NewText("\n"))
		}
	case *ast.String:
		dst.Append(NewText(string(v.Value)))
	case *WikiLink:
		dst.Append(NewText(string(v.Source)))
	case *ast.CodeSpan:
		dst.Append(&Node{Kind: KindCode, Value: inlineText(v, source)})
	case *ast.Emphasis:
		kind := KindEmphasis
		if v.Level >= 2 {
			kind = KindStrong
		}
		appendBlock(dst, &Node{Kind: kind}, n, source)
	case *ast.Link:
		appendBlock(dst, &Node{Kind: KindLink, Href: string(v.Destination), Title: string(v.Title)}, n, source)
	case *ast.AutoLink:
		href := string(v.URL(source))
		if v.AutoLinkType == ast.AutoLinkEmail {
			href = "mailto:" + href
		}
		dst.Append(&Node{Kind: KindLink, Href: href, Children: []*Node{NewText(string(v.Label(source)))}})
	case *ast.Image:
		dst.Append(&Node{Kind: KindImage, Href: string(v.Destination), Title: string(v.Title), Value: inlineText(v, source)})
	case *ast.RawHTML:
		var buf bytes.Buffer
		for i := 0; i < v.Segments.Len(); i++ {
			seg := v.Segments.At(i)
			buf.Write(seg.Value(source))
		}
		dst.Append(&Node{Kind: KindRawHTML, Value: buf.String()})

	default:
		// Extension nodes are flattened into their parent.
		convertChildren(dst, n, source)
	}
}

var entityRe = regexp.MustCompile(`^&(?:#[0-9]{1,7}|#[xX][0-9a-fA-F]{1,6}|[A-Za-z][A-Za-z0-9]{1,31});`)

// appendText adds the text of t to dst, resolving backslash escapes and
// character references the way the goldmark HTML writer does. Each escaped
// or referenced character becomes its own Escaped leaf.
func appendText(dst *Node, t *ast.Text, source []byte) {
	v := t.Segment.Value(source)
	if t.IsRaw() {
		dst.Append(NewText(string(v)))
		return
	}

	start := 0
	flush := func(end int, escaped string) {
		if end > start {
			dst.Append(NewText(resolveReferences(v[start:end])))
		}
		if escaped != "" {
			dst.Append(&Node{Kind: KindText, Value: escaped, Escaped: true})
		}
	}
	for i := 0; i < len(v); i++ {
		switch v[i] {
		case '\\':
			if i+1 < len(v) && util.IsPunct(v[i+1]) {
				flush(i, string(v[i+1]))
				i++
				start = i + 1
			}
		case '&':
			m := entityRe.Find(v[i:])
			if m == nil {
				continue
			}
			if r := resolveReferences(m); r != string(m) {
				flush(i, r)
				i += len(m) - 1
				start = i + 1
			}
		}
	}
	flush(len(v), "")
}

func resolveReferences(v []byte) string {
	v = util.ResolveNumericReferences(v)
	v = util.ResolveEntityNames(v)
	return string(v)
}

func appendBlock(dst, node *Node, src ast.Node, source []byte) {
	convertChildren(node, src, source)
	dst.Children = append(dst.Children, node)
}

func lines(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	segs := n.Lines()
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

func inlineText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			buf.Write(v.Segment.Value(source))
			if v.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(v.Value)
		case *WikiLink:
			buf.Write(v.Source)
		default:
			buf.WriteString(inlineText(c, source))
		}
	}
	return buf.String()
}
