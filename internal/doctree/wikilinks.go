package doctree

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/starford/grove/internal/wikilink"
)

// KindWikiLink is the goldmark node kind of a protected [[...]] span.
var KindWikiLink = ast.NewNodeKind("WikiLink")

// WikiLink is an unresolved [[...]] span claimed during inline parsing.
// Offset is the byte position of its opening bracket in the source.
type WikiLink struct {
	ast.BaseInline
	Source []byte
	Offset int
}

// Kind implements ast.Node.
func (n *WikiLink) Kind() ast.NodeKind { return KindWikiLink }

// Text implements ast.Node.
func (n *WikiLink) Text(_ []byte) []byte { return n.Source }

// Dump implements ast.Node.
func (n *WikiLink) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Source": string(n.Source)}, nil)
}

// WikiLinks is a goldmark extension that keeps [[...]] spans away from
// goldmark's own bracket handling. Without it "[[a]]" next to a "[a]: url"
// definition parses as a reference link, and the span is split across
// nodes. Escaped openers ("\[[a]]") are not claimed, and claimed spans
// render as literal text; resolving them is left to the caller.
var WikiLinks goldmark.Extender = wikiLinks{}

type wikiLinks struct{}

func (wikiLinks) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		// Ahead of the link parser (200).
		util.Prioritized(wikiLinkParser{}, 199),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(wikiLinkHTMLRenderer{}, 500),
	))
}

type wikiLinkParser struct{}

func (wikiLinkParser) Trigger() []byte { return []byte{'[', '!'} }

// Parse claims a link starting at the cursor. Labels may continue on
// following lines of the same paragraph, so lines are joined until the
// first "]" shows whether the link closes.
func (wikiLinkParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, seg := block.PeekLine()
	if len(line) > 0 && line[0] == '!' {
		// "![[a]]" is a bang followed by a link, not an image.
		if !wikilink.LeadingPattern.Match(line[1:]) {
			return nil
		}
		block.Advance(1)
		return ast.NewTextSegment(seg.WithStop(seg.Start + 1))
	}
	if len(line) < 2 || line[1] != '[' {
		return nil
	}
	startLine, startSeg := block.Position()

	buf := append([]byte(nil), line...)
	lens := []int{len(line)}
	for {
		if loc := wikilink.LeadingPattern.FindIndex(buf); loc != nil {
			block.SetPosition(startLine, startSeg)
			n := loc[1]
			for _, l := range lens[:len(lens)-1] {
				block.AdvanceLine()
				n -= l
			}
			block.Advance(n)
			return &WikiLink{Source: buf[:loc[1]], Offset: seg.Start}
		}
		if bytes.IndexByte(buf[2:], ']') >= 0 {
			break
		}
		block.AdvanceLine()
		next, _ := block.PeekLine()
		if next == nil {
			break
		}
		buf = append(buf, next...)
		lens = append(lens, len(next))
	}
	block.SetPosition(startLine, startSeg)
	return nil
}

type wikiLinkHTMLRenderer struct{}

func (wikiLinkHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindWikiLink, renderWikiLink)
}

func renderWikiLink(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.Write(util.EscapeHTML(n.(*WikiLink).Source))
	}
	return ast.WalkSkipChildren, nil
}

// LiveLinks parses source with md, which must include WikiLinks, and
// returns the offsets of the [[...]] spans that sit in plain text: not
// escaped, not inside a code span, raw HTML, link label or image alt.
func LiveLinks(md goldmark.Markdown, source []byte) map[int]bool {
	root := md.Parser().Parse(text.NewReader(source))
	live := make(map[int]bool)
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Link, *ast.Image:
			return ast.WalkSkipChildren, nil
		case *WikiLink:
			live[v.Offset] = true
		}
		return ast.WalkContinue, nil
	})
	return live
}
