package doctree

import (
	"testing"

	"github.com/yuin/goldmark"
)

func parse(t *testing.T, src string) *Node {
	t.Helper()
	return FromMarkdown(goldmark.New(), []byte(src))
}

func TestFromMarkdown_BlocksAndInlines(t *testing.T) {
	doc := parse(t, "# Title\n\nSee [[a]] and `[[code]]`.\n")
	if doc.Kind != KindDocument || len(doc.Children) != 2 {
		t.Fatalf("doc children = %d, want 2", len(doc.Children))
	}
	h := doc.Children[0]
	if h.Kind != KindHeading || h.Level != 1 || h.PlainText() != "Title" {
		t.Errorf("heading = %+v", h)
	}
	p := doc.Children[1]
	if p.Kind != KindParagraph || len(p.Children) != 3 {
		t.Fatalf("paragraph children = %d, want 3", len(p.Children))
	}
	// goldmark splits "[[a]]" into several segments; they come back merged.
	if p.Children[0].Kind != KindText || p.Children[0].Value != "See [[a]] and " {
		t.Errorf("first child = %+v", p.Children[0])
	}
	if p.Children[1].Kind != KindCode || p.Children[1].Value != "[[code]]" {
		t.Errorf("code child = %+v", p.Children[1])
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name, src, want string
	}{
		{"paragraph", "See [[a]] and `[[code]]`.\n", "<p>See [[a]] and <code>[[code]]</code>.</p>\n"},
		{"heading", "## Sub\n", "<h2>Sub</h2>\n"},
		{"tight list", "- one\n- two\n", "<ul>\n<li>one</li>\n<li>two</li>\n</ul>\n"},
		{"ordered list", "3. three\n4. four\n", "<ol start=\"3\">\n<li>three</li>\n<li>four</li>\n</ol>\n"},
		{"fenced code", "```go\nx := 1\n```\n", "<pre><code class=\"language-go\">x := 1\n</code></pre>\n"},
		{"soft break", "line one\nline two\n", "<p>line one\nline two</p>\n"},
		{"emphasis", "*em* and **strong**\n", "<p><em>em</em> and <strong>strong</strong></p>\n"},
		{"entity", "a &amp; b < c\n", "<p>a &amp; b &lt; c</p>\n"},
		{"link", "[site](https://example.com \"T\")\n", "<p><a href=\"https://example.com\" title=\"T\">site</a></p>\n"},
		{"blockquote", "> quoted\n", "<blockquote>\n<p>quoted</p>\n</blockquote>\n"},
		{"rule", "---\n", "<hr>\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(parse(t, tt.src)); got != tt.want {
				t.Errorf("Render = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender_WikiLink(t *testing.T) {
	link := &Node{Kind: KindLink, Wiki: true, Href: "/garden/a", Target: "A & B", Key: "a-b",
		Children: []*Node{NewText("<A>")}}
	got := Render(NewParagraph(link))
	want := `<p><a href="/garden/a" class="wikilink" data-note="A &amp; B">&lt;A&gt;</a></p>` + "\n"
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestAppend_MergesText(t *testing.T) {
	p := NewParagraph()
	p.Append(NewText("a"))
	p.Append(NewText("b"))
	p.Append(&Node{Kind: KindCode, Value: "c"})
	p.Append(NewText("d"))
	if len(p.Children) != 3 || p.Children[0].Value != "ab" {
		t.Errorf("children = %+v", p.Children)
	}
}

func TestSplice(t *testing.T) {
	p := NewParagraph(NewText("a"), NewText("b"), NewText("c"))
	p.Splice(1, NewText("x"), NewText("y"))
	var got []string
	for _, c := range p.Children {
		got = append(got, c.Value)
	}
	if len(got) != 4 || got[0] != "a" || got[1] != "x" || got[2] != "y" || got[3] != "c" {
		t.Errorf("children after splice = %v", got)
	}
}

func TestWalk_OrderAndSkip(t *testing.T) {
	doc := NewDocument(
		NewParagraph(NewText("one"), &Node{Kind: KindEmphasis, Children: []*Node{NewText("two")}}),
		NewParagraph(NewText("three")),
	)
	var seen []string
	Walk(doc, func(n, parent *Node, index int) bool {
		if n.Kind == KindText {
			seen = append(seen, n.Value)
		}
		return n.Kind != KindEmphasis
	})
	if len(seen) != 2 || seen[0] != "one" || seen[1] != "three" {
		t.Errorf("visited = %v", seen)
	}
}

func TestKindString(t *testing.T) {
	if KindLink.String() != "link" || Kind(99).String() != "unknown" {
		t.Errorf("unexpected kind names")
	}
}
