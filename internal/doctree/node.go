// Package doctree is a small document tree of block and inline nodes. Trees
// are built from Markdown with goldmark (FromMarkdown) and rendered back to
// HTML (Render); in between, callers may rewrite text leaves in place.
package doctree

import "strings"

// Kind identifies the type of a Node.
type Kind int

const (
	KindDocument Kind = iota
	KindParagraph
	KindTextBlock // paragraph text of a tight list item, rendered without <p>
	KindHeading
	KindBlockquote
	KindList
	KindListItem
	KindCodeBlock
	KindHTMLBlock
	KindThematicBreak

	KindText
	KindCode // inline code span
	KindEmphasis
	KindStrong
	KindLink
	KindImage
	KindRawHTML
	KindLineBreak
)

var kindNames = [...]string{
	KindDocument:      "document",
	KindParagraph:     "paragraph",
	KindTextBlock:     "textblock",
	KindHeading:       "heading",
	KindBlockquote:    "blockquote",
	KindList:          "list",
	KindListItem:      "listitem",
	KindCodeBlock:     "codeblock",
	KindHTMLBlock:     "htmlblock",
	KindThematicBreak: "thematicbreak",
	KindText:          "text",
	KindCode:          "code",
	KindEmphasis:      "emphasis",
	KindStrong:        "strong",
	KindLink:          "link",
	KindImage:         "image",
	KindRawHTML:       "rawhtml",
	KindLineBreak:     "linebreak",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Node is one element of a document tree. Which fields are meaningful
// depends on Kind.
type Node struct {
	Kind Kind

	// Value is the literal content of text, code, code block and raw HTML
	// nodes, and the alt text of images.
	Value string

	Level   int    // heading level
	Ordered bool   // list
	Start   int    // first number of an ordered list
	Info    string // code block language

	Href  string // link destination, image source
	Title string

	// Wiki marks a link produced from a [[wikilink]]. Target is the reference
	// as written; Key is its canonical form.
	Wiki   bool
	Target string
	Key    string

	// Escaped marks a text leaf holding a character written as a backslash
	// escape or character reference. It is never merged with neighbouring
	// text, so it cannot complete a "[[" opener.
	Escaped bool

	Children []*Node
}

// NewText returns a text leaf.
func NewText(s string) *Node {
	return &Node{Kind: KindText, Value: s}
}

// NewDocument returns a document root holding children.
func NewDocument(children ...*Node) *Node {
	return &Node{Kind: KindDocument, Children: children}
}

// NewParagraph returns a paragraph holding children.
func NewParagraph(children ...*Node) *Node {
	return &Node{Kind: KindParagraph, Children: children}
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Append adds child to n, merging it into a preceding text leaf when both
// are plain text.
func (n *Node) Append(child *Node) {
	if child.Kind == KindText && !child.Escaped && len(n.Children) > 0 {
		if last := n.Children[len(n.Children)-1]; last.Kind == KindText && !last.Escaped {
			last.Value += child.Value
			return
		}
	}
	n.Children = append(n.Children, child)
}

// Splice replaces the child at index i with nodes.
func (n *Node) Splice(i int, nodes ...*Node) {
	tail := append([]*Node(nil), n.Children[i+1:]...)
	n.Children = append(append(n.Children[:i], nodes...), tail...)
}

// PlainText returns the concatenated text content of n and its descendants.
func (n *Node) PlainText() string {
	var b strings.Builder
	n.plainText(&b)
	return b.String()
}

func (n *Node) plainText(b *strings.Builder) {
	switch n.Kind {
	case KindText, KindCode, KindCodeBlock:
		b.WriteString(n.Value)
		return
	case KindLineBreak:
		b.WriteByte('\n')
		return
	}
	for _, c := range n.Children {
		c.plainText(b)
	}
}

// VisitFunc is called for every node during Walk with the node's parent and
// its index among the parent's children (nil and -1 for the root). Returning
// false skips the node's descendants.
type VisitFunc func(n, parent *Node, index int) bool

// Walk visits root and its descendants depth-first in document order.
func Walk(root *Node, fn VisitFunc) {
	walk(root, nil, -1, fn)
}

func walk(n, parent *Node, index int, fn VisitFunc) {
	if !fn(n, parent, index) {
		return
	}
	for i, c := range n.Children {
		walk(c, n, i, fn)
	}
}
