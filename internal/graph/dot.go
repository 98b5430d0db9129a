package graph

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/starford/grove/internal/models"
)

// ToDOT converts g to an undirected Graphviz document. Nodes are labelled
// with their title and filled with their topic colour.
func ToDOT(g *Graph) string {
	colors := make(map[string]string, len(models.Topics))
	for _, t := range models.Topics {
		colors[t.Slug] = t.Color
	}

	var buf bytes.Buffer
	buf.WriteString("graph garden {\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.15,0.05\"];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		attrs := []string{fmt.Sprintf("label=%q", labelFor(n)), fmt.Sprintf("URL=%q", n.Href)}
		if c, ok := colors[n.Topic]; ok {
			attrs = append(attrs, fmt.Sprintf("fillcolor=%q", c))
		}
		if n.Maturity == models.MaturityEvergreen {
			attrs = append(attrs, "penwidth=2")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %q -- %q;\n", e.Source, e.Target)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func labelFor(n Node) string {
	if n.Title != "" {
		return n.Title
	}
	return n.ID
}

// RenderSVG lays out a DOT document with Graphviz and returns SVG bytes.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("graph: init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("graph: parse dot: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("graph: render svg: %w", err)
	}
	return buf.Bytes(), nil
}
