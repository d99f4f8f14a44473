package layout

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
)

// edgeStyles maps priority tiers to DOT edge attributes so that the
// relaxation order is visible at a glance in debug output.
var edgeStyles = map[Priority]string{
	PriorityHard:       `color=black, penwidth=2`,
	PriorityStructural: `color=gray40`,
	PriorityAesthetic:  `color=gray70, style=dashed`,
}

// ToDOT converts a layout graph to Graphviz DOT format for debugging.
// Nodes are labeled with their kind and size domain; edges with their
// relation, margin, and priority tier. Output order follows insertion
// order, so identical graphs produce identical DOT.
func ToDOT(g *Graph) string {
	var buf bytes.Buffer
	buf.WriteString("digraph layout {\n")
	buf.WriteString("  rankdir=TB;\n")
	fmt.Fprintf(&buf, "  label=\"canvas %dx%d\";\n", g.CanvasWidth(), g.CanvasHeight())
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", n.ID, nodeLabel(n))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		label := string(e.Relation)
		if e.Margin != 0 {
			label = fmt.Sprintf("%s %dpx", e.Relation, e.Margin)
		}
		fmt.Fprintf(&buf, "  %q -> %q [label=%q, %s];\n", e.From, e.To, label, edgeStyles[e.Priority])
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLabel(n *Node) string {
	parts := []string{fmt.Sprintf("%s (%s)", n.ID, n.Kind)}
	switch {
	case n.FixedWidth > 0 || n.FixedHeight > 0:
		parts = append(parts, fmt.Sprintf("%dx%d fixed", n.FixedWidth, n.FixedHeight))
	case n.MinWidth > 0 || n.MaxWidth > 0 || n.MinHeight > 0 || n.MaxHeight > 0:
		parts = append(parts, fmt.Sprintf("w %d..%d h %d..%d", n.MinWidth, n.MaxWidth, n.MinHeight, n.MaxHeight))
	}
	if n.Solved != nil {
		parts = append(parts, fmt.Sprintf("@ %d,%d %dx%d", n.Solved.X, n.Solved.Y, n.Solved.Width, n.Solved.Height))
	}
	return strings.Join(parts, "\n")
}

// RenderDOT renders a DOT graph to SVG bytes using Graphviz.
func RenderDOT(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
