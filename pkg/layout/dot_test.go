package layout

import (
	"strings"
	"testing"
)

func TestToDOT(t *testing.T) {
	g, _ := New(1200, 630)
	_ = g.AddNode(Node{ID: "bg", Kind: KindContainer, FixedWidth: 1200, FixedHeight: 630})
	_ = g.AddNode(Node{ID: "title", Kind: KindText, MinWidth: 100, MaxWidth: 800})
	_ = g.AddEdge(Edge{From: "bg", To: "title", Relation: RelationInside, Priority: PriorityHard})
	_ = g.AddEdge(Edge{From: "title", To: "bg", Relation: RelationAlignCenterX, Priority: PriorityAesthetic})

	dot := ToDOT(g)

	if !strings.HasPrefix(dot, "digraph layout {") {
		t.Errorf("dot header: %s", dot[:30])
	}
	if !strings.Contains(dot, `label="canvas 1200x630"`) {
		t.Error("missing canvas label")
	}
	if !strings.Contains(dot, "1200x630 fixed") {
		t.Error("missing fixed size in node label")
	}
	if !strings.Contains(dot, "w 100..800") {
		t.Error("missing size domain in node label")
	}
	if !strings.Contains(dot, `"bg" -> "title"`) {
		t.Error("missing containment edge")
	}
	if !strings.Contains(dot, "style=dashed") {
		t.Error("aesthetic edges should be dashed")
	}
}

func TestToDOTDeterministic(t *testing.T) {
	build := func() *Graph {
		g, _ := New(800, 600)
		for _, id := range []string{"c", "a", "b"} {
			_ = g.AddNode(Node{ID: id})
		}
		_ = g.AddEdge(Edge{From: "c", To: "a", Relation: RelationBelow, Margin: 10})
		return g
	}

	if ToDOT(build()) != ToDOT(build()) {
		t.Error("identical graphs should produce identical DOT")
	}
}

func TestToDOTSolvedPosition(t *testing.T) {
	g, _ := New(800, 600)
	_ = g.AddNode(Node{ID: "a"})
	n, _ := g.Node("a")
	n.Solved = &Rect{X: 10, Y: 20, Width: 100, Height: 50}

	if !strings.Contains(ToDOT(g), "@ 10,20 100x50") {
		t.Error("solved rect should appear in the node label")
	}
}
