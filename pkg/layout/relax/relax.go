// Package relax wraps the constraint solver in a progressive relaxation
// ladder. Each rung gives up a little more fidelity in exchange for
// feasibility: first aesthetic constraints go, then structural ones, then
// element sizes shrink and margins halve. The final rung is a computed
// vertical stack that needs no solver at all, so the engine always returns
// a drawable layout.
package relax

import (
	"fmt"
	"time"

	"github.com/canvasmith/canvasmith/pkg/layout"
	"github.com/canvasmith/canvasmith/pkg/layout/solver"
)

// Defaults for the relaxation ladder.
const (
	// DefaultMaxAttempts is the number of solver attempts before the
	// stack fallback takes over.
	DefaultMaxAttempts = 5

	// MarginFloor is the smallest value margin-halving reduces to.
	MarginFloor = 4

	// shrinkNumer/shrinkDenom scale minimum sizes on the shrink rung.
	shrinkNumer = 4
	shrinkDenom = 5

	// Stack fallback geometry.
	stackInset     = 16
	stackMinHeight = 40
	stackMaxHeight = 80
)

// Options configures a relaxation run.
type Options struct {
	// Budget is the per-attempt solver budget. Zero means the solver default.
	Budget time.Duration
	// MaxAttempts caps solver attempts before the fallback.
	// Zero means DefaultMaxAttempts.
	MaxAttempts int
}

// Attempt records one rung of the ladder for diagnostics.
type Attempt struct {
	Step        string        `json:"step"`
	Status      solver.Status `json:"status"`
	SolveTimeMs float64       `json:"solveTimeMs"`
}

// Result is the outcome of a relaxation run. Graph always holds solved
// rectangles on every node; Degraded reports whether the stack fallback
// produced them.
type Result struct {
	Graph    *layout.Graph
	Solved   solver.Solved
	Attempts []Attempt
	// Adjustments lists, in order, the concessions made to reach a
	// solution. Empty when the first attempt succeeded.
	Adjustments []string
	// RelaxedTiers names the priority tiers excluded from the successful
	// attempt, in relaxation order.
	RelaxedTiers []string
	Degraded     bool
}

// step is one rung of the ladder: a mutation applied to the working graph
// plus the tier exclusions in force from this rung on.
type step struct {
	name       string
	adjustment string
	exclude    solver.TierSet
	apply      func(*layout.Graph)
}

// Solve runs the relaxation ladder over the graph. The input graph is never
// modified; the result carries its own solved clone.
//
// Solve cannot fail: when every solver attempt is infeasible or out of
// budget, the guaranteed vertical-stack fallback positions the elements
// directly.
func Solve(g *layout.Graph, opts Options) *Result {
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	aesthetic := solver.TierSet{layout.PriorityAesthetic: true}
	structural := solver.TierSet{
		layout.PriorityAesthetic:  true,
		layout.PriorityStructural: true,
	}

	ladder := []step{
		{name: "full"},
		{
			name:       "drop_aesthetic",
			adjustment: "dropped aesthetic constraints (alignment, ideal spacing)",
			exclude:    aesthetic,
		},
		{
			name:       "drop_structural",
			adjustment: "dropped structural constraints (explicit relationships)",
			exclude:    structural,
		},
		{
			name:       "shrink_sizes",
			adjustment: "reduced element sizes by 20%",
			exclude:    structural,
			apply:      shrinkSizes,
		},
		{
			name:       "halve_margins",
			adjustment: fmt.Sprintf("halved spacing margins (floor %dpx)", MarginFloor),
			exclude:    structural,
			apply:      halveMargins,
		},
	}

	res := &Result{}
	working := g.Clone()

	for i, rung := range ladder {
		if i >= maxAttempts {
			break
		}
		if rung.apply != nil {
			rung.apply(working)
		}
		if rung.adjustment != "" {
			res.Adjustments = append(res.Adjustments, rung.adjustment)
		}

		solved := solver.Solve(working, solver.Options{
			Budget:  opts.Budget,
			Exclude: rung.exclude,
		})
		res.Attempts = append(res.Attempts, Attempt{
			Step:        rung.name,
			Status:      solved.Status,
			SolveTimeMs: solved.SolveTimeMs,
		})
		if solved.Success {
			res.Graph = working
			res.Solved = solved
			res.RelaxedTiers = tierNames(rung.exclude)
			return res
		}
	}

	// Nothing solved within budget: position the elements ourselves.
	res.Adjustments = append(res.Adjustments, "applied guaranteed vertical stack fallback")
	res.Attempts = append(res.Attempts, Attempt{Step: "stack_fallback", Status: solver.StatusFeasible})
	res.Graph = stackFallback(g)
	res.RelaxedTiers = []string{
		layout.PriorityAesthetic.String(),
		layout.PriorityStructural.String(),
	}
	res.Degraded = true
	res.Solved = solver.Solved{
		Success: true,
		Status:  solver.StatusFeasible,
		Rects:   solvedRects(res.Graph),
	}
	return res
}

// shrinkSizes scales every fixed and maximum dimension to 80% of its value,
// dragging minimums down with them so the domains stay non-empty.
func shrinkSizes(g *layout.Graph) {
	scale := func(v int) int {
		if v <= 0 {
			return v
		}
		s := v * shrinkNumer / shrinkDenom
		if s < 1 {
			s = 1
		}
		return s
	}
	for _, n := range g.Nodes() {
		n.FixedWidth = scale(n.FixedWidth)
		n.FixedHeight = scale(n.FixedHeight)
		n.MaxWidth = scale(n.MaxWidth)
		n.MaxHeight = scale(n.MaxHeight)
		if n.MaxWidth > 0 && n.MinWidth > n.MaxWidth {
			n.MinWidth = n.MaxWidth
		}
		if n.MaxHeight > 0 && n.MinHeight > n.MaxHeight {
			n.MinHeight = n.MaxHeight
		}
	}
}

// halveMargins halves every edge margin, never below MarginFloor.
func halveMargins(g *layout.Graph) {
	for i, e := range g.Edges() {
		if e.Margin <= MarginFloor {
			continue
		}
		m := e.Margin / 2
		if m < MarginFloor {
			m = MarginFloor
		}
		g.UpdateEdgeMargin(i, m)
	}
}

// stackFallback builds a fresh clone with every node placed in a simple
// vertical stack: full canvas width minus an inset, uniform height, one
// element per band. When the canvas has fewer pixel rows than elements a
// vertical stack cannot fit, so the nodes are arranged in a grid of disjoint
// cells instead. Only hard edges survive; the geometry satisfies canvas
// bounds and non-overlap by construction whenever the canvas has at least
// one pixel per element.
func stackFallback(g *layout.Graph) *layout.Graph {
	out := g.Clone()
	nodes := out.Nodes()
	if len(nodes) == 0 {
		return out
	}

	slot := out.CanvasHeight() / len(nodes)
	if slot < 1 {
		gridFallback(out, nodes)
	} else {
		// Narrow canvases forgo the inset rather than spill past the edge.
		inset := stackInset
		if out.CanvasWidth() <= 2*stackInset {
			inset = 0
		}
		width := out.CanvasWidth() - 2*inset
		height := slot
		if height < stackMinHeight {
			height = stackMinHeight
		}
		if height > stackMaxHeight {
			height = stackMaxHeight
		}
		if height > slot {
			height = slot
		}

		for i, n := range nodes {
			y := i * slot
			if pad := (slot - height) / 2; pad > 0 {
				y += pad
			}
			n.Solved = &layout.Rect{X: inset, Y: y, Width: width, Height: height}
		}
	}

	var hard []layout.Edge
	for _, e := range out.Edges() {
		if e.Priority == layout.PriorityHard {
			hard = append(hard, e)
		}
	}
	// Endpoints are unchanged, SetEdges cannot fail here.
	_ = out.SetEdges(hard)
	return out
}

// gridFallback places the nodes row-major into a grid of equal cells. Column
// count is the smallest that keeps the row count within the canvas height,
// so each cell is at least one pixel in both dimensions as long as the node
// count does not exceed the canvas pixel count (which Graph.Validate
// rejects).
func gridFallback(g *layout.Graph, nodes []*layout.Node) {
	n := len(nodes)
	w, h := g.CanvasWidth(), g.CanvasHeight()

	cols := (n + h - 1) / h
	if cols > w {
		cols = w
	}
	rows := (n + cols - 1) / cols

	cellW := w / cols
	if cellW < 1 {
		cellW = 1
	}
	cellH := h / rows
	if cellH < 1 {
		cellH = 1
	}

	for i, node := range nodes {
		row, col := i/cols, i%cols
		node.Solved = &layout.Rect{
			X:      col * cellW,
			Y:      row * cellH,
			Width:  cellW,
			Height: cellH,
		}
	}
}

// tierNames lists the excluded tiers least-important first, matching the
// order relaxation drops them in.
func tierNames(exclude solver.TierSet) []string {
	var names []string
	if exclude[layout.PriorityAesthetic] {
		names = append(names, layout.PriorityAesthetic.String())
	}
	if exclude[layout.PriorityStructural] {
		names = append(names, layout.PriorityStructural.String())
	}
	return names
}

func solvedRects(g *layout.Graph) map[string]layout.Rect {
	rects := make(map[string]layout.Rect, g.NodeCount())
	for _, n := range g.Nodes() {
		if n.Solved != nil {
			rects[n.ID] = *n.Solved
		}
	}
	return rects
}
