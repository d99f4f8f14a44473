package solver

import (
	"fmt"

	"github.com/canvasmith/canvasmith/pkg/layout"
)

// interval is an inclusive integer domain [lo, hi]. Empty when lo > hi.
type interval struct {
	lo, hi int
}

func (iv interval) empty() bool { return iv.lo > iv.hi }
func (iv interval) fixed() bool { return iv.lo == iv.hi }

// term is one addend of a linear expression: coef * variable.
type term struct {
	coef int
	v    int // variable index
}

// linear is the constraint sum(terms) <= bound. Equalities are compiled to
// two opposed inequalities at model-build time.
type linear struct {
	terms []term
	bound int
}

// negate returns the constraint -sum(terms) <= -bound, which together with
// the original encodes equality.
func (c linear) negate() linear {
	terms := make([]term, len(c.terms))
	for i, t := range c.terms {
		terms[i] = term{coef: -t.coef, v: t.v}
	}
	return linear{terms: terms, bound: -c.bound}
}

// disjunction requires at least one alternative constraint to hold. Used
// exclusively for pairwise non-overlap, where the four alternatives are the
// four strict separations.
type disjunction struct {
	desc string
	alts []linear
}

// varSet indexes the four variables of one node.
type varSet struct {
	x, y, w, h int
}

// model is a compiled constraint system: variable domains, hard linear
// constraints, and non-overlap disjunctions. Each solve attempt builds its
// model from scratch, so an aborted attempt leaves no residual state.
type model struct {
	domains []interval
	cons    []linear
	disj    []disjunction

	vars  map[string]varSet
	order []string // node IDs in graph order
}

func clampMax(v, limit int) int {
	if v <= 0 || v > limit {
		return limit
	}
	return v
}

// compile translates the graph into a model, omitting edges whose priority
// tier is in exclude. The omitted constraint descriptions are returned for
// reporting; the graph's stored edges are untouched.
func compile(g *layout.Graph, exclude TierSet) (*model, []string) {
	m := &model{vars: make(map[string]varSet)}

	newVar := func(lo, hi int) int {
		m.domains = append(m.domains, interval{lo: lo, hi: hi})
		return len(m.domains) - 1
	}

	cw, ch := g.CanvasWidth(), g.CanvasHeight()

	for _, n := range g.Nodes() {
		minW, maxW := max(1, n.MinWidth), clampMax(n.MaxWidth, cw)
		if n.FixedWidth > 0 {
			minW, maxW = n.FixedWidth, n.FixedWidth
		}
		minH, maxH := max(1, n.MinHeight), clampMax(n.MaxHeight, ch)
		if n.FixedHeight > 0 {
			minH, maxH = n.FixedHeight, n.FixedHeight
		}

		vs := varSet{
			x: newVar(0, cw),
			y: newVar(0, ch),
			w: newVar(minW, maxW),
			h: newVar(minH, maxH),
		}
		m.vars[n.ID] = vs
		m.order = append(m.order, n.ID)

		// x + w <= canvas width, y + h <= canvas height. The lower bounds
		// are already part of the variable domains.
		m.addLeq(linear{terms: []term{{1, vs.x}, {1, vs.w}}, bound: cw})
		m.addLeq(linear{terms: []term{{1, vs.y}, {1, vs.h}}, bound: ch})
	}

	// Pairwise non-overlap: at least one strict separation per pair.
	for i, idA := range m.order {
		for _, idB := range m.order[i+1:] {
			a, b := m.vars[idA], m.vars[idB]
			m.disj = append(m.disj, disjunction{
				desc: fmt.Sprintf("no_overlap_%s_%s", idA, idB),
				alts: []linear{
					{terms: []term{{1, a.x}, {1, a.w}, {-1, b.x}}, bound: 0}, // A left of B
					{terms: []term{{1, b.x}, {1, b.w}, {-1, a.x}}, bound: 0}, // A right of B
					{terms: []term{{1, a.y}, {1, a.h}, {-1, b.y}}, bound: 0}, // A above B
					{terms: []term{{1, b.y}, {1, b.h}, {-1, a.y}}, bound: 0}, // A below B
				},
			})
		}
	}

	var omitted []string
	for _, e := range g.Edges() {
		if exclude[e.Priority] {
			omitted = append(omitted, fmt.Sprintf("%s_%s_%s (%s)", e.From, e.Relation, e.To, e.Priority))
			continue
		}
		m.addEdge(e)
	}

	return m, omitted
}

func (m *model) addLeq(c linear) { m.cons = append(m.cons, c) }

func (m *model) addEq(c linear) {
	m.cons = append(m.cons, c, c.negate())
}

// addEdge compiles one graph edge into linear constraints.
func (m *model) addEdge(e layout.Edge) {
	a, okA := m.vars[e.From]
	b, okB := m.vars[e.To]
	if !okA || !okB {
		return
	}

	switch e.Relation {
	case layout.RelationBelow:
		// a.y + a.h + margin <= b.y
		m.addLeq(linear{terms: []term{{1, a.y}, {1, a.h}, {-1, b.y}}, bound: -e.Margin})
	case layout.RelationAbove:
		m.addLeq(linear{terms: []term{{1, b.y}, {1, b.h}, {-1, a.y}}, bound: -e.Margin})
	case layout.RelationRightOf:
		m.addLeq(linear{terms: []term{{1, a.x}, {1, a.w}, {-1, b.x}}, bound: -e.Margin})
	case layout.RelationLeftOf:
		m.addLeq(linear{terms: []term{{1, b.x}, {1, b.w}, {-1, a.x}}, bound: -e.Margin})

	case layout.RelationAlignLeft:
		m.addEq(linear{terms: []term{{1, a.x}, {-1, b.x}}, bound: 0})
	case layout.RelationAlignRight:
		m.addEq(linear{terms: []term{{1, a.x}, {1, a.w}, {-1, b.x}, {-1, b.w}}, bound: 0})
	case layout.RelationAlignTop:
		m.addEq(linear{terms: []term{{1, a.y}, {-1, b.y}}, bound: 0})
	case layout.RelationAlignBottom:
		m.addEq(linear{terms: []term{{1, a.y}, {1, a.h}, {-1, b.y}, {-1, b.h}}, bound: 0})
	case layout.RelationAlignCenterX:
		// Centers compared as 2x + w to stay integral.
		m.addEq(linear{terms: []term{{2, a.x}, {1, a.w}, {-2, b.x}, {-1, b.w}}, bound: 0})
	case layout.RelationAlignCenterY:
		m.addEq(linear{terms: []term{{2, a.y}, {1, a.h}, {-2, b.y}, {-1, b.h}}, bound: 0})

	case layout.RelationInside:
		// Child b fully enclosed in container a on both axes.
		m.addLeq(linear{terms: []term{{1, a.x}, {-1, b.x}}, bound: 0})
		m.addLeq(linear{terms: []term{{1, b.x}, {1, b.w}, {-1, a.x}, {-1, a.w}}, bound: 0})
		m.addLeq(linear{terms: []term{{1, a.y}, {-1, b.y}}, bound: 0})
		m.addLeq(linear{terms: []term{{1, b.y}, {1, b.h}, {-1, a.y}, {-1, a.h}}, bound: 0})
	}
}

// floorDiv and ceilDiv round toward -inf and +inf respectively for any sign
// combination, which plain integer division does not.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func ceilDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) == (b < 0)) {
		q++
	}
	return q
}
