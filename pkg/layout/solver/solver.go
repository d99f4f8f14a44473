package solver

import (
	"slices"
	"time"

	"github.com/canvasmith/canvasmith/pkg/layout"
)

// DefaultBudget is the wall-clock limit for one solve attempt.
const DefaultBudget = 500 * time.Millisecond

// Status describes the outcome of a solve attempt.
type Status string

// Solve statuses. Infeasible and timeout are both reported with
// Success=false; callers treat them uniformly.
const (
	StatusOptimal    Status = "optimal"
	StatusFeasible   Status = "feasible"
	StatusInfeasible Status = "infeasible"
	StatusTimeout    Status = "timeout"
)

// TierSet is a set of priority tiers to exclude from a solve attempt.
type TierSet map[layout.Priority]bool

// Clone returns an independent copy of the set.
func (s TierSet) Clone() TierSet {
	out := make(TierSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Options configures one solve attempt.
type Options struct {
	// Budget is the wall-clock limit. Zero means DefaultBudget.
	Budget time.Duration
	// Exclude lists priority tiers whose edges are omitted from the model
	// for this attempt only.
	Exclude TierSet
}

// Solved is the result of one solve attempt.
// Field names are stable; the struct is serialized in API responses.
type Solved struct {
	Success     bool                   `json:"success" bson:"success"`
	Rects       map[string]layout.Rect `json:"elements" bson:"elements"`
	Status      Status                 `json:"status" bson:"status"`
	SolveTimeMs float64                `json:"solveTimeMs" bson:"solveTimeMs"`
	// Omitted lists constraint descriptions excluded to reach this solution.
	Omitted []string `json:"relaxedConstraints,omitempty" bson:"relaxedConstraints,omitempty"`
}

// Solve searches for one feasible rectangle assignment for every node of
// the graph. On success the solved rectangles are also written back onto
// the graph's nodes, which both the relaxation engine and the downstream
// renderer read.
//
// Feasibility is the only guarantee: the solver picks the first assignment
// the search reaches, not an optimal one.
func Solve(g *layout.Graph, opts Options) Solved {
	budget := opts.Budget
	if budget <= 0 {
		budget = DefaultBudget
	}
	start := time.Now()

	m, omitted := compile(g, opts.Exclude)

	st := &searchState{
		model:    m,
		deadline: start.Add(budget),
	}
	ok := st.search(m.domains, m.cons, make([]bool, len(m.disj)))

	elapsed := time.Since(start)
	if !ok {
		status := StatusInfeasible
		if st.timedOut {
			status = StatusTimeout
		}
		return Solved{
			Success:     false,
			Status:      status,
			SolveTimeMs: float64(elapsed.Microseconds()) / 1000,
		}
	}

	rects := make(map[string]layout.Rect, len(m.order))
	for _, id := range m.order {
		vs := m.vars[id]
		r := layout.Rect{
			X:      st.solution[vs.x].lo,
			Y:      st.solution[vs.y].lo,
			Width:  st.solution[vs.w].lo,
			Height: st.solution[vs.h].lo,
		}
		rects[id] = r
		if n, found := g.Node(id); found {
			solved := r
			n.Solved = &solved
		}
	}

	return Solved{
		Success:     true,
		Rects:       rects,
		Status:      StatusFeasible,
		SolveTimeMs: float64(elapsed.Microseconds()) / 1000,
		Omitted:     omitted,
	}
}

// searchState carries the pieces shared across the whole search tree:
// the compiled model, the deadline, and the first solution found.
type searchState struct {
	model    *model
	deadline time.Time
	timedOut bool
	solution []interval
	nodes    int
}

// search explores one node of the search tree. domains, cons, and resolved
// are owned by this call; branches work on copies.
func (st *searchState) search(domains []interval, cons []linear, resolved []bool) bool {
	st.nodes++
	if st.nodes%64 == 0 && time.Now().After(st.deadline) {
		st.timedOut = true
		return false
	}

	if !propagate(domains, cons) {
		return false
	}

	// Resolve disjunctions: prune falsified alternatives, commit forced
	// ones, and branch on the first genuinely open disjunction.
	for di, d := range st.model.disj {
		if resolved[di] {
			continue
		}
		var viable []linear
		entailed := false
		for _, alt := range d.alts {
			lo, hi := sumBounds(domains, alt.terms)
			if lo > alt.bound {
				continue // falsified
			}
			if hi <= alt.bound {
				entailed = true
				break
			}
			viable = append(viable, alt)
		}
		if entailed {
			resolved[di] = true
			continue
		}
		switch len(viable) {
		case 0:
			return false
		case 1:
			resolved[di] = true
			cons = append(slices.Clip(cons), viable[0])
			if !propagate(domains, cons) {
				return false
			}
			continue
		}

		// Open disjunction: branch over its viable cases.
		for _, alt := range viable {
			branchDomains := slices.Clone(domains)
			branchResolved := slices.Clone(resolved)
			branchResolved[di] = true
			branchCons := append(slices.Clip(cons), alt)
			if st.search(branchDomains, branchCons, branchResolved) {
				return true
			}
			if st.timedOut {
				return false
			}
		}
		return false
	}

	// All disjunctions settled; fix remaining variables by bisection,
	// lower half first so solutions hug the canvas origin.
	for v, iv := range domains {
		if iv.fixed() {
			continue
		}
		mid := iv.lo + (iv.hi-iv.lo)/2
		for _, half := range []interval{{iv.lo, mid}, {mid + 1, iv.hi}} {
			branchDomains := slices.Clone(domains)
			branchDomains[v] = half
			if st.search(branchDomains, cons, slices.Clone(resolved)) {
				return true
			}
			if st.timedOut {
				return false
			}
		}
		return false
	}

	// Every domain is a point: feasible assignment found.
	st.solution = slices.Clone(domains)
	return true
}

// sumBounds returns the minimum and maximum of a linear expression over the
// current domains.
func sumBounds(domains []interval, terms []term) (lo, hi int) {
	for _, t := range terms {
		iv := domains[t.v]
		if t.coef > 0 {
			lo += t.coef * iv.lo
			hi += t.coef * iv.hi
		} else {
			lo += t.coef * iv.hi
			hi += t.coef * iv.lo
		}
	}
	return lo, hi
}

// propagate tightens the domains to a fixpoint under the given constraints.
// Returns false when some domain becomes empty, proving this branch
// infeasible.
func propagate(domains []interval, cons []linear) bool {
	for changed := true; changed; {
		changed = false
		for _, c := range cons {
			lo, _ := sumBounds(domains, c.terms)
			if lo > c.bound {
				return false
			}
			for _, t := range c.terms {
				iv := domains[t.v]
				// Slack available to this term once every other term sits
				// at its minimum.
				var restMin int
				if t.coef > 0 {
					restMin = lo - t.coef*iv.lo
				} else {
					restMin = lo - t.coef*iv.hi
				}
				rhs := c.bound - restMin

				if t.coef > 0 {
					if limit := floorDiv(rhs, t.coef); limit < iv.hi {
						iv.hi = limit
						changed = true
					}
				} else {
					if limit := ceilDiv(rhs, t.coef); limit > iv.lo {
						iv.lo = limit
						changed = true
					}
				}
				if iv.empty() {
					return false
				}
				domains[t.v] = iv
			}
		}
	}
	return true
}
