// Package solver finds feasible integer rectangle assignments for layout
// graphs.
//
// The solver compiles a [layout.Graph] into an integer constraint system
// over per-node (x, y, width, height) variables and searches for one
// feasible assignment. The model always contains canvas-bound containment,
// dimension domains, and pairwise non-overlap; graph edges contribute
// relational inequalities, alignment equalities, and containment enclosure.
// Non-overlap is a disjunction - for each pair, at least one of strictly
// left-of, right-of, above, or below must hold - which rules out a pure
// linear relaxation and motivates the discrete search used here.
//
// The search alternates interval propagation to fixpoint with two kinds of
// branching: case selection on unresolved non-overlap disjunctions, then
// domain bisection on unfixed variables. Typical graphs have well under
// twenty nodes, so this is fast in practice; a wall-clock budget bounds the
// worst case. A timeout without proof and a proven-infeasible exhaustion
// are both reported as failure - callers do not distinguish them, and the
// relaxation engine treats both the same way.
package solver
