// Package layout defines the layout graph: a typed model of a design's
// elements and the spatial relationships between them.
//
// A [Graph] holds nodes (text, image, shape, container) keyed by ID and an
// ordered list of relational edges. Edges carry a [Priority] tier that
// governs the relaxation order when the constraint solver cannot satisfy
// the full set:
//
//   - PriorityHard: canvas bounds, non-overlap, containment. Never relaxed.
//   - PriorityStructural: explicit spatial relationships (A below B).
//   - PriorityAesthetic: alignment and ideal spacing.
//
// Graphs are built either directly with [Graph.AddNode] and [Graph.AddEdge],
// or from an externally generated structural description via [FromDescription].
// A graph is mutated only during construction and by the relaxation engine
// between solve attempts; it is discarded when the generation attempt ends.
//
// The containment relation (RelationInside) must form a DAG. [Graph.Validate]
// detects cycles with a depth-first search restricted to containment edges,
// alongside dimension sanity checks. Validation never mutates the graph and
// never returns a partial result.
package layout
