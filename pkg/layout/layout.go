package layout

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists. Node IDs are unique across the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// does not exist in the graph.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrInvalidCanvas is returned by [New] when the canvas dimensions are
	// not positive.
	ErrInvalidCanvas = errors.New("canvas dimensions must be positive")
)

// Kind classifies a design element.
type Kind string

// Element kinds understood by the solver and the renderer.
const (
	KindText      Kind = "text"
	KindImage     Kind = "image"
	KindShape     Kind = "shape"
	KindContainer Kind = "container"
)

// Anchor is the reference point used when positioning hints are given.
type Anchor string

// Anchor points, row-major from the top left.
const (
	AnchorTopLeft      Anchor = "top_left"
	AnchorTopCenter    Anchor = "top_center"
	AnchorTopRight     Anchor = "top_right"
	AnchorCenterLeft   Anchor = "center_left"
	AnchorCenter       Anchor = "center"
	AnchorCenterRight  Anchor = "center_right"
	AnchorBottomLeft   Anchor = "bottom_left"
	AnchorBottomCenter Anchor = "bottom_center"
	AnchorBottomRight  Anchor = "bottom_right"
)

// Relation is the kind of spatial constraint an edge expresses.
type Relation string

// Edge relations. Relational edges carry a minimum margin, alignment edges
// equate a coordinate, and RelationInside encloses the target in the source.
const (
	RelationBelow   Relation = "below"
	RelationAbove   Relation = "above"
	RelationLeftOf  Relation = "left_of"
	RelationRightOf Relation = "right_of"

	RelationAlignLeft    Relation = "align_left"
	RelationAlignRight   Relation = "align_right"
	RelationAlignCenterX Relation = "align_center_x"
	RelationAlignCenterY Relation = "align_center_y"
	RelationAlignTop     Relation = "align_top"
	RelationAlignBottom  Relation = "align_bottom"

	RelationInside Relation = "inside"
)

// IsAlignment reports whether the relation equates coordinates rather than
// separating them.
func (r Relation) IsAlignment() bool {
	switch r {
	case RelationAlignLeft, RelationAlignRight, RelationAlignCenterX,
		RelationAlignCenterY, RelationAlignTop, RelationAlignBottom:
		return true
	}
	return false
}

// Priority is the relaxation tier of an edge. Lower values are more
// important; PriorityHard edges are never dropped.
type Priority int

const (
	// PriorityHard marks constraints that must always hold (canvas bounds,
	// non-overlap, containment).
	PriorityHard Priority = 0
	// PriorityStructural marks explicit spatial relationships.
	PriorityStructural Priority = 1
	// PriorityAesthetic marks alignment and ideal spacing.
	PriorityAesthetic Priority = 2
)

// String returns the tier name used in adjustment logs.
func (p Priority) String() string {
	switch p {
	case PriorityHard:
		return "hard"
	case PriorityStructural:
		return "structural"
	case PriorityAesthetic:
		return "aesthetic"
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

// Rect is an axis-aligned pixel rectangle.
type Rect struct {
	X      int `json:"x" bson:"x"`
	Y      int `json:"y" bson:"y"`
	Width  int `json:"width" bson:"width"`
	Height int `json:"height" bson:"height"`
}

// Right returns the x coordinate one past the rectangle's right edge.
func (r Rect) Right() int { return r.X + r.Width }

// Bottom returns the y coordinate one past the rectangle's bottom edge.
func (r Rect) Bottom() int { return r.Y + r.Height }

// Node is a design element in the layout graph.
//
// Dimension fields describe the solver's search domain: Fixed values pin a
// dimension exactly and take precedence over Min/Max. Zero Max means
// unconstrained up to the canvas. The Solved rectangle is written once per
// solve attempt by the solver that owns the graph.
type Node struct {
	ID   string `json:"id" bson:"id"`
	Kind Kind   `json:"kind" bson:"kind"`

	MinWidth  int `json:"min_width,omitempty" bson:"min_width,omitempty"`
	MaxWidth  int `json:"max_width,omitempty" bson:"max_width,omitempty"`
	MinHeight int `json:"min_height,omitempty" bson:"min_height,omitempty"`
	MaxHeight int `json:"max_height,omitempty" bson:"max_height,omitempty"`

	FixedWidth  int `json:"fixed_width,omitempty" bson:"fixed_width,omitempty"`
	FixedHeight int `json:"fixed_height,omitempty" bson:"fixed_height,omitempty"`

	Anchor Anchor `json:"anchor,omitempty" bson:"anchor,omitempty"`

	Content  string `json:"content,omitempty" bson:"content,omitempty"`
	FontSize int    `json:"font_size,omitempty" bson:"font_size,omitempty"`

	// Solved is the rectangle assigned by the most recent successful solve,
	// nil before the first success.
	Solved *Rect `json:"solved,omitempty" bson:"solved,omitempty"`
}

// Edge is a spatial constraint between two nodes.
// Margin is the minimum signed gap for relational edges, in pixels.
type Edge struct {
	From     string   `json:"from" bson:"from"`
	To       string   `json:"to" bson:"to"`
	Relation Relation `json:"relation" bson:"relation"`
	Margin   int      `json:"margin,omitempty" bson:"margin,omitempty"`
	Priority Priority `json:"priority" bson:"priority"`
}

// Graph is the layout graph: a canvas, a set of uniquely identified nodes,
// and an ordered edge list.
//
// The zero value is not usable - use [New]. Graph is not safe for concurrent
// use; each generation request owns its own instance.
type Graph struct {
	canvasWidth  int
	canvasHeight int
	nodes        map[string]*Node
	order        []string // insertion order of node IDs
	edges        []Edge
}

// New creates an empty layout graph for the given canvas.
// Returns ErrInvalidCanvas if either dimension is not positive.
func New(canvasWidth, canvasHeight int) (*Graph, error) {
	if canvasWidth <= 0 || canvasHeight <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidCanvas, canvasWidth, canvasHeight)
	}
	return &Graph{
		canvasWidth:  canvasWidth,
		canvasHeight: canvasHeight,
		nodes:        make(map[string]*Node),
	}, nil
}

// CanvasWidth returns the canvas width in pixels.
func (g *Graph) CanvasWidth() int { return g.canvasWidth }

// CanvasHeight returns the canvas height in pixels.
func (g *Graph) CanvasHeight() int { return g.canvasHeight }

// AddNode adds a node to the graph.
// Returns ErrInvalidNodeID for an empty ID or ErrDuplicateNodeID if the ID
// is already taken.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateNodeID, n.ID)
	}
	if n.Anchor == "" {
		n.Anchor = AnchorTopLeft
	}
	node := &n
	g.nodes[node.ID] = node
	g.order = append(g.order, node.ID)
	return nil
}

// AddEdge adds a constraint between two existing nodes.
// Returns ErrUnknownSourceNode or ErrUnknownTargetNode when an endpoint is
// missing; no partial edge is recorded.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSourceNode, e.From)
	}
	if _, ok := g.nodes[e.To]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTargetNode, e.To)
	}
	g.edges = append(g.edges, e)
	return nil
}

// Node returns the node with the given ID and true, or nil and false.
// The pointer refers to the graph's own record; the solver uses it to write
// back solved rectangles.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
// The slice contains pointers to the graph's records.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// Edges returns a copy of the edge list in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// SetEdges replaces the edge list. It is used by the relaxation engine's
// final fallback, which discards everything but hard edges. All endpoints
// must already exist in the graph.
func (g *Graph) SetEdges(edges []Edge) error {
	for _, e := range edges {
		if _, ok := g.nodes[e.From]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownSourceNode, e.From)
		}
		if _, ok := g.nodes[e.To]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownTargetNode, e.To)
		}
	}
	g.edges = slices.Clone(edges)
	return nil
}

// UpdateEdgeMargin rewrites the margin of the edge at index i.
// Used by the relaxation engine when halving margins.
func (g *Graph) UpdateEdgeMargin(i, margin int) {
	if i >= 0 && i < len(g.edges) {
		g.edges[i].Margin = margin
	}
}

// Clone returns a deep copy of the graph. Node records, solved rectangles,
// and the edge list are all independent of the original; the relaxation
// engine mutates clones so failed attempts never corrupt the input.
func (g *Graph) Clone() *Graph {
	out := &Graph{
		canvasWidth:  g.canvasWidth,
		canvasHeight: g.canvasHeight,
		nodes:        make(map[string]*Node, len(g.nodes)),
		order:        slices.Clone(g.order),
		edges:        slices.Clone(g.edges),
	}
	for id, n := range g.nodes {
		copied := *n
		if n.Solved != nil {
			solved := *n.Solved
			copied.Solved = &solved
		}
		out.nodes[id] = &copied
	}
	return out
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// StructuralError describes one defect found by [Graph.Validate].
type StructuralError struct {
	NodeID  string // offending node, empty for graph-level defects
	Message string
}

// Error implements the error interface.
func (e StructuralError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("node %q: %s", e.NodeID, e.Message)
	}
	return e.Message
}

// Validate checks the graph's structural integrity and returns all defects
// found. It has no side effects. Checks:
//
//  1. Containment edges form a DAG (cyclic containment is an error).
//  2. Fixed dimensions do not exceed the canvas.
//  3. The element count does not exceed the canvas pixel count; beyond that
//     no placement can keep one-pixel elements disjoint.
//
// An empty result means the graph is structurally sound and safe to solve.
func (g *Graph) Validate() []StructuralError {
	var errs []StructuralError

	if g.containmentHasCycle() {
		errs = append(errs, StructuralError{Message: "circular containment detected"})
	}

	if n := len(g.order); n > g.canvasWidth*g.canvasHeight {
		errs = append(errs, StructuralError{
			Message: fmt.Sprintf("%d elements cannot fit a %dx%d canvas", n, g.canvasWidth, g.canvasHeight),
		})
	}

	for _, id := range g.order {
		n := g.nodes[id]
		if n.FixedWidth > g.canvasWidth {
			errs = append(errs, StructuralError{
				NodeID:  id,
				Message: fmt.Sprintf("fixed width %d exceeds canvas width %d", n.FixedWidth, g.canvasWidth),
			})
		}
		if n.FixedHeight > g.canvasHeight {
			errs = append(errs, StructuralError{
				NodeID:  id,
				Message: fmt.Sprintf("fixed height %d exceeds canvas height %d", n.FixedHeight, g.canvasHeight),
			})
		}
	}

	return errs
}

// containmentHasCycle runs DFS with white/gray/black coloring over the
// subgraph induced by containment edges only.
func (g *Graph) containmentHasCycle() bool {
	adjacency := make(map[string][]string)
	for _, e := range g.edges {
		if e.Relation == RelationInside {
			adjacency[e.From] = append(adjacency[e.From], e.To)
		}
	}
	if len(adjacency) == 0 {
		return false
	}

	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(adjacency))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range adjacency[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
				return
			}
		}
		color[id] = black
	}

	for id := range adjacency {
		if color[id] == white {
			dfs(id)
			if hasCycle {
				return true
			}
		}
	}
	return false
}
