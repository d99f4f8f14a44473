package verify

import (
	"testing"
)

func TestSpatialCheckerInBounds(t *testing.T) {
	c := SpatialChecker{CanvasWidth: 1200, CanvasHeight: 630}
	svg := `<svg width="1200" height="630">
		<rect id="bg" x="0" y="0" width="1200" height="630"/>
		<circle id="dot" cx="600" cy="315" r="50"/>
	</svg>`
	if issues := c.Check(svg); len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
}

func TestSpatialCheckerOutOfBounds(t *testing.T) {
	c := SpatialChecker{CanvasWidth: 200, CanvasHeight: 200}
	tests := []struct {
		name      string
		svg       string
		elementID string
		substr    string
	}{
		{
			"negative position",
			`<svg width="200" height="200"><rect id="box" x="-10" y="5" width="20" height="20"/></svg>`,
			"box", "negative position",
		},
		{
			"exceeds width",
			`<svg width="200" height="200"><rect id="box" x="190" y="0" width="50" height="20"/></svg>`,
			"box", "exceeds canvas width",
		},
		{
			"exceeds height",
			`<svg width="200" height="200"><rect id="box" x="0" y="190" width="20" height="50"/></svg>`,
			"box", "exceeds canvas height",
		},
		{
			"circle spills over edge",
			`<svg width="200" height="200"><circle id="dot" cx="195" cy="100" r="20"/></svg>`,
			"dot", "exceeds canvas width",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := c.Check(tt.svg)
			if !hasIssue(issues, KindOutOfBounds, tt.substr) {
				t.Fatalf("Check() = %v, want out_of_bounds containing %q", issues, tt.substr)
			}
			if issues[0].ElementID != tt.elementID {
				t.Errorf("ElementID = %q, want %q", issues[0].ElementID, tt.elementID)
			}
		})
	}
}

func TestSpatialCheckerOverlap(t *testing.T) {
	svg := `<svg width="400" height="400">
		<rect id="a" x="10" y="10" width="100" height="100"/>
		<rect id="b" x="50" y="50" width="100" height="100"/>
	</svg>`

	// Disabled without MinSpacing.
	c := SpatialChecker{CanvasWidth: 400, CanvasHeight: 400}
	if issues := c.Check(svg); len(issues) != 0 {
		t.Fatalf("overlap check should be off with zero MinSpacing, got %v", issues)
	}

	c.MinSpacing = 8
	issues := c.Check(svg)
	if !hasIssue(issues, KindIllegalOverlap, `elements "a" and "b" overlap`) {
		t.Fatalf("Check() = %v, want illegal_overlap", issues)
	}
}

func TestSpatialCheckerSpacingBuffer(t *testing.T) {
	// Boxes 5px apart violate a 10px minimum but not a 2px one.
	svg := `<svg width="400" height="400">
		<rect id="a" x="10" y="10" width="50" height="50"/>
		<rect id="b" x="65" y="10" width="50" height="50"/>
	</svg>`

	c := SpatialChecker{CanvasWidth: 400, CanvasHeight: 400, MinSpacing: 2}
	if issues := c.Check(svg); len(issues) != 0 {
		t.Fatalf("5px gap flagged with 2px buffer: %v", issues)
	}

	c.MinSpacing = 10
	if issues := c.Check(svg); !hasIssue(issues, KindIllegalOverlap, "overlap") {
		t.Fatalf("5px gap not flagged with 10px buffer: %v", issues)
	}
}

func TestSpatialCheckerTextBox(t *testing.T) {
	// Baseline-anchored text: y is the baseline, the box extends one font
	// size above it. Text at y=10 with a 48px font pokes above the canvas.
	svg := `<svg width="600" height="300">
		<text id="title" x="10" y="10" font-size="48">Hi</text>
	</svg>`
	c := SpatialChecker{CanvasWidth: 600, CanvasHeight: 300}
	issues := c.Check(svg)
	if !hasIssue(issues, KindOutOfBounds, "negative position") {
		t.Fatalf("text above canvas not flagged: %v", issues)
	}
}

func TestSpatialCheckerUnparseable(t *testing.T) {
	c := SpatialChecker{CanvasWidth: 100, CanvasHeight: 100}
	issues := c.Check("<svg><nope")
	if !hasIssue(issues, KindInvalidSVG, "failed to parse SVG") {
		t.Fatalf("Check() = %v, want invalid_svg", issues)
	}
}

func TestBoxesOverlap(t *testing.T) {
	a := boundingBox{id: "a", x: 0, y: 0, width: 10, height: 10}
	tests := []struct {
		name   string
		b      boundingBox
		buffer float64
		want   bool
	}{
		{"clear separation", boundingBox{id: "b", x: 50, y: 50, width: 10, height: 10}, 0, false},
		{"direct overlap", boundingBox{id: "b", x: 5, y: 5, width: 10, height: 10}, 0, true},
		{"separated but inside buffer", boundingBox{id: "b", x: 15, y: 0, width: 10, height: 10}, 8, true},
		{"outside buffer", boundingBox{id: "b", x: 25, y: 0, width: 10, height: 10}, 8, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := boxesOverlap(a, tt.b, tt.buffer); got != tt.want {
				t.Errorf("boxesOverlap = %v, want %v", got, tt.want)
			}
		})
	}
}
