package verify

import (
	"reflect"
	"testing"
)

func TestPaletteCheckerDisabled(t *testing.T) {
	for _, palette := range [][]string{nil, {}, {"not-a-color"}} {
		c := NewPaletteChecker(palette)
		if c.Enabled() {
			t.Errorf("palette %v should disable the check", palette)
		}
		svg := `<svg width="10" height="10"><rect width="5" height="5" fill="#123456"/></svg>`
		if issues := c.Check(svg); len(issues) != 0 {
			t.Errorf("disabled checker produced issues: %v", issues)
		}
	}
}

func TestPaletteCheckerApprovedColors(t *testing.T) {
	c := NewPaletteChecker([]string{"#1A1A2E", "white", "rgb(255, 0, 0)"})
	svg := `<svg width="100" height="100">
		<rect x="0" y="0" width="100" height="100" fill="#1a1a2e"/>
		<circle cx="50" cy="50" r="10" fill="#FF0000" stroke="#FFFFFF"/>
	</svg>`
	if issues := c.Check(svg); len(issues) != 0 {
		t.Fatalf("normalized-equal colors rejected: %v", issues)
	}
}

func TestPaletteCheckerViolation(t *testing.T) {
	c := NewPaletteChecker([]string{"#FFFFFF", "#000000"})
	svg := `<svg width="100" height="100">
		<rect x="0" y="0" width="100" height="100" fill="#FFFFFF"/>
		<rect x="10" y="10" width="20" height="20" fill="hotpink"/>
		<rect x="40" y="10" width="20" height="20" fill="#336699"/>
	</svg>`
	issues := c.Check(svg)
	if !hasIssue(issues, KindColorViolation, "unapproved color: #336699 (normalized: #336699)") {
		t.Fatalf("Check() = %v, want color_violation for #336699", issues)
	}
	// hotpink is not a recognized color reference so it cannot violate.
	if len(issues) != 1 {
		t.Errorf("expected exactly 1 issue, got %d: %v", len(issues), issues)
	}
}

func TestPaletteCheckerStyleDeclarations(t *testing.T) {
	c := NewPaletteChecker([]string{"#FFFFFF"})
	svg := `<svg width="100" height="100">
		<rect x="0" y="0" width="100" height="100" style="fill: #ABCDEF; stroke: none"/>
	</svg>`
	issues := c.Check(svg)
	if !hasIssue(issues, KindColorViolation, "unapproved color: #ABCDEF") {
		t.Fatalf("style fill not extracted: %v", issues)
	}
}

func TestPaletteCheckerIgnoresNonPaint(t *testing.T) {
	c := NewPaletteChecker([]string{"#FFFFFF"})
	svg := `<svg width="100" height="100">
		<rect x="0" y="0" width="100" height="100" fill="#FFFFFF"/>
		<rect x="10" y="10" width="20" height="20" fill="none" stroke="transparent"/>
		<circle cx="50" cy="50" r="10" fill="url(#gradient)"/>
	</svg>`
	if issues := c.Check(svg); len(issues) != 0 {
		t.Fatalf("non-paint references flagged: %v", issues)
	}
}

func TestPaletteCheckerApprovedSorted(t *testing.T) {
	c := NewPaletteChecker([]string{"#FF0000", "#00FF00", "#0000FF"})
	want := []string{"#0000FF", "#00FF00", "#FF0000"}
	if got := c.Approved(); !reflect.DeepEqual(got, want) {
		t.Errorf("Approved() = %v, want %v", got, want)
	}
}

func TestExtractColors(t *testing.T) {
	svg := `<svg width="100" height="100">
		<rect fill="#AAA" stroke="#BBB" width="10" height="10"/>
		<stop stop-color="#CCC"/>
		<text style="Fill: #DDD" x="1" y="1">x</text>
		<rect fill="#AAA" width="5" height="5"/>
	</svg>`
	want := []string{"#AAA", "#BBB", "#CCC", "#DDD"}
	if got := extractColors(svg); !reflect.DeepEqual(got, want) {
		t.Errorf("extractColors = %v, want %v", got, want)
	}
}
