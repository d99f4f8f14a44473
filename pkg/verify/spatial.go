package verify

import (
	"fmt"
	"regexp"
	"strconv"
)

// boundingBox is an element's estimated pixel extent.
type boundingBox struct {
	id     string
	x, y   float64
	width  float64
	height float64
}

func (b boundingBox) right() float64  { return b.x + b.width }
func (b boundingBox) bottom() float64 { return b.y + b.height }

var leadingDigitsRe = regexp.MustCompile(`^(\d+)`)

// SpatialChecker is verification layer 2: every element's bounding box must
// sit inside the canvas, and, when MinSpacing is positive, elements must
// keep that distance from each other. Findings here are correctable by the
// constraint solver.
type SpatialChecker struct {
	CanvasWidth  int
	CanvasHeight int
	// MinSpacing enables the pairwise overlap check and pads each box by
	// this many pixels. Zero disables the check.
	MinSpacing int
}

// Check validates the candidate's geometry.
func (c SpatialChecker) Check(svg string) []Issue {
	root, err := parseSVG(svg)
	if err != nil {
		return []Issue{{
			Kind:     KindInvalidSVG,
			Severity: SeverityCritical,
			Message:  "failed to parse SVG: " + err.Error(),
		}}
	}

	boxes := extractBoxes(root)
	var issues []Issue

	for _, b := range boxes {
		if b.x < 0 || b.y < 0 {
			issues = append(issues, Issue{
				Kind:      KindOutOfBounds,
				Severity:  SeverityCritical,
				ElementID: b.id,
				Message:   fmt.Sprintf("element %q has negative position (%g, %g)", b.id, b.x, b.y),
			})
		}
		if b.right() > float64(c.CanvasWidth) {
			issues = append(issues, Issue{
				Kind:      KindOutOfBounds,
				Severity:  SeverityCritical,
				ElementID: b.id,
				Message: fmt.Sprintf("element %q exceeds canvas width (right edge at %gpx, canvas is %dpx)",
					b.id, b.right(), c.CanvasWidth),
			})
		}
		if b.bottom() > float64(c.CanvasHeight) {
			issues = append(issues, Issue{
				Kind:      KindOutOfBounds,
				Severity:  SeverityCritical,
				ElementID: b.id,
				Message: fmt.Sprintf("element %q exceeds canvas height (bottom edge at %gpx, canvas is %dpx)",
					b.id, b.bottom(), c.CanvasHeight),
			})
		}
	}

	if c.MinSpacing > 0 {
		buffer := float64(c.MinSpacing)
		for i, a := range boxes {
			for _, b := range boxes[i+1:] {
				if boxesOverlap(a, b, buffer) {
					issues = append(issues, Issue{
						Kind:      KindIllegalOverlap,
						Severity:  SeverityError,
						ElementID: a.id,
						Message:   fmt.Sprintf("elements %q and %q overlap", a.id, b.id),
					})
				}
			}
		}
	}

	return issues
}

// extractBoxes walks the document and estimates a bounding box for each
// geometric element. Elements without an id get a positional one.
func extractBoxes(root *svgElement) []boundingBox {
	var boxes []boundingBox
	counter := 0

	root.walk(func(el *svgElement) {
		id := el.attr("id", fmt.Sprintf("%s_%d", el.Tag, counter))
		counter++

		if b, ok := elementBox(el, id); ok {
			boxes = append(boxes, b)
		}
	})
	return boxes
}

func elementBox(el *svgElement, id string) (boundingBox, bool) {
	f := func(name string) float64 {
		v, err := el.attrFloat(name, 0)
		if err != nil {
			return 0
		}
		return v
	}

	switch el.Tag {
	case "rect":
		w, h := f("width"), f("height")
		if w > 0 && h > 0 {
			return boundingBox{id, f("x"), f("y"), w, h}, true
		}
	case "circle":
		if r := f("r"); r > 0 {
			return boundingBox{id, f("cx") - r, f("cy") - r, 2 * r, 2 * r}, true
		}
	case "ellipse":
		rx, ry := f("rx"), f("ry")
		if rx > 0 && ry > 0 {
			return boundingBox{id, f("cx") - rx, f("cy") - ry, 2 * rx, 2 * ry}, true
		}
	case "text":
		// No font metrics here: estimate width from glyph count and height
		// from the font size, anchored at the baseline.
		size := 16.0
		if m := leadingDigitsRe.FindString(el.attr("font-size", "16")); m != "" {
			if v, err := strconv.ParseFloat(m, 64); err == nil {
				size = v
			}
		}
		width := float64(len(el.Text)) * size * 0.6
		return boundingBox{id, f("x"), f("y") - size, width, size * 1.2}, true
	}
	return boundingBox{}, false
}

// boxesOverlap reports whether two boxes padded by buffer intersect.
func boxesOverlap(a, b boundingBox, buffer float64) bool {
	if a.right()+buffer < b.x || b.right()+buffer < a.x {
		return false
	}
	if a.bottom()+buffer < b.y || b.bottom()+buffer < a.y {
		return false
	}
	return true
}
