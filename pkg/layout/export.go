package layout

import (
	"fmt"
	"html"
	"strings"
)

// Calculated is the downstream layout format handed to rendering engines:
// absolute pixel rectangles for every element plus passthrough content and
// typography metadata.
type Calculated struct {
	CanvasWidth  int                 `json:"canvasWidth" bson:"canvasWidth"`
	CanvasHeight int                 `json:"canvasHeight" bson:"canvasHeight"`
	Elements     []CalculatedElement `json:"elements" bson:"elements"`
	Metadata     CalculatedMeta      `json:"metadata" bson:"metadata"`
}

// CalculatedElement is one positioned element of a Calculated layout.
type CalculatedElement struct {
	ID       string `json:"id" bson:"id"`
	Type     Kind   `json:"type" bson:"type"`
	X        int    `json:"x" bson:"x"`
	Y        int    `json:"y" bson:"y"`
	Width    int    `json:"width" bson:"width"`
	Height   int    `json:"height" bson:"height"`
	Content  string `json:"content,omitempty" bson:"content,omitempty"`
	FontSize int    `json:"fontSize,omitempty" bson:"fontSize,omitempty"`
}

// CalculatedMeta records how the layout was obtained.
type CalculatedMeta struct {
	Status             string   `json:"status" bson:"status"`
	SolveTimeMs        float64  `json:"solveTimeMs" bson:"solveTimeMs"`
	OmittedConstraints []string `json:"omittedConstraints,omitempty" bson:"omittedConstraints,omitempty"`
	Degraded           bool     `json:"degraded,omitempty" bson:"degraded,omitempty"`
}

// Export assembles a Calculated layout from the graph's solved rectangles.
// Nodes without a solved rectangle are skipped; after a successful solve
// there are none.
func (g *Graph) Export(meta CalculatedMeta) Calculated {
	out := Calculated{
		CanvasWidth:  g.canvasWidth,
		CanvasHeight: g.canvasHeight,
		Metadata:     meta,
	}
	for _, n := range g.Nodes() {
		if n.Solved == nil {
			continue
		}
		out.Elements = append(out.Elements, CalculatedElement{
			ID:       n.ID,
			Type:     n.Kind,
			X:        n.Solved.X,
			Y:        n.Solved.Y,
			Width:    n.Solved.Width,
			Height:   n.Solved.Height,
			Content:  n.Content,
			FontSize: n.FontSize,
		})
	}
	return out
}

// DefaultFontSize is used for text elements that carry no explicit size.
const DefaultFontSize = 24

// DefaultTextFill is the placeholder text color. A concrete near-black
// keeps generated candidates measurable by the contrast checks.
const DefaultTextFill = "#1A1A1A"

// SVG generates a structural SVG document from the calculated layout.
// Each element becomes one positioned SVG element; styling beyond structure
// is the renderer's job, so shapes get a neutral placeholder fill.
func (c Calculated) SVG() string {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d">`,
		c.CanvasWidth, c.CanvasHeight, c.CanvasWidth, c.CanvasHeight)
	b.WriteByte('\n')

	for _, el := range c.Elements {
		switch el.Type {
		case KindText:
			size := el.FontSize
			if size == 0 {
				size = DefaultFontSize
			}
			// SVG text is anchored at the baseline.
			fmt.Fprintf(&b, `  <text id="%s" x="%d" y="%d" font-size="%d" fill="%s">%s</text>`,
				el.ID, el.X, el.Y+size, size, DefaultTextFill, html.EscapeString(el.Content))
		case KindImage:
			fmt.Fprintf(&b, `  <image id="%s" x="%d" y="%d" width="%d" height="%d" preserveAspectRatio="xMidYMid slice"/>`,
				el.ID, el.X, el.Y, el.Width, el.Height)
		case KindContainer:
			fmt.Fprintf(&b, `  <g id="%s" transform="translate(%d, %d)"><rect width="%d" height="%d" fill="none" stroke="#CCCCCC"/></g>`,
				el.ID, el.X, el.Y, el.Width, el.Height)
		default:
			fmt.Fprintf(&b, `  <rect id="%s" x="%d" y="%d" width="%d" height="%d" fill="#E5E5E5"/>`,
				el.ID, el.X, el.Y, el.Width, el.Height)
		}
		b.WriteByte('\n')
	}

	b.WriteString("</svg>")
	return b.String()
}
