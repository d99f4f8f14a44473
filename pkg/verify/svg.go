package verify

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// validTags is the SVG element vocabulary the pipeline recognizes.
var validTags = map[string]bool{
	"svg": true, "rect": true, "circle": true, "ellipse": true,
	"line": true, "polyline": true, "polygon": true, "path": true,
	"text": true, "tspan": true, "g": true, "defs": true, "style": true,
	"image": true, "use": true, "clipPath": true, "mask": true,
	"linearGradient": true, "radialGradient": true, "stop": true,
	"filter": true, "feGaussianBlur": true, "feOffset": true,
	"feBlend": true, "feMerge": true, "feMergeNode": true,
	"pattern": true, "symbol": true, "marker": true, "title": true,
	"desc": true,
}

// svgElement is one node of a parsed candidate. Namespaces are stripped;
// only local names and attribute values survive.
type svgElement struct {
	Tag      string
	Attrs    map[string]string
	Text     string
	Children []*svgElement
}

// attr returns the named attribute or the fallback when absent.
func (e *svgElement) attr(name, fallback string) string {
	if v, ok := e.Attrs[name]; ok {
		return v
	}
	return fallback
}

// attrFloat parses the named attribute as a float, tolerating a px suffix.
func (e *svgElement) attrFloat(name string, fallback float64) (float64, error) {
	raw, ok := e.Attrs[name]
	if !ok {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(raw), "px"), 64)
	if err != nil {
		return 0, fmt.Errorf("attribute %s: %w", name, err)
	}
	return v, nil
}

// walk visits the element and all descendants in document order.
func (e *svgElement) walk(fn func(*svgElement)) {
	fn(e)
	for _, c := range e.Children {
		c.walk(fn)
	}
}

// parseSVG builds an element tree from raw markup using a streaming XML
// decoder. Entities are left strict; a malformed document returns an error
// rather than a partial tree.
func parseSVG(s string) (*svgElement, error) {
	dec := xml.NewDecoder(strings.NewReader(s))
	var root *svgElement
	var stack []*svgElement

	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("svg parse error: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &svgElement{
				Tag:   t.Name.Local,
				Attrs: make(map[string]string, len(t.Attr)),
			}
			for _, a := range t.Attr {
				el.Attrs[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("svg parse error: multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("svg parse error: unexpected </%s>", t.Name.Local)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("svg parse error: unclosed <%s>", stack[len(stack)-1].Tag)
	}
	if root == nil {
		return nil, fmt.Errorf("svg parse error: no root element")
	}
	return root, nil
}

// SyntaxChecker is verification layer 1: well-formed markup, a proper
// <svg> root with positive numeric dimensions, and only recognized
// elements. A failure here gates all later layers.
type SyntaxChecker struct{}

// Check validates the candidate's syntax. A nil issue slice means the
// markup is structurally sound.
func (SyntaxChecker) Check(svg string) []Issue {
	if strings.TrimSpace(svg) == "" {
		return []Issue{{
			Kind:     KindInvalidSVG,
			Severity: SeverityCritical,
			Message:  "empty SVG string",
		}}
	}

	root, err := parseSVG(svg)
	if err != nil {
		return []Issue{{
			Kind:     KindInvalidSVG,
			Severity: SeverityCritical,
			Message:  err.Error(),
		}}
	}

	var issues []Issue
	add := func(msg string) {
		issues = append(issues, Issue{
			Kind:     KindInvalidSVG,
			Severity: SeverityCritical,
			Message:  msg,
		})
	}

	if root.Tag != "svg" {
		add(fmt.Sprintf("root element must be <svg>, got <%s>", root.Tag))
	}
	for _, required := range []string{"width", "height"} {
		if _, ok := root.Attrs[required]; !ok {
			add("missing required SVG attribute: " + required)
		}
	}
	w, werr := root.attrFloat("width", 0)
	h, herr := root.attrFloat("height", 0)
	if werr != nil || herr != nil {
		add("width and height must be numeric")
	} else if w <= 0 || h <= 0 {
		add("width and height must be positive")
	}

	root.walk(func(el *svgElement) {
		if !validTags[el.Tag] {
			add(fmt.Sprintf("invalid SVG element: <%s>", el.Tag))
			return
		}
		if el.Tag == "text" {
			hasText := strings.TrimSpace(el.Text) != ""
			hasTspan := false
			for _, c := range el.Children {
				if c.Tag == "tspan" {
					hasTspan = true
					break
				}
			}
			if !hasText && !hasTspan {
				issues = append(issues, Issue{
					Kind:     KindMissingText,
					Severity: SeverityError,
					Message:  "text element is empty",
				})
			}
		}
	})

	return issues
}

// dimensions returns a candidate's root width and height, or zeros when
// the markup cannot be parsed.
func dimensions(svg string) (width, height float64) {
	root, err := parseSVG(svg)
	if err != nil {
		return 0, 0
	}
	w, werr := root.attrFloat("width", 0)
	h, herr := root.attrFloat("height", 0)
	if werr != nil || herr != nil {
		return 0, 0
	}
	return w, h
}
