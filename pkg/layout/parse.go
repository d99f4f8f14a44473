package layout

import (
	"encoding/json"
	"fmt"
)

// Description is the structural description produced by the external
// generator: a flat element list plus the relationships between them.
// It is the upstream wire format of the whole system.
type Description struct {
	Elements      []Element      `json:"elements" bson:"elements"`
	Relationships []Relationship `json:"relationships,omitempty" bson:"relationships,omitempty"`
}

// Element describes one design element in a Description.
type Element struct {
	ID          string       `json:"id" bson:"id"`
	Type        string       `json:"type" bson:"type"`
	Constraints *SizeBounds  `json:"constraints,omitempty" bson:"constraints,omitempty"`
	Content     string       `json:"content,omitempty" bson:"content,omitempty"`
	Properties  *ElementProp `json:"properties,omitempty" bson:"properties,omitempty"`
}

// SizeBounds holds the size domain of an element. Width/Height pin the
// dimension exactly and win over the min/max pairs.
type SizeBounds struct {
	MinWidth  int `json:"minWidth,omitempty" bson:"minWidth,omitempty"`
	MaxWidth  int `json:"maxWidth,omitempty" bson:"maxWidth,omitempty"`
	MinHeight int `json:"minHeight,omitempty" bson:"minHeight,omitempty"`
	MaxHeight int `json:"maxHeight,omitempty" bson:"maxHeight,omitempty"`
	Width     int `json:"width,omitempty" bson:"width,omitempty"`
	Height    int `json:"height,omitempty" bson:"height,omitempty"`
}

// ElementProp carries typography metadata passed through to the renderer.
type ElementProp struct {
	FontSize int    `json:"fontSize,omitempty" bson:"fontSize,omitempty"`
	Fill     string `json:"fill,omitempty" bson:"fill,omitempty"`
}

// Relationship describes one relationship in a Description. The Type field
// selects which of the remaining fields are meaningful:
//
//   - "alignment": Elements and Axis
//   - "spacing": Source, Target, Distance, Relation
//   - "containment": Container and Child
type Relationship struct {
	Type string `json:"type" bson:"type"`

	Elements []string `json:"elements,omitempty" bson:"elements,omitempty"`
	Axis     string   `json:"axis,omitempty" bson:"axis,omitempty"`

	Source   string `json:"source,omitempty" bson:"source,omitempty"`
	Target   string `json:"target,omitempty" bson:"target,omitempty"`
	Distance int    `json:"distance,omitempty" bson:"distance,omitempty"`
	Relation string `json:"relation,omitempty" bson:"relation,omitempty"`

	Container string `json:"container,omitempty" bson:"container,omitempty"`
	Child     string `json:"child,omitempty" bson:"child,omitempty"`
}

// DefaultSpacing is the relational margin applied when a spacing
// relationship carries no distance.
const DefaultSpacing = 24

var validElementTypes = map[string]Kind{
	"text":      KindText,
	"image":     KindImage,
	"shape":     KindShape,
	"rect":      KindShape,
	"container": KindContainer,
	"group":     KindContainer,
}

var validRelationshipTypes = map[string]bool{
	"alignment":   true,
	"spacing":     true,
	"containment": true,
}

var alignmentAxes = map[string]Relation{
	"left":     RelationAlignLeft,
	"right":    RelationAlignRight,
	"center":   RelationAlignCenterX,
	"center_y": RelationAlignCenterY,
	"top":      RelationAlignTop,
	"bottom":   RelationAlignBottom,
}

var spacingRelations = map[string]Relation{
	"below":    RelationBelow,
	"above":    RelationAbove,
	"left_of":  RelationLeftOf,
	"right_of": RelationRightOf,
}

// ParseDescription decodes a structural description from JSON bytes.
// A top-level "design" wrapper, which some generators emit, is unwrapped.
func ParseDescription(data []byte) (*Description, error) {
	var wrapper struct {
		Design *Description `json:"design"`
		Description
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("decode description: %w", err)
	}
	if wrapper.Design != nil {
		return wrapper.Design, nil
	}
	d := wrapper.Description
	return &d, nil
}

// CheckDescription validates the shape of a structural description before
// graph construction: unique non-empty element ids, recognized element and
// relationship types, and relationship references that resolve. It returns
// every defect found; an empty result means FromDescription will succeed.
func CheckDescription(d *Description) []StructuralError {
	var errs []StructuralError

	if len(d.Elements) == 0 {
		errs = append(errs, StructuralError{Message: "description has no elements"})
	}

	seen := make(map[string]bool, len(d.Elements))
	for _, el := range d.Elements {
		if el.ID == "" {
			errs = append(errs, StructuralError{Message: "element missing id"})
			continue
		}
		if seen[el.ID] {
			errs = append(errs, StructuralError{NodeID: el.ID, Message: "duplicate element id"})
		}
		seen[el.ID] = true
		if el.Type != "" {
			if _, ok := validElementTypes[el.Type]; !ok {
				errs = append(errs, StructuralError{
					NodeID:  el.ID,
					Message: fmt.Sprintf("unknown element type %q", el.Type),
				})
			}
		}
	}

	ref := func(id, context string) {
		if id != "" && !seen[id] {
			errs = append(errs, StructuralError{
				NodeID:  id,
				Message: fmt.Sprintf("%s references unknown element", context),
			})
		}
	}

	for _, rel := range d.Relationships {
		if !validRelationshipTypes[rel.Type] {
			errs = append(errs, StructuralError{
				Message: fmt.Sprintf("unknown relationship type %q", rel.Type),
			})
			continue
		}
		switch rel.Type {
		case "alignment":
			for _, id := range rel.Elements {
				ref(id, "alignment")
			}
		case "spacing":
			ref(rel.Source, "spacing source")
			ref(rel.Target, "spacing target")
			if rel.Distance < 0 {
				errs = append(errs, StructuralError{
					Message: fmt.Sprintf("spacing distance must not be negative, got %d", rel.Distance),
				})
			}
		case "containment":
			ref(rel.Container, "containment container")
			ref(rel.Child, "containment child")
		}
	}

	return errs
}

// FromDescription builds a layout graph from a structural description.
//
// Mapping: alignment relationships become all-pairs aesthetic alignment
// edges; spacing relationships become one structural relational edge each;
// containment relationships become one hard inside edge each. The
// description is checked first (including post-construction containment
// acyclicity), and any defect aborts the build - no partial graph is ever
// returned.
func FromDescription(d *Description, canvasWidth, canvasHeight int) (*Graph, []StructuralError) {
	if errs := CheckDescription(d); len(errs) > 0 {
		return nil, errs
	}

	g, err := New(canvasWidth, canvasHeight)
	if err != nil {
		return nil, []StructuralError{{Message: err.Error()}}
	}

	for _, el := range d.Elements {
		kind, ok := validElementTypes[el.Type]
		if !ok {
			kind = KindText
		}
		n := Node{ID: el.ID, Kind: kind, Content: el.Content}
		if c := el.Constraints; c != nil {
			n.MinWidth = c.MinWidth
			n.MaxWidth = c.MaxWidth
			n.MinHeight = c.MinHeight
			n.MaxHeight = c.MaxHeight
			n.FixedWidth = c.Width
			n.FixedHeight = c.Height
		}
		if p := el.Properties; p != nil {
			n.FontSize = p.FontSize
		}
		if err := g.AddNode(n); err != nil {
			return nil, []StructuralError{{NodeID: el.ID, Message: err.Error()}}
		}
	}

	for _, rel := range d.Relationships {
		switch rel.Type {
		case "alignment":
			relation, ok := alignmentAxes[rel.Axis]
			if !ok {
				relation = RelationAlignLeft
			}
			for i, a := range rel.Elements {
				for _, b := range rel.Elements[i+1:] {
					if err := g.AddEdge(Edge{
						From:     a,
						To:       b,
						Relation: relation,
						Priority: PriorityAesthetic,
					}); err != nil {
						return nil, []StructuralError{{Message: err.Error()}}
					}
				}
			}
		case "spacing":
			relation, ok := spacingRelations[rel.Relation]
			if !ok {
				relation = RelationBelow
			}
			distance := rel.Distance
			if distance == 0 {
				distance = DefaultSpacing
			}
			if err := g.AddEdge(Edge{
				From:     rel.Source,
				To:       rel.Target,
				Relation: relation,
				Margin:   distance,
				Priority: PriorityStructural,
			}); err != nil {
				return nil, []StructuralError{{Message: err.Error()}}
			}
		case "containment":
			if err := g.AddEdge(Edge{
				From:     rel.Container,
				To:       rel.Child,
				Relation: RelationInside,
				Priority: PriorityHard,
			}); err != nil {
				return nil, []StructuralError{{Message: err.Error()}}
			}
		}
	}

	if errs := g.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return g, nil
}
