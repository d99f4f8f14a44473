package verify

import (
	"fmt"
	"sort"
	"strings"
)

// PaletteChecker is verification layer 4: every color referenced in the
// candidate must normalize into the approved set. With no palette
// configured the layer passes unconditionally.
type PaletteChecker struct {
	approved map[string]bool
}

// NewPaletteChecker builds a checker for an approved color list. Entries
// may use any form NormalizeColor accepts; entries that do not normalize
// are ignored. A nil or empty list disables the check.
func NewPaletteChecker(palette []string) *PaletteChecker {
	c := &PaletteChecker{approved: make(map[string]bool, len(palette))}
	for _, raw := range palette {
		if hex, ok := NormalizeColor(raw); ok {
			c.approved[hex] = true
		}
	}
	return c
}

// Enabled reports whether a palette is configured.
func (c *PaletteChecker) Enabled() bool { return len(c.approved) > 0 }

// Check validates the candidate's colors against the palette.
func (c *PaletteChecker) Check(svg string) []Issue {
	if !c.Enabled() {
		return nil
	}

	used := extractColors(svg)
	var issues []Issue
	for _, raw := range used {
		hex, ok := NormalizeColor(raw)
		if !ok {
			continue // transparent, none, url() references
		}
		if !c.approved[hex] {
			issues = append(issues, Issue{
				Kind:     KindColorViolation,
				Severity: SeverityError,
				Message:  fmt.Sprintf("unapproved color: %s (normalized: %s)", raw, hex),
			})
		}
	}
	return issues
}

// Approved returns the normalized palette, sorted, for remediation text.
func (c *PaletteChecker) Approved() []string {
	out := make([]string, 0, len(c.approved))
	for hex := range c.approved {
		out = append(out, hex)
	}
	sort.Strings(out)
	return out
}

// extractColors collects every color reference in the candidate: paint
// attributes on elements plus inline style declarations. Results are
// deduplicated and sorted for deterministic reporting.
func extractColors(svg string) []string {
	root, err := parseSVG(svg)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" || strings.HasPrefix(strings.ToLower(v), "url(") {
			return
		}
		seen[v] = true
	}

	root.walk(func(el *svgElement) {
		for _, attr := range []string{"fill", "stroke", "stop-color"} {
			if v, ok := el.Attrs[attr]; ok {
				add(v)
			}
		}
		if style, ok := el.Attrs["style"]; ok {
			for _, decl := range strings.Split(style, ";") {
				name, value, found := strings.Cut(decl, ":")
				if !found {
					continue
				}
				switch strings.TrimSpace(strings.ToLower(name)) {
				case "fill", "stroke", "stop-color":
					add(value)
				}
			}
		}
	})

	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
