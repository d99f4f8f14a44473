package verify

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MinContrastRatio is the WCAG AA threshold for normal text.
const MinContrastRatio = 4.5

var styleFontSizeRe = regexp.MustCompile(`font-size\s*:\s*(\d+)`)

// LegibilityChecker is verification layer 3: every piece of text must use
// at least the minimum font size and clear the WCAG AA contrast ratio
// against the canvas background. Findings are remediated upstream; nothing
// here is auto-fixed.
type LegibilityChecker struct {
	MinFontSize int
	// Background overrides background detection. Empty means the fill of
	// the first rect, falling back to white.
	Background string
}

// Check validates the candidate's text legibility.
func (c LegibilityChecker) Check(svg string) []Issue {
	root, err := parseSVG(svg)
	if err != nil {
		return nil // layer 1 already rejected the candidate
	}

	background := c.Background
	if background == "" {
		background = detectBackground(root)
	}
	bgHex, bgOK := NormalizeColor(background)

	var issues []Issue
	root.walk(func(el *svgElement) {
		if el.Tag != "text" && el.Tag != "tspan" {
			return
		}
		content := strings.TrimSpace(el.Text)

		if size, ok := fontSize(el); ok && size < c.MinFontSize {
			issues = append(issues, Issue{
				Kind:     KindTextTooSmall,
				Severity: SeverityError,
				Message:  fmt.Sprintf("font size %dpx is below minimum (%dpx)", size, c.MinFontSize),
			})
		}

		if content == "" || !bgOK {
			return
		}
		fill, ok := NormalizeColor(el.attr("fill", ""))
		if !ok {
			return
		}
		ratio, err := ContrastRatio(fill, bgHex)
		if err != nil {
			return
		}
		if ratio < MinContrastRatio {
			issues = append(issues, Issue{
				Kind:     KindLowContrast,
				Severity: SeverityError,
				Message: fmt.Sprintf("text %q has contrast %.2f:1 (need >= %.1f:1 for WCAG AA)",
					truncate(content, 30), ratio, MinContrastRatio),
			})
		}
	})

	return issues
}

// fontSize reads an element's font size from the font-size attribute or an
// inline style declaration.
func fontSize(el *svgElement) (int, bool) {
	raw := el.attr("font-size", "")
	if raw == "" {
		if m := styleFontSizeRe.FindStringSubmatch(el.attr("style", "")); m != nil {
			raw = m[1]
		}
	}
	if m := leadingDigitsRe.FindString(strings.TrimSpace(raw)); m != "" {
		v, err := strconv.Atoi(m)
		return v, err == nil
	}
	return 0, false
}

// detectBackground takes the fill of the first rect in document order as
// the canvas background, defaulting to white.
func detectBackground(root *svgElement) string {
	background := "#FFFFFF"
	found := false
	root.walk(func(el *svgElement) {
		if found || el.Tag != "rect" {
			return
		}
		if fill := el.attr("fill", ""); fill != "" {
			background = fill
			found = true
		}
	})
	return background
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
