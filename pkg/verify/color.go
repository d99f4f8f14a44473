package verify

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// namedColors maps the CSS color keywords the pipeline accepts to 6-digit
// hex. Keywords that mean "paints nothing" map to the empty string.
var namedColors = map[string]string{
	"white":       "#FFFFFF",
	"black":       "#000000",
	"red":         "#FF0000",
	"green":       "#00FF00",
	"blue":        "#0000FF",
	"yellow":      "#FFFF00",
	"orange":      "#FFA500",
	"purple":      "#800080",
	"gray":        "#808080",
	"grey":        "#808080",
	"cyan":        "#00FFFF",
	"magenta":     "#FF00FF",
	"lime":        "#00FF00",
	"navy":        "#000080",
	"teal":        "#008080",
	"maroon":      "#800000",
	"olive":       "#808000",
	"silver":      "#C0C0C0",
	"aqua":        "#00FFFF",
	"fuchsia":     "#FF00FF",
	"transparent": "",
	"none":        "",
}

var (
	rgbRe  = regexp.MustCompile(`^rgb\s*\(\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s*\)$`)
	rgbaRe = regexp.MustCompile(`^rgba\s*\(\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s*,\s*[\d.]+\s*\)$`)
)

// NormalizeColor converts a color reference to uppercase 6-digit hex.
// Accepted forms: #RGB, #RRGGBB, rgb(r,g,b), rgba(r,g,b,a) with the alpha
// discarded, and a small set of named colors. The second return is false
// when the value either paints nothing (none, transparent) or is not a
// color the pipeline understands.
//
// Normalization is idempotent: a normalized value normalizes to itself.
func NormalizeColor(s string) (string, bool) {
	c := strings.ToLower(strings.TrimSpace(s))

	if hex, known := namedColors[c]; known {
		return hex, hex != ""
	}

	if after, found := strings.CutPrefix(c, "#"); found {
		if len(after) == 3 {
			var b strings.Builder
			for _, ch := range after {
				b.WriteRune(ch)
				b.WriteRune(ch)
			}
			after = b.String()
		}
		if len(after) != 6 {
			return "", false
		}
		if _, err := strconv.ParseUint(after, 16, 32); err != nil {
			return "", false
		}
		return "#" + strings.ToUpper(after), true
	}

	m := rgbRe.FindStringSubmatch(c)
	if m == nil {
		m = rgbaRe.FindStringSubmatch(c)
	}
	if m != nil {
		r := clampChannel(m[1])
		g := clampChannel(m[2])
		b := clampChannel(m[3])
		return fmt.Sprintf("#%02X%02X%02X", r, g, b), true
	}

	return "", false
}

func clampChannel(s string) int {
	v, _ := strconv.Atoi(s)
	if v > 255 {
		return 255
	}
	return v
}

// hexChannels splits a normalized #RRGGBB value into 0-1 channels.
func hexChannels(hex string) (r, g, b float64, err error) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid hex color: %q", hex)
	}
	parse := func(s string) (float64, error) {
		v, err := strconv.ParseUint(s, 16, 8)
		return float64(v) / 255, err
	}
	if r, err = parse(hex[0:2]); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex color: %q", hex)
	}
	if g, err = parse(hex[2:4]); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex color: %q", hex)
	}
	if b, err = parse(hex[4:6]); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex color: %q", hex)
	}
	return r, g, b, nil
}

// relativeLuminance implements the WCAG 2.x formula: per-channel sRGB gamma
// linearization followed by the standard luminance weights.
func relativeLuminance(r, g, b float64) float64 {
	linear := func(v float64) float64 {
		if v <= 0.03928 {
			return v / 12.92
		}
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	return 0.2126*linear(r) + 0.7152*linear(g) + 0.0722*linear(b)
}

// ContrastRatio computes the WCAG contrast ratio between two hex colors.
// The result is in [1, 21] and symmetric in its arguments.
func ContrastRatio(color1, color2 string) (float64, error) {
	r1, g1, b1, err := hexChannels(color1)
	if err != nil {
		return 0, err
	}
	r2, g2, b2, err := hexChannels(color2)
	if err != nil {
		return 0, err
	}

	l1 := relativeLuminance(r1, g1, b1)
	l2 := relativeLuminance(r2, g2, b2)
	lighter, darker := max(l1, l2), min(l1, l2)
	return (lighter + 0.05) / (darker + 0.05), nil
}
