package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateElementID validates an element identifier from a layout
// description. Identifiers end up verbatim in SVG id attributes and in
// cache keys, so the rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters
//   - No whitespace or XML-significant characters
//   - Maximum length of 128 characters
func ValidateElementID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidElement, "element id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidElement, "element id too long (max 128 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidElement, "element id contains invalid control characters")
		}
	}

	if strings.ContainsAny(id, " \t<>&\"'") {
		return New(ErrCodeInvalidElement, "element id contains invalid characters: %q", id)
	}

	return nil
}

// hexColorRegex matches 3- or 6-digit hex colors with a leading hash.
var hexColorRegex = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateHexColor validates a palette entry as a hex color string.
// Named colors are resolved elsewhere; config palettes must use hex form so
// that typos fail loudly at startup rather than silently never matching.
func ValidateHexColor(color string) error {
	if color == "" {
		return New(ErrCodeInvalidColor, "color cannot be empty")
	}

	if !hexColorRegex.MatchString(color) {
		return New(ErrCodeInvalidColor, "invalid hex color: %q", color)
	}

	return nil
}

// ValidateCanvasSize validates canvas dimensions.
// The upper bound guards the raster layers against pathological allocations.
func ValidateCanvasSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return New(ErrCodeInvalidCanvas, "canvas dimensions must be positive, got %dx%d", width, height)
	}

	const maxDimension = 16384
	if width > maxDimension || height > maxDimension {
		return New(ErrCodeInvalidCanvas, "canvas dimensions too large (max %d), got %dx%d", maxDimension, width, height)
	}

	return nil
}
