package errors

import (
	"strings"
	"testing"
)

func TestValidateElementID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "header", false},
		{"valid with dash", "cta-button", false},
		{"valid with underscore", "hero_image", false},
		{"valid with digits", "col2", false},
		{"empty", "", true},
		{"whitespace", "two words", true},
		{"angle bracket", "a<b", true},
		{"quote", `id"x`, true},
		{"control character", "id\x00x", true},
		{"too long", strings.Repeat("a", 129), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateElementID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateElementID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidElement) {
				t.Errorf("ValidateElementID(%q) code = %q, want %q", tt.input, GetCode(err), ErrCodeInvalidElement)
			}
		})
	}
}

func TestValidateHexColor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"six digit", "#FF5733", false},
		{"three digit", "#abc", false},
		{"lowercase", "#ff5733", false},
		{"empty", "", true},
		{"named color", "red", true},
		{"missing hash", "FF5733", true},
		{"wrong length", "#FF57", true},
		{"non-hex digits", "#GGGGGG", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHexColor(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateHexColor(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateCanvasSize(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		height  int
		wantErr bool
	}{
		{"social card", 1200, 630, false},
		{"square", 1080, 1080, false},
		{"zero width", 0, 630, true},
		{"negative height", 1200, -1, true},
		{"too large", 20000, 630, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCanvasSize(tt.width, tt.height)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCanvasSize(%d, %d) error = %v, wantErr %v", tt.width, tt.height, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidCanvas) {
				t.Errorf("wrong code %q", GetCode(err))
			}
		})
	}
}
