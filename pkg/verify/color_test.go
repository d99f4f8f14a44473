package verify

import (
	"math"
	"testing"
)

func TestNormalizeColor(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"six digit hex", "#ff0000", "#FF0000", true},
		{"six digit already upper", "#FF0000", "#FF0000", true},
		{"three digit hex", "#f00", "#FF0000", true},
		{"three digit mixed", "#AbC", "#AABBCC", true},
		{"named white", "white", "#FFFFFF", true},
		{"named uppercase", "BLACK", "#000000", true},
		{"named with spaces", "  navy  ", "#000080", true},
		{"rgb function", "rgb(255, 0, 0)", "#FF0000", true},
		{"rgb no spaces", "rgb(0,128,255)", "#0080FF", true},
		{"rgb clamps channels", "rgb(300, 0, 0)", "#FF0000", true},
		{"rgba discards alpha", "rgba(0, 255, 0, 0.5)", "#00FF00", true},
		{"transparent paints nothing", "transparent", "", false},
		{"none paints nothing", "none", "", false},
		{"empty string", "", "", false},
		{"garbage", "notacolor", "", false},
		{"bad hex length", "#ff00", "", false},
		{"bad hex digits", "#GGGGGG", "", false},
		{"url reference", "url(#grad)", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeColor(tt.input)
			if got != tt.want || ok != tt.ok {
				t.Errorf("NormalizeColor(%q) = (%q, %v), want (%q, %v)",
					tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestNormalizeColorIdempotent(t *testing.T) {
	for _, input := range []string{"#f00", "rgb(12, 34, 56)", "teal", "#1A2B3C"} {
		first, ok := NormalizeColor(input)
		if !ok {
			t.Fatalf("NormalizeColor(%q) unexpectedly failed", input)
		}
		second, ok := NormalizeColor(first)
		if !ok || second != first {
			t.Errorf("NormalizeColor(%q) = %q, not idempotent (second pass: %q)",
				input, first, second)
		}
	}
}

func TestContrastRatio(t *testing.T) {
	tests := []struct {
		name   string
		a, b   string
		want   float64
		within float64
	}{
		{"black on white", "#000000", "#FFFFFF", 21.0, 0.01},
		{"identical colors", "#336699", "#336699", 1.0, 0.001},
		{"white on white", "#FFFFFF", "#FFFFFF", 1.0, 0.001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ContrastRatio(tt.a, tt.b)
			if err != nil {
				t.Fatalf("ContrastRatio(%q, %q) error: %v", tt.a, tt.b, err)
			}
			if math.Abs(got-tt.want) > tt.within {
				t.Errorf("ContrastRatio(%q, %q) = %.4f, want %.4f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestContrastRatioSymmetric(t *testing.T) {
	ab, err := ContrastRatio("#112233", "#EEDDCC")
	if err != nil {
		t.Fatal(err)
	}
	ba, err := ContrastRatio("#EEDDCC", "#112233")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(ab-ba) > 1e-9 {
		t.Errorf("ratio not symmetric: %.6f vs %.6f", ab, ba)
	}
	if ab < 1 || ab > 21 {
		t.Errorf("ratio %.4f outside [1, 21]", ab)
	}
}

func TestContrastRatioInvalidColor(t *testing.T) {
	if _, err := ContrastRatio("#XYZXYZ", "#FFFFFF"); err == nil {
		t.Error("expected error for invalid first color")
	}
	if _, err := ContrastRatio("#000000", "#12"); err == nil {
		t.Error("expected error for invalid second color")
	}
}

func TestContrastRatioAAThreshold(t *testing.T) {
	// #767676 on white is the canonical just-passing AA gray.
	ratio, err := ContrastRatio("#767676", "#FFFFFF")
	if err != nil {
		t.Fatal(err)
	}
	if ratio < MinContrastRatio {
		t.Errorf("#767676 on white = %.3f, expected >= %.1f", ratio, MinContrastRatio)
	}
	// Light gray on white is clearly failing.
	ratio, err = ContrastRatio("#CCCCCC", "#FFFFFF")
	if err != nil {
		t.Fatal(err)
	}
	if ratio >= MinContrastRatio {
		t.Errorf("#CCCCCC on white = %.3f, expected < %.1f", ratio, MinContrastRatio)
	}
}
