package verify

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// encodePNG renders a test image to bytes the way the rasterizer would.
func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// solidImage fills a w x h canvas with one gray value.
func solidImage(w, h int, v uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(img, img.Bounds(), v)
	return img
}

func fill(img *image.RGBA, r image.Rectangle, v uint8) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
}

func TestPixelInspectorBlank(t *testing.T) {
	p := NewPixelInspector()
	analysis, err := p.Analyze(encodePNG(t, solidImage(80, 80, 255)))
	if err != nil {
		t.Fatal(err)
	}
	if !analysis.Blank {
		t.Errorf("solid white not flagged blank (dominant share %.3f)", analysis.DominantShare)
	}
	if analysis.DominantShare < 0.99 {
		t.Errorf("DominantShare = %.3f, want ~1.0", analysis.DominantShare)
	}
	if analysis.Artifacts {
		t.Error("blank image should not double-report as artifact")
	}

	issues := p.Check(encodePNG(t, solidImage(80, 80, 255)))
	if !hasIssue(issues, KindBlankCanvas, "appears blank") {
		t.Fatalf("Check() = %v, want blank_canvas", issues)
	}
	if len(issues) != 1 {
		t.Errorf("expected exactly 1 issue, got %v", issues)
	}
}

func TestPixelInspectorHealthy(t *testing.T) {
	// White canvas with a mid-gray content block: dominant color well under
	// the blank threshold, variance inside the plausible band.
	img := solidImage(100, 100, 255)
	fill(img, image.Rect(20, 20, 60, 70), 128)

	p := NewPixelInspector()
	analysis, err := p.Analyze(encodePNG(t, img))
	if err != nil {
		t.Fatal(err)
	}
	if analysis.Blank {
		t.Errorf("content image flagged blank (share %.3f)", analysis.DominantShare)
	}
	if analysis.Artifacts {
		t.Errorf("content image flagged artifact (variance %.2f)", analysis.Variance)
	}
	if analysis.UniqueColors < 2 {
		t.Errorf("UniqueColors = %d, want >= 2", analysis.UniqueColors)
	}
	if issues := p.Check(encodePNG(t, img)); len(issues) != 0 {
		t.Fatalf("healthy image produced issues: %v", issues)
	}
}

func TestPixelInspectorLowVariance(t *testing.T) {
	// Two adjacent gray values in different quantization buckets: not blank,
	// but nearly flat. 5% of pixels differ by one step.
	img := solidImage(40, 40, 191)
	fill(img, image.Rect(0, 0, 40, 2), 192)

	p := NewPixelInspector()
	analysis, err := p.Analyze(encodePNG(t, img))
	if err != nil {
		t.Fatal(err)
	}
	if analysis.Blank {
		t.Fatalf("dominant share %.3f crossed the blank threshold", analysis.DominantShare)
	}
	if !analysis.Artifacts {
		t.Fatalf("variance %.4f not flagged as artifact", analysis.Variance)
	}
	issues := p.Check(encodePNG(t, img))
	if !hasIssue(issues, KindRenderArtifact, "extremely low variance") {
		t.Fatalf("Check() = %v, want low-variance render_artifact", issues)
	}
}

func TestPixelInspectorHighVariance(t *testing.T) {
	// Checkerboard of black and white: variance far above the band.
	img := image.NewRGBA(image.Rect(0, 0, 60, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 60; x++ {
			v := uint8(0)
			if (x+y)%2 == 0 {
				v = 255
			}
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}

	p := NewPixelInspector()
	issues := p.Check(encodePNG(t, img))
	if !hasIssue(issues, KindRenderArtifact, "extremely high variance") {
		t.Fatalf("Check() = %v, want high-variance render_artifact", issues)
	}
}

func TestPixelInspectorDecodeError(t *testing.T) {
	p := NewPixelInspector()
	if _, err := p.Analyze([]byte("not an image")); err == nil {
		t.Error("expected decode error")
	}
	issues := p.Check([]byte("not an image"))
	if !hasIssue(issues, KindRenderArtifact, "decode rendered image") {
		t.Fatalf("Check() = %v, want decode failure issue", issues)
	}
}

func TestPixelInspectorCustomThresholds(t *testing.T) {
	// A 90% dominant share is blank only under a loosened threshold.
	img := solidImage(100, 100, 255)
	fill(img, image.Rect(0, 0, 100, 10), 0)

	strict := NewPixelInspector()
	analysis, err := strict.Analyze(encodePNG(t, img))
	if err != nil {
		t.Fatal(err)
	}
	if analysis.Blank {
		t.Errorf("90%% share blank under default %.2f threshold", strict.BlankThreshold)
	}

	loose := PixelInspector{BlankThreshold: 0.85, VarianceMin: DefaultVarianceMin, VarianceMax: DefaultVarianceMax}
	analysis, err = loose.Analyze(encodePNG(t, img))
	if err != nil {
		t.Fatal(err)
	}
	if !analysis.Blank {
		t.Errorf("90%% share not blank under 0.85 threshold (got %.3f)", analysis.DominantShare)
	}
}

func TestDownsample(t *testing.T) {
	big := solidImage(100, 100, 200)
	wide := image.NewRGBA(image.Rect(0, 0, 400, 100))

	if got := downsample(big, 100); got != image.Image(big) {
		t.Error("image already at target size should be returned untouched")
	}
	small := downsample(wide, 100)
	b := small.Bounds()
	if b.Dx() != 100 || b.Dy() != 25 {
		t.Errorf("downsample bounds = %dx%d, want 100x25 (aspect preserved)", b.Dx(), b.Dy())
	}
}
