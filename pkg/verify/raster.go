package verify

import (
	"bytes"
	"fmt"
	"image"

	// Decoders for the raster formats the renderer produces.
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// Raster inspection defaults. The coverage and variance thresholds are
// empirical and tunable, not derived from a model.
const (
	DefaultBlankThreshold = 0.98
	DefaultVarianceMin    = 0.1
	DefaultVarianceMax    = 10000.0

	thumbSize = 100
)

// PixelAnalysis holds the measurements of one rendered candidate.
type PixelAnalysis struct {
	Blank         bool
	DominantColor [3]uint8
	DominantShare float64
	UniqueColors  int
	Variance      float64
	Artifacts     bool
}

// PixelInspector is verification layer 5's raster half: it downsamples the
// rendered image and flags blank canvases (one quantized color covering
// almost everything) and render artifacts (pixel variance outside a
// plausible band).
type PixelInspector struct {
	BlankThreshold float64
	VarianceMin    float64
	VarianceMax    float64
}

// NewPixelInspector returns an inspector with the default thresholds.
func NewPixelInspector() PixelInspector {
	return PixelInspector{
		BlankThreshold: DefaultBlankThreshold,
		VarianceMin:    DefaultVarianceMin,
		VarianceMax:    DefaultVarianceMax,
	}
}

// Analyze decodes and measures a rendered image.
func (p PixelInspector) Analyze(data []byte) (PixelAnalysis, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return PixelAnalysis{}, fmt.Errorf("decode rendered image: %w", err)
	}
	return p.analyzeImage(img), nil
}

func (p PixelInspector) analyzeImage(img image.Image) PixelAnalysis {
	thumb := downsample(img, thumbSize)
	bounds := thumb.Bounds()

	var (
		sum, sumSq float64
		samples    float64
		counts     = make(map[[3]uint8]int)
		unique     = make(map[[3]uint8]bool)
	)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := thumb.At(x, y).RGBA()
			px := [3]uint8{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}
			unique[px] = true

			// Bucket to 16-step channels so antialiasing noise does not
			// fragment the dominant color.
			q := [3]uint8{px[0] / 16 * 16, px[1] / 16 * 16, px[2] / 16 * 16}
			counts[q]++

			for _, v := range px {
				f := float64(v)
				sum += f
				sumSq += f * f
				samples++
			}
		}
	}

	analysis := PixelAnalysis{UniqueColors: len(unique)}
	if samples == 0 {
		return analysis
	}

	mean := sum / samples
	analysis.Variance = sumSq/samples - mean*mean

	total := 0
	best := 0
	for q, n := range counts {
		total += n
		if n > best {
			best = n
			analysis.DominantColor = q
		}
	}
	analysis.DominantShare = float64(best) / float64(total)
	analysis.Blank = analysis.DominantShare >= p.BlankThreshold
	outOfBand := analysis.Variance < p.VarianceMin || analysis.Variance > p.VarianceMax
	analysis.Artifacts = outOfBand && !analysis.Blank

	return analysis
}

// Check validates a rendered image, mapping measurements to findings.
func (p PixelInspector) Check(data []byte) []Issue {
	analysis, err := p.Analyze(data)
	if err != nil {
		return []Issue{{
			Kind:     KindRenderArtifact,
			Severity: SeverityError,
			Message:  err.Error(),
		}}
	}

	var issues []Issue
	if analysis.Blank {
		issues = append(issues, Issue{
			Kind:     KindBlankCanvas,
			Severity: SeverityCritical,
			Message: fmt.Sprintf("rendered image appears blank (%.1f%% single color)",
				analysis.DominantShare*100),
			Suggestion: "ensure elements have visible colors and are properly positioned",
		})
	}
	if analysis.Artifacts {
		if analysis.Variance < p.VarianceMin {
			issues = append(issues, Issue{
				Kind:       KindRenderArtifact,
				Severity:   SeverityError,
				Message:    fmt.Sprintf("image has extremely low variance (%.3f, flat rendering)", analysis.Variance),
				Suggestion: "check for missing elements or rendering issues",
			})
		} else {
			issues = append(issues, Issue{
				Kind:       KindRenderArtifact,
				Severity:   SeverityError,
				Message:    fmt.Sprintf("image has extremely high variance (%.0f, possible corruption)", analysis.Variance),
				Suggestion: "check for font issues or corrupted assets",
			})
		}
	}
	return issues
}

// downsample scales the image to fit in a size x size box, preserving
// aspect ratio. Images already small enough are returned untouched.
func downsample(img image.Image, size int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= size && h <= size {
		return img
	}

	tw, th := size, size
	if w > h {
		th = h * size / w
	} else {
		tw = w * size / h
	}
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}
