package verify

import (
	"bytes"
	"fmt"
	"image"
	"math"
)

// DefaultBalanceThreshold is the largest center-of-mass offset, as a
// fraction of the half-diagonal, still considered balanced.
const DefaultBalanceThreshold = 0.25

// BalanceAnalysis holds the visual weight measurements of one candidate.
type BalanceAnalysis struct {
	CenterX, CenterY           float64
	IdealCenterX, IdealCenterY float64
	// OffsetRatio is 0 at the geometric center, 1 at a canvas corner.
	OffsetRatio float64
	Balanced    bool
	// QuadrantWeights maps NW/NE/SW/SE to each quadrant's share of the
	// total visual weight.
	QuadrantWeights map[string]float64
	EdgeDensity     float64
}

// BalanceAnalyzer is verification layer 6: it locates the luminance-weighted
// center of mass of the rendered candidate and compares it to the geometric
// center. Purely advisory; its findings are warnings and never fail the
// pipeline.
type BalanceAnalyzer struct {
	Threshold float64
}

// NewBalanceAnalyzer returns an analyzer with the default threshold.
func NewBalanceAnalyzer() BalanceAnalyzer {
	return BalanceAnalyzer{Threshold: DefaultBalanceThreshold}
}

// Analyze decodes and measures a rendered image. Darker pixels weigh more,
// since content is typically darker than the background.
func (a BalanceAnalyzer) Analyze(data []byte) (BalanceAnalysis, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return BalanceAnalysis{}, fmt.Errorf("decode rendered image: %w", err)
	}
	return a.analyzeImage(img), nil
}

func (a BalanceAnalyzer) analyzeImage(img image.Image) BalanceAnalysis {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	analysis := BalanceAnalysis{
		IdealCenterX: float64(w) / 2,
		IdealCenterY: float64(h) / 2,
		Balanced:     true,
		QuadrantWeights: map[string]float64{
			"NW": 0.25, "NE": 0.25, "SW": 0.25, "SE": 0.25,
		},
	}
	if w == 0 || h == 0 {
		return analysis
	}

	weights := make([]float64, w*h)
	var total, sumX, sumY float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			weight := 255 - grayAt(img, b.Min.X+x, b.Min.Y+y)
			weights[y*w+x] = weight
			total += weight
			sumX += float64(x) * weight
			sumY += float64(y) * weight
		}
	}
	if total == 0 {
		// Completely white image: call it centered.
		analysis.CenterX = analysis.IdealCenterX
		analysis.CenterY = analysis.IdealCenterY
		return analysis
	}

	analysis.CenterX = sumX / total
	analysis.CenterY = sumY / total

	maxOffset := math.Hypot(analysis.IdealCenterX, analysis.IdealCenterY)
	offset := math.Hypot(analysis.CenterX-analysis.IdealCenterX, analysis.CenterY-analysis.IdealCenterY)
	if maxOffset > 0 {
		analysis.OffsetRatio = offset / maxOffset
	}
	analysis.Balanced = analysis.OffsetRatio <= a.Threshold
	analysis.QuadrantWeights = quadrantWeights(weights, w, h)
	analysis.EdgeDensity = edgeDensity(img)

	return analysis
}

// Check reports balance findings for a rendered image. All findings are
// warnings.
func (a BalanceAnalyzer) Check(data []byte) []Issue {
	analysis, err := a.Analyze(data)
	if err != nil {
		return nil // raster decoding problems belong to layer 5
	}

	var issues []Issue
	if !analysis.Balanced {
		issues = append(issues, Issue{
			Kind:     KindUnbalancedLayout,
			Severity: SeverityWarning,
			Message: fmt.Sprintf("layout appears unbalanced (center of mass offset by %.0fpx, %.0fpx)",
				math.Abs(analysis.CenterX-analysis.IdealCenterX),
				math.Abs(analysis.CenterY-analysis.IdealCenterY)),
			Suggestion: "redistribute elements for better visual balance",
		})
	}

	maxW, minW := 0.0, 1.0
	dominant := ""
	for q, share := range analysis.QuadrantWeights {
		if share > maxW {
			maxW = share
			dominant = q
		}
		if share < minW {
			minW = share
		}
	}
	if maxW > 0.5 && minW < 0.1 {
		issues = append(issues, Issue{
			Kind:     KindUnbalancedLayout,
			Severity: SeverityWarning,
			Message: fmt.Sprintf("content heavily concentrated in %s quadrant (%.0f%%)",
				dominant, maxW*100),
			Suggestion: "distribute content more evenly across the canvas",
		})
	}
	return issues
}

// grayAt returns the pixel's luma using the ITU-R 601 weights.
func grayAt(img image.Image, x, y int) float64 {
	r, g, b, _ := img.At(x, y).RGBA()
	return 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
}

func quadrantWeights(weights []float64, w, h int) map[string]float64 {
	midX, midY := w/2, h/2
	sums := map[string]float64{"NW": 0, "NE": 0, "SW": 0, "SE": 0}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			key := "SE"
			switch {
			case y < midY && x < midX:
				key = "NW"
			case y < midY:
				key = "NE"
			case x < midX:
				key = "SW"
			}
			sums[key] += weights[y*w+x]
		}
	}

	total := sums["NW"] + sums["NE"] + sums["SW"] + sums["SE"]
	if total == 0 {
		return map[string]float64{"NW": 0.25, "NE": 0.25, "SW": 0.25, "SE": 0.25}
	}
	for k := range sums {
		sums[k] /= total
	}
	return sums
}

// edgeDensity is the mean absolute horizontal plus vertical gradient of the
// grayscale image, a cheap proxy for visual complexity.
func edgeDensity(img image.Image) float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 2 || h < 2 {
		return 0
	}

	var sumX, sumY float64
	var nX, nY int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := grayAt(img, b.Min.X+x, b.Min.Y+y)
			if x+1 < w {
				sumX += math.Abs(grayAt(img, b.Min.X+x+1, b.Min.Y+y) - v)
				nX++
			}
			if y+1 < h {
				sumY += math.Abs(grayAt(img, b.Min.X+x, b.Min.Y+y+1) - v)
				nY++
			}
		}
	}
	return sumX/float64(nX) + sumY/float64(nY)
}
