package verify

import (
	"context"
	"fmt"
	"strings"
)

// AutoCorrector repairs spatial findings by re-solving the structural
// description behind a candidate. Implementations return true when a
// corrected layout was produced.
type AutoCorrector interface {
	CorrectSpatial(ctx context.Context, svg string, findings []Issue) bool
}

// Pipeline runs the ordered verification battery over a rendered candidate.
//
// Layer 1 gates the rest: a candidate that fails syntax is rejected without
// running any other layer. Layers 2-5 gate the aggregate result; layer 6 is
// advisory only. A Pipeline is read-only after construction and safe to
// share across requests.
type Pipeline struct {
	canvasWidth  int
	canvasHeight int
	minFontSize  int

	syntax     SyntaxChecker
	spatial    SpatialChecker
	legibility LegibilityChecker
	palette    *PaletteChecker
	pixels     PixelInspector
	balance    BalanceAnalyzer

	corrector AutoCorrector
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPalette restricts candidates to an approved color list.
func WithPalette(palette []string) PipelineOption {
	return func(p *Pipeline) { p.palette = NewPaletteChecker(palette) }
}

// WithMinFontSize overrides the minimum legible font size.
func WithMinFontSize(size int) PipelineOption {
	return func(p *Pipeline) { p.minFontSize = size }
}

// WithMinSpacing enables the pairwise overlap check with the given buffer.
func WithMinSpacing(px int) PipelineOption {
	return func(p *Pipeline) { p.spatial.MinSpacing = px }
}

// WithAutoCorrector installs a solver hook for spatial findings.
func WithAutoCorrector(c AutoCorrector) PipelineOption {
	return func(p *Pipeline) { p.corrector = c }
}

// WithPixelThresholds overrides the raster sanity thresholds.
func WithPixelThresholds(blank, varianceMin, varianceMax float64) PipelineOption {
	return func(p *Pipeline) {
		p.pixels = PixelInspector{
			BlankThreshold: blank,
			VarianceMin:    varianceMin,
			VarianceMax:    varianceMax,
		}
	}
}

// WithBalanceThreshold overrides the advisory balance threshold.
func WithBalanceThreshold(t float64) PipelineOption {
	return func(p *Pipeline) { p.balance = BalanceAnalyzer{Threshold: t} }
}

// DefaultMinFontSize is the smallest legible font size in pixels.
const DefaultMinFontSize = 14

// NewPipeline builds a verification pipeline for the given canvas.
func NewPipeline(canvasWidth, canvasHeight int, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		canvasWidth:  canvasWidth,
		canvasHeight: canvasHeight,
		minFontSize:  DefaultMinFontSize,
		spatial:      SpatialChecker{CanvasWidth: canvasWidth, CanvasHeight: canvasHeight},
		palette:      NewPaletteChecker(nil),
		pixels:       NewPixelInspector(),
		balance:      NewBalanceAnalyzer(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.legibility = LegibilityChecker{MinFontSize: p.minFontSize}
	return p
}

// Verify runs the full battery over a candidate. rendered may be nil when
// no rasterization is available; the raster checks are then skipped.
func (p *Pipeline) Verify(ctx context.Context, svg string, rendered []byte) *Report {
	report := newReport()

	// Layer 1: syntax. Fatal, nothing else runs on failure.
	if issues := p.syntax.Check(svg); len(issues) > 0 {
		prompt := p.syntaxPrompt(issues)
		report.Layers[LayerSyntax] = LayerResult{
			Status: StatusFail,
			Errors: messages(issues),
			Action: ActionReject,
			Issues: issues,
			prompt: prompt,
		}
		report.Overall = StatusFail
		report.RefinementPrompts = append(report.RefinementPrompts, prompt)
		return report
	}
	report.Layers[LayerSyntax] = LayerResult{Status: StatusPass, Errors: []string{}}

	// Layer 2: spatial. Correctable by the solver.
	if issues := p.spatial.Check(svg); len(issues) > 0 {
		result := LayerResult{
			Status: StatusFail,
			Errors: messages(issues),
			Action: ActionSolver,
			Issues: issues,
			prompt: p.spatialPrompt(issues),
		}
		report.NeedsSolver = true
		if p.corrector != nil && p.corrector.CorrectSpatial(ctx, svg, issues) {
			result.Status = StatusAutoCorrected
			result.AutoCorrected = true
			report.NeedsSolver = false
		}
		report.Layers[LayerSpatial] = result
	} else {
		report.Layers[LayerSpatial] = LayerResult{Status: StatusPass, Errors: []string{}}
	}

	// Layer 3: text legibility.
	p.runRefinementLayer(report, LayerLegibility, p.legibilityIssues(svg), p.legibilityPrompt)

	// Layer 4: palette conformance.
	p.runRefinementLayer(report, LayerPalette, p.palette.Check(svg), p.palettePrompt)

	// Layer 5: render sanity.
	p.runRefinementLayer(report, LayerRendering, p.renderingIssues(svg, rendered), p.renderPrompt)

	// Layer 6: visual balance, advisory only.
	if rendered == nil {
		report.Layers[LayerVisualBalance] = LayerResult{Status: StatusSkip, Errors: []string{}}
	} else if issues := p.balance.Check(rendered); len(issues) > 0 {
		report.Layers[LayerVisualBalance] = LayerResult{
			Status: StatusWarn,
			Errors: messages(issues),
			Issues: issues,
		}
	} else {
		report.Layers[LayerVisualBalance] = LayerResult{Status: StatusPass, Errors: []string{}}
	}

	for name, result := range report.Layers {
		if name == LayerVisualBalance {
			continue
		}
		if result.Status == StatusFail {
			report.Overall = StatusFail
			break
		}
	}
	return report
}

// runRefinementLayer records a layer whose failures are fixed by the next
// generation attempt rather than by the solver.
func (p *Pipeline) runRefinementLayer(report *Report, name string, issues []Issue, promptFn func([]Issue) string) {
	if len(issues) == 0 {
		report.Layers[name] = LayerResult{Status: StatusPass, Errors: []string{}}
		return
	}
	prompt := promptFn(issues)
	report.Layers[name] = LayerResult{
		Status: StatusFail,
		Errors: messages(issues),
		Action: ActionRefine,
		Issues: issues,
		prompt: prompt,
	}
	report.RefinementPrompts = append(report.RefinementPrompts, prompt)
}

// legibilityIssues combines the font-size and contrast checks.
func (p *Pipeline) legibilityIssues(svg string) []Issue {
	return p.legibility.Check(svg)
}

// renderingIssues checks the candidate's declared dimensions, that it has
// any visible content, and, when a rasterization is present, its pixels.
func (p *Pipeline) renderingIssues(svg string, rendered []byte) []Issue {
	var issues []Issue

	w, h := dimensions(svg)
	if int(w) != p.canvasWidth {
		issues = append(issues, Issue{
			Kind:     KindRenderArtifact,
			Severity: SeverityError,
			Message:  fmt.Sprintf("width mismatch: %gpx vs expected %dpx", w, p.canvasWidth),
		})
	}
	if int(h) != p.canvasHeight {
		issues = append(issues, Issue{
			Kind:     KindRenderArtifact,
			Severity: SeverityError,
			Message:  fmt.Sprintf("height mismatch: %gpx vs expected %dpx", h, p.canvasHeight),
		})
	}

	hasContent := false
	for _, tag := range []string{"<rect", "<text", "<path", "<image", "<circle", "<ellipse"} {
		if strings.Contains(svg, tag) {
			hasContent = true
			break
		}
	}
	if !hasContent {
		issues = append(issues, Issue{
			Kind:     KindBlankCanvas,
			Severity: SeverityCritical,
			Message:  "SVG has no visual elements",
		})
	}

	if rendered != nil {
		issues = append(issues, p.pixels.Check(rendered)...)
	}
	return issues
}

func (p *Pipeline) syntaxPrompt(issues []Issue) string {
	return fmt.Sprintf(`[SYNTAX ERROR] The SVG is malformed and cannot be parsed:
%s

Fix: Ensure the SVG is valid XML with proper tag structure.`, bullets(issues))
}

func (p *Pipeline) spatialPrompt(issues []Issue) string {
	return fmt.Sprintf(`[SPATIAL ERROR] Layout constraints violated:
%s

Fix: Adjust element positions to stay within canvas (%dx%d) and prevent overlaps.`,
		bullets(issues), p.canvasWidth, p.canvasHeight)
}

func (p *Pipeline) legibilityPrompt(issues []Issue) string {
	return fmt.Sprintf(`[READABILITY ERROR] Text accessibility issues:
%s

Fix: Increase font size (min %dpx) or adjust colors for WCAG %.1f:1 contrast.`,
		bullets(issues), p.minFontSize, MinContrastRatio)
}

func (p *Pipeline) palettePrompt(issues []Issue) string {
	approved := "no palette defined"
	if p.palette.Enabled() {
		approved = strings.Join(p.palette.Approved(), ", ")
	}
	return fmt.Sprintf(`[COLOR ERROR] Unauthorized colors detected:
%s

Fix: Use only approved palette colors: %s`, bullets(issues), approved)
}

func (p *Pipeline) renderPrompt(issues []Issue) string {
	return fmt.Sprintf(`[RENDER ERROR] Visual output issues:
%s

Fix: Ensure elements are visible (not transparent/white-on-white) and properly sized.`,
		bullets(issues))
}
