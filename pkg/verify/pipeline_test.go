package verify

import (
	"context"
	"strings"
	"testing"
)

type stubCorrector struct {
	called bool
	result bool
}

func (s *stubCorrector) CorrectSpatial(_ context.Context, _ string, _ []Issue) bool {
	s.called = true
	return s.result
}

const cleanSVG = `<svg width="600" height="300">
	<rect x="0" y="0" width="600" height="300" fill="#FFFFFF"/>
	<text x="20" y="80" font-size="48" fill="#000000">Launch Day</text>
</svg>`

func TestPipelinePass(t *testing.T) {
	p := NewPipeline(600, 300)
	report := p.Verify(context.Background(), cleanSVG, nil)

	if !report.Passed() {
		t.Fatalf("clean candidate failed: %+v", report)
	}
	for _, name := range []string{LayerSyntax, LayerSpatial, LayerLegibility, LayerPalette, LayerRendering} {
		if got := report.Layer(name).Status; got != StatusPass {
			t.Errorf("layer %s status = %s, want pass", name, got)
		}
	}
	if got := report.Layer(LayerVisualBalance).Status; got != StatusSkip {
		t.Errorf("balance without rendered image = %s, want skipped", got)
	}
	if report.NeedsSolver {
		t.Error("NeedsSolver true on a passing report")
	}
	if text := report.RefinementText(); text != "" {
		t.Errorf("RefinementText on pass = %q, want empty", text)
	}
	if report.Timestamp == "" {
		t.Error("Timestamp not recorded")
	}
}

func TestPipelineSyntaxGatesEverything(t *testing.T) {
	p := NewPipeline(600, 300)
	report := p.Verify(context.Background(), "<svg><broken", nil)

	if report.Passed() {
		t.Fatal("malformed candidate passed")
	}
	syntax := report.Layer(LayerSyntax)
	if syntax.Status != StatusFail || syntax.Action != ActionReject {
		t.Errorf("syntax layer = %s/%s, want fail/reject", syntax.Status, syntax.Action)
	}
	if len(report.Layers) != 1 {
		t.Errorf("later layers ran after syntax failure: %v", report.Layers)
	}
	if len(report.RefinementPrompts) != 1 || !strings.Contains(report.RefinementPrompts[0], "[SYNTAX ERROR]") {
		t.Errorf("RefinementPrompts = %v, want single [SYNTAX ERROR] block", report.RefinementPrompts)
	}
}

func TestPipelineSpatialNeedsSolver(t *testing.T) {
	p := NewPipeline(600, 300)
	svg := `<svg width="600" height="300">
		<rect x="550" y="0" width="200" height="50" fill="#FFFFFF"/>
		<text x="20" y="80" font-size="48" fill="#000000">Overflow</text>
	</svg>`
	report := p.Verify(context.Background(), svg, nil)

	if report.Passed() {
		t.Fatal("out-of-bounds candidate passed")
	}
	spatial := report.Layer(LayerSpatial)
	if spatial.Status != StatusFail || spatial.Action != ActionSolver {
		t.Errorf("spatial layer = %s/%s, want fail/solver", spatial.Status, spatial.Action)
	}
	if !report.NeedsSolver {
		t.Error("NeedsSolver not set for solver-correctable findings")
	}
}

func TestPipelineAutoCorrection(t *testing.T) {
	corrector := &stubCorrector{result: true}
	p := NewPipeline(600, 300, WithAutoCorrector(corrector))
	svg := `<svg width="600" height="300">
		<rect x="550" y="0" width="200" height="50" fill="#FFFFFF"/>
		<text x="20" y="80" font-size="48" fill="#000000">Overflow</text>
	</svg>`
	report := p.Verify(context.Background(), svg, nil)

	if !corrector.called {
		t.Fatal("corrector never invoked")
	}
	spatial := report.Layer(LayerSpatial)
	if spatial.Status != StatusAutoCorrected {
		t.Errorf("spatial status = %s, want auto_corrected", spatial.Status)
	}
	if !spatial.AutoCorrected {
		t.Error("AutoCorrected flag not set")
	}
	if report.NeedsSolver {
		t.Error("NeedsSolver still set after auto-correction")
	}
	// A repaired spatial layer does not fail the aggregate.
	if !report.Passed() {
		t.Errorf("auto-corrected report failed: overall %s", report.Overall)
	}
}

func TestPipelineAutoCorrectionDeclined(t *testing.T) {
	corrector := &stubCorrector{result: false}
	p := NewPipeline(600, 300, WithAutoCorrector(corrector))
	svg := `<svg width="600" height="300">
		<rect x="550" y="0" width="200" height="50" fill="#FFFFFF"/>
	</svg>`
	report := p.Verify(context.Background(), svg, nil)

	if report.Layer(LayerSpatial).Status != StatusFail {
		t.Errorf("declined correction should leave the layer failed, got %s",
			report.Layer(LayerSpatial).Status)
	}
	if !report.NeedsSolver {
		t.Error("NeedsSolver cleared although correction was declined")
	}
}

func TestPipelineRefinementPromptOrder(t *testing.T) {
	// Tiny low-contrast text plus an off-palette color: two refinement
	// layers fail and their prompts appear in pipeline order.
	p := NewPipeline(600, 300, WithPalette([]string{"#FFFFFF", "#000000"}))
	svg := `<svg width="600" height="300">
		<rect x="0" y="0" width="600" height="300" fill="#FFFFFF"/>
		<text x="20" y="80" font-size="8" fill="#EEEEEE">faint</text>
	</svg>`
	report := p.Verify(context.Background(), svg, nil)

	if report.Passed() {
		t.Fatal("candidate passed despite legibility and palette findings")
	}
	if len(report.RefinementPrompts) != 2 {
		t.Fatalf("RefinementPrompts = %d blocks, want 2", len(report.RefinementPrompts))
	}
	if !strings.Contains(report.RefinementPrompts[0], "[READABILITY ERROR]") {
		t.Errorf("first prompt = %q, want readability block", report.RefinementPrompts[0])
	}
	if !strings.Contains(report.RefinementPrompts[1], "[COLOR ERROR]") {
		t.Errorf("second prompt = %q, want color block", report.RefinementPrompts[1])
	}
	if !strings.Contains(report.RefinementPrompts[1], "#000000, #FFFFFF") {
		t.Errorf("color prompt missing approved palette: %q", report.RefinementPrompts[1])
	}

	text := report.RefinementText()
	if !strings.HasPrefix(text, "VALIDATION ERRORS - Please fix the following issues:") {
		t.Errorf("RefinementText header missing: %q", text)
	}
}

func TestPipelineDimensionMismatch(t *testing.T) {
	p := NewPipeline(1200, 630)
	report := p.Verify(context.Background(), cleanSVG, nil)

	rendering := report.Layer(LayerRendering)
	if rendering.Status != StatusFail {
		t.Fatalf("rendering layer = %s, want fail on dimension mismatch", rendering.Status)
	}
	if !hasIssue(rendering.Issues, KindRenderArtifact, "width mismatch") {
		t.Errorf("missing width mismatch finding: %v", rendering.Issues)
	}
	if !hasIssue(rendering.Issues, KindRenderArtifact, "height mismatch") {
		t.Errorf("missing height mismatch finding: %v", rendering.Issues)
	}
}

func TestPipelineNoVisibleContent(t *testing.T) {
	p := NewPipeline(600, 300)
	report := p.Verify(context.Background(), `<svg width="600" height="300"><g></g></svg>`, nil)

	rendering := report.Layer(LayerRendering)
	if !hasIssue(rendering.Issues, KindBlankCanvas, "no visual elements") {
		t.Errorf("empty candidate not flagged: %v", rendering.Issues)
	}
}

func TestPipelineBalanceWarningDoesNotFail(t *testing.T) {
	p := NewPipeline(100, 100)
	svg := `<svg width="100" height="100">
		<rect x="0" y="0" width="100" height="100" fill="#FFFFFF"/>
		<rect x="0" y="0" width="30" height="30" fill="#000000"/>
	</svg>`
	rendered := encodePNG(t, cornerImage())
	report := p.Verify(context.Background(), svg, rendered)

	balance := report.Layer(LayerVisualBalance)
	if balance.Status != StatusWarn {
		t.Fatalf("balance layer = %s, want warning", balance.Status)
	}
	if !report.Passed() {
		t.Errorf("advisory balance warning failed the report: overall %s", report.Overall)
	}
}

func TestPipelineRasterFindingsGate(t *testing.T) {
	p := NewPipeline(100, 100)
	svg := `<svg width="100" height="100">
		<rect x="0" y="0" width="100" height="100" fill="#FFFFFF"/>
	</svg>`
	rendered := encodePNG(t, solidImage(100, 100, 255))
	report := p.Verify(context.Background(), svg, rendered)

	rendering := report.Layer(LayerRendering)
	if rendering.Status != StatusFail {
		t.Fatalf("rendering layer = %s, want fail on blank raster", rendering.Status)
	}
	if !hasIssue(rendering.Issues, KindBlankCanvas, "appears blank") {
		t.Errorf("blank raster not flagged: %v", rendering.Issues)
	}
	if report.Passed() {
		t.Error("blank raster passed the aggregate")
	}
}

func TestPipelineMinSpacing(t *testing.T) {
	p := NewPipeline(600, 300, WithMinSpacing(24))
	svg := `<svg width="600" height="300">
		<rect x="10" y="10" width="100" height="100" fill="#FFFFFF"/>
		<rect x="115" y="10" width="100" height="100" fill="#FFFFFF"/>
	</svg>`
	report := p.Verify(context.Background(), svg, nil)

	spatial := report.Layer(LayerSpatial)
	if spatial.Status != StatusFail {
		t.Fatalf("spatial layer = %s, want fail on spacing violation", spatial.Status)
	}
	if !hasIssue(spatial.Issues, KindIllegalOverlap, "overlap") {
		t.Errorf("missing overlap finding: %v", spatial.Issues)
	}
}

func TestPipelineMinFontSizeOption(t *testing.T) {
	p := NewPipeline(600, 300, WithMinFontSize(40))
	svg := `<svg width="600" height="300">
		<rect x="0" y="0" width="600" height="300" fill="#FFFFFF"/>
		<text x="20" y="80" font-size="32" fill="#000000">Subhead</text>
	</svg>`
	report := p.Verify(context.Background(), svg, nil)

	legibility := report.Layer(LayerLegibility)
	if !hasIssue(legibility.Issues, KindTextTooSmall, "below minimum (40px)") {
		t.Errorf("raised minimum not applied: %v", legibility.Issues)
	}
}
