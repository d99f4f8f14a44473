// Package refine runs the bounded generate-solve-verify loop.
//
// An external generator proposes a structural description; the constraint
// solver turns it into pixel geometry (falling back through progressive
// relaxation); the verification pipeline certifies the rendered candidate.
// Failures feed remediation text back into the next generation attempt.
// The loop is bounded twice over: by an iteration cap and by an overall
// wall-clock budget, and an oscillation guard breaks feedback cycles.
package refine

import (
	"context"
	"fmt"
	"time"

	"github.com/canvasmith/canvasmith/pkg/layout"
	"github.com/canvasmith/canvasmith/pkg/layout/relax"
	"github.com/canvasmith/canvasmith/pkg/observability"
	"github.com/canvasmith/canvasmith/pkg/verify"
)

// State is a position in the refinement loop.
type State string

// Loop states. A run moves GENERATE -> SOLVE -> VERIFY each iteration and
// ends in DONE or FAILED.
const (
	StateIdle     State = "idle"
	StateGenerate State = "generate"
	StateSolve    State = "solve"
	StateVerify   State = "verify"
	StateDone     State = "done"
	StateFailed   State = "failed"
)

// Defaults for the loop bounds.
const (
	DefaultMaxIterations = 5
	DefaultBudget        = 30 * time.Second
)

// oscillationBreaker is appended to the feedback when the same remediation
// text comes back twice in a row.
const oscillationBreaker = "\n\nSAFE FALLBACK: Remove the problematic element entirely."

// Generator proposes a structural description for a prompt. feedback is
// empty on the first attempt and carries the previous iteration's
// remediation text afterwards.
type Generator interface {
	Generate(ctx context.Context, prompt, feedback string) (*layout.Description, error)
}

// Renderer rasterizes SVG markup for the pixel-level verification layers.
// A nil Renderer in [Options] skips those layers.
type Renderer interface {
	Render(ctx context.Context, svg string) ([]byte, error)
}

// Options configures a Controller. CanvasWidth and CanvasHeight are
// required; everything else has a default.
type Options struct {
	CanvasWidth  int
	CanvasHeight int

	// Palette restricts candidates to an approved color list when set.
	Palette []string
	// MinFontSize overrides the legibility minimum when positive.
	MinFontSize int
	// MinSpacing enables the verifier's pairwise overlap check.
	MinSpacing int

	// BlankThreshold, VarianceMin, and VarianceMax override the raster
	// sanity thresholds when positive.
	BlankThreshold float64
	VarianceMin    float64
	VarianceMax    float64
	// BalanceThreshold overrides the advisory balance threshold when
	// positive.
	BalanceThreshold float64

	// MaxIterations caps loop iterations; zero means DefaultMaxIterations.
	MaxIterations int
	// Budget is the overall wall-clock limit for one run, independent of
	// the per-attempt solver budget; zero means DefaultBudget.
	Budget time.Duration
	// SolveBudget is the per-attempt solver budget; zero means the solver
	// default.
	SolveBudget time.Duration
	// MaxSolveAttempts caps relaxation attempts per iteration.
	MaxSolveAttempts int

	// Renderer rasterizes candidates. Optional.
	Renderer Renderer
}

// Result is the outcome of one refinement run.
type Result struct {
	// Success means a candidate passed verification. Partial means the
	// loop was exhausted or out of budget but a renderable candidate
	// exists; Success and Partial are mutually exclusive.
	Success bool `json:"success"`
	Partial bool `json:"partial"`

	SVG    string             `json:"svg,omitempty"`
	Layout *layout.Calculated `json:"layout,omitempty"`
	Report *verify.Report     `json:"report,omitempty"`

	// Degraded means the candidate's geometry came from the relaxation
	// engine's stack fallback.
	Degraded bool `json:"degraded"`
	// Adjustments lists the relaxation concessions behind the candidate.
	Adjustments []string `json:"adjustments,omitempty"`

	Iterations  int     `json:"iterations"`
	State       State   `json:"state"`
	TotalTimeMs float64 `json:"totalTimeMs"`
	Errors      []string `json:"errors,omitempty"`
}

// Controller drives the refinement loop. It holds only read-only
// configuration; each Run owns its own state, so a Controller may be shared
// across requests.
type Controller struct {
	gen  Generator
	opts Options
}

// NewController builds a loop controller around a generator.
func NewController(gen Generator, opts Options) *Controller {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.Budget <= 0 {
		opts.Budget = DefaultBudget
	}
	return &Controller{gen: gen, opts: opts}
}

// run carries the mutable state of one refinement run.
type run struct {
	state    State
	feedback string

	// Oscillation guard bookkeeping.
	lastFeedback  string
	repeatedCount int

	// Best renderable candidate so far, for partial success.
	bestSVG    string
	bestLayout *layout.Calculated
	bestReport *verify.Report
}

func (r *run) transition(ctx context.Context, to State) {
	observability.Refine().OnStateChange(ctx, string(r.state), string(to))
	r.state = to
}

// Run executes the loop for a prompt until a candidate passes, the
// iteration bound is hit, or the budget expires.
func (c *Controller) Run(ctx context.Context, prompt string) *Result {
	start := time.Now()
	deadline := start.Add(c.opts.Budget)

	pipeline := c.newPipeline()
	st := &run{state: StateIdle}
	res := &Result{}

	for iter := 1; iter <= c.opts.MaxIterations; iter++ {
		if time.Now().After(deadline) || ctx.Err() != nil {
			break
		}
		res.Iterations = iter

		// GENERATE: ask the external collaborator for a description.
		st.transition(ctx, StateGenerate)
		desc, err := c.gen.Generate(ctx, prompt, st.feedback)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("generation failed: %v", err))
			st.feedback = "Failed to generate a structural description. Simplify the design."
			observability.Refine().OnIteration(ctx, iter, false)
			continue
		}

		g, structErrs := layout.FromDescription(desc, c.opts.CanvasWidth, c.opts.CanvasHeight)
		if len(structErrs) > 0 {
			msgs := make([]string, len(structErrs))
			for i, se := range structErrs {
				msgs[i] = se.Error()
			}
			res.Errors = append(res.Errors, msgs...)
			st.feedback = "The structural description is malformed:\n" + joinLines(msgs) +
				"\nFix the element and relationship references."
			observability.Refine().OnIteration(ctx, iter, false)
			continue
		}

		// SOLVE: relaxation guarantees geometry for a well-formed graph.
		st.transition(ctx, StateSolve)
		observability.Solver().OnSolveStart(ctx, g.NodeCount(), g.EdgeCount())
		solved := relax.Solve(g, relax.Options{
			Budget:      c.opts.SolveBudget,
			MaxAttempts: c.opts.MaxSolveAttempts,
		})
		for i, attempt := range solved.Attempts {
			observability.Solver().OnRelaxStep(ctx, attempt.Step, i+1)
		}
		if solved.Degraded {
			observability.Solver().OnFallback(ctx, g.NodeCount())
		}
		observability.Solver().OnSolveComplete(ctx, string(solved.Solved.Status),
			time.Duration(solved.Solved.SolveTimeMs*float64(time.Millisecond)))

		calc := solved.Graph.Export(layout.CalculatedMeta{
			Status:             string(solved.Solved.Status),
			SolveTimeMs:        solved.Solved.SolveTimeMs,
			OmittedConstraints: solved.Solved.Omitted,
			Degraded:           solved.Degraded,
		})
		svg := calc.SVG()

		var rendered []byte
		if c.opts.Renderer != nil {
			// Rendering failures degrade to markup-only verification.
			if img, err := c.opts.Renderer.Render(ctx, svg); err == nil {
				rendered = img
			} else {
				res.Errors = append(res.Errors, fmt.Sprintf("render failed: %v", err))
			}
		}

		// VERIFY: certify the candidate.
		st.transition(ctx, StateVerify)
		verifyStart := time.Now()
		report := pipeline.Verify(ctx, svg, rendered)
		for name, layer := range report.Layers {
			observability.Verify().OnLayerComplete(ctx, name, string(layer.Status), len(layer.Errors))
		}
		observability.Verify().OnVerifyComplete(ctx, string(report.Overall), time.Since(verifyStart))

		// Any candidate that got this far rendered; remember the latest
		// for partial success.
		st.bestSVG = svg
		st.bestLayout = &calc
		st.bestReport = report

		if report.Passed() {
			st.transition(ctx, StateDone)
			observability.Refine().OnIteration(ctx, iter, true)
			res.Success = true
			res.SVG = svg
			res.Layout = &calc
			res.Report = report
			res.Degraded = solved.Degraded
			res.Adjustments = solved.Adjustments
			res.State = StateDone
			res.TotalTimeMs = float64(time.Since(start).Microseconds()) / 1000
			return res
		}

		observability.Refine().OnIteration(ctx, iter, false)
		st.feedback = report.RefinementText()

		// Oscillation guard: the same remediation twice in a row means the
		// generator is stuck; force it to drop the offender.
		if st.feedback != "" && st.feedback == st.lastFeedback {
			st.repeatedCount++
			if st.repeatedCount >= 2 {
				st.feedback += oscillationBreaker
				observability.Refine().OnOscillation(ctx, iter)
			}
		} else {
			st.repeatedCount = 0
			st.lastFeedback = st.feedback
		}
	}

	// Exhausted or out of budget: partial success when anything rendered.
	st.transition(ctx, StateFailed)
	res.State = StateFailed
	res.TotalTimeMs = float64(time.Since(start).Microseconds()) / 1000
	if st.bestSVG != "" {
		res.Partial = true
		res.SVG = st.bestSVG
		res.Layout = st.bestLayout
		res.Report = st.bestReport
	} else {
		res.Errors = append(res.Errors, "no candidate rendered within the iteration and time budget")
	}
	return res
}

// newPipeline assembles the verification pipeline from the options.
func (c *Controller) newPipeline() *verify.Pipeline {
	opts := []verify.PipelineOption{}
	if len(c.opts.Palette) > 0 {
		opts = append(opts, verify.WithPalette(c.opts.Palette))
	}
	if c.opts.MinFontSize > 0 {
		opts = append(opts, verify.WithMinFontSize(c.opts.MinFontSize))
	}
	if c.opts.MinSpacing > 0 {
		opts = append(opts, verify.WithMinSpacing(c.opts.MinSpacing))
	}
	if c.opts.BlankThreshold > 0 || c.opts.VarianceMin > 0 || c.opts.VarianceMax > 0 {
		blank := c.opts.BlankThreshold
		if blank <= 0 {
			blank = verify.DefaultBlankThreshold
		}
		vmin := c.opts.VarianceMin
		if vmin <= 0 {
			vmin = verify.DefaultVarianceMin
		}
		vmax := c.opts.VarianceMax
		if vmax <= 0 {
			vmax = verify.DefaultVarianceMax
		}
		opts = append(opts, verify.WithPixelThresholds(blank, vmin, vmax))
	}
	if c.opts.BalanceThreshold > 0 {
		opts = append(opts, verify.WithBalanceThreshold(c.opts.BalanceThreshold))
	}
	return verify.NewPipeline(c.opts.CanvasWidth, c.opts.CanvasHeight, opts...)
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += "  - " + l
	}
	return out
}
