package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canvasmith/canvasmith/pkg/layout"
	"github.com/canvasmith/canvasmith/pkg/refine"
)

// runCommand creates the run command that drives the full refinement loop.
func (c *CLI) runCommand() *cobra.Command {
	var (
		output        string
		maxIterations int
		palette       string
	)

	cmd := &cobra.Command{
		Use:   "run [design.json]",
		Short: "Drive the full solve/verify refinement loop for a description",
		Long: `Drive the full solve/verify refinement loop for a description.

The run command solves the description into geometry, renders it as SVG, and
verifies the result layer by layer. Failed candidates are retried with
verification feedback until the loop passes or its iteration budget is
exhausted. A partially successful run keeps the best candidate seen.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRefine(cmd.Context(), args[0], output, maxIterations, palette)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output SVG file (default: <input>.svg)")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "iteration cap for the loop (default from config)")
	cmd.Flags().StringVar(&palette, "palette", "", "comma-separated list of approved colors")

	return cmd
}

// staticGenerator returns the same description on every iteration. Feedback
// is dropped, so a failing candidate can only improve through re-solving.
type staticGenerator struct {
	desc *layout.Description
}

func (g staticGenerator) Generate(context.Context, string, string) (*layout.Description, error) {
	return g.desc, nil
}

func (c *CLI) runRefine(ctx context.Context, input, output string, maxIterations int, palette string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if maxIterations > 0 {
		cfg.Refine.MaxIterations = maxIterations
	}
	approved := cfg.Verify.Palette
	if palette != "" {
		approved = strings.Split(palette, ",")
	}

	raw, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read description %s: %w", input, err)
	}
	desc, err := layout.ParseDescription(raw)
	if err != nil {
		return fmt.Errorf("parse description %s: %w", input, err)
	}

	controller := refine.NewController(staticGenerator{desc: desc}, refine.Options{
		CanvasWidth:      cfg.Canvas.Width,
		CanvasHeight:     cfg.Canvas.Height,
		Palette:          approved,
		MinFontSize:      cfg.Verify.MinFontSize,
		MinSpacing:       cfg.Verify.MinSpacing,
		BlankThreshold:   cfg.Verify.BlankThreshold,
		VarianceMin:      cfg.Verify.VarianceMin,
		VarianceMax:      cfg.Verify.VarianceMax,
		BalanceThreshold: cfg.Verify.BalanceThreshold,
		MaxIterations:    cfg.Refine.MaxIterations,
		Budget:           cfg.RefineBudget(),
		SolveBudget:      cfg.SolveBudget(),
		MaxSolveAttempts: cfg.Solver.MaxAttempts,
	})

	spinner := newSpinnerWithContext(ctx, "Refining layout...")
	spinner.Start()
	result := controller.Run(withLogger(ctx, c.Logger), input)
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	switch {
	case result.Success:
		printSuccess("Refinement converged after %d iteration(s)", result.Iterations)
	case result.Partial:
		printWarning("Iteration budget exhausted, keeping best candidate")
	default:
		for _, msg := range result.Errors {
			printDetail("%s", msg)
		}
		return fmt.Errorf("refinement failed after %d iteration(s)", result.Iterations)
	}

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".svg"
	}
	if err := os.WriteFile(outputPath, []byte(result.SVG), 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}
	printFile(outputPath)

	if result.Report != nil && !result.Success {
		reportPath := strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".report.json"
		if body, jerr := json.MarshalIndent(result.Report, "", "  "); jerr == nil {
			if werr := os.WriteFile(reportPath, body, 0o644); werr == nil {
				printFile(reportPath)
			}
		}
	}

	return nil
}
