package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/canvasmith/canvasmith/pkg/cache"
	"github.com/canvasmith/canvasmith/pkg/layout"
	"github.com/canvasmith/canvasmith/pkg/layout/relax"
)

// solveCommand creates the solve command for computing element geometry.
func (c *CLI) solveCommand() *cobra.Command {
	var (
		output      string
		asSVG       bool
		noCache     bool
		width       int
		height      int
		budgetMs    int64
		maxAttempts int
	)

	cmd := &cobra.Command{
		Use:   "solve [design.json]",
		Short: "Compute pixel-exact geometry for a layout description",
		Long: `Compute pixel-exact geometry for a layout description.

The solve command takes a design.json file describing elements and their
relationships, runs the constraint solver with progressive relaxation, and
writes the calculated layout as JSON (or SVG with --svg).

If the constraints cannot all be satisfied within the time budget, lower
priority tiers are dropped step by step; a vertical stack fallback guarantees
a result for any structurally valid input.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSolve(cmd.Context(), args[0], output, asSVG, noCache, width, height, budgetMs, maxAttempts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json, or stdout for --svg)")
	cmd.Flags().BoolVar(&asSVG, "svg", false, "emit the solved layout as SVG instead of JSON")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().IntVar(&width, "width", 0, "canvas width in pixels (default from config)")
	cmd.Flags().IntVar(&height, "height", 0, "canvas height in pixels (default from config)")
	cmd.Flags().Int64Var(&budgetMs, "budget", 0, "per-attempt solver budget in milliseconds (default from config)")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "relaxation attempts before the stack fallback (default from config)")

	return cmd
}

// runSolve loads the description, solves it, and writes the output.
func (c *CLI) runSolve(ctx context.Context, input, output string, asSVG, noCache bool, width, height int, budgetMs int64, maxAttempts int) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if width > 0 {
		cfg.Canvas.Width = width
	}
	if height > 0 {
		cfg.Canvas.Height = height
	}
	if budgetMs > 0 {
		cfg.Solver.BudgetMs = budgetMs
	}
	if maxAttempts > 0 {
		cfg.Solver.MaxAttempts = maxAttempts
	}

	raw, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read description %s: %w", input, err)
	}
	desc, err := layout.ParseDescription(raw)
	if err != nil {
		return fmt.Errorf("parse description %s: %w", input, err)
	}

	store := c.newCache(cfg, noCache)
	defer store.Close()
	keyer := cache.NewDefaultKeyer()
	key := keyer.LayoutKey(cache.Hash(raw), cache.LayoutKeyOpts{
		CanvasWidth:  cfg.Canvas.Width,
		CanvasHeight: cfg.Canvas.Height,
		BudgetMs:     cfg.Solver.BudgetMs,
		MaxAttempts:  cfg.Solver.MaxAttempts,
	})

	var calc layout.Calculated
	cacheHit := false
	if cached, ok, cerr := store.Get(ctx, key); cerr == nil && ok {
		if jerr := json.Unmarshal(cached, &calc); jerr == nil {
			cacheHit = true
		}
	}

	if !cacheHit {
		g, structErrs := layout.FromDescription(desc, cfg.Canvas.Width, cfg.Canvas.Height)
		if len(structErrs) > 0 {
			for _, se := range structErrs {
				printError("%s", se.Error())
			}
			return fmt.Errorf("description has %d structural errors", len(structErrs))
		}

		spinner := newSpinnerWithContext(ctx, "Solving layout constraints...")
		spinner.Start()
		result := relax.Solve(g, relax.Options{
			Budget:      cfg.SolveBudget(),
			MaxAttempts: cfg.Solver.MaxAttempts,
		})
		spinner.Stop()

		if ctx.Err() != nil {
			return ctx.Err()
		}

		calc = result.Graph.Export(layout.CalculatedMeta{
			Status:             string(result.Solved.Status),
			SolveTimeMs:        result.Solved.SolveTimeMs,
			OmittedConstraints: result.Solved.Omitted,
			Degraded:           result.Degraded,
		})
		if body, jerr := json.Marshal(calc); jerr == nil {
			if cerr := store.Set(ctx, key, body, cfg.CacheTTL()); cerr != nil {
				c.Logger.Debug("cache write failed", "err", cerr)
			}
		}

		if result.Degraded {
			printWarning("Constraints exhausted, used stack fallback")
		}
		for _, adj := range result.Adjustments {
			printDetail("relaxed: %s", adj)
		}
	}

	if asSVG {
		svg := calc.SVG()
		if output == "" {
			fmt.Println(svg)
			return nil
		}
		if err := os.WriteFile(output, []byte(svg), 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", output, err)
		}
		printSuccess("Layout solved")
		printFile(output)
		return nil
	}

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".layout.json"
	}
	body, err := json.MarshalIndent(calc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	if err := os.WriteFile(outputPath, body, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout solved")
	printFile(outputPath)
	printStats(len(calc.Elements), len(desc.Relationships), cacheHit)
	if calc.Metadata.SolveTimeMs > 0 {
		printDetail("solve time: %s", (time.Duration(calc.Metadata.SolveTimeMs * float64(time.Millisecond))).Round(time.Millisecond).String())
	}
	printNewline()
	printNextStep("Render", "canvasmith solve --svg "+input)

	return nil
}
