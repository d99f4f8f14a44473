package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canvasmith/canvasmith/pkg/verify"
)

// verifyCommand creates the verify command for running the validation pipeline.
func (c *CLI) verifyCommand() *cobra.Command {
	var (
		asJSON     bool
		palette    string
		minFont    int
		minSpacing int
		pngPath    string
	)

	cmd := &cobra.Command{
		Use:   "verify [candidate.svg]",
		Short: "Run an SVG candidate through the validation pipeline",
		Long: `Run an SVG candidate through the validation pipeline.

The verify command checks the candidate layer by layer: SVG syntax, spatial
bounds, text legibility (WCAG contrast), color palette conformance, and, if a
rendered PNG is supplied with --png, raster sanity and visual balance.

The exit code is non-zero when verification fails, so the command can gate
scripted pipelines.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runVerify(cmd.Context(), args[0], asJSON, palette, minFont, minSpacing, pngPath)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the full report as JSON")
	cmd.Flags().StringVar(&palette, "palette", "", "comma-separated list of approved colors")
	cmd.Flags().IntVar(&minFont, "min-font", 0, "minimum legible font size in pixels (default from config)")
	cmd.Flags().IntVar(&minSpacing, "min-spacing", 0, "minimum spacing between elements in pixels")
	cmd.Flags().StringVar(&pngPath, "png", "", "rendered PNG of the candidate for pixel-level checks")

	return cmd
}

// runVerify loads the candidate and prints the layered report.
func (c *CLI) runVerify(ctx context.Context, input string, asJSON bool, palette string, minFont, minSpacing int, pngPath string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if minFont > 0 {
		cfg.Verify.MinFontSize = minFont
	}
	if minSpacing > 0 {
		cfg.Verify.MinSpacing = minSpacing
	}
	approved := cfg.Verify.Palette
	if palette != "" {
		approved = strings.Split(palette, ",")
	}

	svg, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read candidate %s: %w", input, err)
	}
	var rendered []byte
	if pngPath != "" {
		rendered, err = os.ReadFile(pngPath)
		if err != nil {
			return fmt.Errorf("read rendered image %s: %w", pngPath, err)
		}
	}

	pipeline := verify.NewPipeline(cfg.Canvas.Width, cfg.Canvas.Height,
		verify.WithPalette(approved),
		verify.WithMinFontSize(cfg.Verify.MinFontSize),
		verify.WithMinSpacing(cfg.Verify.MinSpacing),
		verify.WithPixelThresholds(cfg.Verify.BlankThreshold, cfg.Verify.VarianceMin, cfg.Verify.VarianceMax),
		verify.WithBalanceThreshold(cfg.Verify.BalanceThreshold),
	)
	report := pipeline.Verify(ctx, string(svg), rendered)

	if asJSON {
		body, jerr := json.MarshalIndent(report, "", "  ")
		if jerr != nil {
			return fmt.Errorf("encode report: %w", jerr)
		}
		fmt.Println(string(body))
	} else {
		printReport(report)
	}

	if !report.Passed() {
		return fmt.Errorf("verification failed")
	}
	return nil
}

// printReport renders a human-readable layer summary.
func printReport(report *verify.Report) {
	names := make([]string, 0, len(report.Layers))
	for name := range report.Layers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		layer := report.Layers[name]
		switch layer.Status {
		case verify.StatusPass, verify.StatusAutoCorrected:
			printSuccess("%s: %s", name, layer.Status)
		case verify.StatusWarn:
			printWarning("%s: %s", name, layer.Status)
		case verify.StatusSkip:
			printDetail("%s: skipped", name)
		default:
			printError("%s: %s", name, layer.Status)
		}
		for _, msg := range layer.Errors {
			printDetail("%s", msg)
		}
	}

	printNewline()
	if report.Passed() {
		printSuccess("Verification passed")
	} else {
		printError("Verification failed")
		if report.NeedsSolver {
			printDetail("spatial violations can be fixed by re-solving the layout")
		}
	}
}
