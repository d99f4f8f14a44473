package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canvasmith/canvasmith/pkg/layout"
)

// graphCommand creates the graph command for inspecting the constraint graph.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		output string
		render bool
		width  int
		height int
	)

	cmd := &cobra.Command{
		Use:   "graph [design.json]",
		Short: "Export a description's constraint graph as DOT or SVG",
		Long: `Export a description's constraint graph as DOT or SVG.

The graph command parses a design.json file into the layout graph and emits
it in Graphviz DOT format, showing each element's size domain and every
constraint edge with its relation and priority tier. With --render, the DOT
is rasterized to SVG via Graphviz instead.

Useful for debugging why a set of constraints is infeasible.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd.Context(), args[0], output, render, width, height)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout, or <input>.dot.svg with --render)")
	cmd.Flags().BoolVar(&render, "render", false, "render the DOT to SVG via Graphviz")
	cmd.Flags().IntVar(&width, "width", 0, "canvas width in pixels (default from config)")
	cmd.Flags().IntVar(&height, "height", 0, "canvas height in pixels (default from config)")

	return cmd
}

func (c *CLI) runGraph(ctx context.Context, input, output string, render bool, width, height int) error {
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

	raw, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read description %s: %w", input, err)
	}
	desc, err := layout.ParseDescription(raw)
	if err != nil {
		return fmt.Errorf("parse description %s: %w", input, err)
	}
	g, structErrs := layout.FromDescription(desc, cfg.Canvas.Width, cfg.Canvas.Height)
	if len(structErrs) > 0 {
		for _, se := range structErrs {
			printError("%s", se.Error())
		}
		return fmt.Errorf("description has %d structural errors", len(structErrs))
	}

	dot := layout.ToDOT(g)
	if !render {
		if output == "" {
			fmt.Print(dot)
			return nil
		}
		if err := os.WriteFile(output, []byte(dot), 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", output, err)
		}
		printSuccess("Graph exported")
		printFile(output)
		return nil
	}

	svg, err := layout.RenderDOT(ctx, dot)
	if err != nil {
		return fmt.Errorf("render graph: %w", err)
	}
	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".dot.svg"
	}
	if err := os.WriteFile(outputPath, svg, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Graph rendered")
	printFile(outputPath)
	printStats(g.NodeCount(), g.EdgeCount(), false)

	return nil
}
