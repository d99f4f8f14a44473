// Package pkg provides the core libraries for canvasmith layout generation.
//
// # Overview
//
// Canvasmith turns structural layout descriptions into pixel-exact,
// verified geometry. The pkg directory is organized into four main areas:
//
//  1. [layout] - Domain logic (description parsing, constraint graph, solver, relaxation)
//  2. [verify] - Layered validation of SVG candidates (syntax through visual balance)
//  3. [refine] - The bounded generate/solve/verify refinement loop
//  4. [cache], [config], [observability] - Infrastructure (content-keyed caching,
//     TOML configuration, instrumentation hooks)
//
// # Architecture
//
// The typical data flow through canvasmith:
//
//	Layout Description (design.json)
//	         ↓
//	    [layout] package (constraint graph)
//	         ↓
//	    [layout/solver] + [layout/relax] (pixel geometry, progressive relaxation)
//	         ↓
//	    [verify] package (layered validation)
//	         ↓
//	    [refine] package (retry with feedback until the candidate passes)
//	         ↓
//	    SVG/JSON output
//
// # Quick Start
//
//	desc, err := layout.ParseDescription(raw)
//	if err != nil { ... }
//	g, structErrs := layout.FromDescription(desc, 1200, 630)
//	result := relax.Solve(g, relax.Options{})
//	calc := result.Graph.Export(layout.CalculatedMeta{Status: string(result.Solved.Status)})
//	svg := calc.SVG()
package pkg
