// Package verify certifies rendered layout candidates.
//
// A candidate (SVG markup plus an optional rasterization) passes through an
// ordered battery of checks: markup syntax, spatial bounds, text
// legibility, palette conformance, raster sanity, and visual balance. Each
// layer reports structured findings with a remediation action: reject the
// candidate outright, trigger the constraint solver, or hand targeted
// refinement text back to the generator. The aggregate [Report] is the
// refinement loop's steering signal.
package verify
