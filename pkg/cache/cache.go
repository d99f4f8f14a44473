// Package cache provides pluggable caching for solved layouts and
// verification reports.
//
// Solving a layout and verifying a rendered candidate are both
// deterministic in their inputs, so the server caches by content hash:
// the same structural description solved with the same options yields the
// same geometry, and the same markup yields the same report. Backends
// range from a no-op [NullCache] through a [FileCache] for CLI use to a
// [RedisCache] shared between server replicas.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented cache with per-entry TTLs.
type Cache interface {
	// Get retrieves a value. The second return is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any backend resources.
	Close() error
}

// LayoutKeyOpts captures the solve parameters that change the result for
// the same description.
type LayoutKeyOpts struct {
	CanvasWidth  int
	CanvasHeight int
	BudgetMs     int64
	MaxAttempts  int
}

// ReportKeyOpts captures the verification parameters that change the
// report for the same candidate.
type ReportKeyOpts struct {
	CanvasWidth  int
	CanvasHeight int
	MinFontSize  int
	Palette      []string
}

// Keyer generates cache keys for the pipeline's cacheable stages.
type Keyer interface {
	// DescriptionKey keys a parsed structural description by the hash of
	// its raw JSON.
	DescriptionKey(rawHash string) string

	// LayoutKey keys a solved layout by description hash and solve options.
	LayoutKey(descHash string, opts LayoutKeyOpts) string

	// ReportKey keys a verification report by candidate hash and
	// verification options.
	ReportKey(svgHash string, opts ReportKeyOpts) string
}

// DefaultKeyer generates hash-based keys with stable prefixes.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// DescriptionKey generates a key for description caching.
func (k *DefaultKeyer) DescriptionKey(rawHash string) string {
	return hashKey("desc", rawHash)
}

// LayoutKey generates a key for solved-layout caching.
func (k *DefaultKeyer) LayoutKey(descHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", descHash, opts)
}

// ReportKey generates a key for verification-report caching.
func (k *DefaultKeyer) ReportKey(svgHash string, opts ReportKeyOpts) string {
	return hashKey("report", svgHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
