// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about solver runs, verification layers, refinement-loop
// transitions, and cache operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetSolverHooks(&mySolverHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Solver().OnSolveStart(ctx, nodeCount, edgeCount)
//	// ... run the solver ...
//	observability.Solver().OnSolveComplete(ctx, status, duration)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Solver Hooks
// =============================================================================

// SolverHooks receives events from the constraint solver and the relaxation
// engine.
type SolverHooks interface {
	// OnSolveStart fires before one solve attempt.
	OnSolveStart(ctx context.Context, nodeCount, edgeCount int)

	// OnSolveComplete fires after one solve attempt with its status string.
	OnSolveComplete(ctx context.Context, status string, duration time.Duration)

	// OnRelaxStep fires for each rung of the relaxation ladder.
	OnRelaxStep(ctx context.Context, step string, attempt int)

	// OnFallback fires when the guaranteed stack fallback positions the
	// elements directly.
	OnFallback(ctx context.Context, nodeCount int)
}

// =============================================================================
// Verification Hooks
// =============================================================================

// VerifyHooks receives events from the verification pipeline.
type VerifyHooks interface {
	// OnLayerComplete records one layer's outcome.
	OnLayerComplete(ctx context.Context, layer, status string, errorCount int)

	// OnVerifyComplete records the aggregate outcome.
	OnVerifyComplete(ctx context.Context, overall string, duration time.Duration)
}

// =============================================================================
// Refinement Loop Hooks
// =============================================================================

// RefineHooks receives events from the refinement loop controller.
type RefineHooks interface {
	// OnStateChange records a loop state transition.
	OnStateChange(ctx context.Context, from, to string)

	// OnIteration records one completed loop iteration.
	OnIteration(ctx context.Context, iteration int, passed bool)

	// OnOscillation records the oscillation guard firing.
	OnOscillation(ctx context.Context, iteration int)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSolverHooks is a no-op implementation of SolverHooks.
type NoopSolverHooks struct{}

func (NoopSolverHooks) OnSolveStart(context.Context, int, int)                 {}
func (NoopSolverHooks) OnSolveComplete(context.Context, string, time.Duration) {}
func (NoopSolverHooks) OnRelaxStep(context.Context, string, int)               {}
func (NoopSolverHooks) OnFallback(context.Context, int)                        {}

// NoopVerifyHooks is a no-op implementation of VerifyHooks.
type NoopVerifyHooks struct{}

func (NoopVerifyHooks) OnLayerComplete(context.Context, string, string, int)    {}
func (NoopVerifyHooks) OnVerifyComplete(context.Context, string, time.Duration) {}

// NoopRefineHooks is a no-op implementation of RefineHooks.
type NoopRefineHooks struct{}

func (NoopRefineHooks) OnStateChange(context.Context, string, string) {}
func (NoopRefineHooks) OnIteration(context.Context, int, bool)        {}
func (NoopRefineHooks) OnOscillation(context.Context, int)            {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	solverHooks SolverHooks = NoopSolverHooks{}
	verifyHooks VerifyHooks = NoopVerifyHooks{}
	refineHooks RefineHooks = NoopRefineHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	hooksMu     sync.RWMutex
)

// SetSolverHooks registers custom solver hooks.
// This should be called once at application startup before any solver runs.
func SetSolverHooks(h SolverHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		solverHooks = h
	}
}

// SetVerifyHooks registers custom verification hooks.
// This should be called once at application startup before any verification.
func SetVerifyHooks(h VerifyHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		verifyHooks = h
	}
}

// SetRefineHooks registers custom refinement-loop hooks.
// This should be called once at application startup before any loop runs.
func SetRefineHooks(h RefineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		refineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Solver returns the registered solver hooks.
func Solver() SolverHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return solverHooks
}

// Verify returns the registered verification hooks.
func Verify() VerifyHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return verifyHooks
}

// Refine returns the registered refinement-loop hooks.
func Refine() RefineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return refineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	solverHooks = NoopSolverHooks{}
	verifyHooks = NoopVerifyHooks{}
	refineHooks = NoopRefineHooks{}
	cacheHooks = NoopCacheHooks{}
}
