package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// Different API clients or projects get separate cache namespaces while
// sharing one backend.
//
// Example usage:
//
//	// Project-specific keys
//	projectKeyer := NewScopedKeyer(NewDefaultKeyer(), "project:abc123:")
//
//	// Global keys
//	globalKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// DescriptionKey generates a prefixed key for description caching.
func (k *ScopedKeyer) DescriptionKey(rawHash string) string {
	return k.prefix + k.inner.DescriptionKey(rawHash)
}

// LayoutKey generates a prefixed key for solved-layout caching.
func (k *ScopedKeyer) LayoutKey(descHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(descHash, opts)
}

// ReportKey generates a prefixed key for verification-report caching.
func (k *ScopedKeyer) ReportKey(svgHash string, opts ReportKeyOpts) string {
	return k.prefix + k.inner.ReportKey(svgHash, opts)
}
