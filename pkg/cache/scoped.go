package cache

// ScopedKeyer wraps a Keyer with a prefix to separate cache namespaces.
// The CLI and server scope keys by build version so artifacts rendered by an
// older painter are not served after an upgrade.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "gridcraft:v1.2.0:")
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

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(contentHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(contentHash, opts)
}
