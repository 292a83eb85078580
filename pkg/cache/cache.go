// Package cache stores rendered artifacts keyed by their inputs.
//
// Rendering a document to PNG or building its stacking diagram is pure in the
// document markup and the render options, so the results can be reused across
// requests and CLI runs. Keys are derived with a [Keyer]; values are opaque
// bytes with an optional TTL.
//
// Backends:
//   - [FileCache]: JSON entries on disk, for the CLI
//   - [RedisCache]: shared cache for server deployments
//   - [NullCache]: caching disabled
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value cache.
type Cache interface {
	// Get returns the cached value and whether it was found.
	// Expired entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ArtifactKeyOpts are the render options that influence an artifact.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"` // "png", "svg", "txt"
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	Detailed bool    `json:"detailed,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// ArtifactKey returns the key for an artifact rendered from content with
	// the given hash.
	ArtifactKey(contentHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(contentHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", contentHash, opts)
}
