package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridcraft/pkg/cache"
	"github.com/matzehuels/gridcraft/pkg/observability"
)

// DefaultTTL is how long artifacts stay cached when the runner has no TTL.
const DefaultTTL = 24 * time.Hour

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple goroutines
// can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	TTL    time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    DefaultTTL,
	}
}

// Execute renders markup with caching.
func (r *Runner) Execute(ctx context.Context, markup string, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	start := time.Now()
	res := &Result{
		Format:     opts.Format,
		MarkupHash: cache.Hash([]byte(markup)),
	}
	key := r.Keyer.ArtifactKey(res.MarkupHash, opts.KeyOpts())

	if !opts.Refresh {
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil {
			r.Logger.Warn("cache read failed", "format", opts.Format, "err", err)
		}
		if err == nil && hit {
			observability.Cache().OnCacheHit(ctx, opts.Format)
			res.Artifact = data
			res.CacheHit = true
			res.Duration = time.Since(start)
			r.Logger.Debug("artifact from cache", "format", opts.Format, "bytes", len(data))
			return res, nil
		}
		observability.Cache().OnCacheMiss(ctx, opts.Format)
	}

	data, cells, err := Render(ctx, markup, opts)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", opts.Format, err)
	}
	res.Artifact = data
	res.Cells = cells

	if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
		r.Logger.Warn("cache write failed", "format", opts.Format, "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, opts.Format, len(data))
	}

	res.Duration = time.Since(start)
	r.Logger.Debug("rendered artifact",
		"format", opts.Format,
		"cells", cells,
		"bytes", len(data),
		"duration", res.Duration)
	return res, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
