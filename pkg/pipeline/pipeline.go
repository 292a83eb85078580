// Package pipeline turns exported markup into rendered artifacts.
//
// The same pipeline backs the CLI (render, stack) and the HTTP API
// (render.png, stack.svg), so both produce byte-identical output and share
// one cache layout.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Load: Decode the markup into a fresh workspace
//  2. Render: Paint the workspace in the requested format
//
// Formats:
//   - png: the grid and its cells as a raster image
//   - svg: the stacking diagram of overlapping cells
//   - txt: the grid as plain text, two columns per grid cell
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Execute(ctx, markup, pipeline.Options{Format: pipeline.FormatPNG})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("out.png", res.Artifact, 0o644)
package pipeline

import (
	"fmt"
	"time"

	"github.com/matzehuels/gridcraft/pkg/cache"
	"github.com/matzehuels/gridcraft/pkg/errors"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultCellPixels is the rendered size of one grid cell in PNG output
	// when no width is given.
	DefaultCellPixels = 20.0

	// MaxWidth bounds the PNG width in pixels.
	MaxWidth = 8192.0
)

// Format constants for output formats.
const (
	FormatPNG  = "png"
	FormatSVG  = "svg"
	FormatText = "txt"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatPNG:  true,
	FormatSVG:  true,
	FormatText: true,
}

// ContentType returns the MIME type of an artifact format.
func ContentType(format string) string {
	switch format {
	case FormatPNG:
		return "image/png"
	case FormatSVG:
		return "image/svg+xml"
	}
	return "text/plain; charset=utf-8"
}

// =============================================================================
// Options
// =============================================================================

// Options configures one pipeline run.
type Options struct {
	// Format is one of FormatPNG, FormatSVG or FormatText.
	Format string `json:"format"`

	// Width is the PNG width in pixels. Zero derives it from the grid.
	Width float64 `json:"width,omitempty"`

	// Detailed adds grid rectangles and z-order to stacking diagram labels.
	Detailed bool `json:"detailed,omitempty"`

	// Refresh bypasses the cache for reads. The result is still stored.
	Refresh bool `json:"refresh,omitempty"`
}

// Validate checks the options.
func (o Options) Validate() error {
	if err := ValidateFormat(o.Format); err != nil {
		return err
	}
	if o.Width < 0 || o.Width > MaxWidth {
		return errors.New(errors.ErrCodeInvalidInput, "width must be between 0 and %g", MaxWidth)
	}
	return nil
}

// KeyOpts returns the cache key options for o.
func (o Options) KeyOpts() cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: o.Format}
	switch o.Format {
	case FormatPNG:
		k.Width = o.Width
	case FormatSVG:
		k.Detailed = o.Detailed
	}
	return k
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeUnsupported, "invalid format: %q (must be one of: png, svg, txt)", format)
	}
	return nil
}

// =============================================================================
// Result
// =============================================================================

// Result is the output of a pipeline run.
type Result struct {
	// Artifact is the rendered output.
	Artifact []byte

	// Format is the artifact format.
	Format string

	// MarkupHash is the content hash of the input markup.
	MarkupHash string

	// Cells is the number of cells in the document. It is zero on a cache hit.
	Cells int

	// CacheHit reports whether the artifact came from the cache.
	CacheHit bool

	// Duration is the wall time of the run.
	Duration time.Duration
}

func (r *Result) String() string {
	return fmt.Sprintf("%s (%d bytes, cache hit: %t)", r.Format, len(r.Artifact), r.CacheHit)
}
