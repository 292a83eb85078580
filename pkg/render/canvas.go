// Package render paints the editor's overlay surfaces.
//
// A [Canvas] pairs a [Graphics] backend with a [Painter]. It has no business
// state of its own: [Canvas.Invalidate] clears the whole surface and asks the
// painter to draw it again from the current workspace state. There is no
// partial-region diffing.
//
// Two backends are provided:
//   - [Raster] draws into an RGBA image through fogleman/gg (PNG export, HTTP).
//   - [Terminal] draws into a character grid styled with lipgloss (TUI).
//
// Transparent areas of stacked surfaces let lower surfaces show through, see
// [ComposeRaster] and [ComposeTerminal].
package render

import (
	"fmt"
	"image/color"
)

// Graphics is a drawing surface measured in scaled pixels.
type Graphics interface {
	// Size returns the surface size in scaled pixels.
	Size() (width, height float64)
	// Clear makes the whole surface transparent.
	Clear()
	// FillRect fills an axis-aligned rectangle.
	FillRect(x, y, width, height float64, c color.Color)
	// StrokeRect outlines an axis-aligned rectangle.
	StrokeRect(x, y, width, height float64, c color.Color)
	// Text draws s clipped to the given box.
	Text(s string, x, y, width, height float64, c color.Color)
}

// Painter draws a surface from scratch.
type Painter func(Graphics)

// Canvas is one independently invalidated surface.
type Canvas struct {
	graphics      Graphics
	paint         Painter
	invalidations int
}

// NewCanvas binds g to paint and draws it once.
func NewCanvas(g Graphics, paint Painter) *Canvas {
	c := &Canvas{graphics: g, paint: paint}
	c.Invalidate()
	return c
}

// Invalidate clears the surface and repaints it.
func (c *Canvas) Invalidate() {
	c.graphics.Clear()
	if c.paint != nil {
		c.paint(c.graphics)
	}
	c.invalidations++
}

// Resize swaps in a graphics backend of the new size and repaints.
func (c *Canvas) Resize(g Graphics) {
	c.graphics = g
	c.Invalidate()
}

// Graphics returns the current backend.
func (c *Canvas) Graphics() Graphics {
	return c.graphics
}

// Invalidations returns how often the canvas has been repainted.
func (c *Canvas) Invalidations() int {
	return c.invalidations
}

// =============================================================================
// Palette
// =============================================================================

var (
	ColorGridEven   = mustHex("#fafafa") // checkerboard, even cells
	ColorGridOdd    = mustHex("#ffffff") // checkerboard, odd cells
	ColorHover      = mustHex("#ffff96") // hovered grid cell
	ColorRubberBand = mustHex("#0096fa") // drag rectangle
	ColorCell       = mustHex("#dcebf7") // cell body
	ColorCellBorder = mustHex("#7fa7c9")
	ColorSelected   = mustHex("#0096fa")
	ColorText       = mustHex("#1f2933")
)

// ParseHex parses a "#rrggbb" or "#rgb" colour.
func ParseHex(s string) (color.RGBA, error) {
	c := color.RGBA{A: 0xff}
	var err error
	switch len(s) {
	case 7:
		_, err = fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B)
	case 4:
		_, err = fmt.Sscanf(s, "#%1x%1x%1x", &c.R, &c.G, &c.B)
		c.R *= 17
		c.G *= 17
		c.B *= 17
	default:
		err = fmt.Errorf("invalid colour %q", s)
	}
	return c, err
}

func mustHex(s string) color.RGBA {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex formats c as "#rrggbb", ignoring alpha.
func Hex(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
