// Package geometry converts between pixel space and integer grid-cell space.
//
// A [Geometry] describes one workspace: its grid resolution (XCells by YCells),
// its size in logical pixels, and the display's physical-to-logical pixel ratio.
// Raw pointer input is normalised with [Geometry.Scale] before it is mapped to
// grid cells, so the same drag produces the same cells on any display density.
//
// Cells are square. The cell size is derived from the width alone:
//
//	cellSize = Scale(width) / XCells
//
// XCells must be at least 1. A zero XCells is a caller bug and yields
// non-finite results rather than an error.
package geometry

import "math"

// Point is an integer grid-cell coordinate.
type Point struct {
	X, Y int
}

// Vec is a position in scaled pixel space.
type Vec struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle in grid-cell units.
type Rect struct {
	X, Y, Width, Height int
}

// Empty reports whether r covers no cells.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Overlaps reports whether r and o share at least one cell.
func (r Rect) Overlaps(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.X < o.X+o.Width && o.X < r.X+r.Width &&
		r.Y < o.Y+o.Height && o.Y < r.Y+r.Height
}

// Span returns the rectangle covering start through end inclusive.
// It is the rectangle a completed drag from start to end produces.
func Span(start, end Point) Rect {
	return Rect{
		X:      start.X,
		Y:      start.Y,
		Width:  end.X - start.X + 1,
		Height: end.Y - start.Y + 1,
	}
}

// Geometry holds the dimensions of one workspace.
type Geometry struct {
	XCells     int     // grid columns, >= 1
	YCells     int     // grid rows, >= 1
	Width      float64 // logical surface width in pixels
	Height     float64 // logical surface height in pixels
	PixelRatio float64 // physical pixels per logical pixel; 0 means 1
}

// New returns a geometry for an xCells by yCells grid with the given logical
// surface size and pixel ratio.
func New(xCells, yCells int, width, height, pixelRatio float64) *Geometry {
	return &Geometry{
		XCells:     xCells,
		YCells:     yCells,
		Width:      width,
		Height:     height,
		PixelRatio: pixelRatio,
	}
}

// Resize updates the logical surface size, e.g. after a viewport resize.
func (g *Geometry) Resize(width, height float64) {
	g.Width = width
	g.Height = height
}

// Scale multiplies a logical dimension by the pixel ratio.
func (g *Geometry) Scale(d float64) float64 {
	if g.PixelRatio == 0 {
		return d
	}
	return d * g.PixelRatio
}

// ScaledWidth returns the surface width in scaled pixels.
func (g *Geometry) ScaledWidth() float64 {
	return g.Scale(g.Width)
}

// ScaledHeight returns the surface height in scaled pixels.
func (g *Geometry) ScaledHeight() float64 {
	return g.Scale(g.Height)
}

// CellSize returns the edge length of one grid cell in scaled pixels.
func (g *Geometry) CellSize() float64 {
	return g.ScaledWidth() / float64(g.XCells)
}

// NearestCellCoordinates maps a scaled pixel position to the grid cell that
// contains it. The mapping is monotonic non-decreasing in both axes.
func (g *Geometry) NearestCellCoordinates(x, y float64) Point {
	size := g.CellSize()
	return Point{
		X: int(math.Floor(x / size)),
		Y: int(math.Floor(y / size)),
	}
}

// NearestCellPosition returns the scaled pixel origin of the grid cell
// containing (x, y).
func (g *Geometry) NearestCellPosition(x, y float64) Vec {
	p := g.NearestCellCoordinates(x, y)
	size := g.CellSize()
	return Vec{X: float64(p.X) * size, Y: float64(p.Y) * size}
}

// CellOrigin returns the scaled pixel origin of grid cell p.
func (g *Geometry) CellOrigin(p Point) Vec {
	size := g.CellSize()
	return Vec{X: float64(p.X) * size, Y: float64(p.Y) * size}
}

// Contains reports whether grid cell p lies inside the grid.
func (g *Geometry) Contains(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < g.XCells && p.Y < g.YCells
}

// Percent converts a grid rectangle to percentages of the grid extent:
// horizontal values relative to XCells, vertical ones to YCells.
func (g *Geometry) Percent(r Rect) (left, top, width, height float64) {
	return ToPercent(r, g.XCells, g.YCells)
}

// ToPercent converts r to percentages of an xCells by yCells grid.
func ToPercent(r Rect, xCells, yCells int) (left, top, width, height float64) {
	fx := 100.0 / float64(xCells)
	fy := 100.0 / float64(yCells)
	return float64(r.X) * fx, float64(r.Y) * fy, float64(r.Width) * fx, float64(r.Height) * fy
}

// FromPercent is the inverse of [ToPercent], rounding to the nearest cell.
func FromPercent(left, top, width, height float64, xCells, yCells int) Rect {
	fx := float64(xCells) / 100.0
	fy := float64(yCells) / 100.0
	return Rect{
		X:      int(math.Round(left * fx)),
		Y:      int(math.Round(top * fy)),
		Width:  int(math.Round(width * fx)),
		Height: int(math.Round(height * fy)),
	}
}
