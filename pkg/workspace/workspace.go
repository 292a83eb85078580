// Package workspace binds the editor core together for one document.
//
// A [Workspace] owns the grid [geometry.Geometry], the drag [pointer.Pointer],
// the active [layer.Layer] and three render canvases (background checkerboard,
// cells, pointer foreground). It turns raw pointer input into domain events:
//
//   - [Workspace.CellCreates] fires with the grid rectangle of a completed drag.
//   - [Workspace.CellClicks] fires when [Workspace.Press] lands on an existing
//     cell. Such a press is a click and never starts a drag.
//   - [Workspace.Coordinates] fires after every pointer input with the readout
//     used by the status line.
//
// The workspace never mutates the layer in response to pointer input; callers
// wrap CellCreates in commands so they become undoable.
package workspace

import (
	"math"

	"github.com/matzehuels/gridcraft/pkg/event"
	"github.com/matzehuels/gridcraft/pkg/geometry"
	"github.com/matzehuels/gridcraft/pkg/layer"
	"github.com/matzehuels/gridcraft/pkg/pointer"
	"github.com/matzehuels/gridcraft/pkg/render"
)

// DefaultCellPixels is the logical size of one grid cell when no surface
// width is configured.
const DefaultCellPixels = 20

// Surface builds a drawing backend of the given size in scaled pixels.
type Surface func(width, height float64) render.Graphics

// RasterSurface builds [render.Raster] backends.
func RasterSurface(width, height float64) render.Graphics {
	return render.NewRaster(width, height)
}

// TerminalCellColumns is the number of character columns one grid cell spans
// on a [TerminalSurface]. A cell spans one row.
const TerminalCellColumns = 2

// TerminalSurface builds [render.Terminal] backends. Pair it with
// WithCellSize(TerminalCellColumns) so one pixel maps to one column and a row
// to TerminalCellColumns pixels.
func TerminalSurface(width, height float64) render.Graphics {
	cols := int(math.Round(width))
	rows := int(math.Round(height / TerminalCellColumns))
	return render.NewTerminal(cols, rows, 1, TerminalCellColumns)
}

// Option configures a Workspace.
type Option func(*options)

type options struct {
	width, height float64
	cellSize      float64
	pixelRatio    float64
	surface       Surface
}

// WithSize sets the logical surface size. A zero height keeps cells square.
func WithSize(width, height float64) Option {
	return func(o *options) { o.width, o.height = width, height }
}

// WithCellSize sizes the surface so every grid cell is s logical pixels
// square. WithSize takes precedence.
func WithCellSize(s float64) Option {
	return func(o *options) { o.cellSize = s }
}

// WithPixelRatio sets the physical-to-logical pixel ratio.
func WithPixelRatio(r float64) Option {
	return func(o *options) { o.pixelRatio = r }
}

// WithSurface sets the backend factory for all canvases.
func WithSurface(s Surface) Option {
	return func(o *options) { o.surface = s }
}

// Coordinates is the pointer readout of the workspace in grid units.
type Coordinates struct {
	Inside bool
	X, Y   int
	// Width and Height are set while a drag is in progress.
	Width, Height int
}

// Dragging reports whether the readout describes a drag rectangle.
func (c Coordinates) Dragging() bool {
	return c.Width > 0 && c.Height > 0
}

// Workspace is the composition root of one document.
type Workspace struct {
	Geometry *geometry.Geometry
	Pointer  *pointer.Pointer
	Layer    *layer.Layer

	CellCreates event.Emitter[geometry.Rect]
	CellClicks  event.Emitter[*layer.Cell]
	Coordinates event.Emitter[Coordinates]

	surface    Surface
	background *render.Canvas
	cells      *render.Canvas
	foreground *render.Canvas
}

// New returns a workspace for an xCells by yCells grid. Both must be at least 1.
func New(xCells, yCells int, opts ...Option) *Workspace {
	o := options{pixelRatio: 1, surface: RasterSurface}
	for _, opt := range opts {
		opt(&o)
	}
	if o.width <= 0 && o.cellSize > 0 {
		o.width = float64(xCells) * o.cellSize
	}
	if o.width <= 0 {
		o.width = float64(xCells * DefaultCellPixels)
	}
	if o.height <= 0 {
		o.height = o.width * float64(yCells) / float64(xCells)
	}

	geom := geometry.New(xCells, yCells, o.width, o.height, o.pixelRatio)
	w := &Workspace{
		Geometry: geom,
		Pointer:  pointer.New(geom),
		Layer:    layer.New(xCells, yCells),
		surface:  o.surface,
	}

	sw, sh := geom.ScaledWidth(), geom.ScaledHeight()
	w.background = render.NewCanvas(w.surface(sw, sh), render.Background(geom))
	w.cells = render.NewCanvas(w.surface(sw, sh), render.Cells(geom, w.Layer))
	w.foreground = render.NewCanvas(w.surface(sw, sh), render.Foreground(geom, w.Pointer))

	w.Pointer.Events.Subscribe(w.handlePointer)
	w.Layer.Selections.Subscribe(func(layer.SelectionEvent) { w.cells.Invalidate() })
	return w
}

func (w *Workspace) handlePointer(ev pointer.Event) {
	if ev.Completed {
		w.complete(ev.Start, ev.Current)
	}
	w.foreground.Invalidate()
	w.Coordinates.Emit(w.Readout())
}

// Press feeds a press in logical pixels. A press on an existing cell clicks
// that cell; anywhere else it anchors a drag on the pointer.
func (w *Workspace) Press(x, y float64) {
	g := w.Geometry
	at := g.NearestCellCoordinates(g.Scale(x), g.Scale(y))
	if c := w.Layer.At(at); c != nil {
		w.CellClicks.Emit(c)
		return
	}
	w.Pointer.Press(x, y)
}

func (w *Workspace) complete(start, end geometry.Vec) {
	from := w.clamp(w.Geometry.NearestCellCoordinates(start.X, start.Y))
	to := w.clamp(w.Geometry.NearestCellCoordinates(end.X, end.Y))
	w.CellCreates.Emit(geometry.Span(from, to))
}

func (w *Workspace) clamp(p geometry.Point) geometry.Point {
	p.X = min(max(p.X, 0), w.Geometry.XCells-1)
	p.Y = min(max(p.Y, 0), w.Geometry.YCells-1)
	return p
}

// Readout returns the current pointer coordinates in grid units.
func (w *Workspace) Readout() Coordinates {
	p := w.Pointer
	if !p.Inside() {
		return Coordinates{}
	}
	cur := w.Geometry.NearestCellCoordinates(p.X, p.Y)
	if p.IsPressed && p.HasStart() {
		start := w.clamp(w.Geometry.NearestCellCoordinates(p.StartX, p.StartY))
		r := geometry.Span(start, w.clamp(cur))
		return Coordinates{Inside: true, X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
	}
	if !w.Geometry.Contains(cur) {
		return Coordinates{}
	}
	return Coordinates{Inside: true, X: cur.X, Y: cur.Y}
}

// Resize re-derives the surface size and rebuilds every canvas.
func (w *Workspace) Resize(width, height float64) {
	w.Geometry.Resize(width, height)
	sw, sh := w.Geometry.ScaledWidth(), w.Geometry.ScaledHeight()
	w.background.Resize(w.surface(sw, sh))
	w.cells.Resize(w.surface(sw, sh))
	w.foreground.Resize(w.surface(sw, sh))
}

// Refresh repaints the cells canvas after a change the layer does not
// announce, such as a z-order or attribute update.
func (w *Workspace) Refresh() {
	w.cells.Invalidate()
}

// Background returns the checkerboard canvas.
func (w *Workspace) Background() *render.Canvas { return w.background }

// CellsCanvas returns the canvas that paints the layer's cells.
func (w *Workspace) CellsCanvas() *render.Canvas { return w.cells }

// Foreground returns the pointer feedback canvas.
func (w *Workspace) Foreground() *render.Canvas { return w.foreground }

// Canvases returns all canvases bottom to top.
func (w *Workspace) Canvases() []*render.Canvas {
	return []*render.Canvas{w.background, w.cells, w.foreground}
}

// ComposeRaster flattens all canvases into one raster. It returns nil unless
// the workspace draws on [RasterSurface] backends.
func (w *Workspace) ComposeRaster() *render.Raster {
	var layers []*render.Raster
	for _, c := range w.Canvases() {
		r, ok := c.Graphics().(*render.Raster)
		if !ok {
			return nil
		}
		layers = append(layers, r)
	}
	return render.ComposeRaster(layers...)
}

// ComposeTerminal flattens all canvases into one character grid. It returns
// nil unless the workspace draws on [TerminalSurface] backends.
func (w *Workspace) ComposeTerminal() *render.Terminal {
	var layers []*render.Terminal
	for _, c := range w.Canvases() {
		t, ok := c.Graphics().(*render.Terminal)
		if !ok {
			return nil
		}
		layers = append(layers, t)
	}
	return render.ComposeTerminal(layers...)
}
