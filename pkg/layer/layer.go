// Package layer owns the cells of the active editing layer.
//
// A [Layer] is an insertion-ordered collection of [Cell] values with two
// invariants:
//
//   - at most one cell is selected at any time;
//   - every cell has a z-order, and new cells are stacked above all others.
//
// Z-order extremes are computed over the cells registered with this layer.
// With a single live layer per workspace this equals the whole document.
//
// Selection changes are reported synchronously on [Layer.Selections] after the
// state change.
package layer

import (
	"sort"

	"github.com/google/uuid"

	"github.com/matzehuels/gridcraft/pkg/event"
	"github.com/matzehuels/gridcraft/pkg/geometry"
)

// BaseZ is the z-order floor used when computing the next front-most value.
// The first cell of an empty layer gets BaseZ+1.
const BaseZ = 1000

// SelectionEvent reports a selection transition of one cell.
type SelectionEvent struct {
	Cell     *Cell
	Selected bool
}

// Layer is the cell repository of one workspace.
type Layer struct {
	xCells, yCells int

	cells    []*Cell
	byID     map[string]*Cell
	selected *Cell

	// Selections fires on every select and deselect.
	Selections event.Emitter[SelectionEvent]
}

// New returns an empty layer over an xCells by yCells grid.
func New(xCells, yCells int) *Layer {
	return &Layer{
		xCells: xCells,
		yCells: yCells,
		byID:   make(map[string]*Cell),
	}
}

// Create inserts a new cell at the given grid rectangle, stacks it above every
// existing cell and selects it.
func (l *Layer) Create(r geometry.Rect) *Cell {
	c := &Cell{
		ID:   uuid.NewString(),
		Rect: r,
		Z:    l.MaxZ() + 1,
	}
	l.insert(c)
	l.Select(c)
	return c
}

// Import inserts a cell built elsewhere (e.g. decoded from markup) without
// changing its z-order or selecting it. A missing ID is generated.
func (l *Layer) Import(c *Cell) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.selected = false
	l.insert(c)
}

// Add re-inserts a previously removed cell and selects it.
func (l *Layer) Add(c *Cell) {
	if c == nil {
		return
	}
	l.insert(c)
	l.Select(c)
}

func (l *Layer) insert(c *Cell) {
	if c.layer == l {
		return
	}
	if c.layer != nil {
		c.layer.Remove(c)
	}
	c.layer = l
	l.cells = append(l.cells, c)
	l.byID[c.ID] = c
}

// Remove detaches c from the layer, deselecting it first if needed.
func (l *Layer) Remove(c *Cell) {
	if c == nil || c.layer != l {
		return
	}
	if c.selected {
		l.Deselect(c)
	}
	for i, other := range l.cells {
		if other == c {
			l.cells = append(l.cells[:i], l.cells[i+1:]...)
			break
		}
	}
	delete(l.byID, c.ID)
	c.layer = nil
}

// Select makes c the only selected cell.
func (l *Layer) Select(c *Cell) {
	if c == nil || c.layer != l || c == l.selected {
		return
	}
	if l.selected != nil {
		l.Deselect(l.selected)
	}
	c.selected = true
	l.selected = c
	l.Selections.Emit(SelectionEvent{Cell: c, Selected: true})
}

// Deselect clears the selection if c holds it.
func (l *Layer) Deselect(c *Cell) {
	if c == nil || c.layer != l || !c.selected {
		return
	}
	c.selected = false
	if l.selected == c {
		l.selected = nil
	}
	l.Selections.Emit(SelectionEvent{Cell: c, Selected: false})
}

// Toggle flips the selection state of c, as a click on a cell does.
func (l *Layer) Toggle(c *Cell) {
	if c == nil || c.layer != l {
		return
	}
	if c.selected {
		l.Deselect(c)
		return
	}
	l.Select(c)
}

// Selected returns the selected cell, or nil.
func (l *Layer) Selected() *Cell {
	return l.selected
}

// BringToFront stacks c above every other cell.
func (l *Layer) BringToFront(c *Cell) {
	if c == nil {
		return
	}
	c.Z = l.MaxZ() + 1
}

// SendToBack stacks c below every other cell.
func (l *Layer) SendToBack(c *Cell) {
	if c == nil {
		return
	}
	c.Z = l.MinZ() - 1
}

// MaxZ returns the highest z-order in the layer, never less than BaseZ.
func (l *Layer) MaxZ() int {
	maxZ := BaseZ
	for _, c := range l.cells {
		if c.Z > maxZ {
			maxZ = c.Z
		}
	}
	return maxZ
}

// MinZ returns the lowest z-order in the layer, or BaseZ when it is empty.
func (l *Layer) MinZ() int {
	if len(l.cells) == 0 {
		return BaseZ
	}
	minZ := l.cells[0].Z
	for _, c := range l.cells[1:] {
		if c.Z < minZ {
			minZ = c.Z
		}
	}
	return minZ
}

// Cells returns the cells in insertion order.
func (l *Layer) Cells() []*Cell {
	out := make([]*Cell, len(l.cells))
	copy(out, l.cells)
	return out
}

// Stacked returns the cells ordered bottom to top. Cells with equal z keep
// their insertion order.
func (l *Layer) Stacked() []*Cell {
	out := l.Cells()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Z < out[j].Z })
	return out
}

// Lookup returns the cell with the given ID, or nil.
func (l *Layer) Lookup(id string) *Cell {
	return l.byID[id]
}

// Contains reports whether c belongs to this layer.
func (l *Layer) Contains(c *Cell) bool {
	return c != nil && c.layer == l
}

// Len returns the number of cells.
func (l *Layer) Len() int {
	return len(l.cells)
}

// At returns the top-most cell covering grid cell p, or nil.
func (l *Layer) At(p geometry.Point) *Cell {
	hit := geometry.Rect{X: p.X, Y: p.Y, Width: 1, Height: 1}
	var top *Cell
	for _, c := range l.cells {
		if c.Rect.Overlaps(hit) && (top == nil || c.Z >= top.Z) {
			top = c
		}
	}
	return top
}

// Placement returns the cell's position and size as percentages of the grid.
func (l *Layer) Placement(c *Cell) (left, top, width, height float64) {
	return geometry.ToPercent(c.Rect, l.xCells, l.yCells)
}

// Grid returns the grid resolution the layer was created for.
func (l *Layer) Grid() (xCells, yCells int) {
	return l.xCells, l.yCells
}
