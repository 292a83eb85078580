package layer

import (
	"github.com/matzehuels/gridcraft/pkg/geometry"
)

// Cell is one rectangular, positioned, styled element on the grid.
//
// Position and size are kept in grid-cell units; [Layer.Placement] converts
// them to percentages of the grid extent. A Cell belongs to at most one Layer
// at a time and is added to or removed from it only through Layer methods.
type Cell struct {
	ID              string
	Rect            geometry.Rect
	Z               int
	Font            string
	Text            string
	BackgroundImage string

	selected bool
	layer    *Layer
}

// Selected reports whether the cell is the selection of its layer.
func (c *Cell) Selected() bool {
	return c.selected
}

// Attached reports whether the cell currently belongs to a layer.
func (c *Cell) Attached() bool {
	return c.layer != nil
}

// Snapshot returns a copy of the cell's attributes. Selection and layer
// membership are bookkeeping and are not copied.
func (c *Cell) Snapshot() Cell {
	return Cell{
		ID:              c.ID,
		Rect:            c.Rect,
		Z:               c.Z,
		Font:            c.Font,
		Text:            c.Text,
		BackgroundImage: c.BackgroundImage,
	}
}
