// Package command implements the reversible editing operations and the
// undo/redo history they are recorded in.
//
// Every user action that mutates a document becomes a [Command]. A command is a
// value describing one intended effect plus one mutable slot: the state it
// overwrote, captured the first time the command runs forward. That keeps
// commands cheap to construct speculatively and makes their inverse correct
// even if the target changed between construction and execution.
//
// Commands must be driven in strict alternation: Execute, Unexecute, Execute,
// and so on. [Queue] enforces that order.
//
// A command whose target cell is nil does nothing in either direction.
package command

import (
	"github.com/matzehuels/gridcraft/pkg/geometry"
	"github.com/matzehuels/gridcraft/pkg/layer"
)

// Command is one reversible mutation.
type Command interface {
	// Execute applies the forward effect.
	Execute()
	// Unexecute reverts the most recent Execute.
	Unexecute()
	// Name identifies the command kind, e.g. "createCell".
	Name() string
}

// Names of the command kinds.
const (
	NameCreateCell             = "createCell"
	NameRemoveCell             = "removeCell"
	NameBringCellToFront       = "bringCellToFront"
	NameSendCellToBack         = "sendCellToBack"
	NameSetCellFont            = "setCellFont"
	NameSetCellText            = "setCellText"
	NameSetCellBackgroundImage = "setCellBackgroundImage"
)

// =============================================================================
// Cell lifecycle
// =============================================================================

// CreateCell inserts a new cell. The first Execute creates it; later ones
// (redo) re-insert the same cell.
type CreateCell struct {
	layer *layer.Layer
	rect  geometry.Rect
	cell  *layer.Cell
}

// NewCreateCell returns a command creating a cell at r on l.
func NewCreateCell(l *layer.Layer, r geometry.Rect) *CreateCell {
	return &CreateCell{layer: l, rect: r}
}

func (c *CreateCell) Execute() {
	if c.cell == nil {
		c.cell = c.layer.Create(c.rect)
		return
	}
	c.layer.Add(c.cell)
}

func (c *CreateCell) Unexecute() {
	c.layer.Remove(c.cell)
}

func (c *CreateCell) Name() string { return NameCreateCell }

// Cell returns the created cell, or nil before the first Execute.
func (c *CreateCell) Cell() *layer.Cell { return c.cell }

// RemoveCell detaches a cell from its layer.
type RemoveCell struct {
	layer *layer.Layer
	cell  *layer.Cell
}

// NewRemoveCell returns a command removing cell from l.
func NewRemoveCell(l *layer.Layer, cell *layer.Cell) *RemoveCell {
	return &RemoveCell{layer: l, cell: cell}
}

func (c *RemoveCell) Execute() {
	c.layer.Remove(c.cell)
}

func (c *RemoveCell) Unexecute() {
	c.layer.Add(c.cell)
}

func (c *RemoveCell) Name() string { return NameRemoveCell }

// =============================================================================
// Z-order
// =============================================================================

// zCommand holds the shared capture logic of the two z-order commands.
type zCommand struct {
	layer    *layer.Layer
	cell     *layer.Cell
	previous int
	captured bool
}

func (c *zCommand) capture() {
	if !c.captured {
		c.previous = c.cell.Z
		c.captured = true
	}
}

func (c *zCommand) Unexecute() {
	if c.cell == nil {
		return
	}
	c.cell.Z = c.previous
}

// BringCellToFront stacks a cell above all others.
type BringCellToFront struct{ zCommand }

// NewBringCellToFront returns a command bringing cell to the front of l.
func NewBringCellToFront(l *layer.Layer, cell *layer.Cell) *BringCellToFront {
	return &BringCellToFront{zCommand{layer: l, cell: cell}}
}

func (c *BringCellToFront) Execute() {
	if c.cell == nil {
		return
	}
	c.capture()
	c.layer.BringToFront(c.cell)
}

func (c *BringCellToFront) Name() string { return NameBringCellToFront }

// SendCellToBack stacks a cell below all others.
type SendCellToBack struct{ zCommand }

// NewSendCellToBack returns a command sending cell to the back of l.
func NewSendCellToBack(l *layer.Layer, cell *layer.Cell) *SendCellToBack {
	return &SendCellToBack{zCommand{layer: l, cell: cell}}
}

func (c *SendCellToBack) Execute() {
	if c.cell == nil {
		return
	}
	c.capture()
	c.layer.SendToBack(c.cell)
}

func (c *SendCellToBack) Name() string { return NameSendCellToBack }

// =============================================================================
// Styling
// =============================================================================

// setField replaces one string attribute of a cell.
type setField struct {
	cell     *layer.Cell
	value    string
	previous string
	captured bool
	field    func(*layer.Cell) *string
	name     string
}

func (c *setField) Execute() {
	if c.cell == nil {
		return
	}
	f := c.field(c.cell)
	if !c.captured {
		c.previous = *f
		c.captured = true
	}
	*f = c.value
}

func (c *setField) Unexecute() {
	if c.cell == nil {
		return
	}
	*c.field(c.cell) = c.previous
}

func (c *setField) Name() string { return c.name }

// Value returns the value the command writes.
func (c *setField) Value() string { return c.value }

// NewSetCellFont returns a command setting the font descriptor of cell.
func NewSetCellFont(cell *layer.Cell, font string) Command {
	return &setField{
		cell:  cell,
		value: font,
		field: func(c *layer.Cell) *string { return &c.Font },
		name:  NameSetCellFont,
	}
}

// NewSetCellText returns a command setting the text content of cell.
func NewSetCellText(cell *layer.Cell, text string) Command {
	return &setField{
		cell:  cell,
		value: text,
		field: func(c *layer.Cell) *string { return &c.Text },
		name:  NameSetCellText,
	}
}

// NewSetCellBackgroundImage returns a command setting the background image of
// cell. The image location is stored as a CSS url() reference.
func NewSetCellBackgroundImage(cell *layer.Cell, image string) Command {
	return &setField{
		cell:  cell,
		value: URLReference(image),
		field: func(c *layer.Cell) *string { return &c.BackgroundImage },
		name:  NameSetCellBackgroundImage,
	}
}

// URLReference wraps a location as a CSS url() reference.
func URLReference(location string) string {
	return "url(" + location + ")"
}
