// Package designer is the embeddable editor: one document at a time, driven by
// pointer input and toolbar command codes.
//
// A [Designer] wires a [workspace.Workspace] to a [command.Queue]. Completed
// drags become undoable cell creations, clicks on existing cells toggle their
// selection, and toolbar codes become commands on the selected cell. Values
// for the styling commands and the "new document" confirmation come from a
// [Host].
//
//	d := designer.New(host)
//	d.NewDocument(50, 20, false)
//	d.Pointer(pointer.Press, 100, 50)
//	d.Pointer(pointer.Move, 140, 90)
//	d.Pointer(pointer.Release, 140, 90)
//	html, _ := d.Markup()
//
// A Designer is not safe for concurrent use.
package designer

import (
	"fmt"
	"strings"

	"github.com/matzehuels/gridcraft/pkg/command"
	"github.com/matzehuels/gridcraft/pkg/errors"
	"github.com/matzehuels/gridcraft/pkg/event"
	"github.com/matzehuels/gridcraft/pkg/geometry"
	"github.com/matzehuels/gridcraft/pkg/layer"
	"github.com/matzehuels/gridcraft/pkg/markup"
	"github.com/matzehuels/gridcraft/pkg/observability"
	"github.com/matzehuels/gridcraft/pkg/pointer"
	"github.com/matzehuels/gridcraft/pkg/workspace"
)

// Grid size used by the "new" toolbar command unless configured otherwise.
const (
	DefaultXCells = 50
	DefaultYCells = 20
)

// StatusIdle is the status line shown while the pointer is off the grid.
const StatusIdle = "Nothing to show"

// Option configures a Designer.
type Option func(*Designer)

// WithGrid sets the grid size the "new" command creates.
func WithGrid(xCells, yCells int) Option {
	return func(d *Designer) { d.xCells, d.yCells = xCells, yCells }
}

// WithPrompts sets the pre-filled prompt values.
func WithPrompts(p Prompts) Option {
	return func(d *Designer) { d.prompts = p }
}

// WithWorkspaceOptions passes options to every workspace the designer opens.
func WithWorkspaceOptions(opts ...workspace.Option) Option {
	return func(d *Designer) { d.wsOpts = append(d.wsOpts, opts...) }
}

// Designer is one editor instance.
type Designer struct {
	host    Host
	prompts Prompts
	wsOpts  []workspace.Option

	xCells, yCells int

	ws    *workspace.Workspace
	queue *command.Queue
	binds []event.Unsubscribe

	changes event.Emitter[struct{}]
}

// New returns a designer without an open document.
func New(host Host, opts ...Option) *Designer {
	d := &Designer{
		host:    host,
		prompts: DefaultPrompts(),
		xCells:  DefaultXCells,
		yCells:  DefaultYCells,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.host == nil {
		d.host = StaticHost{}
	}
	return d
}

// =============================================================================
// Documents
// =============================================================================

// NewDocument replaces the current document with an empty xCells by yCells
// grid. With confirm set the host is asked first; a declined confirmation
// leaves everything unchanged and returns false.
func (d *Designer) NewDocument(xCells, yCells int, confirm bool) (bool, error) {
	return d.newDocument(d.host, xCells, yCells, confirm)
}

func (d *Designer) newDocument(host Host, xCells, yCells int, confirm bool) (bool, error) {
	if err := errors.ValidateGrid(xCells, yCells); err != nil {
		return false, err
	}
	if confirm && !host.Confirm(MessageNewDocument) {
		return false, nil
	}
	d.open(xCells, yCells)
	d.changes.Emit(struct{}{})
	return true, nil
}

func (d *Designer) open(xCells, yCells int) {
	for _, unbind := range d.binds {
		unbind()
	}
	d.ws = workspace.New(xCells, yCells, d.wsOpts...)
	d.queue = command.NewQueue()
	d.binds = []event.Unsubscribe{
		d.ws.CellCreates.Subscribe(func(r geometry.Rect) {
			d.execute(command.NewCreateCell(d.ws.Layer, r))
		}),
		d.ws.CellClicks.Subscribe(d.ws.Layer.Toggle),
	}
}

// Open reports whether a document is open.
func (d *Designer) Open() bool {
	return d.ws != nil
}

// Workspace returns the open workspace, or nil.
func (d *Designer) Workspace() *workspace.Workspace {
	return d.ws
}

// Layer returns the active layer, or nil.
func (d *Designer) Layer() *layer.Layer {
	if d.ws == nil {
		return nil
	}
	return d.ws.Layer
}

// Queue returns the command history of the open document, or nil.
func (d *Designer) Queue() *command.Queue {
	return d.queue
}

// OnChange registers fn to run after every change to the document: command
// execution, undo, redo, markup import and opening a new document.
func (d *Designer) OnChange(fn func()) event.Unsubscribe {
	if fn == nil {
		return func() {}
	}
	return d.changes.Subscribe(func(struct{}) { fn() })
}

// =============================================================================
// Input
// =============================================================================

// Pointer feeds one pointer input in surface pixels to the workspace.
func (d *Designer) Pointer(kind pointer.Kind, x, y float64) error {
	if d.ws == nil {
		return errNoDocument()
	}
	p := d.ws.Pointer
	switch kind {
	case pointer.Press:
		d.ws.Press(x, y)
	case pointer.Move:
		p.Move(x, y)
	case pointer.Release:
		p.Release()
	case pointer.Leave:
		p.Leave()
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown pointer input %d", kind)
	}
	return nil
}

// Toggle flips the selection of the cell with the given ID.
func (d *Designer) Toggle(id string) error {
	if d.ws == nil {
		return errNoDocument()
	}
	c := d.ws.Layer.Lookup(id)
	if c == nil {
		return errors.New(errors.ErrCodeNotFound, "cell %s not found", id)
	}
	d.ws.Layer.Toggle(c)
	return nil
}

// =============================================================================
// Commands
// =============================================================================

// Dispatch runs the toolbar command code, asking the designer's host for
// confirmations and values.
func (d *Designer) Dispatch(code Code) error {
	return d.DispatchWith(d.host, code)
}

// DispatchWith runs the toolbar command code with host answering dialogs.
// Context commands without a selection and cancelled prompts do nothing.
func (d *Designer) DispatchWith(host Host, code Code) error {
	if code == CodeNew {
		_, err := d.newDocument(host, d.xCells, d.yCells, true)
		return err
	}
	if err := ValidateCommandCode(string(code)); err != nil {
		return err
	}
	if d.ws == nil {
		return errNoDocument()
	}

	switch code {
	case CodeUndo:
		d.Undo()
		return nil
	case CodeRedo:
		d.Redo()
		return nil
	}

	sel := d.ws.Layer.Selected()
	if sel == nil {
		return nil
	}
	switch code {
	case CodeRemove:
		d.execute(command.NewRemoveCell(d.ws.Layer, sel))
	case CodeBringToFront:
		d.execute(command.NewBringCellToFront(d.ws.Layer, sel))
	case CodeSendToBack:
		d.execute(command.NewSendCellToBack(d.ws.Layer, sel))
	case CodeSetFont:
		if v, ok := host.Prompt(MessageFont, d.prompts.Font); ok {
			d.execute(command.NewSetCellFont(sel, v))
		}
	case CodeSetText:
		if v, ok := host.Prompt(MessageText, d.prompts.Text); ok {
			d.execute(command.NewSetCellText(sel, v))
		}
	case CodeSetBackgroundImage:
		v, ok := host.Prompt(MessageBackgroundImage, d.prompts.BackgroundImage)
		if !ok {
			return nil
		}
		if err := errors.ValidateImageURL(v); err != nil {
			return err
		}
		d.execute(command.NewSetCellBackgroundImage(sel, v))
	}
	return nil
}

// Undo reverts the last command. It does nothing when there is none.
func (d *Designer) Undo() {
	if d.queue == nil || !d.queue.CanUndo() {
		return
	}
	cmd := d.queue.Peek()
	d.queue.Undo()
	d.commit(cmd, observability.OpUndo)
}

// Redo re-applies the last undone command. It does nothing when there is none.
func (d *Designer) Redo() {
	if d.queue == nil || !d.queue.CanRedo() {
		return
	}
	d.queue.Redo()
	d.commit(d.queue.Peek(), observability.OpRedo)
}

func (d *Designer) execute(cmd command.Command) {
	d.queue.Execute(cmd)
	d.commit(cmd, observability.OpExecute)
}

func (d *Designer) commit(cmd command.Command, op string) {
	observability.Editor().OnCommand(cmd.Name(), op)
	d.ws.Refresh()
	d.changes.Emit(struct{}{})
}

// =============================================================================
// Markup
// =============================================================================

// Markup exports the open document. ok is false when no document is open.
func (d *Designer) Markup() (html string, ok bool) {
	if d.ws == nil {
		return "", false
	}
	return markup.Encode(d.Document()), true
}

// Document returns the exportable form of the open document.
func (d *Designer) Document() markup.Document {
	if d.ws == nil {
		return markup.Document{}
	}
	l := d.ws.Layer
	xCells, yCells := l.Grid()
	doc := markup.Document{XCells: xCells, YCells: yCells}
	for _, c := range l.Cells() {
		left, top, width, height := l.Placement(c)
		doc.Cells = append(doc.Cells, markup.CellData{
			Left:            left,
			Top:             top,
			Width:           width,
			Height:          height,
			Z:               c.Z,
			Font:            c.Font,
			Text:            c.Text,
			BackgroundImage: c.BackgroundImage,
		})
	}
	return doc
}

// SetMarkup imports the cells of an exported fragment into the active layer.
// Existing cells are kept. Without an open document one is opened, sized from
// the fragment or from the configured grid.
func (d *Designer) SetMarkup(s string) error {
	n, err := d.setMarkup(s)
	observability.Editor().OnMarkupImport(n, err)
	return err
}

func (d *Designer) setMarkup(s string) (int, error) {
	if err := errors.ValidateMarkupSize(len(s)); err != nil {
		return 0, err
	}
	doc, err := markup.Decode(s)
	if err != nil {
		return 0, err
	}
	if d.ws == nil {
		xCells, yCells := d.xCells, d.yCells
		if doc.XCells > 0 || doc.YCells > 0 {
			xCells, yCells = doc.XCells, doc.YCells
		}
		if err := errors.ValidateGrid(xCells, yCells); err != nil {
			return 0, err
		}
		d.open(xCells, yCells)
	}

	l := d.ws.Layer
	xCells, yCells := l.Grid()
	n := 0
	for _, c := range doc.Cells {
		r := c.Rect(xCells, yCells)
		if r.Empty() {
			continue
		}
		l.Import(&layer.Cell{
			Rect:            r,
			Z:               c.Z,
			Font:            c.Font,
			Text:            c.Text,
			BackgroundImage: c.BackgroundImage,
		})
		n++
	}
	d.ws.Refresh()
	d.changes.Emit(struct{}{})
	return n, nil
}

// =============================================================================
// Status
// =============================================================================

// Status returns the status line for the current pointer position.
func (d *Designer) Status() string {
	if d.ws == nil {
		return StatusIdle
	}
	return FormatStatus(d.ws.Readout())
}

// FormatStatus renders a pointer readout as a status line.
func FormatStatus(c workspace.Coordinates) string {
	if !c.Inside {
		return StatusIdle
	}
	var b strings.Builder
	fmt.Fprintf(&b, "X = %d, Y = %d", c.X, c.Y)
	if c.Dragging() {
		fmt.Fprintf(&b, ", W = %d, H = %d", c.Width, c.Height)
	}
	return b.String()
}

// Toolbar returns the current button enablement.
func (d *Designer) Toolbar() Toolbar {
	if d.ws == nil {
		return Toolbar{}
	}
	return Toolbar{
		Open:         true,
		CanUndo:      d.queue.CanUndo(),
		CanRedo:      d.queue.CanRedo(),
		HasSelection: d.ws.Layer.Selected() != nil,
	}
}

func errNoDocument() error {
	return errors.New(errors.ErrCodeNoDocument, "no document is open")
}
