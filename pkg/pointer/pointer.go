// Package pointer implements the drag-interaction state machine of the editor.
//
// A [Pointer] receives raw input in logical pixels relative to the drawing
// surface, scales it with the workspace geometry and tracks one drag at a time:
//
//	Idle ──Press──▶ Pressed ──Move──▶ Dragging ──Release──▶ Idle
//
// While a drag is in progress the current position never regresses below the
// drag anchor, so a drag rectangle only grows toward larger coordinates.
// Leave resets the current position to the "outside" sentinel only when no
// button is held; during a drag the release is still tracked after the cursor
// left the surface.
//
// Every input produces an [Event] on [Pointer.Events] after the state change
// has been applied.
package pointer

import (
	"github.com/matzehuels/gridcraft/pkg/event"
	"github.com/matzehuels/gridcraft/pkg/geometry"
)

// None is the sentinel coordinate for "no anchor" and "outside the surface".
const None = -1

// Kind identifies the input that produced an [Event].
type Kind int

const (
	Move Kind = iota
	Leave
	Press
	Release
)

func (k Kind) String() string {
	switch k {
	case Move:
		return "move"
	case Leave:
		return "leave"
	case Press:
		return "press"
	case Release:
		return "release"
	}
	return "unknown"
}

// ParseKind maps a wire name ("press", "move", ...) back to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "move":
		return Move, true
	case "leave":
		return Leave, true
	case "press":
		return Press, true
	case "release":
		return Release, true
	}
	return 0, false
}

// Event describes one processed input. Start and Current are the pointer state
// right after the input was applied, except for a completed drag, where they
// hold the drag's anchor and end position captured before the reset.
type Event struct {
	Kind    Kind
	Start   geometry.Vec
	Current geometry.Vec
	Pressed bool
	// Completed is true for the Release that ended a drag.
	Completed bool
}

// Pointer is the transient interaction state of one workspace.
type Pointer struct {
	geom *geometry.Geometry

	StartX, StartY float64
	X, Y           float64
	IsPressed      bool

	// Events receives one Event per processed input.
	Events event.Emitter[Event]
}

// New returns an idle pointer that scales input with geom.
func New(geom *geometry.Geometry) *Pointer {
	return &Pointer{
		geom:   geom,
		StartX: None,
		StartY: None,
		X:      None,
		Y:      None,
	}
}

// HasStart reports whether a drag anchor is set.
func (p *Pointer) HasStart() bool {
	return p.StartX != None && p.StartY != None
}

// Inside reports whether the pointer is over the surface.
func (p *Pointer) Inside() bool {
	return p.X != None && p.Y != None
}

// Start returns the drag anchor in scaled pixels.
func (p *Pointer) Start() geometry.Vec {
	return geometry.Vec{X: p.StartX, Y: p.StartY}
}

// Current returns the current position in scaled pixels.
func (p *Pointer) Current() geometry.Vec {
	return geometry.Vec{X: p.X, Y: p.Y}
}

// Move updates the current position from logical pixel input.
func (p *Pointer) Move(x, y float64) {
	p.X = p.geom.Scale(x)
	if p.X < p.StartX {
		p.X = p.StartX
	}
	p.Y = p.geom.Scale(y)
	if p.Y < p.StartY {
		p.Y = p.StartY
	}
	p.emit(Move)
}

// Leave signals that the cursor left the surface.
func (p *Pointer) Leave() {
	if !p.IsPressed {
		p.X = None
		p.Y = None
	}
	p.emit(Leave)
}

// Press anchors a drag at the given logical pixel position.
func (p *Pointer) Press(x, y float64) {
	p.IsPressed = true
	p.StartX = p.geom.Scale(x)
	p.StartY = p.geom.Scale(y)
	p.X = p.StartX
	p.Y = p.StartY
	p.emit(Press)
}

// Release ends the current drag and emits it. The event carries the anchor
// and end position captured before the reset, so subscribers already observe
// an idle pointer and repaint without the rubber band. A release without an
// anchor is ignored and produces no event.
func (p *Pointer) Release() {
	if !p.HasStart() {
		return
	}
	ev := Event{
		Kind:      Release,
		Start:     p.Start(),
		Current:   p.Current(),
		Completed: true,
	}
	p.IsPressed = false
	p.StartX = None
	p.StartY = None
	p.Events.Emit(ev)
}

// Reset returns the pointer to the idle, outside state without emitting.
func (p *Pointer) Reset() {
	p.StartX, p.StartY = None, None
	p.X, p.Y = None, None
	p.IsPressed = false
}

func (p *Pointer) emit(k Kind) {
	p.Events.Emit(Event{
		Kind:    k,
		Start:   p.Start(),
		Current: p.Current(),
		Pressed: p.IsPressed,
	})
}
