package server

import (
	"encoding/json"

	"github.com/matzehuels/gridcraft/internal/session"
	"github.com/matzehuels/gridcraft/pkg/designer"
)

// cellState is the JSON form of one cell.
type cellState struct {
	ID              string `json:"id"`
	X               int    `json:"x"`
	Y               int    `json:"y"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	Z               int    `json:"z"`
	Font            string `json:"font,omitempty"`
	Text            string `json:"text,omitempty"`
	BackgroundImage string `json:"background_image,omitempty"`
	Selected        bool   `json:"selected"`
}

// documentState is the JSON form of a live document, returned by most
// document routes and pushed on the event stream.
type documentState struct {
	ID         string           `json:"id"`
	XCells     int              `json:"x_cells"`
	YCells     int              `json:"y_cells"`
	Cells      []cellState      `json:"cells"`
	Selected   string           `json:"selected,omitempty"`
	CanUndo    bool             `json:"can_undo"`
	CanRedo    bool             `json:"can_redo"`
	Status     string           `json:"status"`
	Toolbar    designer.Toolbar `json:"toolbar"`
	SnapshotID string           `json:"snapshot_id,omitempty"`
}

// stateOf captures d. It must run inside [session.Document.Do].
func stateOf(id string, d *designer.Designer) documentState {
	st := documentState{
		ID:      id,
		Cells:   []cellState{},
		Status:  d.Status(),
		Toolbar: d.Toolbar(),
	}
	st.CanUndo = st.Toolbar.CanUndo
	st.CanRedo = st.Toolbar.CanRedo

	l := d.Layer()
	if l == nil {
		return st
	}
	st.XCells, st.YCells = l.Grid()
	for _, c := range l.Cells() {
		st.Cells = append(st.Cells, cellState{
			ID:              c.ID,
			X:               c.Rect.X,
			Y:               c.Rect.Y,
			Width:           c.Rect.Width,
			Height:          c.Rect.Height,
			Z:               c.Z,
			Font:            c.Font,
			Text:            c.Text,
			BackgroundImage: c.BackgroundImage,
			Selected:        c.Selected(),
		})
	}
	if sel := l.Selected(); sel != nil {
		st.Selected = sel.ID
	}
	return st
}

// snapshot runs fn on doc and returns the resulting state.
func snapshot(doc *session.Document, fn func(*designer.Designer) error) (documentState, error) {
	var st documentState
	err := doc.Do(func(d *designer.Designer) error {
		if fn != nil {
			if err := fn(d); err != nil {
				return err
			}
		}
		st = stateOf(doc.ID, d)
		return nil
	})
	if err != nil {
		return documentState{}, err
	}
	st.SnapshotID = doc.SnapshotID()
	return st, nil
}

// observed wraps fn so *fired reports whether it triggered the designer's
// change notification, which track already publishes.
func observed(fn func(*designer.Designer) error, fired *bool) func(*designer.Designer) error {
	return func(d *designer.Designer) error {
		unsubscribe := d.OnChange(func() { *fired = true })
		defer unsubscribe()
		return fn(d)
	}
}

// track pushes the state of doc to its event streams after every change.
func (s *Server) track(doc *session.Document) {
	doc.Do(func(d *designer.Designer) error {
		d.OnChange(func() {
			s.publish(stateOf(doc.ID, d))
		})
		return nil
	})
}

func (s *Server) publish(st documentState) {
	if s.events.count(st.ID) == 0 {
		return
	}
	data, err := json.Marshal(st)
	if err != nil {
		s.logger.Warn("encode event", "document", st.ID, "err", err)
		return
	}
	s.events.broadcast(st.ID, string(data))
}
