package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridcraft/internal/session"
	"github.com/matzehuels/gridcraft/pkg/designer"
	"github.com/matzehuels/gridcraft/pkg/geometry"
	"github.com/matzehuels/gridcraft/pkg/layer"
	"github.com/matzehuels/gridcraft/pkg/store"
	"github.com/matzehuels/gridcraft/pkg/workspace"
)

func newTestEditor(t *testing.T) EditorModel {
	t.Helper()
	m := session.NewManager(store.NewMemoryStore(), log.New(io.Discard), designer.WithWorkspaceOptions(
		workspace.WithSurface(workspace.TerminalSurface),
		workspace.WithCellSize(workspace.TerminalCellColumns),
	))
	doc, err := m.Create(10, 5)
	if err != nil {
		t.Fatal(err)
	}
	return NewEditorModel(context.Background(), m, doc, designer.DefaultPrompts())
}

func send(m EditorModel, msgs ...tea.Msg) EditorModel {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(EditorModel)
	}
	return m
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func mouse(action tea.MouseAction, col, row int) tea.MouseMsg {
	return tea.MouseMsg{X: col, Y: row, Action: action, Button: tea.MouseButtonLeft}
}

// dragCells draws the cell from grid (1,1) to (3,3).
func dragCells(m EditorModel) EditorModel {
	return send(m,
		mouse(tea.MouseActionPress, 2, canvasTop+1),
		mouse(tea.MouseActionMotion, 7, canvasTop+3),
		mouse(tea.MouseActionRelease, 7, canvasTop+3),
	)
}

func cells(t *testing.T, m EditorModel) []*layer.Cell {
	t.Helper()
	var out []*layer.Cell
	m.doc.Do(func(d *designer.Designer) error {
		out = d.Layer().Cells()
		return nil
	})
	return out
}

func TestSurfacePoint(t *testing.T) {
	ws := workspace.New(10, 5,
		workspace.WithSurface(workspace.TerminalSurface),
		workspace.WithCellSize(workspace.TerminalCellColumns),
	)

	tests := []struct {
		col, row   int
		wantCell   geometry.Point
		wantInside bool
	}{
		{0, canvasTop, geometry.Point{X: 0, Y: 0}, true},
		{1, canvasTop, geometry.Point{X: 0, Y: 0}, true},
		{2, canvasTop + 1, geometry.Point{X: 1, Y: 1}, true},
		{19, canvasTop + 4, geometry.Point{X: 9, Y: 4}, true},
		{20, canvasTop, geometry.Point{X: 10, Y: 0}, false},
		{0, canvasTop - 1, geometry.Point{X: 0, Y: -1}, false},
		{0, canvasTop + 5, geometry.Point{X: 0, Y: 5}, false},
	}
	for _, tt := range tests {
		x, y, inside := surfacePoint(ws, tt.col, tt.row)
		if inside != tt.wantInside {
			t.Errorf("surfacePoint(%d, %d) inside = %v, want %v", tt.col, tt.row, inside, tt.wantInside)
		}
		if got := ws.Geometry.NearestCellCoordinates(x, y); got != tt.wantCell {
			t.Errorf("surfacePoint(%d, %d) -> cell %+v, want %+v", tt.col, tt.row, got, tt.wantCell)
		}
	}
}

func TestEditorDrawAndUndo(t *testing.T) {
	m := dragCells(newTestEditor(t))

	got := cells(t, m)
	if len(got) != 1 {
		t.Fatalf("cells = %d, want 1", len(got))
	}
	if want := (geometry.Rect{X: 1, Y: 1, Width: 3, Height: 3}); got[0].Rect != want {
		t.Errorf("rect = %+v, want %+v", got[0].Rect, want)
	}
	if !got[0].Selected() {
		t.Error("new cell should be selected")
	}

	m = send(m, keyMsg("u"))
	if n := len(cells(t, m)); n != 0 {
		t.Errorf("after undo cells = %d", n)
	}
	m = send(m, tea.KeyMsg{Type: tea.KeyCtrlY})
	if n := len(cells(t, m)); n != 1 {
		t.Errorf("after ctrl+y cells = %d", n)
	}
}

func TestEditorTextPrompt(t *testing.T) {
	m := dragCells(newTestEditor(t))

	m = send(m, keyMsg("t"))
	if m.mode != modePrompt || m.input.code != designer.CodeSetText {
		t.Fatalf("mode = %v, input = %+v", m.mode, m.input)
	}
	if !strings.Contains(m.View(), designer.MessageText) {
		t.Error("prompt label not shown")
	}

	m = send(m, tea.KeyMsg{Type: tea.KeyCtrlU}, keyMsg("Hi"), keyMsg(" "), keyMsg("there!"), keyMsg("backspace"), keyMsg("enter"))
	if m.mode != modeNormal {
		t.Fatalf("mode = %v after enter", m.mode)
	}
	if got := cells(t, m)[0].Text; got != "Hi there" {
		t.Errorf("text = %q, want %q", got, "Hi there")
	}

	// Escape leaves the cell untouched.
	m = send(m, keyMsg("t"), keyMsg("x"), keyMsg("esc"))
	if got := cells(t, m)[0].Text; got != "Hi there" {
		t.Errorf("text after esc = %q", got)
	}
}

func TestEditorKeyAliases(t *testing.T) {
	m := dragCells(newTestEditor(t))

	m = send(m, tea.KeyMsg{Type: tea.KeyCtrlZ})
	if n := len(cells(t, m)); n != 0 {
		t.Fatalf("after ctrl+z cells = %d", n)
	}
	m = send(m, keyMsg("r"), tea.KeyMsg{Type: tea.KeyDelete})
	if n := len(cells(t, m)); n != 0 {
		t.Errorf("delete left %d cells", n)
	}
}

func TestEditorHelpFooter(t *testing.T) {
	m := newTestEditor(t)
	view := m.View()
	for _, want := range []string{"save", "write", "quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("footer missing %q", want)
		}
	}

	m = send(m, keyMsg("s"))
	if !strings.Contains(m.View(), "accept") {
		t.Error("prompt footer should list its keys")
	}
	if got := m.input.field.Value(); got != "untitled" {
		t.Errorf("name prompt = %q, want the current name", got)
	}
}

func TestEditorNewNeedsConfirmation(t *testing.T) {
	m := dragCells(newTestEditor(t))

	m = send(m, keyMsg("n"), keyMsg("n"))
	if n := len(cells(t, m)); n != 1 {
		t.Fatalf("declined new document cleared %d cells", 1-n)
	}

	m = send(m, keyMsg("n"))
	if m.mode != modeConfirm {
		t.Fatalf("mode = %v, want confirm", m.mode)
	}
	m = send(m, keyMsg("y"))
	if n := len(cells(t, m)); n != 0 {
		t.Errorf("cells after new = %d", n)
	}
}

func TestEditorDisabledTools(t *testing.T) {
	m := send(newTestEditor(t), keyMsg("x"), keyMsg("t"))
	if m.mode != modeNormal {
		t.Errorf("disabled tool opened mode %v", m.mode)
	}
	if !strings.Contains(m.toolbarView(), designer.CodeRemove.Label()) {
		t.Error("toolbar should list disabled buttons")
	}
}

func TestEditorSaveAndWrite(t *testing.T) {
	m := dragCells(newTestEditor(t))

	m = send(m, keyMsg("w"))
	if !m.failed {
		t.Error("write without a file should fail")
	}

	m.File = filepath.Join(t.TempDir(), "grid.html")
	m = send(m, keyMsg("w"))
	if m.failed {
		t.Fatalf("write failed: %s", m.message)
	}
	data, err := os.ReadFile(m.File)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "grid-cell") {
		t.Errorf("markup = %q", data)
	}

	m = send(m, keyMsg("s"), tea.KeyMsg{Type: tea.KeyCtrlU}, keyMsg("landing"), keyMsg("enter"))
	if m.failed || m.Name != "landing" {
		t.Fatalf("save: name = %q, message = %q", m.Name, m.message)
	}
	id := m.doc.SnapshotID()
	if id == "" {
		t.Fatal("document has no snapshot after save")
	}
	if _, err := m.sessions.Store().Get(context.Background(), id); err != nil {
		t.Errorf("snapshot not stored: %v", err)
	}
}

func TestEditorQuit(t *testing.T) {
	for _, k := range []string{"q", "esc"} {
		_, cmd := newTestEditor(t).Update(keyMsg(k))
		if cmd == nil {
			t.Fatalf("%s: no command", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s did not quit", k)
		}
	}
}
