package designer

import (
	"strings"
	"testing"

	"github.com/matzehuels/gridcraft/pkg/errors"
	"github.com/matzehuels/gridcraft/pkg/geometry"
	"github.com/matzehuels/gridcraft/pkg/layer"
	"github.com/matzehuels/gridcraft/pkg/observability"
	"github.com/matzehuels/gridcraft/pkg/pointer"
)

type fakeHost struct {
	confirm  bool
	value    string
	cancel   bool
	asked    []string
	defaults []string
}

func (h *fakeHost) Confirm(msg string) bool {
	h.asked = append(h.asked, msg)
	return h.confirm
}

func (h *fakeHost) Prompt(msg, def string) (string, bool) {
	h.asked = append(h.asked, msg)
	h.defaults = append(h.defaults, def)
	if h.cancel {
		return "", false
	}
	if h.value == "" {
		return def, true
	}
	return h.value, true
}

// newDesigner opens a 50x20 document with 20px cells.
func newDesigner(t *testing.T, host Host) *Designer {
	t.Helper()
	d := New(host)
	if ok, err := d.NewDocument(50, 20, false); err != nil || !ok {
		t.Fatalf("NewDocument() = %v, %v", ok, err)
	}
	return d
}

func drag(t *testing.T, d *Designer, x0, y0, x1, y1 float64) {
	t.Helper()
	for _, step := range []struct {
		kind pointer.Kind
		x, y float64
	}{
		{pointer.Press, x0, y0},
		{pointer.Move, x1, y1},
		{pointer.Release, x1, y1},
	} {
		if err := d.Pointer(step.kind, step.x, step.y); err != nil {
			t.Fatalf("Pointer(%v): %v", step.kind, err)
		}
	}
}

func TestDragScenario(t *testing.T) {
	d := newDesigner(t, &fakeHost{})

	d.Pointer(pointer.Press, 100, 50)
	d.Pointer(pointer.Move, 140, 90)
	if got, want := d.Status(), "X = 5, Y = 2, W = 3, H = 3"; got != want {
		t.Errorf("Status() while dragging = %q, want %q", got, want)
	}
	d.Pointer(pointer.Release, 140, 90)

	cells := d.Layer().Cells()
	if len(cells) != 1 {
		t.Fatalf("cells = %d, want 1", len(cells))
	}
	c := cells[0]
	if want := (geometry.Rect{X: 5, Y: 2, Width: 3, Height: 3}); c.Rect != want {
		t.Errorf("Rect = %+v, want %+v", c.Rect, want)
	}
	if c.Z != layer.BaseZ+1 || !c.Selected() {
		t.Errorf("new cell z=%d selected=%v", c.Z, c.Selected())
	}
	if tb := d.Toolbar(); !tb.CanUndo || tb.CanRedo || !tb.HasSelection {
		t.Errorf("Toolbar() = %+v", tb)
	}

	d.Undo()
	if d.Layer().Len() != 0 {
		t.Error("undo should remove the created cell")
	}
	d.Redo()
	if d.Layer().Len() != 1 || d.Layer().Cells()[0] != c {
		t.Error("redo should re-insert the same cell")
	}
}

func TestEmptyQueue(t *testing.T) {
	d := newDesigner(t, &fakeHost{})
	tb := d.Toolbar()
	if tb.CanUndo || tb.CanRedo {
		t.Errorf("Toolbar() = %+v, want nothing to undo or redo", tb)
	}
	changes := 0
	d.OnChange(func() { changes++ })
	d.Undo()
	d.Redo()
	if changes != 0 {
		t.Errorf("undo/redo on empty history fired %d changes", changes)
	}
}

func TestStatus(t *testing.T) {
	d := New(nil)
	if got := d.Status(); got != StatusIdle {
		t.Errorf("Status() without document = %q", got)
	}
	d.NewDocument(50, 20, false)

	d.Pointer(pointer.Move, 100, 50)
	if got, want := d.Status(), "X = 5, Y = 2"; got != want {
		t.Errorf("Status() = %q, want %q", got, want)
	}
	d.Pointer(pointer.Leave, 0, 0)
	if got := d.Status(); got != StatusIdle {
		t.Errorf("Status() after leave = %q", got)
	}
}

func TestClickTogglesSelection(t *testing.T) {
	d := newDesigner(t, &fakeHost{})
	drag(t, d, 100, 50, 140, 90)
	c := d.Layer().Selected()

	drag(t, d, 110, 55, 110, 55)
	if c.Selected() || d.Layer().Len() != 1 {
		t.Fatalf("click should deselect without creating (selected=%v, cells=%d)", c.Selected(), d.Layer().Len())
	}
	if d.Toolbar().HasSelection {
		t.Error("context buttons should be disabled")
	}
	if err := d.Toggle(c.ID); err != nil || !c.Selected() {
		t.Errorf("Toggle() = %v, selected=%v", err, c.Selected())
	}
	if err := d.Toggle("missing"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Toggle(missing) = %v", err)
	}
}

func TestDragFromCellDoesNotCreate(t *testing.T) {
	d := newDesigner(t, &fakeHost{})
	drag(t, d, 100, 50, 140, 90)
	c := d.Layer().Selected()
	d.Layer().Deselect(c)

	drag(t, d, 110, 60, 300, 300)
	if n := d.Layer().Len(); n != 1 {
		t.Fatalf("cells = %d, want 1", n)
	}
	if !c.Selected() {
		t.Error("press on a cell should toggle its selection")
	}
	if d.Queue().Len() != 1 {
		t.Errorf("queue length = %d, want 1", d.Queue().Len())
	}
	if d.ws.Pointer.HasStart() {
		t.Error("press on a cell should not anchor a drag")
	}
}

func TestDispatch(t *testing.T) {
	host := &fakeHost{}
	d := newDesigner(t, host)
	drag(t, d, 0, 0, 40, 40)
	drag(t, d, 20, 20, 60, 60)
	first, second := d.Layer().Cells()[0], d.Layer().Cells()[1]

	if err := d.Dispatch(CodeSendToBack); err != nil {
		t.Fatal(err)
	}
	if second.Z >= first.Z {
		t.Errorf("sendToBack: z=%d, other=%d", second.Z, first.Z)
	}
	if err := d.Dispatch(CodeBringToFront); err != nil {
		t.Fatal(err)
	}
	if second.Z <= first.Z {
		t.Errorf("bringToFront: z=%d, other=%d", second.Z, first.Z)
	}

	d.Dispatch(CodeSetFont)
	d.Dispatch(CodeSetText)
	d.Dispatch(CodeSetBackgroundImage)
	p := DefaultPrompts()
	if second.Font != p.Font || second.Text != p.Text || second.BackgroundImage != "url("+p.BackgroundImage+")" {
		t.Errorf("styled cell = %+v", second.Snapshot())
	}
	if want := []string{MessageFont, MessageText, MessageBackgroundImage}; strings.Join(host.asked, "|") != strings.Join(want, "|") {
		t.Errorf("asked = %v, want %v", host.asked, want)
	}

	if err := d.Dispatch(CodeRemove); err != nil {
		t.Fatal(err)
	}
	if d.Layer().Contains(second) {
		t.Error("remove should detach the selected cell")
	}
	d.Dispatch(CodeUndo)
	if !d.Layer().Contains(second) || !second.Selected() {
		t.Error("undo of remove should restore and select the cell")
	}
}

func TestDispatchWithoutSelection(t *testing.T) {
	host := &fakeHost{}
	d := newDesigner(t, host)
	for _, code := range []Code{CodeRemove, CodeBringToFront, CodeSendToBack, CodeSetFont, CodeSetText, CodeSetBackgroundImage} {
		if err := d.Dispatch(code); err != nil {
			t.Errorf("Dispatch(%s) = %v", code, err)
		}
	}
	if len(host.asked) != 0 {
		t.Errorf("prompts shown without selection: %v", host.asked)
	}
	if d.Queue().Len() != 0 {
		t.Errorf("queue length = %d, want 0", d.Queue().Len())
	}
}

func TestDispatchCancelledPrompt(t *testing.T) {
	host := &fakeHost{cancel: true}
	d := newDesigner(t, host)
	drag(t, d, 0, 0, 20, 20)
	before := d.Queue().Len()

	d.Dispatch(CodeSetText)
	if d.Queue().Len() != before {
		t.Error("cancelled prompt should not record a command")
	}
}

func TestDispatchRejectsBadImage(t *testing.T) {
	d := newDesigner(t, &fakeHost{value: "javascript:alert(1)"})
	drag(t, d, 0, 0, 20, 20)
	err := d.Dispatch(CodeSetBackgroundImage)
	if !errors.Is(err, errors.ErrCodeInvalidURL) {
		t.Errorf("Dispatch() = %v, want INVALID_URL", err)
	}
}

func TestDispatchErrors(t *testing.T) {
	d := New(nil)
	if err := d.Dispatch(CodeUndo); !errors.Is(err, errors.ErrCodeNoDocument) {
		t.Errorf("Dispatch without document = %v", err)
	}
	if err := d.Dispatch(Code("explode")); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Dispatch(unknown) = %v", err)
	}
}

func TestNewDocumentConfirmation(t *testing.T) {
	host := &fakeHost{confirm: false}
	d := newDesigner(t, host)
	drag(t, d, 0, 0, 20, 20)

	if err := d.Dispatch(CodeNew); err != nil {
		t.Fatal(err)
	}
	if d.Layer().Len() != 1 {
		t.Error("declined confirmation must keep the document")
	}

	host.confirm = true
	d.Dispatch(CodeNew)
	if d.Layer().Len() != 0 || d.Queue().Len() != 0 {
		t.Error("confirmed new should start an empty document")
	}
	if len(host.asked) != 2 || host.asked[0] != MessageNewDocument {
		t.Errorf("asked = %v", host.asked)
	}

	// The old workspace is unbound: input goes to the new one only.
	drag(t, d, 0, 0, 20, 20)
	if d.Queue().Len() != 1 {
		t.Errorf("queue length = %d, want 1", d.Queue().Len())
	}

	if _, err := d.NewDocument(0, 20, false); !errors.Is(err, errors.ErrCodeInvalidGrid) {
		t.Errorf("NewDocument(0, 20) = %v", err)
	}
}

func TestMarkupRoundTrip(t *testing.T) {
	const (
		font  = `italic 2vw "Open Sans", serif`
		image = "https://cdn.example.com/sample.jpg?w=2&h=1"
	)
	d := newDesigner(t, &fakeHost{value: `Hello "world" & <you>`})
	drag(t, d, 100, 50, 140, 90)
	d.Dispatch(CodeSetText)
	for code, value := range map[Code]string{CodeSetFont: font, CodeSetBackgroundImage: image} {
		if err := d.DispatchWith(StaticHost{Value: value}, code); err != nil {
			t.Fatalf("%s: %v", code, err)
		}
	}
	styled := d.Layer().Selected()
	if styled.Font != font || styled.BackgroundImage != "url("+image+")" {
		t.Fatalf("styled cell font=%q image=%q", styled.Font, styled.BackgroundImage)
	}
	drag(t, d, 0, 0, 60, 20)
	d.Dispatch(CodeSendToBack)

	html, ok := d.Markup()
	if !ok {
		t.Fatal("Markup() reported no document")
	}
	if strings.Contains(html, "selected") {
		t.Error("selection must not be exported")
	}

	other := New(nil)
	if _, ok := other.Markup(); ok {
		t.Error("Markup() without document should report false")
	}
	changes := 0
	other.OnChange(func() { changes++ })
	if err := other.SetMarkup(html); err != nil {
		t.Fatal(err)
	}
	if changes != 1 {
		t.Errorf("changes = %d, want 1", changes)
	}

	want, got := d.Layer().Cells(), other.Layer().Cells()
	if len(got) != len(want) {
		t.Fatalf("imported %d cells, want %d", len(got), len(want))
	}
	for i := range want {
		w, g := want[i].Snapshot(), got[i].Snapshot()
		w.ID, g.ID = "", ""
		if w != g {
			t.Errorf("cell %d = %+v, want %+v", i, g, w)
		}
		if got[i].Selected() {
			t.Errorf("cell %d imported selected", i)
		}
	}

	again, _ := other.Markup()
	if again != html {
		t.Errorf("re-export differs\n got %s\nwant %s", again, html)
	}
}

func TestSetMarkupAppends(t *testing.T) {
	d := newDesigner(t, &fakeHost{})
	drag(t, d, 0, 0, 20, 20)
	html, _ := d.Markup()

	if err := d.SetMarkup(html); err != nil {
		t.Fatal(err)
	}
	if d.Layer().Len() != 2 {
		t.Errorf("cells = %d, want 2", d.Layer().Len())
	}
	if err := d.SetMarkup(strings.Repeat("x", errors.MaxMarkupBytes+1)); !errors.Is(err, errors.ErrCodeInvalidMarkup) {
		t.Errorf("oversized markup = %v", err)
	}
}

type recordingHooks struct {
	observability.NoopEditorHooks
	ops     []string
	imports int
}

func (h *recordingHooks) OnCommand(name, op string) { h.ops = append(h.ops, op+":"+name) }
func (h *recordingHooks) OnMarkupImport(n int, _ error) { h.imports += n }

func TestEditorHooks(t *testing.T) {
	h := &recordingHooks{}
	observability.SetEditorHooks(h)
	defer observability.Reset()

	d := newDesigner(t, &fakeHost{})
	drag(t, d, 0, 0, 20, 20)
	d.Undo()
	d.Redo()
	html, _ := d.Markup()
	d.SetMarkup(html)

	want := "execute:createCell undo:createCell redo:createCell"
	if got := strings.Join(h.ops, " "); got != want {
		t.Errorf("ops = %q, want %q", got, want)
	}
	if h.imports != 1 {
		t.Errorf("imports = %d, want 1", h.imports)
	}
}

func TestToolbarEnabled(t *testing.T) {
	tests := []struct {
		name string
		tb   Toolbar
		code Code
		want bool
	}{
		{"new always", Toolbar{}, CodeNew, true},
		{"undo closed", Toolbar{CanUndo: true}, CodeUndo, false},
		{"undo", Toolbar{Open: true, CanUndo: true}, CodeUndo, true},
		{"redo", Toolbar{Open: true}, CodeRedo, false},
		{"context without selection", Toolbar{Open: true}, CodeSetText, false},
		{"context with selection", Toolbar{Open: true, HasSelection: true}, CodeRemove, true},
		{"unknown", Toolbar{Open: true, HasSelection: true}, Code("x"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tb.Enabled(tt.code); got != tt.want {
				t.Errorf("Enabled(%s) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestParseCode(t *testing.T) {
	for _, c := range Codes() {
		if got, err := ParseCode(string(c)); err != nil || got != c {
			t.Errorf("ParseCode(%q) = %q, %v", c, got, err)
		}
		if c.Label() == "" {
			t.Errorf("%s has no label", c)
		}
	}
	if _, err := ParseCode("bringtofront"); err == nil {
		t.Error("codes are case sensitive")
	}
}
