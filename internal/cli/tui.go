package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/gridcraft/internal/session"
	"github.com/matzehuels/gridcraft/pkg/designer"
	"github.com/matzehuels/gridcraft/pkg/errors"
	"github.com/matzehuels/gridcraft/pkg/pointer"
	"github.com/matzehuels/gridcraft/pkg/workspace"
)

// Editor styles
var (
	toolEnabledStyle  = lipgloss.NewStyle().Foreground(colorWhite)
	toolDisabledStyle = lipgloss.NewStyle().Foreground(colorDim)
	toolKeyStyle      = lipgloss.NewStyle().Foreground(colorCyan)
	statusStyle       = lipgloss.NewStyle().Foreground(colorGray)
	promptStyle       = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
)

// canvasTop is the screen row of the first grid row.
const canvasTop = 2

// promptWidth is the visible width of the footer input.
const promptWidth = 60

// editorKeyMap holds the key bindings of the editor.
type editorKeyMap struct {
	New, Undo, Redo, Remove, Front, Back key.Binding
	Font, Text, Image                    key.Binding
	Save, Write, Quit                    key.Binding
}

func newEditorKeyMap() editorKeyMap {
	return editorKeyMap{
		New:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Undo:   key.NewBinding(key.WithKeys("u", "ctrl+z"), key.WithHelp("u", "undo")),
		Redo:   key.NewBinding(key.WithKeys("r", "ctrl+y"), key.WithHelp("r", "redo")),
		Remove: key.NewBinding(key.WithKeys("x", "delete", "backspace"), key.WithHelp("x", "remove")),
		Front:  key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "front")),
		Back:   key.NewBinding(key.WithKeys("["), key.WithHelp("[", "back")),
		Font:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "font")),
		Text:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "text")),
		Image:  key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "image")),
		Save:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		Write:  key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "write")),
		Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// toolBinding pairs a key binding with the toolbar command it runs.
type toolBinding struct {
	binding key.Binding
	code    designer.Code
}

// tools returns the toolbar bindings in toolbar order.
func (k editorKeyMap) tools() []toolBinding {
	return []toolBinding{
		{k.New, designer.CodeNew},
		{k.Undo, designer.CodeUndo},
		{k.Redo, designer.CodeRedo},
		{k.Remove, designer.CodeRemove},
		{k.Front, designer.CodeBringToFront},
		{k.Back, designer.CodeSendToBack},
		{k.Font, designer.CodeSetFont},
		{k.Text, designer.CodeSetText},
		{k.Image, designer.CodeSetBackgroundImage},
	}
}

// ShortHelp implements help.KeyMap for the footer.
func (k editorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Save, k.Write, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k editorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.New, k.Undo, k.Redo},
		{k.Remove, k.Front, k.Back},
		{k.Font, k.Text, k.Image},
		k.ShortHelp(),
	}
}

// promptKeys are the bindings of an open prompt.
var promptKeys = struct {
	Accept, Cancel key.Binding
}{
	Accept: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "accept")),
	Cancel: key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "cancel")),
}

// confirmKeys are the bindings of an open confirmation.
var confirmKeys = struct {
	Yes key.Binding
}{
	Yes: key.NewBinding(key.WithKeys("y", "Y", "enter"), key.WithHelp("y", "confirm")),
}

// =============================================================================
// EditorModel - Interactive grid editor
// =============================================================================

type editorMode int

const (
	modeNormal editorMode = iota
	modePrompt
	modeConfirm
)

// pendingInput is an open prompt or confirmation. Exactly one of code and
// save is set.
type pendingInput struct {
	label string
	field textinput.Model
	code  designer.Code
	save  bool
}

// EditorModel is the bubbletea model for the terminal editor.
type EditorModel struct {
	ctx      context.Context
	sessions *session.Manager
	doc      *session.Document
	prompts  designer.Prompts

	// Name is the snapshot name used by save.
	Name string
	// File receives the exported markup on write. Empty disables write.
	File string

	keys    editorKeyMap
	help    help.Model
	mode    editorMode
	input   pendingInput
	message string
	failed  bool
}

// NewEditorModel creates an editor for doc.
func NewEditorModel(ctx context.Context, sessions *session.Manager, doc *session.Document, prompts designer.Prompts) EditorModel {
	return EditorModel{
		ctx:      ctx,
		sessions: sessions,
		doc:      doc,
		prompts:  prompts,
		Name:     "untitled",
		keys:     newEditorKeyMap(),
		help:     help.New(),
	}
}

func (m EditorModel) Init() tea.Cmd {
	return nil
}

func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.mode {
		case modePrompt:
			return m.updatePrompt(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		}
		return m.updateNormal(msg)
	case tea.MouseMsg:
		m.pointer(msg)
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	default:
		if m.mode == modePrompt {
			var cmd tea.Cmd
			m.input.field, cmd = m.input.field.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m EditorModel) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Save):
		cmd := m.openPrompt("Name:", m.Name, "", true)
		return m, cmd
	case key.Matches(msg, m.keys.Write):
		m.write()
		return m, nil
	}

	for _, tb := range m.keys.tools() {
		if !key.Matches(msg, tb.binding) {
			continue
		}
		m.message = ""
		if !m.toolbar().Enabled(tb.code) {
			return m, nil
		}
		var cmd tea.Cmd
		switch tb.code {
		case designer.CodeNew:
			m.mode = modeConfirm
			m.input = pendingInput{label: designer.MessageNewDocument, code: tb.code}
		case designer.CodeSetFont:
			cmd = m.openPrompt(designer.MessageFont, m.prompts.Font, tb.code, false)
		case designer.CodeSetText:
			cmd = m.openPrompt(designer.MessageText, m.prompts.Text, tb.code, false)
		case designer.CodeSetBackgroundImage:
			cmd = m.openPrompt(designer.MessageBackgroundImage, m.prompts.BackgroundImage, tb.code, false)
		default:
			m.dispatch(designer.StaticHost{}, tb.code)
		}
		return m, cmd
	}
	return m, nil
}

// openPrompt focuses a footer input prefilled with def.
func (m *EditorModel) openPrompt(label, def string, code designer.Code, save bool) tea.Cmd {
	field := textinput.New()
	field.Prompt = label + " "
	field.PromptStyle = promptStyle
	field.TextStyle = StyleValue
	field.Width = promptWidth
	field.SetValue(def)
	field.CursorEnd()

	m.mode = modePrompt
	m.input = pendingInput{label: label, field: field, code: code, save: save}
	return m.input.field.Focus()
}

func (m EditorModel) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, promptKeys.Cancel):
		m.mode = modeNormal
		return m, nil
	case key.Matches(msg, promptKeys.Accept):
		m.mode = modeNormal
		value := m.input.field.Value()
		if m.input.save {
			m.save(value)
			return m, nil
		}
		if value != "" {
			m.dispatch(designer.StaticHost{Value: value}, m.input.code)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input.field, cmd = m.input.field.Update(msg)
	return m, cmd
}

func (m EditorModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeNormal
	if key.Matches(msg, confirmKeys.Yes) {
		m.dispatch(designer.StaticHost{Confirmed: true}, m.input.code)
	}
	return m, nil
}

// pointer forwards a mouse event to the workspace in surface pixels.
func (m *EditorModel) pointer(msg tea.MouseMsg) {
	m.doc.Do(func(d *designer.Designer) error {
		ws := d.Workspace()
		if ws == nil {
			return nil
		}
		x, y, inside := surfacePoint(ws, msg.X, msg.Y)
		switch {
		case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
			if inside {
				return d.Pointer(pointer.Press, x, y)
			}
		case msg.Action == tea.MouseActionRelease:
			return d.Pointer(pointer.Release, x, y)
		case msg.Action == tea.MouseActionMotion:
			if inside {
				return d.Pointer(pointer.Move, x, y)
			}
			return d.Pointer(pointer.Leave, x, y)
		}
		return nil
	})
}

// surfacePoint maps a screen cell to the centre of the surface pixels it
// covers. inside reports whether the cell lies on the grid.
func surfacePoint(ws *workspace.Workspace, col, row int) (x, y float64, inside bool) {
	row -= canvasTop
	g := ws.Geometry
	cols := g.XCells * workspace.TerminalCellColumns
	inside = col >= 0 && row >= 0 && col < cols && row < g.YCells
	x = float64(col) + 0.5
	y = float64(row*workspace.TerminalCellColumns) + 1
	return x, y, inside
}

func (m *EditorModel) dispatch(host designer.Host, code designer.Code) {
	err := m.doc.Do(func(d *designer.Designer) error { return d.DispatchWith(host, code) })
	m.report(err, "")
}

func (m *EditorModel) save(name string) {
	snap, err := m.sessions.Save(m.ctx, m.doc.ID, name)
	if err != nil {
		m.report(err, "")
		return
	}
	m.Name = snap.Name
	m.report(nil, fmt.Sprintf("Saved %s (%s)", snap.Name, snap.ID))
}

func (m *EditorModel) write() {
	if m.File == "" {
		m.report(errors.New(errors.ErrCodeInvalidInput, "no markup file; start the editor with a file argument"), "")
		return
	}
	var html string
	err := m.doc.Do(func(d *designer.Designer) error {
		var ok bool
		if html, ok = d.Markup(); !ok {
			return errors.New(errors.ErrCodeNoDocument, "no document is open")
		}
		return nil
	})
	if err == nil {
		err = os.WriteFile(m.File, []byte(html+"\n"), 0o644)
	}
	m.report(err, "Wrote "+m.File)
}

func (m *EditorModel) report(err error, ok string) {
	if err != nil {
		m.message = errors.UserMessage(err)
		m.failed = true
		return
	}
	m.message = ok
	m.failed = false
}

func (m EditorModel) toolbar() designer.Toolbar {
	var tb designer.Toolbar
	m.doc.Do(func(d *designer.Designer) error {
		tb = d.Toolbar()
		return nil
	})
	return tb
}

func (m EditorModel) View() string {
	var (
		canvas, status string
		xCells, yCells int
		cells          int
	)
	m.doc.Do(func(d *designer.Designer) error {
		status = d.Status()
		if ws := d.Workspace(); ws != nil {
			canvas = ws.ComposeTerminal().Render()
			xCells, yCells = ws.Layer.Grid()
			cells = ws.Layer.Len()
		}
		return nil
	})

	var b strings.Builder
	b.WriteString(StyleTitle.Render(appName))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %s · %dx%d · %d cells", m.Name, xCells, yCells, cells)))
	b.WriteString("\n")
	b.WriteString(m.toolbarView())
	b.WriteString("\n")
	b.WriteString(canvas)
	b.WriteString("\n")

	switch m.mode {
	case modePrompt:
		b.WriteString(m.input.field.View())
		b.WriteString("\n")
		b.WriteString(m.help.ShortHelpView([]key.Binding{promptKeys.Accept, promptKeys.Cancel}))
	case modeConfirm:
		b.WriteString(promptStyle.Render(m.input.label) + StyleDim.Render(" [y/N]"))
		b.WriteString("\n")
	default:
		b.WriteString(statusStyle.Render(status))
		if m.message != "" {
			style := StyleHighlight
			if m.failed {
				style = StyleError
			}
			b.WriteString("  " + style.Render(m.message))
		}
		b.WriteString("\n")
		b.WriteString(StyleDim.Render("drag draw • click select • "))
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}

// toolbarView renders the toolbar groups with their keys, dimming disabled
// buttons.
func (m EditorModel) toolbarView() string {
	tb := m.toolbar()
	var groups [4][]string
	for _, tk := range m.keys.tools() {
		style := toolEnabledStyle
		if !tb.Enabled(tk.code) {
			style = toolDisabledStyle
		}
		btn := toolKeyStyle.Render(tk.binding.Help().Key) + " " + style.Render(tk.code.Label())
		g := tk.code.Group()
		groups[g] = append(groups[g], btn)
	}
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		parts = append(parts, strings.Join(g, "  "))
	}
	return strings.Join(parts, StyleDim.Render("  │  "))
}
