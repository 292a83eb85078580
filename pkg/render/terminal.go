package render

import (
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type glyph struct {
	ch rune
	fg color.Color
	bg color.Color
}

// Terminal is a [Graphics] backed by a character grid. Each column spans
// xScale pixels and each row yScale pixels, so a grid cell of size s covers
// s/xScale columns and s/yScale rows.
type Terminal struct {
	cols, rows     int
	xScale, yScale float64
	buf            []glyph
}

// NewTerminal returns an empty cols by rows surface.
func NewTerminal(cols, rows int, xScale, yScale float64) *Terminal {
	cols, rows = max(cols, 1), max(rows, 1)
	if xScale <= 0 {
		xScale = 1
	}
	if yScale <= 0 {
		yScale = 1
	}
	return &Terminal{
		cols:   cols,
		rows:   rows,
		xScale: xScale,
		yScale: yScale,
		buf:    make([]glyph, cols*rows),
	}
}

func (t *Terminal) Size() (float64, float64) {
	return float64(t.cols) * t.xScale, float64(t.rows) * t.yScale
}

// Dimensions returns the surface size in columns and rows.
func (t *Terminal) Dimensions() (cols, rows int) {
	return t.cols, t.rows
}

func (t *Terminal) Clear() {
	clear(t.buf)
}

func (t *Terminal) FillRect(x, y, width, height float64, c color.Color) {
	c0, r0, c1, r1 := t.span(x, y, width, height)
	for r := r0; r < r1; r++ {
		for col := c0; col < c1; col++ {
			t.buf[r*t.cols+col] = glyph{ch: ' ', bg: c}
		}
	}
}

func (t *Terminal) StrokeRect(x, y, width, height float64, c color.Color) {
	c0, r0, c1, r1 := t.span(x, y, width, height)
	if c1-c0 < 1 || r1-r0 < 1 {
		return
	}
	if r1-r0 < 2 || c1-c0 < 2 {
		t.set(c0, r0, '[', c)
		t.set(c1-1, r0, ']', c)
		return
	}
	for col := c0 + 1; col < c1-1; col++ {
		t.set(col, r0, '─', c)
		t.set(col, r1-1, '─', c)
	}
	for r := r0 + 1; r < r1-1; r++ {
		t.set(c0, r, '│', c)
		t.set(c1-1, r, '│', c)
	}
	t.set(c0, r0, '┌', c)
	t.set(c1-1, r0, '┐', c)
	t.set(c0, r1-1, '└', c)
	t.set(c1-1, r1-1, '┘', c)
}

func (t *Terminal) Text(s string, x, y, width, height float64, c color.Color) {
	c0, r0, c1, r1 := t.span(x, y, width, height)
	if c1-c0 >= 3 {
		c0, c1 = c0+1, c1-1
	}
	if c1 <= c0 || r1 <= r0 {
		return
	}
	row := r0 + (r1-r0-1)/2
	col := c0
	for _, ch := range s {
		if col >= c1 {
			break
		}
		if ch == '\n' || ch == '\t' {
			ch = ' '
		}
		t.set(col, row, ch, c)
		col++
	}
}

// set writes a foreground rune, keeping the background underneath.
func (t *Terminal) set(col, row int, ch rune, c color.Color) {
	if col < 0 || row < 0 || col >= t.cols || row >= t.rows {
		return
	}
	g := &t.buf[row*t.cols+col]
	g.ch = ch
	g.fg = c
}

// span converts a pixel rectangle to a clipped, half-open column/row range.
func (t *Terminal) span(x, y, width, height float64) (c0, r0, c1, r1 int) {
	c0 = clamp(int(math.Round(x/t.xScale)), 0, t.cols)
	r0 = clamp(int(math.Round(y/t.yScale)), 0, t.rows)
	c1 = clamp(int(math.Round((x+width)/t.xScale)), 0, t.cols)
	r1 = clamp(int(math.Round((y+height)/t.yScale)), 0, t.rows)
	return
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// Plain returns the surface as text without styling.
func (t *Terminal) Plain() string {
	var b strings.Builder
	for r := 0; r < t.rows; r++ {
		if r > 0 {
			b.WriteByte('\n')
		}
		for col := 0; col < t.cols; col++ {
			ch := t.buf[r*t.cols+col].ch
			if ch == 0 {
				ch = ' '
			}
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// Render returns the surface as lipgloss-styled lines.
func (t *Terminal) Render() string {
	styles := make(map[[2]string]lipgloss.Style)
	styleFor := func(g glyph) lipgloss.Style {
		key := [2]string{colorKey(g.fg), colorKey(g.bg)}
		if s, ok := styles[key]; ok {
			return s
		}
		s := lipgloss.NewStyle()
		if g.fg != nil {
			s = s.Foreground(lipgloss.Color(key[0]))
		}
		if g.bg != nil {
			s = s.Background(lipgloss.Color(key[1]))
		}
		styles[key] = s
		return s
	}

	lines := make([]string, t.rows)
	for r := 0; r < t.rows; r++ {
		var line, run strings.Builder
		var runStyle glyph
		flush := func() {
			if run.Len() > 0 {
				line.WriteString(styleFor(runStyle).Render(run.String()))
				run.Reset()
			}
		}
		for col := 0; col < t.cols; col++ {
			g := t.buf[r*t.cols+col]
			if run.Len() > 0 && (colorKey(g.fg) != colorKey(runStyle.fg) || colorKey(g.bg) != colorKey(runStyle.bg)) {
				flush()
			}
			runStyle = g
			if g.ch == 0 {
				run.WriteByte(' ')
			} else {
				run.WriteRune(g.ch)
			}
		}
		flush()
		lines[r] = line.String()
	}
	return strings.Join(lines, "\n")
}

func colorKey(c color.Color) string {
	if c == nil {
		return ""
	}
	return Hex(c)
}

// ComposeTerminal stacks layers bottom to top. A glyph without background
// keeps the background of the layers below it.
func ComposeTerminal(layers ...*Terminal) *Terminal {
	if len(layers) == 0 {
		return NewTerminal(1, 1, 1, 1)
	}
	base := layers[0]
	out := NewTerminal(base.cols, base.rows, base.xScale, base.yScale)
	for _, l := range layers {
		for i := range min(len(l.buf), len(out.buf)) {
			g := l.buf[i]
			switch {
			case g.bg != nil:
				out.buf[i] = g
			case g.ch != 0:
				out.buf[i].ch = g.ch
				out.buf[i].fg = g.fg
			}
		}
	}
	return out
}
