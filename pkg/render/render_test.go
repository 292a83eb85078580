package render

import (
	"bytes"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/matzehuels/gridcraft/pkg/geometry"
	"github.com/matzehuels/gridcraft/pkg/layer"
	"github.com/matzehuels/gridcraft/pkg/pointer"
)

type fillCall struct {
	x, y, w, h float64
	c          color.Color
}

// recording is a Graphics that logs its calls.
type recording struct {
	clears  int
	fills   []fillCall
	strokes []fillCall
	texts   []string
}

func (r *recording) Size() (float64, float64) { return 100, 100 }
func (r *recording) Clear()                    { r.clears++; r.fills, r.strokes, r.texts = nil, nil, nil }
func (r *recording) FillRect(x, y, w, h float64, c color.Color) {
	r.fills = append(r.fills, fillCall{x, y, w, h, c})
}
func (r *recording) StrokeRect(x, y, w, h float64, c color.Color) {
	r.strokes = append(r.strokes, fillCall{x, y, w, h, c})
}
func (r *recording) Text(s string, x, y, w, h float64, c color.Color) { r.texts = append(r.texts, s) }

func TestCanvasInvalidate(t *testing.T) {
	g := &recording{}
	paints := 0
	c := NewCanvas(g, func(Graphics) { paints++ })

	if g.clears != 1 || paints != 1 {
		t.Fatalf("NewCanvas: clears=%d paints=%d, want 1 1", g.clears, paints)
	}
	c.Invalidate()
	if g.clears != 2 || paints != 2 || c.Invalidations() != 2 {
		t.Errorf("Invalidate: clears=%d paints=%d invalidations=%d", g.clears, paints, c.Invalidations())
	}

	g2 := &recording{}
	c.Resize(g2)
	if c.Graphics() != g2 || g2.clears != 1 || paints != 3 {
		t.Error("Resize should swap backends and repaint")
	}
}

func TestBackgroundCheckerboard(t *testing.T) {
	geom := geometry.New(4, 3, 40, 30, 1)
	g := &recording{}
	NewCanvas(g, Background(geom))

	if len(g.fills) != 12 {
		t.Fatalf("got %d fills, want 12", len(g.fills))
	}
	first := g.fills[0]
	if first.x != 0 || first.y != 0 || first.w != 10 || first.c != ColorGridEven {
		t.Errorf("first fill = %+v, want even cell at origin", first)
	}
	if g.fills[1].c != ColorGridOdd {
		t.Error("neighbouring cells should alternate")
	}
}

func TestForeground(t *testing.T) {
	geom := geometry.New(10, 10, 100, 100, 1)

	tests := []struct {
		name  string
		input func(*pointer.Pointer)
		want  []fillCall
	}{
		{"outside", func(p *pointer.Pointer) {}, nil},
		{"hover", func(p *pointer.Pointer) { p.Move(25, 35) },
			[]fillCall{{20, 30, 10, 10, ColorHover}}},
		{"rubber band", func(p *pointer.Pointer) { p.Press(5, 5); p.Move(25, 35) },
			[]fillCall{{0, 0, 30, 40, ColorRubberBand}}},
		{"left while pressed keeps band", func(p *pointer.Pointer) { p.Press(5, 5); p.Move(15, 15); p.Leave() },
			[]fillCall{{0, 0, 20, 20, ColorRubberBand}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := pointer.New(geom)
			tt.input(p)
			g := &recording{}
			NewCanvas(g, Foreground(geom, p))

			if len(g.fills) != len(tt.want) {
				t.Fatalf("fills = %+v, want %+v", g.fills, tt.want)
			}
			for i := range tt.want {
				if g.fills[i] != tt.want[i] {
					t.Errorf("fill[%d] = %+v, want %+v", i, g.fills[i], tt.want[i])
				}
			}
		})
	}
}

func TestCellsPaintsInZOrder(t *testing.T) {
	geom := geometry.New(10, 10, 100, 100, 1)
	l := layer.New(10, 10)
	l.Create(geometry.Rect{X: 0, Y: 0, Width: 2, Height: 2})
	b := l.Create(geometry.Rect{X: 1, Y: 1, Width: 2, Height: 2})
	b.Text = "hi"
	l.SendToBack(b)

	g := &recording{}
	NewCanvas(g, Cells(geom, l))

	if len(g.fills) != 2 {
		t.Fatalf("got %d fills, want 2", len(g.fills))
	}
	if g.fills[0].x != 10 || g.fills[1].x != 0 {
		t.Errorf("b (sent to back) should be painted first: %+v", g.fills)
	}
	if g.strokes[0].c != ColorSelected {
		t.Error("selected cell should be outlined with the selection colour")
	}
	if len(g.texts) != 1 || g.texts[0] != "hi" {
		t.Errorf("texts = %v", g.texts)
	}
}

func TestRasterPNG(t *testing.T) {
	r := NewRaster(20, 10)
	r.FillRect(0, 0, 10, 10, ColorSelected)

	data, err := r.PNG()
	if err != nil {
		t.Fatalf("PNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 10 {
		t.Errorf("bounds = %v, want 20x10", b)
	}
	if _, _, _, a := img.At(15, 5).RGBA(); a != 0 {
		t.Error("unpainted area should stay transparent")
	}
	if got := Hex(img.At(5, 5)); got != "#0096fa" {
		t.Errorf("painted pixel = %s, want #0096fa", got)
	}
}

func TestComposeRaster(t *testing.T) {
	bottom := NewRaster(10, 10)
	bottom.FillRect(0, 0, 10, 10, ColorGridEven)
	top := NewRaster(10, 10)
	top.FillRect(0, 0, 5, 10, ColorSelected)

	out := ComposeRaster(bottom, top).Image()
	if Hex(out.At(2, 2)) != "#0096fa" || Hex(out.At(8, 2)) != "#fafafa" {
		t.Error("top layer should cover bottom only where painted")
	}
}

func TestTerminal(t *testing.T) {
	// 4x2 grid, two columns and one row per grid cell.
	term := NewTerminal(8, 2, 1, 2)
	if w, h := term.Size(); w != 8 || h != 4 {
		t.Fatalf("Size() = %v, %v", w, h)
	}

	term.FillRect(2, 0, 4, 2, ColorCell)
	term.StrokeRect(2, 0, 4, 2, ColorSelected)
	got := strings.Split(term.Plain(), "\n")
	if got[0] != "  [  ]  " {
		t.Errorf("row 0 = %q", got[0])
	}

	term.Clear()
	term.Text("hello", 0, 2, 8, 2, ColorText)
	if got := strings.Split(term.Plain(), "\n")[1]; got != " hello  " {
		t.Errorf("row 1 = %q", got)
	}
	if !strings.Contains(term.Render(), "hello") {
		t.Error("Render should contain the text")
	}
}

func TestComposeTerminal(t *testing.T) {
	bg := NewTerminal(4, 1, 1, 1)
	bg.FillRect(0, 0, 4, 1, ColorGridEven)
	fg := NewTerminal(4, 1, 1, 1)
	fg.Text("ab", 0, 0, 2, 1, ColorText)

	out := ComposeTerminal(bg, fg)
	if got := out.Plain(); got != "ab  " {
		t.Errorf("Plain() = %q", got)
	}
	if out.buf[0].bg != ColorGridEven {
		t.Error("text without background should keep the lower background")
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"#0096fa", color.RGBA{0x00, 0x96, 0xfa, 0xff}, false},
		{"#fff", color.RGBA{0xff, 0xff, 0xff, 0xff}, false},
		{"blue", color.RGBA{}, true},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseHex(%q) err = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseHex(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
