package render

import (
	"github.com/matzehuels/gridcraft/pkg/geometry"
	"github.com/matzehuels/gridcraft/pkg/layer"
	"github.com/matzehuels/gridcraft/pkg/pointer"
)

// Background paints the alternating checkerboard of an XCells by YCells grid.
func Background(geom *geometry.Geometry) Painter {
	return func(g Graphics) {
		size := geom.CellSize()
		for x := 1; x < geom.XCells+1; x++ {
			for y := 1; y < geom.YCells+1; y++ {
				c := ColorGridOdd
				if (x+y)%2 == 0 {
					c = ColorGridEven
				}
				g.FillRect(float64(x-1)*size, float64(y-1)*size, size, size, c)
			}
		}
	}
}

// Foreground paints pointer feedback: the hovered cell while idle, or the
// rubber band from the drag anchor to the current cell while pressed.
func Foreground(geom *geometry.Geometry, p *pointer.Pointer) Painter {
	return func(g Graphics) {
		if !p.Inside() {
			return
		}
		size := geom.CellSize()
		cur := geom.NearestCellPosition(p.X, p.Y)

		if !p.IsPressed {
			g.FillRect(cur.X, cur.Y, size, size, ColorHover)
			return
		}
		if !p.HasStart() {
			return
		}
		start := geom.NearestCellPosition(p.StartX, p.StartY)
		g.FillRect(start.X, start.Y, cur.X-start.X+size, cur.Y-start.Y+size, ColorRubberBand)
	}
}

// Cells paints the layer's cells bottom to top, outlining the selection.
func Cells(geom *geometry.Geometry, l *layer.Layer) Painter {
	return func(g Graphics) {
		size := geom.CellSize()
		for _, c := range l.Stacked() {
			x := float64(c.Rect.X) * size
			y := float64(c.Rect.Y) * size
			w := float64(c.Rect.Width) * size
			h := float64(c.Rect.Height) * size

			g.FillRect(x, y, w, h, ColorCell)
			border := ColorCellBorder
			if c.Selected() {
				border = ColorSelected
			}
			g.StrokeRect(x, y, w, h, border)
			if c.Text != "" {
				g.Text(c.Text, x, y, w, h, ColorText)
			}
		}
	}
}
