package render

import (
	"bytes"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"
)

// Raster is a [Graphics] backed by an RGBA image.
type Raster struct {
	dc *gg.Context
}

// NewRaster returns a transparent raster of width by height pixels.
// Sizes are rounded up to whole pixels.
func NewRaster(width, height float64) *Raster {
	w := int(math.Ceil(width))
	h := int(math.Ceil(height))
	return &Raster{dc: gg.NewContext(max(w, 1), max(h, 1))}
}

func (r *Raster) Size() (float64, float64) {
	return float64(r.dc.Width()), float64(r.dc.Height())
}

func (r *Raster) Clear() {
	r.dc.SetColor(color.Transparent)
	r.dc.Clear()
}

func (r *Raster) FillRect(x, y, width, height float64, c color.Color) {
	if width <= 0 || height <= 0 {
		return
	}
	r.dc.SetColor(c)
	r.dc.DrawRectangle(x, y, width, height)
	r.dc.Fill()
}

func (r *Raster) StrokeRect(x, y, width, height float64, c color.Color) {
	if width <= 0 || height <= 0 {
		return
	}
	r.dc.SetColor(c)
	r.dc.SetLineWidth(2)
	r.dc.DrawRectangle(x+1, y+1, width-2, height-2)
	r.dc.Stroke()
}

func (r *Raster) Text(s string, x, y, width, height float64, c color.Color) {
	r.dc.Push()
	defer r.dc.Pop()
	r.dc.DrawRectangle(x, y, width, height)
	r.dc.Clip()
	r.dc.SetColor(c)
	r.dc.DrawStringWrapped(s, x+width/2, y+height/2, 0.5, 0.5, width-4, 1.2, gg.AlignCenter)
}

// Image returns the underlying image.
func (r *Raster) Image() image.Image {
	return r.dc.Image()
}

// EncodePNG writes the raster as PNG.
func (r *Raster) EncodePNG(w io.Writer) error {
	return r.dc.EncodePNG(w)
}

// PNG returns the raster encoded as PNG.
func (r *Raster) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := r.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ComposeRaster draws layers bottom to top onto a new raster the size of the
// first layer.
func ComposeRaster(layers ...*Raster) *Raster {
	if len(layers) == 0 {
		return NewRaster(1, 1)
	}
	w, h := layers[0].Size()
	out := NewRaster(w, h)
	for _, l := range layers {
		out.dc.DrawImage(l.Image(), 0, 0)
	}
	return out
}
