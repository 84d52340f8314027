package surface

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/vector"
)

// Pen accumulates line segments and composites them onto a canvas in one
// pass on Flush. Every segment is emitted as a quad with the same winding so
// overlapping strokes saturate instead of cancelling.
type Pen struct {
	canvas *Canvas
	z      *vector.Rasterizer
	half   float32
	col    color.RGBA
	dirty  bool
}

func NewPen(c *Canvas, width float32, col color.RGBA) *Pen {
	if width <= 0 {
		width = 1
	}
	return &Pen{
		canvas: c,
		z:      vector.NewRasterizer(c.Width(), c.Height()),
		half:   width / 2,
		col:    col,
	}
}

func (p *Pen) Line(x0, y0, x1, y1 float64) {
	dx, dy := x1-x0, y1-y0
	l := math.Hypot(dx, dy)
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return
	}
	nx := float32(-dy/l) * p.half
	ny := float32(dx/l) * p.half
	ax, ay := float32(x0), float32(y0)
	bx, by := float32(x1), float32(y1)

	p.z.MoveTo(ax+nx, ay+ny)
	p.z.LineTo(bx+nx, by+ny)
	p.z.LineTo(bx-nx, by-ny)
	p.z.LineTo(ax-nx, ay-ny)
	p.z.ClosePath()
	p.dirty = true
}

// Flush draws the pending segments and resets the pen.
func (p *Pen) Flush() {
	if !p.dirty {
		return
	}
	img := p.canvas.Image()
	p.z.Draw(img, img.Bounds(), image.NewUniform(p.col), image.Point{})
	p.z.Reset(p.canvas.Width(), p.canvas.Height())
	p.dirty = false
}
