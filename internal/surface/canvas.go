// Package surface is the pixel buffer every generator draws into.
//
// A [Canvas] wraps an *image.RGBA. Cells are stamped as rectangles or discs,
// turtle paths are stroked with a [Pen]. Once a canvas has been published
// through the engine it belongs to the consumer and must not be drawn on
// again; generators allocate a fresh canvas for every frame.
package surface

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"golang.org/x/image/vector"
)

var (
	White = color.RGBA{255, 255, 255, 255}
	Black = color.RGBA{0, 0, 0, 255}
)

type Canvas struct {
	img *image.RGBA
}

func New(width, height int) *Canvas {
	return &Canvas{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

func (c *Canvas) Image() *image.RGBA { return c.img }
func (c *Canvas) Width() int         { return c.img.Bounds().Dx() }
func (c *Canvas) Height() int        { return c.img.Bounds().Dy() }

func (c *Canvas) Fill(col color.RGBA) {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
}

func (c *Canvas) Set(x, y int, col color.RGBA) {
	c.img.SetRGBA(x, y, col)
}

func (c *Canvas) At(x, y int) color.RGBA {
	return c.img.RGBAAt(x, y)
}

// FillRect paints the w×h block whose top-left corner is (x, y).
func (c *Canvas) FillRect(x, y, w, h int, col color.RGBA) {
	r := image.Rect(x, y, x+w, y+h).Intersect(c.img.Bounds())
	if r.Empty() {
		return
	}
	if w == 1 && h == 1 {
		c.img.SetRGBA(x, y, col)
		return
	}
	draw.Draw(c.img, r, image.NewUniform(col), image.Point{}, draw.Src)
}

// FillDisc paints the disc inscribed in the size×size square at (x, y).
func (c *Canvas) FillDisc(x, y, size int, col color.RGBA) {
	if size <= 2 {
		c.FillRect(x, y, size, size, col)
		return
	}
	mask := discMask(size)
	r := image.Rect(x, y, x+size, y+size)
	draw.DrawMask(c.img, r, image.NewUniform(col), image.Point{}, mask, image.Point{}, draw.Over)
}

var discMasks sync.Map

// kappa places cubic control points so four curves approximate a circle.
const kappa = 0.5522847498

func discMask(size int) *image.Alpha {
	if m, ok := discMasks.Load(size); ok {
		return m.(*image.Alpha)
	}

	r := float32(size) / 2
	k := r * kappa
	z := vector.NewRasterizer(size, size)
	z.MoveTo(r, 0)
	z.CubeTo(r+k, 0, 2*r, r-k, 2*r, r)
	z.CubeTo(2*r, r+k, r+k, 2*r, r, 2*r)
	z.CubeTo(r-k, 2*r, 0, r+k, 0, r)
	z.CubeTo(0, r-k, r-k, 0, r, 0)
	z.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, size, size))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	m, _ := discMasks.LoadOrStore(size, mask)
	return m.(*image.Alpha)
}
