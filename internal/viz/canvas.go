package viz

import (
	"image"
	"image/color"
	"strings"
)

const brailleBase = 0x2800

// dotBit maps a sub-cell position (row 0..3, column 0..1) to its Braille
// dot. Dots 1-3 and 4-6 fill the columns top down, 7 and 8 sit at the
// bottom.
var dotBit = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas is a grid of Braille cells, each holding 2x4 dots.
type Canvas struct {
	Width, Height int
	cells         []uint8
}

func NewCanvas(w, h int) *Canvas {
	return &Canvas{Width: w, Height: h, cells: make([]uint8, w*h)}
}

// Set lights the dot at (x, y) in dot coordinates, which span
// (Width*2) x (Height*4). Points outside are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 || x >= c.Width*2 || y >= c.Height*4 {
		return
	}
	c.cells[(y/4)*c.Width+x/2] |= dotBit[y%4][x%2]
}

// Cell returns the Braille rune at cell (col, row).
func (c *Canvas) Cell(col, row int) rune {
	return brailleBase + rune(c.cells[row*c.Width+col])
}

func (c *Canvas) Clear() {
	clear(c.cells)
}

// DrawImage samples img onto the dot grid, stretching it to fit, and lights
// every dot whose pixel is darker than threshold (luma in [0,1]).
func (c *Canvas) DrawImage(img image.Image, threshold float64) {
	c.Clear()
	if img == nil || img.Bounds().Empty() {
		return
	}
	b := img.Bounds()
	dw, dh := c.Width*2, c.Height*4
	for y := 0; y < dh; y++ {
		iy := b.Min.Y + y*b.Dy()/dh
		for x := 0; x < dw; x++ {
			if luma(img.At(b.Min.X+x*b.Dx()/dw, iy)) < threshold {
				c.Set(x, y)
			}
		}
	}
}

func luma(col color.Color) float64 {
	r, g, b, _ := col.RGBA()
	return (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 0xffff
}

func (c *Canvas) String() string {
	var b strings.Builder
	b.Grow(c.Height * (c.Width*3 + 1))
	for row := 0; row < c.Height; row++ {
		for col := 0; col < c.Width; col++ {
			b.WriteRune(c.Cell(col, row))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
