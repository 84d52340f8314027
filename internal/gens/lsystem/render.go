package lsystem

import (
	"math"

	"github.com/san-kum/genlab/internal/surface"
)

// StepLength is the unscaled length of one forward move.
const StepLength = 10.0

type turtle struct {
	x, y, alpha float64
}

// Bounds is the box of every coordinate the turtle visited.
type Bounds struct {
	MinX, MaxX, MinY, MaxY float64
}

// Layout places a traced word on a width×height canvas.
type Layout struct {
	Width, Height int
	Rotation      float64
	StartAngle    float64
	Scale         float64
	StartX        float64
	StartY        float64
}

// Segment is one stroked line in canvas coordinates.
type Segment struct {
	X0, Y0, X1, Y1 float64
}

// walk interprets word: +/- turn, [ and ] save and restore the turtle,
// X and Y do nothing and every other symbol moves forward drawing a line.
func walk(word string, start turtle, rotation, step float64, line func(x0, y0, x1, y1 float64)) {
	st := start
	var stack []turtle

	for _, ch := range word {
		switch ch {
		case '+':
			st.alpha = math.Mod(st.alpha+rotation, 360)
		case '-':
			st.alpha = math.Mod(st.alpha-rotation, 360)
		case '[':
			stack = append(stack, st)
		case ']':
			if n := len(stack); n > 0 {
				st = stack[n-1]
				stack = stack[:n-1]
			}
		case 'X', 'Y':
		default:
			rad := st.alpha * math.Pi / 180
			nx := st.x + step*math.Cos(rad)
			ny := st.y - step*math.Sin(rad)
			line(st.x, st.y, nx, ny)
			st.x, st.y = nx, ny
		}
	}
}

// Measure traces word unscaled from the bottom-left corner and records the
// bounding box of the path.
func Measure(word string, width, height int, rotation, startAngle float64) Bounds {
	h := float64(height)
	b := Bounds{MinX: 0, MaxX: 0, MinY: h, MaxY: h}
	walk(word, turtle{0, h, startAngle}, rotation, StepLength, func(_, _, x, y float64) {
		b.MinX = math.Min(b.MinX, x)
		b.MaxX = math.Max(b.MaxX, x)
		b.MinY = math.Min(b.MinY, y)
		b.MaxY = math.Max(b.MaxY, y)
	})
	return b
}

// Fit computes the uniform scale and start point that keep the whole path
// inside the canvas.
func Fit(b Bounds, width, height int, rotation, startAngle float64) Layout {
	w, h := float64(width), float64(height)
	dx, dy := math.Abs(b.MaxX-b.MinX), math.Abs(b.MaxY-b.MinY)

	scale := 1.0
	switch {
	case dx > 0 && dy > 0:
		scale = math.Min(w/dx, h/dy)
	case dx > 0:
		scale = w / dx
	case dy > 0:
		scale = h / dy
	}

	x, y := 0.0, h
	if b.MaxY > h {
		y -= (b.MaxY - h) * scale
	}
	if b.MinX < 0 {
		x += math.Abs(b.MinX) * scale
	}

	return Layout{
		Width:      width,
		Height:     height,
		Rotation:   rotation,
		StartAngle: startAngle,
		Scale:      scale,
		StartX:     math.Trunc(x),
		StartY:     math.Trunc(y),
	}
}

// Trace replays word under l and reports every segment.
func (l Layout) Trace(word string, line func(x0, y0, x1, y1 float64)) {
	walk(word, turtle{l.StartX, l.StartY, l.StartAngle}, l.Rotation, StepLength*l.Scale, line)
}

// Segments collects the traced path, for vector export.
func (l Layout) Segments(word string) []Segment {
	var segs []Segment
	l.Trace(word, func(x0, y0, x1, y1 float64) {
		segs = append(segs, Segment{x0, y0, x1, y1})
	})
	return segs
}

// Render draws word in two passes: the first measures the path, the second
// strokes it scaled to fit.
func Render(word string, width, height int, rotation, startAngle, lineWidth float64) (*surface.Canvas, Layout) {
	b := Measure(word, width, height, rotation, startAngle)
	layout := Fit(b, width, height, rotation, startAngle)

	c := surface.New(width, height)
	c.Fill(surface.White)
	pen := surface.NewPen(c, float32(lineWidth), surface.Black)
	layout.Trace(word, pen.Line)
	pen.Flush()

	return c, layout
}
