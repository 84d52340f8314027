// Package metrics summarises the frames of a run.
package metrics

import (
	"image"
	"image/color"

	"github.com/san-kum/genlab/internal/engine"
)

type Metric interface {
	Name() string
	Observe(f *engine.Frame)
	Value() float64
	Reset()
}

// Standard returns the metrics recorded for every run.
func Standard() []Metric {
	return []Metric{NewCoverage(color.RGBA{255, 255, 255, 255}), NewLuminance(), NewChange()}
}

func ObserveAll(ms []Metric, f *engine.Frame) {
	if f == nil || f.Image == nil {
		return
	}
	for _, m := range ms {
		m.Observe(f)
	}
}

// Values collects the current value of each metric by name.
func Values(ms []Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}

func pixels(img *image.RGBA, fn func(c color.RGBA)) int {
	b := img.Bounds()
	n := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			p := img.Pix[off : off+4 : off+4]
			fn(color.RGBA{p[0], p[1], p[2], p[3]})
			off += 4
			n++
		}
	}
	return n
}
