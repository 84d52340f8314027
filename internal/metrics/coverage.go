package metrics

import (
	"image/color"

	"github.com/san-kum/genlab/internal/engine"
)

// Coverage is the mean share of pixels that differ from the background.
type Coverage struct {
	name       string
	background color.RGBA
	sum        float64
	samples    int
}

func NewCoverage(background color.RGBA) *Coverage {
	return &Coverage{name: "coverage", background: background}
}

func (c *Coverage) Name() string { return c.name }

func (c *Coverage) Observe(f *engine.Frame) {
	painted := 0
	n := pixels(f.Image, func(p color.RGBA) {
		if p != c.background {
			painted++
		}
	})
	if n == 0 {
		return
	}
	c.sum += float64(painted) / float64(n)
	c.samples++
}

func (c *Coverage) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *Coverage) Reset() {
	c.sum = 0
	c.samples = 0
}
