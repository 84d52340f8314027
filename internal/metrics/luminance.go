package metrics

import (
	"image/color"

	"github.com/san-kum/genlab/internal/engine"
)

// Luminance is the mean Rec. 601 luma over all observed pixels, in [0,1].
type Luminance struct {
	name    string
	sum     float64
	samples int
}

func NewLuminance() *Luminance {
	return &Luminance{name: "luminance"}
}

func (l *Luminance) Name() string { return l.name }

func (l *Luminance) Observe(f *engine.Frame) {
	var total float64
	n := pixels(f.Image, func(p color.RGBA) {
		total += (0.299*float64(p.R) + 0.587*float64(p.G) + 0.114*float64(p.B)) / 255
	})
	if n == 0 {
		return
	}
	l.sum += total / float64(n)
	l.samples++
}

func (l *Luminance) Value() float64 {
	if l.samples == 0 {
		return 0
	}
	return l.sum / float64(l.samples)
}

func (l *Luminance) Reset() {
	l.sum = 0
	l.samples = 0
}
