package metrics

import (
	"bytes"
	"image"

	"github.com/san-kum/genlab/internal/engine"
)

// Change is the mean share of pixels that differ between consecutive
// frames. Frames of another size restart the comparison.
type Change struct {
	name    string
	prev    *image.RGBA
	sum     float64
	samples int
}

func NewChange() *Change {
	return &Change{name: "change"}
}

func (c *Change) Name() string { return c.name }

func (c *Change) Observe(f *engine.Frame) {
	cur := f.Image
	if c.prev != nil && c.prev.Bounds() == cur.Bounds() {
		changed, n := 0, len(cur.Pix)/4
		for i := 0; i < len(cur.Pix); i += 4 {
			if !bytes.Equal(cur.Pix[i:i+4], c.prev.Pix[i:i+4]) {
				changed++
			}
		}
		if n > 0 {
			c.sum += float64(changed) / float64(n)
			c.samples++
		}
	}
	c.prev = cur
}

func (c *Change) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *Change) Reset() {
	c.prev = nil
	c.sum = 0
	c.samples = 0
}
