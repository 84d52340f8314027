package export

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"

	"github.com/san-kum/genlab/internal/engine"
)

// PNG writes frames as <Dir>/<name>.png, upscaled by Scale.
type PNG struct {
	Dir   string
	Scale int
}

func NewPNG(dir string, scale int) *PNG {
	return &PNG{Dir: dir, Scale: scale}
}

func (p *PNG) Path(name string) string {
	return filepath.Join(p.Dir, FileName(name)+".png")
}

func (p *PNG) Export(f *engine.Frame, name string) error {
	if f == nil || f.Image == nil {
		return fmt.Errorf("export %s: empty frame", name)
	}
	if err := os.MkdirAll(p.Dir, 0755); err != nil {
		return err
	}
	return imgio.Save(p.Path(name), Scale(f.Image, p.Scale), imgio.PNGEncoder())
}

// Scale enlarges img by an integer factor without smoothing, so cells stay
// crisp. Factors below two return img unchanged.
func Scale(img image.Image, factor int) image.Image {
	if factor < 2 {
		return img
	}
	b := img.Bounds()
	return transform.Resize(img, b.Dx()*factor, b.Dy()*factor, transform.NearestNeighbor)
}

// Fit shrinks img so neither side exceeds maxSide, keeping the aspect
// ratio. Smaller images are returned unchanged.
func Fit(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	longest := max(b.Dx(), b.Dy())
	if maxSide <= 0 || longest <= maxSide {
		return img
	}
	w := max(1, b.Dx()*maxSide/longest)
	h := max(1, b.Dy()*maxSide/longest)
	return transform.Resize(img, w, h, transform.Linear)
}

// EncodePNG returns the PNG bytes of img.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imgio.PNGEncoder()(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileName replaces path separators and spaces so labels and preset names
// are safe as file names.
func FileName(name string) string {
	r := strings.NewReplacer("/", "_", `\`, "_", " ", "_", ":", "_")
	name = r.Replace(strings.TrimSpace(name))
	if name == "" {
		return "frame"
	}
	return name
}
