package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/genlab/internal/gens/lsystem"
)

// TurtleToSVG draws turtle segments as one path on a white page of the
// given size. Consecutive segments that share an end point are joined.
func TurtleToSVG(segs []lsystem.Segment, width, height int, stroke string, lineWidth float64) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#ffffff"/>
`, width, height, width, height))

	if len(segs) == 0 {
		sb.WriteString("</svg>")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="%.1f" stroke-linecap="round" d="`, stroke, lineWidth))

	var px, py float64
	for i, s := range segs {
		if i == 0 || s.X0 != px || s.Y0 != py {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(fmt.Sprintf("M%.2f,%.2f", s.X0, s.Y0))
		}
		sb.WriteString(fmt.Sprintf(" L%.2f,%.2f", s.X1, s.Y1))
		px, py = s.X1, s.Y1
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// WriteSVG stores svg as <dir>/<name>.svg and returns the path.
func WriteSVG(dir, name, svg string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(name)+".svg")
	return path, os.WriteFile(path, []byte(svg), 0644)
}
