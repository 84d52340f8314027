package viz

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/genlab/internal/config"
	"github.com/san-kum/genlab/internal/engine"
	"github.com/san-kum/genlab/internal/experiment"
)

func filled(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func TestCanvasDrawImage(t *testing.T) {
	c := NewCanvas(4, 2)
	c.DrawImage(filled(16, 16, color.Black), 0.5)
	for row := 0; row < c.Height; row++ {
		for col := 0; col < c.Width; col++ {
			if r := c.Cell(col, row); r != 0x28FF {
				t.Fatalf("black image left cell %U", r)
			}
		}
	}

	c.DrawImage(filled(16, 16, color.White), 0.5)
	if strings.ContainsFunc(c.String(), func(r rune) bool { return r != 0x2800 && r != '\n' }) {
		t.Fatal("white image set a dot")
	}
}

func TestCanvasDrawImageLeftHalf(t *testing.T) {
	img := filled(8, 8, color.White)
	draw.Draw(img, image.Rect(0, 0, 4, 8), &image.Uniform{C: color.Black}, image.Point{}, draw.Src)

	c := NewCanvas(2, 1)
	c.DrawImage(img, 0.5)
	if c.Cell(0, 0) != 0x28FF {
		t.Errorf("left cell = %U, want full", c.Cell(0, 0))
	}
	if c.Cell(1, 0) != 0x2800 {
		t.Errorf("right cell = %U, want empty", c.Cell(1, 0))
	}
}

func TestStatusPercent(t *testing.T) {
	tests := []struct {
		status string
		want   float64
		ok     bool
	}{
		{"Calculating Randomized Function Tree Image 40 %", 0.4, true},
		{"[2/6] Calculating Randomized Function Tree Image 100 %", 1, true},
		{"Generation 12", 0, false},
		{"Rendering 250 %", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := statusPercent(tt.status)
		if ok != tt.ok || got != tt.want {
			t.Errorf("statusPercent(%q) = %v, %v; want %v, %v", tt.status, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNextThemeCycles(t *testing.T) {
	defer SetTheme(CurrentTheme.Name)
	SetTheme(Themes[0].Name)
	for i := 1; i <= len(Themes); i++ {
		NextTheme()
		if want := Themes[i%len(Themes)].Name; CurrentTheme.Name != want {
			t.Fatalf("step %d: theme %s, want %s", i, CurrentTheme.Name, want)
		}
	}
	if GetTheme("nope").Name != ThemePetri.Name {
		t.Error("unknown theme should fall back to the default")
	}
}

type oneFrame struct{}

func (oneFrame) Name() string { return "one" }

func (oneFrame) Generate(ctx context.Context, out engine.Output) error {
	out.Publish(ctx, &engine.Frame{
		Image:   filled(4, 4, color.Black),
		Seq:     1,
		Label:   "one",
		Metrics: map[string]float64{"coverage": 1},
	})
	return nil
}

func TestModelPausedFrameWaits(t *testing.T) {
	eng := engine.New(oneFrame{})
	defer eng.Close()
	m := NewModel(eng)
	defer m.quit()

	if err := eng.Start(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-eng.Frames():
	case <-time.After(2 * time.Second):
		t.Fatal("no frame offered")
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m = next.(Model)
	if !m.paused {
		t.Fatal("space did not pause")
	}
	next, _ = m.Update(frameReadyMsg{})
	m = next.(Model)
	if m.frames != 0 || !m.waiting {
		t.Fatalf("paused model took a frame: frames=%d waiting=%v", m.frames, m.waiting)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m = next.(Model)
	if m.frames != 1 || m.frame.Label != "one" {
		t.Fatalf("resume did not take the frame: frames=%d", m.frames)
	}
	if len(m.keys) != 1 || m.keys[0] != "coverage" {
		t.Errorf("metric keys = %v", m.keys)
	}
	if !strings.Contains(m.View(), "one") {
		t.Error("view does not show the frame label")
	}
	eng.Wait()
}

func TestPickerNavigates(t *testing.T) {
	reg := experiment.NewRegistry()
	var m tea.Model = NewInteractiveApp(reg, config.DefaultConfig())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	p := m.(picker)
	if p.cursor != 1 {
		t.Fatalf("cursor = %d after j", p.cursor)
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	p = m.(picker)
	if p.state != statePreset || p.selected != reg.List()[1] {
		t.Fatalf("enter left state %d with %q", p.state, p.selected)
	}
	if p.presets[0] != currentConfig {
		t.Errorf("first choice = %q", p.presets[0])
	}
	if !strings.Contains(m.View(), strings.ToUpper(p.selected)) {
		t.Error("preset view does not name the generator")
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.(picker).state != stateMenu {
		t.Error("esc did not return to the menu")
	}
}
