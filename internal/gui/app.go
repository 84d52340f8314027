//go:build ebiten

package gui

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/san-kum/genlab/internal/config"
	"github.com/san-kum/genlab/internal/engine"
	"github.com/san-kum/genlab/internal/experiment"
)

const (
	screenWidth  = 1280
	screenHeight = 720
)

var keys = map[ebiten.Key]string{
	ebiten.KeyArrowUp:   "up",
	ebiten.KeyArrowDown: "down",
	ebiten.KeyEnter:     "enter",
	ebiten.KeySpace:     "space",
	ebiten.KeyEscape:    "escape",
	ebiten.KeyS:         "s",
	ebiten.KeyC:         "c",
	ebiten.KeyM:         "m",
	ebiten.KeyQ:         "q",
}

// App adapts a Session to ebiten.Game.
type App struct {
	s   *Session
	img *ebiten.Image
	src *engine.Frame
}

func (a *App) Update() error {
	for k, name := range keys {
		if inpututil.IsKeyJustPressed(k) {
			a.s.Key(name)
		}
	}
	if a.s.Done() {
		return ebiten.Termination
	}
	a.s.Poll()
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	if f := a.s.Frame(); f != nil && !a.s.InMenu && f.Image != nil {
		if a.src != f {
			a.img = ebiten.NewImageFromImage(f.Image)
			a.src = f
		}
		b := f.Image.Bounds()
		scale := min(float64(screenWidth)/float64(b.Dx()), float64(screenHeight)/float64(b.Dy()))
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(scale, scale)
		op.GeoM.Translate((screenWidth-scale*float64(b.Dx()))/2, (screenHeight-scale*float64(b.Dy()))/2)
		op.Filter = ebiten.FilterNearest
		screen.DrawImage(a.img, op)
	}
	ebitenutil.DebugPrint(screen, a.s.Status())
}

func (a *App) Layout(outsideW, outsideH int) (int, int) {
	return screenWidth, screenHeight
}

// Run opens the window. An empty start shows the generator menu.
func Run(registry *experiment.Registry, base *config.Config, start string) error {
	s, err := NewSession(registry, base, start)
	if err != nil {
		return err
	}
	defer s.Close()

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("genlab")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(&App{s: s})
}
