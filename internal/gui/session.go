// Package gui is the desktop viewer. The window itself needs the ebiten
// build tag; the session logic here is shared and tested without it.
package gui

import (
	"fmt"

	"github.com/san-kum/genlab/internal/config"
	"github.com/san-kum/genlab/internal/engine"
	"github.com/san-kum/genlab/internal/experiment"
	"github.com/san-kum/genlab/internal/logging"
)

// Session holds the generator menu and the running engine. Keys arrive as
// plain names ("up", "enter", "space", ...) so input handling stays
// independent of the window library.
type Session struct {
	registry *experiment.Registry
	base     *config.Config

	Names    []string
	Selected int
	InMenu   bool
	Paused   bool

	eng   *engine.Engine
	frame *engine.Frame
	count int
	err   error
	quit  bool
}

// NewSession starts in the menu when start is empty, otherwise it runs
// start right away.
func NewSession(registry *experiment.Registry, base *config.Config, start string) (*Session, error) {
	s := &Session{
		registry: registry,
		base:     base,
		Names:    registry.List(),
		InMenu:   start == "",
	}
	if start != "" {
		if err := s.load(start); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Session) load(name string) error {
	gen, err := s.registry.Get(name, s.base)
	if err != nil {
		return err
	}
	s.close()
	s.eng = engine.New(gen)
	s.frame, s.count, s.err = nil, 0, nil
	s.InMenu, s.Paused = false, false
	logging.Logger().Info("gui run", "generator", name)
	return s.eng.Start()
}

func (s *Session) close() {
	if s.eng != nil {
		s.eng.Cancel()
		s.eng.Close()
		s.eng = nil
	}
}

// Key applies one key press.
func (s *Session) Key(k string) {
	if s.InMenu {
		switch k {
		case "up":
			s.Selected = (s.Selected - 1 + len(s.Names)) % len(s.Names)
		case "down":
			s.Selected = (s.Selected + 1) % len(s.Names)
		case "enter", "space":
			s.err = s.load(s.Names[s.Selected])
			if s.err != nil {
				s.InMenu = true
			}
		case "escape", "q":
			s.quit = true
		}
		return
	}

	switch k {
	case "space":
		s.Paused = !s.Paused
	case "s":
		s.err = s.eng.Restart()
		s.count = 0
	case "c":
		s.eng.Cancel()
	case "escape", "m":
		s.close()
		s.InMenu = true
	case "q":
		s.quit = true
	}
}

// Poll takes a waiting frame unless paused. It is called once per tick.
func (s *Session) Poll() {
	if s.eng == nil || s.Paused {
		return
	}
	select {
	case <-s.eng.Frames():
		if f, ok := s.eng.Take(); ok {
			s.frame = f
			s.count++
		}
	default:
	}
	if st := s.eng.State(); st.Phase == engine.FinishedReady {
		if f := s.eng.Frame(); f != nil && f != s.frame {
			s.frame = f
			s.count++
		}
	}
}

func (s *Session) Frame() *engine.Frame { return s.frame }

func (s *Session) Done() bool { return s.quit }

// Status is the text overlay for the current view.
func (s *Session) Status() string {
	if s.InMenu {
		out := "GENLAB\n\n"
		for i, n := range s.Names {
			cursor := "  "
			if i == s.Selected {
				cursor = "> "
			}
			out += fmt.Sprintf("%s%-12s %s\n", cursor, n, s.registry.Describe(n))
		}
		if s.err != nil {
			out += "\n" + s.err.Error() + "\n"
		}
		return out + "\nUP/DOWN select  ENTER run  ESC quit"
	}

	st := s.eng.State()
	out := fmt.Sprintf("%s  [%s]\n%s\nframes: %d", s.eng.Generator().Name(), st.Phase, st.Status, s.count)
	if s.Paused {
		out += "  PAUSED"
	}
	if s.frame != nil {
		out += "\n" + s.frame.Label
	}
	if s.err != nil {
		out += "\n" + s.err.Error()
	}
	return out + "\nSPACE pause  S restart  C cancel  M menu  Q quit"
}

// Close stops the running engine.
func (s *Session) Close() { s.close() }
