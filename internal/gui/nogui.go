//go:build !ebiten

package gui

import (
	"errors"

	"github.com/san-kum/genlab/internal/config"
	"github.com/san-kum/genlab/internal/experiment"
)

var ErrNoGUI = errors.New("built without the desktop viewer; rebuild with -tags ebiten")

func Run(registry *experiment.Registry, base *config.Config, start string) error {
	return ErrNoGUI
}
