// Package gens holds helpers shared by the generator packages.
package gens

import (
	"fmt"
	"image/color"
	"math/rand/v2"
	"time"

	"github.com/san-kum/genlab/internal/engine"
)

// MaxExtent bounds the pixel size of automaton frames in each dimension.
const MaxExtent = 4000

// ResolveSeed turns a zero seed into a time based one.
func ResolveSeed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}

func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>32|1))
}

// IntRange reports v outside [lo, hi] with the message shown to users.
func IntRange(field, label string, v, lo, hi int) error {
	if v < lo || v > hi {
		return engine.Invalid(field, fmt.Sprintf("%s requires an integer value between %d and %d.", label, lo, hi))
	}
	return nil
}

// Extent checks that count cells of size pixels fit into limit pixels.
func Extent(field, what string, count, size, limit int) error {
	if count*size > limit {
		return engine.Invalid(field, fmt.Sprintf("The product of cell size and number of %s cannot exceed %d.", what, limit))
	}
	return nil
}

func Unit(field, label string, v float64) error {
	if v < 0 || v > 1 {
		return engine.Invalid(field, fmt.Sprintf("%s requires a real value between 0.0 and 1.0.", label))
	}
	return nil
}

// FirstErr returns the first non-nil error.
func FirstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func Delay(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// RandomPalette draws one opaque colour per state.
func RandomPalette(r *rand.Rand, n int) []color.RGBA {
	p := make([]color.RGBA, n)
	for i := range p {
		p[i] = color.RGBA{uint8(r.IntN(256)), uint8(r.IntN(256)), uint8(r.IntN(256)), 255}
	}
	return p
}
