// Package enginetest provides an in-memory engine.Output for generator tests.
package enginetest

import (
	"context"
	"sync"

	"github.com/san-kum/genlab/internal/engine"
)

// Collector records everything a generator reports. A zero Limit accepts
// every frame; otherwise Publish starts returning false after Limit frames.
type Collector struct {
	Limit int

	mu       sync.Mutex
	frames   []*engine.Frame
	statuses []string
	final    *engine.Frame
}

func (c *Collector) Report(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses = append(c.statuses, status)
}

func (c *Collector) Publish(ctx context.Context, f *engine.Frame) bool {
	if ctx.Err() != nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Limit > 0 && len(c.frames) >= c.Limit {
		return false
	}
	c.frames = append(c.frames, f)
	return true
}

func (c *Collector) Finish(f *engine.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.final = f
}

func (c *Collector) Frames() []*engine.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*engine.Frame(nil), c.frames...)
}

func (c *Collector) Statuses() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.statuses...)
}

// Last returns the finished frame, or the last published one.
func (c *Collector) Last() *engine.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.final != nil {
		return c.final
	}
	if len(c.frames) == 0 {
		return nil
	}
	return c.frames[len(c.frames)-1]
}
