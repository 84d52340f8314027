package engine

import (
	"context"
	"sync"
)

// Handoff passes one frame at a time from a producer to a consumer.
// Offer blocks until Take acknowledges the frame or the producer's context
// is cancelled, so the producer never runs ahead of what was displayed.
type Handoff struct {
	mu      sync.Mutex
	pending *Frame
	ack     chan struct{}
	ready   chan struct{}
}

func NewHandoff() *Handoff {
	return &Handoff{ready: make(chan struct{}, 1)}
}

func (h *Handoff) Offer(ctx context.Context, f *Frame) bool {
	return h.wait(ctx, h.put(f))
}

func (h *Handoff) put(f *Frame) chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.pending = f
	h.ack = make(chan struct{})
	select {
	case h.ready <- struct{}{}:
	default:
	}
	return h.ack
}

func (h *Handoff) wait(ctx context.Context, ack chan struct{}) bool {
	select {
	case <-ack:
		return true
	case <-ctx.Done():
		return false
	}
}

// Take returns the pending frame, if any, and releases the producer.
func (h *Handoff) Take() (*Frame, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pending == nil {
		return nil, false
	}
	f := h.pending
	h.pending = nil
	close(h.ack)
	h.ack = nil
	return f, true
}

func (h *Handoff) Pending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pending != nil
}

// Ready signals (coalesced) that a frame became pending.
func (h *Handoff) Ready() <-chan struct{} {
	return h.ready
}

// Reset drops a frame left behind by a cancelled producer.
func (h *Handoff) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.pending = nil
	h.ack = nil
	select {
	case <-h.ready:
	default:
	}
}
