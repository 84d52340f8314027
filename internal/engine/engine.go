package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/san-kum/genlab/internal/logging"
)

// Sink receives frames when the engine consumes its own handoff.
type Sink func(*Frame)

type Option func(*Engine)

// WithAutoTake makes Publish deliver frames straight to sink on the worker
// goroutine instead of waiting for a consumer to Take them. Used by
// headless runs.
func WithAutoTake(sink Sink) Option {
	return func(e *Engine) {
		e.autoTake = true
		e.sink = sink
	}
}

type Engine struct {
	gen      Generator
	handoff  *Handoff
	notify   *notifier
	autoTake bool
	sink     Sink

	mu     sync.Mutex
	state  State
	frame  *Frame
	last   *Frame
	cancel context.CancelFunc
	done   chan struct{}
}

func New(gen Generator, opts ...Option) *Engine {
	e := &Engine{
		gen:     gen,
		handoff: NewHandoff(),
		notify:  newNotifier(),
		state:   State{Phase: Ready, Status: StatusReady},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Generator() Generator { return e.gen }

func (e *Engine) Start() error {
	return e.StartContext(context.Background())
}

// StartContext validates the generator and spawns its worker. Cancelling
// parent has the same effect as Cancel.
func (e *Engine) StartContext(parent context.Context) error {
	e.mu.Lock()
	if e.busyLocked() {
		e.mu.Unlock()
		return ErrBusy
	}

	if v, ok := e.gen.(Validator); ok {
		if err := v.Validate(); err != nil {
			e.mu.Unlock()
			if !errors.Is(err, ErrValidation) {
				err = &ValidationError{Msg: err.Error()}
			}
			return err
		}
	}

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	e.cancel = cancel
	e.done = done
	e.last = nil
	e.handoff.Reset()
	e.setStateLocked(State{Phase: Running, Status: StatusStarting}, nil)
	e.mu.Unlock()

	logging.Logger().Debug("generation started", "generator", e.gen.Name())
	go e.work(ctx, cancel, done)
	return nil
}

// Cancel asks the worker to stop and returns immediately.
func (e *Engine) Cancel() {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the current worker, if any, has exited.
func (e *Engine) Wait() {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Restart cancels a running worker, waits for it and starts a new one.
func (e *Engine) Restart() error {
	e.Cancel()
	e.Wait()
	return e.Start()
}

func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busyLocked()
}

func (e *Engine) busyLocked() bool {
	if e.done == nil {
		return false
	}
	select {
	case <-e.done:
		return false
	default:
		return true
	}
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Frame returns the most recently displayed or finished frame.
func (e *Engine) Frame() *Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frame
}

// Take is the consumer side of the handoff.
func (e *Engine) Take() (*Frame, bool) {
	f, ok := e.handoff.Take()
	if ok {
		e.mu.Lock()
		e.frame = f
		e.mu.Unlock()
	}
	return f, ok
}

// Frames signals whenever a frame becomes pending.
func (e *Engine) Frames() <-chan struct{} {
	return e.handoff.Ready()
}

// Subscribe registers l for state events and returns a function that
// removes it. Listeners run on the engine's notifier goroutine.
func (e *Engine) Subscribe(l Listener) func() {
	return e.notify.add(l)
}

// Close cancels the worker and stops event delivery.
func (e *Engine) Close() {
	e.Cancel()
	e.Wait()
	e.notify.close()
}

func (e *Engine) Report(status string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setStateLocked(State{Phase: Running, Status: status}, nil)
}

func (e *Engine) Publish(ctx context.Context, f *Frame) bool {
	if ctx.Err() != nil {
		return false
	}

	if e.autoTake {
		e.mu.Lock()
		e.last = f
		e.frame = f
		e.setStateLocked(State{Phase: IterationReady, Status: e.state.Status}, f)
		e.mu.Unlock()
		if e.sink != nil {
			e.sink(f)
		}
		return ctx.Err() == nil
	}

	ack := e.handoff.put(f)
	e.mu.Lock()
	e.last = f
	e.setStateLocked(State{Phase: IterationReady, Status: e.state.Status}, f)
	e.mu.Unlock()

	return e.handoff.wait(ctx, ack)
}

func (e *Engine) Finish(f *Frame) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.last = f
}

func (e *Engine) work(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	defer close(done)
	defer cancel()

	err := e.run(ctx)
	log := logging.Logger().With("generator", e.gen.Name())

	if ctx.Err() != nil {
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("generation failed after cancel", "err", err)
		}
		log.Debug("generation cancelled")
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.last != nil {
		e.frame = e.last
	}

	if err != nil {
		gerr := &GenerationError{Generator: e.gen.Name(), Wrapped: err}
		log.Error("generation failed", "err", err)
		e.setStateLocked(State{Phase: FinishedReady, Status: gerr.Error(), Err: gerr}, e.last)
		return
	}

	log.Debug("generation finished")
	e.setStateLocked(State{Phase: FinishedReady, Status: StatusFinished}, e.last)
}

func (e *Engine) run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Logger().Error("generator panic", "generator", e.gen.Name(), "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return e.gen.Generate(ctx, e)
}

// setStateLocked must be called with e.mu held. Events are queued in
// transition order.
func (e *Engine) setStateLocked(s State, f *Frame) {
	e.state = s
	e.notify.push(Event{State: s, Frame: f})
}
