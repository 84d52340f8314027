package engine

import (
	"context"
	"fmt"
	"image"
)

type Phase int

const (
	Ready Phase = iota
	Running
	IterationReady
	FinishedReady
)

func (p Phase) String() string {
	switch p {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case IterationReady:
		return "iteration_ready"
	case FinishedReady:
		return "finished_ready"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

const (
	StatusReady    = "Ready!"
	StatusFinished = "Finished! And ready again!"
	StatusStarting = "Starting..."
)

// State is the lifecycle phase plus a human readable status. Err is set
// when the last run ended in a computation error; the phase is still
// FinishedReady in that case.
type State struct {
	Phase  Phase
	Status string
	Err    error
}

type Frame struct {
	Image   *image.RGBA
	Seq     int
	Label   string
	Metrics map[string]float64
}

// Event is delivered to listeners on every state transition. Frame is set
// for IterationReady and FinishedReady.
type Event struct {
	State State
	Frame *Frame
}

type Listener func(Event)

// Generator produces frames until done or until ctx is cancelled.
// Returning after cancellation is not an error.
type Generator interface {
	Name() string
	Generate(ctx context.Context, out Output) error
}

// Validator is implemented by generators whose parameters can be checked
// before a run starts.
type Validator interface {
	Validate() error
}

// Output is the engine side a generator talks to.
type Output interface {
	// Report pushes a status text and puts the engine in Running.
	Report(status string)
	// Publish hands f to the consumer and blocks until it was taken.
	// It returns false when ctx was cancelled first.
	Publish(ctx context.Context, f *Frame) bool
	// Finish records f as the final frame of a run that did not publish it.
	Finish(f *Frame)
}
