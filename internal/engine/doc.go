// Package engine drives a single generator on a background worker and hands
// its frames to a foreground consumer.
//
// The package defines the lifecycle shared by every generator:
//
//   - [Generator]: produces frames, checking its context at loop boundaries
//   - [Engine]: owns the worker, the [State] and the frame [Handoff]
//   - [Handoff]: blocks the worker until the consumer has taken a frame
//   - [Animate]: the paced per-generation loop used by the automata
//
// # Example
//
//	eng := engine.New(life.New(cfg))
//	eng.Subscribe(func(ev engine.Event) {
//		if ev.State.Phase == engine.IterationReady {
//			f, _ := eng.Take()
//			show(f)
//		}
//	})
//	_ = eng.Start()
//
// # Cancellation
//
// Cancel is cooperative. The worker exits at its next checkpoint without
// publishing a terminal frame and the state is left where it was; the next
// Start resets it.
package engine
