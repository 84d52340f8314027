package engine_test

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/genlab/internal/engine"
)

// countingGen publishes n frames numbered 1..n.
type countingGen struct {
	n        int
	delay    time.Duration
	err      error
	panicMsg string
	invalid  error
}

func (g *countingGen) Name() string { return "counting" }

func (g *countingGen) Validate() error { return g.invalid }

func (g *countingGen) Generate(ctx context.Context, out engine.Output) error {
	if g.panicMsg != "" {
		panic(g.panicMsg)
	}
	err := engine.Animate(ctx, out, g.n, g.delay, func(gen int) (*engine.Frame, error) {
		if g.err != nil && gen == 1 {
			return nil, g.err
		}
		return &engine.Frame{Image: image.NewRGBA(image.Rect(0, 0, 1, 1)), Seq: gen + 1}, nil
	})
	return err
}

type recorder struct {
	mu     sync.Mutex
	events []engine.Event
}

func (r *recorder) listen(ev engine.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) phases() []engine.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]engine.Phase, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.State.Phase
	}
	return out
}

var _ = Describe("Engine", func() {
	var eng *engine.Engine

	AfterEach(func() {
		if eng != nil {
			eng.Close()
		}
	})

	It("starts in Ready", func() {
		eng = engine.New(&countingGen{n: 1})
		Expect(eng.State().Phase).To(Equal(engine.Ready))
		Expect(eng.State().Status).To(Equal(engine.StatusReady))
		Expect(eng.Busy()).To(BeFalse())
	})

	It("hands every frame to the consumer in order", func() {
		eng = engine.New(&countingGen{n: 5})
		var mu sync.Mutex
		var seqs []int
		eng.Subscribe(func(ev engine.Event) {
			if ev.State.Phase != engine.IterationReady {
				return
			}
			if f, ok := eng.Take(); ok {
				mu.Lock()
				seqs = append(seqs, f.Seq)
				mu.Unlock()
			}
		})

		Expect(eng.Start()).To(Succeed())
		Eventually(func() engine.Phase { return eng.State().Phase }).Should(Equal(engine.FinishedReady))

		mu.Lock()
		defer mu.Unlock()
		Expect(seqs).To(Equal([]int{1, 2, 3, 4, 5}))
		Expect(eng.State().Status).To(Equal(engine.StatusFinished))
		Expect(eng.State().Err).NotTo(HaveOccurred())
		Expect(eng.Frame().Seq).To(Equal(5))
	})

	It("refuses to start twice", func() {
		eng = engine.New(&countingGen{n: 3})
		Expect(eng.Start()).To(Succeed())
		Eventually(eng.Frames()).Should(Receive())
		Expect(eng.Start()).To(MatchError(engine.ErrBusy))
	})

	It("rejects invalid parameters before spawning a worker", func() {
		eng = engine.New(&countingGen{n: 3, invalid: engine.Invalid("cells", "Cells requires an integer value between 1 and 4000.")})

		err := eng.Start()
		Expect(err).To(MatchError(engine.ErrValidation))
		Expect(err.Error()).To(Equal("Cells requires an integer value between 1 and 4000."))
		Expect(eng.Busy()).To(BeFalse())
		Expect(eng.State().Phase).To(Equal(engine.Ready))
	})

	It("wraps plain validation errors", func() {
		eng = engine.New(&countingGen{n: 1, invalid: errors.New("bad axiom")})
		err := eng.Start()
		Expect(errors.Is(err, engine.ErrValidation)).To(BeTrue())
		Expect(err.Error()).To(Equal("bad axiom"))
	})

	It("exits on cancel even when nobody takes the frame", func() {
		eng = engine.New(&countingGen{n: 100})
		Expect(eng.Start()).To(Succeed())
		Eventually(eng.Frames()).Should(Receive())

		eng.Cancel()
		done := make(chan struct{})
		go func() {
			eng.Wait()
			close(done)
		}()
		Eventually(done).Should(BeClosed())
		Expect(eng.Busy()).To(BeFalse())
		Expect(eng.State().Phase).NotTo(Equal(engine.FinishedReady))
	})

	It("can be started again after a cancel", func() {
		eng = engine.New(&countingGen{n: 2})
		Expect(eng.Start()).To(Succeed())
		Eventually(eng.Frames()).Should(Receive())
		eng.Cancel()
		eng.Wait()

		eng.Subscribe(func(ev engine.Event) {
			if ev.State.Phase == engine.IterationReady {
				eng.Take()
			}
		})
		Expect(eng.Start()).To(Succeed())
		Eventually(func() engine.Phase { return eng.State().Phase }).Should(Equal(engine.FinishedReady))
	})

	It("folds computation errors into FinishedReady with Err set", func() {
		boom := errors.New("boom")
		eng = engine.New(&countingGen{n: 5, err: boom}, engine.WithAutoTake(nil))

		Expect(eng.Start()).To(Succeed())
		eng.Wait()

		st := eng.State()
		Expect(st.Phase).To(Equal(engine.FinishedReady))
		Expect(errors.Is(st.Err, boom)).To(BeTrue())
		var gerr *engine.GenerationError
		Expect(errors.As(st.Err, &gerr)).To(BeTrue())
		Expect(gerr.Generator).To(Equal("counting"))
	})

	It("recovers generator panics", func() {
		eng = engine.New(&countingGen{panicMsg: "index out of range"})
		Expect(eng.Start()).To(Succeed())
		eng.Wait()

		Expect(eng.State().Phase).To(Equal(engine.FinishedReady))
		Expect(errors.Is(eng.State().Err, engine.ErrPanic)).To(BeTrue())
	})

	It("delivers frames to the sink when auto-taking", func() {
		var seqs []int
		eng = engine.New(&countingGen{n: 4}, engine.WithAutoTake(func(f *engine.Frame) {
			seqs = append(seqs, f.Seq)
		}))

		Expect(eng.Start()).To(Succeed())
		eng.Wait()
		Expect(seqs).To(Equal([]int{1, 2, 3, 4}))
		Expect(eng.Frame().Seq).To(Equal(4))
	})

	It("notifies listeners in transition order", func() {
		rec := &recorder{}
		eng = engine.New(&countingGen{n: 2}, engine.WithAutoTake(nil))
		eng.Subscribe(rec.listen)

		Expect(eng.Start()).To(Succeed())
		eng.Wait()

		Eventually(rec.phases).Should(Equal([]engine.Phase{
			engine.Running,
			engine.Running, engine.IterationReady,
			engine.Running, engine.IterationReady,
			engine.FinishedReady,
		}))
	})

	It("stops notifying after unsubscribe", func() {
		rec := &recorder{}
		eng = engine.New(&countingGen{n: 1}, engine.WithAutoTake(nil))
		unsubscribe := eng.Subscribe(rec.listen)
		unsubscribe()

		Expect(eng.Start()).To(Succeed())
		eng.Wait()
		Consistently(rec.phases, 50*time.Millisecond).Should(BeEmpty())
	})
})

var _ = Describe("Handoff", func() {
	It("returns false after cancellation without a consumer", func() {
		h := engine.NewHandoff()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Expect(h.Offer(ctx, &engine.Frame{Seq: 1})).To(BeFalse())
		Expect(h.Pending()).To(BeTrue())
		h.Reset()
		Expect(h.Pending()).To(BeFalse())
	})

	It("blocks the producer until the frame is taken", func() {
		h := engine.NewHandoff()
		released := make(chan bool, 1)
		go func() {
			released <- h.Offer(context.Background(), &engine.Frame{Seq: 7})
		}()

		Eventually(h.Ready()).Should(Receive())
		Consistently(released, 20*time.Millisecond).ShouldNot(Receive())

		f, ok := h.Take()
		Expect(ok).To(BeTrue())
		Expect(f.Seq).To(Equal(7))
		Eventually(released).Should(Receive(BeTrue()))

		_, ok = h.Take()
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Pace", func() {
	It("returns false when cancelled while sleeping", func() {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()
		Expect(engine.Pace(ctx, time.Now(), time.Hour)).To(BeFalse())
	})

	It("does not sleep when the step already took longer than the delay", func() {
		start := time.Now().Add(-time.Second)
		before := time.Now()
		Expect(engine.Pace(context.Background(), start, 50*time.Millisecond)).To(BeTrue())
		Expect(time.Since(before)).To(BeNumerically("<", 50*time.Millisecond))
	})
})
