package experiment

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/san-kum/genlab/internal/engine"
	"github.com/san-kum/genlab/internal/export"
	"github.com/san-kum/genlab/internal/gens/lsystem"
	"github.com/san-kum/genlab/internal/gens/rft"
	"github.com/san-kum/genlab/internal/logging"
	"github.com/san-kum/genlab/internal/metrics"
	"github.com/san-kum/genlab/internal/storage"
)

type Config struct {
	Generator string
	Seed      int64
	// MaxFrames stops an animated run after that many frames; zero runs to
	// the end.
	MaxFrames int
	// ExportEvery writes every n-th frame into the run's image directory.
	// Needs a store; ignored for generators that export on their own.
	ExportEvery int
	Scale       int
	SVG         bool
	Settings    any
}

type Result struct {
	RunID     string
	Generator string
	State     engine.State
	Frames    int
	Last      *engine.Frame
	Metrics   map[string]float64
	Stopped   bool
	SVGPath   string
}

// Experiment drives one generator headless: frames are consumed as they
// are published, metrics observe them and the outcome is stored.
type Experiment struct {
	cfg     Config
	gen     engine.Generator
	metrics []metrics.Metric
	store   *storage.Store

	onFrame func(*engine.Frame)
	onEvent engine.Listener
}

func New(cfg Config) *Experiment {
	return &Experiment{cfg: cfg}
}

func (e *Experiment) Setup(gen engine.Generator, ms []metrics.Metric, store *storage.Store) error {
	if gen == nil {
		return fmt.Errorf("experiment needs a generator")
	}
	e.gen = gen
	e.metrics = ms
	e.store = store
	return nil
}

// OnFrame registers a callback run on the worker for every frame.
func (e *Experiment) OnFrame(fn func(*engine.Frame)) { e.onFrame = fn }

// OnEvent registers a listener for engine state changes.
func (e *Experiment) OnEvent(l engine.Listener) { e.onEvent = l }

func (e *Experiment) Generator() engine.Generator { return e.gen }

func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.gen == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	res := &Result{Generator: e.gen.Name()}
	var frameExporter rft.Exporter
	if e.store != nil {
		res.RunID = ulid.Make().String()
		exp := e.store.Exporter(res.RunID, e.cfg.Scale)
		if x, ok := e.gen.(interface{ SetExporter(rft.Exporter) }); ok {
			x.SetExporter(exp)
		} else if e.cfg.ExportEvery > 0 {
			frameExporter = exp
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu      sync.Mutex
		frames  int
		limited bool
	)
	sink := func(f *engine.Frame) {
		metrics.ObserveAll(e.metrics, f)
		if e.onFrame != nil {
			e.onFrame(f)
		}
		mu.Lock()
		frames++
		n := frames
		if e.cfg.MaxFrames > 0 && frames >= e.cfg.MaxFrames {
			limited = true
			cancel()
		}
		mu.Unlock()
		if frameExporter != nil && n%e.cfg.ExportEvery == 0 {
			name := fmt.Sprintf("%s-%05d", res.Generator, f.Seq)
			if err := frameExporter.Export(f, name); err != nil {
				logging.Logger().Warn("frame export failed", "frame", f.Seq, "err", err)
			}
		}
	}

	eng := engine.New(e.gen, engine.WithAutoTake(sink))
	defer eng.Close()
	if e.onEvent != nil {
		eng.Subscribe(e.onEvent)
	}

	if err := eng.StartContext(ctx); err != nil {
		return nil, err
	}
	eng.Wait()

	mu.Lock()
	res.Frames, res.Stopped = frames, limited
	mu.Unlock()
	res.State = eng.State()
	res.Last = eng.Frame()

	if res.Frames == 0 && res.Last != nil {
		metrics.ObserveAll(e.metrics, res.Last)
		if e.onFrame != nil {
			e.onFrame(res.Last)
		}
		res.Frames = 1
	}
	res.Metrics = metrics.Values(e.metrics)

	if !res.Stopped && res.State.Phase != engine.FinishedReady {
		return res, context.Cause(ctx)
	}
	if res.State.Err != nil {
		return res, res.State.Err
	}

	if e.cfg.SVG {
		if err := e.writeSVG(res); err != nil {
			logging.Logger().Warn("svg export failed", "err", err)
		}
	}
	if e.store != nil {
		if err := e.save(res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (e *Experiment) writeSVG(res *Result) error {
	ls, ok := e.gen.(*lsystem.Generator)
	if !ok {
		return errors.New("svg export needs an l-system")
	}
	cfg := ls.Config()
	svg := export.TurtleToSVG(ls.Segments(), cfg.Width, cfg.Height, "#000000", cfg.LineWidth)
	dir := "."
	if e.store != nil {
		dir = filepath.Join(e.store.Dir(), res.RunID)
	}
	path, err := export.WriteSVG(dir, res.Generator, svg)
	if err != nil {
		return err
	}
	res.SVGPath = path
	return nil
}

func (e *Experiment) save(res *Result) error {
	status := res.State.Status
	if res.Stopped {
		status = fmt.Sprintf("Stopped after %d frames", res.Frames)
	}
	meta := storage.RunMetadata{
		ID:        res.RunID,
		Generator: res.Generator,
		Seed:      e.cfg.Seed,
		Status:    status,
		Frames:    res.Frames,
		Config:    e.cfg.Settings,
		Metrics:   res.Metrics,
	}
	if res.Last != nil {
		for k, v := range res.Last.Metrics {
			if _, taken := meta.Metrics[k]; !taken {
				meta.Metrics[k] = v
			}
		}
	}
	_, err := e.store.Save(meta, res.Last)
	return err
}
