package experiment

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/genlab/internal/config"
	"github.com/san-kum/genlab/internal/engine"
	"github.com/san-kum/genlab/internal/storage"
)

func smallConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Life.Cells, cfg.Life.CellSize, cfg.Life.Generations, cfg.Life.DelayMS = 30, 2, 5, 50
	cfg.Life.Seed = 3
	cfg.Cyclic.Cells, cfg.Cyclic.Generations, cfg.Cyclic.DelayMS = 20, 50, 50
	cfg.LSystem.Width, cfg.LSystem.Height, cfg.LSystem.Iterations = 80, 80, 2
	cfg.RFT.Width, cfg.RFT.Height = 16, 16
	cfg.RFT.Count, cfg.RFT.MinDepth, cfg.RFT.MaxDepth = 2, 1, 2
	return cfg
}

func run(t *testing.T, name string, cfg *config.Config, xcfg Config, store *storage.Store) (*Result, error) {
	t.Helper()
	reg := NewRegistry()
	gen, err := reg.Get(name, cfg)
	if err != nil {
		t.Fatal(err)
	}
	xcfg.Generator = name
	exp := New(xcfg)
	if err := exp.Setup(gen, reg.DefaultMetrics(), store); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return exp.Run(ctx)
}

func TestRegistryList(t *testing.T) {
	reg := NewRegistry()
	names := reg.List()
	want := []string{"cyclic", "elementary", "hybrid", "life", "lsystem", "rft", "rft-batch"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %s, want %s", i, names[i], want[i])
		}
		if reg.Describe(want[i]) == "" {
			t.Errorf("%s has no description", want[i])
		}
	}
}

func TestRegistryUnknown(t *testing.T) {
	if _, err := NewRegistry().Get("langton", config.DefaultConfig()); err == nil {
		t.Error("expected an error for an unknown generator")
	}
}

func TestRegistrySeed(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Hybrid.Seed = 77
	if got := NewRegistry().Seed("hybrid", cfg); got != 77 {
		t.Errorf("seed = %d, want 77", got)
	}
}

func TestRunAnimatedToEnd(t *testing.T) {
	res, err := run(t, "life", smallConfig(), Config{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.State.Phase != engine.FinishedReady {
		t.Errorf("phase = %v", res.State.Phase)
	}
	if res.Frames != 5 {
		t.Errorf("frames = %d, want 5", res.Frames)
	}
	if res.Last == nil || res.Last.Seq != 5 {
		t.Errorf("last frame = %+v", res.Last)
	}
	if _, ok := res.Metrics["coverage"]; !ok {
		t.Errorf("metrics = %v", res.Metrics)
	}
}

func TestRunStopsAtMaxFrames(t *testing.T) {
	res, err := run(t, "cyclic", smallConfig(), Config{MaxFrames: 3}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Stopped {
		t.Error("expected the run to be stopped")
	}
	if res.Frames != 3 {
		t.Errorf("frames = %d, want 3", res.Frames)
	}
}

func TestRunSingleImageCountsOneFrame(t *testing.T) {
	res, err := run(t, "rft", smallConfig(), Config{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Frames != 1 || res.Last == nil {
		t.Errorf("frames = %d, last = %v", res.Frames, res.Last)
	}
	if res.State.Status != engine.StatusFinished {
		t.Errorf("status = %q", res.State.Status)
	}
}

func TestRunValidationError(t *testing.T) {
	cfg := smallConfig()
	cfg.Cyclic.States = 50
	_, err := run(t, "cyclic", cfg, Config{}, nil)
	var verr *engine.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want a validation error", err)
	}
	if verr.Field != "states" {
		t.Errorf("field = %s", verr.Field)
	}
}

func TestRunSavesToStore(t *testing.T) {
	store, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	res, err := run(t, "lsystem", smallConfig(), Config{Seed: 1, SVG: true}, store)
	if err != nil {
		t.Fatal(err)
	}
	if res.RunID == "" {
		t.Fatal("no run id")
	}

	meta, err := store.Load(res.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Generator != "lsystem" || meta.Frames != 1 {
		t.Errorf("metadata = %+v", meta)
	}
	if meta.Metrics["symbols"] != 36 {
		t.Errorf("frame metrics not stored: %v", meta.Metrics)
	}
	if filepath.Dir(res.SVGPath) != filepath.Join(store.Dir(), res.RunID) {
		t.Errorf("svg path = %s", res.SVGPath)
	}
	if _, err := os.Stat(res.SVGPath); err != nil {
		t.Error(err)
	}
}

func TestRunBatchExportsIntoRun(t *testing.T) {
	store, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	res, err := run(t, "rft-batch", smallConfig(), Config{}, store)
	if err != nil {
		t.Fatal(err)
	}
	if res.Frames != 2 {
		t.Errorf("frames = %d, want 2", res.Frames)
	}
	files, err := os.ReadDir(filepath.Join(store.Dir(), res.RunID, "images"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Errorf("exported %d images, want 2", len(files))
	}
}

func TestRegistryBatchExportsWithoutStore(t *testing.T) {
	cfg := smallConfig()
	cfg.RFT.Width, cfg.RFT.Height = 8, 8
	cfg.RFT.Count, cfg.RFT.BatchSeed = 3, 4
	cfg.Export.Dir = t.TempDir()

	gen, err := NewRegistry().Get("rft-batch", cfg)
	if err != nil {
		t.Fatal(err)
	}
	eng := engine.New(gen, engine.WithAutoTake(nil))
	defer eng.Close()
	if err := eng.Start(); err != nil {
		t.Fatal(err)
	}
	eng.Wait()

	if st := eng.State(); st.Phase != engine.FinishedReady || st.Status != engine.StatusFinished {
		t.Fatalf("state = %+v", st)
	}
	files, err := os.ReadDir(cfg.ExportDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Errorf("batch of 3 exported %d images", len(files))
	}
}

func TestRunExportsEveryNthFrame(t *testing.T) {
	store, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	res, err := run(t, "life", smallConfig(), Config{ExportEvery: 2}, store)
	if err != nil {
		t.Fatal(err)
	}
	if res.Frames != 5 {
		t.Fatalf("frames = %d, want 5", res.Frames)
	}
	files, err := os.ReadDir(filepath.Join(store.Dir(), res.RunID, "images"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Errorf("exported %d frames, want 2", len(files))
	}
}

func TestRunCancelled(t *testing.T) {
	cfg := smallConfig()
	cfg.Cyclic.DelayMS = 1000

	reg := NewRegistry()
	gen, _ := reg.Get("cyclic", cfg)
	exp := New(Config{Generator: "cyclic"})
	if err := exp.Setup(gen, nil, nil); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	res, err := exp.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want a context error", err)
	}
	if res.State.Phase == engine.FinishedReady {
		t.Error("cancelled run should not finish")
	}
}
