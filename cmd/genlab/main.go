package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/anthonynsimon/bild/clone"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/genlab/internal/automation"
	"github.com/san-kum/genlab/internal/config"
	"github.com/san-kum/genlab/internal/engine"
	"github.com/san-kum/genlab/internal/experiment"
	"github.com/san-kum/genlab/internal/export"
	"github.com/san-kum/genlab/internal/gens/rft"
	"github.com/san-kum/genlab/internal/gui"
	"github.com/san-kum/genlab/internal/logging"
	"github.com/san-kum/genlab/internal/server"
	"github.com/san-kum/genlab/internal/storage"
	"github.com/san-kum/genlab/internal/viz"
)

var (
	configFile string
	dataDir    string
	logLevel   string

	preset    string
	maxFrames int
	svg       bool
	noSave    bool
	scale     int
	every     int

	addr string

	count    int
	minDepth int
	maxDepth int
	extended bool
	hue      int

	sweepParam string
	sweepMin   int
	sweepMax   int
	sweepStep  int

	outDir string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "genlab",
		Short: "generative art lab: cellular automata, l-systems and function trees",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return viz.RunInteractive(experiment.NewRegistry(), cfg)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "debug, info, warn or error")

	runCmd := &cobra.Command{
		Use:   "run [generator]",
		Short: "run a generator headless and store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runGenerator,
	}
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().IntVar(&maxFrames, "max-frames", 0, "stop after this many frames (0 runs to the end)")
	runCmd.Flags().BoolVar(&svg, "svg", false, "also write the turtle drawing as svg (lsystem)")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().IntVar(&scale, "scale", config.DefaultScale, "pixel scale for exported images")
	runCmd.Flags().IntVar(&every, "export-every", 0, "store every n-th frame of an animation")

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "render a set of random function tree images",
		Args:  cobra.NoArgs,
		RunE:  runBatch,
	}
	addBatchFlags(batchCmd)

	liveCmd := &cobra.Command{
		Use:   "live [generator]",
		Short: "watch a generator in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	guiCmd := &cobra.Command{
		Use:   "gui [generator]",
		Short: "watch a generator in a desktop window",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			start := ""
			if len(args) > 0 {
				start = args[0]
			}
			return gui.Run(experiment.NewRegistry(), cfg, start)
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "stream frames to browsers over a websocket",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}
	serveCmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")

	scriptCmd := &cobra.Command{
		Use:   "script [file]",
		Short: "run a yaml scenario of generator steps",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [generator]",
		Short: "run a generator over a range of one integer setting",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&sweepParam, "param", "", "config key to vary, e.g. rule or states")
	sweepCmd.Flags().IntVar(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().IntVar(&sweepMax, "max", 0, "last value")
	sweepCmd.Flags().IntVar(&sweepStep, "step", 1, "increment")
	sweepCmd.Flags().IntVar(&maxFrames, "max-frames", 0, "frames per value (0 runs to the end)")
	_ = sweepCmd.MarkFlagRequired("param")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list generators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := experiment.NewRegistry()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, name := range reg.List() {
				fmt.Fprintf(w, "%s\t%s\n", name, reg.Describe(name))
			}
			return w.Flush()
		},
	}

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print a stored run's metadata and a preview of its frame",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run's frame as a scaled png",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().IntVar(&scale, "scale", 4, "pixel scale")
	exportCmd.Flags().StringVar(&outDir, "out", "", "output directory (defaults to the configured export dir)")

	deleteCmd := &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			return st.Delete(args[0])
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [generator]",
		Short: "list available presets for a generator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(config.Section(args[0]))
			if len(presets) == 0 {
				fmt.Printf("no presets for generator: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the default configuration to a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Save(args[0], config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, batchCmd, liveCmd, guiCmd, serveCmd, scriptCmd, sweepCmd, listCmd, runsCmd, showCmd, exportCmd, deleteCmd, presetsCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads --config when given, applies command line overrides
// and installs the logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	if cmd.Flags().Changed("data") || cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	if cmd.Flags().Changed("log-level") || cfg.LogLevel == "" {
		cfg.LogLevel = logLevel
	}
	if f := cmd.Flags().Lookup("scale"); f != nil && f.Changed {
		cfg.Export.Scale = scale
	}
	if f := cmd.Flags().Lookup("export-every"); f != nil && f.Changed {
		cfg.Export.Every = every
	}
	if f := cmd.Flags().Lookup("addr"); f != nil && f.Changed {
		cfg.Server.Addr = addr
	}
	logging.SetLogger(logging.NewText(os.Stderr, cfg.LogLevel))
	return cfg, nil
}

func openStore(cmd *cobra.Command) (*storage.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return storage.Open(cfg.DataDir)
}

// generatorConfig picks the generator name and its settings: a preset
// when --preset is set, the loaded config otherwise.
func generatorConfig(cmd *cobra.Command, args []string) (string, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", nil, err
	}
	name := cfg.Generator
	if len(args) > 0 {
		name = args[0]
	}
	if preset != "" {
		p := config.GetPreset(config.Section(name), preset)
		if p == nil {
			return "", nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(config.Section(name)))
		}
		p.DataDir, p.LogLevel, p.Export, p.Server = cfg.DataDir, cfg.LogLevel, cfg.Export, cfg.Server
		cfg = p
	}
	return name, cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runGenerator(cmd *cobra.Command, args []string) error {
	name, cfg, err := generatorConfig(cmd, args)
	if err != nil {
		return err
	}
	return runHeadless(name, cfg)
}

func runHeadless(name string, cfg *config.Config) error {
	registry := experiment.NewRegistry()
	gen, err := registry.Get(name, cfg)
	if err != nil {
		return err
	}

	var st *storage.Store
	if !noSave {
		if st, err = storage.Open(cfg.DataDir); err != nil {
			return err
		}
		defer st.Close()
	}

	exp := experiment.New(experiment.Config{
		Generator:   name,
		Seed:        registry.Seed(name, cfg),
		MaxFrames:   maxFrames,
		ExportEvery: cfg.Export.Every,
		Scale:       cfg.Export.Scale,
		SVG:         svg || cfg.Export.SVG,
		Settings:    cfg,
	})
	if err := exp.Setup(gen, registry.DefaultMetrics(), st); err != nil {
		return err
	}
	exp.OnEvent(func(ev engine.Event) {
		if ev.State.Phase == engine.Running {
			logging.Logger().Debug("status", "status", ev.State.Status)
		}
	})

	ctx, stop := signalContext()
	defer stop()

	fmt.Printf("running %s...\n", name)
	start := time.Now()
	result, err := exp.Run(ctx)
	if err != nil {
		var verr *engine.ValidationError
		if errors.As(err, &verr) && verr.Field != "" {
			return fmt.Errorf("invalid %s: %s", verr.Field, verr.Msg)
		}
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start).Round(time.Millisecond))
	if result.RunID != "" {
		fmt.Printf("run id: %s\n", result.RunID)
	}
	fmt.Printf("status: %s\n", result.State.Status)
	fmt.Printf("frames: %d\n", result.Frames)
	if result.Last != nil {
		fmt.Printf("label: %s\n", result.Last.Label)
	}
	if result.SVGPath != "" {
		fmt.Printf("svg: %s\n", result.SVGPath)
	}
	printMetrics(result.Metrics)
	return nil
}

func printMetrics(m map[string]float64) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Println("\nmetrics:")
	for _, k := range keys {
		fmt.Printf("  %s: %.6f\n", k, m[k])
	}
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.RFT = batchConfig(cmd, cfg.RFT)
	return runHeadless("rft-batch", cfg)
}

func addBatchFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&count, "count", rft.DefaultCount, "number of images")
	cmd.Flags().IntVar(&minDepth, "min-depth", 0, "minimum tree depth")
	cmd.Flags().IntVar(&maxDepth, "max-depth", rft.MaxDepth-1, "maximum tree depth")
	cmd.Flags().BoolVar(&extended, "extended", false, "use the wide function pool")
	cmd.Flags().IntVar(&hue, "hue", rft.DefaultHue, "hue offset in degrees")
	cmd.Flags().IntVar(&scale, "scale", config.DefaultScale, "pixel scale for exported images")
}

// batchConfig applies the batch flags the user set on top of rc.
func batchConfig(cmd *cobra.Command, rc rft.Config) rft.Config {
	flags := cmd.Flags()
	if flags.Changed("extended") {
		rc.Extended = extended
	}
	if flags.Changed("count") {
		rc.Count = count
	}
	if flags.Changed("min-depth") {
		rc.MinDepth = minDepth
	}
	if flags.Changed("max-depth") {
		rc.MaxDepth = maxDepth
	}
	if flags.Changed("hue") {
		rc.Hue = hue
	}
	return rc
}

func runLive(cmd *cobra.Command, args []string) error {
	name, cfg, err := generatorConfig(cmd, args)
	if err != nil {
		return err
	}
	// The terminal belongs to the view while it runs.
	logging.SetLogger(logging.NewText(os.Stderr, "error"))
	gen, err := experiment.NewRegistry().Get(name, cfg)
	if err != nil {
		return err
	}
	return viz.RunLive(engine.New(gen))
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()
	return server.New(experiment.NewRegistry(), cfg).ListenAndServe(ctx, cfg.Server.Addr)
}

func runScript(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st, err := storage.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signalContext()
	defer stop()

	fmt.Printf("scenario %s: %d steps\n", scenario.Name, len(scenario.Steps))
	results, err := automation.RunScenario(ctx, scenario, experiment.NewRegistry(), cfg, st)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tGENERATOR\tFRAMES\tRUN\tSTATUS")
	for i, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", i+1, r.Generator, r.Frames, r.RunID, r.State.Status)
	}
	if ferr := w.Flush(); err == nil {
		err = ferr
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
		Generator: args[0],
		Param:     sweepParam,
		Min:       sweepMin,
		Max:       sweepMax,
		Step:      sweepStep,
		MaxFrames: maxFrames,
	}, experiment.NewRegistry(), cfg)
	if err != nil {
		return err
	}

	keys := map[string]bool{}
	for _, r := range results {
		for k := range r.Metrics {
			keys[k] = true
		}
	}
	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFRAMES\t%s\n", strings.ToUpper(sweepParam), strings.ToUpper(strings.Join(names, "\t")))
	for _, r := range results {
		row := []string{fmt.Sprint(r.Value), fmt.Sprint(r.Frames)}
		for _, k := range names {
			row = append(row, fmt.Sprintf("%.4f", r.Metrics[k]))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, k := range names {
		data := make([]float64, len(results))
		for i, r := range results {
			data[i] = r.Metrics[k]
		}
		if len(data) > 1 {
			fmt.Println()
			fmt.Println(asciigraph.Plot(data, asciigraph.Height(8), asciigraph.Width(60), asciigraph.Caption(k+" vs "+sweepParam)))
		}
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tGENERATOR\tTIME\tFRAMES\tLABEL\tSTATUS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			run.ID,
			run.Generator,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Frames,
			run.Label,
			run.Status,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return err
	}

	img, err := st.LoadFrame(args[0])
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	c := viz.NewCanvas(60, 24)
	c.DrawImage(img, 0.6)
	fmt.Println()
	fmt.Print(c.String())
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := storage.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	img, err := st.LoadFrame(args[0])
	if err != nil {
		return err
	}
	dir := outDir
	if dir == "" {
		dir = cfg.ExportDir()
	}
	name := meta.Label
	if name == "" {
		name = meta.ID
	}
	p := export.NewPNG(dir, scale)
	if err := p.Export(&engine.Frame{Image: clone.AsRGBA(img), Label: name}, name); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", p.Path(name))
	return nil
}
