package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/fieldsim/internal/automation"
	"github.com/san-kum/fieldsim/internal/config"
	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/experiment"
	"github.com/san-kum/fieldsim/internal/export"
	"github.com/san-kum/fieldsim/internal/gui"
	"github.com/san-kum/fieldsim/internal/metrics"
	"github.com/san-kum/fieldsim/internal/storage"
	"github.com/san-kum/fieldsim/internal/viz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	dataDir    string
	configFile string
	preset     string
	verbose    bool
	logFile    string

	count         int
	seed          int64
	frames        int
	sampleEvery   int
	width         float64
	height        float64
	fps           int
	speed         float64
	colorHex      string
	opacity       float64
	reducedMotion bool

	output    string
	gifPath   string
	gifEvery  int
	trails    bool
	braille   bool
	themeName string
	watch     bool

	runs      int
	paramName string
	paramMin  float64
	paramMax  float64
	numSteps  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fieldsim",
		Short: "decorative particle and physics fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, args)
			if err != nil {
				return err
			}
			return gui.Run(cfg, experiment.NewRegistry(), newLogger(), true)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fieldsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file")

	runCmd := &cobra.Command{
		Use:   "run [mode]",
		Short: "run a mode headless and store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHeadless,
	}
	addEngineFlags(runCmd)
	runCmd.Flags().StringVar(&gifPath, "gif", "", "record an animated gif")
	runCmd.Flags().IntVar(&gifEvery, "gif-every", 2, "record every nth frame")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot kinetic energy of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export sampled frames to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run and sampled frames to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <run_id>.json)")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [mode]",
		Short: "render the final frame of a run to PNG",
		Args:  cobra.MaximumNArgs(1),
		RunE:  snapshotPNG,
	}
	addEngineFlags(snapshotCmd)
	snapshotCmd.Flags().StringVarP(&output, "output", "o", "snapshot.png", "output file")

	svgCmd := &cobra.Command{
		Use:   "svg [mode]",
		Short: "render the final frame of a run to SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE:  renderSVG,
	}
	addEngineFlags(svgCmd)
	svgCmd.Flags().StringVarP(&output, "output", "o", "frame.svg", "output file")
	svgCmd.Flags().BoolVar(&trails, "trails", false, "draw body paths across sampled frames")
	svgCmd.Flags().BoolVar(&braille, "braille", false, "render through the terminal braille grid")

	liveCmd := &cobra.Command{
		Use:   "live [mode]",
		Short: "run a mode in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addEngineFlags(liveCmd)
	liveCmd.Flags().StringVar(&themeName, "theme", "midnight", "color theme")
	liveCmd.Flags().BoolVar(&watch, "watch", false, "reload --config on change")

	guiCmd := &cobra.Command{
		Use:   "gui [mode]",
		Short: "run a mode in a window",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, args)
			if err != nil {
				return err
			}
			return gui.Run(cfg, experiment.NewRegistry(), newLogger(), false)
		},
	}
	addEngineFlags(guiCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets [mode]",
		Short: "list available presets for a mode",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modes := config.ListModes()
			if len(args) == 1 {
				modes = args
			}
			for _, m := range modes {
				presets := config.ListPresets(m)
				if len(presets) == 0 {
					fmt.Printf("no presets for mode: %s\n", m)
					continue
				}
				fmt.Printf("%s:\n", m)
				for _, p := range presets {
					fmt.Printf("  %s\n", p)
				}
			}
			return nil
		},
	}

	modesCmd := &cobra.Command{
		Use:   "modes",
		Short: "list modes",
		Run: func(cmd *cobra.Command, args []string) {
			for _, m := range experiment.NewRegistry().ListModes() {
				fmt.Println(m)
			}
		},
	}

	benchCmd := &cobra.Command{
		Use:   "bench [mode]",
		Short: "run many seeds concurrently",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchMode,
	}
	addEngineFlags(benchCmd)
	benchCmd.Flags().IntVar(&runs, "runs", 8, "number of seeds")

	sweepCmd := &cobra.Command{
		Use:   "sweep [mode]",
		Short: "sweep one parameter and compare metrics",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepParam,
	}
	addEngineFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&paramName, "param", "gravity", "parameter to vary")
	sweepCmd.Flags().Float64Var(&paramMin, "min", 0.1, "first value")
	sweepCmd.Flags().Float64Var(&paramMax, "max", 1.0, "last value")
	sweepCmd.Flags().IntVar(&numSteps, "steps", 5, "number of values")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario and store each step",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportJSONCmd,
		snapshotCmd, svgCmd, liveCmd, guiCmd, presetsCmd, modesCmd, benchCmd, sweepCmd, scenarioCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&count, "count", config.DefaultCount, "number of bodies")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "frames to run")
	cmd.Flags().IntVar(&sampleEvery, "sample-every", 10, "snapshot every n frames (0 disables)")
	cmd.Flags().Float64Var(&width, "width", config.DefaultWidth, "surface width")
	cmd.Flags().Float64Var(&height, "height", config.DefaultHeight, "surface height")
	cmd.Flags().IntVar(&fps, "fps", config.DefaultFPS, "frame rate")
	cmd.Flags().Float64Var(&speed, "speed", config.DefaultSpeed, "particle speed")
	cmd.Flags().StringVar(&colorHex, "color", config.DefaultColor, "particle color")
	cmd.Flags().Float64Var(&opacity, "opacity", config.DefaultOpacity, "particle opacity")
	cmd.Flags().BoolVar(&reducedMotion, "reduced-motion", false, "honour a reduced-motion preference")
}

// buildConfig layers defaults, the preset, the config file and finally any
// flag set on the command line.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	mode := ""
	if len(args) > 0 {
		mode = args[0]
	}

	cfg := config.DefaultConfig()
	if preset != "" {
		if mode != "" {
			cfg = config.GetPreset(mode, preset)
		} else {
			cfg = config.FindPreset(preset)
		}
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(mode))
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if mode != "" {
		cfg.Mode = mode
	}

	flags := cmd.Flags()
	if flags.Lookup("count") == nil {
		return cfg, cfg.Validate()
	}
	if flags.Changed("count") {
		cfg.Count = count
	}
	if flags.Changed("seed") || (preset == "" && configFile == "") {
		cfg.Seed = seed
	}
	if flags.Changed("frames") {
		cfg.Frames = frames
	}
	if flags.Changed("sample-every") || configFile == "" {
		cfg.SampleEvery = sampleEvery
	}
	if flags.Changed("width") {
		cfg.Width = width
	}
	if flags.Changed("height") {
		cfg.Height = height
	}
	if flags.Changed("fps") {
		cfg.FPS = fps
	}
	if flags.Changed("speed") {
		cfg.Speed = speed
	}
	if flags.Changed("color") {
		cfg.Color = colorHex
	}
	if flags.Changed("opacity") {
		cfg.Opacity = opacity
	}
	if flags.Changed("reduced-motion") {
		cfg.ReducedMotion = reducedMotion
	}
	return cfg, cfg.Validate()
}

func newLogger() *zap.Logger {
	if logFile != "" {
		return buildLogger("stderr", logFile)
	}
	return buildLogger("stderr")
}

func buildLogger(outputs ...string) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zcfg.OutputPaths = outputs
	logger, err := zcfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	logger := newLogger()
	defer logger.Sync()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	exp := experiment.New(cfg, registry)
	exp.SetLogger(logger)

	var surface dynamo.Surface
	var rec *export.GIFRecorder
	if gifPath != "" {
		raster := export.NewRaster(cfg.Width, cfg.Height)
		surface = raster
		rec = export.NewGIFRecorder(raster, gifEvery, cfg.FPS)
	}
	if err := exp.Setup(surface, registry.DefaultMetrics(cfg.Mode)); err != nil {
		return err
	}
	if rec != nil {
		exp.Engine().AddObserver(rec)
	}

	ctx, cancel := interruptContext()
	defer cancel()

	fmt.Printf("running %s with %d bodies...\n", cfg.Mode, cfg.Count)
	start := time.Now()
	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(metadata(cfg), result)
	if err != nil {
		return err
	}

	if rec != nil {
		if err := writeFile(gifPath, func(w io.Writer) error { return rec.Encode(w) }); err != nil {
			return err
		}
		fmt.Printf("gif: %s (%d frames)\n", gifPath, rec.Frames())
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("frames: %d, snapshots: %d\n", result.Frames, len(result.Snapshots))
	printMetrics(result.Metrics)
	if len(result.Errors) > 0 {
		fmt.Printf("\n%d invariant violations, first: %v\n", len(result.Errors), result.Errors[0])
	}
	return nil
}

func metadata(cfg *config.Config) storage.RunMetadata {
	return storage.RunMetadata{
		Mode:        cfg.Mode,
		Preset:      preset,
		Seed:        cfg.Seed,
		Count:       cfg.Count,
		Width:       cfg.Width,
		Height:      cfg.Height,
		FPS:         cfg.FPS,
		SampleEvery: cfg.SampleEvery,
	}
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODE\tPRESET\tSEED\tBODIES\tFRAMES\tTIME")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID, r.Mode, r.Preset, r.Seed, r.Count, r.Frames, r.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	snaps, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}
	if len(snaps) < 2 {
		return fmt.Errorf("run %s has %d snapshots, need at least 2", args[0], len(snaps))
	}

	energy := make([]float64, len(snaps))
	peak := make([]float64, len(snaps))
	for i, s := range snaps {
		energy[i] = metrics.Energy(s.Bodies)
		for _, b := range s.Bodies {
			peak[i] = max(peak[i], b.Vel.X*b.Vel.X+b.Vel.Y*b.Vel.Y)
		}
	}

	fmt.Printf("%s (%s, seed %d)\n\n", meta.ID, meta.Mode, meta.Seed)
	fmt.Println(asciigraph.Plot(energy, asciigraph.Height(12), asciigraph.Width(70), asciigraph.Caption("kinetic energy")))
	fmt.Println()
	fmt.Println(asciigraph.Plot(peak, asciigraph.Height(6), asciigraph.Width(70), asciigraph.Caption("peak speed²")))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	snaps, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}
	if output == "" {
		return storage.WriteFramesCSV(os.Stdout, snaps)
	}
	if err := writeFile(output, func(w io.Writer) error { return storage.WriteFramesCSV(w, snaps) }); err != nil {
		return err
	}
	fmt.Printf("exported %d snapshots to %s\n", len(snaps), output)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	snaps, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}
	path := output
	if path == "" {
		path = args[0] + ".json"
	}
	if err := storage.ExportJSON(path, *meta, snaps); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", path)
	return nil
}

// render runs cfg on surface and returns the result.
func render(cmd *cobra.Command, args []string, surface func(cfg *config.Config) dynamo.Surface) (*config.Config, *dynamo.Result, error) {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return nil, nil, err
	}
	registry := experiment.NewRegistry()
	exp := experiment.New(cfg, registry)
	exp.SetLogger(newLogger())
	if err := exp.Setup(surface(cfg), nil); err != nil {
		return nil, nil, err
	}
	ctx, cancel := interruptContext()
	defer cancel()
	res, err := exp.Run(ctx)
	return cfg, res, err
}

func snapshotPNG(cmd *cobra.Command, args []string) error {
	var raster *export.Raster
	_, _, err := render(cmd, args, func(cfg *config.Config) dynamo.Surface {
		raster = export.NewRaster(cfg.Width, cfg.Height)
		return raster
	})
	if err != nil {
		return err
	}
	if err := writeFile(output, raster.WritePNG); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", output)
	return nil
}

func renderSVG(cmd *cobra.Command, args []string) error {
	var vector *export.SVG
	var grid *viz.BrailleSurface
	cfg, res, err := render(cmd, args, func(cfg *config.Config) dynamo.Surface {
		if braille {
			cols, rows := int(cfg.Width/(2*viz.WorldScale)), int(cfg.Height/(4*viz.WorldScale))
			grid = viz.NewBrailleSurface(cols, rows, cfg.Width, cfg.Height)
			return grid
		}
		vector = export.NewSVG(cfg.Width, cfg.Height)
		return vector
	})
	if err != nil {
		return err
	}

	var out string
	switch {
	case trails:
		out = export.TrailsToSVG(res.Snapshots, cfg.Width, cfg.Height, cfg.Color)
	case braille:
		out = export.CanvasToSVG(grid.Canvas(), viz.WorldScale, cfg.Color)
	default:
		out = vector.String()
	}
	if err := os.WriteFile(output, []byte(out), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", output)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	// the terminal belongs to the UI, so logs only go to --log-file
	logger := zap.NewNop()
	if logFile != "" {
		logger = buildLogger(logFile)
	}
	defer logger.Sync()

	m, err := viz.NewModel(cfg, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}
	m = m.WithTheme(themeName)

	if watch {
		if configFile == "" {
			return fmt.Errorf("--watch needs --config")
		}
		w, err := config.NewWatcher(configFile, logger)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Warn("config watcher stopped", zap.Error(err))
			}
		}()
		m = m.WithUpdates(w.Updates())
	}

	return viz.Run(m)
}

func benchMode(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	ctx, cancel := interruptContext()
	defer cancel()

	fmt.Printf("benchmarking %s: %d seeds x %d frames, %d bodies\n", cfg.Mode, runs, cfg.Frames, cfg.Count)
	start := time.Now()
	results, err := automation.RunMonteCarlo(ctx, cfg, runs, experiment.NewRegistry())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	stable, unstable := automation.MonteCarloStats(results)
	totalFrames := float64(runs * cfg.Frames)
	fmt.Printf("elapsed: %v\n", elapsed)
	fmt.Printf("frames/sec: %.0f\n", totalFrames/elapsed.Seconds())
	fmt.Printf("stable: %d, unstable: %d\n", stable, unstable)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nSEED\tKINETIC\tPEAK\tSTABLE")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%.3f\t%.3f\t%v\n", r.Seed, r.Metrics["kinetic_energy"], r.Metrics["peak_speed"], r.Stable)
	}
	return w.Flush()
}

func sweepParam(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	ctx, cancel := interruptContext()
	defer cancel()

	results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
		Base:      cfg,
		ParamName: paramName,
		ParamMin:  paramMin,
		ParamMax:  paramMax,
		NumSteps:  numSteps,
	}, experiment.NewRegistry())
	if err != nil {
		return err
	}

	var names []string
	for name := range results[0].Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, paramName)
	for _, n := range names {
		fmt.Fprintf(w, "\t%s", n)
	}
	fmt.Fprintln(w)
	for _, r := range results {
		fmt.Fprintf(w, "%.4g", r.ParamValue)
		for _, n := range names {
			fmt.Fprintf(w, "\t%.4f", r.Metrics[n])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	logger := newLogger()
	defer logger.Sync()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := interruptContext()
	defer cancel()

	fmt.Printf("scenario %s: %d steps\n", scenario.Name, len(scenario.Steps))
	results, err := automation.RunScenario(ctx, scenario, experiment.NewRegistry(), logger)
	for i, r := range results {
		meta := metadata(r.Config)
		meta.Preset = scenario.Steps[i].Preset
		runID, serr := st.Save(meta, r.Result)
		if serr != nil {
			return serr
		}
		fmt.Printf("  %s -> %s (%d frames)\n", r.Name, runID, r.Result.Frames)
	}
	return err
}
