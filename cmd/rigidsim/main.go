package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/san-kum/rigidsim/internal/analysis"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/metrics"
	"github.com/san-kum/rigidsim/internal/scenario"
	"github.com/san-kum/rigidsim/internal/storage"
	"github.com/san-kum/rigidsim/internal/tui"
	"github.com/san-kum/rigidsim/internal/tuning"
	"github.com/san-kum/rigidsim/internal/viz"
	"github.com/spf13/cobra"
)

const frameDt = 1.0 / 60

var (
	dataDir    string
	verbose    bool
	configFile string
	profile    string
	duration   float64
	seed       int64
	save       bool
	bodyID     uint32
	field      string
	runs       int
	svgPath    string
	outPath    string
	at         float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "rigidsim",
		Short:         "interactive rigid body simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".rigidsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a scenario headless and record it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&profile, "profile", config.DefaultProfile, "simulation profile")
	runCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration in seconds")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 uses the clock)")
	runCmd.Flags().BoolVar(&save, "save", true, "record the run under --data")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a recorded pose column",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().Uint32Var(&bodyID, "body", 0, "body handle (default first tracked)")
	plotCmd.Flags().StringVar(&field, "field", "y", "pose column: x y z qw qx qy qz sleeping")
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "also write the body's x/y path as svg")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a recorded pose column",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().Uint32Var(&bodyID, "body", 0, "body handle (default first tracked)")
	analyzeCmd.Flags().StringVar(&field, "field", "y", "pose column")

	profilesCmd := &cobra.Command{
		Use:   "profiles",
		Short: "list simulation profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSTEP\tSUBSTEPS\tITERATIONS\tDESCRIPTION")
			for _, name := range config.ListProfiles() {
				p, _ := config.GetProfile(name)
				fmt.Fprintf(w, "%s\t%.4fs\t%d\t%d\t%s\n", p.Name, p.Timestep, p.MaxSubsteps, p.Iterations, p.Description)
			}
			return w.Flush()
		},
	}

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "list scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := scenario.NewRegistry()
			for _, name := range reg.List() {
				s, _ := reg.Get(name)
				fmt.Printf("  %-10s %s\n", name, s.Description())
			}
			return nil
		},
	}

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "open a scenario in the live viewer",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	liveCmd.Flags().StringVar(&profile, "profile", config.DefaultProfile, "simulation profile")
	liveCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 uses the clock)")

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the default config for a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if err := cfg.ApplyProfile(profile); err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s (%s)\n", args[0], profile)
			return nil
		},
	}
	initCmd.Flags().StringVar(&profile, "profile", config.DefaultProfile, "simulation profile")

	sweepCmd := &cobra.Command{
		Use:   "sweep [scenario]",
		Short: "run a scenario over consecutive seeds in parallel",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepScenario,
	}
	sweepCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	sweepCmd.Flags().StringVar(&profile, "profile", config.DefaultProfile, "simulation profile")
	sweepCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration in seconds")
	sweepCmd.Flags().Int64Var(&seed, "seed", 1, "first seed")
	sweepCmd.Flags().IntVar(&runs, "runs", 8, "number of seeds")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search drag spring stiffness and relaxation",
		RunE:  tuneDrag,
	}
	tuneCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	tuneCmd.Flags().StringVar(&profile, "profile", config.DefaultProfile, "simulation profile")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [scenario]",
		Short: "render a scenario side view at a given time as svg",
		Args:  cobra.MaximumNArgs(1),
		RunE:  snapshotScenario,
	}
	snapshotCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	snapshotCmd.Flags().StringVar(&profile, "profile", config.DefaultProfile, "simulation profile")
	snapshotCmd.Flags().Float64Var(&at, "at", 1, "scene time to render")
	snapshotCmd.Flags().StringVar(&outPath, "out", "snapshot.svg", "output path")

	rootCmd.AddCommand(snapshotCmd, runCmd, listCmd, plotCmd, analyzeCmd, profilesCmd, scenariosCmd, liveCmd, initCmd, sweepCmd, tuneCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger() dynamo.Logger {
	return dynamo.NewLogger("rigidsim", verbose)
}

// loadConfig reads --config if given, then applies flags the user set
// explicitly on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("profile") {
		if err := cfg.ApplyProfile(profile); err != nil {
			return nil, err
		}
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func scenarioName(cfg *config.Config, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Scenario
}

func defaultMetrics(cfg *config.Config) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewKineticEnergy(),
		metrics.NewEnergyDrift(math.Abs(cfg.Gravity[1])),
		metrics.NewMaxSpeed(),
		metrics.NewStability(50),
		metrics.NewSleepingFraction(),
		metrics.NewSettleTime(),
	}
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	name := scenarioName(cfg, args)
	scene, err := scenario.NewRegistry().Get(name)
	if err != nil {
		return err
	}

	runner := scenario.NewRunner(cfg, newLogger())
	for _, m := range defaultMetrics(cfg) {
		runner.AddMetric(m)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s (%s profile)...\n", name, cfg.Profile)
	start := time.Now()

	result, err := runner.Run(ctx, scene, scenario.RunConfig{FrameDt: frameDt, Duration: cfg.Duration, Seed: cfg.Seed})
	if err != nil && result == nil {
		return err
	}
	if err != nil {
		fmt.Printf("stopped early: %v\n", err)
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("frames: %d  substeps: %d  instabilities: %d  frozen: %d\n",
		result.Stats.Frames, result.Stats.Substeps, result.Stats.Instabilities, result.Stats.Frozen)

	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(storage.RunMetadata{
			Profile:  cfg.Profile,
			Seed:     cfg.Seed,
			Dt:       frameDt,
			Duration: cfg.Duration,
		}, result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	fmt.Println("\nmetrics:")
	for _, n := range sortedKeys(result.Metrics) {
		fmt.Printf("  %s: %.6f\n", n, result.Metrics[n])
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tPROFILE\tTIME\tDURATION\tFRAMES\tFROZEN")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%d\t%d\n",
			run.ID,
			run.Scenario,
			run.Profile,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Stats.Frames,
			run.Stats.Frozen,
		)
	}
	return w.Flush()
}

// loadColumn resolves --body and --field against a run.
func loadColumn(runID string) (*storage.RunMetadata, string, []float64, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, "", nil, err
	}

	h := dynamo.Handle(bodyID)
	if h == 0 {
		if len(meta.Bodies) == 0 {
			return nil, "", nil, fmt.Errorf("run %s tracked no bodies", runID)
		}
		h = meta.Bodies[0]
	}
	column := storage.Column(h, field)
	_, values, err := st.LoadSeries(runID, column)
	if err != nil {
		return nil, "", nil, err
	}
	if len(values) == 0 {
		return nil, "", nil, fmt.Errorf("no data")
	}
	return meta, column, values, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, column, values, err := loadColumn(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(values))
	fmt.Println(viz.Plot(values, column+" vs time", 80, 12))

	s := analysis.Summarize(values)
	fmt.Println()
	fmt.Println(viz.Row("min", fmt.Sprintf("%.4f", s.Min)))
	fmt.Println(viz.Row("max", fmt.Sprintf("%.4f", s.Max)))
	fmt.Println(viz.Row("final", fmt.Sprintf("%.4f", s.Final)))
	fmt.Println(viz.Row("overshoot", fmt.Sprintf("%.4f", s.Overshoot)))

	if svgPath == "" {
		return nil
	}
	return writePathSVG(meta)
}

func writePathSVG(meta *storage.RunMetadata) error {
	st := storage.New(dataDir)
	h := dynamo.Handle(bodyID)
	if h == 0 {
		h = meta.Bodies[0]
	}
	_, xs, err := st.LoadSeries(meta.ID, storage.Column(h, "x"))
	if err != nil {
		return err
	}
	_, ys, err := st.LoadSeries(meta.ID, storage.Column(h, "y"))
	if err != nil {
		return err
	}
	if err := os.WriteFile(svgPath, []byte(viz.PathSVG(xs, ys, 600, 600, "#00ffff")), 0644); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	fmt.Printf("\nwrote %s\n", svgPath)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, column, values, err := loadColumn(args[0])
	if err != nil {
		return err
	}
	rate := 1 / meta.Dt

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("scenario: %s  column: %s\n\n", meta.Scenario, column)

	ps := analysis.PowerSpectrum(values)
	if len(ps) > 8 {
		fmt.Println(viz.Plot(ps[:len(ps)/4], "power spectrum", 80, 15))
		fmt.Println()
	}

	freq := analysis.DominantFrequency(values, rate)
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	name := scenarioName(cfg, args)
	reg := scenario.NewRegistry()
	if _, err := reg.Get(name); err != nil {
		return err
	}

	// The viewer owns the terminal; only errors are worth printing.
	logger := dynamo.NopLogger()
	if verbose {
		logger = newLogger()
	}
	runner := scenario.NewRunner(cfg, logger)
	return tui.Run(tui.NewModel(name, cfg.Profile, func() (*scenario.Env, error) {
		scene, err := reg.Get(name)
		if err != nil {
			return nil, err
		}
		return runner.Build(scene, cfg.Seed)
	}))
}

func sweepScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if runs < 1 {
		return fmt.Errorf("runs must be positive, got %d", runs)
	}
	name := scenarioName(cfg, args)
	reg := scenario.NewRegistry()
	if _, err := reg.Get(name); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	first := cfg.Seed
	if first == 0 {
		first = 1
	}
	ens := scenario.NewEnsemble(cfg, newLogger(), runs, first, func() []dynamo.Metric { return defaultMetrics(cfg) })
	fmt.Printf("sweeping %s over seeds %d..%d...\n", name, first, first+int64(runs)-1)
	start := time.Now()

	results, err := ens.Run(ctx, func() scenario.Scene {
		s, _ := reg.Get(name)
		return s
	}, scenario.RunConfig{FrameDt: frameDt, Duration: cfg.Duration})
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tMIN\tMAX")
	for _, n := range sortedKeys(results[0].Metrics) {
		sp := scenario.MetricSpread(results, n)
		fmt.Fprintf(w, "%s\t%.6f\t%.6f\t%.6f\n", n, sp.Mean, sp.Min, sp.Max)
	}
	return w.Flush()
}

func tuneDrag(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	grid := tuning.NewGridSearch(
		tuning.Axis{Name: tuning.ParamStiffness, Values: []float64{1e4, 1e5, 1e6, 1e7}},
		tuning.Axis{Name: tuning.ParamRelaxation, Values: []float64{2, 3, 5, 8}},
	)
	fmt.Printf("tuning drag spring (%s profile)...\n", cfg.Profile)
	best, trials, err := grid.Search(ctx, tuning.DragLag(cfg, newLogger(), frameDt, 3))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STIFFNESS\tRELAXATION\tLAG")
	for _, tr := range trials {
		score := fmt.Sprintf("%.4f", tr.Score)
		if tr.Err != nil {
			score = tr.Err.Error()
		}
		fmt.Fprintf(w, "%.0e\t%.1f\t%s\n", tr.Params[tuning.ParamStiffness], tr.Params[tuning.ParamRelaxation], score)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nbest: stiffness %.0e relaxation %.1f (lag %.4f m)\n",
		best.Params[tuning.ParamStiffness], best.Params[tuning.ParamRelaxation], best.Score)
	return nil
}

func snapshotScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	scene, err := scenario.NewRegistry().Get(scenarioName(cfg, args))
	if err != nil {
		return err
	}
	env, err := scenario.NewRunner(cfg, newLogger()).Build(scene, cfg.Seed)
	if err != nil {
		return err
	}

	for env.World.Time() < at {
		scene.Frame(env, env.World.Time())
		env.World.Step(frameDt)
	}

	canvas := viz.NewCanvas(120, 40)
	proj := viz.FitProjection(canvas, 12)
	for _, h := range env.World.Handles() {
		if h == env.Drag.Anchor() {
			continue
		}
		b, _ := env.World.Body(h)
		proj.DrawBody(canvas, b)
	}
	if p, ok := env.Drag.AnchorPoint(); ok && env.Drag.Active() {
		proj.Cursor(canvas, p)
	}

	if err := os.WriteFile(outPath, []byte(viz.CanvasSVG(canvas, 4)), 0644); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	fmt.Printf("wrote %s at t=%.2fs\n", outPath, env.World.Time())
	return nil
}
