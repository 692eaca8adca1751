package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/evosim/internal/automation"
	"github.com/san-kum/evosim/internal/config"
	"github.com/san-kum/evosim/internal/creature"
	"github.com/san-kum/evosim/internal/evolution"
	"github.com/san-kum/evosim/internal/export"
	"github.com/san-kum/evosim/internal/integrators"
	"github.com/san-kum/evosim/internal/metrics"
	"github.com/san-kum/evosim/internal/storage"
	"github.com/san-kum/evosim/internal/viz"
)

const archiveFile = "hall.db"

var (
	dataDir   string
	logFormat string
	verbose   bool

	configFile  string
	preset      string
	population  int
	generations int
	target      float64
	seed        int64
	workers     int
	integrator  string
	archive     bool
	logEvery    int

	svgFile      string
	trackFile    string
	trackPeriods int

	randomSeed int64
	evaluate   bool
	hallLimit  int
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "evosim",
		Short: "evolve walking mass-spring creatures",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".evosim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text or json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every generation")

	evolveCmd := &cobra.Command{
		Use:   "evolve",
		Short: "evolve a population and store the run",
		Args:  cobra.NoArgs,
		RunE:  runEvolve,
	}
	evolveCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	evolveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	evolveCmd.Flags().IntVar(&population, "population", config.DefaultPopulation, "population size")
	evolveCmd.Flags().IntVar(&generations, "generations", config.DefaultGenerations, "generations to run, 0 runs until interrupted")
	evolveCmd.Flags().Float64Var(&target, "target", 0, "stop once the best fitness reaches this value")
	evolveCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	evolveCmd.Flags().IntVar(&workers, "workers", 0, "fitness workers, 0 uses every CPU")
	evolveCmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator,
		"integrator ("+strings.Join(integrators.Names(), ", ")+")")
	evolveCmd.Flags().BoolVar(&archive, "archive", false, "add the champion to the hall of fame")
	evolveCmd.Flags().IntVar(&logEvery, "log-every", 10, "log a generation summary every n generations")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id|file.creature]",
		Short: "describe the champion of a run or a creature file",
		Args:  cobra.ExactArgs(1),
		RunE:  showCreature,
	}
	showCmd.Flags().StringVar(&svgFile, "svg", "", "write a snapshot of the creature at rest")
	showCmd.Flags().StringVar(&trackFile, "track", "", "write the centroid's ground track as svg")
	showCmd.Flags().IntVar(&trackPeriods, "periods", 10, "behavior periods to track")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot fitness over generations",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	watchCmd := &cobra.Command{
		Use:   "watch [run_id|file.creature]",
		Short: "watch a creature walk, or pick a run to watch",
		Args:  cobra.MaximumNArgs(1),
		RunE:  watchCreature,
	}

	randomCmd := &cobra.Command{
		Use:   "random [file.creature]",
		Short: "write a random creature",
		Args:  cobra.ExactArgs(1),
		RunE:  randomCreature,
	}
	randomCmd.Flags().Int64Var(&randomSeed, "seed", time.Now().UnixNano(), "random seed")
	randomCmd.Flags().BoolVar(&evaluate, "evaluate", false, "compute the fitness before writing")

	hallCmd := &cobra.Command{
		Use:   "hall",
		Short: "list the hall of fame",
		Args:  cobra.NoArgs,
		RunE:  listHall,
	}
	hallCmd.Flags().IntVar(&hallLimit, "limit", 10, "number of champions")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "evolve every run of a scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	rootCmd.AddCommand(evolveCmd, listCmd, showCmd, plotCmd, watchCmd, randomCmd, hallCmd, batchCmd, presetsCmd)
	return rootCmd
}

func setupLogging() error {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	switch logFormat {
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("unknown log format %q (text or json)", logFormat)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// buildConfig layers the preset, the config file and explicitly set flags,
// later layers winning.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		if err := config.Overlay(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("population") {
		cfg.Population = population
	}
	if flags.Changed("generations") {
		cfg.Generations = generations
	}
	if flags.Changed("target") {
		cfg.SetTarget(target)
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	return cfg, cfg.Validate()
}

func runEvolve(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	run, err := st.Create(cfg)
	if err != nil {
		return err
	}

	logger := slog.Default().With("run", run.ID)
	evo, err := evolution.New(cfg,
		evolution.WithLogger(logger),
		evolution.WithObserver(run),
		evolution.WithObserver(evolution.NewLogObserver(logger, logEvery)))
	if err != nil {
		return err
	}
	defer evo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("run %s: population %d, seed %d\n", run.ID, cfg.Population, cfg.Seed)
	result, runErr := evo.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if err := run.Finish(result); err != nil {
		return fmt.Errorf("saving run: %w", err)
	}

	if archive && result.Generations > 0 {
		if err := archiveChampion(cmd.Context(), run.ID, result); err != nil {
			return err
		}
	}

	fmt.Printf("generations: %d (%s)\n", result.Generations, result.Reason)
	fmt.Printf("best fitness: %.6f (%.4f per period)\n", result.BestFitness, -result.BestFitness)
	fmt.Printf("elapsed: %s\n", result.Elapsed.Round(time.Millisecond))
	return nil
}

func archiveChampion(ctx context.Context, runID string, result *evolution.Result) error {
	a := storage.NewArchive(filepath.Join(dataDir, archiveFile))
	if err := a.Init(ctx); err != nil {
		return fmt.Errorf("open hall of fame: %w", err)
	}
	defer a.Close()

	ch, err := a.Add(ctx, runID, result.Generations-1, &result.Best)
	if err != nil {
		return fmt.Errorf("archive champion: %w", err)
	}
	slog.Info("champion archived", "id", ch.ID, "fitness", ch.Fitness)
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	outcomes, runErr := automation.RunScenario(ctx, scenario, storage.New(dataDir), slog.Default())
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tPARAMS\tRUNS\tTARGET\tBEST\tMEAN")
	stats := automation.Stats(outcomes)
	for _, s := range stats {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%.4f\t%.4f\n",
			s.Step+1, formatParams(s.Params), s.Runs, s.Reached, s.Best, s.Mean)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if best, ok := automation.Best(stats); ok && len(stats) > 1 {
		fmt.Printf("\nbest: step %d %s (mean %.4f)\n", best.Step+1, formatParams(best.Params), best.Mean)
	}
	return nil
}

func formatParams(params map[string]float64) string {
	if len(params) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, params[k])
	}
	return strings.Join(parts, " ")
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
	fmt.Fprintln(w, "ID\tTIME\tPOP\tGENS\tSEED\tINTEG\tBEST\tSTOP")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\t%.4f\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Population,
			run.Generations,
			run.Seed,
			run.Integrator,
			run.BestFitness,
			run.Reason,
		)
	}

	return w.Flush()
}

// loadSubject resolves a creature file or the champion of a stored run. The
// history and config are only set for runs.
func loadSubject(arg string) (creature.Creature, *config.Config, *metrics.History, error) {
	if strings.HasSuffix(arg, ".creature") {
		c, err := storage.LoadCreature(arg)
		return c, config.DefaultConfig(), nil, err
	}

	st := storage.New(dataDir)
	c, err := st.LoadBest(arg)
	if err != nil {
		return c, nil, nil, err
	}
	cfg, err := st.LoadConfig(arg)
	if err != nil {
		return c, nil, nil, err
	}
	history, err := st.LoadHistory(arg)
	if err != nil {
		return c, nil, nil, err
	}
	return c, cfg, history, nil
}

func newSimulator(cfg *config.Config) (*creature.Simulator, error) {
	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	return creature.NewSimulator(cfg.Params(), integ), nil
}

func showCreature(cmd *cobra.Command, args []string) error {
	c, cfg, history, err := loadSubject(args[0])
	if err != nil {
		return err
	}
	if history != nil {
		fmt.Printf("run: %s (%d generations)\n", args[0], history.Len())
	}
	if err := c.Describe(os.Stdout); err != nil {
		return err
	}

	if svgFile == "" && trackFile == "" {
		return nil
	}
	sim, err := newSimulator(cfg)
	if err != nil {
		return err
	}
	if svgFile != "" {
		sim.Settle(&c)
		if err := writeFile(svgFile, func(f *os.File) error { return export.WriteSnapshot(f, &c, 4) }); err != nil {
			return err
		}
		fmt.Printf("snapshot: %s\n", svgFile)
	}
	if trackFile != "" {
		points := export.Track(sim, &c, trackPeriods, 0.05)
		svg := export.TrackToSVG(points, 600, 400, "#00ff88")
		if err := os.WriteFile(trackFile, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("track: %s (%d periods)\n", trackFile, trackPeriods)
	}
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	history, err := st.LoadHistory(runID)
	if err != nil {
		return err
	}
	if history.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("generations: %d\n\n", history.Len())

	mean := history.Mean()
	for i, v := range mean {
		// an all-diverged generation has no mean
		if math.IsInf(v, 0) || math.IsNaN(v) {
			mean[i] = 0
		}
		mean[i] = -mean[i]
	}

	series := []struct {
		caption string
		data    []float64
	}{
		{"best distance per period", history.Distance()},
		{"mean distance per period", mean},
	}
	for _, s := range series {
		graph := asciigraph.Plot(s.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func watchCreature(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		c, cfg, history, err := loadSubject(args[0])
		if err != nil {
			return err
		}
		sim, err := newSimulator(cfg)
		if err != nil {
			return err
		}
		return viz.Run(viz.NewModel(sim, c, filepath.Base(args[0]), history))
	}

	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	choices := make([]viz.Choice, len(runs))
	for i, run := range runs {
		choices[i] = viz.Choice{
			ID:     run.ID,
			Label:  run.ID,
			Detail: fmt.Sprintf("%d gens, best %.4f", run.Generations, run.BestFitness),
		}
	}
	return viz.Run(viz.NewBrowser(choices, func(ch viz.Choice) (viz.Model, error) {
		c, cfg, history, err := loadSubject(ch.ID)
		if err != nil {
			return viz.Model{}, err
		}
		sim, err := newSimulator(cfg)
		if err != nil {
			return viz.Model{}, err
		}
		return viz.NewModel(sim, c, ch.Label, history), nil
	}))
}

func randomCreature(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return err
	}
	species := creature.NewSpecies(randomSeed, cfg.Params(), integ)

	var c creature.Creature
	species.Randomize(&c)
	if evaluate {
		species.Fitness(&c)
	}
	if err := storage.SaveCreature(args[0], &c); err != nil {
		return err
	}
	fmt.Printf("wrote %s (seed %d)\n", args[0], randomSeed)
	return c.Describe(os.Stdout)
}

func listHall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a := storage.NewArchive(filepath.Join(dataDir, archiveFile))
	if err := a.Init(ctx); err != nil {
		return err
	}
	defer a.Close()

	champions, err := a.Top(ctx, hallLimit)
	if err != nil {
		return err
	}
	if len(champions) == 0 {
		fmt.Println("hall of fame is empty")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tFITNESS\tNODES\tMUSCLES\tRUN\tGEN\tADDED")
	for i, ch := range champions {
		fmt.Fprintf(w, "%d\t%.4f\t%d\t%d\t%s\t%d\t%s\n",
			i+1,
			ch.Fitness,
			ch.Creature.NumNodes,
			ch.Creature.NumMuscles,
			ch.RunID,
			ch.Generation,
			ch.CreatedAt.Local().Format("2006-01-02 15:04"),
		)
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPOP\tGENS\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", name, cfg.Population, cfg.Generations, config.Presets[name].Description)
	}
	return w.Flush()
}
