// Package automation runs batches of evolution runs described in YAML.
package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/evosim/internal/config"
	"github.com/san-kum/evosim/internal/evolution"
	"github.com/san-kum/evosim/internal/storage"
)

var (
	ErrEmptyScenario = errors.New("automation: scenario has no runs")
	ErrUnknownParam  = errors.New("automation: unknown sweep parameter")
)

// Scenario is a named list of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep describes one configuration, evolved once per seed. Zero
// values keep the preset's setting.
type ScenarioStep struct {
	Preset      string   `yaml:"preset"`
	Config      string   `yaml:"config"`
	Population  int      `yaml:"population"`
	Generations int      `yaml:"generations"`
	Integrator  string   `yaml:"integrator"`
	Target      *float64 `yaml:"target"`
	Seeds       []int64  `yaml:"seeds"`
	Sweep       []Sweep  `yaml:"sweep"`
}

// Sweep lists values for one parameter. A step with several sweeps runs
// every combination.
type Sweep struct {
	Param  string    `yaml:"param"`
	Values []float64 `yaml:"values"`
}

var sweepParams = map[string]func(*config.Config, float64){
	"gravity":        func(c *config.Config, v float64) { c.Physics.Gravity = v },
	"damping":        func(c *config.Config, v float64) { c.Physics.Damping = v },
	"restitution":    func(c *config.Config, v float64) { c.Physics.Restitution = v },
	"friction":       func(c *config.Config, v float64) { c.Physics.Friction = v },
	"period":         func(c *config.Config, v float64) { c.Behavior.Period = v },
	"action_density": func(c *config.Config, v float64) { c.Behavior.ActionDensity = v },
	"max_energy":     func(c *config.Config, v float64) { c.Behavior.MaxEnergy = v },
}

// LoadScenario loads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &scenario, nil
}

// Job is one run of a scenario. Jobs of the same cell share every setting
// but the seed.
type Job struct {
	Step   int
	Cell   int
	Seed   int64
	Params map[string]float64
	Config *config.Config
}

// Jobs expands every step into the grid of its sweeps, then into one
// validated configuration per seed. A step without seeds runs once with its
// configured seed.
func (s *Scenario) Jobs() ([]Job, error) {
	if len(s.Steps) == 0 {
		return nil, ErrEmptyScenario
	}

	var jobs []Job
	cell := 0
	for i, step := range s.Steps {
		base, err := step.config()
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		grid, err := expand(step.Sweep, 0, map[string]float64{}, nil)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}

		seeds := step.Seeds
		if len(seeds) == 0 {
			seeds = []int64{base.Seed}
		}
		for _, params := range grid {
			for _, seed := range seeds {
				cfg := *base
				cfg.Seed = seed
				for name, v := range params {
					sweepParams[name](&cfg, v)
				}
				if err := cfg.Validate(); err != nil {
					return nil, fmt.Errorf("step %d: %w", i+1, err)
				}
				jobs = append(jobs, Job{Step: i, Cell: cell, Seed: seed, Params: params, Config: &cfg})
			}
			cell++
		}
	}
	return jobs, nil
}

func expand(sweeps []Sweep, depth int, current map[string]float64, grid []map[string]float64) ([]map[string]float64, error) {
	if depth == len(sweeps) {
		return append(grid, current), nil
	}

	sw := sweeps[depth]
	if _, ok := sweepParams[sw.Param]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParam, sw.Param)
	}
	if len(sw.Values) == 0 {
		return nil, fmt.Errorf("sweep %q has no values", sw.Param)
	}
	for _, v := range sw.Values {
		next := make(map[string]float64, len(current)+1)
		for k, cv := range current {
			next[k] = cv
		}
		next[sw.Param] = v

		var err error
		if grid, err = expand(sweeps, depth+1, next, grid); err != nil {
			return nil, err
		}
	}
	return grid, nil
}

func (step ScenarioStep) config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if step.Preset != "" {
		cfg = config.GetPreset(step.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", step.Preset)
		}
	}
	if step.Config != "" {
		if err := config.Overlay(step.Config, cfg); err != nil {
			return nil, err
		}
	}
	if step.Population != 0 {
		cfg.Population = step.Population
	}
	if step.Generations != 0 {
		cfg.Generations = step.Generations
	}
	if step.Integrator != "" {
		cfg.Integrator = step.Integrator
	}
	if step.Target != nil {
		cfg.SetTarget(*step.Target)
	}
	return cfg, nil
}

// Outcome is the stored result of one job.
type Outcome struct {
	Job    Job
	RunID  string
	Result *evolution.Result
}

// RunScenario executes every job in order and stores each as a run. It
// stops at the first failure or when ctx is done, returning the outcomes
// finished so far.
func RunScenario(ctx context.Context, scenario *Scenario, store *storage.Store, logger *slog.Logger) ([]Outcome, error) {
	jobs, err := scenario.Jobs()
	if err != nil {
		return nil, err
	}
	if err := store.Init(); err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(jobs))
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		logger.Info("scenario job", "scenario", scenario.Name, "job", i+1, "of", len(jobs),
			"step", job.Step+1, "seed", job.Seed, "params", job.Params)

		out, err := runJob(ctx, job, store, logger)
		if out.Result != nil {
			outcomes = append(outcomes, out)
		}
		if err != nil {
			return outcomes, fmt.Errorf("job %d: %w", i+1, err)
		}
	}
	return outcomes, nil
}

func runJob(ctx context.Context, job Job, store *storage.Store, logger *slog.Logger) (Outcome, error) {
	run, err := store.Create(job.Config)
	if err != nil {
		return Outcome{}, err
	}

	evo, err := evolution.New(job.Config,
		evolution.WithLogger(logger.With("run", run.ID)),
		evolution.WithObserver(run))
	if err != nil {
		return Outcome{}, err
	}
	defer evo.Close()

	result, runErr := evo.Run(ctx)
	if result == nil {
		return Outcome{}, runErr
	}
	if err := run.Finish(result); err != nil {
		return Outcome{}, err
	}
	return Outcome{Job: job, RunID: run.ID, Result: result}, runErr
}

// CellStats summarizes the outcomes of one grid cell across its seeds.
type CellStats struct {
	Cell    int
	Step    int
	Params  map[string]float64
	Runs    int
	Reached int
	Best    float64
	Mean    float64
}

// Stats groups outcomes by cell, in first-seen order. Reached counts runs
// that stopped on their target.
func Stats(outcomes []Outcome) []CellStats {
	var stats []CellStats
	index := make(map[int]int)
	for _, o := range outcomes {
		i, ok := index[o.Job.Cell]
		if !ok {
			i = len(stats)
			index[o.Job.Cell] = i
			stats = append(stats, CellStats{
				Cell:   o.Job.Cell,
				Step:   o.Job.Step,
				Params: o.Job.Params,
				Best:   o.Result.BestFitness,
			})
		}
		s := &stats[i]
		s.Runs++
		s.Mean += o.Result.BestFitness
		s.Best = min(s.Best, o.Result.BestFitness)
		if o.Result.Reason == evolution.StopTarget {
			s.Reached++
		}
	}
	for i := range stats {
		stats[i].Mean /= float64(stats[i].Runs)
	}
	return stats
}

// Best returns the cell with the lowest mean fitness.
func Best(stats []CellStats) (CellStats, bool) {
	if len(stats) == 0 {
		return CellStats{}, false
	}
	best := stats[0]
	for _, s := range stats[1:] {
		if s.Mean < best.Mean {
			best = s
		}
	}
	return best, true
}
