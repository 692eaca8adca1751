// Package evolution drives a genetic run of creatures: it builds the species
// and engine from a configuration, advances generations and reports each one
// to observers.
package evolution

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/san-kum/evosim/internal/config"
	"github.com/san-kum/evosim/internal/creature"
	"github.com/san-kum/evosim/internal/genetic"
	"github.com/san-kum/evosim/internal/integrators"
	"github.com/san-kum/evosim/internal/metrics"
)

// Stop reasons reported in Result.
const (
	StopTarget      = "target"
	StopGenerations = "generations"
	StopCancelled   = "cancelled"
)

// Report describes one finished generation.
type Report struct {
	Summary     metrics.Summary
	Best        creature.Creature
	BestIndex   int
	BestFitness float64
}

type Result struct {
	Generations int
	Best        creature.Creature
	BestFitness float64
	History     *metrics.History
	Metrics     map[string]float64
	Elapsed     time.Duration
	Reason      string
}

type Evolution struct {
	cfg       *config.Config
	species   *creature.Species
	engine    *genetic.Engine[creature.Creature]
	history   *metrics.History
	metrics   []metrics.Metric
	observers []Observer
	logger    *slog.Logger
}

type Option func(*Evolution)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Evolution) { e.logger = logger }
}

func WithObserver(o Observer) Option {
	return func(e *Evolution) { e.observers = append(e.observers, o) }
}

// WithMetrics replaces the default run metrics.
func WithMetrics(ms ...metrics.Metric) Option {
	return func(e *Evolution) { e.metrics = ms }
}

// New validates cfg and builds a seeded population.
func New(cfg *config.Config, opts ...Option) (*Evolution, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	integrator, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, err
	}

	e := &Evolution{
		cfg:     cfg,
		history: metrics.NewHistory(),
		metrics: metrics.Defaults(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	e.species = creature.NewSpecies(cfg.Seed, cfg.Params(), integrator)
	e.engine, err = genetic.New[creature.Creature](genetic.Config{
		PopulationSize: cfg.Population,
		Workers:        workers,
	}, e.species)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	e.logger.Debug("population created",
		"population", cfg.Population,
		"workers", workers,
		"integrator", integrator.Name(),
		"seed", cfg.Seed)
	return e, nil
}

func (e *Evolution) Config() *config.Config { return e.cfg }

func (e *Evolution) Species() *creature.Species { return e.species }

func (e *Evolution) History() *metrics.History { return e.history }

func (e *Evolution) Generations() int { return e.engine.Generations() }

// Step runs one generation and notifies every observer.
func (e *Evolution) Step() (Report, error) {
	start := time.Now()
	gen := e.engine.Generations()
	if err := e.engine.Generation(); err != nil {
		return Report{}, err
	}

	summary := metrics.Summarize(gen, e.engine.Scores())
	summary.MeanNodes, summary.MeanMuscles = e.bodySize()
	summary.ElapsedMs = time.Since(start).Milliseconds()

	best, _ := e.engine.BestSnapshot()
	report := Report{
		Summary:     summary,
		Best:        best,
		BestIndex:   e.engine.BestIndex(),
		BestFitness: e.engine.BestFitness(),
	}

	e.history.Add(summary)
	for _, m := range e.metrics {
		m.Observe(summary)
	}
	for _, o := range e.observers {
		o.OnGeneration(report)
	}
	return report, nil
}

// Run steps until the configured generation count or target fitness is
// reached, or ctx is done. On cancellation the result so far is returned
// together with the context error.
func (e *Evolution) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	target := e.cfg.TargetFitness()
	result := &Result{
		History:     e.history,
		BestFitness: creature.FitnessUnset,
		Reason:      StopGenerations,
	}

	var ctxErr error
	for e.cfg.Generations == 0 || e.engine.Generations() < e.cfg.Generations {
		if err := ctx.Err(); err != nil {
			result.Reason = StopCancelled
			ctxErr = err
			break
		}
		report, err := e.Step()
		if err != nil {
			return nil, err
		}
		result.Best = report.Best
		result.BestFitness = report.BestFitness
		if report.BestFitness <= target {
			result.Reason = StopTarget
			break
		}
	}

	result.Generations = e.engine.Generations()
	result.Elapsed = time.Since(start)
	result.Metrics = make(map[string]float64, len(e.metrics))
	for _, m := range e.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	e.logger.Info("run finished",
		"generations", result.Generations,
		"best", result.BestFitness,
		"reason", result.Reason,
		"elapsed", result.Elapsed.Round(time.Millisecond))

	return result, ctxErr
}

// Close releases the population.
func (e *Evolution) Close() {
	e.engine.Destroy()
}

func (e *Evolution) bodySize() (nodes, muscles float64) {
	n := e.engine.Size()
	for i := range n {
		c := e.engine.Entity(i)
		nodes += float64(c.NumNodes)
		muscles += float64(c.NumMuscles)
	}
	return nodes / float64(n), muscles / float64(n)
}
