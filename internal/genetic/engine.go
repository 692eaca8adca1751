package genetic

import (
	"context"
	"fmt"
	"math"
)

const (
	MinPopulation = 4
	MaxPopulation = 1 << 20
)

// Operators supplies the entity-specific parts of the algorithm.
type Operators[T any] interface {
	// Randomize overwrites entity with a random individual.
	Randomize(entity *T)
	// Breed writes two children of mother and father. Parents must not be
	// modified and never alias the children.
	Breed(mother, father, son, daughter *T)
	// Fitness scores entity, lower is fitter. It must be deterministic for
	// an unchanged entity; it may update a memo inside the entity.
	Fitness(entity *T) float64
}

type Config struct {
	PopulationSize int
	// Workers is the number of goroutines evaluating fitness. Zero or one
	// evaluates on the calling goroutine.
	Workers int
}

// NewbornCount returns how many individuals each generation replaces.
func NewbornCount(populationSize int) int {
	return 2 * (populationSize / 4)
}

// Engine evolves a population of T in place.
type Engine[T any] struct {
	cfg Config
	ops Operators[T]

	population []T
	newborn    []T
	scores     []float64
	order      []int
	ranking    ranking

	best        int
	bestFitness float64
	generations int
	destroyed   bool
}

// New allocates an engine and fills its population with Randomize.
func New[T any](cfg Config, ops Operators[T]) (*Engine[T], error) {
	if ops == nil {
		return nil, ErrNoOperators
	}
	if cfg.PopulationSize < MinPopulation || cfg.PopulationSize > MaxPopulation {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]",
			ErrPopulationSize, cfg.PopulationSize, MinPopulation, MaxPopulation)
	}

	n := cfg.PopulationSize
	e := &Engine[T]{
		cfg:         cfg,
		ops:         ops,
		population:  make([]T, n),
		newborn:     make([]T, NewbornCount(n)),
		scores:      make([]float64, n),
		order:       make([]int, n),
		ranking:     make(ranking, 0, n),
		best:        -1,
		bestFitness: math.Inf(1),
	}
	for i := range e.population {
		ops.Randomize(&e.population[i])
	}
	for i := range e.scores {
		e.scores[i] = math.Inf(1)
	}
	return e, nil
}

// Generation evaluates and ranks the population, then replaces it in place.
// The fittest NewbornCount individuals breed in pairs and survive, their
// children overwrite the NewbornCount least fit, and any individuals ranked
// between the two groups are re-randomized.
func (e *Engine[T]) Generation() error {
	if e.destroyed {
		return ErrDestroyed
	}

	parallelFor(len(e.population), e.cfg.Workers, func(i int) {
		e.scores[i] = e.ops.Fitness(&e.population[i])
	})

	e.ranking.drain(e.scores, e.order)
	e.best = e.order[0]
	e.bestFitness = e.scores[e.best]

	nBreed := len(e.newborn)
	for n := 0; n < nBreed; n += 2 {
		mother := &e.population[e.order[n]]
		father := &e.population[e.order[n+1]]
		e.ops.Breed(mother, father, &e.newborn[n], &e.newborn[n+1])
	}

	victims := e.order[len(e.order)-nBreed:]
	for n, idx := range victims {
		e.population[idx] = e.newborn[n]
	}

	for _, idx := range e.order[nBreed : len(e.order)-nBreed] {
		e.ops.Randomize(&e.population[idx])
	}

	e.generations++
	return nil
}

// Solve runs generations until the best fitness reaches target or
// maxGenerations have run. Zero means no generation limit. The context is
// checked between generations. It returns the number of generations run.
func (e *Engine[T]) Solve(ctx context.Context, target float64, maxGenerations int) (int, error) {
	for n := 0; maxGenerations <= 0 || n < maxGenerations; {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if err := e.Generation(); err != nil {
			return n, err
		}
		n++
		if e.bestFitness <= target {
			return n, nil
		}
	}
	return maxGenerations, nil
}

// Best returns the fittest individual of the last generation, or nil before
// the first one. The pointer aliases the population and is only valid until
// the next call to Generation.
func (e *Engine[T]) Best() *T {
	if e.best < 0 || e.destroyed {
		return nil
	}
	return &e.population[e.best]
}

// BestSnapshot returns a copy of the fittest individual of the last
// generation.
func (e *Engine[T]) BestSnapshot() (T, bool) {
	var zero T
	if p := e.Best(); p != nil {
		return *p, true
	}
	return zero, false
}

// BestIndex returns the population slot of the best individual, or -1.
func (e *Engine[T]) BestIndex() int { return e.best }

// BestFitness returns the best score of the last generation, +Inf before
// the first one.
func (e *Engine[T]) BestFitness() float64 { return e.bestFitness }

// Scores returns a copy of the last generation's fitness by population slot.
func (e *Engine[T]) Scores() []float64 {
	out := make([]float64, len(e.scores))
	copy(out, e.scores)
	return out
}

func (e *Engine[T]) Generations() int { return e.generations }

func (e *Engine[T]) Size() int { return len(e.population) }

// Entity returns the individual at slot i. Like Best, the pointer is only
// valid until the next Generation.
func (e *Engine[T]) Entity(i int) *T { return &e.population[i] }

// Destroy releases the population and scratch storage. Later calls to
// Generation fail with ErrDestroyed.
func (e *Engine[T]) Destroy() {
	e.population = nil
	e.newborn = nil
	e.scores = nil
	e.order = nil
	e.ranking = nil
	e.best = -1
	e.destroyed = true
}
