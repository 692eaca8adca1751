// Package genetic implements a generic genetic algorithm over a fixed-size
// population.
//
// The engine never looks inside an entity. It works only through an
// [Operators] implementation:
//
//   - Randomize overwrites an entity with a fresh random one
//   - Breed writes two children of a pair of parents
//   - Fitness scores an entity, lower is fitter
//
// Each [Engine.Generation] ranks the population with a min-heap, breeds the
// fittest pairs, overwrites the least fit individuals with the children and
// re-randomizes whoever is left in between. The population size never
// changes.
//
// # Example
//
//	species := creature.NewSpecies(seed, creature.DefaultParams(), integrators.NewMidpoint())
//	engine, err := genetic.New[creature.Creature](genetic.Config{PopulationSize: 100}, species)
//	generations, err := engine.Solve(ctx, -1.0, 500)
//
// # Thread Safety
//
// An Engine is not safe for concurrent use. With Config.Workers above one,
// Fitness is called from several goroutines at once, each on a distinct
// entity; Randomize and Breed always run on the calling goroutine.
package genetic
