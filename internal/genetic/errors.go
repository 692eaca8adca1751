package genetic

import "errors"

var (
	// ErrPopulationSize indicates a population outside [MinPopulation, MaxPopulation].
	ErrPopulationSize = errors.New("genetic: population size out of range")

	// ErrNoOperators indicates a nil Operators implementation.
	ErrNoOperators = errors.New("genetic: no operators")

	// ErrDestroyed indicates use of an engine after Destroy.
	ErrDestroyed = errors.New("genetic: engine destroyed")
)
