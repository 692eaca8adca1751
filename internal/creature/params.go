package creature

import (
	"errors"
	"fmt"
)

var ErrInvalidParams = errors.New("creature: invalid parameters")

// Params holds the physical and behavioral constants of a simulation. They
// are fixed when a Simulator is built.
type Params struct {
	TimeStep    float64 // largest integration micro-step in seconds
	Gravity     float64 // vertical acceleration
	Damping     float64 // spring damping along the muscle axis
	Restitution float64 // fraction of vertical speed kept on ground impact
	Friction    float64 // ground friction scale, multiplied by node friction

	BehaviorTime  float64 // seconds per gait period
	ActionDensity float64 // probability that a random action slot is used

	FitnessTrials int
	MaxMutations  int

	MaxEnergy   float64
	EnergyDeath bool

	SettleTolerance float64
	SettleInterval  float64
	MaxSettleTime   float64
}

func DefaultParams() Params {
	return Params{
		TimeStep:        0.005,
		Gravity:         -1.0,
		Damping:         1.5,
		Restitution:     0.6,
		Friction:        20.0,
		BehaviorTime:    1.0,
		ActionDensity:   0.5,
		FitnessTrials:   10,
		MaxMutations:    4,
		MaxEnergy:       65536,
		EnergyDeath:     true,
		SettleTolerance: 1e-3,
		SettleInterval:  0.05,
		MaxSettleTime:   10.0,
	}
}

// ActionTime is the duration of one behavior slot.
func (p Params) ActionTime() float64 {
	return p.BehaviorTime / MaxActions
}

func (p Params) Validate() error {
	switch {
	case p.TimeStep <= 0:
		return fmt.Errorf("%w: time step must be positive, got %g", ErrInvalidParams, p.TimeStep)
	case p.BehaviorTime <= 0:
		return fmt.Errorf("%w: behavior time must be positive, got %g", ErrInvalidParams, p.BehaviorTime)
	case p.Damping < 0:
		return fmt.Errorf("%w: damping must be non-negative, got %g", ErrInvalidParams, p.Damping)
	case p.Restitution < 0 || p.Restitution > 1:
		return fmt.Errorf("%w: restitution must be in [0,1], got %g", ErrInvalidParams, p.Restitution)
	case p.Friction < 0:
		return fmt.Errorf("%w: friction must be non-negative, got %g", ErrInvalidParams, p.Friction)
	case p.ActionDensity < 0 || p.ActionDensity > 1:
		return fmt.Errorf("%w: action density must be in [0,1], got %g", ErrInvalidParams, p.ActionDensity)
	case p.FitnessTrials < 1:
		return fmt.Errorf("%w: need at least one fitness trial, got %d", ErrInvalidParams, p.FitnessTrials)
	case p.MaxMutations < 0:
		return fmt.Errorf("%w: max mutations must be non-negative, got %d", ErrInvalidParams, p.MaxMutations)
	case p.MaxEnergy <= 0:
		return fmt.Errorf("%w: max energy must be positive, got %g", ErrInvalidParams, p.MaxEnergy)
	case p.SettleInterval <= 0 || p.MaxSettleTime < 0:
		return fmt.Errorf("%w: settle interval must be positive", ErrInvalidParams)
	}
	return nil
}
