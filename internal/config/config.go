package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/evosim/internal/creature"
	"github.com/san-kum/evosim/internal/genetic"
	"github.com/san-kum/evosim/internal/integrators"
)

const (
	DefaultPopulation  = 100
	DefaultGenerations = 100
	DefaultSeed        = 1
	DefaultIntegrator  = "midpoint"
)

var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	Population  int    `yaml:"population"`
	Generations int    `yaml:"generations"`
	Seed        int64  `yaml:"seed"`
	Workers     int    `yaml:"workers"`
	Integrator  string `yaml:"integrator"`

	// Target stops the run once the best fitness is at or below it.
	Target *float64 `yaml:"target,omitempty"`

	Physics  PhysicsConfig  `yaml:"physics"`
	Behavior BehaviorConfig `yaml:"behavior"`
	Settle   SettleConfig   `yaml:"settle"`
}

type PhysicsConfig struct {
	TimeStep    float64 `yaml:"time_step"`
	Gravity     float64 `yaml:"gravity"`
	Damping     float64 `yaml:"damping"`
	Restitution float64 `yaml:"restitution"`
	Friction    float64 `yaml:"friction"`
}

type BehaviorConfig struct {
	Period        float64 `yaml:"period"`
	ActionDensity float64 `yaml:"action_density"`
	FitnessTrials int     `yaml:"fitness_trials"`
	MaxMutations  int     `yaml:"max_mutations"`
	MaxEnergy     float64 `yaml:"max_energy"`
	EnergyDeath   bool    `yaml:"energy_death"`
}

type SettleConfig struct {
	Tolerance float64 `yaml:"tolerance"`
	Interval  float64 `yaml:"interval"`
	MaxTime   float64 `yaml:"max_time"`
}

func DefaultConfig() *Config {
	p := creature.DefaultParams()
	return &Config{
		Population:  DefaultPopulation,
		Generations: DefaultGenerations,
		Seed:        DefaultSeed,
		Integrator:  DefaultIntegrator,
		Physics: PhysicsConfig{
			TimeStep:    p.TimeStep,
			Gravity:     p.Gravity,
			Damping:     p.Damping,
			Restitution: p.Restitution,
			Friction:    p.Friction,
		},
		Behavior: BehaviorConfig{
			Period:        p.BehaviorTime,
			ActionDensity: p.ActionDensity,
			FitnessTrials: p.FitnessTrials,
			MaxMutations:  p.MaxMutations,
			MaxEnergy:     p.MaxEnergy,
			EnergyDeath:   p.EnergyDeath,
		},
		Settle: SettleConfig{
			Tolerance: p.SettleTolerance,
			Interval:  p.SettleInterval,
			MaxTime:   p.MaxSettleTime,
		},
	}
}

// Load reads a YAML file over the defaults, so a file only needs the keys
// it changes.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := Overlay(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Overlay reads a YAML file over cfg, leaving keys the file omits as they
// are.
func Overlay(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Params converts the physical and behavioral settings.
func (c *Config) Params() creature.Params {
	return creature.Params{
		TimeStep:        c.Physics.TimeStep,
		Gravity:         c.Physics.Gravity,
		Damping:         c.Physics.Damping,
		Restitution:     c.Physics.Restitution,
		Friction:        c.Physics.Friction,
		BehaviorTime:    c.Behavior.Period,
		ActionDensity:   c.Behavior.ActionDensity,
		FitnessTrials:   c.Behavior.FitnessTrials,
		MaxMutations:    c.Behavior.MaxMutations,
		MaxEnergy:       c.Behavior.MaxEnergy,
		EnergyDeath:     c.Behavior.EnergyDeath,
		SettleTolerance: c.Settle.Tolerance,
		SettleInterval:  c.Settle.Interval,
		MaxSettleTime:   c.Settle.MaxTime,
	}
}

// TargetFitness returns the stopping target, -Inf when none is set.
func (c *Config) TargetFitness() float64 {
	if c.Target == nil {
		return math.Inf(-1)
	}
	return *c.Target
}

func (c *Config) SetTarget(target float64) {
	c.Target = &target
}

func (c *Config) Validate() error {
	if c.Population < genetic.MinPopulation || c.Population > genetic.MaxPopulation {
		return fmt.Errorf("%w: population %d not in [%d, %d]",
			ErrInvalid, c.Population, genetic.MinPopulation, genetic.MaxPopulation)
	}
	if c.Generations < 0 {
		return fmt.Errorf("%w: generations must be non-negative, got %d", ErrInvalid, c.Generations)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative, got %d", ErrInvalid, c.Workers)
	}
	if _, err := integrators.New(c.Integrator); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}
