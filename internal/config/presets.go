package config

import "sort"

type Preset struct {
	Description string
	apply       func(*Config)
}

var Presets = map[string]Preset{
	"quick": {
		Description: "small population for smoke runs",
		apply: func(c *Config) {
			c.Population = 20
			c.Generations = 10
			c.Behavior.FitnessTrials = 3
		},
	},
	"standard": {
		Description: "default population and physics",
		apply:       func(c *Config) {},
	},
	"marathon": {
		Description: "large population evolved for a long time",
		apply: func(c *Config) {
			c.Population = 400
			c.Generations = 1000
		},
	},
	"moon": {
		Description: "low gravity with soft bounces",
		apply: func(c *Config) {
			c.Physics.Gravity = -0.17
			c.Physics.Restitution = 0.3
		},
	},
	"ice": {
		Description: "slippery ground",
		apply: func(c *Config) {
			c.Physics.Friction = 2
		},
	},
}

// GetPreset returns a fresh config for the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	p.apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
