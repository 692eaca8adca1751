// Package integrators provides the fixed-step numerical integrators used to
// advance point masses. An integrator is chosen once per simulation and
// injected into the creature simulator.
package integrators

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/evosim/internal/vec"
)

// ErrUnknown is returned by New for names that are not registered.
var ErrUnknown = errors.New("integrators: unknown integrator")

// Integrator advances one point mass by dt under a constant acceleration.
// Callers must keep dt at or below their stability micro-step.
type Integrator interface {
	Name() string
	Integrate(pos, vel *vec.Vec3, acc vec.Vec3, dt float64)
}

var registry = map[string]func() Integrator{
	"euler":    func() Integrator { return NewEuler() },
	"explicit": func() Integrator { return NewExplicit() },
	"midpoint": func() Integrator { return NewMidpoint() },
}

// New returns a fresh integrator for name.
func New(name string) (Integrator, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknown, name, Names())
	}
	return fn(), nil
}

// Names lists the registered integrators in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Counting wraps another integrator and counts Integrate calls.
type Counting struct {
	Inner Integrator
	Calls int
}

func NewCounting(inner Integrator) *Counting {
	return &Counting{Inner: inner}
}

func (c *Counting) Name() string { return c.Inner.Name() }

func (c *Counting) Integrate(pos, vel *vec.Vec3, acc vec.Vec3, dt float64) {
	c.Calls++
	c.Inner.Integrate(pos, vel, acc, dt)
}
