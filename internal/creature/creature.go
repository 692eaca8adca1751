// Package creature implements mass-spring creatures: their fixed-capacity
// body records, the physics that moves them, the cyclic muscle behavior that
// drives locomotion and the genetic operators used to evolve them.
//
// A Creature is a plain value. It holds no pointers, so copying a Creature
// copies the whole genome and simulation state.
package creature

import (
	"math"

	"github.com/san-kum/evosim/internal/vec"
)

// Capacities of the fixed-size arrays inside a Creature.
const (
	MinNodes   = 4
	MaxNodes   = 16
	MaxMuscles = MaxNodes * 2
	MaxActions = MaxMuscles * MaxMuscles
)

// NoAction marks a behavior slot that toggles nothing.
const NoAction = -1

// Gene bounds.
const (
	MinPosition = -1.0
	MaxPosition = 1.0
	MaxHeight   = 1.0

	MinFriction = 0.0
	MaxFriction = 1.0

	MinStrength = 0.001
	MaxStrength = 100.0

	MinContractedLength = 0.25
	MinExtendedLength   = 0.5
	MaxMuscleLength     = 2.0
)

// FitnessUnset is the memo value of a creature whose fitness has not been
// computed since its genome last changed.
var FitnessUnset = math.Inf(1)

// Node is a unit point mass.
type Node struct {
	Initial      vec.Vec3
	Position     vec.Vec3
	Velocity     vec.Vec3
	Acceleration vec.Vec3
	Friction     float64
}

// Muscle is a spring between two distinct nodes that switches between an
// extended and a contracted rest length.
type Muscle struct {
	First, Second int
	Extended      float64
	Contracted    float64
	Strength      float64
	Contracting   bool
}

// Target returns the rest length the muscle is currently pulling toward.
func (m *Muscle) Target() float64 {
	if m.Contracting {
		return m.Contracted
	}
	return m.Extended
}

// Motion is one period of a gait. Each slot holds a muscle index whose
// contraction flag is toggled when the slot ends, or NoAction.
type Motion [MaxActions]int

// Actions counts the slots that reference a muscle.
func (m *Motion) Actions() int {
	n := 0
	for _, a := range m {
		if a != NoAction {
			n++
		}
	}
	return n
}

type Creature struct {
	NumNodes   int
	NumMuscles int

	// Clock is the biological clock in simulated seconds.
	Clock  float64
	Energy float64

	// Fitness is the memoized score, FitnessUnset until computed.
	Fitness float64

	Nodes    [MaxNodes]Node
	Muscles  [MaxMuscles]Muscle
	Behavior Motion
}

// Evaluated reports whether the fitness memo holds a computed score.
func (c *Creature) Evaluated() bool {
	return !math.IsInf(c.Fitness, 1)
}

// Invalidate clears the fitness memo.
func (c *Creature) Invalidate() {
	c.Fitness = FitnessUnset
}

// Centroid returns the mean position of the active nodes.
func (c *Creature) Centroid() vec.Vec3 {
	var sum vec.Vec3
	if c.NumNodes == 0 {
		return sum
	}
	for i := 0; i < c.NumNodes; i++ {
		sum = sum.Add(c.Nodes[i].Position)
	}
	return sum.Scale(1 / float64(c.NumNodes))
}

// MeanSpeed returns the mean velocity magnitude of the active nodes.
func (c *Creature) MeanSpeed() float64 {
	if c.NumNodes == 0 {
		return 0
	}
	total := 0.0
	for i := 0; i < c.NumNodes; i++ {
		total += c.Nodes[i].Velocity.Length()
	}
	return total / float64(c.NumNodes)
}

// Relax releases every muscle.
func (c *Creature) Relax() {
	for i := range c.Muscles {
		c.Muscles[i].Contracting = false
	}
}

func (c *Creature) diverged() bool {
	for i := 0; i < c.NumNodes; i++ {
		if c.Nodes[i].Position.IsNaN() || c.Nodes[i].Velocity.IsNaN() {
			return true
		}
	}
	return false
}
