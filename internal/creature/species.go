package creature

import (
	"math"
	"math/rand"

	"github.com/san-kum/evosim/internal/integrators"
	"github.com/san-kum/evosim/internal/vec"
)

// Species provides the genetic operators for creatures: random creation,
// breeding with mutation, and fitness. Randomize, Breed and Mutate draw from
// a single seeded source and must be called from one goroutine. Fitness uses
// no randomness.
type Species struct {
	*Simulator
	rng *rand.Rand
}

func NewSpecies(seed int64, params Params, integrator integrators.Integrator) *Species {
	return &Species{
		Simulator: NewSimulator(params, integrator),
		rng:       rand.New(rand.NewSource(seed)),
	}
}

func (s *Species) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

// between returns an int in [lo, hi].
func (s *Species) between(lo, hi int) int {
	return lo + s.rng.Intn(hi-lo+1)
}

func (s *Species) coin() bool {
	return s.rng.Intn(2) == 0
}

// Randomize overwrites c with a random connected creature.
func (s *Species) Randomize(c *Creature) {
	*c = Creature{}
	c.NumNodes = s.between(MinNodes, MaxNodes)
	c.NumMuscles = s.between(c.NumNodes, MaxMuscles)
	c.Fitness = FitnessUnset

	for i := 0; i < c.NumNodes; i++ {
		s.randomNode(&c.Nodes[i])
	}
	for i := 0; i < c.NumMuscles; i++ {
		s.randomMuscle(c, i)
	}

	for i := range c.Behavior {
		if s.rng.Float64() < s.params.ActionDensity {
			c.Behavior[i] = s.rng.Intn(c.NumMuscles)
		} else {
			c.Behavior[i] = NoAction
		}
	}
}

func (s *Species) randomNode(n *Node) {
	n.Initial = vec.New(
		s.uniform(MinPosition, MaxPosition),
		s.uniform(0, MaxHeight),
		s.uniform(MinPosition, MaxPosition),
	)
	n.Position = n.Initial
	n.Velocity = vec.Zero
	n.Acceleration = vec.Zero
	n.Friction = s.uniform(MinFriction, MaxFriction)
}

// randomMuscle builds muscle i of c. The first NumNodes muscles tie node i to
// an earlier node, which keeps the body connected by induction.
func (s *Species) randomMuscle(c *Creature, i int) {
	m := &c.Muscles[i]
	if i < c.NumNodes {
		m.First = i
		m.Second = 0
		if i > 0 {
			m.Second = s.rng.Intn(i)
		}
	} else {
		m.First = s.rng.Intn(c.NumNodes)
		m.Second = s.rng.Intn(c.NumNodes)
	}
	if m.First == m.Second {
		m.Second = (m.Second + 1) % c.NumNodes
	}
	s.shapeMuscle(c, m)
}

// shapeMuscle derives the muscle lengths from the rest distance between its
// nodes and rolls a new strength.
func (s *Species) shapeMuscle(c *Creature, m *Muscle) {
	length := c.Nodes[m.Second].Initial.Sub(c.Nodes[m.First].Initial).Length()
	m.Extended = vec.Clamp(length, MinExtendedLength, MaxMuscleLength)
	m.Contracted = s.uniform(math.Max(MinContractedLength, m.Extended/2), m.Extended)
	m.Strength = s.uniform(MinStrength, MaxStrength)
	m.Contracting = false
}

// Breed writes two independent children of mother and father into son and
// daughter. The children must not alias either parent.
func (s *Species) Breed(mother, father, son, daughter *Creature) {
	s.Cross(mother, father, son)
	s.Cross(mother, father, daughter)
}

// Cross recombines mother and father into child and applies up to
// MaxMutations random mutations.
func (s *Species) Cross(mother, father, child *Creature) {
	plan := father
	if s.coin() {
		plan = mother
	}
	*child = Creature{
		NumNodes:   plan.NumNodes,
		NumMuscles: plan.NumMuscles,
		Fitness:    FitnessUnset,
	}

	for i := 0; i < child.NumNodes; i++ {
		src := s.pick(mother, father, i, mother.NumNodes, father.NumNodes)
		n := src.Nodes[i]
		n.Position = n.Initial
		n.Velocity = vec.Zero
		n.Acceleration = vec.Zero
		child.Nodes[i] = n
	}

	for i := 0; i < child.NumMuscles; i++ {
		src := s.pick(mother, father, i, mother.NumMuscles, father.NumMuscles)
		child.Muscles[i] = src.Muscles[i]
		child.Muscles[i].Contracting = false
	}
	child.Repair()

	cut := s.rng.Intn(MaxActions)
	copy(child.Behavior[:cut], mother.Behavior[:cut])
	copy(child.Behavior[cut:], father.Behavior[cut:])

	for n := s.rng.Intn(s.params.MaxMutations + 1); n > 0; n-- {
		s.Mutate(child)
	}
	child.Invalidate()
}

// pick chooses the parent that donates slot i, falling back to the other
// parent when the chosen one is too small.
func (s *Species) pick(mother, father *Creature, i, motherLen, fatherLen int) *Creature {
	if (s.coin() && i < motherLen) || i >= fatherLen {
		return mother
	}
	return father
}
