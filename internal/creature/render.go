package creature

import (
	"fmt"
	"io"
	"iter"

	"github.com/san-kum/evosim/internal/vec"
)

// NodeState classifies a node for shading.
type NodeState int

const (
	Airborne NodeState = iota
	Grounded
	Exhausted
)

func (s NodeState) String() string {
	switch s {
	case Grounded:
		return "grounded"
	case Exhausted:
		return "exhausted"
	default:
		return "airborne"
	}
}

// AllNodes yields a copy of every active node with its index.
func (c *Creature) AllNodes() iter.Seq2[int, Node] {
	return func(yield func(int, Node) bool) {
		for i := 0; i < c.NumNodes; i++ {
			if !yield(i, c.Nodes[i]) {
				return
			}
		}
	}
}

// AllMuscles yields a copy of every active muscle with its index.
func (c *Creature) AllMuscles() iter.Seq2[int, Muscle] {
	return func(yield func(int, Muscle) bool) {
		for i := 0; i < c.NumMuscles; i++ {
			if !yield(i, c.Muscles[i]) {
				return
			}
		}
	}
}

// Endpoints returns the current positions of the nodes joined by m.
func (c *Creature) Endpoints(m Muscle) (vec.Vec3, vec.Vec3) {
	return c.Nodes[m.First].Position, c.Nodes[m.Second].Position
}

// OnGround reports whether n is touching the ground plane.
func OnGround(n Node) bool {
	return vec.NearZero(n.Position.Y)
}

// NodeState reports how a renderer should shade node i of c.
func (s *Simulator) NodeState(c *Creature, i int) NodeState {
	switch {
	case s.exhausted(c):
		return Exhausted
	case OnGround(c.Nodes[i]):
		return Grounded
	default:
		return Airborne
	}
}

// Describe writes a human-readable dump of the creature's genome.
func (c *Creature) Describe(w io.Writer) error {
	fitness := "unevaluated"
	if c.Evaluated() {
		fitness = fmt.Sprintf("%.4f", c.Fitness)
	}
	if _, err := fmt.Fprintf(w, "Creature: %d nodes, %d muscles, %d actions, fitness %s\n",
		c.NumNodes, c.NumMuscles, c.Behavior.Actions(), fitness); err != nil {
		return err
	}

	for i, n := range c.AllNodes() {
		if _, err := fmt.Fprintf(w, "  Node %d: at <%.2f, %.2f, %.2f>, friction %.3f\n",
			i, n.Initial.X, n.Initial.Y, n.Initial.Z, n.Friction); err != nil {
			return err
		}
	}

	for i, m := range c.AllMuscles() {
		state := "extending"
		if m.Contracting {
			state = "contracting"
		}
		if _, err := fmt.Fprintf(w, "  Muscle %d (%d to %d): length %.2f to %.2f (%s), strength %.2f\n",
			i, m.First, m.Second, m.Contracted, m.Extended, state, m.Strength); err != nil {
			return err
		}
	}
	return nil
}
