package creature

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidCreature = errors.New("creature: invalid creature")

// FixMuscles remaps muscle endpoints that point past the last node. Both
// endpoints are taken modulo the node count and a resulting self-loop is
// broken by moving the second endpoint to the next node.
func (c *Creature) FixMuscles() {
	n := c.NumNodes
	for i := 0; i < c.NumMuscles; i++ {
		m := &c.Muscles[i]
		if m.First < n && m.Second < n && m.First != m.Second {
			continue
		}
		m.First %= n
		m.Second %= n
		if m.First == m.Second {
			m.Second = (m.Second + 1) % n
		}
	}
}

// Repair restores the structural invariants after the body changed: every
// muscle joins two distinct existing nodes and every node is reachable from
// node 0. Counts are never changed.
func (c *Creature) Repair() {
	c.FixMuscles()
	c.connect()
}

// connect bridges components that node 0 cannot reach by re-anchoring
// muscles that close a cycle. Such muscles exist whenever the graph is
// disconnected because NumMuscles >= NumNodes.
func (c *Creature) connect() {
	var uf unionFind
	uf.reset(c.NumNodes)

	spare := make([]int, 0, c.NumMuscles)
	for i := 0; i < c.NumMuscles; i++ {
		m := &c.Muscles[i]
		if !uf.union(m.First, m.Second) {
			spare = append(spare, i)
		}
	}

	for node := 1; node < c.NumNodes && len(spare) > 0; node++ {
		if uf.find(node) == uf.find(0) {
			continue
		}
		m := &c.Muscles[spare[0]]
		spare = spare[1:]
		m.First = 0
		m.Second = node
		uf.union(0, node)
	}
}

type unionFind struct {
	parent [MaxNodes]int
}

func (u *unionFind) reset(n int) {
	for i := 0; i < n; i++ {
		u.parent[i] = i
	}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

// union merges the sets of a and b and reports whether they were distinct.
func (u *unionFind) union(a, b int) bool {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return false
	}
	u.parent[rb] = ra
	return true
}

// Connected reports whether every node is reachable from node 0 through
// muscles.
func (c *Creature) Connected() bool {
	if c.NumNodes == 0 {
		return false
	}
	var uf unionFind
	uf.reset(c.NumNodes)
	for i := 0; i < c.NumMuscles; i++ {
		uf.union(c.Muscles[i].First, c.Muscles[i].Second)
	}
	root := uf.find(0)
	for i := 1; i < c.NumNodes; i++ {
		if uf.find(i) != root {
			return false
		}
	}
	return true
}

// Validate checks the structural and gene invariants of c.
func (c *Creature) Validate() error {
	if c.NumNodes < MinNodes || c.NumNodes > MaxNodes {
		return fmt.Errorf("%w: %d nodes", ErrInvalidCreature, c.NumNodes)
	}
	if c.NumMuscles < c.NumNodes || c.NumMuscles > MaxMuscles {
		return fmt.Errorf("%w: %d muscles for %d nodes", ErrInvalidCreature, c.NumMuscles, c.NumNodes)
	}

	for i := 0; i < c.NumNodes; i++ {
		n := &c.Nodes[i]
		if n.Initial.IsNaN() || n.Initial.Y < 0 {
			return fmt.Errorf("%w: node %d rests at %v", ErrInvalidCreature, i, n.Initial)
		}
		if n.Friction < MinFriction || n.Friction > MaxFriction || math.IsNaN(n.Friction) {
			return fmt.Errorf("%w: node %d friction %g", ErrInvalidCreature, i, n.Friction)
		}
	}

	for i := 0; i < c.NumMuscles; i++ {
		m := &c.Muscles[i]
		if m.First < 0 || m.First >= c.NumNodes || m.Second < 0 || m.Second >= c.NumNodes || m.First == m.Second {
			return fmt.Errorf("%w: muscle %d joins %d and %d", ErrInvalidCreature, i, m.First, m.Second)
		}
		if !(m.Contracted >= MinContractedLength && m.Contracted <= m.Extended &&
			m.Extended >= MinExtendedLength && m.Extended <= MaxMuscleLength) {
			return fmt.Errorf("%w: muscle %d lengths %g..%g", ErrInvalidCreature, i, m.Contracted, m.Extended)
		}
		if !(m.Strength >= MinStrength && m.Strength <= MaxStrength) {
			return fmt.Errorf("%w: muscle %d strength %g", ErrInvalidCreature, i, m.Strength)
		}
	}

	for i, a := range c.Behavior {
		if a != NoAction && (a < 0 || a >= MaxMuscles) {
			return fmt.Errorf("%w: action %d references muscle %d", ErrInvalidCreature, i, a)
		}
	}

	if !c.Connected() {
		return fmt.Errorf("%w: body is not connected", ErrInvalidCreature)
	}
	return nil
}
