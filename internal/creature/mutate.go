package creature

import "math"

// Mutation enumerates the single-gene edits Mutate can apply.
type Mutation int

const (
	NodeAdd Mutation = iota
	NodeRemove
	NodePosition
	NodeFriction
	MuscleAnchor
	MuscleExtended
	MuscleContracted
	MuscleStrength
	MuscleAdd
	MuscleRemove
	ActionAdd
	ActionRemove

	numMutations
)

var mutationNames = [...]string{
	NodeAdd:          "node-add",
	NodeRemove:       "node-remove",
	NodePosition:     "node-position",
	NodeFriction:     "node-friction",
	MuscleAnchor:     "muscle-anchor",
	MuscleExtended:   "muscle-extended",
	MuscleContracted: "muscle-contracted",
	MuscleStrength:   "muscle-strength",
	MuscleAdd:        "muscle-add",
	MuscleRemove:     "muscle-remove",
	ActionAdd:        "action-add",
	ActionRemove:     "action-remove",
}

func (m Mutation) String() string {
	if m < 0 || m >= numMutations {
		return "unknown"
	}
	return mutationNames[m]
}

// Mutations lists every mutation kind.
func Mutations() []Mutation {
	all := make([]Mutation, numMutations)
	for i := range all {
		all[i] = Mutation(i)
	}
	return all
}

// Mutate applies one uniformly chosen mutation to c and returns its kind.
func (s *Species) Mutate(c *Creature) Mutation {
	kind := Mutation(s.rng.Intn(int(numMutations)))
	s.Apply(c, kind)
	return kind
}

// Apply performs a mutation of the given kind. Kinds that would break the
// size bounds leave the body unchanged. The fitness memo is always cleared.
func (s *Species) Apply(c *Creature, kind Mutation) {
	defer c.Invalidate()

	node := &c.Nodes[s.rng.Intn(c.NumNodes)]
	muscle := &c.Muscles[s.rng.Intn(c.NumMuscles)]
	slot := s.rng.Intn(MaxActions)

	switch kind {
	case NodeAdd:
		if c.NumNodes >= MaxNodes || c.NumMuscles >= MaxMuscles {
			return
		}
		i := c.NumNodes
		c.NumNodes++
		s.randomNode(&c.Nodes[i])

		j := c.NumMuscles
		c.NumMuscles++
		m := &c.Muscles[j]
		m.First = i
		m.Second = s.rng.Intn(i)
		s.shapeMuscle(c, m)

	case NodeRemove:
		if c.NumNodes <= MinNodes {
			return
		}
		c.NumNodes--
		c.Nodes[c.NumNodes] = Node{}
		c.Repair()

	case NodePosition:
		friction := node.Friction
		s.randomNode(node)
		node.Friction = friction

	case NodeFriction:
		node.Friction = s.uniform(MinFriction, MaxFriction)

	case MuscleAnchor:
		muscle.Second = s.rng.Intn(c.NumNodes)
		if muscle.First == muscle.Second {
			muscle.Second = (muscle.Second + 1) % c.NumNodes
		}
		c.Repair()

	case MuscleExtended:
		muscle.Extended = s.uniform(math.Max(muscle.Contracted, MinExtendedLength), MaxMuscleLength)

	case MuscleContracted:
		muscle.Contracted = s.uniform(MinContractedLength, muscle.Extended)

	case MuscleStrength:
		muscle.Strength = s.uniform(MinStrength, MaxStrength)

	case MuscleAdd:
		if c.NumMuscles >= MaxMuscles {
			return
		}
		s.randomMuscle(c, c.NumMuscles)
		c.NumMuscles++

	case MuscleRemove:
		if c.NumMuscles <= c.NumNodes {
			return
		}
		c.NumMuscles--
		c.Muscles[c.NumMuscles] = Muscle{}
		c.Repair()

	case ActionAdd:
		c.Behavior[slot] = s.rng.Intn(c.NumMuscles)

	case ActionRemove:
		c.Behavior[slot] = NoAction
	}
}
