package creature

import (
	"math"

	"github.com/san-kum/evosim/internal/integrators"
	"github.com/san-kum/evosim/internal/vec"
)

const (
	// timeSlack absorbs rounding when a step lands on an action boundary.
	timeSlack = 1e-12
	// slotSlack keeps a clock sitting exactly on a boundary in the next slot.
	slotSlack = 1e-6
	// restingSteps scales the bounce speed, in time steps of free fall, below
	// which a node sticks to the ground instead of bouncing.
	restingSteps = 4
)

// Simulator steps creatures through time. It holds no per-creature state and
// is safe for concurrent use on distinct creatures as long as its integrator
// is.
type Simulator struct {
	params     Params
	integrator integrators.Integrator
	gravity    vec.Vec3
}

func NewSimulator(params Params, integrator integrators.Integrator) *Simulator {
	return &Simulator{
		params:     params,
		integrator: integrator,
		gravity:    vec.New(0, params.Gravity, 0),
	}
}

func (s *Simulator) Params() Params { return s.params }

func (s *Simulator) Integrator() integrators.Integrator { return s.integrator }

// UpdateFull advances the mass-spring system by dt, which must not exceed
// the configured time step. Muscle flags are left untouched.
func (s *Simulator) UpdateFull(c *Creature, dt float64) {
	for i := 0; i < c.NumNodes; i++ {
		c.Nodes[i].Acceleration = s.gravity
	}

	for i := 0; i < c.NumMuscles; i++ {
		m := &c.Muscles[i]
		if vec.NearZero(m.Strength) {
			continue
		}
		first, second := &c.Nodes[m.First], &c.Nodes[m.Second]

		delta := second.Position.Sub(first.Position)
		length := delta.Length()
		if vec.NearZero(length) {
			continue
		}
		dir := delta.Scale(1 / length)

		// Strength is per unit of target length.
		target := m.Target()
		force := -(m.Strength / target) * (target - length)
		force -= s.params.Damping * (dir.Dot(first.Velocity) - dir.Dot(second.Velocity))

		f := dir.Scale(force)
		first.Acceleration = first.Acceleration.Add(f)
		second.Acceleration = second.Acceleration.Sub(f)

		if m.Contracting {
			c.Energy += dt * math.Abs(force)
		}
	}

	for i := 0; i < c.NumNodes; i++ {
		n := &c.Nodes[i]
		if !vec.NearZero(n.Position.Y) || vec.NearZero(n.Friction) || n.Velocity.IsZero() {
			continue
		}
		friction := n.Velocity.Scale(-s.params.Friction * n.Friction).Horizontal()
		n.Acceleration = n.Acceleration.Add(friction)
	}

	resting := restingSteps * math.Abs(s.params.Gravity) * s.params.TimeStep
	for i := 0; i < c.NumNodes; i++ {
		n := &c.Nodes[i]
		s.integrator.Integrate(&n.Position, &n.Velocity, n.Acceleration, dt)

		if n.Position.Y <= vec.Epsilon {
			n.Position.Y = 0
			n.Velocity.Y *= -s.params.Restitution
			if math.Abs(n.Velocity.Y) < resting {
				n.Velocity.Y = 0
			}
		}
	}
}

// Update advances the creature by an arbitrary dt, split into whole time
// steps plus one remainder step.
func (s *Simulator) Update(c *Creature, dt float64) {
	if dt <= 0 {
		return
	}
	ts := s.params.TimeStep
	steps := int(dt / ts)
	for i := 0; i < steps; i++ {
		s.UpdateFull(c, ts)
	}
	if rem := dt - float64(steps)*ts; rem > timeSlack {
		s.UpdateFull(c, rem)
	}
}

// Animate advances the biological clock by dt while playing back the
// behavior. Each time the clock crosses the end of an action slot the
// muscle referenced by that slot is toggled.
func (s *Simulator) Animate(c *Creature, dt float64) {
	at := s.params.ActionTime()
	for dt > timeSlack {
		if s.exhausted(c) {
			c.Relax()
			s.Update(c, dt)
			c.Clock += dt
			return
		}

		slot := int(math.Floor(c.Clock/at + slotSlack))
		boundary := float64(slot+1) * at
		step := boundary - c.Clock
		if dt < step-timeSlack {
			s.Update(c, dt)
			c.Clock += dt
			return
		}

		s.Update(c, step)
		c.Clock = boundary
		dt -= step
		if s.exhausted(c) {
			continue
		}
		s.fire(c, slot%MaxActions)
	}
}

func (s *Simulator) fire(c *Creature, slot int) {
	a := c.Behavior[slot]
	if a < 0 || a >= c.NumMuscles {
		return
	}
	c.Muscles[a].Contracting = !c.Muscles[a].Contracting
}

func (s *Simulator) exhausted(c *Creature) bool {
	return s.params.EnergyDeath && c.Energy > s.params.MaxEnergy
}

// Reset puts the creature back in its rest pose with relaxed muscles and a
// zero clock.
func (s *Simulator) Reset(c *Creature) {
	c.Clock = 0
	c.Energy = 0
	c.Relax()
	for i := 0; i < c.NumNodes; i++ {
		n := &c.Nodes[i]
		n.Position = n.Initial
		n.Velocity = vec.Zero
		n.Acceleration = vec.Zero
	}
}

// Settle lets the relaxed creature come to rest under gravity and stores the
// resulting pose as its new rest pose. The creature is left Reset.
func (s *Simulator) Settle(c *Creature) {
	s.Reset(c)
	prev := c.MeanSpeed()
	for t := 0.0; t < s.params.MaxSettleTime; t += s.params.SettleInterval {
		s.Update(c, s.params.SettleInterval)
		speed := c.MeanSpeed()
		if speed < s.params.SettleTolerance && math.Abs(speed-prev) < s.params.SettleTolerance {
			break
		}
		prev = speed
	}

	if !c.diverged() {
		for i := 0; i < c.NumNodes; i++ {
			c.Nodes[i].Initial = c.Nodes[i].Position
		}
	}
	s.Reset(c)
}

// Fitness scores forward locomotion along +X. Lower is fitter. The score is
// memoized on the creature; a memoized creature is only Reset.
func (s *Simulator) Fitness(c *Creature) float64 {
	if c.Evaluated() {
		s.Reset(c)
		return c.Fitness
	}

	s.Settle(c)

	var forward, vertical, lateral float64
	for trial := 0; trial < s.params.FitnessTrials; trial++ {
		start := c.Centroid()
		s.Animate(c, s.params.BehaviorTime)
		d := c.Centroid().Sub(start)
		forward += d.X
		vertical += math.Abs(d.Y)
		lateral += math.Abs(d.Z)
	}

	score := -(forward - vertical - lateral) / float64(s.params.FitnessTrials)
	if math.IsNaN(score) || math.IsInf(score, 0) {
		score = math.MaxFloat64
	}

	c.Fitness = score
	s.Reset(c)
	return score
}
