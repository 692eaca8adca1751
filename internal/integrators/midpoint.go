package integrators

import "github.com/san-kum/evosim/internal/vec"

// Midpoint moves the position with the average of the velocities at the
// start and end of the step. Exact for constant acceleration.
type Midpoint struct{}

func NewMidpoint() *Midpoint {
	return &Midpoint{}
}

func (m *Midpoint) Name() string { return "midpoint" }

func (m *Midpoint) Integrate(pos, vel *vec.Vec3, acc vec.Vec3, dt float64) {
	v0 := *vel
	v1 := v0.Add(acc.Scale(dt))
	*pos = pos.Add(v0.Add(v1).Scale(0.5 * dt))
	*vel = v1
}
