package integrators

import "github.com/san-kum/evosim/internal/vec"

// Euler is the semi-implicit Euler step: velocity first, then position with
// the updated velocity.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Integrate(pos, vel *vec.Vec3, acc vec.Vec3, dt float64) {
	*vel = vel.Add(acc.Scale(dt))
	*pos = pos.Add(vel.Scale(dt))
}

// Explicit is the forward Euler step: position from the old velocity, then
// velocity.
type Explicit struct{}

func NewExplicit() *Explicit {
	return &Explicit{}
}

func (e *Explicit) Name() string { return "explicit" }

func (e *Explicit) Integrate(pos, vel *vec.Vec3, acc vec.Vec3, dt float64) {
	*pos = pos.Add(vel.Scale(dt))
	*vel = vel.Add(acc.Scale(dt))
}
