package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/evosim/internal/vec"
)

func TestMidpointFreeFallExact(t *testing.T) {
	integ := NewMidpoint()
	g := vec.New(0, -1, 0)

	pos := vec.New(0, 10, 0)
	vel := vec.New(1, 0, 0)
	dt := 0.005
	steps := 400

	for i := 0; i < steps; i++ {
		integ.Integrate(&pos, &vel, g, dt)
	}

	elapsed := float64(steps) * dt
	expectedY := 10 - 0.5*elapsed*elapsed
	if math.Abs(pos.Y-expectedY) > 1e-9 {
		t.Errorf("position error too large: got %.9f, expected %.9f", pos.Y, expectedY)
	}
	if math.Abs(pos.X-elapsed) > 1e-9 {
		t.Errorf("horizontal drift: got %.9f, expected %.9f", pos.X, elapsed)
	}
	if math.Abs(vel.Y+elapsed) > 1e-9 {
		t.Errorf("velocity error too large: got %.9f, expected %.9f", vel.Y, -elapsed)
	}
}

func TestEulerOrdering(t *testing.T) {
	acc := vec.New(0, 2, 0)
	dt := 0.5

	pos, vel := vec.Zero, vec.Zero
	NewEuler().Integrate(&pos, &vel, acc, dt)
	if pos.Y != 0.5 || vel.Y != 1 {
		t.Errorf("semi-implicit euler: pos=%v vel=%v", pos, vel)
	}

	pos, vel = vec.Zero, vec.Zero
	NewExplicit().Integrate(&pos, &vel, acc, dt)
	if pos.Y != 0 || vel.Y != 1 {
		t.Errorf("explicit euler: pos=%v vel=%v", pos, vel)
	}
}

func TestIntegratorsConverge(t *testing.T) {
	g := vec.New(0, -1, 0)
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			integ, err := New(name)
			if err != nil {
				t.Fatalf("New(%q): %v", name, err)
			}
			if integ.Name() != name {
				t.Errorf("Name() = %q, want %q", integ.Name(), name)
			}

			pos, vel := vec.New(0, 1, 0), vec.Zero
			for i := 0; i < 200; i++ {
				integ.Integrate(&pos, &vel, g, 0.005)
			}
			if math.Abs(pos.Y-0.5) > 0.01 {
				t.Errorf("after 1s of free fall y = %.4f, want ~0.5", pos.Y)
			}
		})
	}
}

func TestNewUnknown(t *testing.T) {
	_, err := New("rk9")
	if !errors.Is(err, ErrUnknown) {
		t.Errorf("expected ErrUnknown, got %v", err)
	}
}

func TestCounting(t *testing.T) {
	c := NewCounting(NewEuler())
	pos, vel := vec.Zero, vec.Zero
	for i := 0; i < 7; i++ {
		c.Integrate(&pos, &vel, vec.New(0, -1, 0), 0.01)
	}
	if c.Calls != 7 {
		t.Errorf("expected 7 calls, got %d", c.Calls)
	}
	if c.Name() != "euler" {
		t.Errorf("Name() = %q", c.Name())
	}
}
