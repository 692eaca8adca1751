package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/san-kum/evosim/internal/creature"
	"github.com/san-kum/evosim/internal/integrators"
)

func openArchive(t *testing.T) *Archive {
	t.Helper()
	a := NewArchive(filepath.Join(t.TempDir(), "hall.db"))
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func scored(species *creature.Species, fitness float64) *creature.Creature {
	var c creature.Creature
	species.Randomize(&c)
	c.Fitness = fitness
	return &c
}

func TestArchiveTop(t *testing.T) {
	ctx := context.Background()
	a := openArchive(t)
	species := creature.NewSpecies(5, creature.DefaultParams(), integrators.NewMidpoint())

	for i, f := range []float64{-0.2, -1.5, 0.3, -0.9} {
		if _, err := a.Add(ctx, "run", i, scored(species, f)); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}

	top, err := a.Top(ctx, 3)
	if err != nil {
		t.Fatalf("top failed: %v", err)
	}
	want := []float64{-1.5, -0.9, -0.2}
	if len(top) != len(want) {
		t.Fatalf("expected %d champions, got %d", len(want), len(top))
	}
	for i, ch := range top {
		if ch.Fitness != want[i] || ch.Creature.Fitness != want[i] {
			t.Errorf("champion %d fitness = %v, want %v", i, ch.Fitness, want[i])
		}
	}
	if top[0].Generation != 1 || top[0].RunID != "run" {
		t.Errorf("unexpected champion %+v", top[0])
	}
}

func TestArchiveGet(t *testing.T) {
	ctx := context.Background()
	a := openArchive(t)
	species := creature.NewSpecies(6, creature.DefaultParams(), integrators.NewMidpoint())
	c := scored(species, -0.4)

	added, err := a.Add(ctx, "run", 7, c)
	if err != nil {
		t.Fatal(err)
	}

	got, ok, err := a.Get(ctx, added.ID)
	if err != nil || !ok {
		t.Fatalf("get failed: ok=%v err=%v", ok, err)
	}
	if got.Creature != *c {
		t.Error("archived creature differs from the original")
	}
	if !got.CreatedAt.Equal(added.CreatedAt) {
		t.Errorf("created at %v, want %v", got.CreatedAt, added.CreatedAt)
	}

	if _, ok, err := a.Get(ctx, "missing"); ok || err != nil {
		t.Errorf("missing champion: ok=%v err=%v", ok, err)
	}
}

func TestArchiveRejectsUnevaluated(t *testing.T) {
	a := openArchive(t)
	species := creature.NewSpecies(7, creature.DefaultParams(), integrators.NewMidpoint())
	var c creature.Creature
	species.Randomize(&c)

	if _, err := a.Add(context.Background(), "run", 0, &c); !errors.Is(err, ErrUnevaluated) {
		t.Errorf("expected ErrUnevaluated, got %v", err)
	}
}

func TestArchiveClosed(t *testing.T) {
	a := NewArchive(filepath.Join(t.TempDir(), "hall.db"))
	if _, err := a.Top(context.Background(), 1); !errors.Is(err, ErrArchiveClosed) {
		t.Errorf("expected ErrArchiveClosed, got %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("closing an unopened archive: %v", err)
	}
}
