package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/evosim/internal/config"
	"github.com/san-kum/evosim/internal/creature"
	"github.com/san-kum/evosim/internal/evolution"
	"github.com/san-kum/evosim/internal/integrators"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Population = 8
	cfg.Generations = 3
	cfg.Workers = 1
	cfg.Seed = 11
	cfg.Behavior.FitnessTrials = 1
	return cfg
}

func recordRun(t *testing.T, st *Store) (*Run, *evolution.Result) {
	t.Helper()
	cfg := testConfig()
	run, err := st.Create(cfg)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	evo, err := evolution.New(cfg,
		evolution.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		evolution.WithObserver(run))
	if err != nil {
		t.Fatal(err)
	}
	defer evo.Close()

	result, err := evo.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := run.Finish(result); err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	return run, result
}

func TestStoreRunRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	run, result := recordRun(t, st)

	meta, err := st.Load(run.ID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Seed != 11 || meta.Population != 8 || meta.Generations != 3 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.BestFitness != result.BestFitness {
		t.Errorf("best fitness %v, want %v", meta.BestFitness, result.BestFitness)
	}
	if meta.Integrator != config.DefaultIntegrator {
		t.Errorf("integrator %q", meta.Integrator)
	}

	history, err := st.LoadHistory(run.ID)
	if err != nil {
		t.Fatalf("load history failed: %v", err)
	}
	if history.Len() != 3 {
		t.Fatalf("expected 3 generations, got %d", history.Len())
	}
	want := result.History.Best()
	for i, got := range history.Best() {
		if got != want[i] {
			t.Errorf("generation %d best = %v, want %v", i, got, want[i])
		}
	}

	best, err := st.LoadBest(run.ID)
	if err != nil {
		t.Fatalf("load best failed: %v", err)
	}
	if best.Fitness != result.BestFitness {
		t.Errorf("stored best fitness %v, want %v", best.Fitness, result.BestFitness)
	}

	cfg, err := st.LoadConfig(run.ID)
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	if cfg.Population != 8 || cfg.Behavior.FitnessTrials != 1 {
		t.Errorf("config snapshot %+v", cfg)
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	first, _ := recordRun(t, st)
	second, _ := recordRun(t, st)

	// an unfinished run has no metadata and is skipped
	if _, err := st.Create(testConfig()); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != first.ID || runs[1].ID != second.ID {
		t.Errorf("runs not in creation order: %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestStoreFileStructure(t *testing.T) {
	st := New(t.TempDir())
	run, _ := recordRun(t, st)

	for _, name := range []string{metadataFile, configFile, generationsFile, bestFile} {
		if _, err := os.Stat(filepath.Join(run.Dir(), name)); err != nil {
			t.Errorf("%s not created: %v", name, err)
		}
	}
}

func TestLoadBestMissing(t *testing.T) {
	st := New(t.TempDir())
	run, err := st.Create(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.LoadBest(run.ID); !errors.Is(err, ErrNoBest) {
		t.Errorf("expected ErrNoBest, got %v", err)
	}
}

func TestCreatureFile(t *testing.T) {
	species := creature.NewSpecies(3, creature.DefaultParams(), integrators.NewMidpoint())
	var c creature.Creature
	species.Randomize(&c)

	path := filepath.Join(t.TempDir(), "random.creature")
	if err := SaveCreature(path, &c); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := LoadCreature(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded != c {
		t.Error("loaded creature differs from saved one")
	}

	if err := os.WriteFile(path, []byte("not a creature"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCreature(path); !errors.Is(err, creature.ErrRecordSize) {
		t.Errorf("expected ErrRecordSize, got %v", err)
	}
}
