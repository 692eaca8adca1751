package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/evosim/internal/storage"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestEvolveStoresRun(t *testing.T) {
	dir := t.TempDir()
	err := execute(t, "--data", dir, "--log-format", "json",
		"evolve", "--preset", "quick", "--population", "8", "--generations", "2", "--workers", "1", "--archive")
	if err != nil {
		t.Fatalf("evolve failed: %v", err)
	}

	runs, err := storage.New(dir).List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if run.Population != 8 || run.Generations != 2 {
		t.Errorf("flags not applied over preset: %+v", run)
	}

	for _, args := range [][]string{
		{"list"},
		{"show", run.ID},
		{"show", run.ID, "--svg", filepath.Join(dir, "rest.svg"), "--track", filepath.Join(dir, "track.svg"), "--periods", "1"},
		{"plot", run.ID},
		{"hall", "--limit", "5"},
		{"presets"},
	} {
		if err := execute(t, append([]string{"--data", dir}, args...)...); err != nil {
			t.Errorf("%v failed: %v", args, err)
		}
	}
	for _, name := range []string{"rest.svg", "track.svg"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestRandomWritesCreature(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.creature")
	if err := execute(t, "random", path, "--seed", "4"); err != nil {
		t.Fatalf("random failed: %v", err)
	}
	if _, err := storage.LoadCreature(path); err != nil {
		t.Errorf("written creature unreadable: %v", err)
	}
	if err := execute(t, "show", path); err != nil {
		t.Errorf("show file failed: %v", err)
	}
}

func TestEvolveRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	tests := [][]string{
		{"evolve", "--preset", "nope"},
		{"evolve", "--population", "2"},
		{"evolve", "--integrator", "leapfrog"},
		{"--log-format", "xml", "list"},
	}
	for _, args := range tests {
		if err := execute(t, append([]string{"--data", dir}, args...)...); err == nil {
			t.Errorf("%v succeeded", args)
		}
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("rejected runs left %d entries", len(entries))
	}
}

func TestBatchRunsScenario(t *testing.T) {
	dir := t.TempDir()
	scenario := filepath.Join(dir, "scenario.yaml")
	body := "name: tiny\nsteps:\n  - preset: quick\n    population: 8\n    generations: 1\n    seeds: [1, 2]\n    sweep:\n      - param: friction\n        values: [0.5, 1]\n"
	if err := os.WriteFile(scenario, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	data := filepath.Join(dir, "data")
	if err := execute(t, "--data", data, "batch", scenario); err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	runs, err := storage.New(data).List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 4 {
		t.Errorf("expected 4 runs, got %d", len(runs))
	}

	if err := execute(t, "--data", data, "batch", filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("missing scenario accepted")
	}
}
