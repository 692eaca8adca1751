// Package storage keeps evolution runs on disk, one directory per run, and a
// SQLite hall of fame of champion creatures.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/oklog/ulid/v2"

	"github.com/san-kum/evosim/internal/config"
	"github.com/san-kum/evosim/internal/creature"
	"github.com/san-kum/evosim/internal/evolution"
	"github.com/san-kum/evosim/internal/metrics"
)

const (
	metadataFile    = "metadata.json"
	configFile      = "config.yaml"
	generationsFile = "generations.csv"
	bestFile        = "best.creature"
)

var ErrNoBest = errors.New("storage: run has no best creature")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID          string             `json:"id"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Population  int                `json:"population"`
	Generations int                `json:"generations"`
	Integrator  string             `json:"integrator"`
	BestFitness float64            `json:"best_fitness"`
	Reason      string             `json:"reason"`
	ElapsedMs   int64              `json:"elapsed_ms"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Create starts a new run directory holding a snapshot of cfg. The returned
// Run records generations as an evolution observer.
func (s *Store) Create(cfg *config.Config) (*Run, error) {
	id := ulid.Make().String()
	dir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	if err := config.Save(filepath.Join(dir, configFile), cfg); err != nil {
		return nil, fmt.Errorf("write config: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, generationsFile))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", generationsFile, err)
	}

	return &Run{
		ID:          id,
		dir:         dir,
		cfg:         cfg,
		csv:         f,
		started:     time.Now(),
		bestFitness: creature.FitnessUnset,
	}, nil
}

// List returns the metadata of every finished run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	// ULIDs sort by creation time
	slices.SortFunc(runs, func(a, b RunMetadata) int { return strings.Compare(a.ID, b.ID) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

// LoadHistory reads the per-generation summaries of a run.
func (s *Store) LoadHistory(runID string) (*metrics.History, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, generationsFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []metrics.Summary
	if err := gocsv.UnmarshalFile(f, &rows); err != nil && !errors.Is(err, gocsv.ErrEmptyCSVFile) {
		return nil, fmt.Errorf("reading %s: %w", generationsFile, err)
	}

	h := metrics.NewHistory()
	for _, row := range rows {
		h.Add(row)
	}
	return h, nil
}

func (s *Store) LoadBest(runID string) (creature.Creature, error) {
	c, err := LoadCreature(filepath.Join(s.baseDir, runID, bestFile))
	if errors.Is(err, os.ErrNotExist) {
		return c, fmt.Errorf("%w: %s", ErrNoBest, runID)
	}
	return c, err
}

// Run is one run directory being written.
type Run struct {
	ID string

	dir           string
	cfg           *config.Config
	csv           *os.File
	headerWritten bool
	started       time.Time

	bestFitness float64
	err         error
}

func (r *Run) Dir() string { return r.dir }

// OnGeneration appends the generation summary and rewrites best.creature
// when the champion improved. The first error stops further writes and is
// returned by Finish.
func (r *Run) OnGeneration(rep evolution.Report) {
	if r.err != nil {
		return
	}
	if err := r.writeSummary(rep.Summary); err != nil {
		r.err = err
		return
	}
	if rep.BestFitness < r.bestFitness {
		if err := SaveCreature(filepath.Join(r.dir, bestFile), &rep.Best); err != nil {
			r.err = fmt.Errorf("writing %s: %w", bestFile, err)
			return
		}
		r.bestFitness = rep.BestFitness
	}
}

func (r *Run) writeSummary(s metrics.Summary) error {
	records := []metrics.Summary{s}

	if !r.headerWritten {
		if err := gocsv.Marshal(records, r.csv); err != nil {
			return fmt.Errorf("writing generations: %w", err)
		}
		r.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, r.csv); err != nil {
		return fmt.Errorf("writing generations: %w", err)
	}
	return nil
}

// Finish writes metadata.json from result and closes the run. A run
// without metadata is not listed.
func (r *Run) Finish(result *evolution.Result) error {
	closeErr := r.csv.Close()
	if r.err != nil {
		return r.err
	}
	if closeErr != nil {
		return closeErr
	}

	meta := RunMetadata{
		ID:          r.ID,
		Timestamp:   r.started,
		Seed:        r.cfg.Seed,
		Population:  r.cfg.Population,
		Generations: result.Generations,
		Integrator:  r.cfg.Integrator,
		BestFitness: result.BestFitness,
		Reason:      result.Reason,
		ElapsedMs:   result.Elapsed.Milliseconds(),
		Metrics:     finiteMetrics(result.Metrics),
	}
	if math.IsInf(meta.BestFitness, 0) || math.IsNaN(meta.BestFitness) {
		// JSON has no representation for non-finite numbers
		meta.BestFitness = math.MaxFloat64
	}

	f, err := os.Create(filepath.Join(r.dir, metadataFile))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func finiteMetrics(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			continue
		}
		out[k] = v
	}
	return out
}
