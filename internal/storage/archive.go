package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/san-kum/evosim/internal/creature"
)

var (
	ErrArchiveClosed = errors.New("storage: archive is not initialized")
	ErrUnevaluated   = errors.New("storage: creature has no finite fitness")
)

// Champion is one archived creature.
type Champion struct {
	ID         string
	RunID      string
	Generation int
	Fitness    float64
	CreatedAt  time.Time
	Creature   creature.Creature
}

// Archive is a SQLite hall of fame of the best creatures across runs.
type Archive struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewArchive(path string) *Archive {
	return &Archive{path: path}
}

func (a *Archive) Init(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.path == "" {
		return errors.New("storage: archive path is required")
	}
	if a.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", a.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	a.db = db
	return nil
}

// Add stores c as a champion of run. The creature must have been evaluated.
func (a *Archive) Add(ctx context.Context, runID string, generation int, c *creature.Creature) (Champion, error) {
	if !c.Evaluated() || math.IsNaN(c.Fitness) || c.Fitness == math.MaxFloat64 {
		return Champion{}, ErrUnevaluated
	}
	db, err := a.getDB()
	if err != nil {
		return Champion{}, err
	}

	payload, err := c.MarshalBinary()
	if err != nil {
		return Champion{}, err
	}

	ch := Champion{
		ID:         ulid.Make().String(),
		RunID:      runID,
		Generation: generation,
		Fitness:    c.Fitness,
		CreatedAt:  time.Now().UTC().Truncate(time.Millisecond),
		Creature:   *c,
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO champions (id, run_id, generation, fitness, nodes, muscles, created_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			fitness = excluded.fitness,
			payload = excluded.payload
	`, ch.ID, ch.RunID, ch.Generation, ch.Fitness, c.NumNodes, c.NumMuscles, ch.CreatedAt.UnixMilli(), payload)
	if err != nil {
		return Champion{}, err
	}
	return ch, nil
}

func (a *Archive) Get(ctx context.Context, id string) (Champion, bool, error) {
	db, err := a.getDB()
	if err != nil {
		return Champion{}, false, err
	}

	row := db.QueryRowContext(ctx, `
		SELECT id, run_id, generation, fitness, created_at, payload
		FROM champions WHERE id = ?`, id)
	ch, err := scanChampion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Champion{}, false, nil
		}
		return Champion{}, false, err
	}
	return ch, true, nil
}

// Top returns up to limit champions, fittest first.
func (a *Archive) Top(ctx context.Context, limit int) ([]Champion, error) {
	db, err := a.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, run_id, generation, fitness, created_at, payload
		FROM champions ORDER BY fitness ASC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Champion
	for rows.Next() {
		ch, err := scanChampion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

func (a *Archive) getDB() (*sql.DB, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.db == nil {
		return nil, ErrArchiveClosed
	}
	return a.db, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChampion(s scanner) (Champion, error) {
	var (
		ch      Champion
		created int64
		payload []byte
	)
	if err := s.Scan(&ch.ID, &ch.RunID, &ch.Generation, &ch.Fitness, &created, &payload); err != nil {
		return Champion{}, err
	}
	if err := ch.Creature.UnmarshalBinary(payload); err != nil {
		return Champion{}, fmt.Errorf("decode champion %s: %w", ch.ID, err)
	}
	ch.CreatedAt = time.UnixMilli(created).UTC()
	return ch, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS champions (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			fitness REAL NOT NULL,
			nodes INTEGER NOT NULL,
			muscles INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS champions_fitness ON champions (fitness);
	`)
	return err
}
