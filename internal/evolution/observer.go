package evolution

import (
	"context"
	"log/slog"
)

// Observer is notified after every generation. Observers run on the
// goroutine that calls Step.
type Observer interface {
	OnGeneration(r Report)
}

type ObserverFunc func(r Report)

func (f ObserverFunc) OnGeneration(r Report) { f(r) }

// LogObserver writes one structured record per generation.
type LogObserver struct {
	logger *slog.Logger
	every  int
}

// NewLogObserver logs every n-th generation at info level and the rest at
// debug level.
func NewLogObserver(logger *slog.Logger, every int) *LogObserver {
	if every < 1 {
		every = 1
	}
	return &LogObserver{logger: logger, every: every}
}

func (o *LogObserver) OnGeneration(r Report) {
	level := slog.LevelDebug
	if r.Summary.Generation%o.every == 0 {
		level = slog.LevelInfo
	}
	o.logger.LogAttrs(context.Background(), level, "generation",
		slog.Any("stats", r.Summary),
		slog.Int("best_nodes", r.Best.NumNodes),
		slog.Int("best_muscles", r.Best.NumMuscles),
	)
}
