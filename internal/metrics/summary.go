// Package metrics summarizes the fitness of a population generation by
// generation and tracks run-level indicators over those summaries.
package metrics

import (
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the fitness distribution of one generation. Scores that
// are not finite, or that saturate at math.MaxFloat64, count as diverged and
// are left out of the statistics.
type Summary struct {
	Generation int     `csv:"generation"`
	Population int     `csv:"population"`
	Best       float64 `csv:"best"`
	Worst      float64 `csv:"worst"`
	Mean       float64 `csv:"mean"`
	StdDev     float64 `csv:"stddev"`
	P10        float64 `csv:"p10"`
	Median     float64 `csv:"median"`
	P90        float64 `csv:"p90"`
	Diverged   int     `csv:"diverged"`

	MeanNodes   float64 `csv:"mean_nodes"`
	MeanMuscles float64 `csv:"mean_muscles"`
	ElapsedMs   int64   `csv:"elapsed_ms"`
}

// Summarize computes the statistics of one generation's scores.
func Summarize(generation int, scores []float64) Summary {
	s := Summary{Generation: generation, Population: len(scores)}

	valid := make([]float64, 0, len(scores))
	for _, f := range scores {
		if math.IsNaN(f) || math.IsInf(f, 0) || f == math.MaxFloat64 {
			s.Diverged++
			continue
		}
		valid = append(valid, f)
	}
	if len(valid) == 0 {
		s.Best, s.Worst = math.Inf(1), math.Inf(1)
		return s
	}

	slices.Sort(valid)
	s.Best = floats.Min(valid)
	s.Worst = floats.Max(valid)
	s.Mean, s.StdDev = stat.MeanStdDev(valid, nil)
	if len(valid) < 2 {
		s.StdDev = 0
	}
	s.P10 = stat.Quantile(0.10, stat.Empirical, valid, nil)
	s.Median = stat.Quantile(0.50, stat.Empirical, valid, nil)
	s.P90 = stat.Quantile(0.90, stat.Empirical, valid, nil)
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Int("population", s.Population),
		slog.Float64("best", s.Best),
		slog.Float64("worst", s.Worst),
		slog.Float64("mean", s.Mean),
		slog.Float64("stddev", s.StdDev),
		slog.Float64("median", s.Median),
		slog.Int("diverged", s.Diverged),
		slog.Float64("mean_nodes", s.MeanNodes),
		slog.Float64("mean_muscles", s.MeanMuscles),
		slog.Int64("elapsed_ms", s.ElapsedMs),
	)
}
