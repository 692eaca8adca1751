package metrics

import (
	"log/slog"
	"math"
	"testing"
)

func TestSummarize(t *testing.T) {
	scores := []float64{7, 3, 10, 1, 5, 9, 2, 8, 6, 4}
	s := Summarize(4, scores)

	tests := []struct {
		name     string
		got      float64
		expected float64
	}{
		{"best", s.Best, 1},
		{"worst", s.Worst, 10},
		{"mean", s.Mean, 5.5},
		{"stddev", s.StdDev, math.Sqrt(82.5 / 9)},
		{"p10", s.P10, 1},
		{"median", s.Median, 5},
		{"p90", s.P90, 9},
	}
	for _, tt := range tests {
		if math.Abs(tt.got-tt.expected) > 1e-9 {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.expected)
		}
	}
	if s.Generation != 4 || s.Population != 10 || s.Diverged != 0 {
		t.Errorf("unexpected header: %+v", s)
	}
	if scores[0] != 7 {
		t.Error("Summarize reordered the input")
	}
}

func TestSummarizeDiverged(t *testing.T) {
	s := Summarize(0, []float64{math.MaxFloat64, 2, math.NaN(), math.Inf(1)})
	if s.Diverged != 3 {
		t.Errorf("diverged = %d, want 3", s.Diverged)
	}
	if s.Best != 2 || s.Worst != 2 || s.StdDev != 0 {
		t.Errorf("single valid score summarized as %+v", s)
	}

	empty := Summarize(0, []float64{math.MaxFloat64})
	if !math.IsInf(empty.Best, 1) {
		t.Errorf("best of all-diverged generation = %v, want +Inf", empty.Best)
	}
}

func TestSummaryLogValue(t *testing.T) {
	v := Summarize(1, []float64{1, 2}).LogValue()
	if v.Kind() != slog.KindGroup {
		t.Fatalf("LogValue kind = %v, want group", v.Kind())
	}
	found := false
	for _, attr := range v.Group() {
		if attr.Key == "best" && attr.Value.Float64() == 1 {
			found = true
		}
	}
	if !found {
		t.Error("LogValue missing best=1")
	}
}

func TestImprovement(t *testing.T) {
	m := NewImprovement()
	for _, best := range []float64{0.5, 0.2, 0.3, -0.4} {
		m.Observe(Summary{Best: best})
	}
	if got := m.Value(); math.Abs(got-0.9) > 1e-12 {
		t.Errorf("improvement = %v, want 0.9", got)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero improvement after reset")
	}
}

func TestStagnation(t *testing.T) {
	m := NewStagnation(0.01)
	for _, best := range []float64{1, 0.5, 0.495, 0.5, 0.492} {
		m.Observe(Summary{Best: best})
	}
	// neither 0.495 nor 0.492 beats 0.5 by more than the threshold
	if got := m.Value(); got != 3 {
		t.Errorf("stagnation = %v, want 3", got)
	}

	m.Observe(Summary{Best: 0.1})
	if m.Value() != 0 {
		t.Errorf("stagnation after improvement = %v, want 0", m.Value())
	}
}

func TestDivergence(t *testing.T) {
	m := NewDivergence()
	m.Observe(Summary{Population: 10, Diverged: 1})
	m.Observe(Summary{Population: 10, Diverged: 3})
	if got := m.Value(); math.Abs(got-0.2) > 1e-12 {
		t.Errorf("divergence = %v, want 0.2", got)
	}
}

func TestDefaultsNames(t *testing.T) {
	seen := make(map[string]bool)
	for _, m := range Defaults() {
		if seen[m.Name()] {
			t.Errorf("duplicate metric %q", m.Name())
		}
		seen[m.Name()] = true
	}
	if len(seen) != 3 {
		t.Errorf("expected 3 default metrics, got %d", len(seen))
	}
}

func TestHistory(t *testing.T) {
	h := NewHistory()
	if _, ok := h.Last(); ok {
		t.Error("empty history should have no last summary")
	}

	h.Add(Summary{Generation: 0, Best: -0.1, Mean: 0.4})
	h.Add(Summary{Generation: 1, Best: -0.3, Mean: 0.2})

	if h.Len() != 2 {
		t.Fatalf("Len = %d", h.Len())
	}
	last, _ := h.Last()
	if last.Generation != 1 {
		t.Errorf("last generation = %d", last.Generation)
	}
	if got := h.Best(); got[0] != -0.1 || got[1] != -0.3 {
		t.Errorf("Best series = %v", got)
	}
	if got := h.Distance(); got[1] != 0.3 {
		t.Errorf("Distance series = %v", got)
	}
	if got := h.Mean(); got[0] != 0.4 {
		t.Errorf("Mean series = %v", got)
	}
}
