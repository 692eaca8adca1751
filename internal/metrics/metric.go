package metrics

import "math"

// Metric accumulates one run-level indicator from generation summaries.
type Metric interface {
	Name() string
	Observe(s Summary)
	Value() float64
	Reset()
}

// Defaults returns a fresh set of the standard run metrics.
func Defaults() []Metric {
	return []Metric{NewImprovement(), NewStagnation(1e-9), NewDivergence()}
}

// Improvement is how far the best score has dropped since the first
// observed generation.
type Improvement struct {
	name    string
	first   float64
	best    float64
	samples int
}

func NewImprovement() *Improvement {
	return &Improvement{name: "improvement"}
}

func (m *Improvement) Name() string { return m.name }

func (m *Improvement) Observe(s Summary) {
	if math.IsInf(s.Best, 0) {
		return
	}
	if m.samples == 0 {
		m.first = s.Best
		m.best = s.Best
	}
	m.best = math.Min(m.best, s.Best)
	m.samples++
}

func (m *Improvement) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.first - m.best
}

func (m *Improvement) Reset() {
	m.first, m.best = 0, 0
	m.samples = 0
}

// Stagnation counts the generations since the best score last improved by
// more than threshold.
type Stagnation struct {
	name      string
	threshold float64
	best      float64
	since     int
	samples   int
}

func NewStagnation(threshold float64) *Stagnation {
	return &Stagnation{
		name:      "stagnation",
		threshold: threshold,
		best:      math.Inf(1),
	}
}

func (m *Stagnation) Name() string { return m.name }

func (m *Stagnation) Observe(s Summary) {
	m.samples++
	if s.Best < m.best-m.threshold {
		m.best = s.Best
		m.since = 0
		return
	}
	m.since++
}

func (m *Stagnation) Value() float64 {
	return float64(m.since)
}

func (m *Stagnation) Reset() {
	m.best = math.Inf(1)
	m.since = 0
	m.samples = 0
}

// Divergence is the mean fraction of each generation whose physics blew up.
type Divergence struct {
	name    string
	sum     float64
	samples int
}

func NewDivergence() *Divergence {
	return &Divergence{name: "divergence"}
}

func (m *Divergence) Name() string { return m.name }

func (m *Divergence) Observe(s Summary) {
	if s.Population == 0 {
		return
	}
	m.sum += float64(s.Diverged) / float64(s.Population)
	m.samples++
}

func (m *Divergence) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *Divergence) Reset() {
	m.sum = 0
	m.samples = 0
}
