package metrics

// History keeps the summary of every generation of a run in order.
type History struct {
	summaries []Summary
}

func NewHistory() *History {
	return &History{}
}

func (h *History) Add(s Summary) { h.summaries = append(h.summaries, s) }

func (h *History) Len() int { return len(h.summaries) }

// All returns the recorded summaries. The slice must not be modified.
func (h *History) All() []Summary { return h.summaries }

// Last returns the most recent summary.
func (h *History) Last() (Summary, bool) {
	if len(h.summaries) == 0 {
		return Summary{}, false
	}
	return h.summaries[len(h.summaries)-1], true
}

// Best returns the best score of each generation.
func (h *History) Best() []float64 {
	return h.series(func(s Summary) float64 { return s.Best })
}

// Mean returns the mean score of each generation.
func (h *History) Mean() []float64 {
	return h.series(func(s Summary) float64 { return s.Mean })
}

// Distance converts the best scores into forward distance per gait period,
// which is the negated fitness.
func (h *History) Distance() []float64 {
	return h.series(func(s Summary) float64 { return -s.Best })
}

func (h *History) series(fn func(Summary) float64) []float64 {
	out := make([]float64, len(h.summaries))
	for i, s := range h.summaries {
		out[i] = fn(s)
	}
	return out
}
