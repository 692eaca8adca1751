package genetic

import (
	"container/heap"
	"math"
)

type ranked struct {
	index   int
	fitness float64
}

// ranking is a min-heap of population indices keyed by fitness. Ties go to
// the lower index so rankings are reproducible.
type ranking []ranked

func (r ranking) Len() int { return len(r) }

func (r ranking) Less(i, j int) bool {
	a, b := key(r[i].fitness), key(r[j].fitness)
	if a != b {
		return a < b
	}
	return r[i].index < r[j].index
}

func (r ranking) Swap(i, j int) { r[i], r[j] = r[j], r[i] }

func (r *ranking) Push(x any) {
	*r = append(*r, x.(ranked))
}

func (r *ranking) Pop() any {
	old := *r
	n := len(old)
	item := old[n-1]
	*r = old[:n-1]
	return item
}

// key sorts NaN after every other score.
func key(f float64) float64 {
	if math.IsNaN(f) {
		return math.Inf(1)
	}
	return f
}

// drain ranks scores and writes population indices, fittest first, into
// order. The heap storage is reused between calls.
func (r *ranking) drain(scores []float64, order []int) {
	*r = (*r)[:0]
	for i, f := range scores {
		heap.Push(r, ranked{index: i, fitness: f})
	}
	for n := 0; r.Len() > 0; n++ {
		order[n] = heap.Pop(r).(ranked).index
	}
}
