package genetic_test

import (
	"context"
	"math"
	"slices"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/evosim/internal/creature"
	"github.com/san-kum/evosim/internal/genetic"
	"github.com/san-kum/evosim/internal/integrators"
)

// tag is a minimal entity whose fitness is its value.
type tag struct {
	Value   float64
	Born    bool
	Parents [2]float64
	Evals   int
}

// scripted hands out preset values from Randomize, then 1000+n.
type scripted struct {
	values  []float64
	next    int
	breeds  int
	panicOn float64
}

func (s *scripted) Randomize(e *tag) {
	v := 1000 + float64(s.next)
	if s.next < len(s.values) {
		v = s.values[s.next]
	}
	s.next++
	*e = tag{Value: v}
}

func (s *scripted) Breed(mother, father, son, daughter *tag) {
	s.breeds++
	parents := [2]float64{mother.Value, father.Value}
	*son = tag{Value: 500 + mother.Value, Born: true, Parents: parents}
	*daughter = tag{Value: 500 + father.Value, Born: true, Parents: parents}
}

func (s *scripted) Fitness(e *tag) float64 {
	if s.panicOn != 0 && e.Value == s.panicOn {
		panic("boom")
	}
	e.Evals++
	return e.Value
}

func values(e *genetic.Engine[tag]) []float64 {
	out := make([]float64, e.Size())
	for i := range out {
		out[i] = e.Entity(i).Value
	}
	return out
}

var _ = Describe("Engine", func() {
	var (
		ops    *scripted
		engine *genetic.Engine[tag]
	)

	newEngine := func(size, workers int) {
		var err error
		engine, err = genetic.New[tag](genetic.Config{PopulationSize: size, Workers: workers}, ops)
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		ops = &scripted{values: []float64{7, 3, 10, 1, 5, 9, 2, 8, 6, 4}}
	})

	Describe("New", func() {
		It("randomizes every slot", func() {
			newEngine(10, 1)
			Expect(ops.next).To(Equal(10))
			Expect(values(engine)).To(ConsistOf(1.0, 2.0, 3.0, 4.0, 5.0, 6.0, 7.0, 8.0, 9.0, 10.0))
		})

		It("reports no best before the first generation", func() {
			newEngine(10, 1)
			Expect(engine.Best()).To(BeNil())
			Expect(engine.BestIndex()).To(Equal(-1))
			Expect(math.IsInf(engine.BestFitness(), 1)).To(BeTrue())
			_, ok := engine.BestSnapshot()
			Expect(ok).To(BeFalse())
		})

		It("rejects populations that are too small", func() {
			_, err := genetic.New[tag](genetic.Config{PopulationSize: 3}, ops)
			Expect(err).To(MatchError(genetic.ErrPopulationSize))
			Expect(ops.next).To(BeZero())
		})

		It("rejects missing operators", func() {
			_, err := genetic.New[tag](genetic.Config{PopulationSize: 10}, nil)
			Expect(err).To(MatchError(genetic.ErrNoOperators))
		})
	})

	Describe("Generation", func() {
		BeforeEach(func() {
			newEngine(10, 1)
			Expect(engine.Generation()).To(Succeed())
		})

		It("records the fittest individual", func() {
			Expect(engine.BestFitness()).To(Equal(1.0))
			Expect(engine.Best().Value).To(Equal(1.0))
			Expect(engine.BestIndex()).To(Equal(3))

			snap, ok := engine.BestSnapshot()
			Expect(ok).To(BeTrue())
			Expect(snap.Value).To(Equal(1.0))
		})

		It("breeds the fittest pairs", func() {
			Expect(ops.breeds).To(Equal(genetic.NewbornCount(10) / 2))

			var parents [][2]float64
			for i := range engine.Size() {
				if e := engine.Entity(i); e.Born {
					parents = append(parents, e.Parents)
				}
			}
			Expect(parents).To(ConsistOf(
				[2]float64{1, 2}, [2]float64{1, 2},
				[2]float64{3, 4}, [2]float64{3, 4},
			))
		})

		It("replaces the four worst with newborns", func() {
			vs := values(engine)
			for _, worst := range []float64{7, 8, 9, 10} {
				Expect(vs).NotTo(ContainElement(worst))
			}
			Expect(vs).To(ContainElements(1.0, 2.0, 3.0, 4.0))
			Expect(vs).To(ContainElements(501.0, 502.0, 503.0, 504.0))
		})

		It("re-randomizes the individuals ranked between parents and victims", func() {
			vs := values(engine)
			Expect(vs).NotTo(ContainElement(5.0))
			Expect(vs).NotTo(ContainElement(6.0))
			Expect(vs).To(ContainElements(1010.0, 1011.0))
			Expect(ops.next).To(Equal(12))
		})

		It("keeps the scores used for ranking", func() {
			scores := engine.Scores()
			Expect(scores).To(HaveLen(10))
			Expect(slices.Min(scores)).To(Equal(engine.BestFitness()))
		})
	})

	Describe("over many generations", func() {
		It("keeps the population size and never loses the best", func() {
			newEngine(10, 1)
			previous := math.Inf(1)
			for range 25 {
				Expect(engine.Generation()).To(Succeed())
				Expect(engine.Size()).To(Equal(10))
				Expect(engine.BestFitness()).To(Equal(slices.Min(engine.Scores())))
				Expect(engine.BestFitness()).To(BeNumerically("<=", previous))
				previous = engine.BestFitness()
			}
			Expect(engine.Generations()).To(Equal(25))
		})

		It("evaluates each survivor once per generation", func() {
			newEngine(12, 1)
			Expect(engine.Generation()).To(Succeed())
			Expect(engine.Generation()).To(Succeed())
			// the best has survived both generations; replacements are fresh
			Expect(engine.Best().Evals).To(Equal(2))
			for i := range engine.Size() {
				Expect(engine.Entity(i).Evals).To(BeNumerically("<=", 2))
			}
		})
	})

	Describe("Solve", func() {
		It("stops once the target is reached", func() {
			newEngine(10, 1)
			n, err := engine.Solve(context.Background(), 1, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))
		})

		It("stops at the generation cap", func() {
			newEngine(10, 1)
			n, err := engine.Solve(context.Background(), -1, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(5))
			Expect(engine.Generations()).To(Equal(5))
		})

		It("honors a cancelled context", func() {
			newEngine(10, 1)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			n, err := engine.Solve(ctx, -1, 0)
			Expect(err).To(MatchError(context.Canceled))
			Expect(n).To(BeZero())
		})
	})

	Describe("Destroy", func() {
		It("makes the engine unusable", func() {
			newEngine(10, 1)
			engine.Destroy()
			Expect(engine.Generation()).To(MatchError(genetic.ErrDestroyed))
			Expect(engine.Best()).To(BeNil())

			_, err := engine.Solve(context.Background(), 0, 3)
			Expect(err).To(MatchError(genetic.ErrDestroyed))
		})
	})

	Describe("parallel fitness", func() {
		It("matches sequential evaluation", func() {
			newEngine(40, 1)
			Expect(engine.Generation()).To(Succeed())
			sequential := engine.Scores()

			ops = &scripted{values: []float64{7, 3, 10, 1, 5, 9, 2, 8, 6, 4}}
			newEngine(40, 4)
			Expect(engine.Generation()).To(Succeed())
			Expect(engine.Scores()).To(Equal(sequential))
		})

		It("re-raises a panicking fitness on the caller", func() {
			ops.panicOn = 9
			newEngine(40, 4)
			Expect(func() { _ = engine.Generation() }).To(PanicWith("boom"))
		})
	})
})

var _ = Describe("Engine with creatures", func() {
	It("keeps every creature valid across generations", func() {
		species := creature.NewSpecies(42, creature.DefaultParams(), integrators.NewMidpoint())
		engine, err := genetic.New[creature.Creature](genetic.Config{PopulationSize: 8, Workers: 2}, species)
		Expect(err).NotTo(HaveOccurred())

		for range 2 {
			Expect(engine.Generation()).To(Succeed())
			for i := range engine.Size() {
				Expect(engine.Entity(i).Validate()).To(Succeed())
			}
		}

		best, ok := engine.BestSnapshot()
		Expect(ok).To(BeTrue())
		Expect(best.Evaluated()).To(BeTrue())
		Expect(best.Fitness).To(Equal(engine.BestFitness()))
	})
})
