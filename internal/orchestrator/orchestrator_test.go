package orchestrator

import (
	"context"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/optiserve/optiserve/internal/logging"
	"github.com/optiserve/optiserve/pkg/core"
)

// fakeEngine is a controllable SolveEngine for pipeline tests.
type fakeEngine struct {
	outcome      core.Outcome
	err          error
	availableErr error

	calls   atomic.Int64
	budgets chan time.Duration
	block   chan struct{} // when set, Solve blocks until closed
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		outcome: core.OptimalOutcome(&core.Solution{Values: map[string]float64{"x": 1}, Objective: 1}),
		budgets: make(chan time.Duration, 16),
	}
}

func (f *fakeEngine) Solve(ctx context.Context, _ *core.Model, budget time.Duration) (core.Outcome, error) {
	f.calls.Add(1)
	f.budgets <- budget
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return core.Outcome{}, ctx.Err()
		}
	}
	return f.outcome, f.err
}

func (f *fakeEngine) Available() error { return f.availableErr }

func specWithVars(n int) core.ProblemSpec {
	spec := core.ProblemSpec{
		Objective: core.ObjectiveSpec{Direction: core.DirectionMinimize, Coefficients: map[string]float64{}},
	}
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for i := 0; i < n; i++ {
		spec.Variables = append(spec.Variables, core.VariableSpec{Name: names[i]})
		spec.Objective.Coefficients[names[i]] = 1
	}
	return spec
}

var _ = Describe("Orchestrator", func() {
	var (
		engine *fakeEngine
		orc    *Orchestrator
	)

	config := Config{
		MaxConcurrentSolves: 2,
		DefaultTimeout:      10 * time.Second,
		Limits:              core.Limits{MaxProblemSize: 100},
	}

	BeforeEach(func() {
		engine = newFakeEngine()
		var err error
		orc, err = New(engine, config, logging.NewTestLogger())
		Expect(err).NotTo(HaveOccurred())
	})

	Context("pipeline sequencing", func() {
		It("returns the engine's outcome for a valid problem", func() {
			outcome, err := orc.Solve(context.Background(), specWithVars(2), 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Status).To(Equal(core.StatusOptimal))
			Expect(engine.calls.Load()).To(Equal(int64(1)))
		})

		It("rejects malformed input without invoking the solver", func() {
			spec := specWithVars(2)
			spec.Constraints = []core.ConstraintSpec{
				{Coefficients: map[string]float64{"ghost": 1}, Operator: core.OpLessEqual, RHS: 1},
			}
			_, err := orc.Solve(context.Background(), spec, 0)
			Expect(core.IsKind(err, core.KindMalformedInput)).To(BeTrue())
			Expect(engine.calls.Load()).To(BeZero())
		})

		It("rejects oversized problems without invoking the solver", func() {
			tight, err := New(engine, Config{
				MaxConcurrentSolves: 2,
				DefaultTimeout:      10 * time.Second,
				Limits:              core.Limits{MaxProblemSize: 3},
			}, logging.NewTestLogger())
			Expect(err).NotTo(HaveOccurred())

			spec := specWithVars(4)
			spec.Constraints = []core.ConstraintSpec{
				{Coefficients: map[string]float64{"a": 1}, Operator: core.OpLessEqual, RHS: 1},
			}
			_, err = tight.Solve(context.Background(), spec, 0)
			Expect(core.IsKind(err, core.KindProblemTooLarge)).To(BeTrue())
			Expect(engine.calls.Load()).To(BeZero())
		})

		It("propagates engine errors with their kind", func() {
			engine.err = core.NewError(core.KindSolverUnavailable, "no binary")
			_, err := orc.Solve(context.Background(), specWithVars(1), 0)
			Expect(core.IsKind(err, core.KindSolverUnavailable)).To(BeTrue())
		})
	})

	Context("time budgets", func() {
		It("uses the default budget when the request names none", func() {
			_, err := orc.Solve(context.Background(), specWithVars(1), 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(<-engine.budgets).To(Equal(10 * time.Second))
		})

		It("honors a smaller requested budget", func() {
			_, err := orc.Solve(context.Background(), specWithVars(1), 3*time.Second)
			Expect(err).NotTo(HaveOccurred())
			Expect(<-engine.budgets).To(Equal(3 * time.Second))
		})

		It("caps a larger requested budget at the default", func() {
			_, err := orc.Solve(context.Background(), specWithVars(1), time.Hour)
			Expect(err).NotTo(HaveOccurred())
			Expect(<-engine.budgets).To(Equal(10 * time.Second))
		})
	})

	Context("concurrency ceiling", func() {
		It("rejects solves beyond the ceiling with ServiceBusy", func() {
			engine.block = make(chan struct{})

			done := make(chan struct{}, 2)
			for i := 0; i < 2; i++ {
				go func() {
					defer GinkgoRecover()
					_, err := orc.Solve(context.Background(), specWithVars(1), 0)
					Expect(err).NotTo(HaveOccurred())
					done <- struct{}{}
				}()
			}

			// Wait until both in-flight solves hold their permits.
			Eventually(func() int64 { return engine.calls.Load() }).Should(Equal(int64(2)))

			_, err := orc.Solve(context.Background(), specWithVars(1), 0)
			Expect(core.IsKind(err, core.KindServiceBusy)).To(BeTrue())

			close(engine.block)
			Eventually(done).Should(Receive())
			Eventually(done).Should(Receive())
		})

		It("releases the permit after a failed solve", func() {
			engine.err = core.NewError(core.KindSolverError, "boom")
			for i := 0; i < 5; i++ {
				_, err := orc.Solve(context.Background(), specWithVars(1), 0)
				Expect(err).To(HaveOccurred())
			}
			// Ceiling is 2; five sequential failures only pass if every
			// failure path released its permit.
			Expect(engine.calls.Load()).To(Equal(int64(5)))
		})

		It("releases the permit after a validation failure", func() {
			for i := 0; i < 5; i++ {
				_, err := orc.Solve(context.Background(), core.ProblemSpec{
					Objective: core.ObjectiveSpec{Direction: core.DirectionMinimize},
				}, 0)
				Expect(core.IsKind(err, core.KindInvalidModel)).To(BeTrue())
			}
			_, err := orc.Solve(context.Background(), specWithVars(1), 0)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Context("health", func() {
		It("is healthy when the engine is available", func() {
			Expect(orc.Healthy()).To(Succeed())
		})

		It("reports the engine's availability error", func() {
			engine.availableErr = core.NewError(core.KindSolverUnavailable, "missing")
			Expect(orc.Healthy()).NotTo(Succeed())
		})
	})

	Context("construction", func() {
		It("rejects a nil engine", func() {
			_, err := New(nil, config, logging.NewTestLogger())
			Expect(err).To(HaveOccurred())
		})

		It("rejects a zero concurrency ceiling", func() {
			_, err := New(engine, Config{DefaultTimeout: time.Second}, logging.NewTestLogger())
			Expect(err).To(HaveOccurred())
		})
	})
})
