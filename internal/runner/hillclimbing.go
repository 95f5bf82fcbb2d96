package runner

import (
	"context"
	"fmt"
	"math/rand"

	"localsearch/internal/corespec"
	"localsearch/internal/cost"
	"localsearch/internal/neighborhood"
)

// HillClimbing samples Samples random moves per iteration and commits the
// best of that sample whenever it does not worsen the current state
// (sideways moves are allowed, matching a plateau-tolerant hill climber).
// Its own stop criterion fires only when a sampling round produces no move
// at all (an empty neighborhood); a round whose best sample worsens the
// cost is rejected and the run goes on, so a run over a non-empty
// neighborhood ends through Runner.MaxIdleIterations (iterations without
// a strict improvement), MaxEvaluations, a timeout or cancellation.
//
// When Parallel is set, sampling fans out across its worker pool (spec §5)
// instead of running sequentially through r.Explorer; Rng is still used,
// single-threaded, to seed each worker's own *rand.Rand and to break ties,
// so the run stays deterministic for a fixed seed.
type HillClimbing[I, S, M any] struct {
	Samples  int
	Rng      *rand.Rand
	Parallel *neighborhood.ParallelExplorer[I, S, M]

	exhausted bool
}

// Validate checks Samples against spec §4.6's parameter constraints.
func (a *HillClimbing[I, S, M]) Validate() error {
	if a.Samples < 0 {
		return fmt.Errorf("%w: Samples: must be >= 0, got %d", corespec.ErrIncorrectParameterValue, a.Samples)
	}
	return nil
}

func (a *HillClimbing[I, S, M]) InitializeRun(r *Runner[I, S, M]) error {
	if err := a.Validate(); err != nil {
		return err
	}
	a.exhausted = false
	if a.Rng == nil {
		a.Rng = r.Rng
	}
	if a.Samples <= 0 {
		a.Samples = 1
	}
	return nil
}

func (a *HillClimbing[I, S, M]) SelectMove(r *Runner[I, S, M]) bool {
	var (
		ev      neighborhood.EvaluatedMove[M]
		scanned int
	)
	if a.Parallel != nil {
		seeds := make([]int64, a.Samples)
		for i := range seeds {
			seeds[i] = a.Rng.Int63()
		}
		newRNG := func(workerIdx int) *rand.Rand { return rand.New(rand.NewSource(seeds[workerIdx])) }
		found, explored, _ := a.Parallel.RandomBest(context.Background(), r.Input, r.CurrentState(), a.Samples, neighborhood.AcceptAll[M], newRNG, a.Rng)
		ev, scanned = found, int(explored)
	} else {
		ev, scanned = r.Explorer.RandomBest(r.Input, r.CurrentState(), a.Samples, neighborhood.AcceptAll[M], a.Rng)
	}
	r.CountEvaluation(scanned)
	if scanned == 0 || !ev.Valid {
		a.exhausted = true
		return false
	}
	a.exhausted = false
	r.SetCurrentMove(ev.Move, ev.Delta)
	return true
}

func (a *HillClimbing[I, S, M]) AcceptableMove(r *Runner[I, S, M]) bool {
	return cost.CmpScalar(r.CurrentMoveCost(), 0) <= 0
}

func (a *HillClimbing[I, S, M]) CompleteIteration(r *Runner[I, S, M]) {}

func (a *HillClimbing[I, S, M]) StopCriterion(r *Runner[I, S, M]) bool {
	return a.exhausted
}
