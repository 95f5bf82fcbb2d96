package neighborhood

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"localsearch/internal/cost"
)

// ParallelExplorer runs RandomBest-style selection over a work-stealing pool
// of goroutines, per spec §5: the only shared mutable state is the
// per-selection reservoir (guarded by a mutex) and the evaluation counter
// (atomic). All delta-cost computation is pure with respect to State and
// Input, which callers must guarantee by not mutating state concurrently
// with a parallel selection.
type ParallelExplorer[I, S, M any] struct {
	Explorer    *Explorer[I, S, M]
	Concurrency int64 // <=0 defaults to a small fixed fan-out
}

// NewParallel wraps an Explorer for concurrent random-move sampling.
func NewParallel[I, S, M any](e *Explorer[I, S, M], concurrency int64) *ParallelExplorer[I, S, M] {
	return &ParallelExplorer[I, S, M]{Explorer: e, Concurrency: concurrency}
}

// RandomBest samples n random moves across a bounded pool of workers and
// returns the accepted one of minimum delta cost, using reservoir sampling
// across workers so the result distribution matches the sequential
// RandomBest exactly (spec §8 invariant 10 holds under parallel selection
// too, since moves are logically unordered but the winner is picked with
// the same 1/k-tie probability).
//
// Under cancellation, RandomBest returns whatever winner has been found so
// far (possibly the invalid zero value) and ctx.Err(); it never leaves a
// half-applied move, since ParallelExplorer never calls ApplyMove.
func (pe *ParallelExplorer[I, S, M]) RandomBest(
	ctx context.Context,
	in I, state S,
	n int,
	accept AcceptFunc[M],
	newRNG func(workerIdx int) *rand.Rand,
	tieRNG *rand.Rand,
) (EvaluatedMove[M], int64, error) {
	conc := pe.Concurrency
	if conc <= 0 {
		conc = 4
	}
	if tieRNG == nil {
		tieRNG = rand.New(rand.NewSource(1))
	}
	sem := semaphore.NewWeighted(conc)
	group, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var best EvaluatedMove[M]
	tieCount := 0
	var explored atomic.Int64

	for w := 0; w < n; w++ {
		workerIdx := w
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		group.Go(func() error {
			defer sem.Release(1)
			if gctx.Err() != nil {
				return gctx.Err()
			}
			rng := newRNG(workerIdx)
			mv, err := pe.Explorer.RandomMove(in, state, rng)
			if err != nil {
				return nil
			}
			explored.Add(1)
			if !pe.Explorer.Base.IsFeasibleMove(in, state, mv) {
				return nil
			}
			delta := pe.Explorer.DeltaCost(in, state, mv)
			if !accept(mv, delta) {
				return nil
			}
			cand := EvaluatedMove[M]{Move: mv, Delta: delta, Valid: true}

			mu.Lock()
			defer mu.Unlock()
			switch {
			case !best.Valid:
				best = cand
				tieCount = 1
			case cost.Less(cand.Delta, best.Delta, cost.Aggregated):
				best = cand
				tieCount = 1
			case cost.Equal(cand.Delta, best.Delta, cost.Aggregated):
				tieCount++
				if tieRNG.Intn(tieCount) == 0 {
					best = cand
				}
			}
			return nil
		})
	}

	_ = group.Wait()
	if err := ctx.Err(); err != nil {
		return best, explored.Load(), err
	}
	return best, explored.Load(), nil
}
