package runner

import (
	"fmt"
	"math/rand"

	"localsearch/internal/corespec"
	"localsearch/internal/cost"
	"localsearch/internal/neighborhood"
	"localsearch/internal/tabu"
)

// BimodalMove is one move from one of two independently-typed
// neighborhoods, tagged by which one produced it — the composite move
// type a bimodal Runner is instantiated over, per spec §4.6's "Bimodal
// variants": two explorers active every iteration, not one explorer
// switched between phases.
type BimodalMove[M1, M2 any] struct {
	Which int // 1 or 2
	Move1 M1
	Move2 M2
}

// BimodalBase composes two independently-typed Base explorers into the
// single Base[I,S,BimodalMove[M1,M2]] the shared Runner engine expects, so
// Runner.ApplyCurrentMove can apply whichever side won a given iteration
// without the engine knowing about bimodality at all. FirstMove/NextMove/
// RandomMove are never called by the bimodal algorithms below — they run
// their own two explorers directly (in tabu search, each against its own
// tabu list) — and
// only delegate to base 1 here so the composite Base stays total.
type BimodalBase[I, S, M1, M2 any] struct {
	Base1 neighborhood.Base[I, S, M1]
	Base2 neighborhood.Base[I, S, M2]
}

func (b BimodalBase[I, S, M1, M2]) FirstMove(in I, state S) (BimodalMove[M1, M2], error) {
	mv, err := b.Base1.FirstMove(in, state)
	return BimodalMove[M1, M2]{Which: 1, Move1: mv}, err
}

func (b BimodalBase[I, S, M1, M2]) NextMove(in I, state S, mv BimodalMove[M1, M2]) (BimodalMove[M1, M2], bool) {
	next, ok := b.Base1.NextMove(in, state, mv.Move1)
	return BimodalMove[M1, M2]{Which: 1, Move1: next}, ok
}

func (b BimodalBase[I, S, M1, M2]) RandomMove(in I, state S, rng *rand.Rand) (BimodalMove[M1, M2], error) {
	mv, err := b.Base1.RandomMove(in, state, rng)
	return BimodalMove[M1, M2]{Which: 1, Move1: mv}, err
}

func (b BimodalBase[I, S, M1, M2]) ApplyMove(in I, state S, mv BimodalMove[M1, M2]) {
	if mv.Which == 2 {
		b.Base2.ApplyMove(in, state, mv.Move2)
		return
	}
	b.Base1.ApplyMove(in, state, mv.Move1)
}

func (b BimodalBase[I, S, M1, M2]) IsFeasibleMove(in I, state S, mv BimodalMove[M1, M2]) bool {
	if mv.Which == 2 {
		return b.Base2.IsFeasibleMove(in, state, mv.Move2)
	}
	return b.Base1.IsFeasibleMove(in, state, mv.Move1)
}

func (b BimodalBase[I, S, M1, M2]) DeltaCost(in I, state S, mv BimodalMove[M1, M2], weights []float64) cost.Structure {
	if mv.Which == 2 {
		return b.Base2.DeltaCost(in, state, mv.Move2, weights)
	}
	return b.Base1.DeltaCost(in, state, mv.Move1, weights)
}

// BimodalHillClimbing runs two independent neighborhood explorers every
// iteration, each proposing one random move, and commits whichever of the
// two is non-worsening and has the lower delta cost — an exact tie is
// broken by a coin flip drawn from Rng. Grounded on
// BimodalHillClimbing.hh's SelectMove (one RandomMove per explorer,
// LessThan/LessThan/Random::Int(0,1) comparison) and AcceptableMove (the
// winner's own delta must be <= 0). Has no tabu lists at all: losing a
// comparison costs a candidate nothing beyond not being picked.
type BimodalHillClimbing[I, S, M1, M2 any] struct {
	Explorer1 *neighborhood.Explorer[I, S, M1]
	Explorer2 *neighborhood.Explorer[I, S, M2]
	Rng       *rand.Rand

	winner int
}

// Validate checks that both explorers are wired, since SelectMove
// dereferences both every iteration.
func (a *BimodalHillClimbing[I, S, M1, M2]) Validate() error {
	if a.Explorer1 == nil || a.Explorer2 == nil {
		return fmt.Errorf("%w: Explorer1/Explorer2: both explorers must be set", corespec.ErrIncorrectParameterValue)
	}
	return nil
}

func (a *BimodalHillClimbing[I, S, M1, M2]) InitializeRun(r *Runner[I, S, BimodalMove[M1, M2]]) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.Rng == nil {
		a.Rng = r.Rng
	}
	a.winner = 0
	return nil
}

func (a *BimodalHillClimbing[I, S, M1, M2]) SelectMove(r *Runner[I, S, BimodalMove[M1, M2]]) bool {
	mv1, err1 := a.Explorer1.RandomMove(r.Input, r.CurrentState(), a.Rng)
	mv2, err2 := a.Explorer2.RandomMove(r.Input, r.CurrentState(), a.Rng)
	have1, have2 := err1 == nil, err2 == nil
	if !have1 && !have2 {
		a.winner = 0
		return false
	}

	var delta1, delta2 cost.Structure
	if have1 {
		delta1 = a.Explorer1.DeltaCost(r.Input, r.CurrentState(), mv1)
		r.CountEvaluation(1)
	}
	if have2 {
		delta2 = a.Explorer2.DeltaCost(r.Input, r.CurrentState(), mv2)
		r.CountEvaluation(1)
	}

	switch {
	case have1 && !have2:
		a.winner = 1
	case have2 && !have1:
		a.winner = 2
	case cost.Less(delta1, delta2, cost.Aggregated):
		a.winner = 1
	case cost.Less(delta2, delta1, cost.Aggregated):
		a.winner = 2
	default:
		a.winner = a.Rng.Intn(2) + 1
	}

	if a.winner == 1 {
		r.SetCurrentMove(BimodalMove[M1, M2]{Which: 1, Move1: mv1}, delta1)
	} else {
		r.SetCurrentMove(BimodalMove[M1, M2]{Which: 2, Move2: mv2}, delta2)
	}
	return true
}

func (a *BimodalHillClimbing[I, S, M1, M2]) AcceptableMove(r *Runner[I, S, BimodalMove[M1, M2]]) bool {
	return cost.CmpScalar(r.CurrentMoveCost(), 0) <= 0
}

func (a *BimodalHillClimbing[I, S, M1, M2]) CompleteIteration(r *Runner[I, S, BimodalMove[M1, M2]]) {}

// StopCriterion always reports false: the idle-iteration threshold
// BimodalHillClimbing.hh checks (number_of_iterations - iteration_of_best)
// is already enforced generically by Runner.MaxIdleIterations.
func (a *BimodalHillClimbing[I, S, M1, M2]) StopCriterion(r *Runner[I, S, BimodalMove[M1, M2]]) bool {
	return false
}

// BimodalTabuSearch runs two independent neighborhood explorers every
// iteration, each selecting its own best non-prohibited move against its
// own tabu list, and commits whichever of the two wins (exact ties broken
// by a coin flip). Grounded on BimodalTabuSearch.hh's SelectMove (BestMove
// against pm1/pm2, then the same comparison/coin-flip as the hill-climbing
// variant) and StoreMove: the winning list gets Insert, the losing list
// only advances (Tick) — InsertMove itself never advances a list's own
// iteration counter, only UpdateIteration does, so across iterations a
// list's tenure clock runs exactly on the rounds it loses.
type BimodalTabuSearch[I, S, M1, M2 any] struct {
	Explorer1 *neighborhood.Explorer[I, S, M1]
	Explorer2 *neighborhood.Explorer[I, S, M2]
	List1     *tabu.List[M1]
	List2     *tabu.List[M2]
	Rng       *rand.Rand

	winner int
	noMove bool
}

// Validate checks that both explorers are wired and both tabu lists (if
// set) have sane tenure bounds.
func (a *BimodalTabuSearch[I, S, M1, M2]) Validate() error {
	if a.Explorer1 == nil || a.Explorer2 == nil {
		return fmt.Errorf("%w: Explorer1/Explorer2: both explorers must be set", corespec.ErrIncorrectParameterValue)
	}
	if err := validateTenure(a.List1); err != nil {
		return err
	}
	if err := validateTenure(a.List2); err != nil {
		return err
	}
	return nil
}

func (a *BimodalTabuSearch[I, S, M1, M2]) InitializeRun(r *Runner[I, S, BimodalMove[M1, M2]]) error {
	if err := a.Validate(); err != nil {
		return err
	}
	a.noMove = false
	a.winner = 0
	if a.Rng == nil {
		a.Rng = r.Rng
	}
	if a.List1 == nil {
		a.List1 = tabu.New[M1](1, 1, func(M1, M1) bool { return false })
	}
	if a.List2 == nil {
		a.List2 = tabu.New[M2](1, 1, func(M2, M2) bool { return false })
	}
	return nil
}

func (a *BimodalTabuSearch[I, S, M1, M2]) SelectMove(r *Runner[I, S, BimodalMove[M1, M2]]) bool {
	best1, explored1 := tabuBestMove(r.Input, r.CurrentState(), r.CurrentCost(), r.BestCost(), a.Explorer1, a.List1, a.Rng)
	best2, explored2 := tabuBestMove(r.Input, r.CurrentState(), r.CurrentCost(), r.BestCost(), a.Explorer2, a.List2, a.Rng)
	r.CountEvaluation(explored1 + explored2)

	switch {
	case !best1.Valid && !best2.Valid:
		a.noMove = true
		a.winner = 0
		return false
	case best1.Valid && !best2.Valid:
		a.winner = 1
	case best2.Valid && !best1.Valid:
		a.winner = 2
	case cost.Less(best1.Delta, best2.Delta, cost.Aggregated):
		a.winner = 1
	case cost.Less(best2.Delta, best1.Delta, cost.Aggregated):
		a.winner = 2
	default:
		a.winner = a.Rng.Intn(2) + 1
	}

	a.noMove = false
	if a.winner == 1 {
		r.SetCurrentMove(BimodalMove[M1, M2]{Which: 1, Move1: best1.Move}, best1.Delta)
	} else {
		r.SetCurrentMove(BimodalMove[M1, M2]{Which: 2, Move2: best2.Move}, best2.Delta)
	}
	return true
}

// AcceptableMove is always true: in tabu search the prohibition mechanism
// inside SelectMove replaces the accept/reject test.
func (a *BimodalTabuSearch[I, S, M1, M2]) AcceptableMove(r *Runner[I, S, BimodalMove[M1, M2]]) bool {
	return true
}

func (a *BimodalTabuSearch[I, S, M1, M2]) CompleteIteration(r *Runner[I, S, BimodalMove[M1, M2]]) {
	switch a.winner {
	case 1:
		a.List1.InsertRand(r.CurrentMove().Move1, a.Rng)
		a.List2.Tick()
	case 2:
		a.List2.InsertRand(r.CurrentMove().Move2, a.Rng)
		a.List1.Tick()
	default:
		a.List1.Tick()
		a.List2.Tick()
	}
}

func (a *BimodalTabuSearch[I, S, M1, M2]) StopCriterion(r *Runner[I, S, BimodalMove[M1, M2]]) bool {
	return a.noMove
}
