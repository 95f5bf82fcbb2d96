package runner

import (
	"math/rand"

	"localsearch/internal/cost"
	"localsearch/internal/neighborhood"
)

// SteepestDescent scans the full neighborhood each iteration and commits
// the single best move found, stopping as soon as that best move no longer
// strictly improves the current cost (the classic local-optimum
// definition for a full-enumeration descent, spec §4.6).
type SteepestDescent[I, S, M any] struct {
	Rng *rand.Rand

	atLocalOptimum bool
}

func (a *SteepestDescent[I, S, M]) InitializeRun(r *Runner[I, S, M]) error {
	a.atLocalOptimum = false
	if a.Rng == nil {
		a.Rng = r.Rng
	}
	return nil
}

func (a *SteepestDescent[I, S, M]) SelectMove(r *Runner[I, S, M]) bool {
	ev, scanned := r.Explorer.SelectBest(r.Input, r.CurrentState(), neighborhood.AcceptAll[M], a.Rng)
	r.CountEvaluation(scanned)
	if scanned == 0 || !ev.Valid {
		a.atLocalOptimum = true
		return false
	}
	r.SetCurrentMove(ev.Move, ev.Delta)
	return true
}

func (a *SteepestDescent[I, S, M]) AcceptableMove(r *Runner[I, S, M]) bool {
	if cost.CmpScalar(r.CurrentMoveCost(), 0) < 0 {
		return true
	}
	a.atLocalOptimum = true
	return false
}

func (a *SteepestDescent[I, S, M]) CompleteIteration(r *Runner[I, S, M]) {}

func (a *SteepestDescent[I, S, M]) StopCriterion(r *Runner[I, S, M]) bool {
	return a.atLocalOptimum
}
