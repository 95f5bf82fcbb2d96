package runner

import (
	"fmt"
	"math/rand"

	"localsearch/internal/corespec"
	"localsearch/internal/cost"
	"localsearch/internal/neighborhood"
	"localsearch/internal/tabu"
)

// validateTenure checks a tabu.List's tenure bounds against spec §4.5's
// ordering requirement (min_tenure <= max_tenure, both non-negative).
func validateTenure[M any](list *tabu.List[M]) error {
	if list == nil {
		return nil
	}
	if list.MinTenure < 0 || list.MaxTenure < 0 {
		return fmt.Errorf("%w: tenure: must be >= 0, got MinTenure=%d MaxTenure=%d", corespec.ErrIncorrectParameterValue, list.MinTenure, list.MaxTenure)
	}
	if list.MinTenure > list.MaxTenure {
		return fmt.Errorf("%w: tenure: MinTenure (%d) must be <= MaxTenure (%d)", corespec.ErrIncorrectParameterValue, list.MinTenure, list.MaxTenure)
	}
	return nil
}

// tabuBestMove scans the whole neighborhood and returns the non-prohibited
// move of minimum delta cost (aspiration overriding prohibition per spec
// §4.5), with the usual reservoir tie-break. Shared by TabuSearch and the
// two independent explorers BimodalTabuSearch runs per iteration.
func tabuBestMove[I, S, M any](in I, state S, currentCost, bestCost cost.Structure, explorer *neighborhood.Explorer[I, S, M], list *tabu.List[M], rng *rand.Rand) (neighborhood.EvaluatedMove[M], int) {
	mv, err := explorer.FirstMove(in, state)
	if err != nil {
		return neighborhood.EvaluatedMove[M]{}, 0
	}

	var best neighborhood.EvaluatedMove[M]
	tieCount := 0
	explored := 0

	for {
		explored++
		if explorer.Base.IsFeasibleMove(in, state, mv) {
			delta := explorer.DeltaCost(in, state, mv)
			if !list.IsProhibited(mv, delta, currentCost, bestCost) {
				cand := neighborhood.EvaluatedMove[M]{Move: mv, Delta: delta, Valid: true}
				switch {
				case !best.Valid:
					best = cand
					tieCount = 1
				case cost.Less(cand.Delta, best.Delta, cost.Aggregated):
					best = cand
					tieCount = 1
				case cost.Equal(cand.Delta, best.Delta, cost.Aggregated):
					tieCount++
					if rng.Intn(tieCount) == 0 {
						best = cand
					}
				}
			}
		}
		next, ok := explorer.NextMove(in, state, mv)
		if !ok {
			break
		}
		mv = next
	}
	return best, explored
}

// TabuSearch scans the full neighborhood every iteration and commits the
// best move that is not prohibited by List (aspiration overriding
// prohibition per spec §4.5), even when that move worsens the current
// cost — the defining difference from SteepestDescent. It stops only when
// no move at all survives prohibition, leaving the shared MaxEvaluations /
// MaxIdleIterations checks to bound long plateaus.
type TabuSearch[I, S, M any] struct {
	List *tabu.List[M]
	Rng  *rand.Rand

	noMove bool
}

// Validate checks List's tenure bounds against spec §4.5's constraints.
func (a *TabuSearch[I, S, M]) Validate() error {
	return validateTenure(a.List)
}

func (a *TabuSearch[I, S, M]) InitializeRun(r *Runner[I, S, M]) error {
	if err := a.Validate(); err != nil {
		return err
	}
	a.noMove = false
	if a.Rng == nil {
		a.Rng = r.Rng
	}
	if a.List == nil {
		a.List = tabu.New[M](1, 1, func(M, M) bool { return false })
	}
	return nil
}

func (a *TabuSearch[I, S, M]) SelectMove(r *Runner[I, S, M]) bool {
	best, explored := tabuBestMove(r.Input, r.CurrentState(), r.CurrentCost(), r.BestCost(), r.Explorer, a.List, a.Rng)
	r.CountEvaluation(explored)

	if !best.Valid {
		a.noMove = true
		return false
	}
	a.noMove = false
	r.SetCurrentMove(best.Move, best.Delta)
	return true
}

func (a *TabuSearch[I, S, M]) AcceptableMove(r *Runner[I, S, M]) bool { return true }

func (a *TabuSearch[I, S, M]) CompleteIteration(r *Runner[I, S, M]) {
	if !a.noMove {
		a.List.InsertRand(r.CurrentMove(), a.Rng)
	}
	a.List.Tick()
}

func (a *TabuSearch[I, S, M]) StopCriterion(r *Runner[I, S, M]) bool {
	return a.noMove
}
