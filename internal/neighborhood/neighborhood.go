// Package neighborhood implements the Neighborhood Explorer described in
// spec §4.3: enumeration (first/next/random), application, feasibility
// filtering, delta-cost evaluation, and the first/best/random-first/
// random-best selection family with a pluggable acceptance predicate and
// reservoir-sampled tie-breaking.
package neighborhood

import (
	"math/rand"

	"localsearch/internal/corespec"
	"localsearch/internal/cost"
)

// Base is the collaborator interface a problem author implements for one
// move type. I is the Input type, S the State type, M the Move type.
type Base[I, S, M any] interface {
	// FirstMove sets the first move in the enumeration order. It returns
	// corespec.ErrEmptyNeighborhood if the neighborhood is empty.
	FirstMove(in I, state S) (M, error)
	// NextMove advances mv to the lexicographically next move in the same
	// total order FirstMove starts, reporting false once exhausted. The
	// pair (FirstMove, NextMove*) must enumerate every move exactly once.
	NextMove(in I, state S, mv M) (M, bool)
	// RandomMove samples a move uniformly (or per a user-defined
	// distribution), returning corespec.ErrEmptyNeighborhood if empty.
	RandomMove(in I, state S, rng *rand.Rand) (M, error)
	// ApplyMove applies mv to state in place.
	ApplyMove(in I, state S, mv M)
	// IsFeasibleMove filters which enumerated moves are considered.
	IsFeasibleMove(in I, state S, mv M) bool
	// DeltaCost computes the additive cost change mv would induce, without
	// fully re-evaluating the resulting state. weights may be nil.
	DeltaCost(in I, state S, mv M, weights []float64) cost.Structure
}

// EvaluatedMove pairs a Move with its delta cost and a validity flag
// indicating whether DeltaCost has actually been computed for it yet, per
// spec §3/§9: a move fresh out of an iterator carries a tentative zero
// delta until a selection routine invokes DeltaCost.
type EvaluatedMove[M any] struct {
	Move  M
	Delta cost.Structure
	Valid bool
}

// AcceptFunc decides whether a candidate move should be accepted by a
// selection routine, given the move and its (already computed) delta cost.
type AcceptFunc[M any] func(move M, delta cost.Structure) bool

// AcceptAll is the default acceptance predicate: every move is acceptable.
func AcceptAll[M any](M, cost.Structure) bool { return true }

// AcceptImproving accepts only strictly improving moves (delta.Total < 0),
// the predicate steepest descent / first-improvement uses.
func AcceptImproving[M any](_ M, delta cost.Structure) bool { return delta.Total < 0 }

// Explorer wraps a Base with the cost weights it should evaluate deltas
// against and offers the selection operations of spec §4.3.
type Explorer[I, S, M any] struct {
	Base    Base[I, S, M]
	Weights []float64 // optional; nil means unweighted
}

// New builds an Explorer over the given Base.
func New[I, S, M any](base Base[I, S, M], weights []float64) *Explorer[I, S, M] {
	return &Explorer[I, S, M]{Base: base, Weights: weights}
}

// FirstMove delegates to Base.FirstMove.
func (e *Explorer[I, S, M]) FirstMove(in I, state S) (M, error) {
	return e.Base.FirstMove(in, state)
}

// NextMove delegates to Base.NextMove.
func (e *Explorer[I, S, M]) NextMove(in I, state S, mv M) (M, bool) {
	return e.Base.NextMove(in, state, mv)
}

// RandomMove delegates to Base.RandomMove.
func (e *Explorer[I, S, M]) RandomMove(in I, state S, rng *rand.Rand) (M, error) {
	return e.Base.RandomMove(in, state, rng)
}

// ApplyMove delegates to Base.ApplyMove.
func (e *Explorer[I, S, M]) ApplyMove(in I, state S, mv M) {
	e.Base.ApplyMove(in, state, mv)
}

// DeltaCost delegates to Base.DeltaCost, threading the Explorer's weights.
func (e *Explorer[I, S, M]) DeltaCost(in I, state S, mv M) cost.Structure {
	return e.Base.DeltaCost(in, state, mv, e.Weights)
}

// SelectFirst returns the first enumerated, feasible, accepted move, or an
// invalid EvaluatedMove if the neighborhood is empty (explored==0) or
// nothing is accepted (explored is then the full neighborhood size).
// explored counts how many candidate moves were examined, so runners can
// drive iteration budgets off it.
func (e *Explorer[I, S, M]) SelectFirst(in I, state S, accept AcceptFunc[M]) (EvaluatedMove[M], int) {
	mv, err := e.FirstMove(in, state)
	if err != nil {
		return EvaluatedMove[M]{}, 0
	}
	explored := 0
	for {
		explored++
		if e.Base.IsFeasibleMove(in, state, mv) {
			delta := e.DeltaCost(in, state, mv)
			if accept(mv, delta) {
				return EvaluatedMove[M]{Move: mv, Delta: delta, Valid: true}, explored
			}
		}
		next, ok := e.NextMove(in, state, mv)
		if !ok {
			return EvaluatedMove[M]{}, explored
		}
		mv = next
	}
}

// SelectBest scans the whole neighborhood and returns the accepted move of
// minimum delta cost. Ties among k equally-good bests are broken by
// reservoir sampling, so each is returned with probability 1/k regardless
// of enumeration order (spec §4.3, §8 invariant 10).
func (e *Explorer[I, S, M]) SelectBest(in I, state S, accept AcceptFunc[M], rng *rand.Rand) (EvaluatedMove[M], int) {
	mv, err := e.FirstMove(in, state)
	if err != nil {
		return EvaluatedMove[M]{}, 0
	}

	var best EvaluatedMove[M]
	tieCount := 0
	explored := 0

	for {
		explored++
		if e.Base.IsFeasibleMove(in, state, mv) {
			delta := e.DeltaCost(in, state, mv)
			if accept(mv, delta) {
				cand := EvaluatedMove[M]{Move: mv, Delta: delta, Valid: true}
				switch {
				case !best.Valid:
					best = cand
					tieCount = 1
				case cost.Less(cand.Delta, best.Delta, cost.Aggregated):
					best = cand
					tieCount = 1
				case cost.Equal(cand.Delta, best.Delta, cost.Aggregated):
					tieCount++
					// Reservoir sampling: replace the incumbent with
					// probability 1/tieCount so every tied candidate ends
					// up equally likely across the whole scan.
					if rng != nil && rng.Intn(tieCount) == 0 {
						best = cand
					}
				}
			}
		}
		next, ok := e.NextMove(in, state, mv)
		if !ok {
			break
		}
		mv = next
	}
	return best, explored
}

// RandomFirst samples up to n independent random moves and returns the
// first accepted one.
func (e *Explorer[I, S, M]) RandomFirst(in I, state S, n int, accept AcceptFunc[M], rng *rand.Rand) (EvaluatedMove[M], int) {
	explored := 0
	for i := 0; i < n; i++ {
		mv, err := e.RandomMove(in, state, rng)
		if err != nil {
			break
		}
		explored++
		if !e.Base.IsFeasibleMove(in, state, mv) {
			continue
		}
		delta := e.DeltaCost(in, state, mv)
		if accept(mv, delta) {
			return EvaluatedMove[M]{Move: mv, Delta: delta, Valid: true}, explored
		}
	}
	return EvaluatedMove[M]{}, explored
}

// RandomBest samples up to n independent random moves and returns the
// accepted one of minimum delta cost, with the same reservoir tie-break as
// SelectBest.
func (e *Explorer[I, S, M]) RandomBest(in I, state S, n int, accept AcceptFunc[M], rng *rand.Rand) (EvaluatedMove[M], int) {
	var best EvaluatedMove[M]
	tieCount := 0
	explored := 0

	for i := 0; i < n; i++ {
		mv, err := e.RandomMove(in, state, rng)
		if err != nil {
			break
		}
		explored++
		if !e.Base.IsFeasibleMove(in, state, mv) {
			continue
		}
		delta := e.DeltaCost(in, state, mv)
		if !accept(mv, delta) {
			continue
		}
		cand := EvaluatedMove[M]{Move: mv, Delta: delta, Valid: true}
		switch {
		case !best.Valid:
			best = cand
			tieCount = 1
		case cost.Less(cand.Delta, best.Delta, cost.Aggregated):
			best = cand
			tieCount = 1
		case cost.Equal(cand.Delta, best.Delta, cost.Aggregated):
			tieCount++
			if rng != nil && rng.Intn(tieCount) == 0 {
				best = cand
			}
		}
	}
	return best, explored
}

// AllMoves enumerates every move in the neighborhood via FirstMove/NextMove,
// ignoring feasibility and acceptance, for use in property tests verifying
// spec §8 invariant 2 (the enumeration support equals the random-move
// support).
func AllMoves[I, S, M any](base Base[I, S, M], in I, state S) ([]M, error) {
	mv, err := base.FirstMove(in, state)
	if err != nil {
		if err == corespec.ErrEmptyNeighborhood {
			return nil, nil
		}
		return nil, err
	}
	out := []M{mv}
	for {
		next, ok := base.NextMove(in, state, mv)
		if !ok {
			return out, nil
		}
		mv = next
		out = append(out, mv)
	}
}
