package multimodal

import (
	"math/rand"

	"localsearch/internal/corespec"
	"localsearch/internal/cost"
)

// ActiveMove pairs a move with the index of the base explorer that
// produced it, the representation a SetUnion composite uses to dispatch
// Apply/DeltaCost/IsFeasibleMove back to the right base (spec §4.4).
type ActiveMove struct {
	Index int
	Move  any
}

// SetUnion composes several BaseExplorers so that exactly one is "active"
// for any given move: enumeration walks one base to exhaustion before
// moving to the next, and random selection picks a base in proportion to
// Weights (uniformly if nil), falling back to a wraparound scan of the
// other bases if the chosen one's neighborhood is empty.
type SetUnion[I, S any] struct {
	Bases   []BaseExplorer[I, S]
	Weights []float64
}

// NewSetUnion builds a SetUnion over bases, selecting among them with the
// given bias weights (nil for uniform selection).
func NewSetUnion[I, S any](bases []BaseExplorer[I, S], weights []float64) *SetUnion[I, S] {
	return &SetUnion[I, S]{Bases: bases, Weights: weights}
}

// FirstMove returns the first move of the first base whose neighborhood is
// nonempty, in base order.
func (u *SetUnion[I, S]) FirstMove(in I, state S) (ActiveMove, error) {
	for idx, b := range u.Bases {
		mv, err := b.FirstMove(in, state)
		if err == nil {
			return ActiveMove{Index: idx, Move: mv}, nil
		}
	}
	return ActiveMove{}, corespec.ErrEmptyNeighborhood
}

// NextMove advances within the active base; once that base is exhausted it
// moves on to the first move of the next base with a nonempty
// neighborhood, so the whole union is enumerated exactly once.
func (u *SetUnion[I, S]) NextMove(in I, state S, mv ActiveMove) (ActiveMove, bool) {
	next, ok := u.Bases[mv.Index].NextMove(in, state, mv.Move)
	if ok {
		return ActiveMove{Index: mv.Index, Move: next}, true
	}
	for idx := mv.Index + 1; idx < len(u.Bases); idx++ {
		first, err := u.Bases[idx].FirstMove(in, state)
		if err == nil {
			return ActiveMove{Index: idx, Move: first}, true
		}
	}
	return ActiveMove{}, false
}

// RandomMove picks a base per Weights and samples a random move from it; if
// that base's neighborhood is empty it scans the remaining bases in
// round-robin order from that point so a transient empty base never starves
// the whole union.
func (u *SetUnion[I, S]) RandomMove(in I, state S, rng *rand.Rand) (ActiveMove, error) {
	n := len(u.Bases)
	if n == 0 {
		return ActiveMove{}, corespec.ErrEmptyNeighborhood
	}
	start := weightedPick(u.Weights, n, rng)
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		mv, err := u.Bases[idx].RandomMove(in, state, rng)
		if err == nil {
			return ActiveMove{Index: idx, Move: mv}, nil
		}
	}
	return ActiveMove{}, corespec.ErrEmptyNeighborhood
}

// ApplyMove dispatches to the base that produced mv.
func (u *SetUnion[I, S]) ApplyMove(in I, state S, mv ActiveMove) {
	u.Bases[mv.Index].ApplyMove(in, state, mv.Move)
}

// IsFeasibleMove dispatches to the base that produced mv.
func (u *SetUnion[I, S]) IsFeasibleMove(in I, state S, mv ActiveMove) bool {
	return u.Bases[mv.Index].IsFeasibleMove(in, state, mv.Move)
}

// DeltaCost dispatches to the base that produced mv.
func (u *SetUnion[I, S]) DeltaCost(in I, state S, mv ActiveMove, weights []float64) cost.Structure {
	return u.Bases[mv.Index].DeltaCost(in, state, mv.Move, weights)
}
