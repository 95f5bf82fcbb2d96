// Package multimodal implements the multi-modal neighborhood composition
// described in spec §4.4: SetUnion, which holds one active base explorer at
// a time and picks among them with a bias-proportional random selection,
// and CartesianProduct, which keeps every base active simultaneously and
// enumerates/samples tuples of moves related by a per-position predicate.
//
// Both composites are built over a type-erased BaseExplorer so a single
// composite can hold component explorers whose move types differ — the Go
// rendering of the original's move-type tagged union.
package multimodal

import (
	"math/rand"

	"localsearch/internal/cost"
	"localsearch/internal/neighborhood"
)

// BaseExplorer is neighborhood.Base with its move type erased to any, so a
// composite can hold a []BaseExplorer[I, S] of heterogeneous component
// explorers.
type BaseExplorer[I, S any] interface {
	FirstMove(in I, state S) (any, error)
	NextMove(in I, state S, mv any) (any, bool)
	RandomMove(in I, state S, rng *rand.Rand) (any, error)
	ApplyMove(in I, state S, mv any)
	IsFeasibleMove(in I, state S, mv any) bool
	DeltaCost(in I, state S, mv any, weights []float64) cost.Structure
}

// erased boxes a neighborhood.Base[I, S, M] as a BaseExplorer[I, S].
type erased[I, S, M any] struct {
	base neighborhood.Base[I, S, M]
}

// Box adapts a concrete, typed Base into the type-erased BaseExplorer a
// multi-modal composite can hold alongside differently-typed siblings.
func Box[I, S, M any](base neighborhood.Base[I, S, M]) BaseExplorer[I, S] {
	return erased[I, S, M]{base: base}
}

func (e erased[I, S, M]) FirstMove(in I, state S) (any, error) {
	mv, err := e.base.FirstMove(in, state)
	return mv, err
}

func (e erased[I, S, M]) NextMove(in I, state S, mv any) (any, bool) {
	next, ok := e.base.NextMove(in, state, mv.(M))
	return next, ok
}

func (e erased[I, S, M]) RandomMove(in I, state S, rng *rand.Rand) (any, error) {
	mv, err := e.base.RandomMove(in, state, rng)
	return mv, err
}

func (e erased[I, S, M]) ApplyMove(in I, state S, mv any) {
	e.base.ApplyMove(in, state, mv.(M))
}

func (e erased[I, S, M]) IsFeasibleMove(in I, state S, mv any) bool {
	return e.base.IsFeasibleMove(in, state, mv.(M))
}

func (e erased[I, S, M]) DeltaCost(in I, state S, mv any, weights []float64) cost.Structure {
	return e.base.DeltaCost(in, state, mv.(M), weights)
}

// weightedPick returns a starting index into [0, n) per the bias vector w
// (nil means uniform), used by SetUnion.RandomMove to choose which base to
// sample from before falling back to a wraparound scan.
func weightedPick(w []float64, n int, rng *rand.Rand) int {
	if n == 0 {
		return 0
	}
	if len(w) != n {
		return rng.Intn(n)
	}
	var total float64
	for _, v := range w {
		if v > 0 {
			total += v
		}
	}
	if total <= 0 {
		return rng.Intn(n)
	}
	r := rng.Float64() * total
	var acc float64
	for i, v := range w {
		if v <= 0 {
			continue
		}
		acc += v
		if r < acc {
			return i
		}
	}
	return n - 1
}
