// Package tabu implements the Prohibition/Tabu List described in spec §4.5:
// a FIFO of move+expiry with randomized tenure, an inverse predicate, and
// an aspiration override.
package tabu

import (
	"math/rand"

	"localsearch/internal/cost"
)

// Item is one TabuListItem: a prohibited move and the iteration at which it
// leaves the list.
type Item[M any] struct {
	Move       M
	LeavesAt   int
	InsertedAt int
}

// InverseFunc decides whether m1 is prohibited by the presence of m2 in the
// list (spec §4.5's "inverse" predicate).
type InverseFunc[M any] func(m1, m2 M) bool

// List is a FIFO tabu list with randomized tenure in [MinTenure, MaxTenure].
type List[M any] struct {
	MinTenure int
	MaxTenure int
	Inverse   InverseFunc[M]

	items     []Item[M]
	iteration int
}

// New builds a tabu list. inverse must not be nil; pass a predicate that
// always returns false to disable inversion (unprohibited by construction).
func New[M any](minTenure, maxTenure int, inverse InverseFunc[M]) *List[M] {
	return &List[M]{MinTenure: minTenure, MaxTenure: maxTenure, Inverse: inverse}
}

// Insert adds mv to the list with a tenure drawn uniformly from
// [MinTenure, MaxTenure], expiring at the current iteration plus that
// tenure. current/best costs are accepted to match the spec §4.5 signature
// but are not otherwise needed by the FIFO mechanism itself — aspiration is
// evaluated by IsProhibited, not by Insert.
func (l *List[M]) Insert(mv M, mvCost, currentCost, bestCost cost.Structure) {
	tenure := l.MinTenure
	if l.MaxTenure > l.MinTenure {
		tenure += rand.Intn(l.MaxTenure - l.MinTenure + 1)
	}
	l.items = append(l.items, Item[M]{
		Move:       mv,
		LeavesAt:   l.iteration + tenure,
		InsertedAt: l.iteration,
	})
}

// InsertRand is Insert with an explicit RNG, for reproducible runs.
func (l *List[M]) InsertRand(mv M, rng *rand.Rand) {
	tenure := l.MinTenure
	if l.MaxTenure > l.MinTenure {
		tenure += rng.Intn(l.MaxTenure - l.MinTenure + 1)
	}
	l.items = append(l.items, Item[M]{
		Move:       mv,
		LeavesAt:   l.iteration + tenure,
		InsertedAt: l.iteration,
	})
}

// IsProhibited reports whether mv is prohibited at the current iteration.
// Aspiration overrides prohibition whenever currentCost+mvCost < bestCost
// (spec §4.5/§8 invariant 6); absent that, mv is prohibited iff some item in
// the list satisfies Inverse(mv, item.Move).
func (l *List[M]) IsProhibited(mv M, mvCost, currentCost, bestCost cost.Structure) bool {
	aspirationCost := cost.Add(currentCost, mvCost)
	if cost.Less(aspirationCost, bestCost, cost.Aggregated) {
		return false
	}
	for _, it := range l.items {
		if l.Inverse(mv, it.Move) {
			return true
		}
	}
	return false
}

// Tick advances the iteration counter and expires every item whose
// LeavesAt is now <= the new iteration.
func (l *List[M]) Tick() {
	l.iteration++
	kept := l.items[:0]
	for _, it := range l.items {
		if it.LeavesAt > l.iteration {
			kept = append(kept, it)
		}
	}
	l.items = kept
}

// Iteration returns the list's current iteration counter.
func (l *List[M]) Iteration() int { return l.iteration }

// Clear empties the list and resets the iteration counter to zero.
func (l *List[M]) Clear() {
	l.items = nil
	l.iteration = 0
}

// Len returns the number of items currently in the list.
func (l *List[M]) Len() int { return len(l.items) }

// Items returns a copy of the list's current contents, for inspection in
// tests.
func (l *List[M]) Items() []Item[M] {
	out := make([]Item[M], len(l.items))
	copy(out, l.items)
	return out
}
