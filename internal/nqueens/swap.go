package nqueens

import (
	"math/rand"

	"localsearch/internal/corespec"
	"localsearch/internal/cost"
)

// SwapMove exchanges the rows assigned to columns I and J (I < J), the
// "swap two queens" neighborhood used by scenario S1.
type SwapMove struct {
	I, J int
}

// SwapExplorer implements neighborhood.Base[Input, State, SwapMove] by
// enumerating every unordered pair of columns in lexicographic order.
type SwapExplorer struct{}

func (SwapExplorer) FirstMove(in Input, state State) (SwapMove, error) {
	if in.N < 2 {
		return SwapMove{}, corespec.ErrEmptyNeighborhood
	}
	return SwapMove{I: 0, J: 1}, nil
}

func (SwapExplorer) NextMove(in Input, state State, mv SwapMove) (SwapMove, bool) {
	n := in.N
	j := mv.J + 1
	i := mv.I
	if j >= n {
		i++
		j = i + 1
	}
	if i >= n-1 || j >= n {
		return SwapMove{}, false
	}
	return SwapMove{I: i, J: j}, true
}

func (SwapExplorer) RandomMove(in Input, state State, rng *rand.Rand) (SwapMove, error) {
	n := in.N
	if n < 2 {
		return SwapMove{}, corespec.ErrEmptyNeighborhood
	}
	i := rng.Intn(n)
	j := rng.Intn(n)
	for j == i {
		j = rng.Intn(n)
	}
	if i > j {
		i, j = j, i
	}
	return SwapMove{I: i, J: j}, nil
}

func (SwapExplorer) ApplyMove(in Input, state State, mv SwapMove) {
	state[mv.I], state[mv.J] = state[mv.J], state[mv.I]
}

func (SwapExplorer) IsFeasibleMove(in Input, state State, mv SwapMove) bool {
	return mv.I != mv.J && mv.I >= 0 && mv.J < in.N
}

// rowAfterSwap reads the row SwapMove mv would assign to col, without
// writing to state: I and J exchange rows, every other column is
// unaffected. Used so DeltaCost never mutates the caller's state, which is
// borrowed immutably by every worker (ParallelExplorer may call DeltaCost
// against the same state concurrently).
func rowAfterSwap(state State, mv SwapMove, col int) int {
	switch col {
	case mv.I:
		return state[mv.J]
	case mv.J:
		return state[mv.I]
	default:
		return state[col]
	}
}

// attacksAtSwapped is attacksAt(col) computed against the state SwapMove mv
// would produce, reading rows through rowAfterSwap instead of materializing
// the swap.
func attacksAtSwapped(state State, mv SwapMove, col int) int {
	colRow := rowAfterSwap(state, mv, col)
	n := 0
	for other := range state {
		if other == col {
			continue
		}
		if abs(rowAfterSwap(state, mv, other)-colRow) == abs(other-col) {
			n++
		}
	}
	return n
}

// DeltaCost computes the conflict-count change a swap induces in O(N) by
// comparing each affected column's attack count before and after, purely:
// it never writes through state, only reads it (directly and via
// attacksAtSwapped).
func (SwapExplorer) DeltaCost(in Input, state State, mv SwapMove, weights []float64) cost.Structure {
	before := attacksAt(state, mv.I) + attacksAt(state, mv.J)
	// The pair (I,J) itself is double counted by the sum above; subtract
	// it once since attacksAt(I) already includes J and vice versa.
	pairBefore := 0
	if abs(state[mv.I]-state[mv.J]) == abs(mv.I-mv.J) {
		pairBefore = 1
	}
	before -= pairBefore

	after := attacksAtSwapped(state, mv, mv.I) + attacksAtSwapped(state, mv, mv.J)
	pairAfter := 0
	if abs(state[mv.J]-state[mv.I]) == abs(mv.I-mv.J) {
		pairAfter = 1
	}
	after -= pairAfter

	delta := after - before
	w := 1.0
	if len(weights) > 0 {
		w = weights[0]
	}
	return cost.Structure{
		// DiagonalConflicts is the only, hard, component of this problem,
		// so the full-total formula (hard_weight*violations + objective)
		// collapses to hard_weight*delta; mirrors cost.Evaluate's scaling
		// with the same cost.DefaultHardWeight statemgr.New is given.
		Total:      cost.DefaultHardWeight * delta,
		Violations: delta,
		Components: []int{delta},
		Weighted:   w * float64(delta),
		IsWeighted: len(weights) > 0,
	}
}
