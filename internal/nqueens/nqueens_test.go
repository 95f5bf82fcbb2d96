package nqueens_test

import (
	"math/rand"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"localsearch/internal/cost"
	"localsearch/internal/nqueens"
)

func TestRandomStateIsAPermutation(t *testing.T) {
	in := nqueens.Input{N: 12}
	rng := rand.New(rand.NewSource(5))
	s := nqueens.RandomState(in, rng)

	sorted := append(nqueens.State{}, s...)
	sort.Ints(sorted)
	for i, v := range sorted {
		require.Equal(t, i, v)
	}
}

func TestKnownSolutionHasZeroConflicts(t *testing.T) {
	in := nqueens.Input{N: 4}
	s := nqueens.State{1, 3, 0, 2}
	require.Equal(t, 0, nqueens.DiagonalConflicts{}.CostOf(in, s))
}

func TestGreedyStateIsAPermutation(t *testing.T) {
	in := nqueens.Input{N: 20}
	s, err := nqueens.GreedyState(in)
	require.NoError(t, err)

	sorted := append(nqueens.State{}, s...)
	sort.Ints(sorted)
	for i, v := range sorted {
		require.Equal(t, i, v)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := nqueens.State{0, 1, 2}
	c := nqueens.Clone(s)
	c[0] = 99
	require.Equal(t, 0, s[0])
}

// TestSwapDeltaCostIsPure checks that DeltaCost never mutates the state it
// is handed (the state is borrowed immutably by every worker) and that its
// result matches a full before/after reevaluation.
func TestSwapDeltaCostIsPure(t *testing.T) {
	in := nqueens.Input{N: 6}
	state := nqueens.State{0, 1, 2, 3, 4, 5}
	before := append(nqueens.State{}, state...)

	mv := nqueens.SwapMove{I: 1, J: 4}
	comp := nqueens.DiagonalConflicts{}
	costBefore := comp.CostOf(in, state)
	delta := nqueens.SwapExplorer{}.DeltaCost(in, state, mv, nil)

	require.Equal(t, before, state, "DeltaCost must not mutate state")

	nqueens.SwapExplorer{}.ApplyMove(in, state, mv)
	costAfter := comp.CostOf(in, state)
	require.Equal(t, cost.DefaultHardWeight*(costAfter-costBefore), delta.Total)
}

// TestSwapDeltaCostConcurrentSafe drives many concurrent DeltaCost calls
// against the same shared state and checks none of them observe a
// torn/partially-swapped read, the property ParallelExplorer.RandomBest
// depends on.
func TestSwapDeltaCostConcurrentSafe(t *testing.T) {
	in := nqueens.Input{N: 8}
	state := nqueens.State{0, 1, 2, 3, 4, 5, 6, 7}
	want := nqueens.SwapExplorer{}.DeltaCost(in, state, nqueens.SwapMove{I: 2, J: 5}, nil)

	results := make([]cost.Structure, 64)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = nqueens.SwapExplorer{}.DeltaCost(in, state, nqueens.SwapMove{I: 2, J: 5}, nil)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		require.Equal(t, want, got)
	}
}
