package cost_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"localsearch/internal/cost"
)

// TestAddSubRoundTrip checks invariant 9: (a+b)-b == a for matching
// component vectors.
func TestAddSubRoundTrip(t *testing.T) {
	a := cost.New(13, 1, 13, []int{1, 5, 7})
	b := cost.New(4, 0, 4, []int{0, 1, 3})

	sum := cost.Add(a, b)
	back := cost.Sub(sum, b)

	require.Equal(t, a, back)
}

// TestAddPadsShorterComponentVector checks the documented zero-padding
// semantics for mismatched component vector lengths.
func TestAddPadsShorterComponentVector(t *testing.T) {
	a := cost.New(1, 0, 1, []int{1})
	b := cost.New(2, 0, 2, []int{1, 1})

	sum := cost.Add(a, b)
	require.Equal(t, []int{2, 1}, sum.Components)
}

// TestHierarchicalVsAggregated is scenario S6: two comparisons where both
// regimes must agree.
func TestHierarchicalVsAggregated(t *testing.T) {
	a := cost.New(10, 0, 10, []int{0, 10})
	b := cost.New(1000, 1, 0, []int{1, 0})

	require.Less(t, cost.Cmp(a, b, cost.Aggregated), 0)
	require.Less(t, cost.Cmp(a, b, cost.Hierarchical), 0)

	a2 := cost.New(10, 0, 10, []int{0, 10})
	b2 := cost.New(5, 0, 5, []int{0, 5})

	require.Less(t, cost.Cmp(b2, a2, cost.Aggregated), 0)
	require.Less(t, cost.Cmp(b2, a2, cost.Hierarchical), 0)
}

// TestAggregatedPrefersWeightedWhenPresent checks that Aggregated compares
// Weighted rather than Total when both operands carry a weight.
func TestAggregatedPrefersWeightedWhenPresent(t *testing.T) {
	a := cost.NewWeighted(100, 2.0, 0, 100, []int{100})
	b := cost.NewWeighted(1, 50.0, 0, 1, []int{1})

	require.True(t, cost.Less(a, b, cost.Aggregated))
}

func TestCmpScalarUsesWeightedWhenSet(t *testing.T) {
	a := cost.NewWeighted(10, -5.0, 0, 10, []int{10})
	require.Equal(t, -1, cost.CmpScalar(a, 0))
}
