package runner_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"localsearch/internal/corespec"
	"localsearch/internal/cost"
	"localsearch/internal/neighborhood"
	"localsearch/internal/nqueens"
	"localsearch/internal/runner"
	"localsearch/internal/solver"
	"localsearch/internal/statemgr"
	"localsearch/internal/tabu"
)

func nqueensCost(in nqueens.Input, state nqueens.State) cost.Structure {
	mgr, err := statemgr.New[nqueens.Input, nqueens.State](
		nqueens.RandomState,
		[]cost.Component[nqueens.Input, nqueens.State]{nqueens.DiagonalConflicts{}},
		cost.DefaultHardWeight,
	)
	if err != nil {
		panic(err)
	}
	return mgr.CostFunction(in, state)
}

func newRunner(t *testing.T, n int, algo runner.Algorithm[nqueens.Input, nqueens.State, nqueens.SwapMove]) (*runner.Runner[nqueens.Input, nqueens.State, nqueens.SwapMove], nqueens.Input, nqueens.State) {
	in := nqueens.Input{N: n}
	state := make(nqueens.State, n)
	for i := range state {
		state[i] = i
	}
	exp := neighborhood.New[nqueens.Input, nqueens.State, nqueens.SwapMove](nqueens.SwapExplorer{}, nil)
	r := &runner.Runner[nqueens.Input, nqueens.State, nqueens.SwapMove]{
		Input:             in,
		Explorer:          exp,
		Algorithm:         algo,
		Rng:               rand.New(rand.NewSource(1)),
		CloneState:        nqueens.Clone,
		MaxEvaluations:    1_000_000,
		MaxIdleIterations: 200_000,
	}
	return r, in, state
}

// TestSteepestDescentReachesLocalOptimum is scenario S1: steepest descent
// over the swap neighborhood from the identity permutation terminates at a
// point where no move improves, well under the scenario's time budget.
func TestSteepestDescentReachesLocalOptimum(t *testing.T) {
	algo := &runner.SteepestDescent[nqueens.Input, nqueens.State, nqueens.SwapMove]{}
	r, in, state := newRunner(t, 8, algo)

	initialCost := nqueensCost(in, state)
	require.NoError(t, r.Init(state, initialCost))

	deadline := time.Now()
	status, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, runner.Stopped, status)
	require.Less(t, time.Since(deadline), 50*time.Millisecond)

	// No remaining move should strictly improve the final current state.
	exp := neighborhood.New[nqueens.Input, nqueens.State, nqueens.SwapMove](nqueens.SwapExplorer{}, nil)
	best, _ := exp.SelectBest(in, r.CurrentState(), neighborhood.AcceptAll[nqueens.SwapMove], nil)
	if best.Valid {
		require.GreaterOrEqual(t, best.Delta.Total, 0)
	}
}

// TestSimulatedAnnealingHitsOptimum is scenario S2: simulated annealing
// with the stated parameters finds a zero-conflict board within 5s.
func TestSimulatedAnnealingHitsOptimum(t *testing.T) {
	algo := &runner.SAMinTemperature[nqueens.Input, nqueens.State, nqueens.SwapMove]{
		StartTemperature: 10.0, MinTemperature: 0.01, CoolingRate: 0.95,
		NeighborsSampled: 500, NeighborsAccepted: 100,
	}
	r, _, _ := newRunner(t, 50, algo)
	r.MaxEvaluations = 0
	r.MaxIdleIterations = 0
	r.Rng = rand.New(rand.NewSource(42))

	mgr, err := statemgr.New[nqueens.Input, nqueens.State](
		nqueens.RandomState,
		[]cost.Component[nqueens.Input, nqueens.State]{nqueens.DiagonalConflicts{}},
		cost.DefaultHardWeight,
	)
	require.NoError(t, err)

	start := time.Now()
	sv := solver.New(r, 5*time.Second).WithInitialState(mgr, rand.New(rand.NewSource(42)))
	_, bestCost, status, err := sv.Solve(context.Background())
	require.NoError(t, err)

	require.Less(t, time.Since(start), 5*time.Second)
	require.Contains(t, []runner.Status{runner.Stopped, runner.Timedout}, status)
	require.Equal(t, 0, bestCost.Total)
}

// TestTimeoutPreservesBest is scenario S5: a bounded-time run returns
// within the deadline with the best state ever seen, never a partially
// applied move, and is reported via Status rather than an error.
func TestTimeoutPreservesBest(t *testing.T) {
	algo := &runner.SAMinTemperature[nqueens.Input, nqueens.State, nqueens.SwapMove]{
		StartTemperature: 10.0, CoolingRate: 0.999, MinTemperature: 0.0001,
	}
	r, in, state := newRunner(t, 50, algo)
	r.MaxEvaluations = 0
	r.MaxIdleIterations = 0

	initialCost := nqueensCost(in, state)

	start := time.Now()
	sv := solver.New(r, 50*time.Millisecond)
	best, bestCost, status, err := sv.SolveFrom(context.Background(), state, initialCost)
	require.NoError(t, err)
	elapsed := time.Since(start)

	require.Less(t, elapsed, 150*time.Millisecond)
	require.Contains(t, []runner.Status{runner.Timedout, runner.Stopped}, status)
	require.LessOrEqual(t, bestCost.Total, initialCost.Total)
	require.Len(t, best, in.N)
}

// TestHillClimbingReachesLocalOptimum checks that hill climbing, sampling a
// fixed number of random moves per iteration, terminates once it has gone
// MaxIdleIterations iterations without a strict improvement, never
// worsening the best state.
func TestHillClimbingReachesLocalOptimum(t *testing.T) {
	algo := &runner.HillClimbing[nqueens.Input, nqueens.State, nqueens.SwapMove]{Samples: 10}
	r, in, state := newRunner(t, 8, algo)
	r.MaxEvaluations = 0
	r.MaxIdleIterations = 1_000

	initialCost := nqueensCost(in, state)
	require.NoError(t, r.Init(state, initialCost))

	status, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, runner.Stopped, status)
	require.LessOrEqual(t, r.BestCost().Total, initialCost.Total)
}

// TestHillClimbingRejectsNegativeSamples is scenario §6's
// IncorrectParameterValue invariant: a malformed Samples value must be
// surfaced at InitializeRun, not discovered mid-run.
func TestHillClimbingRejectsNegativeSamples(t *testing.T) {
	algo := &runner.HillClimbing[nqueens.Input, nqueens.State, nqueens.SwapMove]{Samples: -1}
	r, in, state := newRunner(t, 8, algo)
	require.ErrorIs(t, r.Init(state, nqueensCost(in, state)), corespec.ErrIncorrectParameterValue)
}

// TestSAIterationBasedDerivesPerTemperatureBudget is scenario S2's
// iteration-governed SA variant: it runs to MaxEvaluations exhaustion (its
// own StopCriterion is always false) and never worsens on the best state.
func TestSAIterationBasedDerivesPerTemperatureBudget(t *testing.T) {
	algo := &runner.SAIterationBased[nqueens.Input, nqueens.State, nqueens.SwapMove]{
		StartTemperature: 10.0, MinTemperature: 0.01, CoolingRate: 0.9,
	}
	r, in, state := newRunner(t, 10, algo)
	r.MaxEvaluations = 5_000
	r.MaxIdleIterations = 0
	r.Rng = rand.New(rand.NewSource(11))

	initialCost := nqueensCost(in, state)
	require.NoError(t, r.Init(state, initialCost))

	status, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, runner.Stopped, status)
	require.LessOrEqual(t, r.BestCost().Total, initialCost.Total)
}

// TestSATimeBasedStopsWithinAllowedRunningTime is scenario S5's time-bounded
// SA variant, with reheat (maybeReheat) engaged on long idle stretches.
func TestSATimeBasedStopsWithinAllowedRunningTime(t *testing.T) {
	algo := &runner.SATimeBased[nqueens.Input, nqueens.State, nqueens.SwapMove]{
		StartTemperature: 10.0, MinTemperature: 0.01, CoolingRate: 0.9,
		AllowedRunningTime:  100 * time.Millisecond,
		ReheatFactor:        2.0,
		ReheatIdleThreshold: 20,
	}
	r, in, state := newRunner(t, 10, algo)
	r.MaxEvaluations = 0
	r.MaxIdleIterations = 0
	r.Rng = rand.New(rand.NewSource(13))

	initialCost := nqueensCost(in, state)
	start := time.Now()
	require.NoError(t, r.Init(state, initialCost))
	status, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, runner.Stopped, status)
	require.Less(t, time.Since(start), time.Second)
	require.LessOrEqual(t, r.BestCost().Total, initialCost.Total)
}

// TestSAValidateRejectsBadCoolingRate is scenario §6's IncorrectParameterValue
// invariant applied to cooling_rate.
func TestSAValidateRejectsBadCoolingRate(t *testing.T) {
	algo := &runner.SAMinTemperature[nqueens.Input, nqueens.State, nqueens.SwapMove]{
		StartTemperature: 10.0, MinTemperature: 0.01, CoolingRate: 5.0,
	}
	r, in, state := newRunner(t, 8, algo)
	require.ErrorIs(t, r.Init(state, nqueensCost(in, state)), corespec.ErrIncorrectParameterValue)
}

func newBimodalRunner(t *testing.T, n int, algo runner.Algorithm[nqueens.Input, nqueens.State, runner.BimodalMove[nqueens.SwapMove, nqueens.SwapMove]]) (*runner.Runner[nqueens.Input, nqueens.State, runner.BimodalMove[nqueens.SwapMove, nqueens.SwapMove]], nqueens.Input, nqueens.State) {
	in := nqueens.Input{N: n}
	state := make(nqueens.State, n)
	for i := range state {
		state[i] = i
	}
	exp := neighborhood.New[nqueens.Input, nqueens.State, runner.BimodalMove[nqueens.SwapMove, nqueens.SwapMove]](
		runner.BimodalBase[nqueens.Input, nqueens.State, nqueens.SwapMove, nqueens.SwapMove]{
			Base1: nqueens.SwapExplorer{}, Base2: nqueens.SwapExplorer{},
		}, nil)
	r := &runner.Runner[nqueens.Input, nqueens.State, runner.BimodalMove[nqueens.SwapMove, nqueens.SwapMove]]{
		Input:             in,
		Explorer:          exp,
		Algorithm:         algo,
		Rng:               rand.New(rand.NewSource(1)),
		CloneState:        nqueens.Clone,
		MaxEvaluations:    1_000_000,
		MaxIdleIterations: 2_000,
	}
	return r, in, state
}

// TestBimodalHillClimbingStopsWithoutWorseningBest checks that a bimodal
// hill-climbing run over two explorers ends in Stopped (here through
// MaxIdleIterations) and never worsens the best state.
func TestBimodalHillClimbingStopsWithoutWorseningBest(t *testing.T) {
	explorer1 := neighborhood.New[nqueens.Input, nqueens.State, nqueens.SwapMove](nqueens.SwapExplorer{}, nil)
	explorer2 := neighborhood.New[nqueens.Input, nqueens.State, nqueens.SwapMove](nqueens.SwapExplorer{}, nil)
	algo := &runner.BimodalHillClimbing[nqueens.Input, nqueens.State, nqueens.SwapMove, nqueens.SwapMove]{
		Explorer1: explorer1, Explorer2: explorer2, Rng: rand.New(rand.NewSource(5)),
	}
	r, in, state := newBimodalRunner(t, 8, algo)

	initialCost := nqueensCost(in, state)
	require.NoError(t, r.Init(state, initialCost))

	status, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, runner.Stopped, status)
	require.LessOrEqual(t, r.BestCost().Total, initialCost.Total)
}

// TestBimodalHillClimbingRejectsMissingExplorer is scenario §6's
// IncorrectParameterValue invariant applied to a Bimodal variant's required
// Explorer1/Explorer2 wiring.
func TestBimodalHillClimbingRejectsMissingExplorer(t *testing.T) {
	algo := &runner.BimodalHillClimbing[nqueens.Input, nqueens.State, nqueens.SwapMove, nqueens.SwapMove]{}
	r, in, state := newBimodalRunner(t, 8, algo)
	require.ErrorIs(t, r.Init(state, nqueensCost(in, state)), corespec.ErrIncorrectParameterValue)
}

// TestBimodalTabuSearchAcceptsWorseningMoves mirrors
// TestTabuSearchAcceptsWorseningMoves for the two-explorer variant: it keeps
// moving past a local optimum instead of stopping.
func TestBimodalTabuSearchAcceptsWorseningMoves(t *testing.T) {
	inverse := func(m1, m2 nqueens.SwapMove) bool {
		return (m1.I == m2.I && m1.J == m2.J) || (m1.I == m2.J && m1.J == m2.I)
	}
	explorer1 := neighborhood.New[nqueens.Input, nqueens.State, nqueens.SwapMove](nqueens.SwapExplorer{}, nil)
	explorer2 := neighborhood.New[nqueens.Input, nqueens.State, nqueens.SwapMove](nqueens.SwapExplorer{}, nil)
	algo := &runner.BimodalTabuSearch[nqueens.Input, nqueens.State, nqueens.SwapMove, nqueens.SwapMove]{
		Explorer1: explorer1, Explorer2: explorer2,
		List1: tabu.New[nqueens.SwapMove](2, 4, inverse),
		List2: tabu.New[nqueens.SwapMove](2, 4, inverse),
		Rng:   rand.New(rand.NewSource(6)),
	}
	r, in, state := newBimodalRunner(t, 6, algo)
	r.MaxEvaluations = 1000
	r.MaxIdleIterations = 0

	initialCost := nqueensCost(in, state)
	require.NoError(t, r.Init(state, initialCost))

	status, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, runner.Stopped, status)
	require.Greater(t, r.Iteration(), uint64(0))
}

// TestBimodalTabuSearchRejectsBadTenure is scenario §6's
// IncorrectParameterValue invariant applied to a Bimodal tabu variant's two
// tabu lists.
func TestBimodalTabuSearchRejectsBadTenure(t *testing.T) {
	explorer1 := neighborhood.New[nqueens.Input, nqueens.State, nqueens.SwapMove](nqueens.SwapExplorer{}, nil)
	explorer2 := neighborhood.New[nqueens.Input, nqueens.State, nqueens.SwapMove](nqueens.SwapExplorer{}, nil)
	algo := &runner.BimodalTabuSearch[nqueens.Input, nqueens.State, nqueens.SwapMove, nqueens.SwapMove]{
		Explorer1: explorer1, Explorer2: explorer2,
		List1: tabu.New[nqueens.SwapMove](5, 2, func(nqueens.SwapMove, nqueens.SwapMove) bool { return false }),
	}
	r, in, state := newBimodalRunner(t, 8, algo)
	require.ErrorIs(t, r.Init(state, nqueensCost(in, state)), corespec.ErrIncorrectParameterValue)
}

// TestTabuSearchAcceptsWorseningMoves checks that tabu search, unlike
// steepest descent, keeps moving (and inserting into its tabu list) even
// once the current state is a local optimum.
func TestTabuSearchAcceptsWorseningMoves(t *testing.T) {
	inverse := func(m1, m2 nqueens.SwapMove) bool {
		return (m1.I == m2.I && m1.J == m2.J) || (m1.I == m2.J && m1.J == m2.I)
	}
	algo := &runner.TabuSearch[nqueens.Input, nqueens.State, nqueens.SwapMove]{
		List: tabu.New[nqueens.SwapMove](2, 4, inverse),
		Rng:  rand.New(rand.NewSource(3)),
	}
	r, in, state := newRunner(t, 6, algo)
	r.MaxEvaluations = 500
	r.MaxIdleIterations = 0

	initialCost := nqueensCost(in, state)
	require.NoError(t, r.Init(state, initialCost))

	status, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, runner.Stopped, status)
	require.Greater(t, r.Iteration(), uint64(0))
}
