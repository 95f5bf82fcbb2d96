package solver_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"localsearch/internal/cost"
	"localsearch/internal/neighborhood"
	"localsearch/internal/nqueens"
	"localsearch/internal/runner"
	"localsearch/internal/solver"
	"localsearch/internal/statemgr"
)

func newSolver(t *testing.T, n int, seed int64) (*solver.Solver[nqueens.Input, nqueens.State, nqueens.SwapMove], nqueens.Input) {
	in := nqueens.Input{N: n}
	exp := neighborhood.New[nqueens.Input, nqueens.State, nqueens.SwapMove](nqueens.SwapExplorer{}, nil)
	r := &runner.Runner[nqueens.Input, nqueens.State, nqueens.SwapMove]{
		Input:             in,
		Explorer:          exp,
		Algorithm:         &runner.SteepestDescent[nqueens.Input, nqueens.State, nqueens.SwapMove]{},
		Rng:               rand.New(rand.NewSource(seed)),
		CloneState:        nqueens.Clone,
		MaxEvaluations:    2_000_000,
		MaxIdleIterations: 0,
	}
	return solver.New(r, 2*time.Second), in
}

func TestSolveImprovesOverInitial(t *testing.T) {
	sv, in := newSolver(t, 8, 11)
	mgr, err := statemgr.New[nqueens.Input, nqueens.State](
		nqueens.RandomState,
		[]cost.Component[nqueens.Input, nqueens.State]{nqueens.DiagonalConflicts{}},
		cost.DefaultHardWeight,
	)
	require.NoError(t, err)

	// Solve samples one state (InitTrials=1) from rng, so a fresh source with
	// the same seed reproduces the initial state Solve starts from.
	rng := rand.New(rand.NewSource(11))
	initial := mgr.RandomState(in, rand.New(rand.NewSource(11)))
	initialCost := mgr.CostFunction(in, initial)

	sv.WithInitialState(mgr, rng)
	_, bestCost, status, err := sv.Solve(context.Background())
	require.NoError(t, err)
	require.Equal(t, runner.Stopped, status)
	require.LessOrEqual(t, bestCost.Total, initialCost.Total)
}

func TestSolveFromBypassesInitialStateSearch(t *testing.T) {
	sv, in := newSolver(t, 8, 11)
	mgr, err := statemgr.New[nqueens.Input, nqueens.State](
		nqueens.RandomState,
		[]cost.Component[nqueens.Input, nqueens.State]{nqueens.DiagonalConflicts{}},
		cost.DefaultHardWeight,
	)
	require.NoError(t, err)

	initial := mgr.RandomState(in, rand.New(rand.NewSource(11)))
	initialCost := mgr.CostFunction(in, initial)

	_, bestCost, status, err := sv.SolveFrom(context.Background(), initial, initialCost)
	require.NoError(t, err)
	require.Equal(t, runner.Stopped, status)
	require.LessOrEqual(t, bestCost.Total, initialCost.Total)
}

func TestResolveContinuesFromPreviousBest(t *testing.T) {
	sv, in := newSolver(t, 8, 11)
	mgr, err := statemgr.New[nqueens.Input, nqueens.State](
		nqueens.RandomState,
		[]cost.Component[nqueens.Input, nqueens.State]{nqueens.DiagonalConflicts{}},
		cost.DefaultHardWeight,
	)
	require.NoError(t, err)
	initial := mgr.RandomState(in, rand.New(rand.NewSource(11)))
	initialCost := mgr.CostFunction(in, initial)

	_, firstCost, _, err := sv.SolveFrom(context.Background(), initial, initialCost)
	require.NoError(t, err)

	_, secondCost, status, err := sv.Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, runner.Stopped, status)
	require.LessOrEqual(t, secondCost.Total, firstCost.Total)
}

func TestSolveWithoutStateManagerErrors(t *testing.T) {
	sv, _ := newSolver(t, 8, 11)
	_, _, _, err := sv.Solve(context.Background())
	require.Error(t, err)
}

func TestMultiRunnerSolverPicksGlobalBest(t *testing.T) {
	sv1, in := newSolver(t, 10, 1)
	sv2, _ := newSolver(t, 10, 2)

	mgr, err := statemgr.New[nqueens.Input, nqueens.State](
		nqueens.RandomState,
		[]cost.Component[nqueens.Input, nqueens.State]{nqueens.DiagonalConflicts{}},
		cost.DefaultHardWeight,
	)
	require.NoError(t, err)
	initial, initialCost := mgr.SampleState(in, 1, rand.New(rand.NewSource(1)))

	multi := &solver.MultiRunnerSolver[nqueens.Input, nqueens.State, nqueens.SwapMove]{
		Solvers: []*solver.Solver[nqueens.Input, nqueens.State, nqueens.SwapMove]{sv1, sv2},
		Clone:   nqueens.Clone,
	}

	_, bestCost, err := multi.Solve(context.Background(), initial, initialCost)
	require.NoError(t, err)
	require.LessOrEqual(t, bestCost.Total, initialCost.Total)
}
