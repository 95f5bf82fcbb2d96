// Package solver implements the Solver & composition layer of spec §4.7:
// a single-runner Solver exposing solve()/resolve() — including
// find_initial_state()'s random-sampling/greedy choice — and a
// MultiRunnerSolver composing several runners sequentially or in
// parallel, propagating the best state found and cancelling siblings once
// one of them reaches its lower bound.
package solver

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"localsearch/internal/cost"
	"localsearch/internal/runner"
	"localsearch/internal/statemgr"
)

// Solver drives one Runner through a bounded solve, and optionally resumes
// it from its own best state for a further resolve(). StateManager/Rng are
// how Solve implements find_initial_state (spec §4.7): InitTrials random
// draws kept-best when RandomInitialState is true, or a call to the
// registered greedy_state generator otherwise (spec §6's Solver defaults:
// init_trials=1, random_initial_state=true).
type Solver[I, S, M any] struct {
	Runner  *runner.Runner[I, S, M]
	Timeout time.Duration // 0 means unbounded

	StateManager       *statemgr.Manager[I, S]
	Rng                *rand.Rand
	InitTrials         uint32
	RandomInitialState bool
}

// New builds a Solver over an already-wired Runner, with spec §6's Solver
// defaults (init_trials=1, random_initial_state=true). Call WithInitialState
// to register the state manager/RNG Solve needs to find its own starting
// state, or use SolveFrom directly to bypass find_initial_state entirely.
func New[I, S, M any](r *runner.Runner[I, S, M], timeout time.Duration) *Solver[I, S, M] {
	return &Solver[I, S, M]{Runner: r, Timeout: timeout, InitTrials: 1, RandomInitialState: true}
}

// WithInitialState registers the state manager and RNG find_initial_state
// draws from, returning the Solver for chaining.
func (s *Solver[I, S, M]) WithInitialState(mgr *statemgr.Manager[I, S], rng *rand.Rand) *Solver[I, S, M] {
	s.StateManager = mgr
	s.Rng = rng
	return s
}

// findInitialState implements spec §4.7's find_initial_state(): sample
// InitTrials random states and keep the best, or invoke greedy_state when
// RandomInitialState is false.
func (s *Solver[I, S, M]) findInitialState() (S, cost.Structure, error) {
	var zero S
	if s.StateManager == nil {
		return zero, cost.Structure{}, fmt.Errorf("solver: StateManager is required by Solve; use SolveFrom to supply an initial state directly")
	}
	if !s.RandomInitialState {
		state, err := s.StateManager.GreedyState(s.Runner.Input)
		if err != nil {
			return zero, cost.Structure{}, err
		}
		return state, s.StateManager.CostFunction(s.Runner.Input, state), nil
	}
	trials := s.InitTrials
	if trials == 0 {
		trials = 1
	}
	state, c := s.StateManager.SampleState(s.Runner.Input, int(trials), s.Rng)
	return state, c, nil
}

// Solve implements spec §4.7's solve(): find_initial_state(), then run the
// runner to completion under Timeout, returning the best state/cost found
// and the terminal status.
func (s *Solver[I, S, M]) Solve(ctx context.Context) (S, cost.Structure, runner.Status, error) {
	initial, initialCost, err := s.findInitialState()
	if err != nil {
		var zero S
		return zero, cost.Structure{}, runner.Idle, err
	}
	return s.SolveFrom(ctx, initial, initialCost)
}

// SolveFrom initializes the runner directly at (initial, initialCost),
// bypassing find_initial_state — used by Resolve to warm-start from a
// prior best state, and by callers (including MultiRunnerSolver) that
// already have an initial state in hand.
func (s *Solver[I, S, M]) SolveFrom(ctx context.Context, initial S, initialCost cost.Structure) (S, cost.Structure, runner.Status, error) {
	if err := s.Runner.Init(initial, initialCost); err != nil {
		return initial, initialCost, runner.Idle, err
	}
	status, err := s.Runner.RunSync(ctx, s.Timeout)
	return s.Runner.BestState(), s.Runner.BestCost(), status, err
}

// Resolve re-initializes the runner from the best state of the previous
// Solve/Resolve call and runs it again (spec §4.7's resolve(): continue the
// search from where it left off, rather than restarting from scratch).
func (s *Solver[I, S, M]) Resolve(ctx context.Context) (S, cost.Structure, runner.Status, error) {
	return s.SolveFrom(ctx, s.Runner.BestState(), s.Runner.BestCost())
}

// MultiRunnerSolver composes several Solvers over the same (I, S, M) types
// — e.g. different algorithms or different random seeds — and returns the
// best of their results. Clone, if set, is used to give each solver its own
// copy of the initial state so concurrent runners never alias mutable
// state; it defaults to the identity function, which is only safe for
// value-typed S or when solvers are run sequentially.
type MultiRunnerSolver[I, S, M any] struct {
	Solvers  []*Solver[I, S, M]
	Parallel bool
	Clone    func(S) S
}

func (m *MultiRunnerSolver[I, S, M]) clone(s S) S {
	if m.Clone == nil {
		return s
	}
	return m.Clone(s)
}

// Solve runs every solver against its own clone of (initial, initialCost) —
// a shared starting point the caller has already found, via SolveFrom —
// sequentially or concurrently per Parallel, and returns the best result
// across all of them. When any solver's best cost reaches its lower bound
// (cost.Structure with Violations==0 and Objective==0, per statemgr's
// LowerBoundReached), the remaining solvers are cancelled rather than run
// to their own completion.
func (m *MultiRunnerSolver[I, S, M]) Solve(ctx context.Context, initial S, initialCost cost.Structure) (S, cost.Structure, error) {
	bestState := initial
	bestCost := initialCost
	haveBest := false

	if !m.Parallel {
		for _, sv := range m.Solvers {
			st, c, _, err := sv.SolveFrom(ctx, m.clone(initial), initialCost)
			if err != nil {
				return bestState, bestCost, err
			}
			if !haveBest || cost.Less(c, bestCost, cost.Aggregated) {
				bestState, bestCost, haveBest = st, c, true
			}
			if statemgr.LowerBoundReached(c) {
				break
			}
			if ctx.Err() != nil {
				break
			}
		}
		return bestState, bestCost, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(runCtx)
	for _, sv := range m.Solvers {
		sv := sv
		g.Go(func() error {
			st, c, _, err := sv.SolveFrom(gctx, m.clone(initial), initialCost)
			if err != nil {
				return err
			}
			mu.Lock()
			if !haveBest || cost.Less(c, bestCost, cost.Aggregated) {
				bestState, bestCost, haveBest = st, c, true
			}
			reachedLB := statemgr.LowerBoundReached(c)
			mu.Unlock()
			if reachedLB {
				cancel()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil && runCtx.Err() == nil {
		return bestState, bestCost, err
	}
	return bestState, bestCost, nil
}
