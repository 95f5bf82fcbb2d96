// Package runner implements the Move Runner state machine described in
// spec §4.6: init, select, evaluate, accept/reject, commit, update best,
// update iteration, stop — plus the concrete algorithms layered on top of
// it (hill climbing, steepest descent, the three simulated annealing
// variants, tabu search, and the bimodal variants).
package runner

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"localsearch/internal/corespec"
	"localsearch/internal/cost"
	"localsearch/internal/interrupt"
	"localsearch/internal/neighborhood"
	"localsearch/internal/observer"
)

// Status is one of the states in the runner's lifecycle:
// Idle -> Initializing -> Running -> {Stopped, Timedout, Cancelled}.
type Status int

const (
	Idle Status = iota
	Initializing
	Running
	Stopped
	Timedout
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Initializing:
		return "Initializing"
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	case Timedout:
		return "Timedout"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Algorithm is the strategy a Runner drives: it selects a move, decides
// whether it is acceptable, performs algorithm-specific bookkeeping after
// each committed/rejected iteration, and decides when its own stop
// criterion (distinct from the shared max-evaluations/timeout/cancellation
// checks) has been reached.
type Algorithm[I, S, M any] interface {
	InitializeRun(r *Runner[I, S, M]) error
	SelectMove(r *Runner[I, S, M]) bool
	AcceptableMove(r *Runner[I, S, M]) bool
	CompleteIteration(r *Runner[I, S, M])
	StopCriterion(r *Runner[I, S, M]) bool
}

// Runner drives one Algorithm over one (Input, State, Move) triple. It owns
// exactly one current state and one best state, per spec §3.
type Runner[I, S, M any] struct {
	Input          I
	Explorer       *neighborhood.Explorer[I, S, M]
	Algorithm      Algorithm[I, S, M]
	Rng            *rand.Rand
	Bus            *observer.Bus // owned by the caller; Run emits Start/End but never closes it, since Resolve re-runs the same Runner+Bus
	CloneState     func(S) S
	HardWeight     int

	MaxEvaluations    uint64 // 0 means unbounded
	MaxIdleIterations uint64 // 0 means unbounded

	status          Status
	iteration       uint64
	evaluations     uint64
	idleIterations  uint64
	iterationOfBest uint64

	currentState S
	currentCost  cost.Structure
	bestState    S
	bestCost     cost.Structure

	currentMove     M
	currentMoveCost cost.Structure
	moveValid       bool

	tok *interrupt.Token
}

// Status returns the runner's current lifecycle state.
func (r *Runner[I, S, M]) Status() Status { return r.status }

// Iteration returns the number of completed iterations.
func (r *Runner[I, S, M]) Iteration() uint64 { return r.iteration }

// Evaluations returns the number of delta-cost evaluations performed.
func (r *Runner[I, S, M]) Evaluations() uint64 { return r.evaluations }

// IdleIterations returns the number of iterations since the last strict
// best-cost improvement.
func (r *Runner[I, S, M]) IdleIterations() uint64 { return r.idleIterations }

// IterationOfBest returns the iteration index at which BestCost was last
// improved.
func (r *Runner[I, S, M]) IterationOfBest() uint64 { return r.iterationOfBest }

// CurrentState returns the runner's current candidate state.
func (r *Runner[I, S, M]) CurrentState() S { return r.currentState }

// CurrentCost returns the cost of CurrentState.
func (r *Runner[I, S, M]) CurrentCost() cost.Structure { return r.currentCost }

// BestState returns the best state found so far.
func (r *Runner[I, S, M]) BestState() S { return r.bestState }

// BestCost returns the cost of BestState.
func (r *Runner[I, S, M]) BestCost() cost.Structure { return r.bestCost }

// CurrentMove returns the move chosen by the most recent SelectMove call.
func (r *Runner[I, S, M]) CurrentMove() M { return r.currentMove }

// CurrentMoveCost returns the delta cost of CurrentMove.
func (r *Runner[I, S, M]) CurrentMoveCost() cost.Structure { return r.currentMoveCost }

// SetCurrentMove lets an Algorithm populate the move selected this
// iteration, alongside its already-computed delta cost.
func (r *Runner[I, S, M]) SetCurrentMove(mv M, delta cost.Structure) {
	r.currentMove = mv
	r.currentMoveCost = delta
	r.moveValid = true
}

// CountEvaluation lets an Algorithm report the delta-cost evaluations it
// performed while scanning for a move (the winner and the ones rejected
// before settling on it), so MaxEvaluations is driven off the real
// exploration cost, not just one increment per committed move.
func (r *Runner[I, S, M]) CountEvaluation(n int) {
	if n > 0 {
		r.evaluations += uint64(n)
	}
}

// Token returns the runner's cooperative-cancellation token.
func (r *Runner[I, S, M]) Token() *interrupt.Token { return r.tok }

// ApplyCurrentMove performs step 3 of spec §4.6's per-iteration algorithm:
// applies CurrentMove to CurrentState, updates CurrentCost, and updates
// BestState/BestCost (notifying NEW_BEST or MADE_MOVE) if the result
// improves on the best seen so far.
func (r *Runner[I, S, M]) ApplyCurrentMove() {
	r.Explorer.ApplyMove(r.Input, r.currentState, r.currentMove)
	r.currentCost = cost.Add(r.currentCost, r.currentMoveCost)
	r.moveValid = false

	if cost.Less(r.currentCost, r.bestCost, cost.Aggregated) {
		if r.CloneState != nil {
			r.bestState = r.CloneState(r.currentState)
		} else {
			r.bestState = r.currentState
		}
		r.bestCost = r.currentCost
		r.iterationOfBest = r.iteration
		r.idleIterations = 0
		if r.Bus != nil {
			r.Bus.NewBest(r.iteration, r.bestCost, r.currentMove, r.status.String())
		}
	} else {
		r.idleIterations++
		if r.Bus != nil {
			r.Bus.MadeMove(r.iteration, r.currentCost, r.currentMove, r.status.String())
		}
	}
}

// RegisterIdle increments the idle-iteration counter for an iteration that
// produced no move at all (e.g. an empty neighborhood), without touching
// best/current state.
func (r *Runner[I, S, M]) RegisterIdle() { r.idleIterations++ }

// Init sets up the runner's initial state/cost and moves it to the
// Initializing status, invoking the algorithm's InitializeRun hook.
func (r *Runner[I, S, M]) Init(initial S, initialCost cost.Structure) error {
	r.status = Initializing
	r.currentState = initial
	r.currentCost = initialCost
	if r.CloneState != nil {
		r.bestState = r.CloneState(initial)
	} else {
		r.bestState = initial
	}
	r.bestCost = initialCost
	r.iteration = 0
	r.evaluations = 0
	r.idleIterations = 0
	r.iterationOfBest = 0
	r.tok = interrupt.NewToken()
	return r.Algorithm.InitializeRun(r)
}

// Run executes the per-iteration state machine of spec §4.6 until a stop
// condition fires, returning the terminal Status alongside any non-control
// error. Cancelled/Timedout are reported via Status, not err — per spec §7,
// they do not invalidate BestState.
func (r *Runner[I, S, M]) Run(ctx context.Context) (Status, error) {
	r.status = Running
	if r.Bus != nil {
		r.Bus.Start(r.status.String())
	}

	for {
		if ctx.Err() != nil || (r.tok != nil && r.tok.Requested()) {
			r.status = r.terminalCancelStatus(ctx)
			break
		}

		ok := r.Algorithm.SelectMove(r)
		if ok {
			if r.Algorithm.AcceptableMove(r) {
				r.ApplyCurrentMove()
			} else {
				r.moveValid = false
				r.idleIterations++
			}
		} else {
			r.RegisterIdle()
		}

		r.Algorithm.CompleteIteration(r)
		r.iteration++

		if r.MaxEvaluations > 0 && r.evaluations >= r.MaxEvaluations {
			r.status = Stopped
			break
		}
		if r.MaxIdleIterations > 0 && r.idleIterations >= r.MaxIdleIterations {
			r.status = Stopped
			break
		}
		if r.Algorithm.StopCriterion(r) {
			r.status = Stopped
			break
		}
	}

	if r.Bus != nil {
		r.Bus.End(r.iteration, r.bestCost, r.status.String())
	}
	return r.status, nil
}

func (r *Runner[I, S, M]) terminalCancelStatus(ctx context.Context) Status {
	if r.tok != nil && r.tok.Requested() {
		if errors.Is(r.tok.Err(), corespec.ErrTimedOut) {
			return Timedout
		}
		return Cancelled
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Timedout
	}
	return Cancelled
}

// RunSync wraps Run with interrupt.RunWithTimeout, the syncrun_with_timeout
// of spec §5: it spawns the runner on a worker, arms a monotonic deadline
// of d (d<=0 disables it), and raises the cancellation token at the
// deadline rather than interrupting mid-ApplyMove.
func (r *Runner[I, S, M]) RunSync(ctx context.Context, d time.Duration) (Status, error) {
	_ = interrupt.RunWithTimeout(ctx, d, r.tok, func(ctx context.Context, _ *interrupt.Token) error {
		_, runErr := r.Run(ctx)
		return runErr
	})
	return r.status, nil
}

// Cancel requests cooperative cancellation, observed at the next iteration
// boundary.
func (r *Runner[I, S, M]) Cancel() {
	if r.tok != nil {
		r.tok.Cancel()
	}
}
