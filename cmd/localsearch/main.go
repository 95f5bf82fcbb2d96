// Command localsearch is the CLI front-end exercising the core library
// end-to-end against the N-Queens example problem: pick an algorithm, solve,
// and report the best state/cost found. It is deliberately thin — per spec
// §1, CLI parsing, output serialization, and logging front-ends are the
// user's concern, not the library's.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"localsearch/internal/corespec"
	"localsearch/internal/cost"
	"localsearch/internal/neighborhood"
	"localsearch/internal/nqueens"
	"localsearch/internal/observer"
	"localsearch/internal/param"
	"localsearch/internal/runner"
	"localsearch/internal/solver"
	"localsearch/internal/statemgr"
	"localsearch/internal/tabu"
)

// Exit codes per spec §6.
const (
	exitSuccess        = 0
	exitParameterError = 1
	exitTimeout        = 2
	exitCancelled      = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	v := viper.New()
	v.SetEnvPrefix("LOCALSEARCH")
	v.AutomaticEnv()

	var (
		algo               string
		n                  int
		seed               int64
		timeout            time.Duration
		maxEval            uint64
		maxIdle            uint64
		startTemp          float64
		minTemp            float64
		coolingRate        float64
		minTenure          int
		maxTenure          int
		samples            int
		initTrials         int
		greedyInitialState bool
		concurrency        int64
	)

	root := &cobra.Command{
		Use:   "localsearch",
		Short: "solve N-Queens with the local-search core",
		RunE: func(cmd *cobra.Command, args []string) error {
			return solveCmd(cmd.Context(), v, algo, n, seed, timeout, maxEval, maxIdle, startTemp, minTemp, coolingRate,
				minTenure, maxTenure, samples, initTrials, greedyInitialState, concurrency)
		},
	}

	flags := root.Flags()
	flags.StringVar(&algo, "algo", "hc", "algorithm: hc|sd|sa-min|sa-iter|sa-time|tabu|bimodal-hc|bimodal-tabu")
	flags.IntVar(&n, "n", 8, "board size")
	flags.Int64Var(&seed, "seed", 42, "random seed")
	flags.DurationVar(&timeout, "timeout", 5*time.Second, "solve timeout (0 disables it)")
	flags.Uint64Var(&maxEval, "max-evaluations", 2_000_000, "max delta-cost evaluations (0 disables it)")
	flags.Uint64Var(&maxIdle, "max-idle-iterations", 200_000, "max iterations without a new best (0 disables it)")
	flags.Float64Var(&startTemp, "start-temperature", 10.0, "simulated annealing start temperature (0 auto-calibrates)")
	flags.Float64Var(&minTemp, "min-temperature", 0.01, "simulated annealing stop temperature")
	flags.Float64Var(&coolingRate, "cooling-rate", 0.95, "simulated annealing cooling rate, in (0,1)")
	flags.IntVar(&minTenure, "min-tenure", 5, "tabu list minimum tenure")
	flags.IntVar(&maxTenure, "max-tenure", 10, "tabu list maximum tenure")
	flags.IntVar(&samples, "samples", 500, "neighbors sampled per iteration (hill climbing)")
	flags.IntVar(&initTrials, "init-trials", 1, "random initial states sampled, keeping the best")
	flags.BoolVar(&greedyInitialState, "greedy", false, "build the initial state with the greedy constructor instead of random sampling")
	flags.Int64Var(&concurrency, "concurrency", 1, "worker pool size for hill climbing's move sampling (hc only; >1 uses ParallelExplorer)")
	_ = v.BindPFlags(flags)

	if err := root.ExecuteContext(context.Background()); err != nil {
		if code, ok := err.(exitCoder); ok {
			fmt.Fprintln(os.Stderr, "error:", err)
			return code.ExitCode()
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		return exitParameterError
	}
	return exitSuccess
}

func parseFloat64(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

type exitCoder interface {
	error
	ExitCode() int
}

type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string { return e.err.Error() }
func (e exitError) ExitCode() int { return e.code }

func solveCmd(ctx context.Context, v *viper.Viper, algo string, n int, seed int64, timeout time.Duration,
	maxEval, maxIdle uint64, startTemp, minTemp, coolingRate float64, minTenure, maxTenure, samples, initTrials int,
	greedyInitialState bool, concurrency int64) error {

	box := param.NewBox("cli")
	pAlgo := param.New[string]("algo", "algorithm name")
	pAlgo.Set(algo)
	param.Declare(box, pAlgo, "string", "hc", true, func(s string) (string, error) { return s, nil }, func(s string) error {
		switch s {
		case "hc", "sd", "sa-min", "sa-iter", "sa-time", "tabu", "bimodal-hc", "bimodal-tabu":
			return nil
		default:
			return fmt.Errorf("unknown algorithm %q", s)
		}
	})
	pCooling := param.New[float64]("cooling_rate", "simulated annealing cooling rate")
	pCooling.Set(coolingRate)
	param.Declare(box, pCooling, "float64", "0.95", false, parseFloat64, func(f float64) error {
		if f <= 0 || f >= 1 {
			return fmt.Errorf("cooling_rate must be in (0,1), got %v", f)
		}
		return nil
	})
	pTenure := param.New[int]("min_tenure", "tabu minimum tenure")
	pTenure.Set(minTenure)
	param.Declare(box, pTenure, "int", "5", false, strconv.Atoi, nil)
	pInitTrials := param.New[int]("init_trials", "random initial states sampled, keeping the best")
	pInitTrials.Set(initTrials)
	param.Declare(box, pInitTrials, "int", "1", false, strconv.Atoi, func(i int) error {
		if i < 1 {
			return fmt.Errorf("init_trials must be >= 1, got %d", i)
		}
		return nil
	})

	if err := box.CheckRequired(); err != nil {
		return exitError{code: exitParameterError, err: err}
	}
	if minTenure > maxTenure {
		return exitError{code: exitParameterError, err: fmt.Errorf("%w: min_tenure > max_tenure", corespec.ErrIncorrectParameterValue)}
	}
	if coolingRate <= 0 || coolingRate >= 1 {
		return exitError{code: exitParameterError, err: fmt.Errorf("%w: cooling_rate must be in (0,1)", corespec.ErrIncorrectParameterValue)}
	}

	in := nqueens.Input{N: n}
	rng := rand.New(rand.NewSource(seed))
	components := []cost.Component[nqueens.Input, nqueens.State]{nqueens.DiagonalConflicts{}}
	mgr, err := statemgr.New[nqueens.Input, nqueens.State](
		nqueens.RandomState,
		components,
		cost.DefaultHardWeight,
		statemgr.WithGreedyState(nqueens.GreedyState),
	)
	if err != nil {
		return exitError{code: exitParameterError, err: err}
	}

	bus := observer.New(64, observer.SlogSink{})
	defer bus.Close()

	var (
		status   runner.Status
		best     nqueens.State
		bestCost cost.Structure
	)

	switch algo {
	case "bimodal-hc", "bimodal-tabu":
		best, bestCost, status, err = solveBimodal(ctx, algo, in, rng, bus, mgr, timeout, maxEval, maxIdle,
			minTenure, maxTenure, initTrials, greedyInitialState)
	default:
		best, bestCost, status, err = solveUnimodal(ctx, algo, in, rng, bus, mgr, timeout, maxEval, maxIdle,
			startTemp, minTemp, coolingRate, minTenure, maxTenure, samples, initTrials, greedyInitialState, concurrency)
	}
	if err != nil {
		return exitError{code: exitParameterError, err: err}
	}

	fmt.Printf("status=%s best_cost=%d state=%v\n", status, bestCost.Total, best)

	switch status {
	case runner.Timedout:
		return exitError{code: exitTimeout, err: fmt.Errorf("timed out with best cost %d", bestCost.Total)}
	case runner.Cancelled:
		return exitError{code: exitCancelled, err: fmt.Errorf("cancelled with best cost %d", bestCost.Total)}
	}
	return nil
}

func solveUnimodal(ctx context.Context, algo string, in nqueens.Input, rng *rand.Rand, bus *observer.Bus,
	mgr *statemgr.Manager[nqueens.Input, nqueens.State], timeout time.Duration, maxEval, maxIdle uint64,
	startTemp, minTemp, coolingRate float64, minTenure, maxTenure, samples, initTrials int, greedyInitialState bool,
	concurrency int64,
) (nqueens.State, cost.Structure, runner.Status, error) {
	explorer := neighborhood.New[nqueens.Input, nqueens.State, nqueens.SwapMove](nqueens.SwapExplorer{}, nil)

	r := &runner.Runner[nqueens.Input, nqueens.State, nqueens.SwapMove]{
		Input:             in,
		Explorer:          explorer,
		Rng:               rng,
		Bus:               bus,
		CloneState:        nqueens.Clone,
		MaxEvaluations:    maxEval,
		MaxIdleIterations: maxIdle,
	}
	r.Algorithm = buildAlgorithm(algo, rng, startTemp, minTemp, coolingRate, minTenure, maxTenure, samples)
	if algo == "hc" && concurrency > 1 {
		r.Algorithm.(*runner.HillClimbing[nqueens.Input, nqueens.State, nqueens.SwapMove]).Parallel =
			neighborhood.NewParallel(explorer, concurrency)
	}

	sv := solver.New(r, timeout).WithInitialState(mgr, rng)
	sv.InitTrials = uint32(initTrials)
	sv.RandomInitialState = !greedyInitialState

	best, bestCost, status, err := sv.Solve(ctx)
	return best, bestCost, status, err
}

func solveBimodal(ctx context.Context, algo string, in nqueens.Input, rng *rand.Rand, bus *observer.Bus,
	mgr *statemgr.Manager[nqueens.Input, nqueens.State], timeout time.Duration, maxEval, maxIdle uint64,
	minTenure, maxTenure, initTrials int, greedyInitialState bool,
) (nqueens.State, cost.Structure, runner.Status, error) {
	explorer1 := neighborhood.New[nqueens.Input, nqueens.State, nqueens.SwapMove](nqueens.SwapExplorer{}, nil)
	explorer2 := neighborhood.New[nqueens.Input, nqueens.State, nqueens.SwapMove](nqueens.SwapExplorer{}, nil)

	r := &runner.Runner[nqueens.Input, nqueens.State, runner.BimodalMove[nqueens.SwapMove, nqueens.SwapMove]]{
		Input: in,
		Explorer: neighborhood.New[nqueens.Input, nqueens.State, runner.BimodalMove[nqueens.SwapMove, nqueens.SwapMove]](
			runner.BimodalBase[nqueens.Input, nqueens.State, nqueens.SwapMove, nqueens.SwapMove]{
				Base1: nqueens.SwapExplorer{}, Base2: nqueens.SwapExplorer{},
			}, nil),
		Rng:               rng,
		Bus:               bus,
		CloneState:        nqueens.Clone,
		MaxEvaluations:    maxEval,
		MaxIdleIterations: maxIdle,
	}

	inverse := func(m1, m2 nqueens.SwapMove) bool {
		return (m1.I == m2.I && m1.J == m2.J) || (m1.I == m2.J && m1.J == m2.I)
	}

	switch algo {
	case "bimodal-tabu":
		r.Algorithm = &runner.BimodalTabuSearch[nqueens.Input, nqueens.State, nqueens.SwapMove, nqueens.SwapMove]{
			Explorer1: explorer1, Explorer2: explorer2,
			List1: tabu.New[nqueens.SwapMove](minTenure, maxTenure, inverse),
			List2: tabu.New[nqueens.SwapMove](minTenure, maxTenure, inverse),
			Rng:   rng,
		}
	default:
		r.Algorithm = &runner.BimodalHillClimbing[nqueens.Input, nqueens.State, nqueens.SwapMove, nqueens.SwapMove]{
			Explorer1: explorer1, Explorer2: explorer2, Rng: rng,
		}
	}

	sv := solver.New(r, timeout).WithInitialState(mgr, rng)
	sv.InitTrials = uint32(initTrials)
	sv.RandomInitialState = !greedyInitialState

	best, bestCost, status, err := sv.Solve(ctx)
	return best, bestCost, status, err
}

func buildAlgorithm(algo string, rng *rand.Rand, startTemp, minTemp, coolingRate float64, minTenure, maxTenure, samples int) runner.Algorithm[nqueens.Input, nqueens.State, nqueens.SwapMove] {
	switch algo {
	case "sd":
		return &runner.SteepestDescent[nqueens.Input, nqueens.State, nqueens.SwapMove]{Rng: rng}
	case "sa-min":
		return &runner.SAMinTemperature[nqueens.Input, nqueens.State, nqueens.SwapMove]{
			StartTemperature: startTemp, CoolingRate: coolingRate, MinTemperature: minTemp,
		}
	case "sa-iter":
		return &runner.SAIterationBased[nqueens.Input, nqueens.State, nqueens.SwapMove]{
			StartTemperature: startTemp, CoolingRate: coolingRate, MinTemperature: minTemp,
		}
	case "sa-time":
		return &runner.SATimeBased[nqueens.Input, nqueens.State, nqueens.SwapMove]{
			StartTemperature: startTemp, CoolingRate: coolingRate, MinTemperature: minTemp,
			AllowedRunningTime: 5 * time.Second,
		}
	case "tabu":
		inverse := func(m1, m2 nqueens.SwapMove) bool {
			return (m1.I == m2.I && m1.J == m2.J) || (m1.I == m2.J && m1.J == m2.I)
		}
		return &runner.TabuSearch[nqueens.Input, nqueens.State, nqueens.SwapMove]{
			List: tabu.New[nqueens.SwapMove](minTenure, maxTenure, inverse),
			Rng:  rng,
		}
	default:
		return &runner.HillClimbing[nqueens.Input, nqueens.State, nqueens.SwapMove]{Samples: samples, Rng: rng}
	}
}
