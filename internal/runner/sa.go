package runner

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"localsearch/internal/corespec"
	"localsearch/internal/cost"
)

// validateCoolingSchedule checks the parameters every simulated annealing
// variant shares, mirroring the teacher's sa.Config.Validate(): cooling_rate
// must lie in (0,1) and start/min temperature, when both set, must describe
// a decreasing schedule. Per spec §6 this must be surfaced at
// initialize_run, not discovered mid-run.
func validateCoolingSchedule(startTemperature, minTemperature, coolingRate float64) error {
	if coolingRate <= 0 || coolingRate >= 1 {
		return fmt.Errorf("%w: cooling_rate must be in (0,1), got %v", corespec.ErrIncorrectParameterValue, coolingRate)
	}
	if startTemperature < 0 {
		return fmt.Errorf("%w: start_temperature must be >= 0, got %v", corespec.ErrIncorrectParameterValue, startTemperature)
	}
	if minTemperature < 0 {
		return fmt.Errorf("%w: min_temperature must be >= 0, got %v", corespec.ErrIncorrectParameterValue, minTemperature)
	}
	if startTemperature > 0 && minTemperature >= startTemperature {
		return fmt.Errorf("%w: min_temperature (%v) must be < start_temperature (%v)", corespec.ErrIncorrectParameterValue, minTemperature, startTemperature)
	}
	return nil
}

// metropolis holds the move-selection, acceptance, and cooling bookkeeping
// shared by every simulated annealing variant, per spec §4.6's "abstract"
// SA base: sample one random move, accept improving moves unconditionally
// and worsening ones with probability exp(-delta/T), and cool once either
// neighborsSampled or neighborsAccepted reaches its configured maximum
// (0 disables that trigger), resetting both counters. Reheat, when
// ReheatFactor > 1, multiplies the temperature back up after
// ReheatIdleThreshold consecutive idle iterations, the supplement used to
// escape the long plateaus a single monotonic cooling schedule stalls on.
type metropolis[I, S, M any] struct {
	Rng *rand.Rand

	ReheatFactor        float64
	ReheatIdleThreshold uint64

	temperature          float64
	lastReheatAt         uint64
	neighborsSampled     uint32
	neighborsAccepted    uint32
	maxNeighborsSampled  uint32
	maxNeighborsAccepted uint32
	lastAccepted         bool
	sampledThisIter      bool
}

// init resets the shared state and sets the starting temperature,
// auto-calibrating it when startTemperature is 0 per spec §4.6. maxSampled
// and maxAccepted are the per-temperature counter thresholds; a concrete
// variant passes 0 for whichever trigger it doesn't use.
func (a *metropolis[I, S, M]) init(r *Runner[I, S, M], startTemperature float64, maxSampled, maxAccepted uint32) {
	if a.Rng == nil {
		a.Rng = r.Rng
	}
	if startTemperature == 0 {
		startTemperature = a.calibrate(r)
	}
	a.temperature = startTemperature
	a.lastReheatAt = 0
	a.neighborsSampled = 0
	a.neighborsAccepted = 0
	a.maxNeighborsSampled = maxSampled
	a.maxNeighborsAccepted = maxAccepted
	a.lastAccepted = false
	a.sampledThisIter = false
}

// calibrate samples 100 random moves from the run's initial state and
// returns the maximum observed delta cost, the auto-calibration spec §4.6
// runs whenever start_temperature == 0.
func (a *metropolis[I, S, M]) calibrate(r *Runner[I, S, M]) float64 {
	max := 0.0
	for i := 0; i < 100; i++ {
		mv, err := r.Explorer.RandomMove(r.Input, r.CurrentState(), a.Rng)
		if err != nil {
			break
		}
		d := cost.ScalarOf(r.Explorer.DeltaCost(r.Input, r.CurrentState(), mv))
		r.CountEvaluation(1)
		if d > max {
			max = d
		}
	}
	return max
}

func (a *metropolis[I, S, M]) selectMove(r *Runner[I, S, M]) bool {
	mv, err := r.Explorer.RandomMove(r.Input, r.CurrentState(), a.Rng)
	if err != nil {
		a.sampledThisIter = false
		return false
	}
	delta := r.Explorer.DeltaCost(r.Input, r.CurrentState(), mv)
	r.CountEvaluation(1)
	r.SetCurrentMove(mv, delta)
	a.sampledThisIter = true
	return true
}

// acceptableMove self-records its verdict in lastAccepted: by the time
// CompleteIteration runs, Runner has already reset moveValid to false, so
// this is the only point an Algorithm can observe whether its move landed.
func (a *metropolis[I, S, M]) acceptableMove(r *Runner[I, S, M]) bool {
	d := cost.ScalarOf(r.CurrentMoveCost())
	accepted := d <= 0
	if !accepted && a.temperature > 0 {
		accepted = a.Rng.Float64() < math.Exp(-d/a.temperature)
	}
	a.lastAccepted = accepted
	return accepted
}

func (a *metropolis[I, S, M]) maybeReheat(r *Runner[I, S, M]) {
	if a.ReheatFactor <= 1 || a.ReheatIdleThreshold == 0 {
		return
	}
	idle := r.IdleIterations()
	if idle > 0 && idle%a.ReheatIdleThreshold == 0 && idle != a.lastReheatAt {
		a.temperature *= a.ReheatFactor
		a.lastReheatAt = idle
	}
}

// cool multiplies the temperature by coolingRate and resets both counters.
func (a *metropolis[I, S, M]) cool(coolingRate float64) {
	a.temperature *= coolingRate
	a.neighborsSampled = 0
	a.neighborsAccepted = 0
}

// tick advances neighborsSampled/neighborsAccepted for the iteration just
// completed and cools once either configured maximum is reached, per spec
// §4.6's "complete_iteration increments sample counters; when
// neighbors_sampled == max_neighbors_sampled OR neighbors_accepted ==
// max_neighbors_accepted, multiply temperature by cooling_rate and reset
// counters". Returns whether cooling happened this iteration.
func (a *metropolis[I, S, M]) tick(coolingRate float64) bool {
	if !a.sampledThisIter {
		return false
	}
	a.neighborsSampled++
	if a.lastAccepted {
		a.neighborsAccepted++
	}
	due := (a.maxNeighborsSampled > 0 && a.neighborsSampled >= a.maxNeighborsSampled) ||
		(a.maxNeighborsAccepted > 0 && a.neighborsAccepted >= a.maxNeighborsAccepted)
	if due {
		a.cool(coolingRate)
	}
	return due
}

// Temperature returns the variant's current annealing temperature.
func (a *metropolis[I, S, M]) Temperature() float64 { return a.temperature }

// expectedNumberOfTemperatures computes
// ceil(-ln(temperatureRange)/ln(coolingRate)), the number of cooling steps
// needed to go from start_temperature down to min_temperature given
// temperatureRange = min_temperature/start_temperature, per spec §4.6's
// Iteration-based and Time-based derivations. Returns 1 (the smallest
// meaningful budget) if the inputs don't describe a valid decreasing
// schedule, rather than dividing by zero or taking the log of a
// non-positive number.
func expectedNumberOfTemperatures(temperatureRange, coolingRate float64) uint64 {
	if temperatureRange <= 0 || temperatureRange >= 1 || coolingRate <= 0 || coolingRate >= 1 {
		return 1
	}
	n := math.Ceil(-math.Log(temperatureRange) / math.Log(coolingRate))
	if n < 1 {
		return 1
	}
	return uint64(n)
}

// temperatureRangeOf returns minTemperature/startTemperature when both are
// positive, the ratio the Iteration-based and Time-based variants need
// when the caller leaves TemperatureRange unset.
func temperatureRangeOf(startTemperature, minTemperature float64) float64 {
	if startTemperature <= 0 || minTemperature <= 0 {
		return 0
	}
	return minTemperature / startTemperature
}

// SAMinTemperature cools once every NeighborsSampled samples (or every
// NeighborsAccepted acceptances, whichever comes first — NeighborsSampled
// defaults to 1, i.e. cools every iteration, if left at 0) and stops once
// the temperature drops to or below MinTemperature.
type SAMinTemperature[I, S, M any] struct {
	metropolis[I, S, M]
	StartTemperature  float64
	CoolingRate       float64
	MinTemperature    float64
	NeighborsSampled  uint32 // max neighbors sampled per temperature; 0 defaults to 1
	NeighborsAccepted uint32 // max neighbors accepted per temperature; 0 means unbounded
}

// Validate checks StartTemperature/MinTemperature/CoolingRate describe a
// valid decreasing schedule, per spec §6's IncorrectParameterValue
// invariant.
func (a *SAMinTemperature[I, S, M]) Validate() error {
	return validateCoolingSchedule(a.StartTemperature, a.MinTemperature, a.CoolingRate)
}

func (a *SAMinTemperature[I, S, M]) InitializeRun(r *Runner[I, S, M]) error {
	if err := a.Validate(); err != nil {
		return err
	}
	maxSampled := a.NeighborsSampled
	if maxSampled == 0 {
		maxSampled = 1
	}
	a.init(r, a.StartTemperature, maxSampled, a.NeighborsAccepted)
	return nil
}
func (a *SAMinTemperature[I, S, M]) SelectMove(r *Runner[I, S, M]) bool { return a.selectMove(r) }
func (a *SAMinTemperature[I, S, M]) AcceptableMove(r *Runner[I, S, M]) bool {
	return a.acceptableMove(r)
}
func (a *SAMinTemperature[I, S, M]) CompleteIteration(r *Runner[I, S, M]) {
	a.tick(a.CoolingRate)
	a.maybeReheat(r)
}
func (a *SAMinTemperature[I, S, M]) StopCriterion(r *Runner[I, S, M]) bool {
	return a.temperature <= a.MinTemperature
}

// SAIterationBased derives its per-temperature sampling budget from the
// global evaluation budget: expected_number_of_temperatures =
// ceil(-ln(temperature_range)/ln(cooling_rate)), max_neighbors_sampled =
// max_evaluations / expected_number_of_temperatures. Its own stop
// criterion is always false — per spec §4.6 this variant is "governed
// solely by the global evaluation budget", which Runner.MaxEvaluations
// already enforces.
type SAIterationBased[I, S, M any] struct {
	metropolis[I, S, M]
	StartTemperature  float64
	CoolingRate       float64
	MinTemperature    float64 // used only to derive TemperatureRange when unset
	TemperatureRange  float64 // min_temperature/start_temperature; derived from MinTemperature if left 0
	NeighborsAccepted uint32
}

// Validate checks StartTemperature/MinTemperature/CoolingRate and, when
// set explicitly, TemperatureRange.
func (a *SAIterationBased[I, S, M]) Validate() error {
	if err := validateCoolingSchedule(a.StartTemperature, a.MinTemperature, a.CoolingRate); err != nil {
		return err
	}
	if a.TemperatureRange != 0 && (a.TemperatureRange <= 0 || a.TemperatureRange >= 1) {
		return fmt.Errorf("%w: temperature_range must be in (0,1), got %v", corespec.ErrIncorrectParameterValue, a.TemperatureRange)
	}
	return nil
}

func (a *SAIterationBased[I, S, M]) InitializeRun(r *Runner[I, S, M]) error {
	if err := a.Validate(); err != nil {
		return err
	}
	tempRange := a.TemperatureRange
	if tempRange <= 0 {
		tempRange = temperatureRangeOf(a.StartTemperature, a.MinTemperature)
	}
	expected := expectedNumberOfTemperatures(tempRange, a.CoolingRate)
	maxSampled := uint32(1)
	if r.MaxEvaluations > 0 {
		if perTemp := r.MaxEvaluations / expected; perTemp > 0 {
			if perTemp > uint64(^uint32(0)) {
				maxSampled = ^uint32(0)
			} else {
				maxSampled = uint32(perTemp)
			}
		}
	}
	a.init(r, a.StartTemperature, maxSampled, a.NeighborsAccepted)
	return nil
}
func (a *SAIterationBased[I, S, M]) SelectMove(r *Runner[I, S, M]) bool { return a.selectMove(r) }
func (a *SAIterationBased[I, S, M]) AcceptableMove(r *Runner[I, S, M]) bool {
	return a.acceptableMove(r)
}
func (a *SAIterationBased[I, S, M]) CompleteIteration(r *Runner[I, S, M]) {
	a.tick(a.CoolingRate)
	a.maybeReheat(r)
}
func (a *SAIterationBased[I, S, M]) StopCriterion(r *Runner[I, S, M]) bool { return false }

// SATimeBased derives the same expected_number_of_temperatures as
// SAIterationBased, then splits AllowedRunningTime into that many equal
// per-temperature windows. Cooling triggers whenever the current window
// elapses or neighbors_accepted reaches NeighborsAccepted, whichever comes
// first; stop_criterion fires once AllowedRunningTime has elapsed overall.
type SATimeBased[I, S, M any] struct {
	metropolis[I, S, M]
	StartTemperature    float64
	CoolingRate         float64
	MinTemperature      float64 // used only to derive TemperatureRange when unset
	TemperatureRange    float64
	NeighborsAccepted   uint32
	AllowedRunningTime  time.Duration
	ReheatFactor        float64
	ReheatIdleThreshold uint64

	startedAt        time.Time
	temperatureStart time.Time
	window           time.Duration
	now              func() time.Time
}

// Validate checks StartTemperature/MinTemperature/CoolingRate,
// TemperatureRange when set explicitly, and AllowedRunningTime.
func (a *SATimeBased[I, S, M]) Validate() error {
	if err := validateCoolingSchedule(a.StartTemperature, a.MinTemperature, a.CoolingRate); err != nil {
		return err
	}
	if a.TemperatureRange != 0 && (a.TemperatureRange <= 0 || a.TemperatureRange >= 1) {
		return fmt.Errorf("%w: temperature_range must be in (0,1), got %v", corespec.ErrIncorrectParameterValue, a.TemperatureRange)
	}
	if a.AllowedRunningTime < 0 {
		return fmt.Errorf("%w: allowed_running_time must be >= 0, got %v", corespec.ErrIncorrectParameterValue, a.AllowedRunningTime)
	}
	return nil
}

func (a *SATimeBased[I, S, M]) InitializeRun(r *Runner[I, S, M]) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.now == nil {
		a.now = time.Now
	}
	tempRange := a.TemperatureRange
	if tempRange <= 0 {
		tempRange = temperatureRangeOf(a.StartTemperature, a.MinTemperature)
	}
	expected := expectedNumberOfTemperatures(tempRange, a.CoolingRate)
	if a.AllowedRunningTime > 0 {
		a.window = a.AllowedRunningTime / time.Duration(expected)
	}
	// maxNeighborsSampled=0: this variant's per-temperature trigger is the
	// time window checked in CompleteIteration below, not a sample count.
	a.metropolis.ReheatFactor = a.ReheatFactor
	a.metropolis.ReheatIdleThreshold = a.ReheatIdleThreshold
	a.init(r, a.StartTemperature, 0, a.NeighborsAccepted)
	a.startedAt = a.now()
	a.temperatureStart = a.startedAt
	return nil
}
func (a *SATimeBased[I, S, M]) SelectMove(r *Runner[I, S, M]) bool { return a.selectMove(r) }
func (a *SATimeBased[I, S, M]) AcceptableMove(r *Runner[I, S, M]) bool {
	return a.acceptableMove(r)
}
func (a *SATimeBased[I, S, M]) CompleteIteration(r *Runner[I, S, M]) {
	due := a.tick(a.CoolingRate)
	now := a.now()
	if !due && a.window > 0 && now.Sub(a.temperatureStart) >= a.window {
		a.cool(a.CoolingRate)
		due = true
	}
	if due {
		a.temperatureStart = now
	}
	a.maybeReheat(r)
}
func (a *SATimeBased[I, S, M]) StopCriterion(r *Runner[I, S, M]) bool {
	if a.AllowedRunningTime <= 0 {
		return false
	}
	return a.now().Sub(a.startedAt) >= a.AllowedRunningTime
}
