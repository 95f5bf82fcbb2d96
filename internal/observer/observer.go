// Package observer implements the Observer Hooks event bus described in
// spec §2/§6/§9: a bounded-capacity channel of event records drained by one
// or more consumer sinks, replacing the pointer-to-object + event-bitmask
// design the original framework used, to keep runner latency predictable
// and remove reentrancy concerns.
package observer

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"localsearch/internal/cost"
)

// Kind identifies which of the four events described in spec §6 occurred.
type Kind int

const (
	Start Kind = iota
	NewBest
	MadeMove
	End
)

func (k Kind) String() string {
	switch k {
	case Start:
		return "START"
	case NewBest:
		return "NEW_BEST"
	case MadeMove:
		return "MADE_MOVE"
	case End:
		return "END"
	default:
		return "UNKNOWN"
	}
}

// Event is one runner notification, carrying the iteration index, wall-time
// since start, and a runner-supplied status string, per spec §6.
type Event struct {
	RunID     uuid.UUID
	Kind      Kind
	Iteration uint64
	ElapsedMs int64
	Cost      cost.Structure
	Move      any
	Status    string
}

// Bus is a bounded-capacity channel of Events with a single consumer
// goroutine draining it into registered Sinks. A Bus with no sinks still
// drains (and discards) events, so Emit never blocks once the bus is full
// for long — the drain loop always runs.
type Bus struct {
	ch        chan Event
	sinks     []Sink
	done      chan struct{}
	started   time.Time
	runID     uuid.UUID
	closeOnce sync.Once
}

// Sink receives drained events. Implementations must not block for long —
// the whole bus shares one drain goroutine.
type Sink interface {
	Handle(Event)
}

// New builds a Bus with the given channel capacity and sinks. A capacity of
// 0 makes Emit fully synchronous with the drain loop (unbuffered channel).
func New(capacity int, sinks ...Sink) *Bus {
	b := &Bus{
		ch:    make(chan Event, capacity),
		sinks: sinks,
		done:  make(chan struct{}),
		runID: uuid.New(),
	}
	go b.drain()
	return b
}

func (b *Bus) drain() {
	for ev := range b.ch {
		for _, s := range b.sinks {
			s.Handle(ev)
		}
	}
	close(b.done)
}

// RunID returns the UUID this bus's events are tagged with, letting a
// multi-runner solver correlate START..END across concurrent runs.
func (b *Bus) RunID() uuid.UUID { return b.runID }

// Start records the run's start time and emits a START event.
func (b *Bus) Start(status string) {
	b.started = time.Now()
	b.emit(Event{Kind: Start, Status: status})
}

// NewBest emits a NEW_BEST event for the given iteration/cost/move.
func (b *Bus) NewBest(iteration uint64, c cost.Structure, move any, status string) {
	b.emit(Event{Kind: NewBest, Iteration: iteration, Cost: c, Move: move, Status: status})
}

// MadeMove emits a MADE_MOVE event for the given iteration/cost/move.
func (b *Bus) MadeMove(iteration uint64, c cost.Structure, move any, status string) {
	b.emit(Event{Kind: MadeMove, Iteration: iteration, Cost: c, Move: move, Status: status})
}

// End emits an END event. It does not close the bus; Close does that, and
// blocks until every queued event has been drained.
func (b *Bus) End(iteration uint64, c cost.Structure, status string) {
	b.emit(Event{Kind: End, Iteration: iteration, Cost: c, Status: status})
}

func (b *Bus) emit(ev Event) {
	ev.RunID = b.runID
	if !b.started.IsZero() {
		ev.ElapsedMs = time.Since(b.started).Milliseconds()
	}
	b.ch <- ev
}

// Close stops accepting events and waits for the drain loop to finish
// delivering everything already queued. A Runner may be driven through
// several Run calls sharing the same Bus (Solver.Resolve re-runs it without
// rebuilding the Bus), so Close is the caller's responsibility to invoke
// once, after the last Run — not Run itself — and is idempotent so an
// accidental extra call never panics on a closed channel.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		close(b.ch)
		<-b.done
	})
}

// SlogSink is a Sink that logs every event through a slog.Logger, the
// ambient logging front-end this repo carries (see SPEC_FULL.md §2.1).
type SlogSink struct {
	Logger *slog.Logger
}

// Handle implements Sink.
func (s SlogSink) Handle(ev Event) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info(ev.Kind.String(),
		"run_id", ev.RunID,
		"iteration", ev.Iteration,
		"elapsed_ms", ev.ElapsedMs,
		"total_cost", ev.Cost.Total,
		"status", ev.Status,
	)
}

// CapturingSink records every event it receives, for use in tests asserting
// on the event sequence a runner produced.
type CapturingSink struct {
	Events []Event
}

// Handle implements Sink.
func (s *CapturingSink) Handle(ev Event) {
	s.Events = append(s.Events, ev)
}
