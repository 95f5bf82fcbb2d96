package observer

import "github.com/prometheus/client_golang/prometheus"

// PromSink is an optional Sink exporting runner activity as Prometheus
// metrics: a counter of committed moves (MADE_MOVE and NEW_BEST events;
// rejected iterations emit no event and are not counted), a best-cost
// gauge, and per-kind event counters. Registering it alongside a SlogSink lets a long-running solver
// be scraped the way a service would be, without the core depending on any
// particular metrics backend (spec §2 lists Observer Hooks as talking to
// "external logging/telemetry" generically).
type PromSink struct {
	Iterations prometheus.Counter
	BestCost   prometheus.Gauge
	Events     *prometheus.CounterVec
}

// NewPromSink constructs and registers a PromSink's metrics against reg. A
// nil reg uses the default registerer.
func NewPromSink(reg prometheus.Registerer, namespace string) *PromSink {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ps := &PromSink{
		Iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "iterations_total",
			Help:      "Total committed moves observed (MADE_MOVE and NEW_BEST events).",
		}),
		BestCost: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_cost",
			Help:      "Best total cost observed so far.",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Observer events by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(ps.Iterations, ps.BestCost, ps.Events)
	return ps
}

// Handle implements Sink.
func (ps *PromSink) Handle(ev Event) {
	ps.Events.WithLabelValues(ev.Kind.String()).Inc()
	switch ev.Kind {
	case MadeMove, NewBest:
		ps.Iterations.Inc()
	}
	if ev.Kind == NewBest {
		ps.BestCost.Set(float64(ev.Cost.Total))
	}
}
