package observe

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/comalice/hsm"
)

// MetricsMask selects the categories Metrics counts.
const MetricsMask = hsm.CategoryEvaluate | hsm.CategoryTransition | hsm.CategoryEntry | hsm.CategoryTerminate

// Metrics counts evaluations, traversed transitions, state entries and
// terminations per model.
type Metrics struct {
	evaluations  *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	entries      *prometheus.CounterVec
	terminations *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hsm_evaluations_total",
			Help: "Triggers evaluated by instances.",
		}, []string{"model"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hsm_transitions_total",
			Help: "Transitions traversed, by source vertex.",
		}, []string{"model", "source"}),
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hsm_state_entries_total",
			Help: "States entered.",
		}, []string{"model", "state"}),
		terminations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hsm_terminations_total",
			Help: "Instances terminated.",
		}, []string{"model"}),
	}
	for _, c := range []prometheus.Collector{m.evaluations, m.transitions, m.entries, m.terminations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Emit implements hsm.Diagnostics.
func (m *Metrics) Emit(r hsm.Record) {
	switch r.Category {
	case hsm.CategoryEvaluate:
		m.evaluations.WithLabelValues(r.Model).Inc()
	case hsm.CategoryTransition:
		m.transitions.WithLabelValues(r.Model, r.Element).Inc()
	case hsm.CategoryEntry:
		m.entries.WithLabelValues(r.Model, r.Element).Inc()
	case hsm.CategoryTerminate:
		m.terminations.WithLabelValues(r.Model).Inc()
	}
}
