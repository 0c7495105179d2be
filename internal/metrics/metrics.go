// Package metrics exposes engine activity as Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewithboateng/archlint/internal/ir"
)

const namespace = "archlint"

// Metrics implements engine.Observer.
type Metrics struct {
	units    *prometheus.CounterVec
	unitDur  prometheus.Histogram
	issues   *prometheus.CounterVec
	failures *prometheus.CounterVec
	batches  *prometheus.CounterVec
	batchDur prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_evaluated_total",
			Help:      "Source units evaluated, by layer.",
		}, []string{"layer"}),
		unitDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "unit_duration_seconds",
			Help:      "Time to classify and evaluate one unit.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		}),
		issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "issues_total",
			Help:      "Issues reported, by rule and severity.",
		}, []string{"rule", "severity"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_errors_total",
			Help:      "Per-unit analysis errors, by kind.",
		}, []string{"kind"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Analysis batches, by outcome.",
		}, []string{"outcome"}),
		batchDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Wall time of an analysis batch.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	for _, c := range []prometheus.Collector{m.units, m.unitDur, m.issues, m.failures, m.batches, m.batchDur} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) UnitEvaluated(layer ir.Layer, d time.Duration) {
	m.units.WithLabelValues(string(layer)).Inc()
	m.unitDur.Observe(d.Seconds())
}

func (m *Metrics) IssueRecorded(ruleID string, sev ir.Severity) {
	m.issues.WithLabelValues(ruleID, string(sev)).Inc()
}

func (m *Metrics) AnalysisFailed(kind ir.ErrorKind) {
	m.failures.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) BatchDone(d time.Duration, cancelled bool) {
	outcome := "completed"
	if cancelled {
		outcome = "cancelled"
	}
	m.batches.WithLabelValues(outcome).Inc()
	m.batchDur.Observe(d.Seconds())
}
