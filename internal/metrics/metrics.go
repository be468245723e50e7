// Package metrics provides Prometheus metrics for validation runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/JonMunkholm/tablecheck/internal/report"
)

const namespace = "tablecheck"

// Run results used as the runs_total label.
const (
	ResultValid   = "valid"
	ResultInvalid = "invalid"
	ResultFailed  = "failed"
)

// Collector holds the validation metrics.
type Collector struct {
	RunsTotal    *prometheus.CounterVec
	ErrorsTotal  *prometheus.CounterVec
	RunDuration  prometheus.Histogram
	RowsTotal    prometheus.Counter
	RunsInFlight prometheus.Gauge
}

// New creates a collector registered on reg. Tests pass a fresh
// prometheus.NewRegistry to avoid global state.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of validation runs by result",
			},
			[]string{"result"},
		),
		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of data errors reported by code",
			},
			[]string{"code"},
		),
		RunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Validation run duration in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 300},
			},
		),
		RowsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_total",
				Help:      "Total number of rows read across all resources",
			},
		),
		RunsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "runs_in_flight",
				Help:      "Number of validation runs currently executing",
			},
		),
	}
}

// RunStarted marks a run as in flight.
func (c *Collector) RunStarted() {
	c.RunsInFlight.Inc()
}

// RunFinished records a completed run. rep is nil when the run failed
// before producing a report.
func (c *Collector) RunFinished(rep *report.Report, elapsed time.Duration) {
	c.RunsInFlight.Dec()
	c.RunDuration.Observe(elapsed.Seconds())

	if rep == nil {
		c.RunsTotal.WithLabelValues(ResultFailed).Inc()
		return
	}
	if rep.Valid {
		c.RunsTotal.WithLabelValues(ResultValid).Inc()
	} else {
		c.RunsTotal.WithLabelValues(ResultInvalid).Inc()
	}

	for code, n := range rep.Codes() {
		c.ErrorsTotal.WithLabelValues(code).Add(float64(n))
	}
	for _, t := range rep.Tables {
		c.RowsTotal.Add(float64(t.RowCount))
	}
}
