// Package metrics exposes Prometheus instrumentation for check runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks check-run instrumentation on a private registry.
//
// Exposed series:
//   - slipcheck_runs_total{status}: completed runs by outcome
//   - slipcheck_records_total: data records scanned
//   - slipcheck_violations_total{rule}: findings by rule identifier
//   - slipcheck_run_duration_seconds: run duration histogram
type Metrics struct {
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	recordsTotal    prometheus.Counter
	violationsTotal *prometheus.CounterVec
	runDuration     prometheus.Histogram
}

// New creates and registers the check-run metrics on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "slipcheck",
				Name:      "runs_total",
				Help:      "Total number of completed check runs",
			},
			[]string{"status"},
		),

		recordsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "slipcheck",
				Name:      "records_total",
				Help:      "Total number of data records scanned",
			},
		),

		violationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "slipcheck",
				Name:      "violations_total",
				Help:      "Total number of violations found, by rule",
			},
			[]string{"rule"},
		),

		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "slipcheck",
				Name:      "run_duration_seconds",
				Help:      "Duration of check runs in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8), // 1ms to ~16s
			},
		),
	}

	m.registry.MustRegister(
		m.runsTotal,
		m.recordsTotal,
		m.violationsTotal,
		m.runDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// RecordRun records one completed check run. Status is "clean",
// "violations" or "rejected"; violations maps rule IDs to finding counts.
func (m *Metrics) RecordRun(status string, records int, violations map[string]int, duration time.Duration) {
	m.runsTotal.WithLabelValues(status).Inc()
	m.recordsTotal.Add(float64(records))
	for rule, n := range violations {
		m.violationsTotal.WithLabelValues(rule).Add(float64(n))
	}
	m.runDuration.Observe(duration.Seconds())
}

// Handler returns the scrape endpoint for the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
