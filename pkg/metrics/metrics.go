package metrics

import (
	"time"

	"github.com/mittwald/mittcheck/pkg/value"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "mittcheck"

// Metrics holds the collectors of one agent on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// CheckUp reports whether the last snapshot of a check was free of errors.
	CheckUp *prometheus.GaugeVec

	// CheckDuration records how long each query took.
	CheckDuration *prometheus.HistogramVec

	// CheckQueries counts queries by result (ok, error).
	CheckQueries *prometheus.CounterVec

	// CheckChanges counts detected snapshot changes.
	CheckChanges *prometheus.CounterVec

	// Cycles counts completed scheduler cycles.
	Cycles prometheus.Counter

	// RejectedScripts is the number of configured scripts that failed
	// validation.
	RejectedScripts prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CheckUp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "check_up",
				Help:      "Whether the last snapshot of a check was free of errors (1) or not (0).",
			},
			[]string{"check"},
		),
		CheckDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "check_duration_seconds",
				Help:      "Duration of check queries in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"check"},
		),
		CheckQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "check_queries_total",
				Help:      "Number of check queries by result.",
			},
			[]string{"check", "result"},
		),
		CheckChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "check_changes_total",
				Help:      "Number of snapshot changes detected per check.",
			},
			[]string{"check"},
		),
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_cycles_total",
			Help:      "Number of completed scheduler cycles.",
		}),
		RejectedScripts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rejected_scripts",
			Help:      "Number of configured scripts that failed validation.",
		}),
	}

	m.registry.MustRegister(
		m.CheckUp,
		m.CheckDuration,
		m.CheckQueries,
		m.CheckChanges,
		m.Cycles,
		m.RejectedScripts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe records one finished query. It matches check.Observer.
func (m *Metrics) Observe(name string, snap value.Snapshot, duration time.Duration) {
	m.CheckDuration.WithLabelValues(name).Observe(duration.Seconds())

	if snap.Failing() {
		m.CheckUp.WithLabelValues(name).Set(0)
		m.CheckQueries.WithLabelValues(name, "error").Inc()
		return
	}
	m.CheckUp.WithLabelValues(name).Set(1)
	m.CheckQueries.WithLabelValues(name, "ok").Inc()
}

// Forget drops all series of a deregistered check.
func (m *Metrics) Forget(name string) {
	m.CheckUp.DeleteLabelValues(name)
	m.CheckDuration.DeleteLabelValues(name)
	m.CheckQueries.DeleteLabelValues(name, "ok")
	m.CheckQueries.DeleteLabelValues(name, "error")
	m.CheckChanges.DeleteLabelValues(name)
}

func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
