// Package metrics counts update attempts and their outcomes. ydns runs to
// completion and exits, so instead of serving the registry it is written
// for the node_exporter textfile collector at the end of a run.
package metrics

import (
	"fmt"
	"time"
	"ydns/common"
	"ydns/ddns"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ydns"

// Metrics is safe to use as a nil pointer, in which case nothing is recorded.
type Metrics struct {
	registry       *prometheus.Registry
	updates        *prometheus.CounterVec   // update attempts by outcome
	updateDuration *prometheus.HistogramVec // time per update attempt
	lastRun        prometheus.Gauge         // unix time the last run finished
	exitCode       prometheus.Gauge         // exit status of the last run
}

func (m *Metrics) IncUpdate(family common.Family, kind ddns.Kind) {
	if m == nil {
		return
	}
	m.updates.WithLabelValues(family.String(), kind.String()).Inc()
}

func (m *Metrics) ObserveUpdate(family common.Family, duration time.Duration) {
	if m == nil {
		return
	}
	m.updateDuration.WithLabelValues(family.String()).Observe(duration.Seconds())
}

func (m *Metrics) SetRunResult(exitCode int, finished time.Time) {
	if m == nil {
		return
	}
	m.exitCode.Set(float64(exitCode))
	m.lastRun.Set(float64(finished.Unix()))
}

// WriteTextfile atomically replaces path with the current metric values.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Total update requests by address family and outcome",
		}, []string{"family", "outcome"}),

		updateDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "update_duration_seconds",
			Help:      "Duration of update requests in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"family"}),

		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),

		exitCode: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_exit_code",
			Help:      "Exit status of the last run",
		}),
	}

	registry.MustRegister(
		m.updates,
		m.updateDuration,
		m.lastRun,
		m.exitCode,
	)
	return m
}
