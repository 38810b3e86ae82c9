package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds per-run counters. They are written to a node-exporter
// textfile at the end of a run when metrics_textfile is set.
type Metrics struct {
	registry       *prometheus.Registry
	tournaments    *prometheus.CounterVec
	events         *prometheus.CounterVec
	duplicates     *prometheus.CounterVec
	sourceFailures *prometheus.CounterVec
	lastRun        prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tournaments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tourneysync_tournaments_processed_total",
			Help: "Valid tournaments produced by the processor.",
		}, []string{"source"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tourneysync_events_total",
			Help: "Per-tournament reconcile outcomes.",
		}, []string{"source", "result"}),
		duplicates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tourneysync_duplicates_removed_total",
			Help: "Duplicate events deleted by the dedup pass.",
		}, []string{"calendar"}),
		sourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tourneysync_source_failures_total",
			Help: "Sources whose processing was aborted.",
		}, []string{"source", "stage"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tourneysync_last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),
	}
	m.registry.MustRegister(m.tournaments, m.events, m.duplicates, m.sourceFailures, m.lastRun)
	return m
}

func (m *Metrics) TournamentsProcessed(source string, n int) {
	m.tournaments.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) EventResult(source, result string) {
	m.events.WithLabelValues(source, result).Inc()
}

func (m *Metrics) DuplicateRemoved(calendarID string) {
	m.duplicates.WithLabelValues(calendarID).Inc()
}

func (m *Metrics) SourceFailed(source, stage string) {
	m.sourceFailures.WithLabelValues(source, stage).Inc()
}

func (m *Metrics) RunFinished(at time.Time) {
	m.lastRun.Set(float64(at.Unix()))
}

func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
