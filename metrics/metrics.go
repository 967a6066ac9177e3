// Package metrics tracks collection and run metrics in a Prometheus registry
// that can be written to a node-exporter textfile after each run.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the run metrics. Each Recorder owns its registry, so
// several can coexist in one process.
type Recorder struct {
	registry *prometheus.Registry

	// PagesFetched counts listing pages (or feed documents) that were loaded
	PagesFetched prometheus.Counter

	// ItemsCollected counts rows seen on loaded pages
	ItemsCollected prometheus.Counter

	// Runs counts finished runs by outcome
	Runs *prometheus.CounterVec

	RunDuration      prometheus.Histogram
	LastRunTimestamp prometheus.Gauge
	LastRunSuccess   prometheus.Gauge
}

// NewRecorder creates a Recorder with a fresh registry.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		PagesFetched: factory.NewCounter(prometheus.CounterOpts{
			Name: "hnsort_pages_fetched_total",
			Help: "Total number of listing pages fetched",
		}),
		ItemsCollected: factory.NewCounter(prometheus.CounterOpts{
			Name: "hnsort_items_collected_total",
			Help: "Total number of items seen on fetched pages",
		}),
		Runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hnsort_runs_total",
				Help: "Total number of runs by outcome",
			},
			[]string{"outcome"},
		),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hnsort_run_duration_seconds",
			Help:    "Duration of a full collect, persist and validate run",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		LastRunTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hnsort_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
		LastRunSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hnsort_last_run_success",
			Help: "1 if the last run succeeded, 0 otherwise",
		}),
	}
}

// Registry returns the registry the metrics are registered with.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObservePage records one loaded page holding items rows.
func (r *Recorder) ObservePage(url string, items int) {
	r.PagesFetched.Inc()
	r.ItemsCollected.Add(float64(items))
}

// RecordRun records a finished run. outcome is "success" or the failure kind.
func (r *Recorder) RecordRun(outcome string, duration time.Duration, finishedAt time.Time) {
	r.Runs.WithLabelValues(outcome).Inc()
	r.RunDuration.Observe(duration.Seconds())
	r.LastRunTimestamp.Set(float64(finishedAt.Unix()))
	if outcome == "success" {
		r.LastRunSuccess.Set(1)
	} else {
		r.LastRunSuccess.Set(0)
	}
}

// WriteTextfile writes all metrics to path in the text exposition format.
// The file is replaced atomically so a collector never reads a partial file.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
