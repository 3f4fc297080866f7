// Package metrics exports build counters in the Prometheus text format.
//
// A build is a short-lived process, so instead of serving /metrics the run
// writes a textfile that node_exporter's textfile collector picks up.
package metrics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joshweier/nlisten/internal/journal"
)

const namespace = "nlisten"

// RunMetrics holds the collectors for one build.
type RunMetrics struct {
	registry *prometheus.Registry

	sentences      *prometheus.CounterVec
	itemDuration   prometheus.Histogram
	runDuration    prometheus.Gauge
	outputBytes    prometheus.Gauge
	malformedRows  prometheus.Gauge
	lastRun        *prometheus.GaugeVec
	lastRunSuccess prometheus.Gauge

	mu sync.Mutex
}

// RunResult is what a finished build reports.
type RunResult struct {
	Status      journal.RunStatus
	Elapsed     time.Duration
	OutputBytes int64
	Malformed   int
	FinishedAt  time.Time
}

// New creates a RunMetrics with its own registry.
func New() *RunMetrics {
	m := &RunMetrics{
		registry: prometheus.NewRegistry(),
		sentences: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sentences_total",
				Help:      "Sentences handled by the last build, by outcome.",
			},
			[]string{"outcome"},
		),
		itemDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sentence_duration_seconds",
				Help:      "Synthesis plus transcoding time per sentence.",
				Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
			},
		),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last build.",
		}),
		outputBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "output_bytes",
			Help:      "Total size of the audio files in the output directory.",
		}),
		malformedRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "malformed_rows",
			Help:      "Input rows skipped for having too few columns.",
		}),
		lastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last build finished, by status.",
			},
			[]string{"status"},
		),
		lastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the last build completed, 0 otherwise.",
		}),
	}
	m.registry.MustRegister(
		m.sentences,
		m.itemDuration,
		m.runDuration,
		m.outputBytes,
		m.malformedRows,
		m.lastRun,
		m.lastRunSuccess,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordItem counts one sentence outcome.
func (m *RunMetrics) RecordItem(_ context.Context, item journal.Item) error {
	m.sentences.WithLabelValues(string(item.Outcome)).Inc()
	if item.Outcome.Synthesized() && item.Elapsed > 0 {
		m.itemDuration.Observe(item.Elapsed.Seconds())
	}
	return nil
}

// FinishRun sets the run-level gauges.
func (m *RunMetrics) FinishRun(result RunResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runDuration.Set(result.Elapsed.Seconds())
	m.outputBytes.Set(float64(result.OutputBytes))
	m.malformedRows.Set(float64(result.Malformed))
	finished := result.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	m.lastRun.Reset()
	m.lastRun.WithLabelValues(string(result.Status)).Set(float64(finished.Unix()))
	if result.Status == journal.RunCompleted {
		m.lastRunSuccess.Set(1)
	} else {
		m.lastRunSuccess.Set(0)
	}
}

// WriteTextfile atomically writes the registry to path. An empty path is a
// no-op.
func (m *RunMetrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
