// Package telemetry holds the prometheus collectors and trace setup of a run.
package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the collectors of one batch. They live in their own registry so a run
// can dump them to a textfile without touching the process-wide default.
type Metrics struct {
	registry *prometheus.Registry

	CallDuration *prometheus.HistogramVec
	CallFailures *prometheus.CounterVec
	CallRetries  *prometheus.CounterVec
	Rows         *prometheus.CounterVec
	SegmentGaps  *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fichas_generation_duration_seconds",
			Help:    "Duration of generation calls.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"engine", "stage"}),
		CallFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fichas_generation_failures_total",
			Help: "Generation calls that returned an error after retries.",
		}, []string{"engine", "stage"}),
		CallRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fichas_generation_retries_total",
			Help: "Generation attempts repeated after a failure.",
		}, []string{"engine", "stage"}),
		Rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fichas_rows_total",
			Help: "Rows finished, by final state.",
		}, []string{"state"}),
		SegmentGaps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fichas_segment_gaps_total",
			Help: "Output fields filled with a placeholder, by field.",
		}, []string{"field"}),
	}
	m.registry.MustRegister(m.CallDuration, m.CallFailures, m.CallRetries, m.Rows, m.SegmentGaps)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile dumps the current values in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
