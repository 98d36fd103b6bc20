// Package metrics provides Prometheus metrics for transcription and
// synthesis jobs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "subcue"

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeCached  = "cached"
	OutcomeSkipped = "skipped"
)

// Metrics holds all Prometheus metrics for the CLI.
type Metrics struct {
	Registry *prometheus.Registry

	// Job metrics
	JobsTotal   *prometheus.CounterVec
	JobDuration *prometheus.HistogramVec
	JobsActive  prometheus.Gauge

	// Provider protocol metrics
	PollAttempts     *prometheus.CounterVec
	TransportRetries *prometheus.CounterVec
	UploadedBytes    *prometheus.CounterVec

	// Synthesis metrics
	SynthesizedSegments *prometheus.CounterVec
}

// New creates the metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		JobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Total number of media jobs by provider and outcome",
		}, []string{"provider", "outcome"}),
		JobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall time of a media job from extraction to caption file",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}, []string{"provider"}),
		JobsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_active",
			Help:      "Number of media jobs currently running",
		}),

		PollAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_attempts_total",
			Help:      "Total number of result queries issued",
		}, []string{"provider"}),
		TransportRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_retries_total",
			Help:      "Total number of requests retried after a connection failure",
		}, []string{"provider"}),
		UploadedBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Total audio bytes handed to speech services",
		}, []string{"provider"}),

		SynthesizedSegments: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesized_segments_total",
			Help:      "Total number of caption cues sent to speech synthesis",
		}, []string{"outcome"}),
	}
}
