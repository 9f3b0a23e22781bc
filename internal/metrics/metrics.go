// Package metrics holds the Prometheus collectors for creations, staging
// and generation. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	SessionsCreated prometheus.Counter
	SessionsRemoved prometheus.Counter

	StagedFiles *prometheus.CounterVec

	Generations        *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	GenerationsActive  prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "image_creator_sessions_created_total",
			Help: "Total number of creation sessions created",
		}),
		SessionsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "image_creator_sessions_removed_total",
			Help: "Total number of creation sessions removed",
		}),
		StagedFiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "image_creator_staged_files_total",
			Help: "Files offered for staging, by result",
		}, []string{"result"}),
		Generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "image_creator_generations_total",
			Help: "Generation requests, by outcome",
		}, []string{"brain", "outcome"}),
		GenerationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "image_creator_generation_duration_seconds",
			Help:    "Backend generation call duration in seconds",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		}),
		GenerationsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "image_creator_generations_in_flight",
			Help: "Generation requests currently waiting on a backend",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.SessionsCreated,
			m.SessionsRemoved,
			m.StagedFiles,
			m.Generations,
			m.GenerationDuration,
			m.GenerationsActive,
		)
	}
	return m
}

func (m *Metrics) SessionCreated() {
	if m != nil {
		m.SessionsCreated.Inc()
	}
}

func (m *Metrics) SessionRemoved() {
	if m != nil {
		m.SessionsRemoved.Inc()
	}
}

// Staged records an attach attempt; accepted=false means it was rejected.
func (m *Metrics) Staged(accepted bool) {
	if m == nil {
		return
	}
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	m.StagedFiles.WithLabelValues(result).Inc()
}

// GenerationStarted marks a request in flight and returns the func that
// records its outcome.
func (m *Metrics) GenerationStarted(brain string) func(err error) {
	if m == nil {
		return func(error) {}
	}
	start := time.Now()
	m.GenerationsActive.Inc()
	return func(err error) {
		m.GenerationsActive.Dec()
		m.GenerationDuration.Observe(time.Since(start).Seconds())
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		m.Generations.WithLabelValues(brain, outcome).Inc()
	}
}
