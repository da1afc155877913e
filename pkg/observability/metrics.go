// Package observability exposes Prometheus metrics for the generation pipeline.
//
// Metrics are registered against a caller-supplied registerer so tests can
// use an isolated registry. All methods are safe for concurrent use and are
// no-ops on a nil *Metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace    = "doxgen"
	generationSubsystem = "generation"
)

// Metrics holds the pipeline's collectors.
type Metrics struct {
	// Generations counts finished Submit calls.
	// Labels: outcome (success, request_error, render_error, compile_error, timeout, placement_error)
	Generations *prometheus.CounterVec

	// Duration measures lock-held time per Submit call.
	// Labels: outcome
	Duration *prometheus.HistogramVec

	// Waiting is the number of callers blocked on the generation lock.
	Waiting prometheus.Gauge

	// Abandoned counts compilations still running after their caller timed out.
	Abandoned prometheus.Gauge
}

// NewMetrics creates and registers the pipeline collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Generations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: generationSubsystem,
			Name:      "requests_total",
			Help:      "Generation requests by outcome.",
		}, []string{"outcome"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: generationSubsystem,
			Name:      "duration_seconds",
			Help:      "Time spent holding the generation lock.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"outcome"}),
		Waiting: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: generationSubsystem,
			Name:      "lock_waiting",
			Help:      "Callers waiting for the generation lock.",
		}),
		Abandoned: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: generationSubsystem,
			Name:      "abandoned_running",
			Help:      "Compilations still running after their caller timed out.",
		}),
	}
}

// RegisterHealth exports healthy as a 0/1 gauge on reg.
func RegisterHealth(reg prometheus.Registerer, healthy func() bool) {
	promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "healthy",
		Help:      "1 while the worker reports itself healthy.",
	}, func() float64 {
		if healthy() {
			return 1
		}
		return 0
	})
}

// Observe records one finished Submit call.
func (m *Metrics) Observe(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Generations.WithLabelValues(outcome).Inc()
	m.Duration.WithLabelValues(outcome).Observe(d.Seconds())
}

// WaitStarted marks a caller blocking on the lock.
func (m *Metrics) WaitStarted() {
	if m != nil {
		m.Waiting.Inc()
	}
}

// WaitEnded marks a caller leaving the lock queue.
func (m *Metrics) WaitEnded() {
	if m != nil {
		m.Waiting.Dec()
	}
}

// AbandonStarted marks a compilation left running after a timeout.
func (m *Metrics) AbandonStarted() {
	if m != nil {
		m.Abandoned.Inc()
	}
}

// AbandonEnded marks an abandoned compilation finishing.
func (m *Metrics) AbandonEnded() {
	if m != nil {
		m.Abandoned.Dec()
	}
}
