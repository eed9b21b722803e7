// Package metrics exposes solver counters on a private Prometheus registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all solver metrics
type Registry struct {
	SolvesTotal       *prometheus.CounterVec
	SolveDuration     prometheus.Histogram
	CandidateScores   *prometheus.HistogramVec
	SamplesTotal      *prometheus.CounterVec
	IterationsTotal   *prometheus.CounterVec
	CurrentScore      *prometheus.GaugeVec
	BestScore         *prometheus.GaugeVec
	InvalidCandidates prometheus.Counter

	registry *prometheus.Registry
}

var scoreBuckets = []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}

// NewRegistry creates a registry with every solver metric registered
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		registry: reg,

		SolvesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buses_solves_total",
				Help: "Total number of solve attempts",
			},
			[]string{"status"},
		),
		SolveDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "buses_solve_duration_seconds",
				Help:    "Solve duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
		),
		CandidateScores: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "buses_candidate_score",
				Help:    "Scores of the constructive heuristic candidates",
				Buckets: scoreBuckets,
			},
			[]string{"strategy"},
		),
		SamplesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buses_optimizer_samples_total",
				Help: "Optimizer samples by strategy and decision",
			},
			[]string{"strategy", "decision"},
		),
		IterationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buses_optimizer_iterations_total",
				Help: "Optimizer sample passes by strategy",
			},
			[]string{"strategy"},
		),
		CurrentScore: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "buses_optimizer_score",
				Help: "Score after the latest optimizer pass",
			},
			[]string{"strategy"},
		),
		BestScore: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "buses_best_score",
				Help: "Best score reached per input",
			},
			[]string{"input"},
		),
		InvalidCandidates: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "buses_invalid_candidates_total",
				Help: "Heuristic candidates rejected by validation",
			},
		),
	}
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// ObserveSample implements optimizer.Observer
func (r *Registry) ObserveSample(strategy string, accepted bool) {
	if r == nil {
		return
	}
	decision := "rejected"
	if accepted {
		decision = "accepted"
	}
	r.SamplesTotal.WithLabelValues(strategy, decision).Inc()
}

// ObserveIteration implements optimizer.Observer
func (r *Registry) ObserveIteration(strategy string, score float64) {
	if r == nil {
		return
	}
	r.IterationsTotal.WithLabelValues(strategy).Inc()
	r.CurrentScore.WithLabelValues(strategy).Set(score)
}

// RecordCandidate records one heuristic candidate
func (r *Registry) RecordCandidate(strategy string, valid bool, score float64) {
	if r == nil {
		return
	}
	if !valid {
		r.InvalidCandidates.Inc()
		return
	}
	r.CandidateScores.WithLabelValues(strategy).Observe(score)
}

// RecordSolve records a finished solve
func (r *Registry) RecordSolve(status string, duration time.Duration) {
	if r == nil {
		return
	}
	r.SolvesTotal.WithLabelValues(status).Inc()
	r.SolveDuration.Observe(duration.Seconds())
}

// RecordBest sets the best score reached for an input
func (r *Registry) RecordBest(input string, score float64) {
	if r == nil {
		return
	}
	r.BestScore.WithLabelValues(input).Set(score)
}
