package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	evaluations *prometheus.CounterVec
	fitness     prometheus.Histogram
	archiveSize prometheus.Gauge
	bestFitness prometheus.Gauge
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		evaluations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "armts_evaluations_total",
				Help: "Fitness evaluations by outcome (rule, empty, invalid)",
			},
			[]string{"outcome"},
		),
		fitness: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "armts_fitness",
				Help:    "Fitness of non-empty rules",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
		),
		archiveSize: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "armts_archive_size",
				Help: "Number of distinct rules in the archive",
			},
		),
		bestFitness: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "armts_best_fitness",
				Help: "Best fitness seen in the current run",
			},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "armts_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "armts_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordEvaluation counts one evaluation; fitness is observed only for "rule" outcomes.
func (r *Recorder) RecordEvaluation(outcome string, fitness float64) {
	r.evaluations.WithLabelValues(outcome).Inc()
	if outcome == "rule" {
		r.fitness.Observe(fitness)
	}
}

func (r *Recorder) RecordArchiveSize(n int) {
	r.archiveSize.Set(float64(n))
}

func (r *Recorder) RecordBestFitness(f float64) {
	r.bestFitness.Set(f)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordEvaluation(string, float64) {}
func (Nop) RecordArchiveSize(int) {}
func (Nop) RecordBestFitness(float64) {}
func (Nop) RecordError(string) {}
func (Nop) RecordLatency(string, float64) {}
