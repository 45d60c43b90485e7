// Package fitness turns a search vector into a scalar score for the optimizer.
package fitness

import (
	"time"

	"ARMTS/internal/domain/models"
	"ARMTS/internal/services/encoding"
	"ARMTS/internal/services/evaluation"
)

// Recorder receives every successfully decoded rule. The archive implements it.
type Recorder interface {
	Record(rule *models.Rule, metrics models.MetricResult, fitness float64, start, end time.Time) (models.ArchiveEntry, bool)
}

// Result is the full outcome of one evaluation.
type Result struct {
	Rule    *models.Rule
	Metrics models.MetricResult
	Fitness float64
	Scope   models.Segment
}

// Empty reports whether the vector decoded to no rule.
func (r Result) Empty() bool { return r.Rule == nil }

// Function is safe for concurrent use as long as the Recorder is.
type Function struct {
	decoder   *encoding.Decoder
	evaluator *evaluation.Evaluator
	weights   Weights
	mode      models.IntervalMode
	empty     float64
	recorder  Recorder
}

// Option configures a Function.
type Option func(*Function)

// WithEmptyFitness sets the sentinel returned for vectors that decode to no rule.
func WithEmptyFitness(v float64) Option {
	return func(f *Function) {
		f.empty = v
	}
}

// WithRecorder attaches the archive.
func WithRecorder(r Recorder) Option {
	return func(f *Function) {
		f.recorder = r
	}
}

// New validates weights and mode up front; evaluation itself never fails on in-bounds input.
func New(dec *encoding.Decoder, ev *evaluation.Evaluator, w Weights, mode models.IntervalMode, opts ...Option) (*Function, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if mode != models.IntervalFixed && mode != models.IntervalSegmented {
		return nil, &ConfigurationError{Field: "interval_mode", Reason: "must be fixed or segmented"}
	}
	f := &Function{decoder: dec, evaluator: ev, weights: w, mode: mode}
	for _, opt := range opts {
		opt(f)
	}
	if f.empty > 0 {
		return nil, &ConfigurationError{Field: "empty_fitness", Reason: "must not exceed the lowest valid fitness (0)"}
	}
	return f, nil
}

// Dimension returns the expected vector length.
func (f *Function) Dimension() int { return f.decoder.Dimension() }

// Mode returns the interval mode.
func (f *Function) Mode() models.IntervalMode { return f.mode }

// Evaluate returns the fitness of v. The only error is *encoding.InvalidEncodingError.
func (f *Function) Evaluate(v []float64) (float64, error) {
	r, err := f.Score(v)
	if err != nil {
		return 0, err
	}
	return r.Fitness, nil
}

// Score decodes, evaluates, combines and records v.
func (f *Function) Score(v []float64) (Result, error) {
	rule, ok, err := f.decoder.Decode(v)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{Fitness: f.empty}, nil
	}

	m := f.evaluator.Evaluate(rule, f.mode)
	_, scope := f.evaluator.Scope(rule, f.mode)
	res := Result{Rule: rule, Metrics: m, Fitness: Combine(m, f.weights), Scope: scope}
	if f.recorder != nil {
		f.recorder.Record(rule, m, res.Fitness, scope.Start, scope.End)
	}
	return res, nil
}
