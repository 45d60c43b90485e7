package usecase

import (
	"context"
	"time"

	drepo "ARMTS/internal/domain/repository"
	"ARMTS/internal/services/fitness"
)

// Problem exposes the fitness function to the optimizer as a bounded maximization problem.
type Problem struct {
	fn           *fitness.Function
	lower, upper float64
	metrics      drepo.Metrics
}

// NewProblem creates a Problem over [lower, upper]^fn.Dimension().
func NewProblem(fn *fitness.Function, lower, upper float64, metrics drepo.Metrics) *Problem {
	return &Problem{fn: fn, lower: lower, upper: upper, metrics: metrics}
}

func (p *Problem) Dimension() int { return p.fn.Dimension() }

func (p *Problem) Bounds() (float64, float64) { return p.lower, p.upper }

// Evaluate returns the fitness of v. It fails for malformed vectors and, without scoring,
// once ctx is done, so a cancelled search stops inside a generation.
func (p *Problem) Evaluate(ctx context.Context, v []float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	res, err := p.Score(v)
	if err != nil {
		return 0, err
	}
	return res.Fitness, nil
}

// Score evaluates v and reports the decoded rule alongside its fitness.
func (p *Problem) Score(v []float64) (fitness.Result, error) {
	start := time.Now()
	res, err := p.fn.Score(v)
	switch {
	case err != nil:
		p.metrics.RecordEvaluation("invalid", 0)
		p.metrics.RecordError("invalid_encoding")
		return res, err
	case res.Empty():
		p.metrics.RecordEvaluation("empty", res.Fitness)
	default:
		p.metrics.RecordEvaluation("rule", res.Fitness)
	}
	p.metrics.RecordLatency("evaluate", time.Since(start).Seconds())
	return res, nil
}
