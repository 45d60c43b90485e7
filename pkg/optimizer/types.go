// Package optimizer implements a real-coded genetic algorithm that maximizes a fitness
// function over a bounded box.
package optimizer

import "context"

// Problem is a maximization problem over [Lower, Upper]^Dimension.
// Evaluate must be safe for concurrent use when Workers > 1.
type Problem interface {
	Dimension() int
	Bounds() (lower, upper float64)
	Evaluate(ctx context.Context, v []float64) (float64, error)
}

// Candidate is a vector and its score (higher is better).
type Candidate struct {
	Vector []float64
	Score  float64
}

// Population is the working set of one generation, sorted by score descending.
type Population struct {
	Members    []Candidate
	Generation int
	Stats      Stats
}

// Stats summarizes a population.
type Stats struct {
	Generation int
	Best       float64
	Worst      float64
	Average    float64
}

// Result is returned by Engine.Run.
type Result struct {
	Best        Candidate
	Generations int
	Evaluations int
	History     []Stats
}
