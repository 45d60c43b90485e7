package optimizer

import (
	"context"
	"errors"
	"math"
	"slices"
	"sync/atomic"
	"testing"
)

type quadratic struct {
	dim    int
	target float64
	calls  atomic.Int64
}

func (q *quadratic) Dimension() int { return q.dim }
func (q *quadratic) Bounds() (float64, float64) { return 0, 1 }
func (q *quadratic) Evaluate(_ context.Context, v []float64) (float64, error) {
	q.calls.Add(1)
	var s float64
	for _, x := range v {
		s -= (x - q.target) * (x - q.target)
	}
	return s, nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PopulationSize = 20
	cfg.Generations = 60
	cfg.Seed = 7
	return cfg
}

func TestRunConverges(t *testing.T) {
	e, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p := &quadratic{dim: 4, target: 0.7}
	res, err := e.Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Best.Score < -0.05 {
		t.Fatalf("best score %v too low", res.Best.Score)
	}
	for _, x := range res.Best.Vector {
		if x < 0 || x > 1 {
			t.Fatalf("best vector out of bounds: %v", res.Best.Vector)
		}
	}
	if int64(res.Evaluations) != p.calls.Load() {
		t.Fatalf("evaluations %d, calls %d", res.Evaluations, p.calls.Load())
	}
	if len(res.History) != res.Generations+1 {
		t.Fatalf("history %d for %d generations", len(res.History), res.Generations)
	}
	for i := 1; i < len(res.History); i++ {
		if res.History[i].Best < res.History[i-1].Best {
			t.Fatalf("elitism violated at generation %d", i)
		}
	}
}

func TestRunDeterministicWithSeed(t *testing.T) {
	run := func() Result {
		e, err := New(testConfig())
		if err != nil {
			t.Fatal(err)
		}
		res, err := e.Run(context.Background(), &quadratic{dim: 3, target: 0.2})
		if err != nil {
			t.Fatal(err)
		}
		return res
	}
	a, b := run(), run()
	if !slices.Equal(a.Best.Vector, b.Best.Vector) || a.Best.Score != b.Best.Score {
		t.Fatalf("same seed gave different results: %v vs %v", a.Best, b.Best)
	}
}

func TestRunParallelWorkers(t *testing.T) {
	cfg := testConfig()
	cfg.Workers = 4
	e, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	res, err := e.Run(context.Background(), &quadratic{dim: 3, target: 0.5})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if math.IsNaN(res.Best.Score) || res.Best.Score < -0.1 {
		t.Fatalf("best = %v", res.Best.Score)
	}
}

func TestRunEvaluationBudget(t *testing.T) {
	cfg := testConfig()
	cfg.PopulationSize = 10
	cfg.MaxEvaluations = 35
	e, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	p := &quadratic{dim: 2, target: 0.5}
	res, err := e.Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Evaluations != 35 || p.calls.Load() != 35 {
		t.Fatalf("evaluations = %d, calls = %d", res.Evaluations, p.calls.Load())
	}
}

func TestRunCancelled(t *testing.T) {
	e, err := New(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	var gens int
	e.observer = func(Stats) {
		gens++
		if gens == 3 {
			cancel()
		}
	}
	res, err := e.Run(ctx, &quadratic{dim: 2, target: 0.5})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if res.Generations != 2 || len(res.Best.Vector) != 2 {
		t.Fatalf("unexpected partial result: %+v", res)
	}
}

type failing struct{ quadratic }

func (f *failing) Evaluate(context.Context, []float64) (float64, error) {
	return 0, errors.New("boom")
}

func TestRunPropagatesEvaluateError(t *testing.T) {
	e, err := New(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Run(context.Background(), &failing{quadratic{dim: 2}}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"population", func(c *Config) { c.PopulationSize = 1 }},
		{"generations", func(c *Config) { c.Generations = 0 }},
		{"elite", func(c *Config) { c.Elite = c.PopulationSize }},
		{"crossover", func(c *Config) { c.CrossoverRate = 1.5 }},
		{"mutation", func(c *Config) { c.MutationRate = -0.1 }},
		{"sigma", func(c *Config) { c.MutationSigma = 0 }},
		{"budget", func(c *Config) { c.MaxEvaluations = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mod(&cfg)
			if _, err := New(cfg); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
