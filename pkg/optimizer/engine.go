package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"golang.org/x/sync/errgroup"
)

// Config holds the engine parameters.
type Config struct {
	PopulationSize int
	Generations    int
	// MaxEvaluations caps the total number of Evaluate calls; 0 means no cap.
	MaxEvaluations int
	TournamentSize int
	CrossoverRate  float64
	MutationRate   float64
	MutationSigma  float64
	Elite          int
	Workers        int
	// Seed for the PCG source; 0 draws a random seed.
	Seed uint64
}

// DefaultConfig returns a reasonable default configuration.
func DefaultConfig() Config {
	return Config{
		PopulationSize: 50,
		Generations:    100,
		TournamentSize: 3,
		CrossoverRate:  0.9,
		MutationRate:   0.1,
		MutationSigma:  0.1,
		Elite:          2,
		Workers:        1,
	}
}

func (c Config) validate() error {
	switch {
	case c.PopulationSize < 2:
		return errors.New("population size must be at least 2")
	case c.Generations < 1:
		return errors.New("generations must be at least 1")
	case c.MaxEvaluations < 0:
		return errors.New("max evaluations must not be negative")
	case c.Elite < 0 || c.Elite >= c.PopulationSize:
		return errors.New("elite must be in [0, population size)")
	case c.CrossoverRate < 0 || c.CrossoverRate > 1:
		return errors.New("crossover rate must be in [0, 1]")
	case c.MutationRate < 0 || c.MutationRate > 1:
		return errors.New("mutation rate must be in [0, 1]")
	case c.MutationSigma <= 0:
		return errors.New("mutation sigma must be positive")
	}
	return nil
}

// Option configures Engine.
type Option func(*Engine)

// WithObserver registers fn to be called after every generation.
func WithObserver(fn func(Stats)) Option {
	return func(e *Engine) {
		e.observer = fn
	}
}

// WithSelector replaces the tournament selector.
func WithSelector(s Selector) Option {
	return func(e *Engine) {
		e.selector = s
	}
}

// WithCombiner replaces the uniform combiner.
func WithCombiner(c Combiner) Option {
	return func(e *Engine) {
		e.combiner = c
	}
}

// Engine runs the generational loop: elitism, tournament selection, uniform crossover
// and bounded Gaussian mutation. Random draws happen on the calling goroutine only, so a
// fixed seed gives a reproducible sequence of candidate vectors.
type Engine struct {
	cfg      Config
	rng      *rand.Rand
	selector Selector
	combiner Combiner
	observer func(Stats)
}

func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("optimizer: %w", err)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	e := &Engine{
		cfg:      cfg,
		rng:      rand.New(rand.NewPCG(seed, seed)),
		selector: TournamentSelector{Size: cfg.TournamentSize},
		combiner: UniformCombiner{Mix: 0.5},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run maximizes p. On cancellation it returns the best candidate so far with ctx.Err().
func (e *Engine) Run(ctx context.Context, p Problem) (Result, error) {
	dim := p.Dimension()
	if dim <= 0 {
		return Result{}, errors.New("optimizer: problem dimension must be positive")
	}
	lower, upper := p.Bounds()
	if !(lower < upper) {
		return Result{}, fmt.Errorf("optimizer: invalid bounds [%v, %v]", lower, upper)
	}
	mut := GaussianMutator{Lower: lower, Upper: upper, Rate: e.cfg.MutationRate, Sigma: e.cfg.MutationSigma}

	var res Result
	budget := func(n int) int {
		if e.cfg.MaxEvaluations == 0 {
			return n
		}
		return min(n, e.cfg.MaxEvaluations-res.Evaluations)
	}

	vectors := make([][]float64, budget(e.cfg.PopulationSize))
	for i := range vectors {
		v := make([]float64, dim)
		for j := range v {
			v[j] = lower + e.rng.Float64()*(upper-lower)
		}
		vectors[i] = v
	}
	members, err := e.evaluate(ctx, p, vectors)
	res.Evaluations += len(members)
	if err != nil {
		return res, err
	}
	if len(members) == 0 {
		return res, errors.New("optimizer: evaluation budget is zero")
	}
	pop := e.population(members, 0)
	res.Best = pop.Members[0]
	e.record(&res, pop)

	for gen := 1; gen <= e.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		want := budget(e.cfg.PopulationSize - min(e.cfg.Elite, len(pop.Members)))
		if want <= 0 {
			break
		}
		offspring := e.breed(pop, want, mut)
		children, err := e.evaluate(ctx, p, offspring)
		res.Evaluations += len(children)
		if err != nil {
			return res, err
		}
		next := append(slices.Clone(pop.Members[:min(e.cfg.Elite, len(pop.Members))]), children...)
		pop = e.population(next, gen)
		if pop.Members[0].Score > res.Best.Score {
			res.Best = pop.Members[0]
		}
		e.record(&res, pop)
	}
	return res, nil
}

func (e *Engine) breed(pop *Population, n int, mut Mutator) [][]float64 {
	out := make([][]float64, 0, n+1)
	for len(out) < n {
		parents := e.selector.Select(pop, 2, e.rng)
		a, b := slices.Clone(parents[0].Vector), slices.Clone(parents[1].Vector)
		if e.rng.Float64() < e.cfg.CrossoverRate {
			a, b = e.combiner.Combine(a, b, e.rng)
		}
		mut.Mutate(a, e.rng)
		mut.Mutate(b, e.rng)
		out = append(out, a, b)
	}
	return out[:n]
}

// evaluate scores vectors with at most Workers concurrent calls. Output order matches input.
func (e *Engine) evaluate(ctx context.Context, p Problem, vectors [][]float64) ([]Candidate, error) {
	out := make([]Candidate, len(vectors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, v := range vectors {
		g.Go(func() error {
			score, err := p.Evaluate(gctx, v)
			if err != nil {
				return fmt.Errorf("evaluate candidate %d: %w", i, err)
			}
			out[i] = Candidate{Vector: v, Score: score}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) population(members []Candidate, gen int) *Population {
	slices.SortStableFunc(members, func(a, b Candidate) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	return &Population{Members: members, Generation: gen, Stats: stats(members, gen)}
}

func (e *Engine) record(res *Result, pop *Population) {
	res.Generations = pop.Generation
	res.History = append(res.History, pop.Stats)
	if e.observer != nil {
		e.observer(pop.Stats)
	}
}

func stats(members []Candidate, gen int) Stats {
	s := Stats{Generation: gen, Best: members[0].Score, Worst: members[0].Score}
	var total float64
	for _, c := range members {
		s.Best = max(s.Best, c.Score)
		s.Worst = min(s.Worst, c.Score)
		total += c.Score
	}
	s.Average = total / float64(len(members))
	return s
}
