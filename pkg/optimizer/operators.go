package optimizer

import "math/rand/v2"

// Selector picks parents from a population.
type Selector interface {
	Select(pop *Population, n int, rng *rand.Rand) []Candidate
}

// Combiner recombines two parents into two children.
type Combiner interface {
	Combine(a, b []float64, rng *rand.Rand) ([]float64, []float64)
}

// Mutator perturbs a vector in place.
type Mutator interface {
	Mutate(v []float64, rng *rand.Rand)
}

// TournamentSelector samples Size members with replacement and keeps the best of each draw.
type TournamentSelector struct {
	Size int
}

func (ts TournamentSelector) Select(pop *Population, n int, rng *rand.Rand) []Candidate {
	size := min(max(ts.Size, 1), len(pop.Members))
	out := make([]Candidate, 0, n)
	for len(out) < n {
		winner := pop.Members[rng.IntN(len(pop.Members))]
		for i := 1; i < size; i++ {
			c := pop.Members[rng.IntN(len(pop.Members))]
			if c.Score > winner.Score {
				winner = c
			}
		}
		out = append(out, winner)
	}
	return out
}

// UniformCombiner swaps each gene between the parents with probability 1-Mix.
type UniformCombiner struct {
	Mix float64
}

func (uc UniformCombiner) Combine(a, b []float64, rng *rand.Rand) ([]float64, []float64) {
	n := min(len(a), len(b))
	c1 := make([]float64, n)
	c2 := make([]float64, n)
	for i := range n {
		if rng.Float64() < uc.Mix {
			c1[i], c2[i] = a[i], b[i]
		} else {
			c1[i], c2[i] = b[i], a[i]
		}
	}
	return c1, c2
}

// GaussianMutator adds N(0, Sigma*(Upper-Lower)) noise to each gene with probability Rate,
// clamping to the box.
type GaussianMutator struct {
	Lower, Upper float64
	Rate         float64
	Sigma        float64
}

func (gm GaussianMutator) Mutate(v []float64, rng *rand.Rand) {
	span := gm.Upper - gm.Lower
	for i := range v {
		if rng.Float64() >= gm.Rate {
			continue
		}
		v[i] = clamp(v[i]+rng.NormFloat64()*gm.Sigma*span, gm.Lower, gm.Upper)
	}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
