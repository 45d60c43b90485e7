package optimizer

import (
	"math/rand/v2"
	"testing"
)

func TestGaussianMutatorStaysInBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	m := GaussianMutator{Lower: -1, Upper: 1, Rate: 1, Sigma: 5}
	v := []float64{0, 0.9, -0.9, 1, -1}
	for range 100 {
		m.Mutate(v, rng)
		for _, x := range v {
			if x < -1 || x > 1 {
				t.Fatalf("out of bounds: %v", v)
			}
		}
	}
}

func TestUniformCombinerPreservesGenes(t *testing.T) {
	rng := rand.New(rand.NewPCG(2, 2))
	a := []float64{0, 0, 0, 0}
	b := []float64{1, 1, 1, 1}
	c1, c2 := UniformCombiner{Mix: 0.5}.Combine(a, b, rng)
	for i := range a {
		if c1[i]+c2[i] != 1 {
			t.Fatalf("gene %d not swapped pairwise: %v %v", i, c1, c2)
		}
	}
}

func TestTournamentPicksBestWhenFull(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 3))
	pop := &Population{Members: []Candidate{{Score: 1}, {Score: 3}, {Score: 2}}}
	// sampling with replacement means a full-size tournament can still miss the best
	var best int
	for range 200 {
		if (TournamentSelector{Size: 3}).Select(pop, 1, rng)[0].Score == 3 {
			best++
		}
	}
	if best < 100 {
		t.Fatalf("best selected only %d/200 times", best)
	}
}
