package fitness

import (
	"math"

	"ARMTS/internal/domain/models"
)

// Weights scale support, confidence, inclusion and (1 - amplitude) respectively.
// Configuration loads them through config.Weights.
type Weights struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
	Delta float64 `json:"delta"`
}

// DefaultWeights weighs the four metrics equally.
func DefaultWeights() Weights { return Weights{Alpha: 1, Beta: 1, Gamma: 1, Delta: 1} }

// Validate requires non-negative finite weights with a positive sum.
func (w Weights) Validate() error {
	named := []struct {
		name string
		v    float64
	}{{"alpha", w.Alpha}, {"beta", w.Beta}, {"gamma", w.Gamma}, {"delta", w.Delta}}
	for _, n := range named {
		if math.IsNaN(n.v) || math.IsInf(n.v, 0) {
			return &ConfigurationError{Field: n.name, Reason: "must be finite"}
		}
		if n.v < 0 {
			return &ConfigurationError{Field: n.name, Reason: "must be non-negative"}
		}
	}
	if w.sum() == 0 {
		return &ConfigurationError{Field: "weights", Reason: "at least one weight must be positive"}
	}
	return nil
}

func (w Weights) sum() float64 { return w.Alpha + w.Beta + w.Gamma + w.Delta }

// Combine returns the weighted mean of the metrics, clamped to [0,1].
func Combine(m models.MetricResult, w Weights) float64 {
	s := w.sum()
	if s <= 0 {
		return 0
	}
	f := (w.Alpha*m.Support + w.Beta*m.Confidence + w.Gamma*m.Inclusion + w.Delta*(1-m.Amplitude)) / s
	if math.IsNaN(f) {
		return 0
	}
	return math.Max(0, math.Min(1, f))
}
