// Package encoding maps real-valued search vectors onto candidate rules.
package encoding

import (
	"fmt"
	"math"
	"sort"

	"ARMTS/internal/domain/models"
)

// Config holds the mapping constants of the decoder.
type Config struct {
	Lower       float64
	Upper       float64
	Cutoff      float64 // selection slot must be strictly greater to include a feature
	RoundDigits int     // border rounding, 0 disables
	Mode        models.IntervalMode
	NumSegments int
}

// DefaultConfig returns bounds [0,1], midpoint cutoff, 4-digit borders, fixed mode.
func DefaultConfig() Config {
	return Config{
		Lower:       0,
		Upper:       1,
		Cutoff:      0.5,
		RoundDigits: 4,
		Mode:        models.IntervalFixed,
		NumSegments: 1,
	}
}

// Decoder is a pure function of (vector, metadata); it holds no mutable state and is safe
// for concurrent use.
type Decoder struct {
	md     *models.Metadata
	layout Layout
	cfg    Config
}

// NewDecoder builds a decoder for md.
func NewDecoder(md *models.Metadata, cfg Config) *Decoder {
	if cfg.NumSegments < 1 {
		cfg.NumSegments = 1
	}
	return &Decoder{md: md, layout: NewLayout(md), cfg: cfg}
}

// Layout returns the vector layout.
func (d *Decoder) Layout() Layout { return d.layout }

// Dimension returns the expected vector length.
func (d *Decoder) Dimension() int { return d.layout.Dimension() }

// Metadata returns the feature table the decoder was built for.
func (d *Decoder) Metadata() *models.Metadata { return d.md }

// Validate checks length and component bounds.
func (d *Decoder) Validate(v []float64) error {
	if len(v) != d.layout.Dimension() {
		return &InvalidEncodingError{Index: -1, Reason: fmt.Sprintf("length %d, want %d", len(v), d.layout.Dimension())}
	}
	for i, x := range v {
		if math.IsNaN(x) {
			return &InvalidEncodingError{Index: i, Value: x, Reason: "not a number"}
		}
		if x < d.cfg.Lower || x > d.cfg.Upper {
			return &InvalidEncodingError{Index: i, Value: x, Reason: "out of bounds"}
		}
	}
	return nil
}

// Decode validates v and maps it to a rule. ok is false for degenerate vectors (fewer
// than two selected features, or an empty antecedent/consequent); that is not an error.
func (d *Decoder) Decode(v []float64) (rule *models.Rule, ok bool, err error) {
	if err := d.Validate(v); err != nil {
		return nil, false, err
	}

	n := d.md.Len()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return v[d.layout.PermutationSlot(order[a])] > v[d.layout.PermutationSlot(order[b])]
	})

	conds := make([]models.Condition, 0, n)
	for _, i := range order {
		if v[d.layout.SelectSlot(i)] <= d.cfg.Cutoff {
			continue
		}
		c, keep := d.condition(i, v)
		if keep {
			conds = append(conds, c)
		}
	}
	if len(conds) < 2 {
		return nil, false, nil
	}

	k := 1 + int(math.Floor(d.unit(v[d.layout.SplitSlot()])*float64(n-1)))
	if k > n-1 {
		k = n - 1
	}
	if k >= len(conds) {
		return nil, false, nil
	}

	return &models.Rule{
		Antecedent: conds[:k:k],
		Consequent: conds[k:],
	}, true, nil
}

func (d *Decoder) condition(i int, v []float64) (models.Condition, bool) {
	f := d.md.At(i)
	off := d.layout.Offset(i)
	c := models.Condition{Feature: f.Name, Column: i, Kind: f.Kind}

	switch f.Kind {
	case models.KindNumerical:
		lo := d.border(f, v[off])
		hi := d.border(f, v[off+1])
		if lo > hi {
			lo, hi = hi, lo
		}
		c.Predicate = models.NumericRange{Lo: lo, Hi: hi}
	case models.KindCategorical:
		c.Predicate = models.CategoryValue{Value: f.Categories[bucket(d.unit(v[off]), len(f.Categories))]}
	case models.KindTimeSegment:
		if d.cfg.Mode != models.IntervalSegmented {
			return c, false
		}
		c.Predicate = models.SegmentIndex{Index: bucket(d.unit(v[off]), d.cfg.NumSegments)}
	default:
		return c, false
	}
	return c, true
}

// unit maps a component onto [0,1].
func (d *Decoder) unit(x float64) float64 {
	span := d.cfg.Upper - d.cfg.Lower
	if span <= 0 {
		return 0
	}
	t := (x - d.cfg.Lower) / span
	return math.Max(0, math.Min(1, t))
}

func (d *Decoder) border(f models.Feature, x float64) float64 {
	b := f.Min + (f.Max-f.Min)*d.unit(x)
	if d.cfg.RoundDigits > 0 {
		p := math.Pow(10, float64(d.cfg.RoundDigits))
		b = math.Round(b*p) / p
	}
	return math.Max(f.Min, math.Min(f.Max, b))
}

// bucket maps t in [0,1] onto {0..n-1} uniformly; t == 1 lands in the last bucket.
func bucket(t float64, n int) int {
	i := int(t * float64(n))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
