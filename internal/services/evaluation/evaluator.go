// Package evaluation scores candidate rules against the transaction store.
package evaluation

import (
	"math"

	"ARMTS/internal/domain/models"
	"ARMTS/internal/services/store"
)

// Evaluator computes support, confidence, inclusion and amplitude. It reads only
// immutable data and is safe for concurrent use.
type Evaluator struct {
	md    *models.Metadata
	store *store.Store
}

// New returns an evaluator over md and st.
func New(md *models.Metadata, st *store.Store) *Evaluator {
	return &Evaluator{md: md, store: st}
}

// Scope returns the transactions considered for rule under mode. In segmented mode a rule
// carrying a segment condition is scoped to that segment; otherwise the whole series is used.
func (e *Evaluator) Scope(rule *models.Rule, mode models.IntervalMode) ([]models.Transaction, models.Segment) {
	if mode == models.IntervalSegmented {
		if s, ok := rule.Segment(); ok {
			return e.store.SegmentRows(s.Index), e.store.Segment(s.Index)
		}
	}
	rows := e.store.Rows()
	start, end := e.store.Span()
	return rows, models.Segment{Index: -1, From: 0, To: len(rows), Start: start, End: end}
}

// Evaluate computes the metric result of rule in a single pass over its scope.
func (e *Evaluator) Evaluate(rule *models.Rule, mode models.IntervalMode) models.MetricResult {
	rows, _ := e.Scope(rule, mode)

	var antecedent, joint int
	for i := range rows {
		if !Matches(rule.Antecedent, &rows[i]) {
			continue
		}
		antecedent++
		if Matches(rule.Consequent, &rows[i]) {
			joint++
		}
	}

	return models.MetricResult{
		Support:    ratio(joint, len(rows)),
		Confidence: ratio(joint, antecedent),
		Inclusion:  Inclusion(rule, e.md),
		Amplitude:  Amplitude(rule, e.md),
	}
}

// Matches reports whether every condition holds for t.
func Matches(conds []models.Condition, t *models.Transaction) bool {
	for _, c := range conds {
		if !holds(c, t) {
			return false
		}
	}
	return true
}

func holds(c models.Condition, t *models.Transaction) bool {
	switch p := c.Predicate.(type) {
	case models.NumericRange:
		if c.Column >= len(t.Values) {
			return false
		}
		x := t.Values[c.Column]
		return x >= p.Lo && x <= p.Hi
	case models.CategoryValue:
		if c.Column >= len(t.Labels) {
			return false
		}
		return t.Labels[c.Column] == p.Value
	case models.SegmentIndex:
		return t.Segment == p.Index
	default:
		return false
	}
}

// Inclusion is the share of metadata features referenced by the rule.
func Inclusion(rule *models.Rule, md *models.Metadata) float64 {
	seen := make(map[int]struct{}, rule.Len())
	for _, c := range rule.Conditions() {
		seen[c.Column] = struct{}{}
	}
	return clamp01(ratio(len(seen), md.Len()))
}

// Amplitude averages the normalized width of every condition. Categorical and segment
// conditions, and numeric features with min == max, contribute 0.
func Amplitude(rule *models.Rule, md *models.Metadata) float64 {
	conds := rule.Conditions()
	if len(conds) == 0 {
		return 0
	}
	total := 0.0
	for _, c := range conds {
		r, ok := c.Predicate.(models.NumericRange)
		if !ok {
			continue
		}
		f := md.At(c.Column)
		if f.Max > f.Min {
			total += (r.Hi - r.Lo) / (f.Max - f.Min)
		}
	}
	return clamp01(total / float64(len(conds)))
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Max(0, math.Min(1, x))
}
