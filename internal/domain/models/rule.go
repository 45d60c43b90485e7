package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Predicate is the closed set of condition payloads: NumericRange, CategoryValue, SegmentIndex.
type Predicate interface {
	predicate()
	String() string
}

// NumericRange holds a closed interval [Lo, Hi], Lo <= Hi.
type NumericRange struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// CategoryValue holds a single categorical value.
type CategoryValue struct {
	Value string `json:"value"`
}

// SegmentIndex selects one segment of the transaction store.
type SegmentIndex struct {
	Index int `json:"index"`
}

func (NumericRange) predicate()  {}
func (CategoryValue) predicate() {}
func (SegmentIndex) predicate()  {}

func (p NumericRange) String() string {
	return fmt.Sprintf("%s, %s", formatFloat(p.Lo), formatFloat(p.Hi))
}

func (p CategoryValue) String() string { return p.Value }

func (p SegmentIndex) String() string { return "segment " + strconv.Itoa(p.Index) }

// Condition binds a predicate to one feature column.
type Condition struct {
	Feature   string      `json:"feature"`
	Column    int         `json:"column"`
	Kind      FeatureKind `json:"kind"`
	Predicate Predicate   `json:"predicate"`
}

func (c Condition) String() string {
	return c.Feature + "(" + c.Predicate.String() + ")"
}

// Rule is a decoded candidate rule. Antecedent and Consequent are non-empty and disjoint
// for any rule produced by the decoder.
type Rule struct {
	Antecedent []Condition `json:"antecedent"`
	Consequent []Condition `json:"consequent"`
}

// Len returns the number of conditions in the rule.
func (r *Rule) Len() int { return len(r.Antecedent) + len(r.Consequent) }

// Conditions returns antecedent followed by consequent.
func (r *Rule) Conditions() []Condition {
	out := make([]Condition, 0, r.Len())
	out = append(out, r.Antecedent...)
	return append(out, r.Consequent...)
}

// Segment returns the first segment condition of the rule, if any.
func (r *Rule) Segment() (SegmentIndex, bool) {
	for _, c := range r.Conditions() {
		if s, ok := c.Predicate.(SegmentIndex); ok {
			return s, true
		}
	}
	return SegmentIndex{}, false
}

func (r *Rule) String() string {
	return joinConditions(r.Antecedent) + " => " + joinConditions(r.Consequent)
}

func joinConditions(cs []Condition) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, " AND ")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
