package models

import (
	"encoding/json"
	"fmt"
)

// conditionJSON is the flat wire form of a Condition; the predicate fields present depend on Kind.
type conditionJSON struct {
	Feature string      `json:"feature"`
	Column  int         `json:"column"`
	Kind    FeatureKind `json:"kind"`
	Lo      *float64    `json:"lo,omitempty"`
	Hi      *float64    `json:"hi,omitempty"`
	Value   *string     `json:"value,omitempty"`
	Segment *int        `json:"segment,omitempty"`
}

func (c Condition) MarshalJSON() ([]byte, error) {
	w := conditionJSON{Feature: c.Feature, Column: c.Column, Kind: c.Kind}
	switch p := c.Predicate.(type) {
	case NumericRange:
		w.Lo, w.Hi = &p.Lo, &p.Hi
	case CategoryValue:
		w.Value = &p.Value
	case SegmentIndex:
		w.Segment = &p.Index
	case nil:
	default:
		return nil, fmt.Errorf("condition %q: unknown predicate %T", c.Feature, p)
	}
	return json.Marshal(w)
}

func (c *Condition) UnmarshalJSON(b []byte) error {
	var w conditionJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	c.Feature, c.Column, c.Kind = w.Feature, w.Column, w.Kind
	switch w.Kind {
	case KindNumerical:
		if w.Lo == nil || w.Hi == nil {
			return fmt.Errorf("condition %q: numerical predicate needs lo and hi", w.Feature)
		}
		c.Predicate = NumericRange{Lo: *w.Lo, Hi: *w.Hi}
	case KindCategorical:
		if w.Value == nil {
			return fmt.Errorf("condition %q: categorical predicate needs value", w.Feature)
		}
		c.Predicate = CategoryValue{Value: *w.Value}
	case KindTimeSegment:
		if w.Segment == nil {
			return fmt.Errorf("condition %q: time-segment predicate needs segment", w.Feature)
		}
		c.Predicate = SegmentIndex{Index: *w.Segment}
	default:
		return fmt.Errorf("condition %q: unknown kind %q", w.Feature, w.Kind)
	}
	return nil
}
