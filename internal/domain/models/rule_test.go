package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func sampleRule() *Rule {
	return &Rule{
		Antecedent: []Condition{
			{Feature: "A", Column: 0, Kind: KindNumerical, Predicate: NumericRange{Lo: 0, Hi: 5}},
			{Feature: "S", Column: 2, Kind: KindCategorical, Predicate: CategoryValue{Value: "up"}},
		},
		Consequent: []Condition{
			{Feature: "B", Column: 1, Kind: KindNumerical, Predicate: NumericRange{Lo: 7, Hi: 10}},
			{Feature: "T", Column: 3, Kind: KindTimeSegment, Predicate: SegmentIndex{Index: 2}},
		},
	}
}

func TestRuleString(t *testing.T) {
	got := sampleRule().String()
	want := "A(0, 5) AND S(up) => B(7, 10) AND T(segment 2)"
	if got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestRuleSegment(t *testing.T) {
	seg, ok := sampleRule().Segment()
	if !ok || seg.Index != 2 {
		t.Fatalf("Segment() = %v, %v", seg, ok)
	}
	r := &Rule{Antecedent: sampleRule().Antecedent, Consequent: sampleRule().Consequent[:1]}
	if _, ok := r.Segment(); ok {
		t.Fatalf("expected no segment condition")
	}
}

func TestRuleJSONRoundTrip(t *testing.T) {
	in := sampleRule()
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Rule
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(*in, out) {
		t.Fatalf("round trip mismatch:\n in  %+v\n out %+v", *in, out)
	}
}

func TestConditionUnmarshalRejectsIncomplete(t *testing.T) {
	for _, doc := range []string{
		`{"feature":"A","kind":"numerical","lo":1}`,
		`{"feature":"S","kind":"categorical"}`,
		`{"feature":"T","kind":"time-segment"}`,
		`{"feature":"X","kind":"ordinal"}`,
	} {
		var c Condition
		if err := json.Unmarshal([]byte(doc), &c); err == nil {
			t.Errorf("expected error for %s", doc)
		}
	}
}

func TestNewMetadata(t *testing.T) {
	good := []Feature{
		{Name: "A", Kind: KindNumerical, Min: 0, Max: 10},
		{Name: "S", Kind: KindCategorical, Categories: []string{"down", "up"}},
	}
	md, err := NewMetadata(good)
	if err != nil {
		t.Fatalf("NewMetadata: %v", err)
	}
	good[1].Categories[0] = "mutated"
	if md.At(1).Categories[0] != "down" {
		t.Fatalf("metadata shares caller slice")
	}
	if i, ok := md.Index("S"); !ok || i != 1 {
		t.Fatalf("Index(S) = %d, %v", i, ok)
	}
	if !md.HasKind(KindCategorical) || md.HasKind(KindTimeSegment) {
		t.Fatalf("HasKind wrong")
	}

	bad := map[string][]Feature{
		"too few":  {{Name: "A", Kind: KindNumerical}},
		"dup":      {{Name: "A", Kind: KindNumerical}, {Name: "A", Kind: KindNumerical}},
		"no name":  {{Name: "", Kind: KindNumerical}, {Name: "B", Kind: KindNumerical}},
		"inverted": {{Name: "A", Kind: KindNumerical, Min: 2, Max: 1}, {Name: "B", Kind: KindNumerical}},
		"no cats":  {{Name: "A", Kind: KindCategorical}, {Name: "B", Kind: KindNumerical}},
		"bad kind": {{Name: "A", Kind: "ordinal"}, {Name: "B", Kind: KindNumerical}},
	}
	for name, fs := range bad {
		if _, err := NewMetadata(fs); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParseIntervalMode(t *testing.T) {
	tests := []struct {
		in   string
		want IntervalMode
		ok   bool
	}{
		{"fixed", IntervalFixed, true},
		{"segmented", IntervalSegmented, true},
		{"true", IntervalSegmented, true},
		{"false", IntervalFixed, true},
		{"weekly", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseIntervalMode(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseIntervalMode(%q) = %q, %v", tt.in, got, ok)
		}
	}
}
