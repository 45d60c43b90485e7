package models

import "time"

// IntervalMode selects the transaction scope used by metric evaluation.
type IntervalMode string

const (
	IntervalFixed     IntervalMode = "fixed"
	IntervalSegmented IntervalMode = "segmented"
)

// ParseIntervalMode accepts "fixed" or "segmented" (also "false"/"true" as in older configs).
func ParseIntervalMode(s string) (IntervalMode, bool) {
	switch s {
	case "fixed", "false":
		return IntervalFixed, true
	case "segmented", "true":
		return IntervalSegmented, true
	default:
		return "", false
	}
}

// Transaction is one time-indexed row. Values and Labels are indexed by feature column:
// numerical columns use Values, categorical columns use Labels.
type Transaction struct {
	Timestamp time.Time `json:"timestamp"`
	Segment   int       `json:"segment"`
	Values    []float64 `json:"values"`
	Labels    []string  `json:"labels"`
}

// Segment is a contiguous run of transactions [From, To) in timestamp order.
type Segment struct {
	Index int       `json:"index"`
	From  int       `json:"from"`
	To    int       `json:"to"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Len returns the number of transactions in the segment.
func (s Segment) Len() int { return s.To - s.From }
