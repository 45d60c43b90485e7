package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"ARMTS/internal/domain/models"
)

// ruleRow is the flat, table-friendly form of an archive entry shared by the SQL sinks.
type ruleRow struct {
	RunID      string
	Key        string
	Rule       string
	RuleJSON   string
	Support    float64
	Confidence float64
	Inclusion  float64
	Amplitude  float64
	Fitness    float64
	Start      time.Time
	End        time.Time
	Hits       int
	Recorded   time.Time
}

const ruleColumns = "run_id, rule_key, rule, rule_json, support, confidence, inclusion, amplitude, fitness, start_ts, end_ts, hits, recorded_at"

func newRuleRow(runID string, e models.ArchiveEntry) (ruleRow, error) {
	b, err := json.Marshal(e.Rule)
	if err != nil {
		return ruleRow{}, fmt.Errorf("encode rule %s: %w", e.Key, err)
	}
	return ruleRow{
		RunID:      runID,
		Key:        e.Key,
		Rule:       e.Rule.String(),
		RuleJSON:   string(b),
		Support:    e.Metrics.Support,
		Confidence: e.Metrics.Confidence,
		Inclusion:  e.Metrics.Inclusion,
		Amplitude:  e.Metrics.Amplitude,
		Fitness:    e.Fitness,
		Start:      e.Start.UTC(),
		End:        e.End.UTC(),
		Hits:       e.Hits,
		Recorded:   e.Recorded.UTC(),
	}, nil
}

func (r ruleRow) args() []any {
	return []any{
		r.RunID, r.Key, r.Rule, r.RuleJSON,
		r.Support, r.Confidence, r.Inclusion, r.Amplitude, r.Fitness,
		r.Start, r.End, r.Hits, r.Recorded,
	}
}

func (r ruleRow) entry() (models.ArchiveEntry, error) {
	var rule models.Rule
	if err := json.Unmarshal([]byte(r.RuleJSON), &rule); err != nil {
		return models.ArchiveEntry{}, fmt.Errorf("decode rule %s: %w", r.Key, err)
	}
	return models.ArchiveEntry{
		Key:  r.Key,
		Rule: rule,
		Metrics: models.MetricResult{
			Support:    r.Support,
			Confidence: r.Confidence,
			Inclusion:  r.Inclusion,
			Amplitude:  r.Amplitude,
		},
		Fitness:  r.Fitness,
		Start:    r.Start,
		End:      r.End,
		Hits:     r.Hits,
		Recorded: r.Recorded,
	}, nil
}

// rowScanner is satisfied by *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRuleRow(s rowScanner) (ruleRow, error) {
	var r ruleRow
	err := s.Scan(&r.RunID, &r.Key, &r.Rule, &r.RuleJSON,
		&r.Support, &r.Confidence, &r.Inclusion, &r.Amplitude, &r.Fitness,
		&r.Start, &r.End, &r.Hits, &r.Recorded)
	return r, err
}

// textArgs formats timestamps as RFC3339Nano for stores without a native time type.
func (r ruleRow) textArgs() []any {
	args := r.args()
	args[9] = r.Start.Format(time.RFC3339Nano)
	args[10] = r.End.Format(time.RFC3339Nano)
	args[12] = r.Recorded.Format(time.RFC3339Nano)
	return args
}

func scanRuleRowText(s rowScanner) (ruleRow, error) {
	var r ruleRow
	var start, end, recorded string
	if err := s.Scan(&r.RunID, &r.Key, &r.Rule, &r.RuleJSON,
		&r.Support, &r.Confidence, &r.Inclusion, &r.Amplitude, &r.Fitness,
		&start, &end, &r.Hits, &recorded); err != nil {
		return r, err
	}
	for _, p := range []struct {
		src string
		dst *time.Time
	}{{start, &r.Start}, {end, &r.End}, {recorded, &r.Recorded}} {
		t, err := time.Parse(time.RFC3339Nano, p.src)
		if err != nil {
			return r, fmt.Errorf("parse time %q: %w", p.src, err)
		}
		*p.dst = t
	}
	return r, nil
}
