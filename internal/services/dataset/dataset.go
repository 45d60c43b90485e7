// Package dataset builds the feature metadata table and transactions from raw tabular data.
package dataset

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"ARMTS/internal/domain/models"
	"ARMTS/internal/services/encoding"
	"ARMTS/pkg/util"
)

// Table is raw column-oriented input: one timestamp and one string cell per column per row.
type Table struct {
	Columns    []string
	Timestamps []time.Time
	Cells      [][]string
}

// Dataset is the loaded metadata and transactions of one run.
type Dataset struct {
	Metadata     *models.Metadata
	Transactions []models.Transaction
}

// Dimension returns the search-space dimension of the dataset.
func (d *Dataset) Dimension() int {
	return encoding.NewLayout(d.Metadata).Dimension()
}

// Options controls column interpretation.
type Options struct {
	TimestampColumn string
	SegmentColumn   string
	Categorical     []string
	Ignore          []string
}

// Option mutates Options.
type Option func(*Options)

// WithTimestampColumn names the timestamp column (default "timestamp").
func WithTimestampColumn(name string) Option {
	return func(o *Options) {
		o.TimestampColumn = name
	}
}

// WithSegmentColumn names an integer column holding the segment id of each row. It becomes
// a time-segment feature.
func WithSegmentColumn(name string) Option {
	return func(o *Options) {
		o.SegmentColumn = name
	}
}

// WithCategorical forces the named columns to categorical even if they parse as numbers.
func WithCategorical(names ...string) Option {
	return func(o *Options) {
		o.Categorical = append(o.Categorical, names...)
	}
}

// WithIgnore drops the named columns.
func WithIgnore(names ...string) Option {
	return func(o *Options) {
		o.Ignore = append(o.Ignore, names...)
	}
}

func newOptions(opts []Option) *Options {
	o := &Options{TimestampColumn: "timestamp"}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Build infers feature kinds and bounds from t and converts rows into transactions.
// A column is numerical when every non-empty cell parses as a float; otherwise categorical.
func Build(t Table, opts ...Option) (*Dataset, error) {
	o := newOptions(opts)
	if len(t.Timestamps) != len(t.Cells) {
		return nil, fmt.Errorf("dataset: %d timestamps for %d rows", len(t.Timestamps), len(t.Cells))
	}

	forced := toSet(o.Categorical)
	ignored := toSet(o.Ignore)
	segCol := -1

	type column struct {
		src     int
		feature models.Feature
	}
	cols := make([]column, 0, len(t.Columns))
	for j, name := range t.Columns {
		if _, skip := ignored[name]; skip || name == o.TimestampColumn {
			continue
		}
		if name == o.SegmentColumn {
			segCol = j
			cols = append(cols, column{src: j, feature: models.Feature{Name: name, Kind: models.KindTimeSegment}})
			continue
		}
		_, cat := forced[name]
		f, err := inferFeature(name, j, t.Cells, cat)
		if err != nil {
			return nil, err
		}
		cols = append(cols, column{src: j, feature: f})
	}
	if o.SegmentColumn != "" && segCol < 0 {
		return nil, fmt.Errorf("dataset: segment column %q not found", o.SegmentColumn)
	}

	features := make([]models.Feature, len(cols))
	for i, c := range cols {
		features[i] = c.feature
	}
	md, err := models.NewMetadata(features)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}

	txs := make([]models.Transaction, len(t.Cells))
	for r, row := range t.Cells {
		tx := models.Transaction{
			Timestamp: t.Timestamps[r],
			Values:    make([]float64, len(cols)),
			Labels:    make([]string, len(cols)),
		}
		for i, c := range cols {
			cell := cellAt(row, c.src)
			switch c.feature.Kind {
			case models.KindNumerical:
				v, ok := parseFloat(cell)
				if !ok {
					v = math.NaN()
				}
				tx.Values[i] = v
			case models.KindCategorical:
				tx.Labels[i] = cell
			case models.KindTimeSegment:
				seg, err := strconv.Atoi(cell)
				if err != nil {
					return nil, fmt.Errorf("dataset: row %d: segment %q: %w", r, cell, err)
				}
				tx.Segment = seg
				tx.Values[i] = float64(seg)
			}
		}
		txs[r] = tx
	}
	return &Dataset{Metadata: md, Transactions: txs}, nil
}

// SegmentFeatureName is the column added by WithSegmentFeature.
const SegmentFeatureName = "interval"

// WithSegmentFeature returns a copy of d with a trailing time-segment feature whose value is
// each row's Transaction.Segment. It makes segments produced by partitioning (by count or by
// duration) selectable by rules. The name gains leading underscores until it is unique.
func WithSegmentFeature(d *Dataset) (*Dataset, error) {
	name := SegmentFeatureName
	for {
		if _, taken := d.Metadata.Index(name); !taken {
			break
		}
		name = "_" + name
	}
	features := append(d.Metadata.Features(), models.Feature{Name: name, Kind: models.KindTimeSegment})
	md, err := models.NewMetadata(features)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}

	txs := make([]models.Transaction, len(d.Transactions))
	for i, tx := range d.Transactions {
		tx.Values = append(append(make([]float64, 0, len(tx.Values)+1), tx.Values...), float64(tx.Segment))
		tx.Labels = append(append(make([]string, 0, len(tx.Labels)+1), tx.Labels...), "")
		txs[i] = tx
	}
	return &Dataset{Metadata: md, Transactions: txs}, nil
}

func inferFeature(name string, col int, cells [][]string, categorical bool) (models.Feature, error) {
	f := models.Feature{Name: name, Kind: models.KindNumerical, Min: math.Inf(1), Max: math.Inf(-1)}
	seen := make(map[string]struct{})
	numeric := !categorical
	for _, row := range cells {
		cell := cellAt(row, col)
		if cell == "" {
			continue
		}
		seen[cell] = struct{}{}
		if !numeric {
			continue
		}
		v, ok := parseFloat(cell)
		if !ok {
			numeric = false
			continue
		}
		f.Min = math.Min(f.Min, v)
		f.Max = math.Max(f.Max, v)
	}
	if len(seen) == 0 {
		return f, fmt.Errorf("dataset: column %q is empty", name)
	}
	if numeric {
		return f, nil
	}
	cats := make([]string, 0, len(seen))
	for c := range seen {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return models.Feature{Name: name, Kind: models.KindCategorical, Categories: cats}, nil
}

// ParseTimestamp parses the timestamp formats accepted by util.ParseTime.
func ParseTimestamp(s string) (time.Time, error) {
	if t, ok := util.ParseTime(s); ok {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func toSet(xs []string) map[string]struct{} {
	out := make(map[string]struct{}, len(xs))
	for _, x := range xs {
		out[x] = struct{}{}
	}
	return out
}
