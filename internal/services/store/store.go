// Package store holds the read-only, timestamp-ordered transaction table and its segments.
package store

import (
	"fmt"
	"sort"
	"time"

	"ARMTS/internal/domain/models"
)

// Store is immutable after construction; all accessors are safe for concurrent use.
type Store struct {
	rows     []models.Transaction
	segments []models.Segment
}

// New deep-copies rows, orders them by timestamp (stable) and treats the whole series as a
// single segment. Use a Partition* option to split it.
func New(rows []models.Transaction, opts ...Option) (*Store, error) {
	cp := make([]models.Transaction, len(rows))
	for i, r := range rows {
		r.Values = append([]float64(nil), r.Values...)
		r.Labels = append([]string(nil), r.Labels...)
		cp[i] = r
	}
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Timestamp.Before(cp[j].Timestamp) })

	s := &Store{rows: cp}
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	var bounds []int
	switch {
	case cfg.byColumn:
		bounds = boundsByColumn(cp)
	case cfg.count > 0:
		bounds = boundsByCount(len(cp), cfg.count)
	case cfg.duration > 0:
		bounds = boundsByDuration(cp, cfg.duration)
	default:
		bounds = []int{0, len(cp)}
	}
	s.segments = buildSegments(cp, bounds)
	for _, seg := range s.segments {
		for i := seg.From; i < seg.To; i++ {
			s.rows[i].Segment = seg.Index
		}
	}
	if err := s.checkPartition(); err != nil {
		return nil, err
	}
	return s, nil
}

// Len returns the total number of transactions.
func (s *Store) Len() int { return len(s.rows) }

// Rows returns the full ordered slice. Callers must not modify it.
func (s *Store) Rows() []models.Transaction { return s.rows }

// Segments returns a copy of the segment table.
func (s *Store) Segments() []models.Segment {
	out := make([]models.Segment, len(s.segments))
	copy(out, s.segments)
	return out
}

// NumSegments returns the number of segments (at least 1).
func (s *Store) NumSegments() int { return len(s.segments) }

// Segment returns segment i, clamping out-of-range indices to the nearest valid segment.
func (s *Store) Segment(i int) models.Segment {
	if i < 0 {
		i = 0
	}
	if i >= len(s.segments) {
		i = len(s.segments) - 1
	}
	return s.segments[i]
}

// SegmentRows returns the transactions of segment i (clamped). Callers must not modify it.
func (s *Store) SegmentRows(i int) []models.Transaction {
	seg := s.Segment(i)
	return s.rows[seg.From:seg.To]
}

// Span returns the first and last timestamp of the series.
func (s *Store) Span() (time.Time, time.Time) {
	if len(s.rows) == 0 {
		return time.Time{}, time.Time{}
	}
	return s.rows[0].Timestamp, s.rows[len(s.rows)-1].Timestamp
}

func (s *Store) checkPartition() error {
	next := 0
	for i, seg := range s.segments {
		if seg.Index != i {
			return fmt.Errorf("store: segment %d has index %d", i, seg.Index)
		}
		if seg.From != next || seg.To < seg.From {
			return fmt.Errorf("store: segment %d [%d,%d) breaks partition at %d", i, seg.From, seg.To, next)
		}
		next = seg.To
	}
	if next != len(s.rows) {
		return fmt.Errorf("store: segments cover %d of %d rows", next, len(s.rows))
	}
	return nil
}

func buildSegments(rows []models.Transaction, bounds []int) []models.Segment {
	segs := make([]models.Segment, 0, len(bounds)-1)
	for i := 0; i+1 < len(bounds); i++ {
		seg := models.Segment{Index: i, From: bounds[i], To: bounds[i+1]}
		if seg.To > seg.From {
			seg.Start = rows[seg.From].Timestamp
			seg.End = rows[seg.To-1].Timestamp
		}
		segs = append(segs, seg)
	}
	return segs
}
