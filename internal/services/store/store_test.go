package store

import (
	"testing"
	"time"

	"ARMTS/internal/domain/models"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func rows(n int) []models.Transaction {
	out := make([]models.Transaction, n)
	for i := range out {
		out[i] = models.Transaction{Timestamp: t0.Add(time.Duration(i) * time.Hour), Values: []float64{float64(i)}}
	}
	return out
}

func checkPartition(t *testing.T, s *Store) {
	t.Helper()
	covered := make([]int, s.Len())
	for _, seg := range s.Segments() {
		for i := seg.From; i < seg.To; i++ {
			covered[i]++
			if s.Rows()[i].Segment != seg.Index {
				t.Fatalf("row %d tagged %d, in segment %d", i, s.Rows()[i].Segment, seg.Index)
			}
		}
	}
	for i, c := range covered {
		if c != 1 {
			t.Fatalf("row %d covered %d times", i, c)
		}
	}
}

func TestNewSortsAndCopies(t *testing.T) {
	in := rows(5)
	in[0], in[4] = in[4], in[0]
	s, err := New(in)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < s.Len(); i++ {
		if s.Rows()[i].Timestamp.Before(s.Rows()[i-1].Timestamp) {
			t.Fatalf("rows not ordered at %d", i)
		}
	}
	in[1].Values[0] = 99
	in[2].Timestamp = time.Time{}
	if s.Rows()[1].Values[0] != 1 || !s.Rows()[2].Timestamp.Equal(t0.Add(2*time.Hour)) {
		t.Fatalf("store aliases caller rows")
	}
	if s.NumSegments() != 1 {
		t.Fatalf("segments = %d", s.NumSegments())
	}
	start, end := s.Span()
	if !start.Equal(t0) || !end.Equal(t0.Add(4*time.Hour)) {
		t.Fatalf("span = %v..%v", start, end)
	}
	checkPartition(t, s)
}

func TestPartitionByCount(t *testing.T) {
	tests := []struct {
		rows, n int
		sizes   []int
	}{
		{10, 3, []int{3, 3, 4}},
		{10, 1, []int{10}},
		{3, 5, []int{1, 1, 1}},
		{0, 4, []int{0}},
	}
	for _, tt := range tests {
		s, err := New(rows(tt.rows), PartitionByCount(tt.n))
		if err != nil {
			t.Fatalf("%d/%d: %v", tt.rows, tt.n, err)
		}
		if s.NumSegments() != len(tt.sizes) {
			t.Fatalf("%d/%d: %d segments", tt.rows, tt.n, s.NumSegments())
		}
		for i, want := range tt.sizes {
			if got := s.Segment(i).Len(); got != want {
				t.Errorf("%d/%d: segment %d has %d rows, want %d", tt.rows, tt.n, i, got, want)
			}
		}
		checkPartition(t, s)
	}
}

func TestPartitionByDuration(t *testing.T) {
	s, err := New(rows(10), PartitionByDuration(4*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if s.NumSegments() != 3 {
		t.Fatalf("segments = %d", s.NumSegments())
	}
	seg := s.Segment(1)
	if seg.From != 4 || seg.To != 8 || !seg.Start.Equal(t0.Add(4*time.Hour)) || !seg.End.Equal(t0.Add(7*time.Hour)) {
		t.Fatalf("segment 1 = %+v", seg)
	}
	checkPartition(t, s)
}

func TestPartitionByDurationSkipsGaps(t *testing.T) {
	in := rows(4)
	in[3].Timestamp = t0.Add(100 * time.Hour)
	s, err := New(in, PartitionByDuration(2*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if s.NumSegments() != 3 {
		t.Fatalf("segments = %d", s.NumSegments())
	}
	checkPartition(t, s)
}

func TestPartitionBySegmentColumn(t *testing.T) {
	in := rows(6)
	for i, id := range []int{7, 7, 3, 3, 3, 9} {
		in[i].Segment = id
	}
	s, err := New(in, PartitionBySegmentColumn())
	if err != nil {
		t.Fatal(err)
	}
	if s.NumSegments() != 3 || s.Segment(1).Len() != 3 {
		t.Fatalf("segments = %+v", s.Segments())
	}
	checkPartition(t, s)
}

func TestSegmentClamps(t *testing.T) {
	s, err := New(rows(9), PartitionByCount(3))
	if err != nil {
		t.Fatal(err)
	}
	if s.Segment(-4).Index != 0 || s.Segment(17).Index != 2 {
		t.Fatalf("clamp failed")
	}
	if got := len(s.SegmentRows(17)); got != 3 {
		t.Fatalf("SegmentRows(17) = %d rows", got)
	}
}
