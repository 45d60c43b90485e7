package store

import (
	"time"

	"ARMTS/internal/domain/models"
)

// Option configures segment partitioning.
type Option func(*config)

type config struct {
	count    int
	duration time.Duration
	byColumn bool
}

// PartitionByCount splits the series into n segments of near-equal row count.
func PartitionByCount(n int) Option {
	return func(c *config) {
		c.count = n
	}
}

// PartitionByDuration starts a new segment every d of wall time from the first timestamp.
func PartitionByDuration(d time.Duration) Option {
	return func(c *config) {
		c.duration = d
	}
}

// PartitionBySegmentColumn starts a new segment whenever Transaction.Segment changes
// between consecutive rows (the loader fills it from an explicit interval column).
func PartitionBySegmentColumn() Option {
	return func(c *config) {
		c.byColumn = true
	}
}

func boundsByCount(total, n int) []int {
	if n > total {
		n = total
	}
	if n <= 1 {
		return []int{0, total}
	}
	bounds := make([]int, 0, n+1)
	for i := 0; i <= n; i++ {
		bounds = append(bounds, i*total/n)
	}
	return bounds
}

func boundsByDuration(rows []models.Transaction, d time.Duration) []int {
	bounds := []int{0}
	if len(rows) == 0 {
		return append(bounds, 0)
	}
	edge := rows[0].Timestamp.Add(d)
	for i, r := range rows {
		if !r.Timestamp.Before(edge) {
			bounds = append(bounds, i)
			for !r.Timestamp.Before(edge) {
				edge = edge.Add(d)
			}
		}
	}
	return append(bounds, len(rows))
}

func boundsByColumn(rows []models.Transaction) []int {
	bounds := []int{0}
	for i := 1; i < len(rows); i++ {
		if rows[i].Segment != rows[i-1].Segment {
			bounds = append(bounds, i)
		}
	}
	return append(bounds, len(rows))
}
