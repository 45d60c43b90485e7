package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"ARMTS/internal/domain/models"
	"ARMTS/internal/domain/repository"
	"ARMTS/internal/services/dataset"
	pkgch "ARMTS/pkg/clickhouse"
	applogger "ARMTS/pkg/logger"
)

// ClickHouseSource reads transactions stored in long format, one row per (ts, column, value),
// and pivots them into a table.
type ClickHouseSource struct {
	db       *sql.DB
	table    string
	tsColumn string
	opts     []dataset.Option
	l        *applogger.Logger
}

// NewClickHouseSource creates a source over table. tsColumn must match the dataset
// timestamp option.
func NewClickHouseSource(ch *pkgch.Client, table, tsColumn string, l *applogger.Logger, opts ...dataset.Option) repository.TransactionSource {
	return &ClickHouseSource{db: ch.DB(), table: table, tsColumn: tsColumn, opts: opts, l: l}
}

// longCell is one stored (ts, column, value) triple.
type longCell struct {
	TS     time.Time
	Column string
	Value  string
}

func (s *ClickHouseSource) Load(ctx context.Context) (*models.Metadata, []models.Transaction, error) {
	start := time.Now()
	q := fmt.Sprintf("SELECT ts, column, value FROM %s ORDER BY ts ASC, column ASC", s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse load transactions query error",
				applogger.String("table", s.table),
				applogger.Error(err),
			)
		}
		return nil, nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	cells := make([]longCell, 0, 1024)
	for rows.Next() {
		var c longCell
		if err := rows.Scan(&c.TS, &c.Column, &c.Value); err != nil {
			return nil, nil, fmt.Errorf("scan transaction cell: %w", err)
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("rows: %w", err)
	}

	ds, err := dataset.Build(pivotLong(cells, s.tsColumn), s.opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse source %s: %w", s.table, err)
	}
	if s.l != nil {
		s.l.Info("clickhouse load transactions ok",
			applogger.String("table", s.table),
			applogger.Int("cells", len(cells)),
			applogger.Int("rows", len(ds.Transactions)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return ds.Metadata, ds.Transactions, nil
}

// pivotLong turns long cells into a wide table. Columns are sorted by name after the
// timestamp column; a missing (ts, column) pair becomes an empty cell.
func pivotLong(cells []longCell, tsColumn string) dataset.Table {
	colSet := make(map[string]int)
	for _, c := range cells {
		colSet[c.Column] = 0
	}
	names := make([]string, 0, len(colSet))
	for n := range colSet {
		if n != tsColumn {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	t := dataset.Table{Columns: append([]string{tsColumn}, names...)}
	for i, n := range names {
		colSet[n] = i + 1
	}

	byTS := make(map[int64]int)
	for _, c := range cells {
		if c.Column == tsColumn {
			continue
		}
		key := c.TS.UnixNano()
		r, ok := byTS[key]
		if !ok {
			r = len(t.Cells)
			byTS[key] = r
			row := make([]string, len(t.Columns))
			row[0] = c.TS.UTC().Format(time.RFC3339Nano)
			t.Cells = append(t.Cells, row)
			t.Timestamps = append(t.Timestamps, c.TS.UTC())
		}
		t.Cells[r][colSet[c.Column]] = c.Value
	}
	return t
}
