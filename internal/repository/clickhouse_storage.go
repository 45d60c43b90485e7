package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"ARMTS/internal/domain/models"
	"ARMTS/internal/domain/repository"
	pkgch "ARMTS/pkg/clickhouse"
	applogger "ARMTS/pkg/logger"
)

// ClickHouseStorage persists archive entries to a ReplacingMergeTree keyed by run and rule.
type ClickHouseStorage struct {
	ch    *pkgch.Client
	db    *sql.DB
	table string
	l     *applogger.Logger
}

// NewClickHouseStorage creates ClickHouse storage writing to table.
func NewClickHouseStorage(ch *pkgch.Client, table string, l *applogger.Logger) repository.Storage {
	return &ClickHouseStorage{ch: ch, db: ch.DB(), table: table, l: l}
}

func (s *ClickHouseStorage) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            run_id      String,
            rule_key    String,
            rule        String,
            rule_json   String,
            support     Float64,
            confidence  Float64,
            inclusion   Float64,
            amplitude   Float64,
            fitness     Float64,
            start_ts    DateTime64(3, 'UTC'),
            end_ts      DateTime64(3, 'UTC'),
            hits        Int64,
            recorded_at DateTime64(3, 'UTC')
        ) ENGINE = ReplacingMergeTree(recorded_at)
        ORDER BY (run_id, rule_key)`, s.table)})
}

func (s *ClickHouseStorage) StoreBatch(ctx context.Context, runID string, entries []models.ArchiveEntry) error {
	if len(entries) == 0 {
		return nil
	}
	// multi-row VALUES keeps round-trips low
	const chunkSize = 2000
	for start := 0; start < len(entries); start += chunkSize {
		end := min(start+chunkSize, len(entries))
		values := make([]string, 0, end-start)
		args := make([]any, 0, (end-start)*13)
		for _, e := range entries[start:end] {
			row, err := newRuleRow(runID, e)
			if err != nil {
				return err
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, row.args()...)
		}
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.table, ruleColumns, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse store rules error",
					applogger.String("table", s.table),
					applogger.String("run_id", runID),
					applogger.Int("rows", end-start),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("insert rules: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseStorage) Query(ctx context.Context, runID string, limit int) ([]models.ArchiveEntry, error) {
	if limit <= 0 {
		limit = math.MaxInt32
	}
	q := fmt.Sprintf("SELECT %s FROM %s FINAL WHERE run_id = ? ORDER BY fitness DESC, rule_key ASC LIMIT ?", ruleColumns, s.table)
	rows, err := s.db.QueryContext(ctx, q, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	var out []models.ArchiveEntry
	for rows.Next() {
		row, err := scanRuleRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		e, err := row.entry()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil // client owned by the container
}
