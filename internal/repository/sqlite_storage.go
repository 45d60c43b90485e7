package repository

import (
	"context"
	"fmt"

	"ARMTS/internal/domain/models"
	"ARMTS/internal/domain/repository"
	"ARMTS/pkg/sqlite"
)

// SQLiteStorage keeps archive entries in a local database file. Re-storing a rule of the
// same run overwrites it.
type SQLiteStorage struct {
	c *sqlite.Client
}

// NewSQLiteStorage creates SQLite storage over an open client.
func NewSQLiteStorage(c *sqlite.Client) repository.Storage {
	return &SQLiteStorage{c: c}
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS rules (
		run_id      TEXT NOT NULL,
		rule_key    TEXT NOT NULL,
		rule        TEXT NOT NULL,
		rule_json   TEXT NOT NULL,
		support     REAL NOT NULL,
		confidence  REAL NOT NULL,
		inclusion   REAL NOT NULL,
		amplitude   REAL NOT NULL,
		fitness     REAL NOT NULL,
		start_ts    TEXT NOT NULL,
		end_ts      TEXT NOT NULL,
		hits        INTEGER NOT NULL,
		recorded_at TEXT NOT NULL,
		PRIMARY KEY (run_id, rule_key)
	)`,
	`CREATE INDEX IF NOT EXISTS rules_run_fitness ON rules (run_id, fitness DESC)`,
}

func (s *SQLiteStorage) Init(ctx context.Context) error {
	return s.c.InitSchema(ctx, sqliteSchema)
}

func (s *SQLiteStorage) StoreBatch(ctx context.Context, runID string, entries []models.ArchiveEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.c.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO rules (`+ruleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		row, err := newRuleRow(runID, e)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, row.textArgs()...); err != nil {
			return fmt.Errorf("insert rule %s: %w", e.Key, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStorage) Query(ctx context.Context, runID string, limit int) ([]models.ArchiveEntry, error) {
	if limit <= 0 {
		limit = -1 // no limit
	}
	rows, err := s.c.DB().QueryContext(ctx, `SELECT `+ruleColumns+` FROM rules
		WHERE run_id = ? ORDER BY fitness DESC, rule_key ASC LIMIT ?`, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	var out []models.ArchiveEntry
	for rows.Next() {
		row, err := scanRuleRowText(rows)
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

func (s *SQLiteStorage) Health(ctx context.Context) error {
	return s.c.Health(ctx)
}

func (s *SQLiteStorage) Close() error {
	return nil // client owned by the container
}
