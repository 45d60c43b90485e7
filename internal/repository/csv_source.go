package repository

import (
	"context"
	"fmt"

	"ARMTS/internal/domain/models"
	"ARMTS/internal/domain/repository"
	"ARMTS/internal/services/dataset"
)

// CSVSource loads transactions from a header-first CSV file.
type CSVSource struct {
	path string
	opts []dataset.Option
}

// NewCSVSource creates a source reading path on every Load.
func NewCSVSource(path string, opts ...dataset.Option) repository.TransactionSource {
	return &CSVSource{path: path, opts: opts}
}

func (s *CSVSource) Load(ctx context.Context) (*models.Metadata, []models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	ds, err := dataset.LoadCSVFile(s.path, s.opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("csv source %s: %w", s.path, err)
	}
	return ds.Metadata, ds.Transactions, nil
}
