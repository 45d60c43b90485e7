package repository

import (
	"context"

	"ARMTS/internal/domain/models"
)

// TransactionSource loads the feature table and the transactions of one run.
type TransactionSource interface {
	Load(ctx context.Context) (*models.Metadata, []models.Transaction, error)
}
