package repository

import (
	"context"

	"ARMTS/internal/domain/models"
)

// Publisher streams archive entries to a message bus as they are recorded.
type Publisher interface {
	Publish(ctx context.Context, runID string, e models.ArchiveEntry) error
	PublishBatch(ctx context.Context, runID string, entries []models.ArchiveEntry) error
	Close() error
}

// Storage persists the final archive of a run.
type Storage interface {
	Init(ctx context.Context) error // ensure tables
	StoreBatch(ctx context.Context, runID string, entries []models.ArchiveEntry) error
	Query(ctx context.Context, runID string, limit int) ([]models.ArchiveEntry, error)
	Health(ctx context.Context) error
	Close() error
}

// Snapshot keeps the latest archive of a run in a shared cache.
type Snapshot interface {
	Save(ctx context.Context, runID string, entries []models.ArchiveEntry) error
	Load(ctx context.Context, runID string) ([]models.ArchiveEntry, error)
}

type Metrics interface {
	RecordEvaluation(outcome string, fitness float64)
	RecordArchiveSize(n int)
	RecordBestFitness(f float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
