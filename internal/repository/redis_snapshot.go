package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"ARMTS/internal/domain/models"
	"ARMTS/internal/domain/repository"
	"ARMTS/pkg/cache"
)

// ErrSnapshotNotFound is returned by Load when no snapshot exists for a run.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// CacheSnapshot stores the archive of a run as one hash (field = rule key, value = JSON entry)
// and remembers the latest run id.
type CacheSnapshot struct {
	c   cache.Service
	ttl time.Duration
}

// NewCacheSnapshot creates a snapshot sink over any cache.Service (Redis in production).
func NewCacheSnapshot(c cache.Service, ttl time.Duration) repository.Snapshot {
	return &CacheSnapshot{c: c, ttl: ttl}
}

func runKey(runID string) string { return cache.Key("run", runID, "rules") }

const latestKey = "run:latest"

func (s *CacheSnapshot) Save(ctx context.Context, runID string, entries []models.ArchiveEntry) error {
	fields := make(map[string][]byte, len(entries))
	for _, e := range entries {
		b, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode entry %s: %w", e.Key, err)
		}
		fields[e.Key] = b
	}
	if err := s.c.ReplaceHash(ctx, runKey(runID), fields, s.ttl); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if err := s.c.Set(ctx, latestKey, []byte(runID), s.ttl); err != nil {
		return fmt.Errorf("save latest run: %w", err)
	}
	return nil
}

// Load returns the entries of runID, fitness descending. An empty runID loads the latest run.
func (s *CacheSnapshot) Load(ctx context.Context, runID string) ([]models.ArchiveEntry, error) {
	if runID == "" {
		b, err := s.c.Get(ctx, latestKey)
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrSnapshotNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("load latest run: %w", err)
		}
		runID = string(b)
	}
	fields, err := s.c.GetHash(ctx, runKey(runID))
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	out := make([]models.ArchiveEntry, 0, len(fields))
	for key, raw := range fields {
		var e models.ArchiveEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("decode entry %s: %w", key, err)
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Fitness != out[j].Fitness {
			return out[i].Fitness > out[j].Fitness
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}
