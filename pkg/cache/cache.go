package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service is the key/value and hash surface the snapshot sink needs.
// Keys passed in are unprefixed; implementations apply their own namespace.
type Service interface {
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	// ReplaceHash atomically swaps the whole hash at key for fields.
	ReplaceHash(ctx context.Context, key string, fields map[string][]byte, expiration time.Duration) error
	GetHash(ctx context.Context, key string) (map[string][]byte, error)
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Key joins parts with ':'.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
