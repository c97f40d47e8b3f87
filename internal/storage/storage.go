// Package storage persists per-proxy statistics records keyed by endpoint
// address. Backends detect concurrent writes to the same key through the
// record's version counter and report them as ErrConflict instead of
// blocking; callers retry the whole read-modify-write.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/techroy23/Socksy-Dashboard/internal/stats"
)

// ErrConflict is returned by Put when another writer created or modified
// the same address between the caller's Get and Put.
var ErrConflict = errors.New("storage: write conflict")

type Store interface {
	// Get returns the record for addr, or nil when none exists.
	Get(ctx context.Context, addr string) (*stats.ProxyStats, error)

	// Put persists rec. A record with Version 0 is inserted; otherwise the
	// write only succeeds if the stored version still matches, and the
	// persisted version is bumped by one (mirrored into rec on success).
	Put(ctx context.Context, rec *stats.ProxyStats) error

	// All returns every record, unordered.
	All(ctx context.Context) ([]stats.ProxyStats, error)

	// Flush deletes every record.
	Flush(ctx context.Context) error

	Close() error
}

func NewStore(storageType string, path string) (Store, error) {
	switch storageType {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(path)
	case "redis":
		return NewRedisStore(path)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", storageType)
	}
}
