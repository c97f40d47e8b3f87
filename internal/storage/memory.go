package storage

import (
	"context"
	"sync"

	"github.com/techroy23/Socksy-Dashboard/internal/stats"
)

// MemoryStore is an in-process Store used by tests and as a dependency
// injection seam. It enforces the same version-guard semantics as the
// persistent backends.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]stats.ProxyStats
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]stats.ProxyStats)}
}

func (m *MemoryStore) Get(ctx context.Context, addr string) (*stats.ProxyStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[addr]
	if !ok {
		return nil, nil
	}
	out := rec
	return &out, nil
}

func (m *MemoryStore) Put(ctx context.Context, rec *stats.ProxyStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, exists := m.records[rec.Address]
	if rec.Version == 0 {
		if exists {
			return ErrConflict
		}
	} else if !exists || stored.Version != rec.Version {
		return ErrConflict
	}

	next := *rec
	next.Version = rec.Version + 1
	m.records[rec.Address] = next
	rec.Version = next.Version
	return nil
}

func (m *MemoryStore) All(ctx context.Context) ([]stats.ProxyStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]stats.ProxyStats, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	return out, nil
}

func (m *MemoryStore) Flush(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = make(map[string]stats.ProxyStats)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
