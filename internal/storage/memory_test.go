package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/techroy23/Socksy-Dashboard/internal/stats"
)

func testRecord(addr string) *stats.ProxyStats {
	ip := "5.6.7.8"
	rtt := 42.5
	return &stats.ProxyStats{
		Address: addr,
		Passed:  1,
		Total:   1,
		Percent: 100,
		LastIP:  &ip,
		RTTMs:   &rtt,
		Updated: time.Now().UTC(),
	}
}

func TestMemoryStore_InsertAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if rec, err := store.Get(ctx, "missing"); err != nil || rec != nil {
		t.Fatalf("Get(missing) = %v, %v; want nil, nil", rec, err)
	}

	rec := testRecord("socks5://1.2.3.4:1080")
	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if rec.Version != 1 {
		t.Fatalf("version after insert = %d, want 1", rec.Version)
	}

	got, err := store.Get(ctx, rec.Address)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Total != 1 || got.Version != 1 {
		t.Fatalf("Get = %+v", got)
	}
}

func TestMemoryStore_InsertRace(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first := testRecord("socks5://1.2.3.4:1080")
	if err := store.Put(ctx, first); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// A second writer that read before the insert still holds version 0.
	second := testRecord("socks5://1.2.3.4:1080")
	if err := store.Put(ctx, second); !errors.Is(err, ErrConflict) {
		t.Fatalf("Put with stale create = %v, want ErrConflict", err)
	}
}

func TestMemoryStore_StaleUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	rec := testRecord("socks5://1.2.3.4:1080")
	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}

	stale := *rec
	rec.Total = 2
	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("update: %v", err)
	}

	stale.Total = 99
	if err := store.Put(ctx, &stale); !errors.Is(err, ErrConflict) {
		t.Fatalf("stale update = %v, want ErrConflict", err)
	}

	got, err := store.Get(ctx, rec.Address)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Total != 2 {
		t.Fatalf("lost update: total = %d, want 2", got.Total)
	}
}

func TestMemoryStore_AllAndFlush(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for _, addr := range []string{"socks5://a.example:1080", "socks5://b.example:1080"} {
		if err := store.Put(ctx, testRecord(addr)); err != nil {
			t.Fatalf("Put(%s): %v", addr, err)
		}
	}

	all, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("All returned %d records, want 2", len(all))
	}

	if err := store.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	all, err = store.All(ctx)
	if err != nil {
		t.Fatalf("All after flush: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("All after flush returned %d records, want 0", len(all))
	}
}

func TestNewStore_UnknownType(t *testing.T) {
	if _, err := NewStore("cassandra", ""); err == nil {
		t.Fatal("expected error for unknown storage type")
	}
}
