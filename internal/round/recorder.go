package round

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/techroy23/Socksy-Dashboard/internal/metrics"
	"github.com/techroy23/Socksy-Dashboard/internal/stats"
	"github.com/techroy23/Socksy-Dashboard/internal/storage"
)

// ErrContention is returned by Record when the optimistic retry budget is
// exhausted without a successful write.
var ErrContention = errors.New("record: retry budget exhausted")

const (
	// Retry budget for optimistic write conflicts. Contention on one
	// address only happens when concurrent callers race the same key, so
	// the budget is generous relative to the expected conflict rate but
	// bounded to rule out livelock.
	maxRecordAttempts = 8
	maxRecordElapsed  = 2 * time.Second

	retryBase   = 10 * time.Millisecond
	retryJitter = 20 * time.Millisecond
)

// Recorder folds probe outcomes into the stats store. Each Record is a
// read-modify-write: load (or create) the record for the outcome's address,
// apply the outcome, and persist. A write conflict discards the attempt,
// sleeps a small randomized interval, and restarts from the read.
type Recorder struct {
	store   storage.Store
	metrics *metrics.Collector
}

func NewRecorder(store storage.Store, collector *metrics.Collector) *Recorder {
	return &Recorder{
		store:   store,
		metrics: collector,
	}
}

// Record persists one outcome. Conflicts are retried internally; any other
// storage fault, and retry exhaustion, surface as errors.
func (r *Recorder) Record(ctx context.Context, out stats.Outcome) error {
	deadline := time.Now().Add(maxRecordElapsed)

	for attempt := 0; attempt < maxRecordAttempts; attempt++ {
		rec, err := r.store.Get(ctx, out.Address)
		if err != nil {
			return fmt.Errorf("load %s: %w", out.Address, err)
		}
		if rec == nil {
			rec = stats.New(out.Address)
		}

		stats.Apply(rec, out)

		err = r.store.Put(ctx, rec)
		if err == nil {
			return nil
		}
		if !errors.Is(err, storage.ErrConflict) {
			return fmt.Errorf("persist %s: %w", out.Address, err)
		}

		r.metrics.RecordStoreConflict()
		if time.Now().After(deadline) {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryBase + time.Duration(rand.Int63n(int64(retryJitter)))):
		}
	}

	return fmt.Errorf("record %s: %w", out.Address, ErrContention)
}
