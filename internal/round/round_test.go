package round

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/techroy23/Socksy-Dashboard/internal/stats"
	"github.com/techroy23/Socksy-Dashboard/internal/storage"
)

// scriptedProber returns canned outcomes and tracks concurrency.
type scriptedProber struct {
	outcomes map[string]stats.Outcome

	mu          sync.Mutex
	calls       map[string]int
	inFlight    int
	maxInFlight int
}

func newScriptedProber() *scriptedProber {
	return &scriptedProber{
		outcomes: make(map[string]stats.Outcome),
		calls:    make(map[string]int),
	}
}

func (p *scriptedProber) Probe(ctx context.Context, endpoint string) stats.Outcome {
	p.mu.Lock()
	p.calls[endpoint]++
	p.inFlight++
	if p.inFlight > p.maxInFlight {
		p.maxInFlight = p.inFlight
	}
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inFlight--
		p.mu.Unlock()
	}()

	if out, ok := p.outcomes[endpoint]; ok {
		return out
	}
	return stats.Outcome{Address: endpoint}
}

func TestCoordinator_EmptyInputTouchesNothing(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	coord := NewCoordinator(newScriptedProber(), NewRecorder(store, nil), 4, nil)

	coord.Run(ctx, nil)

	all, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("empty round mutated the store: %v", all)
	}
}

func TestCoordinator_RecordsEveryEndpointOnce(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	prober := newScriptedProber()

	endpoints := []string{
		"socks5://a.example:1080",
		"socks5://b.example:1080",
		"socks5://c.example:1080",
		"socks5://d.example:1080",
		"socks5://e.example:1080",
	}
	prober.outcomes[endpoints[0]] = stats.Outcome{Address: endpoints[0], Success: true, IP: "1.1.1.1", RTTMs: 5}
	prober.outcomes[endpoints[2]] = stats.Outcome{Address: endpoints[2], Success: true, IP: "2.2.2.2", RTTMs: 7}

	coord := NewCoordinator(prober, NewRecorder(store, nil), 2, nil)
	coord.Run(ctx, endpoints)

	for _, ep := range endpoints {
		if prober.calls[ep] != 1 {
			t.Fatalf("endpoint %s probed %d times, want 1", ep, prober.calls[ep])
		}
	}

	all, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != len(endpoints) {
		t.Fatalf("store holds %d records, want %d", len(all), len(endpoints))
	}
	for _, rec := range all {
		if rec.Total != 1 {
			t.Fatalf("record %s has total=%d, want 1", rec.Address, rec.Total)
		}
	}
}

func TestCoordinator_BoundsConcurrency(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	prober := newScriptedProber()

	var endpoints []string
	for _, c := range "abcdefghijklmnop" {
		endpoints = append(endpoints, "socks5://"+string(c)+".example:1080")
	}

	const pool = 3
	coord := NewCoordinator(prober, NewRecorder(store, nil), pool, nil)
	coord.Run(ctx, endpoints)

	if prober.maxInFlight > pool {
		t.Fatalf("observed %d in-flight probes, pool size is %d", prober.maxInFlight, pool)
	}
}

// failingProber always reports failure; the round must still visit every
// endpoint.
type failingProber struct {
	probed atomic.Int64
}

func (p *failingProber) Probe(ctx context.Context, endpoint string) stats.Outcome {
	p.probed.Add(1)
	return stats.Outcome{Address: endpoint, Success: false}
}

func TestCoordinator_FailuresDoNotShortCircuit(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	prober := &failingProber{}

	endpoints := []string{
		"socks5://a.example:1080",
		"socks5://b.example:1080",
		"socks5://c.example:1080",
	}
	coord := NewCoordinator(prober, NewRecorder(store, nil), 2, nil)
	coord.Run(ctx, endpoints)

	if got := prober.probed.Load(); got != int64(len(endpoints)) {
		t.Fatalf("probed %d endpoints, want %d", got, len(endpoints))
	}

	all, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	for _, rec := range all {
		if rec.Passed != 0 || rec.Total != 1 {
			t.Fatalf("record %s = %d/%d, want 0/1", rec.Address, rec.Passed, rec.Total)
		}
		if rec.LastIP != nil || rec.RTTMs != nil {
			t.Fatalf("failure left last-success fields set: %+v", rec)
		}
	}
}
