// Package round coordinates probe rounds: bounded fan-out of one probe per
// endpoint, with every outcome folded into the stats store before the round
// is considered complete.
package round

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/techroy23/Socksy-Dashboard/internal/metrics"
	"github.com/techroy23/Socksy-Dashboard/internal/stats"
)

// Prober executes one health check. Implementations must be safe for
// concurrent use.
type Prober interface {
	Probe(ctx context.Context, endpoint string) stats.Outcome
}

type Coordinator struct {
	prober   Prober
	recorder *Recorder
	poolSize int
	metrics  *metrics.Collector
}

func NewCoordinator(prober Prober, recorder *Recorder, poolSize int, collector *metrics.Collector) *Coordinator {
	if poolSize < 1 {
		poolSize = 1
	}
	return &Coordinator{
		prober:   prober,
		recorder: recorder,
		poolSize: poolSize,
		metrics:  collector,
	}
}

// Run probes every endpoint exactly once across a fixed-size worker pool
// and blocks until all outcomes have been recorded. Outcomes are recorded
// in completion order. A failing probe never cancels its siblings; record
// errors are logged and counted, not propagated, so the round always
// completes.
func (c *Coordinator) Run(ctx context.Context, endpoints []string) {
	if len(endpoints) == 0 {
		return
	}

	start := time.Now()
	log.Debugf("Starting probe round: %d proxies, pool=%d", len(endpoints), c.poolSize)

	sem := make(chan struct{}, c.poolSize)
	var wg sync.WaitGroup

	for _, endpoint := range endpoints {
		sem <- struct{}{}
		wg.Add(1)

		go func(addr string) {
			defer wg.Done()
			defer func() { <-sem }()

			probeStart := time.Now()
			out := c.prober.Probe(ctx, addr)
			c.metrics.RecordProbeDuration(time.Since(probeStart).Seconds())

			if out.Success {
				c.metrics.RecordProbeSuccess()
			} else {
				c.metrics.RecordProbeFailure()
			}

			if err := c.recorder.Record(ctx, out); err != nil {
				c.metrics.RecordStoreFailure()
				log.Errorf("Failed to record outcome for %s: %v", addr, err)
			}
		}(endpoint)
	}

	wg.Wait()

	duration := time.Since(start)
	c.metrics.RecordRound(duration.Seconds(), len(endpoints))
	log.Infof("Probe round complete: %d proxies in %v", len(endpoints), duration)
}
