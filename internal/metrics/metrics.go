package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Collector struct {
	// Probe metrics
	probesTotal   *prometheus.CounterVec
	probeDuration prometheus.Histogram

	// Round metrics
	roundsTotal    prometheus.Counter
	roundDuration  prometheus.Histogram
	trackedProxies prometheus.Gauge

	// Store metrics
	storeConflicts prometheus.Counter
	storeFailures  prometheus.Counter

	// API metrics
	apiRequests *prometheus.CounterVec
	apiDuration *prometheus.HistogramVec
}

func NewCollector(namespace string) *Collector {
	c := &Collector{
		probesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "probes_total",
				Help:      "Total number of proxy probes by result",
			},
			[]string{"result"},
		),
		probeDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "probe_duration_seconds",
				Help:      "Proxy probe duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2, 4, 8, 16},
			},
		),
		roundsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rounds_total",
				Help:      "Total number of completed probe rounds",
			},
		),
		roundDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "round_duration_seconds",
				Help:      "Probe round duration in seconds",
				Buckets:   []float64{.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
		trackedProxies: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tracked_proxies",
				Help:      "Number of proxies probed in the last round",
			},
		),
		storeConflicts: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_conflicts_total",
				Help:      "Total number of optimistic write conflicts retried",
			},
		),
		storeFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_failures_total",
				Help:      "Total number of record attempts that failed permanently",
			},
		),
		apiRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		apiDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
	}

	return c
}

// All Record methods are nil-safe so callers can run without metrics.

func (c *Collector) RecordProbeSuccess() {
	if c == nil {
		return
	}
	c.probesTotal.WithLabelValues("success").Inc()
}

func (c *Collector) RecordProbeFailure() {
	if c == nil {
		return
	}
	c.probesTotal.WithLabelValues("failure").Inc()
}

func (c *Collector) RecordProbeDuration(seconds float64) {
	if c == nil {
		return
	}
	c.probeDuration.Observe(seconds)
}

func (c *Collector) RecordRound(seconds float64, proxies int) {
	if c == nil {
		return
	}
	c.roundsTotal.Inc()
	c.roundDuration.Observe(seconds)
	c.trackedProxies.Set(float64(proxies))
}

func (c *Collector) RecordStoreConflict() {
	if c == nil {
		return
	}
	c.storeConflicts.Inc()
}

func (c *Collector) RecordStoreFailure() {
	if c == nil {
		return
	}
	c.storeFailures.Inc()
}

func (c *Collector) RecordAPIRequest(method, endpoint, status string) {
	if c == nil {
		return
	}
	c.apiRequests.WithLabelValues(method, endpoint, status).Inc()
}

func (c *Collector) RecordAPIDuration(method, endpoint string, seconds float64) {
	if c == nil {
		return
	}
	c.apiDuration.WithLabelValues(method, endpoint).Observe(seconds)
}
