// Package metrics exposes offline cache activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the Prometheus implementation of the cache's metrics hooks.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	reads         *prometheus.CounterVec
	expirations   prometheus.Counter
	storeFailures *prometheus.CounterVec
	fetches       *prometheus.CounterVec
	replays       *prometheus.CounterVec
	queueDepth    prometheus.Gauge
	online        prometheus.Gauge
}

// NewRegistry returns a registry preloaded with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return reg
}

// Handler serves the metrics gathered by reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// New registers the cache metrics with reg.
//
// Returns nil if reg is nil; callers can pass the result straight to the
// cache options, which results in zero overhead.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		return nil
	}

	return &Recorder{
		reads: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "offcache_reads_total",
				Help: "Total number of cache reads by result",
			},
			[]string{"result"}, // "hit", "miss"
		),
		expirations: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "offcache_expirations_total",
				Help: "Total number of entries evicted because they were found expired on read",
			},
		),
		storeFailures: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "offcache_store_failures_total",
				Help: "Total number of swallowed persistent store failures by operation",
			},
			[]string{"op"},
		),
		fetches: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "offcache_fetches_total",
				Help: "Total number of read-through fetches by the source that served them",
			},
			[]string{"source"}, // "network", "cache", "stale_cache", "error"
		),
		replays: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "offcache_replays_total",
				Help: "Total number of queued action replays by result",
			},
			[]string{"result"}, // "ok", "failed", "dead_letter"
		),
		queueDepth: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "offcache_queue_depth",
				Help: "Number of pending offline actions",
			},
		),
		online: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "offcache_online",
				Help: "1 when the network is reachable, 0 otherwise",
			},
		),
	}
}

// ObserveRead records a cache read.
func (r *Recorder) ObserveRead(hit bool) {
	if r == nil {
		return
	}

	result := "miss"
	if hit {
		result = "hit"
	}

	r.reads.WithLabelValues(result).Inc()
}

// ObserveExpired records a lazy eviction.
func (r *Recorder) ObserveExpired() {
	if r == nil {
		return
	}

	r.expirations.Inc()
}

// ObserveStoreFailure records a store failure for op.
func (r *Recorder) ObserveStoreFailure(op string) {
	if r == nil {
		return
	}

	r.storeFailures.WithLabelValues(op).Inc()
}

// ObserveFetch records which source served a read-through fetch.
func (r *Recorder) ObserveFetch(source string) {
	if r == nil {
		return
	}

	r.fetches.WithLabelValues(source).Inc()
}

// ObserveReplay records the result of one action replay.
func (r *Recorder) ObserveReplay(result string) {
	if r == nil {
		return
	}

	r.replays.WithLabelValues(result).Inc()
}

// SetQueueDepth records the current number of pending actions.
func (r *Recorder) SetQueueDepth(n int) {
	if r == nil {
		return
	}

	r.queueDepth.Set(float64(n))
}

// SetOnline records the reachability state.
func (r *Recorder) SetOnline(online bool) {
	if r == nil {
		return
	}

	v := 0.0
	if online {
		v = 1
	}

	r.online.Set(v)
}
