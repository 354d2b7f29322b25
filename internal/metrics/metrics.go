package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CacheOperation identifies the result cache method being instrumented.
type CacheOperation string

const (
	// CacheOperationLookup records result cache lookup calls.
	CacheOperationLookup CacheOperation = "lookup"
	// CacheOperationStore records result cache store attempts.
	CacheOperationStore CacheOperation = "store"
)

// CacheLookupOutcome captures the result of a cache lookup.
type CacheLookupOutcome string

const (
	// CacheLookupHit indicates the lookup reused a cached aggregate.
	CacheLookupHit CacheLookupOutcome = "hit"
	// CacheLookupMiss indicates no cached aggregate was present.
	CacheLookupMiss CacheLookupOutcome = "miss"
	// CacheLookupError indicates the lookup failed due to an error.
	CacheLookupError CacheLookupOutcome = "error"
)

// CacheStoreOutcome captures the result of a cache store attempt.
type CacheStoreOutcome string

const (
	// CacheStoreStored indicates the aggregate entry was persisted.
	CacheStoreStored CacheStoreOutcome = "stored"
	// CacheStoreError indicates the store operation failed.
	CacheStoreError CacheStoreOutcome = "error"
)

// UpstreamOutcome captures the result of a call against the Ziqni platform.
type UpstreamOutcome string

const (
	// UpstreamOK indicates the upstream call completed and was accepted.
	UpstreamOK UpstreamOutcome = "ok"
	// UpstreamError indicates the upstream call failed or was rejected.
	UpstreamError UpstreamOutcome = "error"
)

// Recorder publishes Prometheus metrics for relay activity.
type Recorder struct {
	gatherer prometheus.Gatherer
	handler  http.Handler

	relayRequests *prometheus.CounterVec
	relayLatency  *prometheus.HistogramVec

	cacheOperations *prometheus.CounterVec
	cacheLatency    *prometheus.HistogramVec

	upstreamRequests *prometheus.CounterVec
}

// NewRecorder constructs a Prometheus-backed Recorder. When reg is nil a dedicated
// registry is created so multiple recorders can coexist without conflicting with
// the global default registerer.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	relayRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "comprelay",
		Subsystem: "relay",
		Name:      "requests_total",
		Help:      "Total /check-competitions requests processed by the pipeline.",
	}, []string{"outcome", "status_code", "from_cache"})

	relayLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "comprelay",
		Subsystem: "relay",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for completed /check-competitions requests.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"outcome"})

	cacheOperations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "comprelay",
		Subsystem: "cache",
		Name:      "operations_total",
		Help:      "Result cache operations executed by the pipeline.",
	}, []string{"operation", "result"})

	cacheLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "comprelay",
		Subsystem: "cache",
		Name:      "operation_duration_seconds",
		Help:      "Latency distribution for result cache operations.",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
	}, []string{"operation", "result"})

	upstreamRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "comprelay",
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Calls issued against the competition platform, by call site.",
	}, []string{"call", "outcome"})

	reg.MustRegister(relayRequests, relayLatency, cacheOperations, cacheLatency, upstreamRequests)

	handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	return &Recorder{
		gatherer:         reg,
		handler:          handler,
		relayRequests:    relayRequests,
		relayLatency:     relayLatency,
		cacheOperations:  cacheOperations,
		cacheLatency:     cacheLatency,
		upstreamRequests: upstreamRequests,
	}
}

// Handler exposes the Prometheus HTTP handler for the recorder's registry.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "metrics unavailable", http.StatusServiceUnavailable)
		})
	}
	return r.handler
}

// Gatherer returns the underlying Prometheus gatherer for tests and advanced
// integrations.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.gatherer
}

// ObserveRequest records the outcome and latency for a completed relay request.
func (r *Recorder) ObserveRequest(outcome string, statusCode int, fromCache bool, duration time.Duration) {
	if r == nil {
		return
	}
	outcomeLabel := normalizeLabel(outcome)
	statusLabel := strconv.Itoa(statusCode)
	if statusCode <= 0 {
		statusLabel = "unknown"
	}
	cacheLabel := "false"
	if fromCache {
		cacheLabel = "true"
	}
	r.relayRequests.WithLabelValues(outcomeLabel, statusLabel, cacheLabel).Inc()
	r.relayLatency.WithLabelValues(outcomeLabel).Observe(duration.Seconds())
}

// ObserveCacheLookup records the result of a cache lookup.
func (r *Recorder) ObserveCacheLookup(result CacheLookupOutcome, duration time.Duration) {
	if r == nil {
		return
	}
	resultLabel := string(result)
	if resultLabel == "" {
		resultLabel = string(CacheLookupMiss)
	}
	r.observeCache(CacheOperationLookup, resultLabel, duration)
}

// ObserveCacheStore records the result of a cache store attempt.
func (r *Recorder) ObserveCacheStore(result CacheStoreOutcome, duration time.Duration) {
	if r == nil {
		return
	}
	resultLabel := string(result)
	if resultLabel == "" {
		resultLabel = string(CacheStoreError)
	}
	r.observeCache(CacheOperationStore, resultLabel, duration)
}

// ObserveUpstream records one remote platform call by call site.
func (r *Recorder) ObserveUpstream(call string, outcome UpstreamOutcome) {
	if r == nil {
		return
	}
	outcomeLabel := string(outcome)
	if outcomeLabel == "" {
		outcomeLabel = string(UpstreamError)
	}
	r.upstreamRequests.WithLabelValues(normalizeLabel(call), outcomeLabel).Inc()
}

func (r *Recorder) observeCache(operation CacheOperation, result string, duration time.Duration) {
	opLabel := string(operation)
	if opLabel == "" {
		opLabel = string(CacheOperationLookup)
	}
	resLabel := normalizeLabel(result)
	r.cacheOperations.WithLabelValues(opLabel, resLabel).Inc()
	r.cacheLatency.WithLabelValues(opLabel, resLabel).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
