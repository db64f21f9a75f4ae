package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CanvasLookupsTotal tracks canvas lookups by outcome (hit, miss, not_found, error).
	CanvasLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "canvas_lookups_total",
			Help: "Total number of canvas lookups by outcome.",
		},
		[]string{"outcome"},
	)

	// TokenMintsTotal tracks bearer token mints against the upstream API by result.
	TokenMintsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_mints_total",
			Help: "Total number of bearer token mints by result (ok, error).",
		},
		[]string{"result"},
	)

	// SecretRefreshesTotal tracks secret table refreshes by result.
	SecretRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secret_refreshes_total",
			Help: "Total number of OTP secret refreshes by result (rotated, unchanged, error).",
		},
		[]string{"result"},
	)

	// CacheErrorsTotal tracks cache store failures by operation.
	CacheErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_errors_total",
			Help: "Number of cache store failures by operation.",
		},
		[]string{"op"},
	)

	// UpstreamRequestDuration measures the duration of upstream API calls.
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Duration of upstream API requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms → ~16s
		},
		[]string{"endpoint"},
	)
)

// IncCanvasLookup increments the canvas lookup counter for the given outcome.
func IncCanvasLookup(outcome string) {
	CanvasLookupsTotal.WithLabelValues(outcome).Inc()
}

// IncTokenMint increments the token mint counter for the given result.
func IncTokenMint(result string) {
	TokenMintsTotal.WithLabelValues(result).Inc()
}

// IncSecretRefresh increments the secret refresh counter for the given result.
func IncSecretRefresh(result string) {
	SecretRefreshesTotal.WithLabelValues(result).Inc()
}

// IncCacheError increments the cache error counter for the given operation.
func IncCacheError(op string) {
	CacheErrorsTotal.WithLabelValues(op).Inc()
}

// ObserveUpstream records elapsed time since start for an upstream endpoint.
func ObserveUpstream(endpoint string, start time.Time) {
	UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
