// AngelaMos | 2026
// metrics.go

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamflix_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streamflix_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "streamflix_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		},
	)

	LifecycleOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamflix_lifecycle_operations_total",
			Help: "Entity lifecycle operations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	LifecycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streamflix_lifecycle_duration_seconds",
			Help:    "Entity lifecycle transaction latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	CascadeRowsDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamflix_cascade_rows_deleted_total",
			Help: "Rows removed by cascading deletes, per table",
		},
		[]string{"table"},
	)

	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamflix_cache_requests_total",
			Help: "Projection cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	SubscriptionsSwept = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamflix_subscriptions_swept_total",
			Help: "Subscriptions whose status was changed by the sweep",
		},
		[]string{"to_status"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamflix_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordLifecycle counts one lifecycle operation. outcome is "ok" or the
// lower-cased error code.
func RecordLifecycle(operation, outcome string, d time.Duration) {
	LifecycleOperations.WithLabelValues(operation, outcome).Inc()
	LifecycleDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func RecordCascade(rowsByTable map[string]int64) {
	for table, n := range rowsByTable {
		if n > 0 {
			CascadeRowsDeleted.WithLabelValues(table).Add(float64(n))
		}
	}
}

func RecordSweep(toStatus string, n int64) {
	if n > 0 {
		SubscriptionsSwept.WithLabelValues(toStatus).Add(float64(n))
	}
}
