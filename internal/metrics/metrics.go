package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the API
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPActiveConnections *prometheus.GaugeVec

	// Rate limiting metrics
	RateLimitExceededTotal *prometheus.CounterVec
	RateLimitFailOpenTotal *prometheus.CounterVec

	// Upload reassembly metrics
	UploadsCompletedTotal *prometheus.CounterVec
	UploadAssembledBytes  prometheus.Histogram
	UploadChunkCount      prometheus.Histogram

	// Notification metrics
	NotificationsCreatedTotal *prometheus.CounterVec
	NotificationsSweptTotal   prometheus.Counter

	// Governance metrics
	RoleChangesTotal *prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all collectors on the default registry
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "route", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 30},
				},
				[]string{"method", "route", "status"},
			),
			HTTPActiveConnections: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_connections",
					Help: "Number of in-flight HTTP requests",
				},
				[]string{"method", "route"},
			),

			RateLimitExceededTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Requests rejected by the rate limiter",
				},
				[]string{"action"},
			),
			RateLimitFailOpenTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_fail_open_total",
					Help: "Requests allowed because the counter store was unavailable",
				},
				[]string{"action"},
			),

			UploadsCompletedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "uploads_completed_total",
					Help: "Chunked upload completions by outcome",
				},
				[]string{"outcome"},
			),
			UploadAssembledBytes: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "upload_assembled_bytes",
					Help:    "Size of reassembled uploads",
					Buckets: prometheus.ExponentialBuckets(64<<10, 4, 8),
				},
			),
			UploadChunkCount: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "upload_chunk_count",
					Help:    "Number of fragments per completed upload",
					Buckets: prometheus.ExponentialBuckets(1, 2, 10),
				},
			),

			NotificationsCreatedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "notifications_created_total",
					Help: "Notifications written, split into inserted and batched",
				},
				[]string{"type", "mode"},
			),
			NotificationsSweptTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "notifications_swept_total",
					Help: "Expired notifications deleted by the sweeper",
				},
			),

			RoleChangesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "community_role_changes_total",
					Help: "Community role change attempts by outcome",
				},
				[]string{"outcome"},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing it on first use
func Get() *Metrics {
	return Initialize()
}
