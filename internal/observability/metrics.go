// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// API client metrics
	APIRequestsTotal  *prometheus.CounterVec
	APIRetriesTotal   prometheus.Counter
	TokenRefreshTotal prometheus.Counter
	RequestQueueDepth prometheus.Gauge

	// Sync metrics
	SyncRunsTotal      *prometheus.CounterVec
	SyncDuration       *prometheus.HistogramVec
	PlaysIngested      prometheus.Counter
	PlaysSkipped       *prometheus.CounterVec
	BaselinesComputed  prometheus.Counter
	PlayerSyncErrors   prometheus.Counter

	// Leaderboard metrics
	SnapshotsGenerated prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulSync prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "osu_push_tracker"
	}

	return &Metrics{
		// API client metrics
		APIRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of osu! API requests by method and outcome",
		}, []string{"method", "outcome"}),
		APIRetriesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "retries_total",
			Help:      "Total number of osu! API request retries",
		}),
		TokenRefreshTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "token_refreshes_total",
			Help:      "Total number of OAuth token exchanges",
		}),
		RequestQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_queue_depth",
			Help:      "Current number of requests waiting in the serialization queue",
		}),

		// Sync metrics
		SyncRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "runs_total",
			Help:      "Total number of sync runs by kind and status",
		}, []string{"kind", "status"}),
		SyncDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "duration_seconds",
			Help:      "Sync run duration by kind",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"kind"}),
		PlaysIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "plays_ingested_total",
			Help:      "Total number of plays persisted",
		}),
		PlaysSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "plays_skipped_total",
			Help:      "Total number of plays skipped by reason",
		}, []string{"reason"}),
		BaselinesComputed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "baselines_computed_total",
			Help:      "Total number of monthly baselines computed",
		}),
		PlayerSyncErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "player_errors_total",
			Help:      "Total number of per-player sync failures",
		}),

		// Leaderboard metrics
		SnapshotsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "leaderboard",
			Name:      "snapshots_generated_total",
			Help:      "Total number of leaderboard snapshots generated",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration by operation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors by operation",
		}, []string{"operation"}),

		// Health metrics
		LastSuccessfulSync: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_sync_timestamp",
			Help:      "Unix timestamp of last successful sync run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordAPIRequest records a completed osu! API request.
func RecordAPIRequest(method, outcome string) {
	DefaultMetrics.APIRequestsTotal.WithLabelValues(method, outcome).Inc()
}

// RecordAPIRetry increments the API retry counter.
func RecordAPIRetry() {
	DefaultMetrics.APIRetriesTotal.Inc()
}

// RecordTokenRefresh increments the token exchange counter.
func RecordTokenRefresh() {
	DefaultMetrics.TokenRefreshTotal.Inc()
}

// SetRequestQueueDepth updates the serialization queue depth gauge.
func SetRequestQueueDepth(depth int) {
	DefaultMetrics.RequestQueueDepth.Set(float64(depth))
}

// RecordSyncRun records a completed sync run.
func RecordSyncRun(kind, status string, durationSeconds float64) {
	DefaultMetrics.SyncRunsTotal.WithLabelValues(kind, status).Inc()
	DefaultMetrics.SyncDuration.WithLabelValues(kind).Observe(durationSeconds)
	if status == "ok" {
		DefaultMetrics.LastSuccessfulSync.SetToCurrentTime()
	}
}

// RecordPlayIngested increments the plays persisted counter.
func RecordPlayIngested() {
	DefaultMetrics.PlaysIngested.Inc()
}

// RecordPlaySkipped records a skipped play with a reason.
func RecordPlaySkipped(reason string) {
	DefaultMetrics.PlaysSkipped.WithLabelValues(reason).Inc()
}

// RecordBaselineComputed increments the baselines computed counter.
func RecordBaselineComputed() {
	DefaultMetrics.BaselinesComputed.Inc()
}

// RecordPlayerSyncError increments the per-player sync failure counter.
func RecordPlayerSyncError() {
	DefaultMetrics.PlayerSyncErrors.Inc()
}

// RecordSnapshotGenerated increments the leaderboard snapshots counter.
func RecordSnapshotGenerated() {
	DefaultMetrics.SnapshotsGenerated.Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(operation).Inc()
	}
}
