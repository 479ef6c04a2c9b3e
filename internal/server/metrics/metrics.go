// Package metrics provides Prometheus metrics for the cloudrive server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RPC metrics
	rpcRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudrive_rpc_requests_total",
			Help: "Total number of gRPC calls",
		},
		[]string{"method", "code"},
	)

	rpcRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cloudrive_rpc_request_duration_seconds",
			Help:    "gRPC call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Content transfer metrics
	contentBytesUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudrive_content_bytes_uploaded_total",
			Help: "Total bytes stored by successful uploads",
		},
	)

	contentBytesDownloaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudrive_content_bytes_downloaded_total",
			Help: "Total bytes streamed to downloaders",
		},
	)

	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudrive_uploads_total",
			Help: "Total number of uploads",
		},
		[]string{"status"},
	)

	downloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudrive_downloads_total",
			Help: "Total number of downloads by grant type",
		},
		[]string{"via", "status"},
	)

	contentRemoveFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudrive_content_remove_failures_total",
			Help: "Content objects that could not be removed and were left orphaned",
		},
	)

	// Tree metrics
	nodesDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudrive_nodes_deleted_total",
			Help: "Total nodes removed, including cascaded descendants",
		},
	)

	// Auth metrics
	authAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudrive_auth_attempts_total",
			Help: "Registration and login attempts",
		},
		[]string{"op", "result"},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cloudrive_active_sessions",
			Help: "Number of live bearer sessions",
		},
	)

	accessDeniedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudrive_access_denied_total",
			Help: "Requests rejected by the access policy",
		},
		[]string{"reason"},
	)

	// Sharing metrics
	sharesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudrive_shares_created_total",
			Help: "Total share links created",
		},
	)

	sharesRevokedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudrive_shares_revoked_total",
			Help: "Total share links revoked by their creator",
		},
	)

	// Sweeper metrics
	sweptTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudrive_swept_total",
			Help: "Items removed by the background sweeper",
		},
		[]string{"kind"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRPC records one finished gRPC call.
func RecordRPC(method, code string, duration time.Duration) {
	rpcRequestsTotal.WithLabelValues(method, code).Inc()
	rpcRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func RecordUpload(bytes int64, success bool) {
	if success {
		contentBytesUploaded.Add(float64(bytes))
	}
	uploadsTotal.WithLabelValues(status(success)).Inc()
}

// RecordDownload counts a download granted by "owner" or "share".
func RecordDownload(via string, success bool) {
	downloadsTotal.WithLabelValues(via, status(success)).Inc()
}

func AddBytesDownloaded(n int64) {
	contentBytesDownloaded.Add(float64(n))
}

func RecordContentRemoveFailure() {
	contentRemoveFailures.Inc()
}

func RecordNodesDeleted(n int) {
	nodesDeletedTotal.Add(float64(n))
}

// RecordAuth counts a "register" or "login" attempt with its result label.
func RecordAuth(op, result string) {
	authAttemptsTotal.WithLabelValues(op, result).Inc()
}

func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

// RecordDenied counts an "unauthorized" or "forbidden" rejection.
func RecordDenied(reason string) {
	accessDeniedTotal.WithLabelValues(reason).Inc()
}

func RecordShareCreated() {
	sharesCreatedTotal.Inc()
}

func RecordShareRevoked() {
	sharesRevokedTotal.Inc()
}

// RecordSwept counts n items of kind ("shares", "sessions", "content")
// removed by one sweep.
func RecordSwept(kind string, n int) {
	if n > 0 {
		sweptTotal.WithLabelValues(kind).Add(float64(n))
	}
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
