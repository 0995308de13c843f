// Package telemetry exposes the service's prometheus metrics and the HTTP
// middleware that feeds the request histogram.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesIngested counts accepted posts (counter bumped, record written).
	MessagesIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messagewall_messages_ingested_total",
		Help: "Messages accepted and persisted.",
	})

	// IngestRejected counts refused posts by reason (invalid_json, empty,
	// too_long, method).
	IngestRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messagewall_ingest_rejected_total",
		Help: "Posts rejected before any side effect.",
	}, []string{"reason"})

	// IngestFailures counts posts that failed after validation (store or
	// notifier errors surfaced as 500s).
	IngestFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messagewall_ingest_failures_total",
		Help: "Posts that failed in the persist/notify sequence.",
	})

	// SnapshotRebuilds counts successful snapshot publications.
	SnapshotRebuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messagewall_snapshot_rebuilds_total",
		Help: "Snapshot documents published.",
	})

	// SnapshotFailures counts failed rebuild attempts.
	SnapshotFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messagewall_snapshot_failures_total",
		Help: "Snapshot rebuilds that returned an error.",
	})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "messagewall_http_request_duration_seconds",
		Help:    "HTTP request latency by method, path and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

// Middleware records request durations for every route it wraps.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(srw, r)
		requestDuration.
			WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(srw.status)).
			Observe(time.Since(start).Seconds())
	})
}

// statusRecorder captures the response status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
