// Package metrics provides Prometheus metrics for the nebula server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nebula_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nebula_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Snapshot metrics
	snapshotsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nebula_snapshots_total",
			Help: "Total snapshot runs by outcome",
		},
		[]string{"status"},
	)

	snapshotEntries = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nebula_snapshot_entries",
			Help:    "Number of entries captured per successful snapshot",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	snapshotPagesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nebula_snapshot_pages_written_total",
			Help: "Total snapshot page files written",
		},
	)

	// Keyword metrics
	keywordExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nebula_keyword_extractions_total",
			Help: "Total keyword extraction requests by outcome",
		},
		[]string{"status"},
	)

	keywordExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nebula_keyword_extraction_duration_seconds",
			Help:    "Keyword extraction duration in seconds, model loading included",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric. path should be the route
// pattern, not the raw URL.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordSnapshot records the outcome of one snapshot run.
func RecordSnapshot(success bool, entries, pages int) {
	if !success {
		snapshotsTotal.WithLabelValues(StatusError).Inc()
		return
	}
	snapshotsTotal.WithLabelValues(StatusSuccess).Inc()
	snapshotEntries.Observe(float64(entries))
	snapshotPagesWritten.Add(float64(pages))
}

// RecordKeywordExtraction records one keyword extraction.
func RecordKeywordExtraction(success bool, duration time.Duration) {
	status := StatusSuccess
	if !success {
		status = StatusError
	}
	keywordExtractionsTotal.WithLabelValues(status).Inc()
	keywordExtractionDuration.Observe(duration.Seconds())
}
