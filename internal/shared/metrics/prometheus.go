package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Business metrics
	fusionRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fusion_requests_total",
			Help: "Total number of multi-modal fusion requests",
		},
		[]string{"primary_intent"},
	)

	fusionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fusion_duration_seconds",
			Help:    "End-to-end fusion processing duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	modalityFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modality_failures_total",
			Help: "Total number of degraded per-modality processing results",
		},
		[]string{"modality"},
	)

	intentsRecognizedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intents_recognized_total",
			Help: "Total number of recognized primary intents",
		},
		[]string{"intent"},
	)

	bridgeFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medical_bridge_fallbacks_total",
			Help: "Total number of medical-analysis bridge fallback responses",
		},
	)

	bridgeRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "medical_bridge_request_duration_seconds",
			Help:    "Medical-analysis bridge request duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	analysesStartedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genomic_analyses_started_total",
			Help: "Total number of genomic analyses started",
		},
		[]string{"type"},
	)

	analysesCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genomic_analyses_completed_total",
			Help: "Total number of genomic analyses finished",
		},
		[]string{"type", "status"},
	)

	// Database metrics
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware creates HTTP metrics middleware
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath caps path cardinality for metrics labels
func normalizePath(path string) string {
	if len(path) > 100 {
		return "/api/..."
	}
	return path
}

// --- Business metric helpers ---

// RecordFusionRequest records a completed fusion request
func RecordFusionRequest(primaryIntent string, duration time.Duration) {
	fusionRequestsTotal.WithLabelValues(primaryIntent).Inc()
	fusionDuration.Observe(duration.Seconds())
}

// RecordModalityFailure records a degraded per-modality result
func RecordModalityFailure(modality string) {
	modalityFailuresTotal.WithLabelValues(modality).Inc()
}

// RecordIntentRecognized records a recognized primary intent
func RecordIntentRecognized(intent string) {
	intentsRecognizedTotal.WithLabelValues(intent).Inc()
}

// RecordBridgeFallback records a medical-analysis bridge fallback
func RecordBridgeFallback() {
	bridgeFallbacksTotal.Inc()
}

// RecordBridgeRequest records a medical-analysis bridge round trip
func RecordBridgeRequest(duration time.Duration) {
	bridgeRequestDuration.Observe(duration.Seconds())
}

// RecordAnalysisStarted records a genomic analysis start
func RecordAnalysisStarted(analysisType string) {
	analysesStartedTotal.WithLabelValues(analysisType).Inc()
}

// RecordAnalysisCompleted records a genomic analysis finish
func RecordAnalysisCompleted(analysisType, status string) {
	analysesCompletedTotal.WithLabelValues(analysisType, status).Inc()
}

// RecordDBQuery records a database query duration
func RecordDBQuery(operation string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
