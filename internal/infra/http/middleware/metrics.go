package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
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
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	followUpsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "followups_processed_total",
			Help: "Total number of follow-ups processed, by outcome",
		},
		[]string{"outcome"},
	)

	followUpBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "followup_batch_duration_seconds",
			Help:    "Duration of dispatcher batch runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	leadScoresComputed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lead_scores_computed_total",
			Help: "Total number of lead scores computed",
		},
	)

	integrationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "integration_errors_total",
			Help: "Total number of integration errors",
		},
		[]string{"service"},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	})
}

func RecordFollowUps(outcome string, count int) {
	followUpsProcessed.WithLabelValues(outcome).Add(float64(count))
}

func RecordBatchDuration(d time.Duration) {
	followUpBatchDuration.Observe(d.Seconds())
}

func RecordLeadScore() {
	leadScoresComputed.Inc()
}

func RecordIntegrationError(service string) {
	integrationErrors.WithLabelValues(service).Inc()
}
