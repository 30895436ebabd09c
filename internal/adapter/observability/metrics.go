package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTPRequestsTotal counts HTTP requests by route, method and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	// HTTPRequestDuration observes request latency by route and method.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	// ResumesEnqueuedTotal counts resumes handed to the processing queue.
	ResumesEnqueuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "resumes_enqueued_total",
			Help: "Total number of resumes enqueued for processing",
		},
	)
	// ResumesProcessing gauges in-flight pipeline runs.
	ResumesProcessing = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "resumes_processing",
			Help: "Number of resumes currently in the processing pipeline",
		},
	)
	// PipelineOutcomesTotal counts terminal pipeline outcomes by status.
	PipelineOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resume_pipeline_outcomes_total",
			Help: "Terminal pipeline outcomes by resume status",
		},
		[]string{"status"},
	)
	// PipelineDuration observes end-to-end pipeline latency per outcome.
	PipelineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resume_pipeline_duration_seconds",
			Help:    "Resume processing duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"status"},
	)

	// MatchRequestsTotal counts match computations.
	MatchRequestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "match_requests_total",
			Help: "Total number of match computations",
		},
	)
	// MatchDuration observes match engine latency.
	MatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "match_duration_seconds",
			Help:    "Match computation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
	)
	// EmbedRequestsTotal counts calls to the embedding backend.
	EmbedRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embed_requests_total",
			Help: "Total number of embedding requests by outcome",
		},
		[]string{"outcome"},
	)
)

var metricsOnce sync.Once

// InitMetrics registers all collectors once per process.
func InitMetrics() {
	metricsOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			ResumesEnqueuedTotal,
			ResumesProcessing,
			PipelineOutcomesTotal,
			PipelineDuration,
			MatchRequestsTotal,
			MatchDuration,
			EmbedRequestsTotal,
		)
	})
}

// StartPipeline marks a pipeline run as in-flight.
func StartPipeline() { ResumesProcessing.Inc() }

// FinishPipeline records a terminal pipeline outcome.
func FinishPipeline(status string, took time.Duration) {
	ResumesProcessing.Dec()
	PipelineOutcomesTotal.WithLabelValues(status).Inc()
	PipelineDuration.WithLabelValues(status).Observe(took.Seconds())
}

// HTTPMetricsMiddleware instruments requests with route-level labels.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
