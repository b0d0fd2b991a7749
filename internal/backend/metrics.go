package backend

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifesync_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lifesync_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	feedbackFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lifesync_feedback_fallbacks_total",
			Help: "Feedback requests answered by the rule engine after a model failure",
		},
	)

	reportsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lifesync_reports_created_total",
			Help: "Guest reports generated",
		},
	)
)

// RegisterMetrics registers the backend collectors. Call once at startup.
func RegisterMetrics() {
	prometheus.MustRegister(requestCounter, requestDuration, feedbackFallbacks, reportsCreated)
}

// MetricsMiddleware records per-route request counts and latencies.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			// The route pattern is only known after routing.
			endpoint := chi.RouteContext(r.Context()).RoutePattern()
			if endpoint == "" {
				endpoint = "unmatched"
			}
			requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(ww.Status())).Inc()
			requestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
		})
	}
}

// MetricsHandler serves the Prometheus scrape endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
