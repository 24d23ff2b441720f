package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"safecalc/pkg/checked"
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
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	evaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safecalc_evaluations_total",
			Help: "Expression evaluations by result (ok, failure, error)",
		},
		[]string{"result"},
	)

	failuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safecalc_failures_total",
			Help: "Checked arithmetic failures by operator",
		},
		[]string{"operator"},
	)
)

// Result labels.
const (
	ResultOK      = "ok"
	ResultFailure = "failure"
	ResultError   = "error"
)

// RecordEvaluation counts one evaluation outcome and returns its label.
// A *checked.Error is a failure and also counts its operator.
func RecordEvaluation(err error) string {
	result := ResultOK
	var ce *checked.Error
	switch {
	case err == nil:
	case errors.As(err, &ce):
		result = ResultFailure
		failuresTotal.WithLabelValues(ce.Operator()).Inc()
	default:
		result = ResultError
	}
	evaluationsTotal.WithLabelValues(result).Inc()
	return result
}

// Middleware records HTTP metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(ww.Status())

		// Use the route pattern to keep label cardinality bounded.
		routePattern := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			routePattern = rctx.RoutePattern()
		}
		if routePattern == "" {
			routePattern = r.URL.Path
		}

		httpRequestsTotal.WithLabelValues(r.Method, routePattern, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, routePattern, status).Observe(duration)
	})
}
