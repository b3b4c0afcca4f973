// internal/app/system/metrics/metrics.go

// Package metrics holds the Prometheus collectors for stratasim.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes used as the "outcome" label.
const (
	OutcomeSuccess      = "success"
	OutcomeBackendError = "backend_error"
	OutcomeTransport    = "transport_error"
	OutcomeRejected     = "rejected"
	OutcomeBusy         = "busy"
)

var (
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stratasim_runs_total",
		Help: "Simulation runs by outcome",
	}, []string{"outcome"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stratasim_run_duration_seconds",
		Help:    "Round trip to the simulation backend for successful runs",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
	})

	RejectedEdits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stratasim_rejected_edits_total",
		Help: "Parameter edits rejected by validation",
	}, []string{"field"})

	ActiveWorkbenches = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stratasim_workbenches_active",
		Help: "Workbenches held by the in-memory store",
	})

	HistoryWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stratasim_history_write_failures_total",
		Help: "Completed runs that could not be recorded in the history",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stratasim_http_requests_total",
		Help: "HTTP requests by route and status",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stratasim_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// ObserveRun records one finished run.
func ObserveRun(outcome string, d time.Duration) {
	RunsTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess {
		RunDuration.Observe(d.Seconds())
	}
}

// ObserveRejectedEdit records one rejected parameter edit.
func ObserveRejectedEdit(field string) {
	RejectedEdits.WithLabelValues(field).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latencies labelled by the chi route
// pattern, so ids in paths do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
