// Package metrics exposes Prometheus collectors for the API and the bill
// engine.
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

const namespace = "finny"

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	billsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bills",
			Name:      "created_total",
			Help:      "Bill occurrences written, by series kind",
		},
		[]string{"kind"},
	)
	billsPaid = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bills",
			Name:      "paid_total",
			Help:      "Bills marked paid",
		},
	)
	billsReopened = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bills",
			Name:      "reopened_total",
			Help:      "Paid bills set back to pending after their payment was deleted",
		},
	)
	billsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bills",
			Name:      "deleted_total",
			Help:      "Bill occurrences deleted, cascades included",
		},
	)
	partialFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bills",
			Name:      "partial_failures_total",
			Help:      "Multi-write bill operations that stopped after committing some writes",
		},
		[]string{"op", "step"},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latencies labelled by chi route
// pattern, so path parameters do not explode the label set.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		status := strconv.Itoa(ww.Status())
		httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
	})
}

func BillsCreated(kind string, n int) {
	billsCreated.WithLabelValues(kind).Add(float64(n))
}

func BillPaid() {
	billsPaid.Inc()
}

func BillReopened() {
	billsReopened.Inc()
}

func BillsDeleted(n int) {
	billsDeleted.Add(float64(n))
}

func PartialFailure(op, step string) {
	partialFailures.WithLabelValues(op, step).Inc()
}
