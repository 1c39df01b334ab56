// Package metrics holds the Prometheus collectors for the service.
//
//	r.Use(metrics.Middleware)
//	r.Handle("/metrics", metrics.Handler())
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "emenu"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	OrdersPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "placed_total",
			Help:      "Orders that reached the complete state.",
		},
		[]string{"payment_type"}, // "full" | "partial"
	)

	OrdersRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "rejected_total",
			Help:      "Order submissions rejected by validation.",
		},
		[]string{"reason"},
	)

	RemoteWriteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "remote_write_failures_total",
		Help:      "Orders kept locally because the remote write failed.",
	})

	OrderNumbers = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "counter",
		Name:      "allocations_total",
		Help:      "Order numbers handed out by the counter.",
	})

	CounterRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "counter",
		Name:      "retries_total",
		Help:      "Counter transactions retried after a conflicting write.",
	})

	MenuSnapshots = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "menu",
		Name:      "snapshots_total",
		Help:      "Menu snapshots received from the live query.",
	})

	MenuFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "menu",
		Name:      "fallbacks_total",
		Help:      "Menu renders served from the local cache after a subscription error.",
	})

	AdminAuthRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admin",
			Name:      "auth_rejected_total",
			Help:      "Admin requests turned away by the auth middleware.",
		},
		[]string{"reason"},
	)

	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "sessions",
		Name:      "active",
		Help:      "Device sessions held in memory.",
	})
)

var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		RequestDuration,
		OrdersPlaced,
		OrdersRejected,
		RemoteWriteFailures,
		OrderNumbers,
		CounterRetries,
		MenuSnapshots,
		MenuFallbacks,
		AdminAuthRejected,
		ActiveSessions,
	)
}

// Middleware records request duration labelled by the matched chi route
// pattern, keeping label cardinality bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
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
		RequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
