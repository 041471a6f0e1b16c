// Package metrics exposes the prometheus collectors shared by the session
// daemon and the session list manager.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector on its own registry.
type Metrics struct {
	// RequestsTotal counts served requests by transport, method and result code.
	RequestsTotal *prometheus.CounterVec
	// RequestDuration observes served request latency by transport and method.
	RequestDuration *prometheus.HistogramVec
	// ListFailures counts session lists the served source failed to produce.
	ListFailures prometheus.Counter

	registry *prometheus.Registry
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sessiontab",
			Name:      "requests_total",
			Help:      "Total number of session requests served",
		},
		[]string{"transport", "method", "code"},
	)

	m.RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sessiontab",
			Name:      "request_duration_seconds",
			Help:      "Duration of served session requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"transport", "method"},
	)

	m.ListFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sessiontab",
			Name:      "list_failures_total",
			Help:      "Total number of failed session list fetches",
		},
	)

	m.registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.ListFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Observe records one served request.
func (m *Metrics) Observe(transport, method, code string, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(transport, method, code).Inc()
	m.RequestDuration.WithLabelValues(transport, method).Observe(elapsed.Seconds())
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records every request routed through a mux router, labelled by
// its route template so ids do not explode the label set.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		method := r.Method + " " + r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				method = r.Method + " " + tmpl
			}
		}
		m.Observe("http", method, strconv.Itoa(rw.statusCode), time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
