package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics collects HTTP and service-level counters for the /metrics endpoint.
type metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	streamsStarted  prometheus.Counter
	streamsStopped  prometheus.Counter
	saveAttempts    *prometheus.CounterVec
	pagesLoaded     prometheus.Counter
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	m := &metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skripsihub",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "skripsihub",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		streamsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "skripsihub",
			Subsystem: "chat",
			Name:      "streams_started_total",
			Help:      "Chat streams accepted.",
		}),
		streamsStopped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "skripsihub",
			Subsystem: "chat",
			Name:      "streams_stopped_total",
			Help:      "Stop requests issued against in-flight streams.",
		}),
		saveAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skripsihub",
			Subsystem: "document",
			Name:      "save_attempts_total",
			Help:      "Document save attempts by outcome.",
		}, []string{"outcome"}),
		pagesLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "skripsihub",
			Subsystem: "messages",
			Name:      "pages_loaded_total",
			Help:      "Older history pages spliced into windows.",
		}),
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.streamsStarted,
		m.streamsStopped,
		m.saveAttempts,
		m.pagesLoaded,
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := "unknown"
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		rec := &responseRecorder{writer: w}
		timer := prometheus.NewTimer(m.requestDuration.WithLabelValues(r.Method, route))
		next.ServeHTTP(rec, r)
		timer.ObserveDuration()
		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	})
}
