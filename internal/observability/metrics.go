package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	importRows      *prometheus.CounterVec
	importRuns      *prometheus.CounterVec
	fieldsCreated   prometheus.Counter
}

// NewMetrics initialises the registry and base collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "aisecretary_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aisecretary_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	importRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "aisecretary_import_rows_total",
		Help: "Client import rows by result (imported, failed, dropped).",
	}, []string{"result"})
	importRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "aisecretary_import_runs_total",
		Help: "Finished client imports by outcome.",
	}, []string{"outcome"})
	fieldsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aisecretary_import_custom_fields_created_total",
		Help: "Custom fields auto-created from import headers.",
	})
	registry.MustRegister(requests, duration, importRows, importRuns, fieldsCreated)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		importRows:      importRows,
		importRuns:      importRuns,
		fieldsCreated:   fieldsCreated,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveImport records the counters of one finished import.
func (m *Metrics) ObserveImport(outcome string, imported, failed, dropped int) {
	if m == nil {
		return
	}
	m.importRows.WithLabelValues("imported").Add(float64(imported))
	m.importRows.WithLabelValues("failed").Add(float64(failed))
	m.importRows.WithLabelValues("dropped").Add(float64(dropped))
	m.importRuns.WithLabelValues(outcome).Inc()
}

// ObserveFieldsCreated records custom fields created from import headers.
func (m *Metrics) ObserveFieldsCreated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.fieldsCreated.Add(float64(n))
}

// Registerer exposes the registry for custom collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
