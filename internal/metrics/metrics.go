package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "studio_classifier"

// Metrics owns a private registry. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	foldersTotal    *prometheus.CounterVec
	folderDuration  *prometheus.HistogramVec
	imagesSkipped   prometheus.Counter
	providerCalls   *prometheus.CounterVec
	batchRuns       *prometheus.CounterVec
	foldersInFlight prometheus.Gauge
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		foldersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "folders_total",
			Help:      "Property folders processed by outcome.",
		}, []string{"status"}),
		folderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "folder_duration_seconds",
			Help:      "Time spent classifying one property folder.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"status"}),
		imagesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "images_skipped_total",
			Help:      "Images skipped because they were unsupported, corrupt or too large.",
		}),
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "calls_total",
			Help:      "Classification calls by provider and error code.",
		}, []string{"provider", "code"}),
		batchRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "runs_total",
			Help:      "Batch runs by outcome.",
		}, []string{"status"}),
		foldersInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "folders_in_flight",
			Help:      "Folders currently being classified.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		m.foldersTotal,
		m.folderDuration,
		m.imagesSkipped,
		m.providerCalls,
		m.batchRuns,
		m.foldersInFlight,
		m.httpRequests,
		m.httpLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) StartFolder() {
	if m == nil {
		return
	}
	m.foldersInFlight.Inc()
}

// FinishFolder records one folder outcome
func (m *Metrics) FinishFolder(status string, duration time.Duration, skipped int) {
	if m == nil {
		return
	}
	m.foldersInFlight.Dec()
	m.foldersTotal.WithLabelValues(status).Inc()
	m.folderDuration.WithLabelValues(status).Observe(duration.Seconds())
	if skipped > 0 {
		m.imagesSkipped.Add(float64(skipped))
	}
}

// ObserveProviderCall counts a provider call; code is "ok" on success
func (m *Metrics) ObserveProviderCall(provider, code string) {
	if m == nil {
		return
	}
	if code == "" {
		code = "unknown"
	}
	m.providerCalls.WithLabelValues(provider, code).Inc()
}

func (m *Metrics) ObserveRun(err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.batchRuns.WithLabelValues(status).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware records request counts and latency labelled by chi route pattern
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.httpLatency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
