package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gigfin/internal/middleware/trace"
)

// Metrics collects the server's Prometheus metrics on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	entryChanges    *prometheus.CounterVec
	invoiceExports  *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	viewBuild       *prometheus.HistogramVec
	rateLimited     prometheus.Counter
	suspicious      prometheus.Counter
}

// NewMetrics initialises the registry and the server's collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gigfin_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gigfin_http_request_duration_seconds",
			Help:    "HTTP request duration by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		entryChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gigfin_ledger_entry_changes_total",
			Help: "Successful ledger mutations by ledger and operation.",
		}, []string{"ledger", "operation"}),
		invoiceExports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gigfin_invoice_exports_total",
			Help: "Invoice exports by format and result.",
		}, []string{"format", "result"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gigfin_view_cache_lookups_total",
			Help: "Derived view cache lookups by view and result.",
		}, []string{"view", "result"}),
		viewBuild: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gigfin_view_build_duration_seconds",
			Help:    "Time spent computing derived views on a cache miss.",
			Buckets: prometheus.DefBuckets,
		}, []string{"view"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gigfin_http_rate_limited_total",
			Help: "Write requests rejected by the rate limiter.",
		}),
		suspicious: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gigfin_http_suspicious_requests_total",
			Help: "Requests flagged as suspicious.",
		}),
	}
	registry.MustRegister(
		m.requestsTotal, m.requestDuration, m.entryChanges, m.invoiceExports,
		m.cacheLookups, m.viewBuild, m.rateLimited, m.suspicious,
		collectors.NewGoCollector(),
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler serves /metrics.
func (m *Metrics) Handler() http.Handler {
	return m.handler
}

// Registerer exposes the registry for extra collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	return m.registry
}

// Middleware records count and latency per matched route pattern. It must
// wrap the ServeMux directly so r.Pattern is visible after the call.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := trace.NewRecorder(w)
		next.ServeHTTP(rec, r)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(rec.Status())).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) entryChanged(ledger, op string) {
	m.entryChanges.WithLabelValues(ledger, op).Inc()
}

func (m *Metrics) invoiceExported(format string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.invoiceExports.WithLabelValues(format, result).Inc()
}

func (m *Metrics) cacheLookup(view string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(view, result).Inc()
}

func (m *Metrics) observeBuild(view string, d time.Duration) {
	m.viewBuild.WithLabelValues(view).Observe(d.Seconds())
}
