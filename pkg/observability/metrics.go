package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the engine
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	cacheLookups  *prometheus.CounterVec
	cacheRebuilds *prometheus.HistogramVec
	linksReplaced prometheus.Counter
	conflicts     prometheus.Counter
	resolutions   *prometheus.CounterVec
	queries       *prometheus.HistogramVec
}

// NewMetrics creates collectors under namespace on a private registry
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Navigation and TOC cache lookups by result",
			},
			[]string{"kind", "result"},
		),
		cacheRebuilds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cache_rebuild_duration_seconds",
				Help:      "Time spent rebuilding cache entries",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind", "status"},
		),
		linksReplaced: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "link_edges_written_total",
				Help:      "Link edges written by graph replacements",
			},
		),
		conflicts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "version_conflicts_total",
				Help:      "Saves rejected for claiming versions owned by another page",
			},
		),
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_total",
				Help:      "Request resolutions by outcome",
			},
			[]string{"kind"},
		),
		queries: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Query bus handler duration",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"query", "status"},
		),
	}

	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.cacheLookups,
		m.cacheRebuilds,
		m.linksReplaced,
		m.conflicts,
		m.resolutions,
		m.queries,
	)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) CacheHit(kind string)  { m.cacheLookups.WithLabelValues(kind, "hit").Inc() }
func (m *Metrics) CacheMiss(kind string) { m.cacheLookups.WithLabelValues(kind, "miss").Inc() }

func (m *Metrics) CacheRebuild(kind string, d time.Duration, err error) {
	m.cacheRebuilds.WithLabelValues(kind, status(err)).Observe(d.Seconds())
}

func (m *Metrics) LinksReplaced(count int) { m.linksReplaced.Add(float64(count)) }
func (m *Metrics) VersionConflict()        { m.conflicts.Inc() }
func (m *Metrics) Resolution(kind string)  { m.resolutions.WithLabelValues(kind).Inc() }

// ObserveQuery records a query bus dispatch
func (m *Metrics) ObserveQuery(queryType string, d time.Duration, err error) {
	m.queries.WithLabelValues(queryType, status(err)).Observe(d.Seconds())
}

// Middleware records request counts and latency per chi route pattern
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
