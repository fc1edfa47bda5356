// Package metrics exposes Prometheus collectors for source queries, live
// changes, view recomputes and HTTP traffic.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fieldworks/sitetrack/internal/source"
)

const namespace = "sitetrack"

// Metrics holds every sitetrack collector. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	queries       *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	changes       *prometheus.CounterVec
	recomputes    *prometheus.CounterVec
	records       *prometheus.GaugeVec
	requests      *prometheus.CounterVec
}

// MustNewMetrics registers the collectors with reg, reusing collectors that
// are already registered. Other registration errors panic. A nil reg means
// the default registerer.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Metrics{
		queries: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "queries_total",
			Help:      "Source queries by outcome.",
		}, []string{"source", "table", "result"})),
		queryDuration: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "query_duration_seconds",
			Help:      "Time spent in source queries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source", "table"})),
		changes: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "changes_total",
			Help:      "Live row changes applied per page.",
		}, []string{"page", "type"})),
		recomputes: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recomputes_total",
			Help:      "View rebuilds per page.",
		}, []string{"page"})),
		records: register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records",
			Help:      "Records currently held per page.",
		}, []string{"page"})),
		requests: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"})),
	}
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// ObserveQuery records one source query. Failures are labeled by whether the
// source was unreachable or the query was canceled.
func (m *Metrics) ObserveQuery(src, table string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(src, table, queryResult(err)).Inc()
	m.queryDuration.WithLabelValues(src, table).Observe(d.Seconds())
}

func queryResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, source.ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// IncChange counts one applied row change.
func (m *Metrics) IncChange(page string, t source.ChangeType) {
	if m == nil {
		return
	}
	m.changes.WithLabelValues(page, string(t)).Inc()
}

// ObserveRecompute counts a view rebuild and records the page size.
func (m *Metrics) ObserveRecompute(page string, records int, _ time.Duration) {
	if m == nil {
		return
	}
	m.recomputes.WithLabelValues(page).Inc()
	m.records.WithLabelValues(page).Set(float64(records))
}

// ObserveRequest counts one HTTP request.
func (m *Metrics) ObserveRequest(route string, code int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Handler serves the metrics gathered by g. A nil g means the default
// gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
