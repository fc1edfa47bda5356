package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/sitetrack/internal/source"
)

func TestObserveQuery(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := MustNewMetrics(reg)

	m.ObserveQuery("postgrest", "shipments", 20*time.Millisecond, nil)
	m.ObserveQuery("postgrest", "shipments", time.Second, source.Unavailable("postgrest", "shipments", errors.New("503")))
	m.ObserveQuery("postgrest", "shipments", time.Second, fmt.Errorf("bad query"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues("postgrest", "shipments", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues("postgrest", "shipments", "unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues("postgrest", "shipments", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.queryDuration))
}

func TestCountersAndGauges(t *testing.T) {
	m := MustNewMetrics(prometheus.NewRegistry())

	m.IncChange("materials", source.Insert)
	m.IncChange("materials", source.Insert)
	m.ObserveRecompute("materials", 42, time.Millisecond)
	m.ObserveRecompute("materials", 41, time.Millisecond)
	m.ObserveRequest("/api/pages/:name", 200)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.changes.WithLabelValues("materials", "INSERT")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.recomputes.WithLabelValues("materials")))
	assert.Equal(t, 41.0, testutil.ToFloat64(m.records.WithLabelValues("materials")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/api/pages/:name", "200")))
}

func TestMustNewMetrics_ReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := MustNewMetrics(reg)
	b := MustNewMetrics(reg)

	a.IncChange("schedule", source.Update)
	assert.Equal(t, 1.0, testutil.ToFloat64(b.changes.WithLabelValues("schedule", "UPDATE")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveQuery("x", "y", 0, nil)
		m.IncChange("p", source.Delete)
		m.ObserveRecompute("p", 1, 0)
		m.ObserveRequest("/", 200)
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustNewMetrics(reg).ObserveRequest("/healthz", 200)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `sitetrack_http_requests_total{code="200",route="/healthz"} 1`)
}
