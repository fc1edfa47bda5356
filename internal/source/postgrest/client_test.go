package postgrest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/sitetrack/internal/source"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{URL: srv.URL, Key: "anon-key"})
	require.NoError(t, err)
	c.backoff = time.Millisecond
	return c, srv
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Key: "k"})
	assert.ErrorContains(t, err, "url is required")

	_, err = New(Config{URL: "https://x.supabase.co"})
	assert.ErrorContains(t, err, "key is required")

	_, err = New(Config{URL: "not a url", Key: "k"})
	assert.ErrorContains(t, err, "invalid url")
}

func TestQueryURL(t *testing.T) {
	c, err := New(Config{URL: "https://proj.supabase.co/", Key: "k"})
	require.NoError(t, err)

	u, err := c.QueryURL(source.Query{
		Table:   "project_schedule",
		Columns: []string{"activity_id", "finish_date"},
		Eq:      []source.Eq{{Column: "status", Value: "In Progress"}},
		Order:   &source.Order{Column: "start_date", Ascending: true},
		Limit:   100,
	})
	require.NoError(t, err)
	assert.Equal(t,
		"https://proj.supabase.co/rest/v1/project_schedule?limit=100&order=start_date.asc.nullslast&select=activity_id%2Cfinish_date&status=eq.In+Progress",
		u)

	u, err = c.QueryURL(source.Query{Table: "shipments", Order: &source.Order{Column: "delivery_date", NullsFirst: true}})
	require.NoError(t, err)
	assert.Contains(t, u, "order=delivery_date.desc.nullsfirst")
	assert.Contains(t, u, "select=%2A")

	_, err = c.QueryURL(source.Query{Table: "bad table"})
	assert.Error(t, err)
}

func TestQuery_SendsHeadersAndDecodes(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/delivery_dates", r.URL.Path)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		assert.Equal(t, "eq.Acme", r.URL.Query().Get("supplier_name"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":1,"po_number":"PO-100","delivery_date":"2026-03-05"},{"id":2,"po_number":"PO-200","delivery_date":null}]`)
	})

	rows, err := c.Query(context.Background(), source.Query{
		Table: "delivery_dates",
		Eq:    []source.Eq{{Column: "supplier_name", Value: "Acme"}},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1", source.RowID(rows[0]))
	assert.Equal(t, "PO-100", rows[0].Str("po_number"))
	assert.Nil(t, rows[1]["delivery_date"])
}

func TestQuery_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	var mu sync.Mutex
	var ids []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		ids = append(ids, r.Header.Get("X-Request-Id"))
		mu.Unlock()
		if calls.Add(1) < 3 {
			http.Error(w, "upstream timeout", http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	})

	rows, err := c.Query(context.Background(), source.Query{Table: "shipments"})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, int32(3), calls.Load())
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, ids, 3)
	assert.Equal(t, ids[0], ids[2], "retries reuse the request id")
}

func TestQuery_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Query(context.Background(), source.Query{Table: "shipments"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, source.ErrUnavailable))
	assert.Contains(t, err.Error(), "HTTP 502")
	assert.Equal(t, int32(maxAttempts), calls.Load())
}

func TestQuery_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"relation does not exist"}`)
	})

	_, err := c.Query(context.Background(), source.Query{Table: "nope"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, source.ErrUnavailable))
	assert.Contains(t, err.Error(), "relation does not exist")
	assert.Equal(t, int32(1), calls.Load())
}

func TestQuery_BadJSON(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"not":"an array"`)
	})
	_, err := c.Query(context.Background(), source.Query{Table: "shipments"})
	assert.ErrorContains(t, err, "decode response")
}

func TestQuery_ContextCanceled(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Query(ctx, source.Query{Table: "shipments"})
	assert.True(t, errors.Is(err, source.ErrUnavailable))
}

func TestUpdate_Patch(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.42", r.URL.Query().Get("id"))
		assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "received", body["material_status"])
		w.WriteHeader(http.StatusNoContent)
	})

	err := c.Update(context.Background(), "material_links", "42", source.Row{"material_status": "received"})
	require.NoError(t, err)
}

func TestRateLimiterIsApplied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c, err := New(Config{URL: srv.URL, Key: "k", Rate: 20})
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 25; i++ {
		_, err := c.Query(context.Background(), source.Query{Table: "t"})
		require.NoError(t, err)
	}
	// 20 burst plus 5 more at 20/s takes at least ~200ms.
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestRegistryOpen(t *testing.T) {
	src, err := source.Open(context.Background(), DriverName, source.Options{URL: "https://x.supabase.co", Key: "k"})
	require.NoError(t, err)
	assert.Equal(t, DriverName, src.Name())
}
