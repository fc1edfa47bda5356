package source

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnavailable_WrapsSentinel(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unavailable("postgrest", "shipments", cause)

	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "postgrest: shipments: connection refused", err.Error())

	var ue *UnavailableError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "shipments", ue.Table)

	// Wrapping twice keeps the innermost table.
	assert.Same(t, err, Unavailable("other", "t", err))
	assert.Nil(t, Unavailable("x", "y", nil))
}

func TestQuery_Validate(t *testing.T) {
	ok := Query{Table: "delivery_dates", Columns: []string{"*"}, Order: &Order{Column: "delivery_date"}}
	assert.NoError(t, ok.Validate())

	bad := []Query{
		{},
		{Table: "x; drop table y"},
		{Table: "t", Columns: []string{"a,b"}},
		{Table: "t", Eq: []Eq{{Column: "1abc", Value: "v"}}},
		{Table: "t", Order: &Order{Column: "a desc"}},
		{Table: "t", Limit: -1},
	}
	for _, q := range bad {
		assert.Error(t, q.Validate(), "%+v", q)
	}
}

func TestParseChangeType(t *testing.T) {
	ct, err := ParseChangeType("insert")
	require.NoError(t, err)
	assert.Equal(t, Insert, ct)

	_, err = ParseChangeType("TRUNCATE")
	assert.Error(t, err)
}

func TestString(t *testing.T) {
	assert.Equal(t, "", String(nil))
	assert.Equal(t, "abc", String("abc"))
	assert.Equal(t, "42", String(float64(42)))
	assert.Equal(t, "42.5", String(42.5))
	assert.Equal(t, "7", String(int64(7)))
	assert.Equal(t, "true", String(true))
	assert.Equal(t, "12", String(json.Number("12")))
	assert.Equal(t, `{"a":1}`, String(map[string]int{"a": 1}))
	assert.Equal(t, "2026-03-01", String(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2026-03-01T09:30:00Z", String(time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)))
}

func TestRow_Accessors(t *testing.T) {
	r := Row{
		"name":      "  Valve  ",
		"milestone": "yes",
		"critical":  true,
		"flag":      float64(0),
		"lat":       "28.95",
		"lon":       -95.36,
	}
	assert.Equal(t, "Valve", r.Str("name"))
	assert.True(t, r.Bool("milestone"))
	assert.True(t, r.Bool("critical"))
	assert.False(t, r.Bool("flag"))
	assert.False(t, r.Bool("missing"))

	lat, ok := r.Float("lat")
	assert.True(t, ok)
	assert.InDelta(t, 28.95, lat, 1e-9)
	_, ok = r.Float("name")
	assert.False(t, ok)
}

func TestRow_MergeDoesNotMutate(t *testing.T) {
	r := Row{"id": "1", "status": "ordered"}
	m := r.Merge(Row{"status": "shipped"})
	assert.Equal(t, "ordered", r["status"])
	assert.Equal(t, "shipped", m["status"])
}

func TestApplyQuery(t *testing.T) {
	rows := []Row{
		{"id": "1", "supplier": "Acme", "date": "2026-03-05"},
		{"id": "2", "supplier": "Bolt", "date": nil},
		{"id": "3", "supplier": "Acme", "date": "2026-03-01"},
		{"id": "4", "supplier": "Acme", "date": ""},
		{"id": "5", "supplier": "Acme", "date": "2026-02-20"},
	}

	got := ApplyQuery(rows, Query{
		Table: "t",
		Eq:    []Eq{{Column: "supplier", Value: "Acme"}},
		Order: &Order{Column: "date", Ascending: true},
	})
	assert.Equal(t, []string{"5", "3", "1", "4"}, rowIDs(got))

	got = ApplyQuery(rows, Query{Table: "t", Order: &Order{Column: "date", Ascending: false, NullsFirst: true}, Limit: 3})
	assert.Equal(t, []string{"2", "4", "1"}, rowIDs(got))

	got = ApplyQuery(rows, Query{Table: "t", Columns: []string{"supplier"}, Limit: 1})
	assert.Equal(t, Row{"id": "1", "supplier": "Acme"}, got[0])
}

func TestApplyQuery_NumericOrder(t *testing.T) {
	rows := []Row{{"id": "a", "n": float64(10)}, {"id": "b", "n": float64(9)}, {"id": "c", "n": float64(100)}}
	got := ApplyQuery(rows, Query{Table: "t", Order: &Order{Column: "n", Ascending: true}})
	assert.Equal(t, []string{"b", "a", "c"}, rowIDs(got))
}

func rowIDs(rows []Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, RowID(r))
	}
	return out
}

func TestMemory_QueryAndPatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewMemory("")
	assert.Equal(t, "memory", m.Name())

	_, err := m.Query(ctx, Query{Table: "missing"})
	assert.True(t, errors.Is(err, ErrUnavailable))

	m.Load("links", []Row{{"id": "1", "status": "ordered"}})
	ch, err := m.Subscribe(ctx, "links")
	require.NoError(t, err)

	m.Put("links", Row{"id": "2", "status": "shipped"})
	c := <-ch
	assert.Equal(t, Insert, c.Type)
	assert.Equal(t, "2", c.ID())

	require.NoError(t, m.Update(ctx, "links", "1", Row{"status": "received"}))
	c = <-ch
	assert.Equal(t, Update, c.Type)
	assert.Equal(t, "received", c.Row["status"])

	m.Remove("links", "2")
	c = <-ch
	assert.Equal(t, Delete, c.Type)
	assert.Equal(t, "2", c.ID())

	rows, err := m.Query(ctx, Query{Table: "links"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, rowIDs(rows))

	err = m.Update(ctx, "links", "404", Row{"status": "x"})
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestMemory_SubscriptionClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewMemory("m")
	ch, err := m.Subscribe(ctx, "t")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription channel not closed")
	}
}

func TestRegistry(t *testing.T) {
	resetForTesting()
	defer resetForTesting()

	Register("mem", func(_ context.Context, _ Options) (Source, error) {
		return NewMemory("mem"), nil
	})
	assert.Panics(t, func() {
		Register("mem", nil)
	})

	src, err := Open(context.Background(), "mem", Options{})
	require.NoError(t, err)
	assert.Equal(t, "mem", src.Name())

	_, err = Open(context.Background(), "nope", Options{})
	assert.ErrorContains(t, err, `unknown source driver: "nope" (available: mem)`)
	assert.Equal(t, []string{"mem"}, Drivers())
}
