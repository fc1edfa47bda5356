// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/sitetrack/internal/source"
)

func seed(t *testing.T) *Source {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.DB().Exec(`
CREATE TABLE delivery_dates (
    id INTEGER PRIMARY KEY,
    po_number TEXT,
    supplier_name TEXT,
    delivery_date TEXT
);
INSERT INTO delivery_dates (id, po_number, supplier_name, delivery_date) VALUES
    (1, 'PO-100', 'Acme, Inc.', '2026-03-05'),
    (2, 'PO-200', 'Bolt Co', NULL),
    (3, 'PO-300', 'Acme, Inc.', '2026-02-27'),
    (4, 'PO-400', 'Delta', '2026-04-01');
`)
	require.NoError(t, err)
	return s
}

func ids(rows []source.Row) []string {
	var out []string
	for _, r := range rows {
		out = append(out, source.RowID(r))
	}
	return out
}

func TestQuery_OrderNullsLast(t *testing.T) {
	s := seed(t)
	rows, err := s.Query(context.Background(), source.Query{
		Table: "delivery_dates",
		Order: &source.Order{Column: "delivery_date", Ascending: true},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "1", "4", "2"}, ids(rows))
	assert.Equal(t, "PO-300", rows[0]["po_number"])
	assert.Nil(t, rows[3]["delivery_date"])
}

func TestQuery_OrderNullsFirstDesc(t *testing.T) {
	s := seed(t)
	rows, err := s.Query(context.Background(), source.Query{
		Table: "delivery_dates",
		Order: &source.Order{Column: "delivery_date", NullsFirst: true},
		Limit: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "4"}, ids(rows))
}

func TestQuery_EqAndColumns(t *testing.T) {
	s := seed(t)
	rows, err := s.Query(context.Background(), source.Query{
		Table:   "delivery_dates",
		Columns: []string{"id", "po_number"},
		Eq:      []source.Eq{{Column: "supplier_name", Value: "Acme, Inc."}},
		Order:   &source.Order{Column: "id", Ascending: true},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, ids(rows))
	assert.NotContains(t, rows[0], "supplier_name")
}

func TestQuery_MissingTableIsUnavailable(t *testing.T) {
	s := seed(t)
	_, err := s.Query(context.Background(), source.Query{Table: "nope"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, source.ErrUnavailable))
}

func TestUpdate(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, "delivery_dates", "2", source.Row{"delivery_date": "2026-03-10"}))
	rows, err := s.Query(ctx, source.Query{Table: "delivery_dates", Eq: []source.Eq{{Column: "id", Value: "2"}}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2026-03-10", rows[0]["delivery_date"])

	err = s.Update(ctx, "delivery_dates", "99", source.Row{"delivery_date": "2026-03-10"})
	assert.True(t, errors.Is(err, source.ErrUnavailable))
}

func TestRegistryOpen(t *testing.T) {
	_, err := source.Open(context.Background(), DriverName, source.Options{})
	assert.ErrorContains(t, err, "path is required")

	path := filepath.Join(t.TempDir(), "site.db")
	src, err := source.Open(context.Background(), DriverName, source.Options{Path: path})
	require.NoError(t, err)
	assert.Equal(t, DriverName, src.Name())
	require.NoError(t, src.(source.Closer).Close())
}
