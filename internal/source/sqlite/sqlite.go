// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

// Package sqlite serves records from a local SQLite database, typically a
// field export or an offline copy of the hosted tables.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/fieldworks/sitetrack/internal/source"
	"github.com/fieldworks/sitetrack/internal/source/sqlquery"
)

// DriverName is the registry name for this source.
const DriverName = "sqlite"

func init() {
	source.Register(DriverName, func(_ context.Context, opts source.Options) (source.Source, error) {
		if opts.Path == "" {
			return nil, errors.New("sqlite source: path is required")
		}
		return Open(opts.Path)
	})
}

// Source reads tables from a SQLite database.
type Source struct {
	db *sql.DB
}

var (
	_ source.Source  = (*Source)(nil)
	_ source.Updater = (*Source)(nil)
	_ source.Closer  = (*Source)(nil)
)

// Open opens the database at path. ":memory:" is accepted for tests.
func Open(path string) (*Source, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure sqlite %s: %w", path, err)
	}
	return &Source{db: db}, nil
}

// New wraps an already opened database.
func New(db *sql.DB) *Source {
	return &Source{db: db}
}

// DB exposes the handle for seeding fixtures.
func (s *Source) DB() *sql.DB { return s.db }

// Name implements source.Source.
func (s *Source) Name() string { return DriverName }

// Query implements source.Source.
func (s *Source) Query(ctx context.Context, q source.Query) ([]source.Row, error) {
	stmt, args, err := sqlquery.Select(sqlquery.SQLite, q)
	if err != nil {
		return nil, err
	}
	slog.Debug("sqlite query", "table", q.Table, "sql", stmt)

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, source.Unavailable(DriverName, q.Table, err)
	}
	defer func() { _ = rows.Close() }()

	out, err := scanRows(rows)
	if err != nil {
		return nil, source.Unavailable(DriverName, q.Table, err)
	}
	return out, nil
}

// Update implements source.Updater.
func (s *Source) Update(ctx context.Context, table, id string, patch source.Row) error {
	stmt, args, err := sqlquery.Update(sqlquery.SQLite, table, id, patch)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return source.Unavailable(DriverName, table, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return source.Unavailable(DriverName, table, fmt.Errorf("row %s not found", id))
	}
	return nil
}

// Close implements source.Closer.
func (s *Source) Close() error {
	return s.db.Close()
}

func scanRows(rows *sql.Rows) ([]source.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	var out []source.Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		r := make(source.Row, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				r[c] = string(b)
				continue
			}
			r[c] = vals[i]
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}
	return out, nil
}
