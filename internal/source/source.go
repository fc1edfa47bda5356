// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

// Package source defines the Record Source contract: tabular read queries
// plus optional per-table change notifications and row patches.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable marks any network or query failure from a source.
var ErrUnavailable = errors.New("source unavailable")

// UnavailableError carries the source and table that failed.
type UnavailableError struct {
	Source string
	Table  string
	Err    error
}

func (e *UnavailableError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("%s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Table, e.Err)
}

func (e *UnavailableError) Unwrap() []error { return []error{ErrUnavailable, e.Err} }

// Unavailable wraps err as an UnavailableError. A nil err stays nil.
func Unavailable(src, table string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return err
	}
	return &UnavailableError{Source: src, Table: table, Err: err}
}

// Row is a single result row keyed by column name.
type Row map[string]any

// Eq is an equality predicate on a column.
type Eq struct {
	Column string
	Value  string
}

// Order sorts by one column.
type Order struct {
	Column     string
	Ascending  bool
	NullsFirst bool
}

// Query describes a read: columns, equality filters, ordering and limit.
type Query struct {
	Table   string
	Columns []string // empty selects all columns
	Eq      []Eq
	Order   *Order
	Limit   int // 0 means no limit
}

// Validate rejects identifiers that could escape quoting in SQL or URLs.
func (q Query) Validate() error {
	if q.Table == "" {
		return errors.New("query: table is required")
	}
	idents := []string{q.Table}
	idents = append(idents, q.Columns...)
	for _, e := range q.Eq {
		idents = append(idents, e.Column)
	}
	if q.Order != nil {
		idents = append(idents, q.Order.Column)
	}
	for _, id := range idents {
		if !validIdent(id) {
			return fmt.Errorf("query: invalid identifier %q", id)
		}
	}
	if q.Limit < 0 {
		return fmt.Errorf("query: negative limit %d", q.Limit)
	}
	return nil
}

func validIdent(s string) bool {
	if s == "" || s == "*" {
		return s == "*"
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// Source answers read queries.
type Source interface {
	// Name identifies the source in logs and errors (e.g., "postgrest").
	Name() string

	// Query runs q and returns the rows. Failures wrap ErrUnavailable.
	Query(ctx context.Context, q Query) ([]Row, error)
}

// Subscriber is implemented by sources that push row changes. The channel is
// closed when ctx is done or the subscription fails.
type Subscriber interface {
	Subscribe(ctx context.Context, table string) (<-chan Change, error)
}

// Updater is implemented by sources that accept field-level patches.
type Updater interface {
	Update(ctx context.Context, table, id string, patch Row) error
}

// Closer is implemented by sources holding connections.
type Closer interface {
	Close() error
}

// ChangeType is the kind of row change.
type ChangeType string

// Change types. Replace means "reload the whole table".
const (
	Insert  ChangeType = "INSERT"
	Update  ChangeType = "UPDATE"
	Delete  ChangeType = "DELETE"
	Replace ChangeType = "REPLACE"
)

// Feed states. They never come over the wire: a live feed sends Interrupted
// when its connection drops and Resync once it is back, since changes made
// in between were missed and the table must be reloaded.
const (
	Interrupted ChangeType = "INTERRUPTED"
	Resync      ChangeType = "RESYNC"
)

// ParseChangeType normalizes a change type name.
func ParseChangeType(s string) (ChangeType, error) {
	switch ct := ChangeType(strings.ToUpper(strings.TrimSpace(s))); ct {
	case Insert, Update, Delete, Replace:
		return ct, nil
	default:
		return "", fmt.Errorf("unknown change type %q", s)
	}
}

// Change is one notification. Row is the new row for INSERT and UPDATE, and
// the old row (at least its id) for DELETE. Rows holds the full table for
// REPLACE. Err says why an INTERRUPTED feed dropped.
type Change struct {
	Type  ChangeType
	Table string
	Row   Row
	Rows  []Row
	Err   error
}

// ID returns the "id" value of the change's row as a string.
func (c Change) ID() string {
	return RowID(c.Row)
}

// RowID returns a row's "id" column as a string, or "" when missing.
func RowID(r Row) string {
	v, ok := r["id"]
	if !ok || v == nil {
		return ""
	}
	return String(v)
}
