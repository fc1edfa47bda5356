// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package source

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
)

// ApplyQuery evaluates q's filters, ordering and limit over rows in memory.
// Column projection keeps "id" so rows stay addressable.
func ApplyQuery(rows []Row, q Query) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if matchesEq(r, q.Eq) {
			out = append(out, r)
		}
	}
	if q.Order != nil {
		o := *q.Order
		slices.SortStableFunc(out, func(a, b Row) int {
			return compareValues(a[o.Column], b[o.Column], o)
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	if len(q.Columns) > 0 && !slices.Contains(q.Columns, "*") {
		for i, r := range out {
			p := make(Row, len(q.Columns)+1)
			for _, c := range q.Columns {
				if v, ok := r[c]; ok {
					p[c] = v
				}
			}
			if v, ok := r["id"]; ok {
				p["id"] = v
			}
			out[i] = p
		}
	}
	return out
}

func matchesEq(r Row, eqs []Eq) bool {
	for _, e := range eqs {
		if String(r[e.Column]) != e.Value {
			return false
		}
	}
	return true
}

func isNull(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func compareValues(a, b any, o Order) int {
	an, bn := isNull(a), isNull(b)
	switch {
	case an && bn:
		return 0
	case an:
		if o.NullsFirst {
			return -1
		}
		return 1
	case bn:
		if o.NullsFirst {
			return 1
		}
		return -1
	}

	var c int
	af, aok := Row{"v": a}.Float("v")
	bf, bok := Row{"v": b}.Float("v")
	if aok && bok {
		c = cmp.Compare(af, bf)
	} else {
		c = cmp.Compare(String(a), String(b))
	}
	if !o.Ascending {
		c = -c
	}
	return c
}

// Memory is an in-process source. It backs tests and the offline snapshot
// mode, and it publishes changes made through Update, Put and Remove.
type Memory struct {
	name string

	mu     sync.Mutex
	tables map[string][]Row
	subs   map[string][]*subscription
}

type subscription struct {
	ch   chan Change
	done <-chan struct{}
}

var (
	_ Source     = (*Memory)(nil)
	_ Subscriber = (*Memory)(nil)
	_ Updater    = (*Memory)(nil)
)

// NewMemory returns an empty in-memory source.
func NewMemory(name string) *Memory {
	if name == "" {
		name = "memory"
	}
	return &Memory{
		name:   name,
		tables: make(map[string][]Row),
		subs:   make(map[string][]*subscription),
	}
}

// Name implements Source.
func (m *Memory) Name() string { return m.name }

// Load replaces a table's rows and notifies subscribers with a Replace.
func (m *Memory) Load(table string, rows []Row) {
	m.mu.Lock()
	m.tables[table] = cloneRows(rows)
	m.mu.Unlock()
	m.publish(Change{Type: Replace, Table: table, Rows: cloneRows(rows)})
}

// Query implements Source.
func (m *Memory) Query(_ context.Context, q Query) ([]Row, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	rows, ok := m.tables[q.Table]
	rows = cloneRows(rows)
	m.mu.Unlock()
	if !ok {
		return nil, Unavailable(m.name, q.Table, fmt.Errorf("no such table"))
	}
	return ApplyQuery(rows, q), nil
}

// Put inserts or replaces a row by id and notifies subscribers.
func (m *Memory) Put(table string, row Row) {
	id := RowID(row)
	m.mu.Lock()
	rows := m.tables[table]
	ct := Insert
	for i, r := range rows {
		if RowID(r) == id {
			rows[i] = row.Clone()
			ct = Update
			break
		}
	}
	if ct == Insert {
		rows = append(rows, row.Clone())
	}
	m.tables[table] = rows
	m.mu.Unlock()
	m.publish(Change{Type: ct, Table: table, Row: row.Clone()})
}

// Remove deletes a row by id and notifies subscribers.
func (m *Memory) Remove(table, id string) {
	m.mu.Lock()
	rows := m.tables[table]
	var old Row
	rows = slices.DeleteFunc(rows, func(r Row) bool {
		if RowID(r) == id {
			old = r
			return true
		}
		return false
	})
	m.tables[table] = rows
	m.mu.Unlock()
	if old != nil {
		m.publish(Change{Type: Delete, Table: table, Row: Row{"id": old["id"]}})
	}
}

// Update implements Updater.
func (m *Memory) Update(_ context.Context, table, id string, patch Row) error {
	m.mu.Lock()
	var updated Row
	for i, r := range m.tables[table] {
		if RowID(r) == id {
			updated = r.Merge(patch)
			m.tables[table][i] = updated
			break
		}
	}
	m.mu.Unlock()
	if updated == nil {
		return Unavailable(m.name, table, fmt.Errorf("row %s not found", id))
	}
	m.publish(Change{Type: Update, Table: table, Row: updated.Clone()})
	return nil
}

// Subscribe implements Subscriber.
func (m *Memory) Subscribe(ctx context.Context, table string) (<-chan Change, error) {
	sub := &subscription{ch: make(chan Change, 16), done: ctx.Done()}
	m.mu.Lock()
	m.subs[table] = append(m.subs[table], sub)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		m.subs[table] = slices.DeleteFunc(m.subs[table], func(s *subscription) bool { return s == sub })
		m.mu.Unlock()
		close(sub.ch)
	}()
	return sub.ch, nil
}

// publish delivers c to every live subscriber of its table. A slow
// subscriber blocks the publisher until it reads or unsubscribes.
func (m *Memory) publish(c Change) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sub := range m.subs[c.Table] {
		select {
		case sub.ch <- c:
		case <-sub.done:
		}
	}
}

func cloneRows(rows []Row) []Row {
	if rows == nil {
		return nil
	}
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}
