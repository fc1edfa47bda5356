// Package pgsql reads tables straight from PostgreSQL and turns LISTEN/NOTIFY
// payloads into row changes.
package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldworks/sitetrack/internal/source"
	"github.com/fieldworks/sitetrack/internal/source/sqlquery"
)

// DriverName is the registry name for this source.
const DriverName = "postgres"

// ChannelPrefix prefixes the NOTIFY channel for each table.
const ChannelPrefix = "sitetrack_"

func init() {
	source.Register(DriverName, func(ctx context.Context, opts source.Options) (source.Source, error) {
		if opts.DSN == "" {
			return nil, errors.New("postgres source: dsn is required")
		}
		return Open(ctx, opts.DSN)
	})
}

// Source queries PostgreSQL through a connection pool. Change feeds share
// one dedicated listener connection outside the pool, so subscriptions never
// starve queries.
type Source struct {
	pool *pgxpool.Pool
	lis  *listener
}

var (
	_ source.Source     = (*Source)(nil)
	_ source.Subscriber = (*Source)(nil)
	_ source.Updater    = (*Source)(nil)
	_ source.Closer     = (*Source)(nil)
)

// Open connects a pool to dsn and verifies it with a ping.
func Open(ctx context.Context, dsn string) (*Source, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, source.Unavailable(DriverName, "", fmt.Errorf("connect: %w", err))
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, source.Unavailable(DriverName, "", fmt.Errorf("ping: %w", err))
	}
	cc := p.Config().ConnConfig
	return newSource(p, func(ctx context.Context) (listenConn, error) {
		conn, err := pgx.ConnectConfig(ctx, cc.Copy())
		if err != nil {
			return nil, err
		}
		return conn, nil
	}, nil), nil
}

func newSource(pool *pgxpool.Pool, dial dialFunc, redial func() backoff.BackOff) *Source {
	return &Source{pool: pool, lis: newListener(dial, redial)}
}

// Name implements source.Source.
func (s *Source) Name() string { return DriverName }

// Query implements source.Source.
func (s *Source) Query(ctx context.Context, q source.Query) ([]source.Row, error) {
	stmt, args, err := sqlquery.Select(sqlquery.Postgres, q)
	if err != nil {
		return nil, err
	}
	slog.Debug("postgres query", "table", q.Table, "sql", stmt)

	rows, err := s.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, source.Unavailable(DriverName, q.Table, err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, source.Unavailable(DriverName, q.Table, err)
	}

	out := make([]source.Row, len(maps))
	for i, m := range maps {
		out[i] = source.Row(m)
	}
	return out, nil
}

// Update implements source.Updater.
func (s *Source) Update(ctx context.Context, table, id string, patch source.Row) error {
	stmt, args, err := sqlquery.Update(sqlquery.Postgres, table, id, patch)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return source.Unavailable(DriverName, table, err)
	}
	if tag.RowsAffected() == 0 {
		return source.Unavailable(DriverName, table, fmt.Errorf("row %s not found", id))
	}
	return nil
}

// Subscribe implements source.Subscriber. The listener LISTENs on
// ChannelPrefix+table until the last subscriber of the table is gone.
func (s *Source) Subscribe(ctx context.Context, table string) (<-chan source.Change, error) {
	if err := (source.Query{Table: table}).Validate(); err != nil {
		return nil, err
	}
	ch, err := s.lis.subscribe(ctx, table)
	if err != nil {
		return nil, source.Unavailable(DriverName, table, err)
	}
	return ch, nil
}

// Close implements source.Closer. It stops the listener and closes the pool.
func (s *Source) Close() error {
	s.lis.close()
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// notification is the JSON payload a row trigger sends with pg_notify:
//
//	{"type": "UPDATE", "record": {...}, "old_record": {...}}
type notification struct {
	Type      string     `json:"type"`
	Record    source.Row `json:"record"`
	OldRecord source.Row `json:"old_record"`
}

// DecodeNotification parses a trigger payload into a Change.
func DecodeNotification(table, payload string) (source.Change, error) {
	var n notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return source.Change{}, fmt.Errorf("decode notification: %w", err)
	}
	ct, err := source.ParseChangeType(n.Type)
	if err != nil {
		return source.Change{}, err
	}
	c := source.Change{Type: ct, Table: table, Row: n.Record}
	if ct == source.Delete {
		c.Row = n.OldRecord
	}
	if source.RowID(c.Row) == "" && ct != source.Replace {
		return source.Change{}, errors.New("decode notification: row has no id")
	}
	return c, nil
}
