package postgrest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fieldworks/sitetrack/internal/source"
)

const (
	realtimePath      = "/realtime/v1/websocket"
	heartbeatInterval = 25 * time.Second
	writeTimeout      = 10 * time.Second
)

// Phoenix channel events used by the realtime service.
const (
	eventJoin      = "phx_join"
	eventReply     = "phx_reply"
	eventHeartbeat = "heartbeat"
	eventChanges   = "postgres_changes"
	eventClose     = "phx_close"
	eventError     = "phx_error"
)

// message is a Phoenix channel frame.
type message struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref,omitempty"`
}

type joinConfig struct {
	Config struct {
		PostgresChanges []changeFilter `json:"postgres_changes"`
	} `json:"config"`
}

type changeFilter struct {
	Event  string `json:"event"`
	Schema string `json:"schema"`
	Table  string `json:"table"`
}

type changesPayload struct {
	Data struct {
		Type      string     `json:"type"`
		Table     string     `json:"table"`
		Record    source.Row `json:"record"`
		OldRecord source.Row `json:"old_record"`
	} `json:"data"`
}

type replyPayload struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

// RealtimeURL returns the websocket endpoint for the configured project.
func (c *Client) RealtimeURL() string {
	u := *c.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = realtimePath
	v := url.Values{}
	v.Set("apikey", c.key)
	v.Set("vsn", "1.0.0")
	u.RawQuery = v.Encode()
	return u.String()
}

// Topic returns the channel topic for a table in the public schema.
func Topic(table string) string {
	return "realtime:public:" + table
}

// Subscribe implements source.Subscriber. It joins the table's channel and
// forwards INSERT/UPDATE/DELETE events until ctx is done. A dropped socket
// is redialed and rejoined; see source.Resume for the events that marks.
func (c *Client) Subscribe(ctx context.Context, table string) (<-chan source.Change, error) {
	if err := (source.Query{Table: table}).Validate(); err != nil {
		return nil, err
	}
	return source.Resume(ctx, table, c.redial, func(ctx context.Context) (source.Feed, error) {
		s, err := c.join(ctx, table)
		if err != nil {
			return nil, source.Unavailable(DriverName, table, err)
		}
		return s.run, nil
	})
}

// join dials the realtime socket and joins the table's channel.
func (c *Client) join(ctx context.Context, table string) (*subscription, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.RealtimeURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("realtime dial: %w", err)
	}
	s := &subscription{conn: conn, table: table, topic: Topic(table)}
	if err := s.join(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

type subscription struct {
	conn  *websocket.Conn
	table string
	topic string

	ref     atomic.Int64
	writeMu sync.Mutex
}

func (s *subscription) nextRef() string {
	return strconv.FormatInt(s.ref.Add(1), 10)
}

func (s *subscription) write(m message) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(m)
}

func (s *subscription) join() error {
	var cfg joinConfig
	cfg.Config.PostgresChanges = []changeFilter{{Event: "*", Schema: "public", Table: s.table}}
	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode join: %w", err)
	}
	if err := s.write(message{Topic: s.topic, Event: eventJoin, Payload: payload, Ref: s.nextRef()}); err != nil {
		return fmt.Errorf("realtime join: %w", err)
	}
	return nil
}

// run owns the socket until it drops or ctx is done, then closes it.
func (s *subscription) run(ctx context.Context, out chan<- source.Change) error {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.heartbeat(connCtx)
	go func() {
		<-connCtx.Done()
		if ctx.Err() != nil {
			_ = s.write(message{Topic: s.topic, Event: "phx_leave", Payload: json.RawMessage(`{}`), Ref: s.nextRef()})
		}
		_ = s.conn.Close()
	}()
	return s.read(ctx, out)
}

func (s *subscription) heartbeat(ctx context.Context) {
	t := time.NewTicker(heartbeatInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m := message{Topic: "phoenix", Event: eventHeartbeat, Payload: json.RawMessage(`{}`), Ref: s.nextRef()}
			if err := s.write(m); err != nil {
				slog.Debug("realtime heartbeat failed", "table", s.table, "error", err)
				_ = s.conn.Close()
				return
			}
		}
	}
}

func (s *subscription) read(ctx context.Context, out chan<- source.Change) error {
	for {
		var m message
		if err := s.conn.ReadJSON(&m); err != nil {
			return fmt.Errorf("realtime read: %w", err)
		}
		if m.Topic != s.topic {
			continue
		}
		switch m.Event {
		case eventReply:
			var r replyPayload
			if err := json.Unmarshal(m.Payload, &r); err == nil && r.Status != "ok" {
				return fmt.Errorf("realtime join rejected: %s %s", r.Status, string(r.Response))
			}
		case eventChanges:
			c, err := decodeChange(s.table, m.Payload)
			if err != nil {
				slog.Warn("ignoring realtime event", "table", s.table, "error", err)
				continue
			}
			select {
			case out <- c:
			case <-ctx.Done():
				return ctx.Err()
			}
		case eventClose, eventError:
			return fmt.Errorf("realtime channel closed by server (%s)", m.Event)
		}
	}
}

func decodeChange(table string, raw json.RawMessage) (source.Change, error) {
	var p changesPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return source.Change{}, fmt.Errorf("decode change: %w", err)
	}
	ct, err := source.ParseChangeType(p.Data.Type)
	if err != nil {
		return source.Change{}, err
	}
	if ct == source.Replace {
		return source.Change{}, fmt.Errorf("unexpected change type %s", ct)
	}
	c := source.Change{Type: ct, Table: table, Row: p.Data.Record}
	if ct == source.Delete {
		c.Row = p.Data.OldRecord
	}
	if source.RowID(c.Row) == "" {
		return source.Change{}, fmt.Errorf("%s event without id", ct)
	}
	return c, nil
}
