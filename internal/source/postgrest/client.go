// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

// Package postgrest reads tables from a hosted PostgREST backend and
// subscribes to its realtime change feed.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/fieldworks/sitetrack/internal/source"
)

// DriverName is the registry name for this source.
const DriverName = "postgrest"

const (
	restPath       = "/rest/v1/"
	defaultTimeout = 15 * time.Second
	maxAttempts    = 3
	maxErrorBody   = 512
)

func init() {
	source.Register(DriverName, func(_ context.Context, opts source.Options) (source.Source, error) {
		return New(Config{
			URL:     opts.URL,
			Key:     opts.Key,
			Rate:    opts.Rate,
			Timeout: opts.Timeout,
		})
	})
}

// Config configures a Client.
type Config struct {
	URL     string
	Key     string
	Rate    float64 // requests per second; 0 disables limiting
	Timeout time.Duration
	HTTP    *http.Client
}

// Client is a PostgREST source.
type Client struct {
	base    *url.URL
	key     string
	http    *http.Client
	limiter *rate.Limiter
	backoff time.Duration

	// redial paces realtime reconnects. Nil means source.DefaultBackOff.
	redial func() backoff.BackOff
}

var (
	_ source.Source     = (*Client)(nil)
	_ source.Subscriber = (*Client)(nil)
	_ source.Updater    = (*Client)(nil)
)

// New validates cfg and builds a Client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("postgrest source: url is required")
	}
	if cfg.Key == "" {
		return nil, errors.New("postgrest source: key is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("postgrest source: invalid url %q", cfg.URL)
	}

	httpc := cfg.HTTP
	if httpc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpc = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.Rate > 0 {
		burst := int(cfg.Rate)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.Rate), burst)
	}

	return &Client{
		base:    base,
		key:     cfg.Key,
		http:    httpc,
		limiter: limiter,
		backoff: 250 * time.Millisecond,
	}, nil
}

// Name implements source.Source.
func (c *Client) Name() string { return DriverName }

// QueryURL renders q as a PostgREST URL:
//
//	/rest/v1/table?select=a,b&col=eq.v&order=col.asc.nullslast&limit=n
func (c *Client) QueryURL(q source.Query) (string, error) {
	if err := q.Validate(); err != nil {
		return "", err
	}
	v := url.Values{}
	sel := "*"
	if len(q.Columns) > 0 {
		sel = strings.Join(q.Columns, ",")
	}
	v.Set("select", sel)
	for _, e := range q.Eq {
		v.Add(e.Column, "eq."+e.Value)
	}
	if o := q.Order; o != nil {
		dir := "desc"
		if o.Ascending {
			dir = "asc"
		}
		nulls := "nullslast"
		if o.NullsFirst {
			nulls = "nullsfirst"
		}
		v.Set("order", fmt.Sprintf("%s.%s.%s", o.Column, dir, nulls))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return c.base.String() + restPath + url.PathEscape(q.Table) + "?" + v.Encode(), nil
}

// Query implements source.Source.
func (c *Client) Query(ctx context.Context, q source.Query) ([]source.Row, error) {
	u, err := c.QueryURL(q)
	if err != nil {
		return nil, err
	}

	body, err := c.do(ctx, http.MethodGet, u, nil, q.Table)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var rows []source.Row
	if err := dec.Decode(&rows); err != nil {
		return nil, source.Unavailable(DriverName, q.Table, fmt.Errorf("decode response: %w", err))
	}
	return rows, nil
}

// Update implements source.Updater with PATCH ?id=eq.{id}.
func (c *Client) Update(ctx context.Context, table, id string, patch source.Row) error {
	if err := (source.Query{Table: table}).Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}
	v := url.Values{}
	v.Set("id", "eq."+id)
	u := c.base.String() + restPath + url.PathEscape(table) + "?" + v.Encode()

	_, err = c.do(ctx, http.MethodPatch, u, payload, table)
	return err
}

// do sends a request with retries on 429 and 5xx.
func (c *Client) do(ctx context.Context, method, u string, payload []byte, table string) ([]byte, error) {
	reqID := uuid.NewString()
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, source.Unavailable(DriverName, table, err)
		}

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, body)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("apikey", c.key)
		req.Header.Set("Authorization", "Bearer "+c.key)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-Id", reqID)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Prefer", "return=minimal")
		}

		start := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			slog.Debug("postgrest request failed", "table", table, "attempt", attempt, "request_id", reqID, "error", err)
		} else {
			data, readErr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			slog.Debug("postgrest request", "method", method, "table", table, "status", resp.StatusCode,
				"duration", time.Since(start).Round(time.Millisecond), "request_id", reqID)

			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("read response: %w", readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return data, nil
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				lastErr = statusError(resp.StatusCode, data)
			default:
				return nil, source.Unavailable(DriverName, table, statusError(resp.StatusCode, data))
			}
		}

		if attempt < maxAttempts {
			select {
			case <-time.After(c.backoff * time.Duration(attempt)):
			case <-ctx.Done():
				return nil, source.Unavailable(DriverName, table, ctx.Err())
			}
		}
	}
	return nil, source.Unavailable(DriverName, table, lastErr)
}

func statusError(code int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}
	if msg == "" {
		return fmt.Errorf("HTTP %d", code)
	}
	return fmt.Errorf("HTTP %d: %s", code, msg)
}
