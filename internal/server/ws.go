// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/fieldworks/sitetrack/internal/controller"
	"github.com/fieldworks/sitetrack/internal/filter"
	"github.com/fieldworks/sitetrack/internal/page"
	"github.com/fieldworks/sitetrack/internal/record"
)

const writeWait = 10 * time.Second

// handleWebSocket streams the view of one page. The connection's query
// string fixes its filter and month. It sends the view on connect and after
// every update of that page.
func (s *Server) handleWebSocket(c *gin.Context) {
	p, err := page.Get(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, errorBody{Error: err.Error()})
		return
	}
	q := c.Request.URL.Query()
	st, err := filter.ParseState(q, p.Filters())
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	month, err := parseMonth(q.Get(KeyMonth))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	// Subscribe before the first view so no update between them is lost.
	updates, unsubscribe := s.ctrl.Subscribe()
	defer unsubscribe()

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		slog.Debug("websocket upgrade failed", "page", p.Name(), "error", err)
		return
	}
	s.conns.Add(1)
	defer s.conns.Done()

	id := c.GetString(keyRequestID)
	slog.Debug("websocket connected", "page", p.Name(), keyRequestID, id)

	ctx, cancel := context.WithCancel(context.Background())
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		readPump(conn, cancel)
	}()
	defer func() {
		cancel()
		_ = conn.Close()
		<-readDone
		slog.Debug("websocket closed", "page", p.Name(), keyRequestID, id)
	}()

	stream := &viewStream{
		server: s,
		conn:   conn,
		page:   p.Name(),
		filter: st,
		month:  month,
	}
	if err := stream.send(ctx); err != nil && !errors.Is(err, controller.ErrNotLoaded) {
		slog.Debug("websocket send failed", "page", p.Name(), "error", err)
		return
	}

	ping := time.NewTicker(s.opts.PingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.closing:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case u, ok := <-updates:
			if !ok {
				return
			}
			if u.Page != p.Name() {
				continue
			}
			if err := stream.send(ctx); err != nil {
				slog.Debug("websocket send failed", "page", p.Name(), "error", err)
				return
			}
		}
	}
}

type viewStream struct {
	server *Server
	conn   *websocket.Conn
	page   string
	filter filter.State
	month  record.Date
}

// send writes the current view of the stream's page. A page that has not
// loaded yet sends nothing and reports controller.ErrNotLoaded.
func (vs *viewStream) send(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	v, err := vs.server.ctrl.ViewOf(ctx, vs.page, vs.filter, vs.month)
	if err != nil {
		return err
	}
	if err := vs.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return vs.conn.WriteJSON(v)
}

// readPump discards client messages and cancels when the peer goes away.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
