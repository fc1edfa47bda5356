// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fieldworks/sitetrack/internal/metrics"
)

const (
	headerRequestID = "X-Request-ID"
	keyRequestID    = "request_id"
)

// requestID tags each request with the caller's X-Request-ID or a new uuid.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(keyRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// requestLogger writes one slog line per request in place of gin's logger.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		code := c.Writer.Status()
		level := slog.LevelDebug
		switch {
		case code >= http.StatusInternalServerError:
			level = slog.LevelWarn
		case len(c.Errors) > 0:
			level = slog.LevelInfo
		}
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", code,
			"duration", time.Since(start),
			keyRequestID, c.GetString(keyRequestID),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}
		slog.Log(c.Request.Context(), level, "http request", attrs...)
	}
}

// recovery turns handler panics into 500 responses and logs them.
func recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, err any) {
		slog.Error("handler panic", "path", c.Request.URL.Path, "panic", err, keyRequestID, c.GetString(keyRequestID))
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Error: "internal error"})
	})
}

// countRequests records every response by route pattern and status code.
func countRequests(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(route, c.Writer.Status())
	}
}
