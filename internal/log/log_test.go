package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/sitetrack/internal/redact"
)

func restoreDefault(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestSetup_DefaultLevel(t *testing.T) {
	restoreDefault(t)
	Setup(false, false)

	ctx := context.Background()
	handler := slog.Default().Handler()
	assert.True(t, handler.Enabled(ctx, slog.LevelInfo), "INFO should be enabled in default mode")
	assert.True(t, handler.Enabled(ctx, slog.LevelWarn), "WARN should be enabled in default mode")
	assert.False(t, handler.Enabled(ctx, slog.LevelDebug), "DEBUG should not be enabled in default mode")
}

func TestLevel(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, Level(false, false))
	assert.Equal(t, slog.LevelDebug, Level(true, false))
	assert.Equal(t, slog.LevelWarn, Level(false, true))
	assert.Equal(t, slog.LevelWarn, Level(true, true), "quiet should win")
}

func TestSetupWriter_Text(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer
	SetupWriter(&buf, true, false, false)

	slog.Debug("page loaded", "page", "deliveries", "rows", 3)
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), `msg="page loaded" page=deliveries rows=3`)
}

func TestSetupWriter_JSON(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer
	SetupWriter(&buf, false, false, true)

	slog.Info("serving dashboards", "addr", ":8080")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, ":8080", rec["addr"])
}

func TestSetupWriter_RedactsSecrets(t *testing.T) {
	restoreDefault(t)
	t.Setenv("SUPABASE_ANON_KEY", "anon-key-1234567890")
	redact.ResetForTest()
	t.Cleanup(redact.ResetForTest)

	var buf bytes.Buffer
	SetupWriter(&buf, false, false, false)
	slog.Warn("query failed",
		"url", "https://x.supabase.co/rest/v1/items?apikey=anon-key-1234567890",
		"error", errors.New("bad key anon-key-1234567890"))

	assert.NotContains(t, buf.String(), "anon-key-1234567890")
	assert.Contains(t, buf.String(), "[REDACTED]")
}
