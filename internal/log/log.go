// Package log configures structured logging for sitetrack using log/slog.
package log

import (
	"io"
	"log/slog"
	"os"

	"github.com/fieldworks/sitetrack/internal/redact"
)

// Level maps the verbosity flags to a slog level.
//
//   - quiet mode:   only WARN and ERROR messages
//   - normal mode:  INFO and above
//   - verbose mode: DEBUG and above
//
// Quiet wins when both are set.
func Level(verbose, quiet bool) slog.Level {
	switch {
	case quiet:
		return slog.LevelWarn
	case verbose:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// Setup configures the default slog logger based on verbosity flags.
// Output is written to stderr using slog.TextHandler.
func Setup(verbose, quiet bool) {
	SetupWriter(os.Stderr, verbose, quiet, false)
}

// SetupWriter is Setup with an explicit destination. With asJSON the
// records are written by slog.JSONHandler, which suits long-running servers.
// String attribute values pass through redact.String.
func SetupWriter(w io.Writer, verbose, quiet, asJSON bool) {
	opts := &slog.HandlerOptions{
		Level:       Level(verbose, quiet),
		ReplaceAttr: redactAttr,
	}
	var handler slog.Handler
	if asJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func redactAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		a.Value = slog.StringValue(redact.String(a.Value.String()))
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			a.Value = slog.StringValue(redact.String(err.Error()))
		}
	}
	return a
}
