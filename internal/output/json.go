// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fieldworks/sitetrack/internal/view"
)

func init() {
	RegisterFormatter(NewJSONFormatter())
}

// JSONEnvelope wraps a view with metadata for the JSON output format.
type JSONEnvelope struct {
	View     *view.View   `json:"view"`
	Metadata JSONMetadata `json:"metadata"`
}

// JSONMetadata describes the export.
type JSONMetadata struct {
	Page        string `json:"page"`
	Records     int    `json:"records"`
	Shown       int    `json:"shown"`
	GeneratedAt string `json:"generated_at"`
}

// JSONFormatter writes a view as a JSON object with a metadata envelope.
type JSONFormatter struct {
	// Compact controls whether output is compact (single line) or pretty-printed.
	// When false, output is pretty on terminals and compact on pipes.
	Compact bool

	// nowFunc is used for testing to override the current time.
	nowFunc func() time.Time
}

// Compile-time interface check.
var _ Formatter = (*JSONFormatter)(nil)

// NewJSONFormatter returns a new JSONFormatter with default settings.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// ContentType returns the MIME type of the output.
func (f *JSONFormatter) ContentType() string {
	return "application/json; charset=utf-8"
}

// Format writes v with its metadata envelope to w.
func (f *JSONFormatter) Format(v *view.View, w io.Writer) error {
	if v == nil {
		return fmt.Errorf("format json: no view")
	}
	now := time.Now()
	if f.nowFunc != nil {
		now = f.nowFunc()
	}

	envelope := JSONEnvelope{
		View: v,
		Metadata: JSONMetadata{
			Page:        v.Page,
			Records:     v.Stats.Total,
			Shown:       len(v.Table.Rows),
			GeneratedAt: now.UTC().Format("2006-01-02T15:04:05Z"),
		},
	}
	return writeJSON(w, envelope, f.shouldCompact(w))
}

func writeJSON(w io.Writer, v any, compact bool) error {
	var data []byte
	var err error
	if compact {
		data, err = json.Marshal(v)
	} else {
		data, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		return fmt.Errorf("write json trailing newline: %w", err)
	}
	return nil
}

// shouldCompact determines whether to use compact mode.
// If Compact is set, use that value. Otherwise pretty-print for TTYs and
// compact for pipes and files.
func (f *JSONFormatter) shouldCompact(w io.Writer) bool {
	if f.Compact {
		return true
	}
	if file, ok := w.(*os.File); ok {
		fi, err := file.Stat()
		if err != nil {
			return false
		}
		return fi.Mode()&os.ModeCharDevice == 0
	}
	// Non-file writers such as bytes.Buffer get pretty output.
	return false
}
