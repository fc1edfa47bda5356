// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fieldworks/sitetrack/internal/config"
)

const defaultReloadDebounce = 250 * time.Millisecond

// watchConfig calls onChange once per settled burst of writes to the
// project config file in dir. It returns when ctx is done.
func watchConfig(ctx context.Context, dir string, debounce time.Duration, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watch: %w", err)
	}
	defer func() { _ = w.Close() }()

	// Watch the directory so editors that replace the file are still seen.
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("config watch %s: %w", dir, err)
	}

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isConfigFile(ev.Name) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(debounce)
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config watch error", "dir", dir, "error", err)
		case <-fire:
			fire = nil
			onChange()
		}
	}
}

func isConfigFile(name string) bool {
	base := filepath.Base(name)
	return base == config.FileName || base == config.TOMLFileName
}
