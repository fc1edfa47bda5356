package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/sitetrack/internal/controller"
	"github.com/fieldworks/sitetrack/internal/state"
	"github.com/fieldworks/sitetrack/internal/view"
)

func TestWatch_RerendersOnChange(t *testing.T) {
	p := newProject(t)
	p.writeDeliveries(t)

	out := &syncBuffer{}
	cmd, _, _ := newTestCmd()
	cmd.SetOut(out)
	cmd.SetArgs(p.args("watch", "deliveries", "--sections", "records"))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Records (3)")
	}, 5*time.Second, 20*time.Millisecond)

	// Let the file subscription settle before editing.
	time.Sleep(100 * time.Millisecond)
	p.writeTable(t, "delivery_dates", `[{"id": 9, "po_number": "PO-9", "package_description": "Flare stack"}]`)
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Records (1)")
	}, 5*time.Second, 20*time.Millisecond)
	assert.Contains(t, out.String(), strings.Repeat("-", 72))

	cancel()
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}

	h, err := state.LoadHistory(p.dir, "deliveries")
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.GreaterOrEqual(t, len(h.Entries), 2)
}

func TestRecordsHistory_OnlyOnReload(t *testing.T) {
	ok := &view.View{Page: "deliveries"}
	assert.True(t, recordsHistory(controller.Update{Page: "deliveries", View: ok, Reloaded: true}, ok))
	assert.False(t, recordsHistory(controller.Update{Page: "deliveries", View: ok}, ok))

	failed := &view.View{Page: "deliveries", Error: "timeout"}
	assert.False(t, recordsHistory(controller.Update{Page: "deliveries", View: failed, Reloaded: true}, failed))

	watchNoHistory = true
	t.Cleanup(func() { watchNoHistory = false })
	assert.False(t, recordsHistory(controller.Update{Page: "deliveries", View: ok, Reloaded: true}, ok))
}

func TestWatch_UnknownPage(t *testing.T) {
	p := newProject(t)
	cmd, _, _ := newTestCmd()
	cmd.SetArgs(p.args("watch", "inventory"))
	requireExitCode(t, cmd.Execute(), ExitInvalidArgs)
}

func TestWatchConfig_DebouncesConfigWrites(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watchConfig(ctx, dir, 50*time.Millisecond, func() { calls.Add(1) })
	}()
	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	for i := range 3 {
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".sitetrack.yaml"), []byte("timezone: UTC\n# "+string(rune('a'+i))), 0o600))
	}
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	cancel()
	require.NoError(t, <-done)
}

func TestWatchConfig_MissingDir(t *testing.T) {
	err := watchConfig(context.Background(), filepath.Join(t.TempDir(), "gone"), time.Millisecond, func() {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config watch")
}

func TestIsConfigFile(t *testing.T) {
	assert.True(t, isConfigFile("/p/.sitetrack.yaml"))
	assert.True(t, isConfigFile(".sitetrack.toml"))
	assert.False(t, isConfigFile("/p/sitetrack.yaml"))
}
