// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/sitetrack/internal/state"
)

func requireExitCode(t *testing.T, err error, code int) *exitCodeError {
	t.Helper()
	require.Error(t, err)
	var ece *exitCodeError
	require.True(t, errors.As(err, &ece), "want exitCodeError, got %T: %v", err, err)
	assert.Equal(t, code, ece.ExitCode(), ece.Error())
	return ece
}

func TestVersion(t *testing.T) {
	resetFlags()
	cmd, stdout, _ := newTestCmd()
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "sitetrack dev\n", stdout.String())
}

func TestExitError_DefaultMessages(t *testing.T) {
	assert.Equal(t, "sitetrack: some pages are unavailable", exitError(ExitPartialFailure, "").Error())
	assert.Equal(t, "sitetrack: no page could be loaded", exitError(ExitTotalFailure, "").Error())
	assert.Equal(t, "sitetrack: error", exitError(ExitInvalidArgs, "").Error())
	assert.Equal(t, "sitetrack: bad 7", exitError(ExitInvalidArgs, "sitetrack: bad %d", 7).Error())
}

func TestReport_Deliveries(t *testing.T) {
	p := newProject(t)
	p.writeDeliveries(t)

	cmd, stdout, _ := newTestCmd()
	cmd.SetArgs(p.args("report", "deliveries"))
	require.NoError(t, cmd.Execute())

	out := stdout.String()
	assert.Contains(t, out, "Delivery Dates")
	assert.Contains(t, out, "Records (3)")
	assert.Contains(t, out, "Compressor skid")
	assert.NotContains(t, out, "Source error")

	// A fresh load saves the snapshot and records the history.
	_, err := state.Load(p.dir, "deliveries")
	require.NoError(t, err)
	h, err := state.LoadHistory(p.dir, "deliveries")
	require.NoError(t, err)
	require.Len(t, h.Entries, 1)
	assert.Equal(t, 3, h.Entries[0].Total)
}

func TestReport_NoHistory(t *testing.T) {
	p := newProject(t)
	p.writeDeliveries(t)

	cmd, _, _ := newTestCmd()
	cmd.SetArgs(p.args("report", "deliveries", "--no-history", "--sections", "summary"))
	require.NoError(t, cmd.Execute())

	h, err := state.LoadHistory(p.dir, "deliveries")
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestReport_Sections(t *testing.T) {
	p := newProject(t)
	p.writeDeliveries(t)

	cmd, stdout, _ := newTestCmd()
	cmd.SetArgs(p.args("report", "deliveries", "--sections", "records"))
	require.NoError(t, cmd.Execute())
	assert.Contains(t, stdout.String(), "Records (3)")
	assert.NotContains(t, stdout.String(), "Summary")
}

func TestReport_UnknownSection(t *testing.T) {
	p := newProject(t)
	cmd, _, _ := newTestCmd()
	cmd.SetArgs(p.args("report", "deliveries", "--sections", "nope"))
	requireExitCode(t, cmd.Execute(), ExitInvalidArgs)
}

func TestReport_UnknownPage(t *testing.T) {
	p := newProject(t)
	cmd, _, _ := newTestCmd()
	cmd.SetArgs(p.args("report", "inventory"))
	ece := requireExitCode(t, cmd.Execute(), ExitInvalidArgs)
	assert.Contains(t, ece.Error(), `unknown page: "inventory"`)
}

func TestReport_DisabledPage(t *testing.T) {
	p := newProject(t)
	p.writeConfig(t, ".sitetrack.yaml", "pages:\n  deliveries:\n    enabled: false\n")

	cmd, _, _ := newTestCmd()
	cmd.SetArgs(p.args("report", "deliveries"))
	ece := requireExitCode(t, cmd.Execute(), ExitInvalidArgs)
	assert.Contains(t, ece.Error(), "disabled")
}

func TestReport_InvalidConfig(t *testing.T) {
	p := newProject(t)
	p.writeConfig(t, ".sitetrack.yaml", "site:\n  latitude: 123\n")

	cmd, _, _ := newTestCmd()
	cmd.SetArgs(p.args("report", "deliveries"))
	ece := requireExitCode(t, cmd.Execute(), ExitInvalidArgs)
	assert.Contains(t, ece.Error(), "site.latitude")
}

func TestReport_StaleSnapshot(t *testing.T) {
	p := newProject(t)
	p.writeDeliveries(t)

	cmd, _, _ := newTestCmd()
	cmd.SetArgs(p.args("report", "deliveries"))
	require.NoError(t, cmd.Execute())

	require.NoError(t, os.Remove(filepath.Join(p.data, "delivery_dates.json")))
	resetFlags()
	cmd, stdout, _ := newTestCmd()
	cmd.SetArgs(p.args("report", "deliveries"))
	ece := requireExitCode(t, cmd.Execute(), ExitPartialFailure)
	assert.Contains(t, ece.Error(), "showing last snapshot")

	out := stdout.String()
	assert.Contains(t, out, "(showing last snapshot)")
	assert.Contains(t, out, "Records (3)")

	// Stale loads do not extend the history.
	h, err := state.LoadHistory(p.dir, "deliveries")
	require.NoError(t, err)
	assert.Len(t, h.Entries, 1)
}

func TestReport_TotalFailure(t *testing.T) {
	p := newProject(t)

	cmd, stdout, _ := newTestCmd()
	cmd.SetArgs(p.args("report", "deliveries"))
	requireExitCode(t, cmd.Execute(), ExitTotalFailure)
	assert.Empty(t, stdout.String())
}

func TestReport_Filters(t *testing.T) {
	p := newProject(t)
	p.writeDeliveries(t)

	cmd, stdout, _ := newTestCmd()
	cmd.SetArgs(p.args("report", "deliveries", "--where", "supplier_name=Acme", "--sections", "records"))
	require.NoError(t, cmd.Execute())
	assert.Contains(t, stdout.String(), "Filter:  supplier_name=Acme")
	assert.Contains(t, stdout.String(), "Records (2)")
	assert.NotContains(t, stdout.String(), "Heat exchanger")
}

func TestReport_FilterErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing value", []string{"--where", "supplier_name"}, "want field=value"},
		{"unknown field", []string{"--where", "color=red"}, `no filter field "color"`},
		{"bad status", []string{"--status", "late"}, "late"},
		{"bad window", []string{"--window", "fortnight"}, "fortnight"},
		{"bad month", []string{"--month", "March"}, "want YYYY-MM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProject(t)
			p.writeDeliveries(t)
			cmd, _, _ := newTestCmd()
			cmd.SetArgs(p.args(append([]string{"report", "deliveries"}, tt.args...)...))
			ece := requireExitCode(t, cmd.Execute(), ExitInvalidArgs)
			assert.Contains(t, ece.Error(), tt.want)
		})
	}
}

func TestReport_OutputFile(t *testing.T) {
	p := newProject(t)
	p.writeDeliveries(t)
	out := filepath.Join(p.dir, "report.txt")

	cmd, stdout, _ := newTestCmd()
	cmd.SetArgs(p.args("report", "deliveries", "-o", out))
	require.NoError(t, cmd.Execute())
	assert.Empty(t, stdout.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Delivery Dates")
}

func TestFilterFlags_MonthDate(t *testing.T) {
	f := filterFlags{}
	d, err := f.monthDate()
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	f.month = "2026-02"
	d, err = f.monthDate()
	require.NoError(t, err)
	assert.Equal(t, "2026-02-01", d.String())
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"summary", "records"}, splitList(" summary, ,records "))
}
