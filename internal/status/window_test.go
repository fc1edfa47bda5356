package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindow_Contains(t *testing.T) {
	tests := []struct {
		window Window
		offset int
		want   bool
	}{
		{WindowReady, -1, true},
		{WindowReady, 0, false},
		{WindowWeek, -1, false},
		{WindowWeek, 0, true},
		{WindowWeek, 7, true},
		{WindowWeek, 8, false},
		{WindowMonth, 0, true},
		{WindowMonth, 8, true},
		{WindowMonth, 30, true},
		{WindowMonth, 31, false},
		{WindowMonth, -2, false},
		{WindowUpcoming, 30, false},
		{WindowUpcoming, 31, true},
	}
	for _, tt := range tests {
		got := tt.window.Contains(at(tt.offset), today)
		assert.Equal(t, tt.want, got, "%s @ %+d", tt.window, tt.offset)
	}
}

func TestWindow_AbsentDateNeverInside(t *testing.T) {
	for _, w := range Windows {
		assert.False(t, w.Contains(nil, today), string(w))
	}
	assert.True(t, WindowAll.Contains(nil, today))
	assert.True(t, Window("").Contains(nil, today))
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("")
	require.NoError(t, err)
	assert.True(t, w.IsAll())

	w, err = ParseWindow("Week")
	require.NoError(t, err)
	assert.Equal(t, WindowWeek, w)

	w, err = ParseWindow("overdue")
	require.NoError(t, err)
	assert.Equal(t, WindowReady, w)

	_, err = ParseWindow("fortnight")
	assert.ErrorContains(t, err, "unknown window")
}

func TestWindow_Label(t *testing.T) {
	assert.Equal(t, "Ready Now", WindowReady.Label())
	assert.Equal(t, "All Dates", WindowAll.Label())
}
