package record

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate_Formats(t *testing.T) {
	tests := []struct {
		in   string
		want Date
	}{
		{"2026-03-01", NewDate(2026, time.March, 1)},
		{"2026/03/01", NewDate(2026, time.March, 1)},
		{"03/01/2026", NewDate(2026, time.March, 1)},
		{"3/1/2026", NewDate(2026, time.March, 1)},
		{"03/01/26", NewDate(2026, time.March, 1)},
		{"March 1, 2026", NewDate(2026, time.March, 1)},
		{"Mar 1, 2026", NewDate(2026, time.March, 1)},
		{"1 Mar 2026", NewDate(2026, time.March, 1)},
		{"01-Mar-26", NewDate(2026, time.March, 1)},
		{"2026-03-01T10:30:00", NewDate(2026, time.March, 1)},
		{"2026-03-01 10:30:00", NewDate(2026, time.March, 1)},
		{"  2026-03-01  ", NewDate(2026, time.March, 1)},
		{"Mar 3, 2026 - Mar 10, 2026", NewDate(2026, time.March, 3)},
		{"2026-03-03 to 2026-03-10", NewDate(2026, time.March, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in, time.UTC)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParseDate_TimestampUsesLocation(t *testing.T) {
	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	// 03:00 UTC on Mar 2 is still Mar 1 in Chicago.
	got, err := ParseDate("2026-03-02T03:00:00Z", chicago)
	require.NoError(t, err)
	assert.Equal(t, NewDate(2026, time.March, 1), *got)

	// A bare ISO date is a calendar date and never shifts.
	got, err = ParseDate("2026-03-02", chicago)
	require.NoError(t, err)
	assert.Equal(t, NewDate(2026, time.March, 2), *got)
}

func TestParseDate_YearlessUsesCurrentYear(t *testing.T) {
	got, err := ParseDate("Jul 4", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Now().UTC().Year(), got.Year)
	assert.Equal(t, time.July, got.Month)
	assert.Equal(t, 4, got.Day)
}

func TestParseDate_Malformed(t *testing.T) {
	for _, in := range []string{"", "   ", "TBD", "next week", "2026-13-45", "N/A"} {
		t.Run(in, func(t *testing.T) {
			got, err := ParseDate(in, time.UTC)
			assert.Nil(t, got)
			assert.True(t, errors.Is(err, ErrMalformedDate))
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	assert.Nil(t, NormalizeDate("TBD", time.UTC))
	assert.Nil(t, NormalizeDate("", time.UTC))
	d := NormalizeDate("2026-03-01", time.UTC)
	require.NotNil(t, d)
	assert.Equal(t, "2026-03-01", d.String())
}

func TestDate_Arithmetic(t *testing.T) {
	d := NewDate(2026, time.February, 27)

	assert.Equal(t, NewDate(2026, time.March, 1), d.AddDays(2))
	assert.Equal(t, NewDate(2026, time.February, 20), d.AddDays(-7))
	assert.Equal(t, 2, d.DaysUntil(d.AddDays(2)))
	assert.Equal(t, -7, d.DaysUntil(d.AddDays(-7)))
	assert.Equal(t, 365, d.DaysUntil(NewDate(2027, time.February, 27)))
}

func TestDate_DaysUntilAcrossDST(t *testing.T) {
	// Civil dates carry no zone, so a DST weekend is still 2 days.
	a := NewDate(2026, time.March, 7)
	b := NewDate(2026, time.March, 9)
	assert.Equal(t, 2, a.DaysUntil(b))
}

func TestDate_Compare(t *testing.T) {
	a := NewDate(2026, time.March, 1)
	b := NewDate(2026, time.March, 2)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, a.Equal(NewDate(2026, time.March, 1)))
	assert.Equal(t, 0, a.Compare(a))
	assert.Equal(t, -1, NewDate(2025, time.December, 31).Compare(a))
	assert.Equal(t, 1, NewDate(2026, time.April, 1).Compare(a))
}

func TestDate_NewDateNormalizes(t *testing.T) {
	assert.Equal(t, NewDate(2026, time.March, 2), NewDate(2026, time.February, 30))
}

func TestDate_JSONRoundTrip(t *testing.T) {
	d := NewDate(2026, time.March, 1)
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2026-03-01"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, d, back)

	assert.Error(t, json.Unmarshal([]byte(`"soon"`), &back))
}

func TestDateOf_UsesOwnLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	ts := time.Date(2026, time.March, 1, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, NewDate(2026, time.March, 1), DateOf(ts))
	assert.Equal(t, NewDate(2026, time.March, 2), DateOf(ts.In(tokyo)))
}

func TestRecord_Field(t *testing.T) {
	r := Record{
		ID:        "42",
		Category:  "Piping",
		StatusRaw: "In Transit",
		Fields:    map[string]string{"supplier_name": "Acme"},
	}
	assert.Equal(t, "42", r.Field(FieldID))
	assert.Equal(t, "Piping", r.Field(FieldCategory))
	assert.Equal(t, "In Transit", r.Field(FieldStatus))
	assert.Equal(t, "Acme", r.Field("supplier_name"))
	assert.Equal(t, "", r.Field("missing"))
	assert.False(t, r.HasDate())
}
