// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"IFC drawing issue", CategoryDesign},
		{"Purchase order award - compressors", CategoryProcurement},
		{"Fabricate vessel skids", CategoryFabrication},
		{"Barge heat exchanger to site", CategoryTransportation},
		{"Install MCC panels", CategoryInstallation},
		{"Hydro test loop 3", CategoryTesting},
		{"Energize substation", CategoryStartup},
		{"Mobilize crews", CategoryOther},
		{"", CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.name))
		})
	}
}

func TestKeywordDetection(t *testing.T) {
	assert.True(t, IsMilestoneName("Turnover to owner"))
	assert.True(t, IsMilestoneName("IFR package"))
	assert.False(t, IsMilestoneName("Pour slab"))

	assert.True(t, HasCriticalKeyword("First Fire GT-1"))
	assert.True(t, HasCriticalKeyword("Final acceptance"))
	assert.False(t, HasCriticalKeyword("Pour slab"))
}

func TestCategoryColor(t *testing.T) {
	assert.Equal(t, "#7ed321", CategoryColor(CategoryFabrication, 0))
	assert.Equal(t, palette[2], CategoryColor("Acme Corp", 2))
	assert.Equal(t, palette[1], CategoryColor("Acme Corp", len(palette)+1))
	assert.Equal(t, palette[3], CategoryColor("Acme Corp", -3))
}

func TestBadgeFor(t *testing.T) {
	tests := []struct {
		in   string
		want Badge
	}{
		{"", Badge{"Unknown", ToneSecondary}},
		{"Delivered", Badge{"Delivered", ToneSuccess}},
		{"Finished", Badge{"Finished", ToneSuccess}},
		{"RTS", Badge{"RTS", ToneInfo}},
		{"Shipped", Badge{"Shipped", ToneInfo}},
		{"In Transit", Badge{"In Transit", ToneWarning}},
		{"Not Delivered", Badge{"Not Delivered", ToneSuccess}},
		{"Not Ready", Badge{"Not Ready", ToneWarning}},
		{"Canceled", Badge{"Canceled", ToneDanger}},
		{"Stale", Badge{"Stale", ToneDanger}},
		{"Not Started", Badge{"Not Started", ToneSecondary}},
		{"Open", Badge{"Open", ToneSecondary}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, BadgeFor(tt.in))
		})
	}
}
