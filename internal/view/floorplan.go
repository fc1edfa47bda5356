// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package view

import (
	"github.com/fieldworks/sitetrack/internal/aggregate"
	"github.com/fieldworks/sitetrack/internal/page"
	"github.com/fieldworks/sitetrack/internal/record"
)

// FloorPlan places assets in site zones or off-site groups.
type FloorPlan struct {
	Zones   []ZoneView   `json:"zones"`
	Offsite []StatusView `json:"offsite"`

	Onsite      int `json:"onsite"`
	Installed   int `json:"installed"`
	InstallRate int `json:"install_rate"`
}

// ZoneView is one zone and the assets inside it.
type ZoneView struct {
	page.Zone
	Installed int         `json:"installed"`
	OnSite    int         `json:"on_site"`
	Assets    []AssetView `json:"assets"`
}

// StatusView groups off-site assets by status.
type StatusView struct {
	page.AssetStatus
	Assets []AssetView `json:"assets"`
}

// AssetView is one asset marker.
type AssetView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Tag    string `json:"tag,omitempty"`
	Status string `json:"status"`
	Color  string `json:"color"`
	ETA    string `json:"eta,omitempty"`
}

// BuildFloorPlan groups asset records by zone and off-site status. Assets
// with an on-site status but no known zone are left off the plan.
func BuildFloorPlan(records []record.Record) *FloorPlan {
	fp := &FloorPlan{}
	zones := make(map[string]*ZoneView, len(page.Zones))
	for _, z := range page.Zones {
		fp.Zones = append(fp.Zones, ZoneView{Zone: z, Assets: []AssetView{}})
	}
	for i := range fp.Zones {
		zones[fp.Zones[i].Key] = &fp.Zones[i]
	}
	offsite := make(map[string]*StatusView)
	for _, s := range page.AssetStatuses {
		if !s.Onsite {
			fp.Offsite = append(fp.Offsite, StatusView{AssetStatus: s, Assets: []AssetView{}})
		}
	}
	for i := range fp.Offsite {
		offsite[fp.Offsite[i].Key] = &fp.Offsite[i]
	}

	for _, r := range records {
		st, ok := page.LookupAssetStatus(r.StatusRaw)
		if !ok {
			continue
		}
		a := AssetView{
			ID:     r.ID,
			Name:   Label(r),
			Tag:    r.Fields["tag"],
			Status: st.Label,
			Color:  st.Color,
		}
		if r.ReferenceDate != nil {
			a.ETA = r.ReferenceDate.String()
		}
		if !st.Onsite {
			g := offsite[st.Key]
			g.Assets = append(g.Assets, a)
			continue
		}
		fp.Onsite++
		if st.Key == page.AssetInstalled {
			fp.Installed++
		}
		z, ok := zones[r.Fields["zone"]]
		if !ok {
			continue
		}
		z.Assets = append(z.Assets, a)
		if st.Key == page.AssetInstalled {
			z.Installed++
		} else {
			z.OnSite++
		}
	}
	fp.InstallRate = aggregate.RoundPercentage(fp.Installed, fp.Onsite)
	return fp
}
