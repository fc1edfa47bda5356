package view

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/fieldworks/sitetrack/internal/page"
	"github.com/fieldworks/sitetrack/internal/record"
)

// earthRadiusKm is the mean Earth radius used by Haversine.
const earthRadiusKm = 6371.0

// ActiveWithin is how recently a tracker must have reported to count as
// active.
const ActiveWithin = 7 * 24 * time.Hour

var trackerColors = map[string]string{
	page.TrackerOnSite:    "#d4b896",
	page.TrackerInTransit: "#f5a623",
	page.TrackerStale:     "#d0021b",
}

const noDataColor = "#666666"

// Map is the tracker map panel.
type Map struct {
	Site    Site     `json:"site"`
	Markers []Marker `json:"markers"`

	Total     int `json:"total"`
	OnSite    int `json:"on_site"`
	InTransit int `json:"in_transit"`
	Active    int `json:"active"`
	Linked    int `json:"linked"`
	Unlinked  int `json:"unlinked"`
}

// Marker is one tracker with a known position.
type Marker struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	Color      string    `json:"color"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	DistanceKm float64   `json:"distance_km"`
	InGeofence bool      `json:"in_geofence"`
	Active     bool      `json:"active"`
	Linked     bool      `json:"linked"`
	LastSeen   time.Time `json:"last_seen,omitzero"`
}

// BuildMap places the filtered trackers around site. The counters cover
// every tracker, not just the visible ones.
func BuildMap(all, filtered []record.Record, site Site, now time.Time) *Map {
	m := &Map{Site: site, Total: len(all)}
	for _, r := range all {
		mk, located := marker(r, site, now)
		// Without a position, trust the backend status.
		if (located && mk.InGeofence) || (!located && mk.Status == page.TrackerOnSite) {
			m.OnSite++
		}
		if mk.Status == page.TrackerInTransit {
			m.InTransit++
		}
		if mk.Active {
			m.Active++
		}
		if mk.Linked {
			m.Linked++
		} else {
			m.Unlinked++
		}
	}
	m.Markers = []Marker{}
	for _, r := range filtered {
		if mk, ok := marker(r, site, now); ok {
			m.Markers = append(m.Markers, mk)
		}
	}
	return m
}

// marker reads the tracker fields of r. ok is false when r has no position.
func marker(r record.Record, site Site, now time.Time) (Marker, bool) {
	st := r.Fields["status"]
	mk := Marker{
		ID:     r.ID,
		Name:   Label(r),
		Status: st,
		Color:  TrackerColor(st),
		Linked: r.Fields["linked"] == "linked",
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(r.Fields["last_seen_at"])); err == nil {
		mk.LastSeen = t
		mk.Active = now.Sub(t) < ActiveWithin
	}

	lat, latErr := strconv.ParseFloat(r.Fields["last_latitude"], 64)
	lon, lonErr := strconv.ParseFloat(r.Fields["last_longitude"], 64)
	if latErr != nil || lonErr != nil || (lat == 0 && lon == 0) {
		return mk, false
	}
	mk.Lat, mk.Lon = lat, lon
	mk.DistanceKm = Haversine(site.Lat, site.Lon, lat, lon)
	mk.InGeofence = mk.DistanceKm*1000 <= site.RadiusM
	return mk, true
}

// TrackerColor returns the marker color for a tracker status.
func TrackerColor(status string) string {
	if c, ok := trackerColors[status]; ok {
		return c
	}
	return noDataColor
}

// Haversine returns the great-circle distance in kilometers between two
// points given in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
