// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package page

import (
	"time"

	"github.com/fieldworks/sitetrack/internal/record"
	"github.com/fieldworks/sitetrack/internal/source"
	"github.com/fieldworks/sitetrack/internal/status"
)

// Tracker statuses reported by the GPS view.
const (
	TrackerOnSite    = "On Site"
	TrackerInTransit = "In Transit"
	TrackerStale     = "Stale"
	TrackerNoData    = "No Data"
)

// UnknownTracker names trackers the backend has no name for.
const UnknownTracker = "Unknown"

// Trackers lists GPS trackers and the material they are attached to.
var Trackers Page = &table{
	name:    "trackers",
	title:   "GPS Trackers",
	framing: status.ShipmentFraming,
	query: source.Query{
		Table: "vw_active_samsara_trackers",
		Order: &source.Order{Column: "last_seen_at"},
	},
	columns: []Column{
		{"Name", "name"},
		{"Status", "status"},
		{"Latitude", "last_latitude"},
		{"Longitude", "last_longitude"},
		{"Distance (km)", "distance_from_site_km"},
		{"Last Seen", "last_seen_at"},
		{"PO", "po_id"},
		{"Install Tag", "install_tag"},
	},
	filters: []string{"status", "linked", "name"},
	group:   "status",
	mapRow:  mapTracker,
}

func init() { Register(Trackers) }

func mapTracker(row source.Row, _ *time.Location) record.Record {
	fields := copyFields(row,
		"last_latitude", "last_longitude", "last_accuracy_meters",
		"distance_from_site_km", "last_seen_at", "po_id", "install_tag",
		"linked_material_id")
	fields["name"] = orDefault(row.Str("name"), UnknownTracker)
	st := orDefault(row.Str("status"), TrackerNoData)
	fields["status"] = st
	if row.Str("linked_material_id") != "" {
		fields["linked"] = "linked"
	} else {
		fields["linked"] = "unlinked"
	}

	// Trackers have no due date; they classify as TBD.
	return record.Record{
		ID:               rowID(row, "tracker_id"),
		Category:         st,
		StatusRaw:        st,
		SearchableFields: []string{fields["name"], source.RowID(row), row.Str("po_id"), row.Str("install_tag")},
		Fields:           fields,
	}
}
