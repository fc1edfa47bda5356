package page

import (
	"time"

	"github.com/fieldworks/sitetrack/internal/record"
	"github.com/fieldworks/sitetrack/internal/source"
	"github.com/fieldworks/sitetrack/internal/status"
)

// Asset statuses on the site plan.
const (
	AssetInstalled     = "installed"
	AssetOnSite        = "on_site"
	AssetInTransit     = "in_transit"
	AssetAtVendor      = "at_vendor"
	AssetStagedOffsite = "staged_offsite"
)

// AssetStatus describes how an asset status is displayed.
type AssetStatus struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Color string `json:"color"`
	// Onsite is true for statuses placed inside a zone.
	Onsite bool `json:"onsite"`
}

// AssetStatuses lists the asset statuses in display order.
var AssetStatuses = []AssetStatus{
	{AssetInstalled, "Installed", "#2563EB", true},
	{AssetOnSite, "On Site", "#3a3a3a", true},
	{AssetInTransit, "In Transit", "#f5a623", false},
	{AssetAtVendor, "At Vendor", "#d0021b", false},
	{AssetStagedOffsite, "Staged Off-site", "#999999", false},
}

// LookupAssetStatus returns the display entry for key.
func LookupAssetStatus(key string) (AssetStatus, bool) {
	for _, s := range AssetStatuses {
		if s.Key == key {
			return s, true
		}
	}
	return AssetStatus{}, false
}

// Zone is an area of the site floor plan.
type Zone struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Zones lists the floor plan areas in layout order.
var Zones = []Zone{
	{"assembly_hall", "Assembly Hall"},
	{"mechanical_bay", "Mechanical Bay"},
	{"pipe_shop", "Pipe Shop"},
	{"instrument_shop", "Instrument Shop"},
	{"electrical_room", "Electrical Room"},
	{"warehouse", "Warehouse"},
	{"laydown_yard", "Laydown Yard"},
	{"loading_dock", "Loading Dock"},
}

// Assets lists site-plan equipment and where it currently sits.
var Assets Page = &table{
	name:    "assets",
	title:   "Site Plan Assets",
	framing: status.ShipmentFraming,
	query: source.Query{
		Table: "assets",
		Order: &source.Order{Column: "id", Ascending: true},
	},
	columns: []Column{
		{"ID", "id"},
		{"Name", "name"},
		{"Tag", "tag"},
		{"Category", "category"},
		{"Zone", "zone_label"},
		{"Status", "status_label"},
		{"PO", "po"},
		{"Supplier", "supplier"},
		{"ETA", ColumnDate},
	},
	filters: []string{"category", "status", "zone"},
	group:   "category",
	mapRow:  mapAsset,
}

func init() { Register(Assets) }

func mapAsset(row source.Row, loc *time.Location) record.Record {
	fields := copyFields(row, "name", "tag", "zone", "po", "supplier", "desc")
	fields["id"] = source.RowID(row)
	st := row.Str("status")
	if s, ok := LookupAssetStatus(st); ok {
		fields["status_label"] = s.Label
	} else {
		fields["status_label"] = orDefault(st, "Unknown")
	}
	for _, z := range Zones {
		if z.Key == fields["zone"] {
			fields["zone_label"] = z.Label
		}
	}
	return record.Record{
		ID:               source.RowID(row),
		ReferenceDate:    dateField(row, "eta", loc, fields),
		Category:         row.Str("category"),
		StatusRaw:        st,
		SearchableFields: searchable(row, "name", "tag", "po", "supplier", "desc"),
		Fields:           fields,
	}
}
