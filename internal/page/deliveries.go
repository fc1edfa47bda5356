// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package page

import (
	"time"

	"github.com/fieldworks/sitetrack/internal/record"
	"github.com/fieldworks/sitetrack/internal/source"
	"github.com/fieldworks/sitetrack/internal/status"
)

// Deliveries lists supplier delivery dates framed as shipping readiness.
var Deliveries Page = &table{
	name:    "deliveries",
	title:   "Delivery Dates",
	framing: status.ShipmentFraming,
	query: source.Query{
		Table: "delivery_dates",
		Order: &source.Order{Column: "delivery_date", Ascending: true},
	},
	columns: []Column{
		{"Delivery Date", ColumnDate},
		{"Status", ColumnStatus},
		{"PO Number", "po_number"},
		{"Package Description", "package_description"},
		{"Tag Number", "tag_number"},
		{"Supplier", "supplier_name"},
		{"Phase", "project_phase"},
		{"Notes", "delivery_date_notes"},
	},
	filters: []string{"supplier_name", "project_phase"},
	group:   "supplier_name",
	mapRow:  mapDelivery,
}

func init() { Register(Deliveries) }

func mapDelivery(row source.Row, loc *time.Location) record.Record {
	fields := copyFields(row,
		"po_number", "package_description", "tag_number",
		"supplier_name", "project_phase", "delivery_date_notes")
	return record.Record{
		ID:            rowID(row, "po_number"),
		ReferenceDate: dateField(row, "delivery_date", loc, fields),
		Category:      row.Str("supplier_name"),
		SearchableFields: searchable(row,
			"po_number", "package_description", "tag_number", "supplier_name"),
		Fields: fields,
	}
}
