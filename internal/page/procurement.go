// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package page

import (
	"time"

	"github.com/fieldworks/sitetrack/internal/record"
	"github.com/fieldworks/sitetrack/internal/source"
	"github.com/fieldworks/sitetrack/internal/status"
)

// PurchaseOrders lists purchase orders with their promised delivery start.
var PurchaseOrders Page = &table{
	name:    "purchase-orders",
	title:   "Purchase Orders",
	framing: status.ShipmentFraming,
	query: source.Query{
		Table: "purchase_orders",
		Order: &source.Order{Column: "created_on"},
	},
	columns: []Column{
		{"PO Number", "purchase_order_id"},
		{"Description", "po_description"},
		{"Status", "status"},
		{"Supplier", "supplier"},
		{"Category", "category"},
		{"Delivery Date", ColumnDate},
		{"Net Value", "net_value"},
	},
	filters: []string{"status", "supplier", "category"},
	group:   "status",
	mapRow:  mapPurchaseOrder,
}

// Shipments lists shipments against purchase orders.
var Shipments Page = &table{
	name:    "shipments",
	title:   "Shipments",
	framing: status.ShipmentFraming,
	query: source.Query{
		Table: "shipments",
		Order: &source.Order{Column: "delivery_date"},
	},
	columns: []Column{
		{"Shipment", "shipment_number"},
		{"PO Number", "po_number"},
		{"Part Description", "part_description"},
		{"Status", "status"},
		{"Supplier", "supplier"},
		{"Delivery Date", ColumnDate},
		{"Pieces", "num_pieces"},
	},
	filters: []string{"status", "supplier"},
	group:   "status",
	mapRow:  mapShipment,
}

func init() {
	Register(PurchaseOrders)
	Register(Shipments)
}

func mapPurchaseOrder(row source.Row, loc *time.Location) record.Record {
	fields := copyFields(row,
		"purchase_order_id", "po_description", "status", "supplier",
		"category", "net_value")
	return record.Record{
		ID:            rowID(row, "purchase_order_id"),
		ReferenceDate: dateField(row, "delivery_date_from", loc, fields),
		Category:      row.Str("status"),
		StatusRaw:     row.Str("status"),
		SearchableFields: searchable(row,
			"purchase_order_id", "po_description", "supplier"),
		Fields: fields,
	}
}

func mapShipment(row source.Row, loc *time.Location) record.Record {
	fields := copyFields(row,
		"shipment_number", "po_number", "part_description", "status",
		"supplier", "num_pieces")
	return record.Record{
		ID:            rowID(row, "shipment_number"),
		ReferenceDate: dateField(row, "delivery_date", loc, fields),
		Category:      row.Str("status"),
		StatusRaw:     row.Str("status"),
		SearchableFields: searchable(row,
			"shipment_number", "po_number", "part_description"),
		Fields: fields,
	}
}

// IsDelivered reports whether a shipment status means it has arrived.
func IsDelivered(statusRaw string) bool {
	return BadgeFor(statusRaw).Tone == ToneSuccess
}
