// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package page

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/fieldworks/sitetrack/internal/record"
	"github.com/fieldworks/sitetrack/internal/source"
	"github.com/fieldworks/sitetrack/internal/status"
)

// ErrInvalidTransition is returned for material status changes outside the
// ordered -> shipped -> received -> installed workflow.
var ErrInvalidTransition = errors.New("invalid status transition")

// Material statuses in workflow order.
const (
	MaterialOrdered   = "ordered"
	MaterialShipped   = "shipped"
	MaterialReceived  = "received"
	MaterialInstalled = "installed"
)

// MaterialStatuses lists the workflow in order.
var MaterialStatuses = []string{MaterialOrdered, MaterialShipped, MaterialReceived, MaterialInstalled}

// Materials lists links between purchase order lines and install tags.
var Materials Page = &table{
	name:    "materials",
	title:   "Material Tracking",
	framing: status.ScheduleFraming,
	query: source.Query{
		Table: "material_links",
		Order: &source.Order{Column: "created_at"},
	},
	columns: []Column{
		{"ID", "id"},
		{"PO", "po_id"},
		{"PO Description", "po_description"},
		{"Install Tag", "install_tag"},
		{"Discipline", "install_discipline"},
		{"Quantity", "quantity"},
		{"Status", "material_status"},
		{"Received", "receipt_date"},
		{"Installed", "installation_date"},
	},
	filters: []string{"material_status", "install_discipline"},
	group:   "material_status",
	mapRow:  mapMaterial,
}

func init() { Register(Materials) }

func mapMaterial(row source.Row, loc *time.Location) record.Record {
	fields := copyFields(row,
		"po_id", "po_line_item", "po_description", "install_tag",
		"install_discipline", "install_description", "uom", "created_at")
	fields["id"] = source.RowID(row)
	st := strings.ToLower(row.Str("material_status"))
	if st != "" {
		fields["material_status"] = st
	}
	if q := row.Str("quantity"); q != "" {
		fields["quantity"] = strings.TrimSpace(q + " " + row.Str("uom"))
	}

	received := dateField(row, "receipt_date", loc, fields)
	ref := dateField(row, "installation_date", loc, fields)
	if ref == nil {
		ref = received
	}
	return record.Record{
		ID:            source.RowID(row),
		ReferenceDate: ref,
		Category:      row.Str("install_discipline"),
		StatusRaw:     st,
		SearchableFields: searchable(row,
			"po_id", "po_description", "install_tag", "install_description"),
		Fields: fields,
	}
}

// Transition builds the patch that moves a material link to status to.
// Moving to received stamps receipt_date and moving to installed stamps
// installation_date, each only when not already set. Moves that stay put or
// go backwards are rejected.
func Transition(r record.Record, to string, now time.Time) (source.Row, error) {
	to = strings.ToLower(strings.TrimSpace(to))
	next := slices.Index(MaterialStatuses, to)
	if next < 0 {
		return nil, fmt.Errorf("%w: unknown status %q (want one of %s)",
			ErrInvalidTransition, to, strings.Join(MaterialStatuses, ", "))
	}
	cur := slices.Index(MaterialStatuses, r.StatusRaw)
	if next <= cur {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.StatusRaw, to)
	}

	patch := source.Row{
		"material_status": to,
		"updated_at":      now.UTC().Format(time.RFC3339),
	}
	today := record.DateOf(now).String()
	if to == MaterialReceived && r.Fields["receipt_date"] == "" {
		patch["receipt_date"] = today
	}
	if to == MaterialInstalled && r.Fields["installation_date"] == "" {
		patch["installation_date"] = today
	}
	return patch, nil
}

// NextMaterialStatus returns the status after current, or current when it is
// already the last one.
func NextMaterialStatus(current string) string {
	i := slices.Index(MaterialStatuses, current)
	if i+1 >= len(MaterialStatuses) {
		return MaterialStatuses[len(MaterialStatuses)-1]
	}
	return MaterialStatuses[i+1]
}
