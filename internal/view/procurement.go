// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package view

import (
	"fmt"
	"strings"

	"github.com/fieldworks/sitetrack/internal/aggregate"
	"github.com/fieldworks/sitetrack/internal/page"
	"github.com/fieldworks/sitetrack/internal/record"
)

// Procurement holds the KPI cards of the purchase order and shipment pages.
// Only the counters that apply to the page are set.
type Procurement struct {
	PurchaseOrders int     `json:"purchase_orders,omitempty"`
	TotalValue     float64 `json:"total_value,omitempty"`
	Shipments      int     `json:"shipments,omitempty"`
	Delivered      int     `json:"delivered,omitempty"`
	DeliveredRate  int     `json:"delivered_rate,omitempty"`
}

// BuildProcurement computes the KPIs of a procurement page.
func BuildProcurement(p page.Page, records []record.Record) *Procurement {
	out := &Procurement{}
	switch p.Name() {
	case page.PurchaseOrders.Name():
		out.PurchaseOrders = len(records)
		out.TotalValue = aggregate.Sum(records, "net_value")
	case page.Shipments.Name():
		out.Shipments = len(records)
		for _, r := range records {
			if page.IsDelivered(r.StatusRaw) {
				out.Delivered++
			}
		}
		out.DeliveredRate = aggregate.RoundPercentage(out.Delivered, out.Shipments)
	}
	return out
}

// FormatMoney renders an amount in whole dollars with thousands separators,
// e.g. "$1,234,567".
func FormatMoney(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	digits := fmt.Sprintf("%.0f", v)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}
