// Package record defines the Trackable Record, the unit every dashboard page
// classifies, filters and aggregates.
package record

// Well-known field names resolved by Record.Field.
const (
	FieldID       = "id"
	FieldCategory = "category"
	FieldStatus   = "status"
)

// Record is one schedulable, shippable or installable unit.
// Records are read-only snapshots; nothing downstream of the source mutates them.
type Record struct {
	// ID is stable for the lifetime of the underlying row.
	ID string `json:"id"`

	// ReferenceDate drives urgency classification. Nil means TBD.
	ReferenceDate *Date `json:"reference_date,omitempty"`

	// Category is a supplier, discipline or activity category.
	Category string `json:"category,omitempty"`

	// StatusRaw is the status text as supplied by the source.
	StatusRaw string `json:"status_raw,omitempty"`

	IsMilestone bool `json:"is_milestone,omitempty"`
	IsCritical  bool `json:"is_critical,omitempty"`

	// SearchableFields are matched by free-text search, in order.
	SearchableFields []string `json:"-"`

	// Fields holds named display and categorical values.
	Fields map[string]string `json:"fields,omitempty"`
}

// Field returns the value of a named field. "category" and "status" resolve
// to Category and StatusRaw; everything else is looked up in Fields.
func (r Record) Field(name string) string {
	switch name {
	case FieldID:
		return r.ID
	case FieldCategory:
		return r.Category
	case FieldStatus:
		return r.StatusRaw
	default:
		return r.Fields[name]
	}
}

// HasDate reports whether the record carries a usable reference date.
func (r Record) HasDate() bool {
	return r.ReferenceDate != nil
}
