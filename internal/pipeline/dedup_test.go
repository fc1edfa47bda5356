package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/sitetrack/internal/source"
)

func TestRowHash_StableAndOrderIndependent(t *testing.T) {
	a := source.Row{"tag": "P-101", "qty": float64(2)}
	b := source.Row{"qty": float64(2), "tag": "P-101"}
	assert.Equal(t, RowHash(a), RowHash(b))
	assert.Len(t, RowHash(a), 8)
	assert.NotEqual(t, RowHash(a), RowHash(source.Row{"tag": "P-102", "qty": float64(2)}))
}

func TestRowHash_SeparatorsAvoidCollisions(t *testing.T) {
	assert.NotEqual(t,
		RowHash(source.Row{"a": "bc"}),
		RowHash(source.Row{"ab": "c"}))
}

func TestEnsureIDs(t *testing.T) {
	rows := EnsureIDs([]source.Row{
		{"id": float64(4), "x": "keep"},
		{"x": "hash me"},
		{"id": nil, "x": "hash me too"},
	})
	assert.Equal(t, "4", source.RowID(rows[0]))
	assert.Regexp(t, `^h-`, source.RowID(rows[1]))
	assert.Regexp(t, `^h-`, source.RowID(rows[2]))
	assert.NotEqual(t, source.RowID(rows[1]), source.RowID(rows[2]))
}

func TestDeduplicateRows(t *testing.T) {
	rows := DeduplicateRows([]source.Row{
		{"id": "1", "v": "first"},
		{"id": "2"},
		{"id": "1", "v": "second"},
	})
	assert.Len(t, rows, 2)
	assert.Equal(t, "first", rows[0]["v"])
	assert.Empty(t, DeduplicateRows(nil))
}

func TestEnsureIDs_IdenticalRowsStayDistinct(t *testing.T) {
	row := func() source.Row { return source.Row{"package_description": "Gaskets", "supplier_name": "Acme"} }
	rows := DeduplicateRows(EnsureIDs([]source.Row{row(), row(), row()}))
	require.Len(t, rows, 3)

	first := source.RowID(rows[0])
	assert.Equal(t, "h-"+RowHash(row()), first)
	assert.Equal(t, first+"-2", source.RowID(rows[1]))
	assert.Equal(t, first+"-3", source.RowID(rows[2]))

	again := EnsureIDs([]source.Row{row(), row(), row()})
	assert.Equal(t, source.RowID(rows[2]), source.RowID(again[2]))
}
