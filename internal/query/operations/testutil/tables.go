package testutil

import (
	"github.com/leengari/mini-tables/internal/domain/schema"
	"github.com/leengari/mini-tables/internal/domain/table"
)

// CreateNumbersTable returns five rows of ints, doubles and labels with
// a null in each column
func CreateNumbersTable() *table.Snapshot {
	s := schema.MustNew(
		schema.Column{Name: "id", Type: schema.ColumnTypeInt, NotNull: true},
		schema.Column{Name: "value", Type: schema.ColumnTypeDouble},
		schema.Column{Name: "label", Type: schema.ColumnTypeString},
	)
	snap, err := table.NewSnapshot(s, [][]any{
		{1, 2, 3, 4, 5},
		{1.5, nil, -2.0, 10.25, 0.0},
		{"one", "two", nil, "four", "five"},
	})
	if err != nil {
		panic(err)
	}
	return snap
}
