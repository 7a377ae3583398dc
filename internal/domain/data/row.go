package data

import (
	"github.com/Velocidex/ordereddict"
)

// Row is a read-only view of one table row, keeping column order
type Row struct {
	Columns []string
	Values  []any
}

// Get returns the cell for a column name
func (r Row) Get(name string) (any, bool) {
	for i, col := range r.Columns {
		if col == name {
			return r.Values[i], true
		}
	}
	return nil, false
}

// ToDict converts the row to an ordered dict so that JSON output keeps
// the column order of the table
func (r Row) ToDict() *ordereddict.Dict {
	dict := ordereddict.NewDict()
	for i, col := range r.Columns {
		dict.Set(col, r.Values[i])
	}
	return dict
}

// MarshalJSON implements json.Marshaler interface
func (r Row) MarshalJSON() ([]byte, error) {
	return r.ToDict().MarshalJSON()
}
