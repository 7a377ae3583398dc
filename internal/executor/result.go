package executor

import (
	"math"

	"github.com/Velocidex/ordereddict"

	"github.com/leengari/mini-tables/internal/domain/table"
	"github.com/leengari/mini-tables/internal/engine"
	"github.com/leengari/mini-tables/internal/plot"
)

// ColumnMetadata describes one result column
type ColumnMetadata struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Result is what every command produces, on the wire and in the REPL
type Result struct {
	Columns   []string            `json:"columns,omitempty"`
	Metadata  []ColumnMetadata    `json:"metadata,omitempty"`
	Rows      []*ordereddict.Dict `json:"rows,omitempty"`
	Total     int                 `json:"total,omitempty"`
	Tick      uint64              `json:"tick,omitempty"`
	Variables []engine.Variable   `json:"variables,omitempty"`
	Figure    *plot.Figure        `json:"figure,omitempty"`
	Message   string              `json:"message,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// ErrorResult wraps err for the client
func ErrorResult(err error) *Result {
	return &Result{Error: err.Error()}
}

// TableResult renders up to limit rows of snap; limit <= 0 means all rows
func TableResult(snap *table.Snapshot, limit int) *Result {
	s := snap.Schema()
	res := &Result{
		Columns:  s.Names(),
		Metadata: make([]ColumnMetadata, len(s.Columns)),
		Total:    snap.NumRows(),
	}
	for i, col := range s.Columns {
		res.Metadata[i] = ColumnMetadata{Name: col.Name, Type: string(col.Type)}
	}

	n := snap.NumRows()
	if limit > 0 && limit < n {
		n = limit
	}
	res.Rows = make([]*ordereddict.Dict, n)
	for r := 0; r < n; r++ {
		row := snap.Row(r)
		dict := ordereddict.NewDict()
		for c, name := range row.Columns {
			dict.Set(name, wireValue(row.Values[c]))
		}
		res.Rows[r] = dict
	}
	return res
}

// wireValue keeps non-finite floats encodable as JSON
func wireValue(v any) any {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	default:
		return v
	}
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return v
}
