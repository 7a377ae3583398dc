package operations

import (
	"fmt"

	"github.com/leengari/mini-tables/internal/domain/errors"
	"github.com/leengari/mini-tables/internal/domain/schema"
	"github.com/leengari/mini-tables/internal/domain/table"
	"github.com/leengari/mini-tables/internal/formula"
)

// View projects a snapshot onto the named columns, in the given order.
// No names means all columns.
func View(snap *table.Snapshot, columns ...string) (*table.Snapshot, error) {
	if len(columns) == 0 {
		return snap, nil
	}

	cols := make([]schema.Column, len(columns))
	values := make([][]any, len(columns))
	for i, name := range columns {
		idx := snap.Schema().ColumnIndex(name)
		if idx < 0 {
			return nil, &errors.ColumnNotFoundError{ColumnName: name}
		}
		cols[i] = snap.Schema().Columns[idx]
		values[i] = snap.ColumnAt(idx)
	}

	s, err := schema.New(cols...)
	if err != nil {
		return nil, fmt.Errorf("view: %w", err)
	}
	return table.NewSnapshot(s, values)
}

// Where keeps the rows for which condition evaluates to true.
// Null counts as false.
func Where(snap *table.Snapshot, scope *formula.Scope, condition string) (*table.Snapshot, error) {
	prog, err := formula.CompileCondition(condition, snap, scope)
	if err != nil {
		return nil, err
	}
	matches, err := prog.Evaluate(snap.NumRows())
	if err != nil {
		return nil, err
	}

	var keep []int
	for r, m := range matches {
		if b, ok := m.(bool); ok && b {
			keep = append(keep, r)
		}
	}

	values := make([][]any, snap.NumColumns())
	for c := range values {
		src := snap.ColumnAt(c)
		out := make([]any, len(keep))
		for i, r := range keep {
			out[i] = src[r]
		}
		values[c] = out
	}
	return table.NewSnapshot(snap.Schema(), values)
}
