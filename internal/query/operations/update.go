package operations

import (
	"github.com/leengari/mini-tables/internal/domain/table"
	"github.com/leengari/mini-tables/internal/formula"
)

// Update applies formulas left to right. Each formula adds a column, or
// replaces a same-named one in place; later formulas see earlier results.
func Update(snap *table.Snapshot, scope *formula.Scope, formulas ...string) (*table.Snapshot, error) {
	cur := snap
	for _, f := range formulas {
		prog, err := formula.Compile(f, cur, scope)
		if err != nil {
			return nil, err
		}
		values, err := prog.Evaluate(cur.NumRows())
		if err != nil {
			return nil, err
		}
		cur, err = cur.WithColumn(prog.Column, values)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}
