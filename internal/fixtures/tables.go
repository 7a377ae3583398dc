package fixtures

import (
	"context"

	"github.com/leengari/mini-tables/internal/domain/table"
	"github.com/leengari/mini-tables/internal/engine"
	"github.com/leengari/mini-tables/internal/query/operations"
)

func simpleTable(e *engine.Engine) (*table.Table, error) {
	return e.Update(e.EmptyTable(100), "x = i", "y = Math.sin(i)", "z = Math.cos(i)")
}

func runTables(ctx context.Context, e *engine.Engine, opts Options) error {
	simple, err := simpleTable(e)
	if err != nil {
		return err
	}

	allTypes, err := AllTypes()
	if err != nil {
		return err
	}

	doubleAndString, err := e.NewTable(
		operations.DoubleCol("Doubles", 3.1, 5.45, -1.0, 1.0, 3.0, 4.20),
		operations.StringCol("Strings", "Creating", "New", "Tables", "Tables", "New", "Creating"),
	)
	if err != nil {
		return err
	}

	timeTable, err := e.TimeTable(opts.RefreshInterval)
	if err != nil {
		return err
	}
	ticking, err := e.Update(timeTable, "x = i")
	if err != nil {
		return err
	}

	return setAll(e,
		"simple_table", simple,
		"all_types", allTypes,
		"double_and_string", doubleAndString,
		"ticking_table", ticking,
	)
}
