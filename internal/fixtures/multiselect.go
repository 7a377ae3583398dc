package fixtures

import (
	"context"

	"github.com/leengari/mini-tables/internal/engine"
	"github.com/leengari/mini-tables/internal/query/operations"
	"github.com/leengari/mini-tables/internal/timeconv"
)

func runMultiselect(ctx context.Context, e *engine.Engine, opts Options) error {
	specs := []struct {
		name string
		col  operations.ColumnSpec
	}{
		{"multiselect_null", operations.StringCol("multiselect_null", nil, nil, nil, nil)},
		{"multiselect_empty", operations.StringCol("multiselect_empty", "", "", "", "")},
		{"multiselect_string", operations.StringCol("multiselect_string", "A", "B", nil, "C", "", " ", "D")},
		{"multiselect_number", operations.DoubleCol("multiselect_number", 1, 2, nil, 3, 4, 0, -1.1, 1.1)},
		{"multiselect_bool", operations.BoolCol("multiselect_bool", true, false, nil, true)},
		{"multiselect_char", operations.CharCol("multiselect_char", "a", "b", nil, "c")},
		{"multiselect_datetime", operations.InstantCol("multiselect_datetime",
			timeconv.MustParseInstant("2021-06-02T08:00:02 ET"),
			timeconv.MustParseInstant("2021-06-02T08:00:03 ET"),
			nil,
			timeconv.MustParseInstant("2021-06-02T08:00:04 ET"),
		)},
	}

	for _, s := range specs {
		t, err := e.NewTable(s.col)
		if err != nil {
			return err
		}
		if err := e.Set(s.name, t); err != nil {
			return err
		}
	}
	return nil
}
