package fixtures

import (
	"context"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leengari/mini-tables/internal/domain/data"
	"github.com/leengari/mini-tables/internal/domain/schema"
	"github.com/leengari/mini-tables/internal/domain/table"
	"github.com/leengari/mini-tables/internal/engine"
	"github.com/leengari/mini-tables/internal/plot"
)

func runFixtures(t *testing.T, names ...string) *engine.Engine {
	t.Helper()
	eng := newEngine(t)
	require.NoError(t, RunAll(context.Background(), eng, Options{RefreshInterval: time.Hour}, names...))
	return eng
}

// newEngine returns an engine closed at the end of the test
func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng := engine.New()
	t.Cleanup(eng.Close)
	return eng
}

func mustTable(t *testing.T, eng *engine.Engine, name string) *table.Table {
	t.Helper()
	tbl, err := eng.Table(name)
	require.NoError(t, err)
	return tbl
}

func mustColumn(t *testing.T, tbl *table.Table, name string) []any {
	t.Helper()
	values, err := tbl.Snapshot().Column(name)
	require.NoError(t, err)
	return values
}

func TestRunAllRegistersEveryVariable(t *testing.T) {
	eng := runFixtures(t)

	assert.Equal(t, []string{
		"add_more_rows",
		"all_types",
		"append_only",
		"blink_table",
		"double_and_string",
		"grow",
		"hidden_series_plot",
		"multiselect_bool",
		"multiselect_char",
		"multiselect_datetime",
		"multiselect_empty",
		"multiselect_null",
		"multiselect_number",
		"multiselect_string",
		"shrink",
		"shrink_grow",
		"simple_plot",
		"simple_table",
		"ticking_table",
		"trig_figure",
	}, eng.Names())
}

func TestRunAllUnknownScript(t *testing.T) {
	eng := newEngine(t)
	assert.Error(t, RunAll(context.Background(), eng, DefaultOptions(), "nope"))
}

func TestDoubleAndString(t *testing.T) {
	eng := runFixtures(t, "tables")
	tbl := mustTable(t, eng, "double_and_string")

	assert.Equal(t, []any{3.1, 5.45, -1.0, 1.0, 3.0, 4.20}, mustColumn(t, tbl, "Doubles"))
	assert.Equal(t, []any{"Creating", "New", "Tables", "Tables", "New", "Creating"}, mustColumn(t, tbl, "Strings"))
}

func TestSimpleTable(t *testing.T) {
	eng := runFixtures(t, "tables")
	tbl := mustTable(t, eng, "simple_table")

	require.Equal(t, 100, tbl.Size())
	assert.Equal(t, []string{"x", "y", "z"}, tbl.Schema().Names())
	assert.Equal(t, math.Cos(99), mustColumn(t, tbl, "z")[99])
}

func TestTickingTable(t *testing.T) {
	eng := runFixtures(t, "tables")
	tbl := mustTable(t, eng, "ticking_table")

	assert.True(t, tbl.IsRefreshing())
	assert.Equal(t, []string{"Timestamp", "x"}, tbl.Schema().Names())
	assert.Equal(t, int32(0), mustColumn(t, tbl, "x")[0])
}

func TestMultiselect(t *testing.T) {
	eng := runFixtures(t, "multiselect")

	numbers := mustColumn(t, mustTable(t, eng, "multiselect_number"), "multiselect_number")
	assert.Equal(t, []any{1.0, 2.0, nil, 3.0, 4.0, 0.0, -1.1, 1.1}, numbers)

	assert.Equal(t, []any{nil, nil, nil, nil},
		mustColumn(t, mustTable(t, eng, "multiselect_null"), "multiselect_null"))
	assert.Equal(t, []any{"", "", "", ""},
		mustColumn(t, mustTable(t, eng, "multiselect_empty"), "multiselect_empty"))
	assert.Equal(t, []any{"A", "B", nil, "C", "", " ", "D"},
		mustColumn(t, mustTable(t, eng, "multiselect_string"), "multiselect_string"))
	assert.Equal(t, []any{true, false, nil, true},
		mustColumn(t, mustTable(t, eng, "multiselect_bool"), "multiselect_bool"))
	assert.Equal(t, []any{data.Char('a'), data.Char('b'), nil, data.Char('c')},
		mustColumn(t, mustTable(t, eng, "multiselect_char"), "multiselect_char"))

	dts := mustColumn(t, mustTable(t, eng, "multiselect_datetime"), "multiselect_datetime")
	require.Len(t, dts, 4)
	assert.Nil(t, dts[2])
	assert.True(t, time.Date(2021, 6, 2, 12, 0, 2, 0, time.UTC).Equal(dts[0].(time.Time)))
}

func TestAllTypes(t *testing.T) {
	tbl, err := AllTypes()
	require.NoError(t, err)
	require.Equal(t, allTypesSize, tbl.Size())

	wantTypes := map[string]schema.ColumnType{
		"String":  schema.ColumnTypeString,
		"Int":     schema.ColumnTypeInt,
		"Long":    schema.ColumnTypeLong,
		"Float":   schema.ColumnTypeFloat,
		"Double":  schema.ColumnTypeDouble,
		"Bool":    schema.ColumnTypeBool,
		"Char":    schema.ColumnTypeChar,
		"Short":   schema.ColumnTypeShort,
		"BigDec":  schema.ColumnTypeDecimal,
		"BigInt":  schema.ColumnTypeBigInt,
		"Byte":    schema.ColumnTypeByte,
	}
	for name, typ := range wantTypes {
		col, ok := tbl.Schema().GetColumn(name)
		require.True(t, ok, name)
		assert.Equal(t, typ, col.Type, name)
	}

	moduli := map[string]int{
		"String": 11, "Int": 12, "Long": 13, "Float": 14, "Double": 16, "Bool": 17,
		"Char": 18, "Short": 19, "BigDec": 21, "BigInt": 22, "Byte": 19,
	}
	for name, m := range moduli {
		values := mustColumn(t, tbl, name)
		for i, v := range values {
			if i%m == 0 {
				assert.Nil(t, v, "%s[%d]", name, i)
			} else {
				assert.NotNil(t, v, "%s[%d]", name, i)
			}
		}
	}

	doubles := mustColumn(t, tbl, "Double")
	assert.True(t, math.IsInf(doubles[10].(float64), 1))
	assert.True(t, math.IsInf(doubles[5].(float64), -1))
	assert.Equal(t, 999.0, doubles[1])

	floats := mustColumn(t, tbl, "Float")
	assert.True(t, math.IsInf(float64(floats[10].(float32)), 1))
	assert.Equal(t, float32(2997), floats[2])

	assert.Equal(t, "a999", mustColumn(t, tbl, "String")[1])
	assert.Equal(t, "a2997", mustColumn(t, tbl, "String")[2])
	assert.Equal(t, int32(999), mustColumn(t, tbl, "Int")[1])
	assert.Equal(t, int64(36963), mustColumn(t, tbl, "Long")[19])
	assert.Equal(t, false, mustColumn(t, tbl, "Bool")[1])
	assert.Equal(t, true, mustColumn(t, tbl, "Bool")[2])
	assert.Equal(t, data.Char('b'), mustColumn(t, tbl, "Char")[1])
	assert.Equal(t, data.Char('e'), mustColumn(t, tbl, "Char")[2])
	assert.Equal(t, int16(18981), mustColumn(t, tbl, "Short")[10])
	assert.Equal(t, int8(1), mustColumn(t, tbl, "Byte")[1])
	assert.True(t, decimal.NewFromInt(999).Equal(mustColumn(t, tbl, "BigDec")[1].(decimal.Decimal)))
	assert.Equal(t, "999", mustColumn(t, tbl, "BigInt")[1].(*big.Int).String())
}

func TestTypesScriptReplacesAllTypes(t *testing.T) {
	eng := runFixtures(t, "tables", "types")
	tbl := mustTable(t, eng, "all_types")
	assert.Equal(t, allTypesSize, tbl.Size())
}

func TestPlots(t *testing.T) {
	eng := runFixtures(t, "plots")

	for _, name := range []string{"simple_plot", "trig_figure", "hidden_series_plot"} {
		_, err := eng.FigureByName(name)
		assert.NoError(t, err, name)
	}

	trig, _ := eng.FigureByName("trig_figure")
	sine, ok := trig.Series("Sine")
	require.True(t, ok)
	assert.Equal(t, "circle", sine.Shape)
	require.NotNil(t, sine.ShapesVisible)
	assert.True(t, *sine.ShapesVisible)

	hidden, _ := eng.FigureByName("hidden_series_plot")
	series, ok := hidden.Series("Hidden")
	require.True(t, ok)
	assert.False(t, series.Visible)

	simple, _ := eng.FigureByName("simple_plot")
	test, ok := simple.Series("Test")
	require.True(t, ok)
	assert.Equal(t, plot.StyleLine, test.PlotStyle)
}

func TestAppendOnly(t *testing.T) {
	eng := runFixtures(t, "append_only")
	blink := mustTable(t, eng, "blink_table")
	appendOnly := mustTable(t, eng, "append_only")

	assert.Equal(t, 50, blink.Size())
	assert.Equal(t, 50, appendOnly.Size())

	require.NoError(t, eng.Call(context.Background(), "add_more_rows"))

	assert.Equal(t, 50, blink.Size())
	assert.Equal(t, "End", mustColumn(t, blink, "x")[0])

	require.Equal(t, 100, appendOnly.Size())
	xs := mustColumn(t, appendOnly, "x")
	ys := mustColumn(t, appendOnly, "y")
	for i := 0; i < 100; i++ {
		want := "Start"
		if i >= 50 {
			want = "End"
		}
		assert.Equal(t, want, xs[i])
		assert.Equal(t, int32(i%50), ys[i])
	}

	require.NoError(t, eng.Call(context.Background(), "add_more_rows"))
	assert.Equal(t, 150, appendOnly.Size())
}

func TestShrinkGrow(t *testing.T) {
	ctx := context.Background()
	eng := runFixtures(t, "shrink_grow")
	tbl := mustTable(t, eng, "shrink_grow")

	require.Equal(t, initialSize, tbl.Size())
	xs := mustColumn(t, tbl, "X")
	assert.Equal(t, int64(0), xs[0])
	assert.Equal(t, int64(49), xs[49])

	require.NoError(t, eng.Call(ctx, "shrink"))
	require.NoError(t, eng.Refresh(ctx, "shrink_grow"))
	assert.Equal(t, shrunkSize, tbl.Size())

	require.NoError(t, eng.Call(ctx, "grow"))
	require.NoError(t, eng.Refresh(ctx, "shrink_grow"))
	assert.Equal(t, grownSize, tbl.Size())
}
