package script

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leengari/mini-tables/internal/domain/table"
	"github.com/leengari/mini-tables/internal/engine"
)

func newRunner(t *testing.T) (*Runner, *engine.Engine) {
	t.Helper()
	e := engine.New()
	t.Cleanup(e.Close)
	return NewRunner(e, time.Hour), e
}

func mustTable(t *testing.T, e *engine.Engine, name string) *table.Table {
	t.Helper()
	tbl, err := e.Table(name)
	require.NoError(t, err)
	return tbl
}

func TestSimpleTableScript(t *testing.T) {
	r, e := newRunner(t)
	ctx := context.Background()

	src := `
simple_table = empty_table(100).update(["x = i", "y = Math.sin(i)", "z = Math.cos(i)"])
_scratch = empty_table(3)
n = simple_table.size
`
	require.NoError(t, r.RunSource(ctx, "tables", src))

	tbl := mustTable(t, e, "simple_table")
	assert.Equal(t, 100, tbl.Size())
	assert.Equal(t, []string{"x", "y", "z"}, tbl.Schema().Names())

	_, ok := e.Get("_scratch")
	assert.False(t, ok, "underscore names stay private")
	_, ok = e.Get("n")
	assert.False(t, ok, "plain values are not registered")
}

func TestNewTableWithNulls(t *testing.T) {
	r, e := newRunner(t)

	src := `
multiselect_number = new_table([double_col("Numbers", [1, 2, None, 3, 4, 0, -1.1, 1.1])])
multiselect_char = new_table([char_col("Chars", ["a", "b", None, "c"])])
multiselect_datetime = new_table([datetime_col("Datetimes", [
    "2021-06-02T08:00:02 ET",
    to_instant("2021-06-02T08:00:03 ET"),
    None,
])])
`
	require.NoError(t, r.RunSource(context.Background(), "multiselect", src))

	numbers := mustTable(t, e, "multiselect_number").Snapshot()
	col, err := numbers.Column("Numbers")
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.0, nil, 3.0, 4.0, 0.0, -1.1, 1.1}, col)

	dates := mustTable(t, e, "multiselect_datetime").Snapshot()
	first, err := dates.Value("Datetimes", 0)
	require.NoError(t, err)
	want := time.Date(2021, 6, 2, 12, 0, 2, 0, time.UTC)
	assert.True(t, want.Equal(first.(time.Time)), "got %v", first)
	last, err := dates.Value("Datetimes", 2)
	require.NoError(t, err)
	assert.Nil(t, last)

	assert.Equal(t, 4, mustTable(t, e, "multiselect_char").Size())
}

func TestShrinkGrowScript(t *testing.T) {
	r, e := newRunner(t)
	ctx := context.Background()

	src := `
size = cell(50)

def _generate():
    return empty_table(size.get()).update(["X = ii"])

shrink_grow = function_generated_table(_generate, refresh_interval_ms=3600000)

def shrink():
    size.set(30)

def grow():
    size.set(70)
`
	require.NoError(t, r.RunSource(ctx, "shrink_grow", src))
	tbl := mustTable(t, e, "shrink_grow")
	assert.Equal(t, 50, tbl.Size())

	require.NoError(t, e.Call(ctx, "shrink"))
	assert.Equal(t, 50, tbl.Size(), "size only changes on the next tick")
	require.NoError(t, e.Refresh(ctx, "shrink_grow"))
	assert.Equal(t, 30, tbl.Size())

	require.NoError(t, e.Call(ctx, "grow"))
	require.NoError(t, e.Refresh(ctx, "shrink_grow"))
	assert.Equal(t, 70, tbl.Size())

	last, err := tbl.Snapshot().Value("X", 69)
	require.NoError(t, err)
	assert.EqualValues(t, 69, last)
}

func TestAppendOnlyScript(t *testing.T) {
	r, e := newRunner(t)
	ctx := context.Background()

	src := `
blink_table, _publisher = table_publisher("blink_table", {"x": "string", "y": "int"})
append_only = blink_to_append_only(blink_table)

def _batch(label):
    return new_table([string_col("x", [label] * 5), int_col("y", list(range(5)))])

_publisher.add(_batch("Start"))

def add_more_rows():
    _publisher.add(_batch("End"))
`
	require.NoError(t, r.RunSource(ctx, "append_only", src))

	appendOnly := mustTable(t, e, "append_only")
	blink := mustTable(t, e, "blink_table")
	assert.Equal(t, 5, appendOnly.Size())

	require.NoError(t, e.Call(ctx, "add_more_rows"))
	assert.Equal(t, 10, appendOnly.Size())
	assert.Equal(t, 5, blink.Size())

	snap := appendOnly.Snapshot()
	first, _ := snap.Value("x", 0)
	last, _ := snap.Value("x", 9)
	assert.Equal(t, "Start", first)
	assert.Equal(t, "End", last)
}

func TestFigureScript(t *testing.T) {
	r, e := newRunner(t)

	src := `
_t = empty_table(10).update(["x = i", "y = Math.sin(i)", "z = Math.cos(i)"])
trig_figure = Figure().plot_xy(series_name="Sine", t=_t, x="x", y="y").points_visible(True).point_shape("circle").plot_xy(series_name="Cosine", t=_t, x="x", y="z").show()
`
	require.NoError(t, r.RunSource(context.Background(), "plots", src))

	f, err := e.FigureByName("trig_figure")
	require.NoError(t, err)
	sine, ok := f.Series("Sine")
	require.True(t, ok)
	assert.Equal(t, "circle", sine.Shape)
	_, ok = f.Series("Cosine")
	assert.True(t, ok)
}

func TestScriptErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"syntax", "x = (", "broken.star:1"},
		{"bad formula", `t = empty_table(1).update(["y = nope"])`, "nope"},
		{"unknown type", `t, p = table_publisher("b", {"x": "widget"})`, "unknown column type"},
		{"mismatched column", `t = new_table([int_col("x", ["a"])])`, "expected type int32"},
		{"bad period", `t = time_table("soon")`, "invalid period"},
		{"generator result", `t = function_generated_table(lambda: 1)`, "want table"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newRunner(t)
			err := r.RunSource(context.Background(), "broken", tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRunDir(t *testing.T) {
	r, e := newRunner(t)
	dir := t.TempDir()

	write := func(name, src string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}
	write("b_second.star", `second = empty_table(2)`)
	write("a_first.star", `first = empty_table(1)`)
	write("notes.txt", `not a script`)

	ran, err := r.RunDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a_first", "b_second"}, ran)
	assert.Equal(t, []string{"first", "second"}, e.Names())
}

func TestParsePeriod(t *testing.T) {
	tests := map[string]time.Duration{
		"PT1S":    time.Second,
		"PT1M30S": 90 * time.Second,
		"pt2h":    2 * time.Hour,
		"250ms":   250 * time.Millisecond,
	}
	for in, want := range tests {
		got, err := parsePeriod(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestBundledScript(t *testing.T) {
	r, e := newRunner(t)
	ctx := context.Background()

	require.NoError(t, r.RunFile(ctx, filepath.Join("..", "..", "scripts", "ticking.star")))
	assert.Equal(t, []string{"double_rows", "reset_rows", "resizable", "ticking_plot", "ticking_plot_source"}, e.Names())

	resizable := mustTable(t, e, "resizable")
	assert.Equal(t, 10, resizable.Size())
	require.NoError(t, e.Call(ctx, "double_rows"))
	require.NoError(t, e.Refresh(ctx, "resizable"))
	assert.Equal(t, 20, resizable.Size())

	even, err := resizable.Snapshot().Value("Even", 3)
	require.NoError(t, err)
	assert.Equal(t, false, even)
}
