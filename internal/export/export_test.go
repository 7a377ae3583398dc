package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leengari/mini-tables/internal/engine"
	"github.com/leengari/mini-tables/internal/query/operations"
	"github.com/leengari/mini-tables/internal/timeconv"
)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e := engine.New()
	t.Cleanup(e.Close)

	tbl, err := e.NewTable(
		operations.StringCol("Strings", "Creating", nil, `say "hi"`),
		operations.DoubleCol("Doubles", 3.1, 5.45, nil),
		operations.BoolCol("Bools", true, false, nil),
		operations.InstantCol("When", timeconv.MustParseInstant("2021-06-02T08:00:02 ET"), nil, nil),
		operations.DecimalCol("Dec", "0.125", nil, "-2"),
	)
	require.NoError(t, err)
	require.NoError(t, e.Set("mixed", tbl))
	require.NoError(t, e.Set("blank", e.EmptyTable(4)))

	fig, err := e.Figure().PlotXY("Test", tbl, "Doubles", "Doubles").Show()
	require.NoError(t, err)
	require.NoError(t, e.Set("plot", fig))
	return e
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, v))
}

func TestToDir(t *testing.T) {
	e := newEngine(t)
	dir := t.TempDir()

	require.NoError(t, ToDir(context.Background(), e, dir))

	var ns NamespaceMeta
	readJSON(t, filepath.Join(dir, "meta.json"), &ns)
	assert.Equal(t, []string{"blank", "mixed"}, ns.Tables)
	assert.Equal(t, []string{"plot"}, ns.Figures)

	var meta TableMeta
	readJSON(t, filepath.Join(dir, "mixed", "meta.json"), &meta)
	assert.Equal(t, "static", meta.Kind)
	assert.Equal(t, 3, meta.RowCount)
	require.Len(t, meta.Columns, 5)
	assert.Equal(t, ColumnMeta{Name: "When", Type: "instant"}, meta.Columns[3])

	var rows []map[string]any
	readJSON(t, filepath.Join(dir, "mixed", "data.json"), &rows)
	require.Len(t, rows, 3)
	assert.Equal(t, "Creating", rows[0]["Strings"])
	assert.Equal(t, "2021-06-02T12:00:02Z", rows[0]["When"])
	assert.Nil(t, rows[1]["Strings"])
	assert.Equal(t, "-2", rows[2]["Dec"])

	var blank []map[string]any
	readJSON(t, filepath.Join(dir, "blank", "data.json"), &blank)
	assert.Len(t, blank, 4)

	_, err := os.Stat(filepath.Join(dir, "figures", "plot.json"))
	assert.NoError(t, err)

	// no temp files are left behind
	matches, err := filepath.Glob(filepath.Join(dir, "*", "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestToDirCancelled(t *testing.T) {
	e := newEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, ToDir(ctx, e, t.TempDir()), context.Canceled)
}

func TestToSQLite(t *testing.T) {
	e := newEngine(t)
	path := filepath.Join(t.TempDir(), "out", "tables.db")
	ctx := context.Background()

	require.NoError(t, ToSQLite(ctx, e, path))
	// a second export replaces the tables
	require.NoError(t, ToSQLite(ctx, e, path))

	conn, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer conn.Close()

	var count int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM "mixed"`).Scan(&count))
	assert.Equal(t, 3, count)
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM "blank"`).Scan(&count))
	assert.Equal(t, 4, count)

	var (
		s    sql.NullString
		d    sql.NullFloat64
		b    sql.NullInt64
		when sql.NullString
		dec  sql.NullString
	)
	row := conn.QueryRow(`SELECT "Strings", "Doubles", "Bools", "When", "Dec" FROM "mixed" WHERE "_row" = 0`)
	require.NoError(t, row.Scan(&s, &d, &b, &when, &dec))
	assert.Equal(t, "Creating", s.String)
	assert.Equal(t, 3.1, d.Float64)
	assert.Equal(t, int64(1), b.Int64)
	assert.Equal(t, "2021-06-02T12:00:02Z", when.String)
	assert.Equal(t, "0.125", dec.String)

	row = conn.QueryRow(`SELECT "Strings", "Doubles" FROM "mixed" WHERE "_row" = 2`)
	require.NoError(t, row.Scan(&s, &d))
	assert.Equal(t, `say "hi"`, s.String)
	assert.False(t, d.Valid)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"a""b"`, quoteIdent(`a"b`))
}
