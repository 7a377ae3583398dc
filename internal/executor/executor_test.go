package executor

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leengari/mini-tables/internal/engine"
	"github.com/leengari/mini-tables/internal/query/operations"
)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e := engine.New()
	t.Cleanup(e.Close)

	tbl, err := e.NewTable(
		operations.IntCol("id", 1, 2, 3),
		operations.DoubleCol("value", 1.5, nil, math.Inf(1)),
		operations.StringCol("label", "a", "b", "c"),
	)
	require.NoError(t, err)
	require.NoError(t, e.Set("numbers", tbl))

	require.NoError(t, e.Set("bump", func(ctx context.Context) error { return nil }))
	return e
}

func TestExecuteList(t *testing.T) {
	e := newEngine(t)
	res, err := Execute(context.Background(), e, Command{Op: "list"})
	require.NoError(t, err)
	assert.Equal(t, []engine.Variable{
		{Name: "bump", Type: "function"},
		{Name: "numbers", Type: "table"},
	}, res.Variables)
}

func TestExecuteGet(t *testing.T) {
	e := newEngine(t)
	res, err := Execute(context.Background(), e, Command{Op: "get", Name: "numbers"})
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "value", "label"}, res.Columns)
	assert.Equal(t, ColumnMetadata{Name: "value", Type: "float64"}, res.Metadata[1])
	assert.Equal(t, 3, res.Total)
	require.Len(t, res.Rows, 3)

	v, ok := res.Rows[2].Get("value")
	require.True(t, ok)
	assert.Equal(t, "Infinity", v)

	// rows keep column order on the wire
	raw, err := json.Marshal(res.Rows[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"value":1.5,"label":"a"}`, string(raw))
	assert.Regexp(t, `^\{"id":1,"value":1.5,"label":"a"\}$`, string(raw))
}

func TestExecuteGetWithQuery(t *testing.T) {
	e := newEngine(t)
	res, err := Execute(context.Background(), e, Command{
		Op:      "get",
		Name:    "numbers",
		Where:   "id >= 2",
		Columns: []string{"label"},
		Limit:   1,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"label"}, res.Columns)
	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Rows, 1)
	label, _ := res.Rows[0].Get("label")
	assert.Equal(t, "b", label)
}

func TestExecuteErrors(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	tests := []Command{
		{Op: "get", Name: "missing"},
		{Op: "get", Name: "numbers", Where: "nope > 1"},
		{Op: "get", Name: "numbers", Columns: []string{"nope"}},
		{Op: "call", Name: "numbers"},
		{Op: "figure", Name: "numbers"},
		{Op: "refresh", Name: "numbers"},
		{Op: "drop", Name: "numbers"},
	}
	for _, cmd := range tests {
		_, err := Execute(ctx, e, cmd)
		assert.Error(t, err, "%+v", cmd)
	}
}

func TestExecuteCall(t *testing.T) {
	e := newEngine(t)
	res, err := Execute(context.Background(), e, Command{Op: "CALL", Name: "bump"})
	require.NoError(t, err)
	assert.Equal(t, "called bump", res.Message)
}

func TestErrorResult(t *testing.T) {
	res := ErrorResult(assert.AnError)
	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"`+assert.AnError.Error()+`"}`, string(raw))
}
