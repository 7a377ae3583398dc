package plot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leengari/mini-tables/internal/domain/schema"
	"github.com/leengari/mini-tables/internal/domain/table"
	"github.com/leengari/mini-tables/internal/query/operations"
)

func trigTable(t *testing.T) *table.Table {
	t.Helper()
	snap, err := operations.Update(operations.EmptyTable(10), nil,
		"x = i", "y = Math.sin(i)", "z = Math.cos(i)", "label = `p` + i")
	require.NoError(t, err)
	return table.NewStatic("trig", snap)
}

func TestPlotXYShow(t *testing.T) {
	tbl := trigTable(t)

	fig, err := NewFigure().
		FigureTitle("Trig").
		PlotXY("Sine", tbl, "x", "y").PointsVisible(true).PointShape("CIRCLE").
		PlotXY("Cosine", tbl, "x", "z").SeriesVisible(false).
		XLabel("x").
		Show()
	require.NoError(t, err)

	require.Len(t, fig.Charts, 1)
	require.Len(t, fig.Charts[0].Series, 2)

	sine, ok := fig.Series("Sine")
	require.True(t, ok)
	assert.Equal(t, "circle", sine.Shape)
	require.NotNil(t, sine.ShapesVisible)
	assert.True(t, *sine.ShapesVisible)
	assert.True(t, sine.Visible)
	assert.Equal(t, schema.ColumnTypeInt, sine.Sources[0].ColumnType)
	assert.Equal(t, schema.ColumnTypeDouble, sine.Sources[1].ColumnType)

	cosine, _ := fig.Series("Cosine")
	assert.False(t, cosine.Visible)

	assert.Len(t, fig.Tables(), 1)
	assert.Equal(t, "x", fig.Charts[0].Axes[0].Label)
}

func TestShowValidation(t *testing.T) {
	tbl := trigTable(t)

	_, err := NewFigure().PlotXY("s", tbl, "x", "missing").Show()
	assert.ErrorContains(t, err, "missing")

	_, err = NewFigure().PlotXY("s", tbl, "x", "label").Show()
	assert.ErrorContains(t, err, "cannot be plotted")

	_, err = NewFigure().Show()
	assert.Error(t, err)

	_, err = NewFigure().PointsVisible(true).PlotXY("s", tbl, "x", "y").Show()
	assert.ErrorContains(t, err, "no series")

	_, err = NewFigure().PlotXY("s", tbl, "x", "y").PointShape("hexagon").Show()
	assert.ErrorContains(t, err, "hexagon")

	_, err = NewFigure().PlotXY("s", tbl, "x", "y").PlotXY("s", tbl, "x", "z").Show()
	assert.ErrorContains(t, err, "duplicate")
}

func TestFigureJSON(t *testing.T) {
	fig, err := NewFigure().PlotXY("Test", trigTable(t), "x", "y").Show()
	require.NoError(t, err)

	raw, err := json.Marshal(fig)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	charts := decoded["charts"].([]any)
	series := charts[0].(map[string]any)["series"].([]any)
	first := series[0].(map[string]any)
	assert.Equal(t, "Test", first["name"])
	assert.Equal(t, "LINE", first["plotStyle"])
	assert.NotContains(t, first, "shapesVisible")
	sources := first["sources"].([]any)
	assert.Equal(t, "trig", sources[0].(map[string]any)["table"])
}
