package fixtures

import (
	"context"

	"github.com/leengari/mini-tables/internal/engine"
)

func runPlots(ctx context.Context, e *engine.Engine, opts Options) error {
	source, err := simpleTable(e)
	if err != nil {
		return err
	}

	simplePlot, err := e.Figure().
		PlotXY("Test", source, "x", "y").
		Show()
	if err != nil {
		return err
	}

	trigFigure, err := e.Figure().
		FigureTitle("Trig").
		PlotXY("Sine", source, "x", "y").PointsVisible(true).PointShape("circle").
		PlotXY("Cosine", source, "x", "z").PointsVisible(true).PointShape("circle").
		Show()
	if err != nil {
		return err
	}

	hiddenSeries, err := e.Figure().
		PlotXY("Visible", source, "x", "y").
		PlotXY("Hidden", source, "x", "z").SeriesVisible(false).
		Show()
	if err != nil {
		return err
	}

	return setAll(e,
		"simple_plot", simplePlot,
		"trig_figure", trigFigure,
		"hidden_series_plot", hiddenSeries,
	)
}

func runTypes(ctx context.Context, e *engine.Engine, opts Options) error {
	allTypes, err := AllTypes()
	if err != nil {
		return err
	}
	return e.Set("all_types", allTypes)
}
