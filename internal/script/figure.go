package script

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/leengari/mini-tables/internal/plot"
)

// figureBuilderValue exposes plot.Builder as a chainable object
type figureBuilderValue struct {
	b *plot.Builder
}

func (v *figureBuilderValue) String() string        { return "<figure builder>" }
func (v *figureBuilderValue) Type() string          { return "figure_builder" }
func (v *figureBuilderValue) Freeze()               {}
func (v *figureBuilderValue) Truth() starlark.Bool  { return starlark.True }
func (v *figureBuilderValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: figure_builder") }

var figureMethods = []string{
	"chart_title", "figure_title", "lines_visible", "plot_xy", "point_shape",
	"point_size", "points_visible", "series_visible", "show", "x_label", "y_label",
}

func (v *figureBuilderValue) AttrNames() []string { return figureMethods }

func (v *figureBuilderValue) Attr(name string) (starlark.Value, error) {
	var fn func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error)

	switch name {
	case "plot_xy":
		fn = func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var series, x, y string
			var t *tableValue
			if err := starlark.UnpackArgs(b.Name(), args, kwargs,
				"series_name", &series, "t", &t, "x", &x, "y", &y); err != nil {
				return nil, err
			}
			v.b.PlotXY(series, t.t, x, y)
			return v, nil
		}
	case "figure_title", "chart_title", "x_label", "y_label", "point_shape":
		fn = func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var s string
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &s); err != nil {
				return nil, err
			}
			switch name {
			case "figure_title":
				v.b.FigureTitle(s)
			case "chart_title":
				v.b.ChartTitle(s)
			case "x_label":
				v.b.XLabel(s)
			case "y_label":
				v.b.YLabel(s)
			default:
				v.b.PointShape(s)
			}
			return v, nil
		}
	case "points_visible", "lines_visible", "series_visible":
		fn = func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			visible := true
			if err := starlark.UnpackArgs(b.Name(), args, kwargs, "visible?", &visible); err != nil {
				return nil, err
			}
			switch name {
			case "points_visible":
				v.b.PointsVisible(visible)
			case "lines_visible":
				v.b.LinesVisible(visible)
			default:
				v.b.SeriesVisible(visible)
			}
			return v, nil
		}
	case "point_size":
		fn = func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var size starlark.Value
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &size); err != nil {
				return nil, err
			}
			f, ok := starlark.AsFloat(size)
			if !ok {
				return nil, fmt.Errorf("%s: want a number, got %s", b.Name(), size.Type())
			}
			v.b.PointSize(f)
			return v, nil
		}
	case "show":
		fn = func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
				return nil, err
			}
			f, err := v.b.Show()
			if err != nil {
				return nil, err
			}
			return &figureValue{f: f}, nil
		}
	default:
		return nil, nil
	}
	return starlark.NewBuiltin(name, fn), nil
}
