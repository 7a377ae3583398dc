// Package plot builds declarative figures over tables. A figure only
// names tables and columns; clients fetch the data themselves.
package plot

import (
	"fmt"
	"strings"

	"github.com/leengari/mini-tables/internal/domain/schema"
	"github.com/leengari/mini-tables/internal/domain/table"
)

type PlotStyle string

const (
	StyleLine    PlotStyle = "LINE"
	StyleScatter PlotStyle = "SCATTER"
	StyleBar     PlotStyle = "BAR"
	StyleArea    PlotStyle = "AREA"
	StyleStep    PlotStyle = "STEP"
)

type SourceType string

const (
	SourceX SourceType = "X"
	SourceY SourceType = "Y"
)

// Shapes accepted by PointShape
var Shapes = map[string]bool{
	"circle":         true,
	"square":         true,
	"diamond":        true,
	"up_triangle":    true,
	"down_triangle":  true,
	"right_triangle": true,
	"left_triangle":  true,
}

// Source binds one series axis to a table column
type Source struct {
	Type       SourceType        `json:"type"`
	Table      string            `json:"table"`
	ColumnName string            `json:"columnName"`
	ColumnType schema.ColumnType `json:"columnType"`
}

// Series is one plotted line or point set
type Series struct {
	Name          string    `json:"name"`
	PlotStyle     PlotStyle `json:"plotStyle"`
	LinesVisible  *bool     `json:"linesVisible,omitempty"`
	ShapesVisible *bool     `json:"shapesVisible,omitempty"`
	Shape         string    `json:"shape,omitempty"`
	ShapeSize     float64   `json:"shapeSize,omitempty"`
	Visible       bool      `json:"visible"`
	Sources       []Source  `json:"sources"`

	table *table.Table
}

// Axis describes one chart axis
type Axis struct {
	Type  string `json:"type"`
	Label string `json:"label,omitempty"`
	Log   bool   `json:"log,omitempty"`
}

// Chart holds the series drawn on one set of axes
type Chart struct {
	Title      string    `json:"title,omitempty"`
	ShowLegend bool      `json:"showLegend"`
	Series     []*Series `json:"series"`
	Axes       []Axis    `json:"axes"`
}

// Figure is a built, validated figure. Use NewFigure to build one.
type Figure struct {
	Title  string   `json:"title,omitempty"`
	Charts []*Chart `json:"charts"`
}

// Builder accumulates figure settings; the first error sticks and is
// returned by Show
type Builder struct {
	fig  *Figure
	last *Series
	err  error
}

// NewFigure starts a figure with one empty chart
func NewFigure() *Builder {
	return &Builder{fig: &Figure{Charts: []*Chart{{
		ShowLegend: true,
		Axes:       []Axis{{Type: "X"}, {Type: "Y"}},
	}}}}
}

func (b *Builder) chart() *Chart {
	return b.fig.Charts[len(b.fig.Charts)-1]
}

func (b *Builder) fail(format string, args ...any) *Builder {
	if b.err == nil {
		b.err = fmt.Errorf(format, args...)
	}
	return b
}

// FigureTitle sets the figure title
func (b *Builder) FigureTitle(title string) *Builder {
	b.fig.Title = title
	return b
}

// ChartTitle sets the current chart's title
func (b *Builder) ChartTitle(title string) *Builder {
	b.chart().Title = title
	return b
}

// XLabel and YLabel label the current chart's axes
func (b *Builder) XLabel(label string) *Builder {
	b.chart().Axes[0].Label = label
	return b
}

func (b *Builder) YLabel(label string) *Builder {
	b.chart().Axes[1].Label = label
	return b
}

// PlotXY adds a line series of column y against column x of t
func (b *Builder) PlotXY(name string, t *table.Table, x, y string) *Builder {
	if t == nil {
		return b.fail("plot_xy %s: no table", name)
	}
	for _, s := range b.chart().Series {
		if s.Name == name {
			return b.fail("plot_xy: duplicate series name %q", name)
		}
	}
	s := &Series{
		Name:      name,
		PlotStyle: StyleLine,
		Visible:   true,
		Sources: []Source{
			{Type: SourceX, Table: t.Name(), ColumnName: x},
			{Type: SourceY, Table: t.Name(), ColumnName: y},
		},
		table: t,
	}
	b.chart().Series = append(b.chart().Series, s)
	b.last = s
	return b
}

func (b *Builder) series(op string) *Series {
	if b.last == nil {
		b.fail("%s: no series to style", op)
	}
	return b.last
}

// PlotStyle changes the last series' style
func (b *Builder) PlotStyle(style PlotStyle) *Builder {
	if s := b.series("plot_style"); s != nil {
		s.PlotStyle = style
	}
	return b
}

// PointsVisible toggles markers on the last series
func (b *Builder) PointsVisible(visible bool) *Builder {
	if s := b.series("point_visible"); s != nil {
		s.ShapesVisible = &visible
	}
	return b
}

// LinesVisible toggles the connecting line on the last series
func (b *Builder) LinesVisible(visible bool) *Builder {
	if s := b.series("line_visible"); s != nil {
		s.LinesVisible = &visible
	}
	return b
}

// PointShape sets the marker shape of the last series
func (b *Builder) PointShape(shape string) *Builder {
	s := b.series("point_shape")
	if s == nil {
		return b
	}
	shape = strings.ToLower(shape)
	if !Shapes[shape] {
		return b.fail("point_shape: unknown shape %q", shape)
	}
	s.Shape = shape
	return b
}

// PointSize sets the marker size of the last series
func (b *Builder) PointSize(size float64) *Builder {
	s := b.series("point_size")
	if s == nil {
		return b
	}
	if size <= 0 {
		return b.fail("point_size: size must be positive, got %g", size)
	}
	s.ShapeSize = size
	return b
}

// SeriesVisible hides or shows the last series
func (b *Builder) SeriesVisible(visible bool) *Builder {
	if s := b.series("series_visible"); s != nil {
		s.Visible = visible
	}
	return b
}

// Show validates the figure: every series column must exist and be
// plottable
func (b *Builder) Show() (*Figure, error) {
	if b.err != nil {
		return nil, b.err
	}
	total := 0
	for _, c := range b.fig.Charts {
		for _, s := range c.Series {
			total++
			for i := range s.Sources {
				src := &s.Sources[i]
				col, ok := s.table.Schema().GetColumn(src.ColumnName)
				if !ok {
					return nil, fmt.Errorf("series %s: table %s has no column %q", s.Name, src.Table, src.ColumnName)
				}
				if !col.Type.IsNumeric() && col.Type != schema.ColumnTypeInstant && col.Type != schema.ColumnTypeChar {
					return nil, fmt.Errorf("series %s: column %q of type %s cannot be plotted", s.Name, src.ColumnName, col.Type)
				}
				src.ColumnType = col.Type
			}
		}
	}
	if total == 0 {
		return nil, fmt.Errorf("figure has no series")
	}
	return b.fig, nil
}

// Tables returns the distinct tables the figure reads, in series order
func (f *Figure) Tables() []*table.Table {
	seen := map[*table.Table]bool{}
	var out []*table.Table
	for _, c := range f.Charts {
		for _, s := range c.Series {
			if !seen[s.table] {
				seen[s.table] = true
				out = append(out, s.table)
			}
		}
	}
	return out
}

// Series looks up a series by name across charts
func (f *Figure) Series(name string) (*Series, bool) {
	for _, c := range f.Charts {
		for _, s := range c.Series {
			if s.Name == name {
				return s, true
			}
		}
	}
	return nil, false
}
