package script

import (
	"fmt"
	"sort"

	"go.starlark.net/starlark"

	"github.com/leengari/mini-tables/internal/domain/table"
	"github.com/leengari/mini-tables/internal/plot"
	"github.com/leengari/mini-tables/internal/query/operations"
	"github.com/leengari/mini-tables/internal/refresh"
	"github.com/leengari/mini-tables/internal/stream"
)

// methods builds the attribute set shared by the wrapper values below
type methods map[string]*starlark.Builtin

func (m methods) names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// tableValue exposes a table to scripts
type tableValue struct {
	r *Runner
	t *table.Table
}

var _ starlark.HasAttrs = (*tableValue)(nil)

func (v *tableValue) String() string        { return fmt.Sprintf("<table %s>", v.t.Name()) }
func (v *tableValue) Type() string          { return "table" }
func (v *tableValue) Freeze()               {}
func (v *tableValue) Truth() starlark.Bool  { return starlark.True }
func (v *tableValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: table") }

func (v *tableValue) Attr(name string) (starlark.Value, error) {
	switch name {
	case "size":
		return starlark.MakeInt(v.t.Size()), nil
	case "name":
		return starlark.String(v.t.Name()), nil
	case "is_refreshing":
		return starlark.Bool(v.t.IsRefreshing()), nil
	case "columns":
		names := v.t.Schema().Names()
		out := make([]starlark.Value, len(names))
		for i, n := range names {
			out[i] = starlark.String(n)
		}
		return starlark.NewList(out), nil
	case "update":
		return starlark.NewBuiltin("update", v.update), nil
	}
	return nil, nil
}

func (v *tableValue) AttrNames() []string {
	return []string{"columns", "is_refreshing", "name", "size", "update"}
}

func (v *tableValue) update(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var formulas starlark.Value
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "formulas", &formulas); err != nil {
		return nil, err
	}
	list, err := toStrings(formulas)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	out, err := v.r.eng.Update(v.t, list...)
	if err != nil {
		return nil, err
	}
	return &tableValue{r: v.r, t: out}, nil
}

// columnValue is the result of string_col and friends
type columnValue struct {
	spec operations.ColumnSpec
}

func (v *columnValue) String() string        { return fmt.Sprintf("<column %s>", v.spec.Column.Name) }
func (v *columnValue) Type() string          { return "column" }
func (v *columnValue) Freeze()               {}
func (v *columnValue) Truth() starlark.Bool  { return starlark.True }
func (v *columnValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: column") }

// publisherValue wraps a table publisher
type publisherValue struct {
	pub *stream.Publisher
	m   methods
}

func newPublisherValue(pub *stream.Publisher) *publisherValue {
	v := &publisherValue{pub: pub}
	v.m = methods{
		"add": starlark.NewBuiltin("add", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var t *tableValue
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &t); err != nil {
				return nil, err
			}
			return starlark.None, pub.Add(t.t.Snapshot())
		}),
		"close": starlark.NewBuiltin("close", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			pub.Close()
			return starlark.None, nil
		}),
		"is_alive": starlark.NewBuiltin("is_alive", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			return starlark.Bool(pub.IsAlive()), nil
		}),
	}
	return v
}

func (v *publisherValue) String() string        { return fmt.Sprintf("<publisher %s>", v.pub.ID()) }
func (v *publisherValue) Type() string          { return "publisher" }
func (v *publisherValue) Freeze()               {}
func (v *publisherValue) Truth() starlark.Bool  { return starlark.Bool(v.pub.IsAlive()) }
func (v *publisherValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: publisher") }
func (v *publisherValue) AttrNames() []string   { return v.m.names() }

func (v *publisherValue) Attr(name string) (starlark.Value, error) {
	if b, ok := v.m[name]; ok {
		return b, nil
	}
	return nil, nil
}

// cellValue is mutable shared state that survives global freezing, so
// callbacks can change what a generator reads on its next tick
type cellValue struct {
	c *refresh.Cell[starlark.Value]
	m methods
}

func newCellValue(initial starlark.Value) *cellValue {
	v := &cellValue{c: refresh.NewCell(initial)}
	v.m = methods{
		"get": starlark.NewBuiltin("get", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
				return nil, err
			}
			return v.c.Load(), nil
		}),
		"set": starlark.NewBuiltin("set", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var next starlark.Value
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &next); err != nil {
				return nil, err
			}
			v.c.Store(next)
			return starlark.None, nil
		}),
	}
	return v
}

func (v *cellValue) String() string        { return fmt.Sprintf("cell(%s)", v.c.Load()) }
func (v *cellValue) Type() string          { return "cell" }
func (v *cellValue) Freeze()               {}
func (v *cellValue) Truth() starlark.Bool  { return starlark.True }
func (v *cellValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: cell") }
func (v *cellValue) AttrNames() []string   { return v.m.names() }

func (v *cellValue) Attr(name string) (starlark.Value, error) {
	if b, ok := v.m[name]; ok {
		return b, nil
	}
	return nil, nil
}

// figureValue is a validated figure returned by show()
type figureValue struct {
	f *plot.Figure
}

func (v *figureValue) String() string        { return "<figure>" }
func (v *figureValue) Type() string          { return "figure" }
func (v *figureValue) Freeze()               {}
func (v *figureValue) Truth() starlark.Bool  { return starlark.True }
func (v *figureValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: figure") }
