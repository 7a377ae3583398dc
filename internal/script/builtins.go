package script

import (
	"context"
	"fmt"
	"time"

	"go.starlark.net/starlark"

	"github.com/leengari/mini-tables/internal/domain/schema"
	"github.com/leengari/mini-tables/internal/domain/table"
	"github.com/leengari/mini-tables/internal/query/operations"
)

type builtinFn = func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error)

// columnBuiltins maps each column constructor to its column type
var columnBuiltins = map[string]schema.ColumnType{
	"string_col":   schema.ColumnTypeString,
	"byte_col":     schema.ColumnTypeByte,
	"short_col":    schema.ColumnTypeShort,
	"int_col":      schema.ColumnTypeInt,
	"long_col":     schema.ColumnTypeLong,
	"float_col":    schema.ColumnTypeFloat,
	"double_col":   schema.ColumnTypeDouble,
	"bool_col":     schema.ColumnTypeBool,
	"char_col":     schema.ColumnTypeChar,
	"datetime_col": schema.ColumnTypeInstant,
}

func (r *Runner) builtins() starlark.StringDict {
	predeclared := starlark.StringDict{
		"empty_table":              starlark.NewBuiltin("empty_table", r.emptyTable),
		"new_table":                starlark.NewBuiltin("new_table", r.newTable),
		"time_table":               starlark.NewBuiltin("time_table", r.timeTable),
		"table_publisher":          starlark.NewBuiltin("table_publisher", r.tablePublisher),
		"blink_to_append_only":     starlark.NewBuiltin("blink_to_append_only", r.blinkToAppendOnly),
		"function_generated_table": starlark.NewBuiltin("function_generated_table", r.functionGeneratedTable),
		"to_instant":               starlark.NewBuiltin("to_instant", r.toInstant),
		"cell":                     starlark.NewBuiltin("cell", newCell),
		"Figure":                   starlark.NewBuiltin("Figure", r.figure),
	}
	for name, typ := range columnBuiltins {
		predeclared[name] = starlark.NewBuiltin(name, r.column(typ))
	}
	return predeclared
}

func (r *Runner) table(t *table.Table) *tableValue {
	return &tableValue{r: r, t: t}
}

func (r *Runner) emptyTable(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var size int
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "size", &size); err != nil {
		return nil, err
	}
	if size < 0 {
		return nil, fmt.Errorf("%s: negative size %d", b.Name(), size)
	}
	return r.table(r.eng.EmptyTable(size)), nil
}

func (r *Runner) column(typ schema.ColumnType) builtinFn {
	return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var name string
		var list starlark.Value
		if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name, "data", &list); err != nil {
			return nil, err
		}
		values, err := toValues(list)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
		if typ == schema.ColumnTypeInstant {
			for i, v := range values {
				s, ok := v.(string)
				if !ok {
					continue
				}
				ts, err := r.eng.ParseInstant(s)
				if err != nil {
					return nil, fmt.Errorf("%s: element %d: %w", b.Name(), i, err)
				}
				values[i] = ts
			}
		}
		return &columnValue{spec: operations.TypedCol(name, typ, values...)}, nil
	}
}

func (r *Runner) newTable(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var list *starlark.List
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "cols", &list); err != nil {
		return nil, err
	}
	specs := make([]operations.ColumnSpec, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		c, ok := list.Index(i).(*columnValue)
		if !ok {
			return nil, fmt.Errorf("%s: element %d is %s, want column", b.Name(), i, list.Index(i).Type())
		}
		specs = append(specs, c.spec)
	}
	t, err := r.eng.NewTable(specs...)
	if err != nil {
		return nil, err
	}
	return r.table(t), nil
}

func (r *Runner) timeTable(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var period string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "period", &period); err != nil {
		return nil, err
	}
	d, err := parsePeriod(period)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	t, err := r.eng.TimeTable(d)
	if err != nil {
		return nil, err
	}
	return r.table(t), nil
}

func (r *Runner) tablePublisher(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	var colDefs *starlark.Dict
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name, "col_defs", &colDefs); err != nil {
		return nil, err
	}

	columns := make([]schema.Column, 0, colDefs.Len())
	for _, item := range colDefs.Items() {
		colName, ok1 := starlark.AsString(item[0])
		typeName, ok2 := starlark.AsString(item[1])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%s: col_defs must map names to type names", b.Name())
		}
		typ, err := schema.ParseColumnType(typeName)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
		columns = append(columns, schema.Column{Name: colName, Type: typ})
	}
	s, err := schema.New(columns...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}

	blink, pub := r.eng.TablePublisher(name, s)
	return starlark.Tuple{r.table(blink), newPublisherValue(pub)}, nil
}

func (r *Runner) blinkToAppendOnly(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var blink *tableValue
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "table", &blink); err != nil {
		return nil, err
	}
	t, err := r.eng.BlinkToAppendOnly(blink.t)
	if err != nil {
		return nil, err
	}
	return r.table(t), nil
}

func (r *Runner) functionGeneratedTable(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var generator starlark.Callable
	var intervalMs starlark.Value = starlark.None
	name := "function_generated_table"
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"table_generator", &generator,
		"refresh_interval_ms?", &intervalMs,
		"name?", &name); err != nil {
		return nil, err
	}

	interval := r.interval
	if intervalMs != starlark.None {
		ms, err := starlark.AsInt32(intervalMs)
		if err != nil {
			return nil, fmt.Errorf("%s: refresh_interval_ms: %w", b.Name(), err)
		}
		interval = time.Duration(ms) * time.Millisecond
	}

	gen := func(ctx context.Context) (*table.Snapshot, error) {
		th, done := r.newThread(ctx, name)
		defer done()
		res, err := starlark.Call(th, generator, nil, nil)
		if err != nil {
			return nil, err
		}
		tv, ok := res.(*tableValue)
		if !ok {
			return nil, fmt.Errorf("table_generator returned %s, want table", res.Type())
		}
		return tv.t.Snapshot(), nil
	}

	t, err := r.eng.FunctionGeneratedTable(threadContext(thread), name, gen, interval)
	if err != nil {
		return nil, err
	}
	return r.table(t), nil
}

func (r *Runner) toInstant(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var s string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &s); err != nil {
		return nil, err
	}
	ts, err := r.eng.ParseInstant(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return &instantValue{t: ts}, nil
}

func newCell(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var initial starlark.Value = starlark.None
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0, &initial); err != nil {
		return nil, err
	}
	return newCellValue(initial), nil
}

func (r *Runner) figure(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	return &figureBuilderValue{b: r.eng.Figure()}, nil
}
