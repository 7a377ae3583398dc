package operations

import (
	"fmt"

	"github.com/leengari/mini-tables/internal/domain/schema"
	"github.com/leengari/mini-tables/internal/domain/table"
)

// ColumnSpec is a named, typed column of literal values; nil is null
type ColumnSpec struct {
	Column schema.Column
	Values []any
}

func col(name string, t schema.ColumnType, values []any) ColumnSpec {
	return ColumnSpec{Column: schema.Column{Name: name, Type: t}, Values: values}
}

func StringCol(name string, values ...any) ColumnSpec {
	return col(name, schema.ColumnTypeString, values)
}

func ByteCol(name string, values ...any) ColumnSpec {
	return col(name, schema.ColumnTypeByte, values)
}

func ShortCol(name string, values ...any) ColumnSpec {
	return col(name, schema.ColumnTypeShort, values)
}

func IntCol(name string, values ...any) ColumnSpec {
	return col(name, schema.ColumnTypeInt, values)
}

func LongCol(name string, values ...any) ColumnSpec {
	return col(name, schema.ColumnTypeLong, values)
}

func FloatCol(name string, values ...any) ColumnSpec {
	return col(name, schema.ColumnTypeFloat, values)
}

func DoubleCol(name string, values ...any) ColumnSpec {
	return col(name, schema.ColumnTypeDouble, values)
}

func BoolCol(name string, values ...any) ColumnSpec {
	return col(name, schema.ColumnTypeBool, values)
}

// CharCol accepts data.Char or one-character strings
func CharCol(name string, values ...any) ColumnSpec {
	return col(name, schema.ColumnTypeChar, values)
}

// InstantCol accepts time.Time values
func InstantCol(name string, values ...any) ColumnSpec {
	return col(name, schema.ColumnTypeInstant, values)
}

// DecimalCol accepts decimal.Decimal, numbers or numeric strings
func DecimalCol(name string, values ...any) ColumnSpec {
	return col(name, schema.ColumnTypeDecimal, values)
}

// BigIntCol accepts *big.Int, integers or numeric strings
func BigIntCol(name string, values ...any) ColumnSpec {
	return col(name, schema.ColumnTypeBigInt, values)
}

// TypedCol builds a column of any type
func TypedCol(name string, t schema.ColumnType, values ...any) ColumnSpec {
	return col(name, t, values)
}

// NewTable builds a snapshot from literal columns. All columns must have
// the same length and every value must fit its column type.
func NewTable(columns ...ColumnSpec) (*table.Snapshot, error) {
	cols := make([]schema.Column, len(columns))
	values := make([][]any, len(columns))
	for i, c := range columns {
		cols[i] = c.Column
		values[i] = c.Values
	}
	s, err := schema.New(cols...)
	if err != nil {
		return nil, fmt.Errorf("new_table: %w", err)
	}
	snap, err := table.NewSnapshot(s, values)
	if err != nil {
		return nil, fmt.Errorf("new_table: %w", err)
	}
	return snap, nil
}

// EmptyTable returns n rows with no columns, to be filled by Update
func EmptyTable(n int) *table.Snapshot {
	return table.NoColumns(n)
}
