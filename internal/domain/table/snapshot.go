package table

import (
	"fmt"

	"github.com/leengari/mini-tables/internal/domain/data"
	"github.com/leengari/mini-tables/internal/domain/errors"
	"github.com/leengari/mini-tables/internal/domain/schema"
)

// Snapshot is an immutable columnar set of rows. All column slices have
// the same length and every cell is null or the column's Go type.
type Snapshot struct {
	schema  *schema.TableSchema
	columns [][]any
	rows    int
}

// NewSnapshot validates and coerces columns against the schema.
// The caller's slices are copied.
func NewSnapshot(s *schema.TableSchema, columns [][]any) (*Snapshot, error) {
	if len(columns) != len(s.Columns) {
		return nil, &errors.SchemaMismatchError{
			Target:   "snapshot",
			Expected: s.String(),
			Got:      fmt.Sprintf("%d columns", len(columns)),
		}
	}

	rows := 0
	if len(columns) > 0 {
		rows = len(columns[0])
	}

	coerced := make([][]any, len(columns))
	for c, col := range s.Columns {
		values := columns[c]
		if len(values) != rows {
			return nil, errors.NewColumnCountMismatch(col.Name, rows, len(values))
		}
		out := make([]any, rows)
		for r, v := range values {
			if v == nil {
				if col.NotNull {
					return nil, errors.NewNotNullViolation(col.Name, r)
				}
				continue
			}
			cv, err := data.Coerce(v, col.Type)
			if err != nil {
				return nil, errors.NewTypeMismatch(col.Name, v, string(col.Type), r)
			}
			out[r] = cv
		}
		coerced[c] = out
	}

	return &Snapshot{schema: s, columns: coerced, rows: rows}, nil
}

// Empty returns a snapshot with the schema and no rows
func Empty(s *schema.TableSchema) *Snapshot {
	cols := make([][]any, len(s.Columns))
	for i := range cols {
		cols[i] = []any{}
	}
	return &Snapshot{schema: s, columns: cols}
}

// newTrusted wraps columns that are already coerced, without copying
func newTrusted(s *schema.TableSchema, columns [][]any, rows int) *Snapshot {
	return &Snapshot{schema: s, columns: columns, rows: rows}
}

func (s *Snapshot) Schema() *schema.TableSchema { return s.schema }

func (s *Snapshot) NumRows() int { return s.rows }

func (s *Snapshot) NumColumns() int { return len(s.columns) }

// Column returns a copy of the named column's cells
func (s *Snapshot) Column(name string) ([]any, error) {
	i := s.schema.ColumnIndex(name)
	if i < 0 {
		return nil, &errors.ColumnNotFoundError{ColumnName: name}
	}
	out := make([]any, s.rows)
	copy(out, s.columns[i])
	return out, nil
}

// ColumnAt exposes the backing slice of column i; callers must not modify it
func (s *Snapshot) ColumnAt(i int) []any {
	return s.columns[i]
}

// Value returns a single cell
func (s *Snapshot) Value(column string, row int) (any, error) {
	i := s.schema.ColumnIndex(column)
	if i < 0 {
		return nil, &errors.ColumnNotFoundError{ColumnName: column}
	}
	if row < 0 || row >= s.rows {
		return nil, &errors.ConstraintError{Column: column, Constraint: "row_range", Reason: "row out of range", RowIndex: row}
	}
	return s.columns[i][row], nil
}

// Row returns a view of row r
func (s *Snapshot) Row(r int) data.Row {
	values := make([]any, len(s.columns))
	for c := range s.columns {
		values[c] = s.columns[c][r]
	}
	return data.Row{Columns: s.schema.Names(), Values: values}
}

// Rows returns all rows in order
func (s *Snapshot) Rows() []data.Row {
	names := s.schema.Names()
	rows := make([]data.Row, s.rows)
	for r := 0; r < s.rows; r++ {
		values := make([]any, len(s.columns))
		for c := range s.columns {
			values[c] = s.columns[c][r]
		}
		rows[r] = data.Row{Columns: names, Values: values}
	}
	return rows
}

// Concat returns a new snapshot holding s's rows followed by other's
func (s *Snapshot) Concat(other *Snapshot) (*Snapshot, error) {
	if !s.schema.Equal(other.schema) {
		return nil, &errors.SchemaMismatchError{Target: "concat", Expected: s.schema.String(), Got: other.schema.String()}
	}
	cols := make([][]any, len(s.columns))
	for c := range s.columns {
		col := make([]any, 0, s.rows+other.rows)
		col = append(col, s.columns[c]...)
		col = append(col, other.columns[c]...)
		cols[c] = col
	}
	return newTrusted(s.schema, cols, s.rows+other.rows), nil
}

// Head returns the first n rows
func (s *Snapshot) Head(n int) *Snapshot {
	if n >= s.rows {
		return s
	}
	return s.Slice(0, n)
}

// Slice returns rows [from, to)
func (s *Snapshot) Slice(from, to int) *Snapshot {
	if from < 0 {
		from = 0
	}
	if to > s.rows {
		to = s.rows
	}
	if from >= to {
		return newTrusted(s.schema, make([][]any, len(s.columns)), 0)
	}
	cols := make([][]any, len(s.columns))
	for c := range s.columns {
		cols[c] = s.columns[c][from:to:to]
	}
	return newTrusted(s.schema, cols, to-from)
}

// NoColumns returns a snapshot of n rows and no columns, the starting
// point of empty_table(n)
func NoColumns(n int) *Snapshot {
	if n < 0 {
		n = 0
	}
	return newTrusted(schema.MustNew(), [][]any{}, n)
}

// WithColumn returns a copy with values stored under col, replacing a
// same-named column in place or appending a new one. values must already
// hold col.Type cells and have NumRows entries.
func (s *Snapshot) WithColumn(col schema.Column, values []any) (*Snapshot, error) {
	if len(values) != s.rows {
		return nil, errors.NewColumnCountMismatch(col.Name, s.rows, len(values))
	}
	next := s.schema.WithColumn(col)
	cols := make([][]any, len(next.Columns))
	copy(cols, s.columns)
	cols[next.ColumnIndex(col.Name)] = values
	return newTrusted(next, cols, s.rows), nil
}
