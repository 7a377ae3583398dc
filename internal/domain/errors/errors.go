package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPublisherClosed is returned when adding to a publisher after Close
var ErrPublisherClosed = errors.New("publisher is closed")

// ConstraintError represents a value that violates a column constraint
// (type mismatch, not null, column count)
type ConstraintError struct {
	Table      string // table name (empty for unnamed snapshots)
	Column     string // column name (empty if table-level constraint)
	Value      any    // offending value (may be nil)
	Constraint string // "type_mismatch", "not_null", "column_count"
	Reason     string // human-readable explanation (optional)
	RowIndex   int    // row number (0-based) where violation occurred (-1 if unknown)
}

func (e *ConstraintError) Error() string {
	var parts []string

	target := e.Column
	if e.Table != "" {
		target = e.Table + "." + e.Column
	}
	parts = append(parts, fmt.Sprintf("constraint violation in %s", target))

	if e.Constraint != "" {
		parts = append(parts, fmt.Sprintf("(%s)", e.Constraint))
	}

	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}

	if e.RowIndex >= 0 {
		parts = append(parts, fmt.Sprintf("at row %d", e.RowIndex))
	}

	return strings.Join(parts, " - ")
}

func NewTypeMismatch(column string, value any, expectedType string, rowIndex int) *ConstraintError {
	return &ConstraintError{
		Column:     column,
		Value:      value,
		Constraint: "type_mismatch",
		Reason:     fmt.Sprintf("expected type %s, got %T", expectedType, value),
		RowIndex:   rowIndex,
	}
}

func NewNotNullViolation(column string, rowIndex int) *ConstraintError {
	return &ConstraintError{
		Column:     column,
		Constraint: "not_null",
		Reason:     "missing required value",
		RowIndex:   rowIndex,
	}
}

func NewColumnCountMismatch(column string, expected, got int) *ConstraintError {
	return &ConstraintError{
		Column:     column,
		Constraint: "column_count",
		Reason:     fmt.Sprintf("expected %d values, got %d", expected, got),
		RowIndex:   -1,
	}
}

// ColumnNotFoundError is returned when a referenced column does not exist
type ColumnNotFoundError struct {
	TableName  string
	ColumnName string
}

func (e *ColumnNotFoundError) Error() string {
	if e.TableName == "" {
		return fmt.Sprintf("column not found: %s", e.ColumnName)
	}
	return fmt.Sprintf("column not found: %s.%s", e.TableName, e.ColumnName)
}

// VariableNotFoundError is returned for unknown namespace variables
type VariableNotFoundError struct {
	Name string
	Kind string // "table", "figure", "function" or "" for any
}

func (e *VariableNotFoundError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("variable not found: %s", e.Name)
	}
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Name)
}

// SchemaMismatchError is returned when a batch does not match the
// schema it is written against
type SchemaMismatchError struct {
	Target   string
	Expected string
	Got      string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch for %s: expected %s, got %s", e.Target, e.Expected, e.Got)
}

// FormulaError reports a formula that failed to lex, parse, type-check
// or evaluate
type FormulaError struct {
	Formula string
	Column  int // 1-based position in the formula, 0 if unknown
	Reason  string
	Err     error
}

func (e *FormulaError) Error() string {
	msg := e.Reason
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Column > 0 {
		return fmt.Sprintf("formula %q: col %d: %s", e.Formula, e.Column, msg)
	}
	return fmt.Sprintf("formula %q: %s", e.Formula, msg)
}

func (e *FormulaError) Unwrap() error {
	return e.Err
}
