package testutil

import (
	"testing"

	"github.com/leengari/mini-tables/internal/domain/schema"
	"github.com/leengari/mini-tables/internal/domain/table"
)

// AssertRowCount checks if the snapshot has the expected number of rows
func AssertRowCount(t *testing.T, snap *table.Snapshot, expected int, context string) {
	t.Helper()
	if snap.NumRows() != expected {
		t.Errorf("%s: expected %d rows, got %d", context, expected, snap.NumRows())
	}
}

// AssertColumnCount checks if the snapshot has the expected number of columns
func AssertColumnCount(t *testing.T, snap *table.Snapshot, expected int, context string) {
	t.Helper()
	if snap.NumColumns() != expected {
		t.Errorf("%s: expected %d columns, got %d", context, expected, snap.NumColumns())
	}
}

// AssertColumnType checks a column exists with the given type
func AssertColumnType(t *testing.T, snap *table.Snapshot, column string, expected schema.ColumnType, context string) {
	t.Helper()
	col, ok := snap.Schema().GetColumn(column)
	if !ok {
		t.Errorf("%s: expected column '%s' to exist", context, column)
		return
	}
	if col.Type != expected {
		t.Errorf("%s: expected column '%s' to be %s, got %s", context, column, expected, col.Type)
	}
}

// AssertNoError checks that an error is nil
func AssertNoError(t *testing.T, err error, context string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: expected no error, got: %v", context, err)
	}
}

// AssertError checks that an error is not nil
func AssertError(t *testing.T, err error, context string) {
	t.Helper()
	if err == nil {
		t.Errorf("%s: expected an error, got nil", context)
	}
}

// AssertNullValue checks if a value is nil
func AssertNullValue(t *testing.T, value interface{}, context string) {
	t.Helper()
	if value != nil {
		t.Errorf("%s: expected NULL value, got: %v", context, value)
	}
}

// AssertNotNullValue checks if a value is not nil
func AssertNotNullValue(t *testing.T, value interface{}, context string) {
	t.Helper()
	if value == nil {
		t.Errorf("%s: expected non-NULL value, got nil", context)
	}
}
