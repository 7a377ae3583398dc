package schema

import (
	"fmt"
	"strings"
)

// TableSchema is the ordered list of columns of a table
type TableSchema struct {
	Columns []Column `json:"columns"`
}

// New builds a schema from columns, rejecting empty and duplicate names
func New(columns ...Column) (*TableSchema, error) {
	seen := make(map[string]bool, len(columns))
	for _, col := range columns {
		if col.Name == "" {
			return nil, fmt.Errorf("column name cannot be empty")
		}
		if seen[col.Name] {
			return nil, fmt.Errorf("duplicate column %q", col.Name)
		}
		seen[col.Name] = true
	}
	cols := make([]Column, len(columns))
	copy(cols, columns)
	return &TableSchema{Columns: cols}, nil
}

// MustNew is New for schemas written as literals
func MustNew(columns ...Column) *TableSchema {
	s, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return s
}

// ColumnIndex returns the position of a column, or -1
func (s *TableSchema) ColumnIndex(name string) int {
	for i, col := range s.Columns {
		if col.Name == name {
			return i
		}
	}
	return -1
}

// GetColumn returns the named column
func (s *TableSchema) GetColumn(name string) (Column, bool) {
	if i := s.ColumnIndex(name); i >= 0 {
		return s.Columns[i], true
	}
	return Column{}, false
}

func (s *TableSchema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		names[i] = col.Name
	}
	return names
}

// Equal compares column names and types in order
func (s *TableSchema) Equal(other *TableSchema) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.Columns) != len(other.Columns) {
		return false
	}
	for i := range s.Columns {
		if s.Columns[i].Name != other.Columns[i].Name || s.Columns[i].Type != other.Columns[i].Type {
			return false
		}
	}
	return true
}

// WithColumn returns a copy with col replacing the same-named column in
// place, or appended when new
func (s *TableSchema) WithColumn(col Column) *TableSchema {
	cols := make([]Column, len(s.Columns), len(s.Columns)+1)
	copy(cols, s.Columns)
	if i := s.ColumnIndex(col.Name); i >= 0 {
		cols[i] = col
	} else {
		cols = append(cols, col)
	}
	return &TableSchema{Columns: cols}
}

func (s *TableSchema) String() string {
	parts := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		parts[i] = col.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
