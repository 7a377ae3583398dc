package schema

import (
	"fmt"
	"strings"
)

type ColumnType string

const (
	ColumnTypeString  ColumnType = "string"
	ColumnTypeByte    ColumnType = "int8"
	ColumnTypeShort   ColumnType = "int16"
	ColumnTypeInt     ColumnType = "int32"
	ColumnTypeLong    ColumnType = "int64"
	ColumnTypeFloat   ColumnType = "float32"
	ColumnTypeDouble  ColumnType = "float64"
	ColumnTypeBool    ColumnType = "bool"
	ColumnTypeChar    ColumnType = "char"
	ColumnTypeDecimal ColumnType = "decimal"
	ColumnTypeBigInt  ColumnType = "bigint"
	ColumnTypeInstant ColumnType = "instant"
)

// aliases accepted by ParseColumnType, mostly the names scripts use
var aliases = map[string]ColumnType{
	"string":     ColumnTypeString,
	"str":        ColumnTypeString,
	"byte":       ColumnTypeByte,
	"int8":       ColumnTypeByte,
	"short":      ColumnTypeShort,
	"int16":      ColumnTypeShort,
	"int":        ColumnTypeInt,
	"int32":      ColumnTypeInt,
	"long":       ColumnTypeLong,
	"int64":      ColumnTypeLong,
	"float":      ColumnTypeFloat,
	"float32":    ColumnTypeFloat,
	"double":     ColumnTypeDouble,
	"float64":    ColumnTypeDouble,
	"bool":       ColumnTypeBool,
	"boolean":    ColumnTypeBool,
	"char":       ColumnTypeChar,
	"decimal":    ColumnTypeDecimal,
	"bigdecimal": ColumnTypeDecimal,
	"bigint":     ColumnTypeBigInt,
	"biginteger": ColumnTypeBigInt,
	"instant":    ColumnTypeInstant,
	"datetime":   ColumnTypeInstant,
	"timestamp":  ColumnTypeInstant,
}

// ParseColumnType resolves a type name (case-insensitive) to a ColumnType
func ParseColumnType(name string) (ColumnType, error) {
	if t, ok := aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown column type %q", name)
}

// IsNumeric reports whether values of this type take part in arithmetic
func (t ColumnType) IsNumeric() bool {
	switch t {
	case ColumnTypeByte, ColumnTypeShort, ColumnTypeInt, ColumnTypeLong,
		ColumnTypeFloat, ColumnTypeDouble, ColumnTypeDecimal, ColumnTypeBigInt:
		return true
	}
	return false
}

// IsInteger reports whether the type is one of the fixed-width integer types
func (t ColumnType) IsInteger() bool {
	switch t {
	case ColumnTypeByte, ColumnTypeShort, ColumnTypeInt, ColumnTypeLong:
		return true
	}
	return false
}

// IsFloating reports whether the type is float32 or float64
func (t ColumnType) IsFloating() bool {
	return t == ColumnTypeFloat || t == ColumnTypeDouble
}

// numericRank orders the primitive numeric types for promotion
var numericRank = map[ColumnType]int{
	ColumnTypeByte:   1,
	ColumnTypeShort:  2,
	ColumnTypeInt:    3,
	ColumnTypeLong:   4,
	ColumnTypeFloat:  5,
	ColumnTypeDouble: 6,
}

// Promote returns the wider of two primitive numeric types.
// Char promotes like int32.
func Promote(a, b ColumnType) ColumnType {
	if a == ColumnTypeChar {
		a = ColumnTypeInt
	}
	if b == ColumnTypeChar {
		b = ColumnTypeInt
	}
	if numericRank[a] >= numericRank[b] {
		return a
	}
	return b
}

type Column struct {
	Name    string     `json:"name" yaml:"name"`
	Type    ColumnType `json:"type" yaml:"type"`
	NotNull bool       `json:"not_null,omitempty" yaml:"not_null,omitempty"`
}

func (c Column) String() string {
	return fmt.Sprintf("%s %s", c.Name, c.Type)
}
