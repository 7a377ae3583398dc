package data

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/leengari/mini-tables/internal/domain/errors"
	"github.com/leengari/mini-tables/internal/domain/schema"
)

// Char is a single UTF-16-range character cell. It is a distinct type so
// that char cells never get confused with int32 cells.
type Char rune

func (c Char) String() string { return string(rune(c)) }

func (c Char) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(rune(c)))
}

// Coerce converts a Go literal to the canonical Go type of a column type.
// nil passes through as null. Lossy conversions are rejected.
func Coerce(value any, t schema.ColumnType) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch t {
	case schema.ColumnTypeString:
		if s, ok := value.(string); ok {
			return s, nil
		}
	case schema.ColumnTypeByte:
		if n, ok := toInt64(value); ok && n >= math.MinInt8 && n <= math.MaxInt8 {
			return int8(n), nil
		}
	case schema.ColumnTypeShort:
		if n, ok := toInt64(value); ok && n >= math.MinInt16 && n <= math.MaxInt16 {
			return int16(n), nil
		}
	case schema.ColumnTypeInt:
		if n, ok := toInt64(value); ok && n >= math.MinInt32 && n <= math.MaxInt32 {
			return int32(n), nil
		}
	case schema.ColumnTypeLong:
		if n, ok := toInt64(value); ok {
			return n, nil
		}
	case schema.ColumnTypeFloat:
		if f, ok := toFloat64(value); ok {
			return float32(f), nil
		}
	case schema.ColumnTypeDouble:
		if f, ok := toFloat64(value); ok {
			return f, nil
		}
	case schema.ColumnTypeBool:
		if b, ok := value.(bool); ok {
			return b, nil
		}
	case schema.ColumnTypeChar:
		switch v := value.(type) {
		case Char:
			return v, nil
		case string:
			r := []rune(v)
			if len(r) == 1 {
				return Char(r[0]), nil
			}
		}
	case schema.ColumnTypeDecimal:
		if d, ok := toDecimal(value); ok {
			return d, nil
		}
	case schema.ColumnTypeBigInt:
		if b, ok := toBigInt(value); ok {
			return b, nil
		}
	case schema.ColumnTypeInstant:
		if ts, ok := value.(time.Time); ok {
			return ts, nil
		}
	default:
		return nil, fmt.Errorf("unsupported column type %q", t)
	}
	return nil, errors.NewTypeMismatch("", value, string(t), -1)
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v <= math.MaxInt64 {
			return int64(v), true
		}
	case uint:
		if uint64(v) <= math.MaxInt64 {
			return int64(v), true
		}
	case float64:
		if v == math.Trunc(v) && v >= math.MinInt64 && v <= math.MaxInt64 {
			return int64(v), true
		}
	case float32:
		f := float64(v)
		if f == math.Trunc(f) {
			return int64(f), true
		}
	case Char:
		return int64(v), true
	}
	return 0, false
}

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case decimal.Decimal:
		f, _ := v.Float64()
		return f, true
	case *big.Int:
		f, _ := new(big.Float).SetInt(v).Float64()
		return f, true
	}
	if n, ok := toInt64(value); ok {
		return float64(n), true
	}
	return 0, false
}

func toDecimal(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, true
	case *big.Int:
		return decimal.NewFromBigInt(v, 0), true
	case string:
		d, err := decimal.NewFromString(v)
		return d, err == nil
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(v), true
	case float32:
		return decimal.NewFromFloat32(v), true
	}
	if n, ok := toInt64(value); ok {
		return decimal.NewFromInt(n), true
	}
	return decimal.Decimal{}, false
}

func toBigInt(value any) (*big.Int, bool) {
	switch v := value.(type) {
	case *big.Int:
		if v == nil {
			return nil, false
		}
		return new(big.Int).Set(v), true
	case big.Int:
		return new(big.Int).Set(&v), true
	case string:
		b, ok := new(big.Int).SetString(v, 10)
		return b, ok
	case decimal.Decimal:
		return v.BigInt(), true
	}
	if n, ok := toInt64(value); ok {
		return big.NewInt(n), true
	}
	return nil, false
}

// ToFloat64 widens any numeric cell to float64
func ToFloat64(value any) (float64, bool) {
	return toFloat64(value)
}

// ToInt64 narrows any integral cell to int64
func ToInt64(value any) (int64, bool) {
	return toInt64(value)
}

// Equal compares two cells of the same column type
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case decimal.Decimal:
		bv, ok := b.(decimal.Decimal)
		return ok && av.Equal(bv)
	case *big.Int:
		bv, ok := b.(*big.Int)
		return ok && av.Cmp(bv) == 0
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case float64:
		bv, ok := b.(float64)
		return ok && (av == bv || (math.IsNaN(av) && math.IsNaN(bv)))
	}
	return a == b
}

// Format renders a cell for display; null renders as an empty string
func Format(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case Char:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case decimal.Decimal:
		return v.String()
	case *big.Int:
		return v.String()
	}
	return fmt.Sprintf("%v", value)
}
