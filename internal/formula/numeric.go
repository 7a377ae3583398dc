package formula

import (
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/leengari/mini-tables/internal/domain/data"
	"github.com/leengari/mini-tables/internal/domain/schema"
)

// arith evaluates a binary arithmetic operator on non-null operands that
// are already known (statically) to promote to typ.
// Integer division or remainder by zero yields null.
func arith(op string, typ schema.ColumnType, a, b any) (any, error) {
	switch {
	case typ == schema.ColumnTypeDecimal:
		da, err := data.Coerce(a, typ)
		if err != nil {
			return nil, err
		}
		db, err := data.Coerce(b, typ)
		if err != nil {
			return nil, err
		}
		return decimalArith(op, da.(decimal.Decimal), db.(decimal.Decimal)), nil

	case typ == schema.ColumnTypeBigInt:
		ba, err := data.Coerce(a, typ)
		if err != nil {
			return nil, err
		}
		bb, err := data.Coerce(b, typ)
		if err != nil {
			return nil, err
		}
		return bigArith(op, ba.(*big.Int), bb.(*big.Int)), nil

	case typ.IsFloating():
		fa, _ := data.ToFloat64(a)
		fb, _ := data.ToFloat64(b)
		var f float64
		switch op {
		case "+":
			f = fa + fb
		case "-":
			f = fa - fb
		case "*":
			f = fa * fb
		case "/":
			f = fa / fb
		case "%":
			f = math.Mod(fa, fb)
		}
		if typ == schema.ColumnTypeFloat {
			return float32(f), nil
		}
		return f, nil
	}

	ia, _ := data.ToInt64(a)
	ib, _ := data.ToInt64(b)
	var n int64
	switch op {
	case "+":
		n = ia + ib
	case "-":
		n = ia - ib
	case "*":
		n = ia * ib
	case "/":
		if ib == 0 {
			return nil, nil
		}
		if ia == math.MinInt64 && ib == -1 {
			n = ia
		} else {
			n = ia / ib
		}
	case "%":
		if ib == 0 {
			return nil, nil
		}
		if ib == -1 {
			n = 0
		} else {
			n = ia % ib
		}
	}
	return wrapInt(n, typ), nil
}

func decimalArith(op string, a, b decimal.Decimal) any {
	switch op {
	case "+":
		return a.Add(b)
	case "-":
		return a.Sub(b)
	case "*":
		return a.Mul(b)
	case "/":
		if b.IsZero() {
			return nil
		}
		return a.Div(b)
	default:
		if b.IsZero() {
			return nil
		}
		return a.Mod(b)
	}
}

func bigArith(op string, a, b *big.Int) any {
	out := new(big.Int)
	switch op {
	case "+":
		return out.Add(a, b)
	case "-":
		return out.Sub(a, b)
	case "*":
		return out.Mul(a, b)
	case "/":
		if b.Sign() == 0 {
			return nil
		}
		return out.Quo(a, b)
	default:
		if b.Sign() == 0 {
			return nil
		}
		return out.Rem(a, b)
	}
}

// wrapInt narrows with two's complement wrap-around like a primitive cast
func wrapInt(n int64, typ schema.ColumnType) any {
	switch typ {
	case schema.ColumnTypeByte:
		return int8(n)
	case schema.ColumnTypeShort:
		return int16(n)
	case schema.ColumnTypeInt:
		return int32(n)
	}
	return n
}

func floatToLong(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

func floatToInt(f float64) int32 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int32(f)
}

func isFloatValue(v any) bool {
	switch v.(type) {
	case float32, float64:
		return true
	}
	return false
}

// castValue applies a primitive cast to a non-null value
func castValue(v any, target schema.ColumnType) (any, error) {
	switch target {
	case schema.ColumnTypeString:
		return data.Format(v), nil

	case schema.ColumnTypeByte, schema.ColumnTypeShort, schema.ColumnTypeInt, schema.ColumnTypeLong, schema.ColumnTypeChar:
		var n int64
		switch x := v.(type) {
		case float32, float64:
			f, _ := data.ToFloat64(x)
			if target == schema.ColumnTypeLong {
				n = floatToLong(f)
			} else {
				n = int64(floatToInt(f))
			}
		case decimal.Decimal:
			n = x.IntPart()
		case *big.Int:
			n = x.Int64()
		default:
			var ok bool
			if n, ok = data.ToInt64(v); !ok {
				return nil, fmt.Errorf("cannot cast %T to %s", v, target)
			}
		}
		if target == schema.ColumnTypeChar {
			return data.Char(uint16(n)), nil
		}
		return wrapInt(n, target), nil

	case schema.ColumnTypeFloat, schema.ColumnTypeDouble:
		f, ok := data.ToFloat64(v)
		if !ok {
			return nil, fmt.Errorf("cannot cast %T to %s", v, target)
		}
		if target == schema.ColumnTypeFloat {
			return float32(f), nil
		}
		return f, nil
	}
	return data.Coerce(v, target)
}

// negate returns -v in type typ
func negate(v any, typ schema.ColumnType) (any, error) {
	cv, err := castValue(v, typ)
	if err != nil {
		return nil, err
	}
	switch x := cv.(type) {
	case int8:
		return -x, nil
	case int16:
		return -x, nil
	case int32:
		return -x, nil
	case int64:
		return -x, nil
	case float32:
		return -x, nil
	case float64:
		return -x, nil
	case decimal.Decimal:
		return x.Neg(), nil
	case *big.Int:
		return new(big.Int).Neg(x), nil
	}
	return nil, fmt.Errorf("cannot negate %T", cv)
}

// compareValues orders two non-null cells. ok is false when the values
// are unordered (NaN) or of unrelated kinds.
func compareValues(a, b any) (int, bool) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		if av == bv {
			return 0, true
		}
		if !av {
			return -1, true
		}
		return 1, true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	}

	_, aDec := a.(decimal.Decimal)
	_, bDec := b.(decimal.Decimal)
	if aDec || bDec {
		da, err1 := data.Coerce(a, schema.ColumnTypeDecimal)
		db, err2 := data.Coerce(b, schema.ColumnTypeDecimal)
		if err1 != nil || err2 != nil {
			return 0, false
		}
		return da.(decimal.Decimal).Cmp(db.(decimal.Decimal)), true
	}

	_, aBig := a.(*big.Int)
	_, bBig := b.(*big.Int)
	if (aBig || bBig) && !isFloatValue(a) && !isFloatValue(b) {
		ba, err1 := data.Coerce(a, schema.ColumnTypeBigInt)
		bb, err2 := data.Coerce(b, schema.ColumnTypeBigInt)
		if err1 != nil || err2 != nil {
			return 0, false
		}
		return ba.(*big.Int).Cmp(bb.(*big.Int)), true
	}

	if !isFloatValue(a) && !isFloatValue(b) {
		ia, ok1 := data.ToInt64(a)
		ib, ok2 := data.ToInt64(b)
		if ok1 && ok2 {
			switch {
			case ia < ib:
				return -1, true
			case ia > ib:
				return 1, true
			}
			return 0, true
		}
	}

	fa, ok1 := data.ToFloat64(a)
	fb, ok2 := data.ToFloat64(b)
	if !ok1 || !ok2 || math.IsNaN(fa) || math.IsNaN(fb) {
		return 0, false
	}
	switch {
	case fa < fb:
		return -1, true
	case fa > fb:
		return 1, true
	}
	return 0, true
}
