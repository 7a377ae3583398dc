package formula

import (
	"fmt"
	"math"
	"time"

	"github.com/leengari/mini-tables/internal/domain/data"
	"github.com/leengari/mini-tables/internal/domain/schema"
	"github.com/leengari/mini-tables/internal/formula/ast"
)

var unaryMath = map[string]func(float64) float64{
	"Math.sin":   math.Sin,
	"Math.cos":   math.Cos,
	"Math.tan":   math.Tan,
	"Math.asin":  math.Asin,
	"Math.acos":  math.Acos,
	"Math.atan":  math.Atan,
	"Math.sqrt":  math.Sqrt,
	"Math.log":   math.Log,
	"Math.log10": math.Log10,
	"Math.exp":   math.Exp,
	"Math.floor": math.Floor,
	"Math.ceil":  math.Ceil,
}

var binaryMath = map[string]func(float64, float64) float64{
	"Math.pow":   math.Pow,
	"Math.atan2": math.Atan2,
}

func (c *compiler) compileCall(n *ast.CallExpression) (*compiled, error) {
	name := n.Function.Value
	args := make([]*compiled, len(n.Arguments))
	for i, a := range n.Arguments {
		arg, err := c.compile(a)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}

	arity := func(want int) error {
		if len(args) != want {
			return c.errorf(n, "%s expects %d argument(s), got %d", name, want, len(args))
		}
		return nil
	}
	numericArgs := func() error {
		for _, a := range args {
			if !isNumeric(a.typ) && a.typ != untyped {
				return c.errorf(n, "%s expects numeric arguments, got %s", name, a.typ)
			}
		}
		return nil
	}

	if fn, ok := unaryMath[name]; ok {
		if err := arity(1); err != nil {
			return nil, err
		}
		if err := numericArgs(); err != nil {
			return nil, err
		}
		return mapFloat(args, func(x []float64) float64 { return fn(x[0]) }), nil
	}
	if fn, ok := binaryMath[name]; ok {
		if err := arity(2); err != nil {
			return nil, err
		}
		if err := numericArgs(); err != nil {
			return nil, err
		}
		return mapFloat(args, func(x []float64) float64 { return fn(x[0], x[1]) }), nil
	}

	switch name {
	case "Math.abs":
		if err := arity(1); err != nil {
			return nil, err
		}
		if err := numericArgs(); err != nil {
			return nil, err
		}
		typ := args[0].typ
		if typ == schema.ColumnTypeChar || typ == untyped {
			typ = schema.ColumnTypeInt
		}
		return &compiled{typ: typ, eval: func(r int) (any, error) {
			v, err := args[0].eval(r)
			if err != nil || v == nil {
				return nil, err
			}
			if cmp, ok := compareValues(v, int32(0)); ok && cmp < 0 {
				return negate(v, typ)
			}
			return castValue(v, typ)
		}}, nil

	case "Math.min", "Math.max":
		if err := arity(2); err != nil {
			return nil, err
		}
		typ, ok := arithmeticType(args[0].typ, args[1].typ)
		if !ok {
			return nil, c.errorf(n, "%s expects numeric arguments", name)
		}
		wantLess := name == "Math.min"
		return &compiled{typ: typ, eval: func(r int) (any, error) {
			a, err := args[0].eval(r)
			if err != nil || a == nil {
				return nil, err
			}
			b, err := args[1].eval(r)
			if err != nil || b == nil {
				return nil, err
			}
			cmp, _ := compareValues(a, b)
			pick := b
			if (cmp < 0) == wantLess {
				pick = a
			}
			return data.Coerce(pick, typ)
		}}, nil

	case "Math.round":
		if err := arity(1); err != nil {
			return nil, err
		}
		if err := numericArgs(); err != nil {
			return nil, err
		}
		return &compiled{typ: schema.ColumnTypeLong, eval: func(r int) (any, error) {
			v, err := args[0].eval(r)
			if err != nil || v == nil {
				return nil, err
			}
			f, _ := data.ToFloat64(v)
			return floatToLong(math.Floor(f + 0.5)), nil
		}}, nil

	case "now":
		if err := arity(0); err != nil {
			return nil, err
		}
		clock := c.scope.Now
		if clock == nil {
			clock = time.Now
		}
		return &compiled{typ: schema.ColumnTypeInstant, eval: func(int) (any, error) {
			return clock(), nil
		}}, nil

	case "toInstant":
		if err := arity(1); err != nil {
			return nil, err
		}
		if args[0].typ != schema.ColumnTypeString && args[0].typ != untyped {
			return nil, c.errorf(n, "toInstant expects a string, got %s", args[0].typ)
		}
		parse := c.scope.ParseInstant
		if parse == nil {
			parse = func(s string) (time.Time, error) { return time.Parse(time.RFC3339Nano, s) }
		}
		return &compiled{typ: schema.ColumnTypeInstant, eval: func(r int) (any, error) {
			v, err := args[0].eval(r)
			if err != nil || v == nil {
				return nil, err
			}
			return parse(v.(string))
		}}, nil

	case "decimal", "bigint":
		if err := arity(1); err != nil {
			return nil, err
		}
		target := schema.ColumnTypeDecimal
		if name == "bigint" {
			target = schema.ColumnTypeBigInt
		}
		if !isNumeric(args[0].typ) && args[0].typ != schema.ColumnTypeString && args[0].typ != untyped {
			return nil, c.errorf(n, "%s expects a number or string, got %s", name, args[0].typ)
		}
		return &compiled{typ: target, eval: func(r int) (any, error) {
			v, err := args[0].eval(r)
			if err != nil || v == nil {
				return nil, err
			}
			return data.Coerce(v, target)
		}}, nil

	case "isNull":
		if err := arity(1); err != nil {
			return nil, err
		}
		return &compiled{typ: schema.ColumnTypeBool, eval: func(r int) (any, error) {
			v, err := args[0].eval(r)
			if err != nil {
				return nil, err
			}
			return v == nil, nil
		}}, nil

	case "String.valueOf", "str":
		if err := arity(1); err != nil {
			return nil, err
		}
		return &compiled{typ: schema.ColumnTypeString, eval: func(r int) (any, error) {
			v, err := args[0].eval(r)
			if err != nil || v == nil {
				return nil, err
			}
			return data.Format(v), nil
		}}, nil
	}

	return nil, c.errorf(n, "unknown function %s", name)
}

// mapFloat evaluates numeric args as float64 and returns a double
func mapFloat(args []*compiled, fn func([]float64) float64) *compiled {
	return &compiled{typ: schema.ColumnTypeDouble, eval: func(r int) (any, error) {
		xs := make([]float64, len(args))
		for i, a := range args {
			v, err := a.eval(r)
			if err != nil || v == nil {
				return nil, err
			}
			f, ok := data.ToFloat64(v)
			if !ok {
				return nil, fmt.Errorf("not a number: %v", v)
			}
			xs[i] = f
		}
		return fn(xs), nil
	}}
}
