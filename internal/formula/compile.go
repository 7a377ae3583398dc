package formula

import (
	stderrors "errors"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/leengari/mini-tables/internal/domain/data"
	"github.com/leengari/mini-tables/internal/domain/errors"
	"github.com/leengari/mini-tables/internal/domain/schema"
	"github.com/leengari/mini-tables/internal/domain/table"
	"github.com/leengari/mini-tables/internal/formula/ast"
)

// untyped marks an expression whose only possible value is null
const untyped schema.ColumnType = ""

// Row variables and constants every formula can read
const (
	RowIndex     = "i"  // int32 position of the row
	RowIndexLong = "ii" // int64 position of the row
	RowKey       = "k"  // int64 row key, equal to ii for in-memory tables
)

var durationConstants = map[string]int64{
	"NANOSECOND":  int64(time.Nanosecond),
	"MICROSECOND": int64(time.Microsecond),
	"MILLI":       int64(time.Millisecond),
	"SECOND":      int64(time.Second),
	"MINUTE":      int64(time.Minute),
	"HOUR":        int64(time.Hour),
	"DAY":         int64(24 * time.Hour),
}

type evalFunc func(row int) (any, error)

type compiled struct {
	typ  schema.ColumnType
	eval evalFunc
}

// Scope supplies query-scope variables and the clock to formulas
type Scope struct {
	Vars map[string]any
	Now  func() time.Time
	// ParseInstant converts the argument of toInstant(...)
	ParseInstant func(string) (time.Time, error)
}

// Program is one formula compiled against a snapshot's columns
type Program struct {
	Formula string
	Column  schema.Column
	eval    evalFunc
}

type compiler struct {
	formula string
	snap    *table.Snapshot
	scope   *Scope
}

// Compile parses and type-checks a formula against snap
func Compile(formula string, snap *table.Snapshot, scope *Scope) (*Program, error) {
	assignment, err := Parse(formula)
	if err != nil {
		return nil, wrapParseError(formula, err)
	}

	if scope == nil {
		scope = &Scope{}
	}
	c := &compiler{formula: formula, snap: snap, scope: scope}
	expr, err := c.compile(assignment.Value)
	if err != nil {
		return nil, err
	}

	typ := expr.typ
	if typ == untyped {
		typ = schema.ColumnTypeString
	}
	return &Program{
		Formula: formula,
		Column:  schema.Column{Name: assignment.Target.Value, Type: typ},
		eval:    expr.eval,
	}, nil
}

// CompileCondition compiles a filter expression that must be boolean
func CompileCondition(condition string, snap *table.Snapshot, scope *Scope) (*Program, error) {
	node, err := ParseCondition(condition)
	if err != nil {
		return nil, wrapParseError(condition, err)
	}
	if scope == nil {
		scope = &Scope{}
	}
	c := &compiler{formula: condition, snap: snap, scope: scope}
	expr, err := c.compile(node)
	if err != nil {
		return nil, err
	}
	if expr.typ != schema.ColumnTypeBool && expr.typ != untyped {
		return nil, c.errorf(node, "condition must be boolean, got %s", expr.typ)
	}
	return &Program{
		Formula: condition,
		Column:  schema.Column{Type: schema.ColumnTypeBool},
		eval:    expr.eval,
	}, nil
}

// Evaluate produces the column cells for rows 0..rows-1
func (p *Program) Evaluate(rows int) ([]any, error) {
	out := make([]any, rows)
	for r := 0; r < rows; r++ {
		v, err := p.eval(r)
		if err != nil {
			return nil, &errors.FormulaError{Formula: p.Formula, Reason: fmt.Sprintf("row %d: %v", r, err), Err: err}
		}
		out[r] = v
	}
	return out, nil
}

func wrapParseError(formula string, err error) error {
	var pe *ParseError
	if stderrors.As(err, &pe) {
		return &errors.FormulaError{Formula: formula, Column: pe.Column, Reason: pe.Msg, Err: err}
	}
	return &errors.FormulaError{Formula: formula, Err: err}
}

func (c *compiler) errorf(node ast.Node, format string, args ...any) error {
	return &errors.FormulaError{Formula: c.formula, Column: node.Pos(), Reason: fmt.Sprintf(format, args...)}
}

func (c *compiler) compile(node ast.Expression) (*compiled, error) {
	switch n := node.(type) {
	case *ast.Literal:
		return c.compileLiteral(n)
	case *ast.Identifier:
		return c.compileIdentifier(n)
	case *ast.PrefixExpression:
		return c.compilePrefix(n)
	case *ast.BinaryExpression:
		return c.compileBinary(n)
	case *ast.TernaryExpression:
		return c.compileTernary(n)
	case *ast.CastExpression:
		return c.compileCast(n)
	case *ast.CallExpression:
		return c.compileCall(n)
	default:
		return nil, c.errorf(node, "unsupported expression %T", node)
	}
}

func constant(typ schema.ColumnType, v any) *compiled {
	return &compiled{typ: typ, eval: func(int) (any, error) { return v, nil }}
}

func (c *compiler) compileLiteral(n *ast.Literal) (*compiled, error) {
	switch n.Kind {
	case ast.LiteralString:
		return constant(schema.ColumnTypeString, n.Value), nil
	case ast.LiteralChar:
		return constant(schema.ColumnTypeChar, data.Char(n.Value.(rune))), nil
	case ast.LiteralInt:
		return constant(schema.ColumnTypeInt, n.Value), nil
	case ast.LiteralLong:
		return constant(schema.ColumnTypeLong, n.Value), nil
	case ast.LiteralFloat:
		return constant(schema.ColumnTypeFloat, n.Value), nil
	case ast.LiteralDouble:
		return constant(schema.ColumnTypeDouble, n.Value), nil
	case ast.LiteralBool:
		return constant(schema.ColumnTypeBool, n.Value), nil
	case ast.LiteralNull:
		return constant(untyped, nil), nil
	}
	return nil, c.errorf(n, "unknown literal kind %s", n.Kind)
}

func (c *compiler) compileIdentifier(n *ast.Identifier) (*compiled, error) {
	switch n.Value {
	case RowIndex:
		return &compiled{typ: schema.ColumnTypeInt, eval: func(r int) (any, error) { return int32(r), nil }}, nil
	case RowIndexLong, RowKey:
		return &compiled{typ: schema.ColumnTypeLong, eval: func(r int) (any, error) { return int64(r), nil }}, nil
	case "Math.PI":
		return constant(schema.ColumnTypeDouble, math.Pi), nil
	case "Math.E":
		return constant(schema.ColumnTypeDouble, math.E), nil
	}
	if nanos, ok := durationConstants[n.Value]; ok {
		return constant(schema.ColumnTypeLong, nanos), nil
	}

	if c.snap != nil {
		if idx := c.snap.Schema().ColumnIndex(n.Value); idx >= 0 {
			col := c.snap.Schema().Columns[idx]
			values := c.snap.ColumnAt(idx)
			return &compiled{typ: col.Type, eval: func(r int) (any, error) { return values[r], nil }}, nil
		}
	}

	if v, ok := c.scope.Vars[n.Value]; ok {
		typ, val, err := inferType(v)
		if err != nil {
			return nil, c.errorf(n, "variable %s: %v", n.Value, err)
		}
		return constant(typ, val), nil
	}

	return nil, c.errorf(n, "unknown column or variable %q", n.Value)
}

// inferType maps a Go value from a query scope to a column type
func inferType(v any) (schema.ColumnType, any, error) {
	switch x := v.(type) {
	case string:
		return schema.ColumnTypeString, x, nil
	case int:
		if x >= math.MinInt32 && x <= math.MaxInt32 {
			return schema.ColumnTypeInt, int32(x), nil
		}
		return schema.ColumnTypeLong, int64(x), nil
	case int8:
		return schema.ColumnTypeByte, x, nil
	case int16:
		return schema.ColumnTypeShort, x, nil
	case int32:
		return schema.ColumnTypeInt, x, nil
	case int64:
		return schema.ColumnTypeLong, x, nil
	case float32:
		return schema.ColumnTypeFloat, x, nil
	case float64:
		return schema.ColumnTypeDouble, x, nil
	case bool:
		return schema.ColumnTypeBool, x, nil
	case data.Char:
		return schema.ColumnTypeChar, x, nil
	case time.Time:
		return schema.ColumnTypeInstant, x, nil
	case decimal.Decimal:
		return schema.ColumnTypeDecimal, x, nil
	case *big.Int:
		return schema.ColumnTypeBigInt, x, nil
	}
	return "", nil, fmt.Errorf("unsupported value of type %T", v)
}

func (c *compiler) compilePrefix(n *ast.PrefixExpression) (*compiled, error) {
	if isIntMinLiteral(n) {
		return constant(schema.ColumnTypeInt, int32(math.MinInt32)), nil
	}
	right, err := c.compile(n.Right)
	if err != nil {
		return nil, err
	}

	switch n.Operator {
	case "!":
		if right.typ != schema.ColumnTypeBool && right.typ != untyped {
			return nil, c.errorf(n, "operator ! needs bool, got %s", right.typ)
		}
		return &compiled{typ: schema.ColumnTypeBool, eval: func(r int) (any, error) {
			v, err := right.eval(r)
			if err != nil || v == nil {
				return nil, err
			}
			return !v.(bool), nil
		}}, nil

	case "-":
		typ := right.typ
		if !isNumeric(typ) {
			return nil, c.errorf(n, "operator - needs a number, got %s", typ)
		}
		if typ.IsInteger() || typ == schema.ColumnTypeChar {
			typ = schema.Promote(typ, schema.ColumnTypeInt)
		}
		return &compiled{typ: typ, eval: func(r int) (any, error) {
			v, err := right.eval(r)
			if err != nil || v == nil {
				return nil, err
			}
			return negate(v, typ)
		}}, nil
	}
	return nil, c.errorf(n, "unknown prefix operator %s", n.Operator)
}

// isIntMinLiteral matches -2147483648, which is an int even though its
// unsigned digits only fit a long.
func isIntMinLiteral(n *ast.PrefixExpression) bool {
	lit, ok := n.Right.(*ast.Literal)
	if !ok || n.Operator != "-" || lit.Kind != ast.LiteralLong {
		return false
	}
	return lit.Value == int64(-math.MinInt32) && !strings.ContainsAny(lit.TokenLiteralValue, "Ll")
}

func isNumeric(t schema.ColumnType) bool {
	return t.IsNumeric() || t == schema.ColumnTypeChar
}

// arithmeticType applies binary numeric promotion
func arithmeticType(l, r schema.ColumnType) (schema.ColumnType, bool) {
	if !isNumeric(l) || !isNumeric(r) {
		return "", false
	}
	switch {
	case l == schema.ColumnTypeDecimal || r == schema.ColumnTypeDecimal:
		return schema.ColumnTypeDecimal, true
	case l == schema.ColumnTypeBigInt || r == schema.ColumnTypeBigInt:
		if l.IsFloating() || r.IsFloating() {
			return schema.ColumnTypeDouble, true
		}
		return schema.ColumnTypeBigInt, true
	}
	return schema.Promote(schema.Promote(l, r), schema.ColumnTypeInt), true
}

func (c *compiler) compileBinary(n *ast.BinaryExpression) (*compiled, error) {
	left, err := c.compile(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.compile(n.Right)
	if err != nil {
		return nil, err
	}

	switch n.Operator {
	case "&&", "||":
		return c.logical(n, left, right)
	case "==", "!=":
		return c.equality(n, left, right)
	case "<", ">", "<=", ">=":
		return c.comparison(n, left, right)
	case "+":
		if left.typ == schema.ColumnTypeString || right.typ == schema.ColumnTypeString {
			return concat(left, right), nil
		}
		if left.typ == schema.ColumnTypeInstant && right.typ.IsInteger() {
			return shiftInstant(left, right, 1), nil
		}
	case "-":
		if left.typ == schema.ColumnTypeInstant && right.typ.IsInteger() {
			return shiftInstant(left, right, -1), nil
		}
		if left.typ == schema.ColumnTypeInstant && right.typ == schema.ColumnTypeInstant {
			return instantDiff(left, right), nil
		}
	}

	typ, ok := arithmeticType(left.typ, right.typ)
	if !ok {
		return nil, c.errorf(n, "operator %s not defined for %s and %s", n.Operator, describe(left.typ), describe(right.typ))
	}
	return c.arithmetic(n, n.Operator, typ, left, right)
}

func describe(t schema.ColumnType) string {
	if t == untyped {
		return "null"
	}
	return string(t)
}

func (c *compiler) arithmetic(n ast.Node, op string, typ schema.ColumnType, left, right *compiled) (*compiled, error) {
	switch op {
	case "+", "-", "*", "/", "%":
	default:
		return nil, c.errorf(n, "unknown operator %s", op)
	}
	return &compiled{typ: typ, eval: func(r int) (any, error) {
		a, err := left.eval(r)
		if err != nil {
			return nil, err
		}
		b, err := right.eval(r)
		if err != nil {
			return nil, err
		}
		if a == nil || b == nil {
			return nil, nil
		}
		return arith(op, typ, a, b)
	}}, nil
}

func concat(left, right *compiled) *compiled {
	return &compiled{typ: schema.ColumnTypeString, eval: func(r int) (any, error) {
		a, err := left.eval(r)
		if err != nil {
			return nil, err
		}
		b, err := right.eval(r)
		if err != nil {
			return nil, err
		}
		return formatJava(a) + formatJava(b), nil
	}}
}

// formatJava renders null as "null" the way string concatenation does
func formatJava(v any) string {
	if v == nil {
		return "null"
	}
	return data.Format(v)
}

func shiftInstant(left, right *compiled, sign int64) *compiled {
	return &compiled{typ: schema.ColumnTypeInstant, eval: func(r int) (any, error) {
		a, err := left.eval(r)
		if err != nil {
			return nil, err
		}
		b, err := right.eval(r)
		if err != nil {
			return nil, err
		}
		if a == nil || b == nil {
			return nil, nil
		}
		nanos, _ := data.ToInt64(b)
		return a.(time.Time).Add(time.Duration(sign * nanos)), nil
	}}
}

func instantDiff(left, right *compiled) *compiled {
	return &compiled{typ: schema.ColumnTypeLong, eval: func(r int) (any, error) {
		a, err := left.eval(r)
		if err != nil {
			return nil, err
		}
		b, err := right.eval(r)
		if err != nil {
			return nil, err
		}
		if a == nil || b == nil {
			return nil, nil
		}
		return int64(a.(time.Time).Sub(b.(time.Time))), nil
	}}
}

func (c *compiler) logical(n *ast.BinaryExpression, left, right *compiled) (*compiled, error) {
	for _, side := range []*compiled{left, right} {
		if side.typ != schema.ColumnTypeBool && side.typ != untyped {
			return nil, c.errorf(n, "operator %s needs bool operands, got %s", n.Operator, side.typ)
		}
	}
	isAnd := n.Operator == "&&"
	return &compiled{typ: schema.ColumnTypeBool, eval: func(r int) (any, error) {
		a, err := left.eval(r)
		if err != nil {
			return nil, err
		}
		// short-circuit on a decided left side
		if a != nil && a.(bool) != isAnd {
			return a, nil
		}
		b, err := right.eval(r)
		if err != nil {
			return nil, err
		}
		if a == nil {
			if b != nil && b.(bool) != isAnd {
				return b, nil
			}
			return nil, nil
		}
		return b, nil
	}}, nil
}

// comparable reports whether two static types can be compared
func comparable(l, r schema.ColumnType, allowNull bool) bool {
	if l == untyped || r == untyped {
		return allowNull
	}
	if isNumeric(l) && isNumeric(r) {
		return true
	}
	return l == r
}

func (c *compiler) equality(n *ast.BinaryExpression, left, right *compiled) (*compiled, error) {
	if !comparable(left.typ, right.typ, true) {
		return nil, c.errorf(n, "cannot compare %s with %s", describe(left.typ), describe(right.typ))
	}
	negate := n.Operator == "!="
	return &compiled{typ: schema.ColumnTypeBool, eval: func(r int) (any, error) {
		a, err := left.eval(r)
		if err != nil {
			return nil, err
		}
		b, err := right.eval(r)
		if err != nil {
			return nil, err
		}
		var eq bool
		switch {
		case a == nil || b == nil:
			eq = a == nil && b == nil
		default:
			cmp, ok := compareValues(a, b)
			eq = ok && cmp == 0
		}
		return eq != negate, nil
	}}, nil
}

func (c *compiler) comparison(n *ast.BinaryExpression, left, right *compiled) (*compiled, error) {
	if !comparable(left.typ, right.typ, true) || left.typ == schema.ColumnTypeBool || right.typ == schema.ColumnTypeBool {
		return nil, c.errorf(n, "operator %s not defined for %s and %s", n.Operator, describe(left.typ), describe(right.typ))
	}
	op := n.Operator
	return &compiled{typ: schema.ColumnTypeBool, eval: func(r int) (any, error) {
		a, err := left.eval(r)
		if err != nil {
			return nil, err
		}
		b, err := right.eval(r)
		if err != nil {
			return nil, err
		}
		if a == nil || b == nil {
			return nil, nil
		}
		cmp, ok := compareValues(a, b)
		if !ok {
			return false, nil
		}
		switch op {
		case "<":
			return cmp < 0, nil
		case ">":
			return cmp > 0, nil
		case "<=":
			return cmp <= 0, nil
		default:
			return cmp >= 0, nil
		}
	}}, nil
}

// ternaryType picks the static type of c ? a : b
func ternaryType(a, b schema.ColumnType) (schema.ColumnType, bool) {
	switch {
	case a == untyped:
		return b, true
	case b == untyped:
		return a, true
	case a == b:
		return a, true
	case isNumeric(a) && isNumeric(b):
		if a == schema.ColumnTypeDecimal || b == schema.ColumnTypeDecimal {
			return schema.ColumnTypeDecimal, true
		}
		if a == schema.ColumnTypeBigInt || b == schema.ColumnTypeBigInt {
			return arithmeticType(a, b)
		}
		return schema.Promote(a, b), true
	}
	return "", false
}

func (c *compiler) compileTernary(n *ast.TernaryExpression) (*compiled, error) {
	cond, err := c.compile(n.Condition)
	if err != nil {
		return nil, err
	}
	if cond.typ != schema.ColumnTypeBool {
		return nil, c.errorf(n, "condition must be bool, got %s", describe(cond.typ))
	}
	then, err := c.compile(n.Then)
	if err != nil {
		return nil, err
	}
	els, err := c.compile(n.Else)
	if err != nil {
		return nil, err
	}
	typ, ok := ternaryType(then.typ, els.typ)
	if !ok {
		return nil, c.errorf(n, "branches have incompatible types %s and %s", then.typ, els.typ)
	}

	return &compiled{typ: typ, eval: func(r int) (any, error) {
		cv, err := cond.eval(r)
		if err != nil || cv == nil {
			return nil, err
		}
		branch := els
		if cv.(bool) {
			branch = then
		}
		v, err := branch.eval(r)
		if err != nil || v == nil || typ == untyped {
			return v, err
		}
		return data.Coerce(v, typ)
	}}, nil
}

var castTargets = map[string]schema.ColumnType{
	"byte":   schema.ColumnTypeByte,
	"short":  schema.ColumnTypeShort,
	"int":    schema.ColumnTypeInt,
	"long":   schema.ColumnTypeLong,
	"float":  schema.ColumnTypeFloat,
	"double": schema.ColumnTypeDouble,
	"char":   schema.ColumnTypeChar,
	"String": schema.ColumnTypeString,
}

func (c *compiler) compileCast(n *ast.CastExpression) (*compiled, error) {
	target, ok := castTargets[n.Type]
	if !ok {
		return nil, c.errorf(n, "unknown cast type %s", n.Type)
	}
	value, err := c.compile(n.Value)
	if err != nil {
		return nil, err
	}
	if target != schema.ColumnTypeString && value.typ != untyped && !isNumeric(value.typ) {
		return nil, c.errorf(n, "cannot cast %s to %s", value.typ, n.Type)
	}
	return &compiled{typ: target, eval: func(r int) (any, error) {
		v, err := value.eval(r)
		if err != nil || v == nil {
			return nil, err
		}
		return castValue(v, target)
	}}, nil
}
