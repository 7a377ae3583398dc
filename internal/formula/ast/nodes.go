package ast

import (
	"bytes"
	"fmt"
)

// Node is the base interface for all AST nodes
type Node interface {
	TokenLiteral() string
	String() string
	Pos() int // 1-based column of the node's first token
}

// Expression represents a value or operation
type Expression interface {
	Node
	expressionNode()
}

// LiteralKind identifies the static type of a literal
type LiteralKind string

const (
	LiteralString LiteralKind = "STRING"
	LiteralChar   LiteralKind = "CHAR"
	LiteralInt    LiteralKind = "INT"
	LiteralLong   LiteralKind = "LONG"
	LiteralFloat  LiteralKind = "FLOAT"
	LiteralDouble LiteralKind = "DOUBLE"
	LiteralBool   LiteralKind = "BOOL"
	LiteralNull   LiteralKind = "NULL"
)

// Identifier represents a column name or a row variable (i, ii)
type Identifier struct {
	TokenLiteralValue string
	Value             string
	Column            int
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.TokenLiteralValue }
func (i *Identifier) String() string       { return i.Value }
func (i *Identifier) Pos() int             { return i.Column }

// Literal represents a fixed value
type Literal struct {
	TokenLiteralValue string
	Value             any // string, rune, int32, int64, float32, float64, bool, nil
	Kind              LiteralKind
	Column            int
}

func (l *Literal) expressionNode()      {}
func (l *Literal) TokenLiteral() string { return l.TokenLiteralValue }
func (l *Literal) Pos() int             { return l.Column }
func (l *Literal) String() string {
	switch l.Kind {
	case LiteralString:
		return "`" + l.TokenLiteralValue + "`"
	case LiteralChar:
		return "'" + l.TokenLiteralValue + "'"
	}
	return l.TokenLiteralValue
}

// PrefixExpression: -x, !x
type PrefixExpression struct {
	Operator string
	Right    Expression
	Column   int
}

func (e *PrefixExpression) expressionNode()      {}
func (e *PrefixExpression) TokenLiteral() string { return e.Operator }
func (e *PrefixExpression) Pos() int             { return e.Column }
func (e *PrefixExpression) String() string {
	return fmt.Sprintf("(%s%s)", e.Operator, e.Right.String())
}

// BinaryExpression: Left Operator Right (e.g. i % 2)
type BinaryExpression struct {
	Left     Expression
	Operator string
	Right    Expression
}

func (e *BinaryExpression) expressionNode()      {}
func (e *BinaryExpression) TokenLiteral() string { return e.Operator }
func (e *BinaryExpression) Pos() int             { return e.Left.Pos() }
func (e *BinaryExpression) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left.String(), e.Operator, e.Right.String())
}

// TernaryExpression: Condition ? Then : Else
type TernaryExpression struct {
	Condition Expression
	Then      Expression
	Else      Expression
}

func (e *TernaryExpression) expressionNode()      {}
func (e *TernaryExpression) TokenLiteral() string { return "?" }
func (e *TernaryExpression) Pos() int             { return e.Condition.Pos() }
func (e *TernaryExpression) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", e.Condition.String(), e.Then.String(), e.Else.String())
}

// CastExpression: (type) expr
type CastExpression struct {
	Type   string
	Value  Expression
	Column int
}

func (e *CastExpression) expressionNode()      {}
func (e *CastExpression) TokenLiteral() string { return e.Type }
func (e *CastExpression) Pos() int             { return e.Column }
func (e *CastExpression) String() string {
	return fmt.Sprintf("((%s) %s)", e.Type, e.Value.String())
}

// CallExpression: Math.sin(x)
type CallExpression struct {
	Function  *Identifier
	Arguments []Expression
}

func (e *CallExpression) expressionNode()      {}
func (e *CallExpression) TokenLiteral() string { return e.Function.Value }
func (e *CallExpression) Pos() int             { return e.Function.Pos() }
func (e *CallExpression) String() string {
	var out bytes.Buffer
	out.WriteString(e.Function.Value)
	out.WriteString("(")
	for i, a := range e.Arguments {
		out.WriteString(a.String())
		if i < len(e.Arguments)-1 {
			out.WriteString(", ")
		}
	}
	out.WriteString(")")
	return out.String()
}

// Assignment is a whole formula: Column = Value
type Assignment struct {
	Target *Identifier
	Value  Expression
}

func (a *Assignment) TokenLiteral() string { return "=" }
func (a *Assignment) Pos() int             { return a.Target.Pos() }
func (a *Assignment) String() string {
	return fmt.Sprintf("%s = %s", a.Target.String(), a.Value.String())
}
