package formula

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leengari/mini-tables/internal/formula/ast"
	"github.com/leengari/mini-tables/internal/formula/lexer"
)

// precedence levels, lowest first
const (
	_ int = iota
	LOWEST
	TERNARY     // ? :
	LOGICAL_OR  // ||
	LOGICAL_AND // &&
	EQUALITY    // == !=
	COMPARISON  // < > <= >=
	SUM         // + -
	PRODUCT     // * / %
	PREFIX      // -x !x (type)x
)

var precedences = map[lexer.TokenType]int{
	lexer.QUESTION:      TERNARY,
	lexer.OR:            LOGICAL_OR,
	lexer.AND:           LOGICAL_AND,
	lexer.EQUALS:        EQUALITY,
	lexer.NOT_EQUAL:     EQUALITY,
	lexer.LESS_THAN:     COMPARISON,
	lexer.GREATER_THAN:  COMPARISON,
	lexer.LESS_EQUAL:    COMPARISON,
	lexer.GREATER_EQUAL: COMPARISON,
	lexer.PLUS:          SUM,
	lexer.MINUS:         SUM,
	lexer.ASTERISK:      PRODUCT,
	lexer.SLASH:         PRODUCT,
	lexer.PERCENT:       PRODUCT,
}

// castTypes are the names accepted inside a cast
var castTypes = map[string]bool{
	"byte": true, "short": true, "int": true, "long": true,
	"float": true, "double": true, "char": true, "String": true,
}

// ParseError carries the column of the offending token
type ParseError struct {
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("col %d: %s", e.Column, e.Msg)
}

type Parser struct {
	tokens  []lexer.Token
	curPos  int
	curTok  lexer.Token
	peekTok lexer.Token
}

func NewParser(tokens []lexer.Token) *Parser {
	p := &Parser{tokens: tokens, curPos: 0}
	// Read two tokens to set curTok and peekTok
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	if p.curPos < len(p.tokens) {
		p.peekTok = p.tokens[p.curPos]
		p.curPos++
	} else {
		p.peekTok = lexer.Token{Type: lexer.EOF}
	}
}

// peekAhead returns the token n positions after peekTok
func (p *Parser) peekAhead(n int) lexer.Token {
	i := p.curPos + n - 1
	if i < len(p.tokens) {
		return p.tokens[i]
	}
	return lexer.Token{Type: lexer.EOF}
}

func (p *Parser) errorf(format string, args ...any) error {
	return &ParseError{Column: p.curTok.Column, Msg: fmt.Sprintf(format, args...)}
}

// ParseAssignment parses "Column = expression"
func (p *Parser) ParseAssignment() (*ast.Assignment, error) {
	if p.curTok.Type != lexer.IDENTIFIER || strings.Contains(p.curTok.Literal, ".") {
		return nil, p.errorf("expected column name, got %q", p.curTok.Literal)
	}
	target := &ast.Identifier{TokenLiteralValue: p.curTok.Literal, Value: p.curTok.Literal, Column: p.curTok.Column}
	p.nextToken()

	if p.curTok.Type != lexer.ASSIGN {
		return nil, p.errorf("expected =, got %q", p.curTok.Literal)
	}
	p.nextToken()

	value, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if p.curTok.Type != lexer.EOF {
		return nil, p.errorf("unexpected %q after expression", p.curTok.Literal)
	}
	return &ast.Assignment{Target: target, Value: value}, nil
}

// ParseExpression parses a bare expression and requires all input consumed
func (p *Parser) ParseExpression() (ast.Expression, error) {
	expr, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if p.curTok.Type != lexer.EOF {
		return nil, p.errorf("unexpected %q after expression", p.curTok.Literal)
	}
	return expr, nil
}

// parseExpression leaves curTok on the first token after the expression
func (p *Parser) parseExpression(precedence int) (ast.Expression, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	for {
		prec, ok := precedences[p.curTok.Type]
		if !ok || precedence >= prec {
			return left, nil
		}

		if p.curTok.Type == lexer.QUESTION {
			left, err = p.parseTernary(left)
		} else {
			left, err = p.parseBinary(left, prec)
		}
		if err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseBinary(left ast.Expression, prec int) (ast.Expression, error) {
	op := p.curTok.Literal
	p.nextToken()
	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}
	return &ast.BinaryExpression{Left: left, Operator: op, Right: right}, nil
}

// parseTernary is right-associative: a ? b : c ? d : e
func (p *Parser) parseTernary(cond ast.Expression) (ast.Expression, error) {
	p.nextToken() // ?
	then, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if p.curTok.Type != lexer.COLON {
		return nil, p.errorf("expected : in conditional, got %q", p.curTok.Literal)
	}
	p.nextToken()
	els, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	return &ast.TernaryExpression{Condition: cond, Then: then, Else: els}, nil
}

func (p *Parser) parsePrefix() (ast.Expression, error) {
	tok := p.curTok
	switch tok.Type {
	case lexer.MINUS, lexer.BANG:
		p.nextToken()
		right, err := p.parseExpression(PREFIX)
		if err != nil {
			return nil, err
		}
		return &ast.PrefixExpression{Operator: tok.Literal, Right: right, Column: tok.Column}, nil

	case lexer.PAREN_OPEN:
		if p.peekTok.Type == lexer.IDENTIFIER && castTypes[p.peekTok.Literal] &&
			p.peekAhead(1).Type == lexer.PAREN_CLOSE {
			typeName := p.peekTok.Literal
			p.nextToken() // type
			p.nextToken() // )
			p.nextToken()
			value, err := p.parseExpression(PREFIX)
			if err != nil {
				return nil, err
			}
			return &ast.CastExpression{Type: typeName, Value: value, Column: tok.Column}, nil
		}
		p.nextToken()
		inner, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		if p.curTok.Type != lexer.PAREN_CLOSE {
			return nil, p.errorf("expected ), got %q", p.curTok.Literal)
		}
		p.nextToken()
		return inner, nil

	case lexer.IDENTIFIER:
		ident := &ast.Identifier{TokenLiteralValue: tok.Literal, Value: tok.Literal, Column: tok.Column}
		p.nextToken()
		if p.curTok.Type == lexer.PAREN_OPEN {
			args, err := p.parseArguments()
			if err != nil {
				return nil, err
			}
			return &ast.CallExpression{Function: ident, Arguments: args}, nil
		}
		return ident, nil

	default:
		return p.parseAtom()
	}
}

// parseArguments parses "(a, b, ...)" with curTok on "("
func (p *Parser) parseArguments() ([]ast.Expression, error) {
	var list []ast.Expression
	p.nextToken()

	if p.curTok.Type == lexer.PAREN_CLOSE {
		p.nextToken()
		return list, nil
	}

	for {
		expr, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		list = append(list, expr)

		if p.curTok.Type == lexer.COMMA {
			p.nextToken()
			continue
		}
		if p.curTok.Type != lexer.PAREN_CLOSE {
			return nil, p.errorf("expected , or ) in argument list, got %q", p.curTok.Literal)
		}
		p.nextToken()
		return list, nil
	}
}

func (p *Parser) parseAtom() (ast.Expression, error) {
	tok := p.curTok
	switch tok.Type {
	case lexer.STRING:
		p.nextToken()
		return &ast.Literal{TokenLiteralValue: tok.Literal, Value: tok.Literal, Kind: ast.LiteralString, Column: tok.Column}, nil
	case lexer.CHAR:
		r := []rune(tok.Literal)
		if len(r) != 1 {
			return nil, p.errorf("char literal must hold exactly one character, got %q", tok.Literal)
		}
		p.nextToken()
		return &ast.Literal{TokenLiteralValue: tok.Literal, Value: r[0], Kind: ast.LiteralChar, Column: tok.Column}, nil
	case lexer.NUMBER:
		lit, err := parseNumber(tok)
		if err != nil {
			return nil, p.errorf("%v", err)
		}
		p.nextToken()
		return lit, nil
	case lexer.TRUE:
		p.nextToken()
		return &ast.Literal{TokenLiteralValue: "true", Value: true, Kind: ast.LiteralBool, Column: tok.Column}, nil
	case lexer.FALSE:
		p.nextToken()
		return &ast.Literal{TokenLiteralValue: "false", Value: false, Kind: ast.LiteralBool, Column: tok.Column}, nil
	case lexer.NULL:
		p.nextToken()
		return &ast.Literal{TokenLiteralValue: "null", Value: nil, Kind: ast.LiteralNull, Column: tok.Column}, nil
	case lexer.EOF:
		return nil, p.errorf("unexpected end of formula")
	default:
		return nil, p.errorf("unexpected token in expression: %q", tok.Literal)
	}
}

func parseNumber(tok lexer.Token) (*ast.Literal, error) {
	text := tok.Literal
	suffix := byte(0)
	if last := text[len(text)-1]; last < '0' || last > '9' {
		suffix = last
		text = text[:len(text)-1]
	}
	isFloat := strings.Contains(text, ".")

	switch suffix {
	case 'L', 'l':
		if isFloat {
			return nil, fmt.Errorf("invalid long literal: %s", tok.Literal)
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number: %s", tok.Literal)
		}
		return &ast.Literal{TokenLiteralValue: tok.Literal, Value: n, Kind: ast.LiteralLong, Column: tok.Column}, nil
	case 'F', 'f':
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid number: %s", tok.Literal)
		}
		return &ast.Literal{TokenLiteralValue: tok.Literal, Value: float32(f), Kind: ast.LiteralFloat, Column: tok.Column}, nil
	case 'D', 'd':
		isFloat = true
	}

	if !isFloat {
		// Try int, then long
		if n, err := strconv.ParseInt(text, 10, 32); err == nil {
			return &ast.Literal{TokenLiteralValue: tok.Literal, Value: int32(n), Kind: ast.LiteralInt, Column: tok.Column}, nil
		}
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return &ast.Literal{TokenLiteralValue: tok.Literal, Value: n, Kind: ast.LiteralLong, Column: tok.Column}, nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number: %s", tok.Literal)
	}
	return &ast.Literal{TokenLiteralValue: tok.Literal, Value: f, Kind: ast.LiteralDouble, Column: tok.Column}, nil
}

// Parse lexes and parses one formula
func Parse(formula string) (*ast.Assignment, error) {
	tokens, err := lexer.Tokenize(formula)
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).ParseAssignment()
}

// ParseCondition lexes and parses a bare boolean expression
func ParseCondition(condition string) (ast.Expression, error) {
	tokens, err := lexer.Tokenize(condition)
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).ParseExpression()
}
