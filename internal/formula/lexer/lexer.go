package lexer

import (
	"fmt"
)

type TokenType int

const (
	// Special
	ILLEGAL TokenType = iota
	EOF

	// Literals
	IDENTIFIER // X, Math.sin, ii
	STRING     // `value` or "value"
	CHAR       // 'c'
	NUMBER     // 123, 1.23, 10L, 1.0F

	// Keywords
	TRUE
	FALSE
	NULL

	// Operators & Punctuation
	PLUS          // +
	MINUS         // -
	ASTERISK      // *
	SLASH         // /
	PERCENT       // %
	BANG          // !
	ASSIGN        // =
	EQUALS        // ==
	NOT_EQUAL     // !=
	LESS_THAN     // <
	GREATER_THAN  // >
	LESS_EQUAL    // <=
	GREATER_EQUAL // >=
	AND           // &&
	OR            // ||
	QUESTION      // ?
	COLON         // :
	COMMA         // ,
	PAREN_OPEN    // (
	PAREN_CLOSE   // )
)

var names = map[TokenType]string{
	ILLEGAL: "ILLEGAL", EOF: "EOF", IDENTIFIER: "IDENTIFIER", STRING: "STRING",
	CHAR: "CHAR", NUMBER: "NUMBER", TRUE: "TRUE", FALSE: "FALSE", NULL: "NULL",
	PLUS: "+", MINUS: "-", ASTERISK: "*", SLASH: "/", PERCENT: "%", BANG: "!",
	ASSIGN: "=", EQUALS: "==", NOT_EQUAL: "!=", LESS_THAN: "<", GREATER_THAN: ">",
	LESS_EQUAL: "<=", GREATER_EQUAL: ">=", AND: "&&", OR: "||", QUESTION: "?",
	COLON: ":", COMMA: ",", PAREN_OPEN: "(", PAREN_CLOSE: ")",
}

func (t TokenType) String() string {
	if n, ok := names[t]; ok {
		return n
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

var keywords = map[string]TokenType{
	"true":  TRUE,
	"false": FALSE,
	"null":  NULL,
}

type Token struct {
	Type    TokenType
	Literal string
	Column  int // 1-based offset in the formula
}

func (t Token) String() string {
	return fmt.Sprintf("Token(%s, %q)", t.Type, t.Literal)
}

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
}

func New(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition += 1
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) NextToken() Token {
	var tok Token

	l.skipWhitespace()
	col := l.position + 1

	switch l.ch {
	case '+':
		tok = newToken(PLUS, "+")
	case '-':
		tok = newToken(MINUS, "-")
	case '*':
		tok = newToken(ASTERISK, "*")
	case '/':
		tok = newToken(SLASH, "/")
	case '%':
		tok = newToken(PERCENT, "%")
	case '?':
		tok = newToken(QUESTION, "?")
	case ':':
		tok = newToken(COLON, ":")
	case ',':
		tok = newToken(COMMA, ",")
	case '(':
		tok = newToken(PAREN_OPEN, "(")
	case ')':
		tok = newToken(PAREN_CLOSE, ")")
	case '=':
		tok = l.twoCharToken('=', EQUALS, ASSIGN)
	case '!':
		tok = l.twoCharToken('=', NOT_EQUAL, BANG)
	case '<':
		tok = l.twoCharToken('=', LESS_EQUAL, LESS_THAN)
	case '>':
		tok = l.twoCharToken('=', GREATER_EQUAL, GREATER_THAN)
	case '&':
		tok = l.twoCharToken('&', AND, ILLEGAL)
	case '|':
		tok = l.twoCharToken('|', OR, ILLEGAL)
	case '`', '"':
		tok.Type = STRING
		tok.Literal = l.readQuoted(l.ch)
		tok.Column = col
		return tok
	case '\'':
		tok.Type = CHAR
		tok.Literal = l.readQuoted('\'')
		tok.Column = col
		return tok
	case 0:
		tok.Literal = ""
		tok.Type = EOF
	default:
		if isLetter(l.ch) {
			tok.Literal = l.readIdentifier()
			tok.Type = LookupIdent(tok.Literal)
			tok.Column = col
			return tok
		} else if isDigit(l.ch) {
			tok.Type = NUMBER
			tok.Literal = l.readNumber()
			tok.Column = col
			return tok
		} else {
			tok = newToken(ILLEGAL, string(l.ch))
		}
	}

	tok.Column = col
	l.readChar()
	return tok
}

// twoCharToken consumes a second char when it matches next
func (l *Lexer) twoCharToken(next byte, two, one TokenType) Token {
	if l.peekChar() == next {
		first := l.ch
		l.readChar()
		return newToken(two, string([]byte{first, l.ch}))
	}
	return newToken(one, string(l.ch))
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// readIdentifier allows dotted names such as Math.sin
func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) || (l.ch == '.' && isLetter(l.peekChar())) {
		l.readChar()
	}
	return l.input[position:l.position]
}

func (l *Lexer) readNumber() string {
	position := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	// Support simple floats
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	// Type suffix: 10L, 1.0F, 1.0d
	switch l.ch {
	case 'L', 'l', 'F', 'f', 'D', 'd':
		l.readChar()
	}
	return l.input[position:l.position]
}

func (l *Lexer) readQuoted(quote byte) string {
	position := l.position + 1
	for {
		l.readChar()
		if l.ch == quote || l.ch == 0 {
			break
		}
	}
	lit := l.input[position:l.position]

	// Consume the closing quote
	if l.ch == quote {
		l.readChar()
	}

	return lit
}

func newToken(tokenType TokenType, literal string) Token {
	return Token{Type: tokenType, Literal: literal}
}

func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENTIFIER
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// Tokenize lexes an entire formula at once
func Tokenize(input string) ([]Token, error) {
	l := New(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Type == EOF {
			break
		}
		if tok.Type == ILLEGAL {
			return nil, fmt.Errorf("illegal token at col %d: %s", tok.Column, tok.Literal)
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}
