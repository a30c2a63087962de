package where

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenType represents the type of a lexical token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenString
	TokenColon
	TokenNeq
	TokenTilde
	TokenGt
	TokenGte
	TokenLt
	TokenLte
	TokenLParen
	TokenRParen
	TokenAnd
	TokenOr
	TokenNot
	TokenIllegal
)

var tokenNames = map[TokenType]string{
	TokenEOF:     "end of input",
	TokenIdent:   "identifier",
	TokenString:  "string",
	TokenColon:   "':'",
	TokenNeq:     "'!='",
	TokenTilde:   "'~'",
	TokenGt:      "'>'",
	TokenGte:     "'>='",
	TokenLt:      "'<'",
	TokenLte:     "'<='",
	TokenLParen:  "'('",
	TokenRParen:  "')'",
	TokenAnd:     "AND",
	TokenOr:      "OR",
	TokenNot:     "NOT",
	TokenIllegal: "illegal character",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "unknown"
}

// Token represents a lexical token.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

// Lexer tokenizes filter expressions.
type Lexer struct {
	input string
	pos   int
}

func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()
	start := l.pos
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: start}
	}

	ch := l.input[l.pos]
	two := func(next byte, withNext, alone TokenType) Token {
		if l.pos+1 < len(l.input) && l.input[l.pos+1] == next {
			l.pos += 2
			return Token{Type: withNext, Value: l.input[start:l.pos], Pos: start}
		}
		l.pos++
		return Token{Type: alone, Value: l.input[start:l.pos], Pos: start}
	}

	switch ch {
	case ':':
		l.pos++
		return Token{Type: TokenColon, Value: ":", Pos: start}
	case '~':
		l.pos++
		return Token{Type: TokenTilde, Value: "~", Pos: start}
	case '(':
		l.pos++
		return Token{Type: TokenLParen, Value: "(", Pos: start}
	case ')':
		l.pos++
		return Token{Type: TokenRParen, Value: ")", Pos: start}
	case '>':
		return two('=', TokenGte, TokenGt)
	case '<':
		return two('=', TokenLte, TokenLt)
	case '!':
		return two('=', TokenNeq, TokenIllegal)
	case '"':
		return l.readString()
	}

	if isIdentChar(ch) {
		return l.readIdent()
	}

	_, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size
	return Token{Type: TokenIllegal, Value: l.input[start:l.pos], Pos: start}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
}

// readString reads a double-quoted string; \" and \\ are unescaped.
func (l *Lexer) readString() Token {
	start := l.pos
	l.pos++
	var b strings.Builder
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c == '"' {
			l.pos++
			return Token{Type: TokenString, Value: b.String(), Pos: start}
		}
		if c == '\\' && l.pos+1 < len(l.input) {
			next := l.input[l.pos+1]
			if next == '"' || next == '\\' {
				b.WriteByte(next)
				l.pos += 2
				continue
			}
		}
		b.WriteByte(c)
		l.pos++
	}
	return Token{Type: TokenIllegal, Value: "unterminated string", Pos: start}
}

func (l *Lexer) readIdent() Token {
	start := l.pos
	for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
		l.pos++
	}
	value := l.input[start:l.pos]

	switch strings.ToUpper(value) {
	case "AND":
		return Token{Type: TokenAnd, Value: "AND", Pos: start}
	case "OR":
		return Token{Type: TokenOr, Value: "OR", Pos: start}
	case "NOT":
		return Token{Type: TokenNot, Value: "NOT", Pos: start}
	}
	return Token{Type: TokenIdent, Value: value, Pos: start}
}

func isIdentChar(ch byte) bool {
	return ch >= 0x80 || unicode.IsLetter(rune(ch)) || unicode.IsDigit(rune(ch)) ||
		ch == '_' || ch == '-' || ch == '.' || ch == '/' || ch == '*'
}
