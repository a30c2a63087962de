package where

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/coffersTech/logconsole/internal/model"
)

// Parser parses filter expressions into an AST.
type Parser struct {
	lexer   *Lexer
	current Token
}

// Parse parses the input string and returns the AST root node.
// An empty input yields a nil node, which matches everything.
func Parse(input string) (Node, error) {
	p := &Parser{lexer: NewLexer(input)}
	p.advance()
	if p.current.Type == TokenEOF {
		return nil, nil
	}

	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.current.Type != TokenEOF {
		return nil, p.unexpected()
	}
	return node, nil
}

func (p *Parser) advance() {
	p.current = p.lexer.NextToken()
}

func (p *Parser) unexpected() error {
	if p.current.Type == TokenIllegal {
		return fmt.Errorf("at %d: %s %q", p.current.Pos, p.current.Type, p.current.Value)
	}
	return fmt.Errorf("at %d: unexpected %s", p.current.Pos, p.current.Type)
}

func (p *Parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.current.Type == TokenOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

// parseAnd handles explicit AND as well as juxtaposed terms ("disk full").
func (p *Parser) parseAnd() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	for {
		switch p.current.Type {
		case TokenAnd:
			p.advance()
		case TokenIdent, TokenString, TokenLParen, TokenNot:
		default:
			return left, nil
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: "AND", Left: left, Right: right}
	}
}

func (p *Parser) parseNot() (Node, error) {
	if p.current.Type == TokenNot {
		p.advance()
		expr, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return NotExpr{Expr: expr}, nil
	}
	return p.parsePrimary()
}

var compareOps = map[TokenType]string{
	TokenColon: "=",
	TokenNeq:   "!=",
	TokenTilde: "~",
	TokenGt:    ">",
	TokenGte:   ">=",
	TokenLt:    "<",
	TokenLte:   "<=",
}

func (p *Parser) parsePrimary() (Node, error) {
	switch p.current.Type {
	case TokenLParen:
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.current.Type != TokenRParen {
			return nil, fmt.Errorf("at %d: expected ')' but got %s", p.current.Pos, p.current.Type)
		}
		p.advance()
		return expr, nil

	case TokenString:
		value := p.current.Value
		p.advance()
		return TextExpr{Value: value}, nil

	case TokenIdent:
		key := p.current.Value
		p.advance()
		if op, ok := compareOps[p.current.Type]; ok {
			p.advance()
			return p.parseValue(key, op)
		}
		return TextExpr{Value: key}, nil

	default:
		return nil, p.unexpected()
	}
}

func (p *Parser) parseValue(key, op string) (Node, error) {
	if p.current.Type != TokenIdent && p.current.Type != TokenString {
		err := fmt.Errorf("at %d: expected value after '%s%s' but got %s", p.current.Pos, key, op, p.current.Type)
		if op == "~" {
			return nil, fmt.Errorf("%w (regular expressions must be quoted: %s~\"...\")", err, key)
		}
		return nil, err
	}
	value := p.current.Value
	p.advance()
	return newCompare(key, op, value)
}

func newCompare(key, op, value string) (CompareExpr, error) {
	c := CompareExpr{Field: lookupField(key), Name: key, Op: op, Value: value}

	switch op {
	case "~":
		re, err := regexp.Compile(value)
		if err != nil {
			return c, fmt.Errorf("%s~%q: %w", key, value, err)
		}
		c.re = re
		return c, nil
	case "=", "!=":
		// Equality falls back to string comparison when the value is not numeric.
		if n, ok := parseNumber(c.Field, value); ok {
			c.num, c.isNum = n, true
		}
		return c, nil
	}

	if !c.Field.numeric() {
		return c, fmt.Errorf("field %q does not support %s", key, op)
	}
	n, ok := parseNumber(c.Field, value)
	if !ok {
		return c, fmt.Errorf("%s%s%s: value is not a number", key, op, value)
	}
	c.num, c.isNum = n, true
	return c, nil
}

func parseNumber(f Field, value string) (int64, bool) {
	switch f {
	case FieldSeverity:
		sev, err := model.ParseSeverity(value)
		if err != nil {
			return 0, false
		}
		return int64(sev), true
	case FieldLine, FieldTime:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
