package where

import (
	"regexp"
	"strings"
)

// Node is the interface implemented by all AST nodes.
type Node interface {
	node()
}

// BinaryExpr represents a binary logical expression (AND, OR).
type BinaryExpr struct {
	Op    string
	Left  Node
	Right Node
}

func (BinaryExpr) node() {}

// NotExpr negates its inner expression.
type NotExpr struct {
	Expr Node
}

func (NotExpr) node() {}

// TextExpr is a case-insensitive full-text search across all fields.
type TextExpr struct {
	Value string
}

func (TextExpr) node() {}

// CompareExpr compares one field against a value.
// Op is one of "=", "!=", "~", ">", ">=", "<", "<=".
type CompareExpr struct {
	Field Field
	Name  string
	Op    string
	Value string

	num   int64 // parsed Value for numeric fields
	isNum bool
	re    *regexp.Regexp
}

func (CompareExpr) node() {}

// Field identifies a log entry field.
type Field int

const (
	FieldUnknown Field = iota
	FieldSeverity
	FieldFile
	FieldMessage
	FieldNode
	FieldLine
	FieldTime
)

func lookupField(name string) Field {
	switch strings.ToLower(name) {
	case "severity", "level", "lvl", "sev":
		return FieldSeverity
	case "file":
		return FieldFile
	case "message", "msg":
		return FieldMessage
	case "node", "node_id":
		return FieldNode
	case "line":
		return FieldLine
	case "time", "ts", "timestamp":
		return FieldTime
	default:
		return FieldUnknown
	}
}

func (f Field) numeric() bool {
	return f == FieldSeverity || f == FieldLine || f == FieldTime
}
