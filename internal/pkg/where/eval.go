package where

import (
	"strconv"
	"strings"

	"github.com/coffersTech/logconsole/internal/model"
)

// Match evaluates the AST node against e. A nil node matches everything.
func Match(node Node, e *model.LogEntry) bool {
	if node == nil {
		return true
	}

	switch n := node.(type) {
	case BinaryExpr:
		if n.Op == "AND" {
			return Match(n.Left, e) && Match(n.Right, e)
		}
		return Match(n.Left, e) || Match(n.Right, e)
	case NotExpr:
		return !Match(n.Expr, e)
	case TextExpr:
		return matchText(n.Value, e)
	case CompareExpr:
		return evalCompare(n, e)
	default:
		return false
	}
}

// Compile parses expr and returns a predicate for it.
func Compile(expr string) (func(e *model.LogEntry) bool, error) {
	node, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	return func(e *model.LogEntry) bool { return Match(node, e) }, nil
}

func evalCompare(c CompareExpr, e *model.LogEntry) bool {
	if c.re != nil {
		return c.re.MatchString(fieldString(c.Field, e))
	}

	if c.isNum {
		v := fieldNumber(c.Field, e)
		switch c.Op {
		case "=":
			return v == c.num
		case "!=":
			return v != c.num
		case ">":
			return v > c.num
		case ">=":
			return v >= c.num
		case "<":
			return v < c.num
		case "<=":
			return v <= c.num
		}
		return false
	}

	equal := strings.EqualFold(fieldString(c.Field, e), c.Value)
	if c.Op == "!=" {
		return !equal
	}
	return equal
}

func fieldString(f Field, e *model.LogEntry) string {
	switch f {
	case FieldSeverity:
		return e.Severity.String()
	case FieldFile:
		return e.File
	case FieldMessage:
		return e.Message
	case FieldNode:
		return e.NodeID
	case FieldLine:
		return strconv.FormatInt(e.Line, 10)
	case FieldTime:
		return strconv.FormatInt(e.Time, 10)
	default:
		return ""
	}
}

func fieldNumber(f Field, e *model.LogEntry) int64 {
	switch f {
	case FieldSeverity:
		return int64(e.Severity)
	case FieldLine:
		return e.Line
	case FieldTime:
		return e.Time
	default:
		return 0
	}
}

func matchText(query string, e *model.LogEntry) bool {
	q := strings.ToLower(query)
	for _, f := range []string{e.Message, e.File, e.NodeID, e.Severity.String()} {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
