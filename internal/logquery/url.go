package logquery

import (
	"net/url"
	"strconv"
	"strings"
)

// LocalNode is the node segment used when no remote node is selected.
const LocalNode = "local"

// StatusPrefix is the base path of the status server.
const StatusPrefix = "/_status"

// FilterState is a snapshot of the filter fields used to build a log query.
// The zero value of every field means "unset".
type FilterState struct {
	Node      string `json:"node,omitempty"`
	Level     string `json:"level,omitempty"`
	StartTime int64  `json:"startTime,omitempty"`
	EndTime   int64  `json:"endTime,omitempty"`
	Max       int    `json:"max,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
}

// IsLocal reports whether the state targets the local node.
func (s FilterState) IsLocal() bool {
	return s.Node == "" || s.Node == LocalNode
}

// WithNode returns a copy of s addressed to node.
func (s FilterState) WithNode(node string) FilterState {
	s.Node = node
	return s
}

// BuildURL creates the route and query parameters for s.
// Parameters are emitted in a fixed order and only when set.
func BuildURL(s FilterState) string {
	var b strings.Builder
	b.WriteString("/logs/")
	if s.IsLocal() {
		b.WriteString(LocalNode)
	} else {
		b.WriteString(EncodeComponent(s.Node))
	}

	first := true
	add := func(key, value string) {
		if first {
			b.WriteByte('?')
			first = false
		} else {
			b.WriteByte('&')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(EncodeComponent(value))
	}

	if s.Level != "" {
		add("level", s.Level)
	}
	if s.StartTime != 0 {
		add("startTime", strconv.FormatInt(s.StartTime, 10))
	}
	if s.EndTime != 0 {
		add("endTime", strconv.FormatInt(s.EndTime, 10))
	}
	if s.Max != 0 {
		add("max", strconv.Itoa(s.Max))
	}
	if len(s.Pattern) > 0 {
		add("pattern", s.Pattern)
	}
	return b.String()
}

// StatusURL returns the path used for requests to the status server.
func StatusURL(s FilterState) string {
	return StatusPrefix + BuildURL(s)
}

// EncodeComponent percent-encodes v the way browsers encode a URI component:
// only A-Z a-z 0-9 and - _ . ! ~ * ' ( ) are left as is.
func EncodeComponent(v string) string {
	escaped := url.QueryEscape(v)
	return componentFixups.Replace(escaped)
}

// QueryEscape turns spaces into '+' and escapes a few marks that
// component encoding keeps literal.
var componentFixups = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)
