package logquery

import (
	"bytes"
	"encoding/json"

	"github.com/valyala/fastjson"
)

// NormalizeErrorBody makes sure error bodies returned by the server are
// parseable as JSON. Any status above 200 has its body wrapped in a JSON
// string literal; everything else is passed through unchanged.
func NormalizeErrorBody(status int, body []byte) string {
	if status <= 200 {
		return string(body)
	}
	return quoteJSON(string(body))
}

// quoteJSON encodes s as a JSON string without HTML escaping. U+2028 and
// U+2029 are still escaped and invalid UTF-8 is replaced with U+FFFD.
func quoteJSON(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		// Encoding a string never fails.
		return `""`
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}))
}

var messageParsers fastjson.ParserPool

// ParseErrorMessage extracts a human readable message from a normalized
// error body. JSON strings yield their value and objects yield their
// "error" or "message" field; anything else is returned as is.
func ParseErrorMessage(normalized string) string {
	p := messageParsers.Get()
	defer messageParsers.Put(p)

	v, err := p.Parse(normalized)
	if err != nil {
		return normalized
	}

	switch v.Type() {
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeObject:
		for _, key := range []string{"error", "message"} {
			field := v.Get(key)
			if field == nil {
				continue
			}
			if field.Type() == fastjson.TypeString {
				return string(field.GetStringBytes())
			}
			return field.String()
		}
	}
	return normalized
}
