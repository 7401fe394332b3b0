package jsonseq

import (
	"bytes"
	"unicode/utf8"

	json "github.com/goccy/go-json"
)

// Kind is the JSON type of a Value.
type Kind int

const (
	Invalid Kind = iota
	Null
	Bool
	Number
	String
	Array
	Object
)

var kindNames = [...]string{"invalid", "null", "boolean", "number", "string", "array", "object"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Value is one JSON value read from the stream.
type Value struct {
	raw       json.RawMessage
	line      int
	malformed bool
}

// NewValue wraps raw JSON bytes; line is informational. Bytes that do not
// parse give a value of kind Invalid.
func NewValue(raw []byte, line int) Value {
	return Value{raw: raw, line: line, malformed: !json.Valid(raw)}
}

// Line returns the line on which the value ended.
func (v Value) Line() int { return v.line }

// Raw returns the value's JSON text.
func (v Value) Raw() []byte { return v.raw }

// Kind reports the JSON type of the value from its first byte, or Invalid
// when the value does not parse.
func (v Value) Kind() Kind {
	b := bytes.TrimLeft(v.raw, " \t\r\n")
	if v.malformed || len(b) == 0 {
		return Invalid
	}
	switch b[0] {
	case 'n':
		return Null
	case 't', 'f':
		return Bool
	case '"':
		return String
	case '[':
		return Array
	case '{':
		return Object
	default:
		return Number
	}
}

// Members splits an object value into its members. ok is false when the
// value is not a well-formed object. For duplicate keys the last one wins.
func (v Value) Members() (map[string]Value, bool) {
	if v.Kind() != Object {
		return nil, false
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(v.raw, &raw); err != nil {
		return nil, false
	}
	members := make(map[string]Value, len(raw))
	for k, m := range raw {
		members[k] = Value{raw: m, line: v.line}
	}
	return members, true
}

// Get returns the member name of an object value. ok is false when the value
// is not an object or has no such member.
func (v Value) Get(name string) (Value, bool) {
	members, ok := v.Members()
	if !ok {
		return Value{}, false
	}
	m, ok := members[name]
	return m, ok
}

// Text returns the decoded string of a string value.
func (v Value) Text() (string, bool) {
	if v.Kind() != String {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v.raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Render returns the value as compact JSON, cut to at most limit characters
// followed by "..." when longer. A limit <= 0 disables truncation.
func (v Value) Render(limit int) string {
	var buf bytes.Buffer
	s := string(v.raw)
	if err := json.Compact(&buf, v.raw); err == nil {
		s = buf.String()
	}
	return Truncate(s, limit)
}

// Truncate cuts s to limit characters and appends "..." if anything was cut.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
