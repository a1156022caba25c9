package queryir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/dicegraph/internal/ir"
)

// ParseCondition parses a command line condition such as "total>=15" or
// "session_id=abc" into a Compare.
//
// Integers become JSONInt, other numbers JSONFloat and true/false JSONBool.
// Anything else is a string; wrap it in double quotes to keep a number as
// text. The column is not checked here, Validate does that.
//
// The first operator splits the condition, so values may contain
// operators themselves: "expression=4d6>=5" compares expression.
func ParseCondition(s string) (Compare, error) {
	for i := range len(s) {
		for _, op := range Ops {
			if !strings.HasPrefix(s[i:], string(op)) {
				continue
			}
			field := strings.TrimSpace(s[:i])
			if field == "" {
				return Compare{}, fmt.Errorf("condition %q: missing column", s)
			}
			raw := strings.TrimSpace(s[i+len(op):])
			return Compare{Field: field, Op: op, Value: parseLiteral(raw)}, nil
		}
	}
	return Compare{}, fmt.Errorf("condition %q: expected column, operator and value", s)
}

func parseLiteral(raw string) ir.JSONValue {
	if unq, err := strconv.Unquote(raw); err == nil && strings.HasPrefix(raw, `"`) {
		return ir.JSONString(unq)
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return ir.JSONInt(i)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return ir.JSONFloat(f)
	}
	switch raw {
	case "true":
		return ir.JSONBool(true)
	case "false":
		return ir.JSONBool(false)
	}
	return ir.JSONString(raw)
}
