package definition

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Evaluate evaluates a condition against vars. It is used to pick a
// decision's default branch from the scenario being estimated:
//
//	default: "gripper == 'vacuum' and payload < 2"
//
// Supported: ==, !=, <, >, <=, >=, contains, and, or, not, !.
// A bare value is tested for truthiness.
func Evaluate(cond string, vars map[string]any) (bool, error) {
	cond = strings.TrimSpace(cond)
	if cond == "" {
		return false, fmt.Errorf("empty condition")
	}
	return evaluate(cond, vars), nil
}

func evaluate(cond string, vars map[string]any) bool {
	cond = strings.TrimSpace(cond)

	// or binds looser than and, so split on it first
	if l, r, ok := strings.Cut(cond, " or "); ok {
		return evaluate(l, vars) || evaluate(r, vars)
	}
	if l, r, ok := strings.Cut(cond, " and "); ok {
		return evaluate(l, vars) && evaluate(r, vars)
	}
	if inner, ok := strings.CutPrefix(cond, "not "); ok {
		return !evaluate(inner, vars)
	}
	if inner, ok := strings.CutPrefix(cond, "!"); ok && !strings.HasPrefix(inner, "=") {
		return !evaluate(inner, vars)
	}

	// longer operators first so ">=" is not read as ">"
	for _, op := range []struct {
		token   string
		compare func(l, r any) bool
	}{
		{"==", func(l, r any) bool { return fmt.Sprint(l) == fmt.Sprint(r) }},
		{"!=", func(l, r any) bool { return fmt.Sprint(l) != fmt.Sprint(r) }},
		{">=", func(l, r any) bool { return toFloat64(l) >= toFloat64(r) }},
		{"<=", func(l, r any) bool { return toFloat64(l) <= toFloat64(r) }},
		{">", func(l, r any) bool { return toFloat64(l) > toFloat64(r) }},
		{"<", func(l, r any) bool { return toFloat64(l) < toFloat64(r) }},
		{" contains ", func(l, r any) bool { return strings.Contains(fmt.Sprint(l), fmt.Sprint(r)) }},
	} {
		if l, r, ok := strings.Cut(cond, op.token); ok {
			return op.compare(resolve(l, vars), resolve(r, vars))
		}
	}

	return truthy(resolve(cond, vars))
}

// resolve turns a token into a literal or a variable's value. Unknown bare
// identifiers stay strings.
func resolve(s string, vars map[string]any) any {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	case "null", "nil":
		return nil
	}
	var num json.Number
	if err := json.Unmarshal([]byte(s), &num); err == nil {
		if i, err := num.Int64(); err == nil {
			return i
		}
		if f, err := num.Float64(); err == nil {
			return f
		}
	}
	if val, ok := vars[s]; ok {
		return val
	}
	return s
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	}
	return true
}

func toFloat64(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		var f float64
		_, _ = fmt.Sscanf(val, "%f", &f)
		return f
	}
	return 0
}
