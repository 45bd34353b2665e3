package definition

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// bracePattern matches ${name}.
	bracePattern = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

	// dollarPattern matches $name followed by a non-word character or the
	// end of the string, so $stroke does not match inside $strokeLength.
	dollarPattern = regexp.MustCompile(`\$([a-zA-Z_][a-zA-Z0-9_]*)(?:\b|$)`)
)

// MissingAction specifies how an Expander handles an unknown variable.
type MissingAction int

const (
	// MissingKeep leaves the placeholder in place. Used for labels.
	MissingKeep MissingAction = iota

	// MissingEmpty replaces the placeholder with an empty string.
	MissingEmpty

	// MissingError reports an UndefinedVariableError. Used for durations,
	// iteration counts and conditions, where a placeholder cannot be parsed.
	MissingError
)

// Expander substitutes ${name} and $name references with values from a
// variable map. It is safe for concurrent use.
type Expander struct {
	missing     MissingAction
	dollarStyle bool
}

// NewExpander creates an Expander. $name references are expanded only when
// dollarStyle is true; ${name} references always are.
func NewExpander(missing MissingAction, dollarStyle bool) *Expander {
	return &Expander{missing: missing, dollarStyle: dollarStyle}
}

// Expand returns s with every known variable substituted.
func (e *Expander) Expand(s string, vars map[string]any) (string, error) {
	if s == "" || !strings.Contains(s, "$") {
		return s, nil
	}

	var missing []string
	replace := func(name, match string) string {
		if val, ok := vars[name]; ok {
			return fmt.Sprintf("%v", val)
		}
		switch e.missing {
		case MissingEmpty:
			return ""
		case MissingError:
			missing = append(missing, name)
		}
		return match
	}

	result := bracePattern.ReplaceAllStringFunc(s, func(match string) string {
		return replace(match[2:len(match)-1], match)
	})
	if e.dollarStyle {
		result = dollarPattern.ReplaceAllStringFunc(result, func(match string) string {
			return replace(match[1:], match)
		})
	}

	if len(missing) > 0 {
		return result, &UndefinedVariableError{Names: missing}
	}
	return result, nil
}

// UndefinedVariableError is returned by an Expander using MissingError.
type UndefinedVariableError struct {
	Names []string
}

// Error implements the error interface.
func (e *UndefinedVariableError) Error() string {
	if len(e.Names) == 1 {
		return fmt.Sprintf("undefined variable: %s", e.Names[0])
	}
	return fmt.Sprintf("undefined variables: %s", strings.Join(e.Names, ", "))
}

var (
	labelExpander = NewExpander(MissingKeep, false)
	valueExpander = NewExpander(MissingError, false)
)
