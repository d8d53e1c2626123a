// Package interpolate substitutes {{path}} templates inside a rule's expected
// comparison value using fields of the event under evaluation.
package interpolate

import (
	"fmt"
	"regexp"

	"graphsentry/internal/accessor"
)

// tokenPattern matches {{<path>}}, non-greedy, where path contains no "}".
var tokenPattern = regexp.MustCompile(`\{\{([^}]*)\}\}`)

// Value scans expected for {{path}} tokens and replaces each with the
// stringified value of that path read from event, or the empty string when
// the path is absent or resolves to null.
func Value(expected string, event any) string {
	return tokenPattern.ReplaceAllStringFunc(expected, func(token string) string {
		path := tokenPattern.FindStringSubmatch(token)[1]
		val, ok := accessor.Get(event, trim(path))
		if !ok || val == nil {
			return ""
		}
		return stringify(val)
	})
}

func trim(path string) string {
	// FindStringSubmatch already isolates the inner path; segments are
	// dot-separated with no surrounding whitespace expected, but authors do
	// write "{{ path }}" by hand, so tolerate it.
	start, end := 0, len(path)
	for start < end && path[start] == ' ' {
		start++
	}
	for end > start && path[end-1] == ' ' {
		end--
	}
	return path[start:end]
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return fmt.Sprintf("%t", t)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprint(t)
	}
}
