// Package operator implements the four comparison primitives rule conditions
// evaluate: exists, equals, notEquals, contains.
package operator

import (
	"fmt"
	"strings"

	"graphsentry/internal/model"
)

// Apply evaluates op against an actual value (present or not, per the
// accessor's absent/found flag) and a stringified expected value (already
// interpolated by the caller). Value comparisons are case-insensitive.
func Apply(op model.Operator, actual any, actualFound bool, expected string) bool {
	switch op {
	case model.OpExists:
		return actualFound && actual != nil
	case model.OpEquals:
		return strings.EqualFold(stringify(actual, actualFound), expected)
	case model.OpNotEquals:
		// An absent actual matches no concrete expectation negatively: it
		// never satisfies notEquals, only equals' negation would, but that
		// would make every rule with a missing field alert. See spec's
		// boundary-behavior fix for the rationale.
		if !actualFound {
			return false
		}
		return !strings.EqualFold(stringify(actual, actualFound), expected)
	case model.OpContains:
		return strings.Contains(strings.ToLower(stringify(actual, actualFound)), strings.ToLower(expected))
	default:
		return false
	}
}

// stringify renders a value using its natural textual representation.
// Collections stringify via their default Go rendering — comparisons against
// collections are not a supported rule pattern and their result here is
// stable but otherwise unspecified.
func stringify(v any, found bool) string {
	if !found || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return fmt.Sprintf("%t", t)
	case float64:
		return formatFloat(t)
	default:
		return fmt.Sprint(t)
	}
}

// formatFloat mirrors how JSON numbers decode via encoding/json (always
// float64) while avoiding "1e+06"-style output for integral values.
func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
