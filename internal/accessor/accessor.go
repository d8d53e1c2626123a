// Package accessor implements the dotted-path read used by rule conditions
// and template interpolation.
package accessor

import (
	"strconv"
	"strings"
)

// Get walks tree following the dot-separated segments of path and returns the
// value found there. The second return is false when any segment fails to
// resolve — a missing map key, an out-of-range or non-numeric sequence index,
// or a scalar/nil encountered before the path is exhausted. Get never panics.
func Get(tree any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	segments := strings.Split(path, ".")
	current := tree
	for _, segment := range segments {
		if current == nil {
			return nil, false
		}
		switch node := current.(type) {
		case map[string]any:
			val, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = val
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	if current == nil {
		return nil, false
	}
	return current, true
}
