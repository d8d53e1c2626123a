// Package security holds small input-validation and bound-clamping helpers
// shared by the config loader and rule catalog.
package security

import (
	"regexp"
	"time"
)

var identRegex = regexp.MustCompile(`^[a-zA-Z0-9_/.-]+$`)

// IsSafeIdentifier reports whether value is safe to use as a rule id or
// tenant id in a file path or SQL parameter — no path traversal segments,
// no whitespace, no shell metacharacters.
func IsSafeIdentifier(value string) bool {
	if value == "" || len(value) > 256 {
		return false
	}
	if !identRegex.MatchString(value) {
		return false
	}
	return !containsTraversal(value)
}

func containsTraversal(value string) bool {
	for i := 0; i < len(value)-1; i++ {
		if value[i] == '.' && value[i+1] == '.' {
			return true
		}
	}
	return false
}

// Limits bounds the poll interval and lookback window the config loader
// accepts, clamping operator-supplied environment values into a safe range.
type Limits struct {
	MinPollInterval time.Duration
	MaxPollInterval time.Duration
	MaxLookback     time.Duration
}

// DefaultLimits mirrors the bounds spec.md's window formula assumes.
func DefaultLimits() Limits {
	return Limits{
		MinPollInterval: 30 * time.Second,
		MaxPollInterval: 30 * time.Minute,
		MaxLookback:     6 * time.Hour,
	}
}

// ClampPollInterval keeps a configured poll interval within [Min, Max].
func (l Limits) ClampPollInterval(d time.Duration) time.Duration {
	if d < l.MinPollInterval {
		return l.MinPollInterval
	}
	if d > l.MaxPollInterval {
		return l.MaxPollInterval
	}
	return d
}
