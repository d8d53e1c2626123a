package orchestrator

import "time"

const (
	// DefaultLookback bounds how far back a tenant with no prior watermark
	// starts polling.
	DefaultLookback = 60 * time.Minute
	// MaxLookback bounds how far a long-offline tenant can ever replay,
	// regardless of how stale lastPoll is.
	MaxLookback = 360 * time.Minute
	// RunHistoryRetention is the minimum age at which a run summary becomes
	// eligible for pruning.
	RunHistoryRetention = 30 * 24 * time.Hour
)

// Window computes the half-open [since, until) fetch window for a tenant.
func Window(lastPoll *time.Time, now time.Time) (since, until time.Time) {
	until = now
	if lastPoll == nil {
		since = now.Add(-DefaultLookback)
		return since, until
	}
	floor := now.Add(-MaxLookback)
	since = *lastPoll
	if since.Before(floor) {
		since = floor
	}
	return since, until
}
