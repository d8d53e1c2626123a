package orchestrator

import (
	"fmt"
	"time"

	"graphsentry/internal/accessor"
	"graphsentry/internal/model"
)

// actingUser extracts the field that identifies who acted in the event,
// keyed by source. The empty string is a valid, meaningful key for
// SecurityAlert, which carries no acting-user field.
func actingUser(source model.SourceType, event model.Event) string {
	switch source {
	case model.SourceSignIn:
		return stringField(event, "userPrincipalName")
	case model.SourceAuditLog:
		return stringField(event, "UserId")
	default:
		return ""
	}
}

// eventTimestamp extracts the event's own creation time, per source.
func eventTimestamp(source model.SourceType, event model.Event) (time.Time, bool) {
	field := "createdDateTime"
	if source == model.SourceAuditLog {
		field = "CreationTime"
	}
	raw := stringField(event, field)
	if raw == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// eventID extracts the event's upstream identifier, per source.
func eventID(source model.SourceType, event model.Event) string {
	if source == model.SourceAuditLog {
		return stringField(event, "Id")
	}
	return stringField(event, "id")
}

func stringField(event model.Event, field string) string {
	val, ok := accessor.Get(map[string]any(event), field)
	if !ok || val == nil {
		return ""
	}
	if s, ok := val.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", val)
}

const maxSummaryLength = 500

// rawSummary renders a concise, source-specific line describing the event,
// truncated to maxSummaryLength runes.
func rawSummary(source model.SourceType, event model.Event) string {
	var summary string
	switch source {
	case model.SourceSignIn:
		summary = fmt.Sprintf("sign-in by %s (%s)", stringField(event, "userPrincipalName"), stringField(event, "appDisplayName"))
	case model.SourceSecurityAlert:
		summary = fmt.Sprintf("%s: %s", stringField(event, "category"), stringField(event, "title"))
	case model.SourceAuditLog:
		summary = fmt.Sprintf("%s by %s", stringField(event, "Operation"), stringField(event, "UserId"))
	default:
		summary = fmt.Sprintf("%v", event)
	}
	return truncate(summary, maxSummaryLength)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
