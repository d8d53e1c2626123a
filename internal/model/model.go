// Package model holds the shared data shapes for tenants, rules, events, and
// alerts that flow through the polling engine.
package model

import "time"

// Node is a single point in an open-shaped event tree: a scalar, a mapping, an
// ordered sequence, or nil. Events are decoded from upstream JSON directly
// into this shape, so a Node is always one of map[string]any, []any, or a
// JSON scalar (string, float64, bool, nil).
type Node = any

// Event is the top-level record fetched from an upstream source. It is
// intentionally schema-less beyond being a mapping: rules read whatever
// fields they need via the dotted-path accessor.
type Event map[string]any

// SourceType identifies which upstream feed an event or rule belongs to.
type SourceType string

const (
	SourceSignIn        SourceType = "SignIn"
	SourceSecurityAlert SourceType = "SecurityAlert"
	SourceAuditLog      SourceType = "AuditLog"
)

// Severity is a totally ordered detection severity.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// AtLeast reports whether s is greater than or equal to other in the total
// order Low < Medium < High < Critical. Unknown severities rank below Low.
func (s Severity) AtLeast(other Severity) bool {
	return s.rank() >= other.rank()
}

func (s Severity) rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// TenantStatus is the outcome of a tenant's most recent run.
type TenantStatus string

const (
	TenantStatusUnknown          TenantStatus = "unknown"
	TenantStatusSuccess          TenantStatus = "success"
	TenantStatusAuditLogDisabled TenantStatus = "auditLogDisabled"
	TenantStatusAppNotConsented  TenantStatus = "appNotConsented"
	TenantStatusPermissionDenied TenantStatus = "permissionDenied"
	TenantStatusTenantNotFound   TenantStatus = "tenantNotFound"
	TenantStatusError            TenantStatus = "error"
)

// Tenant is a monitored customer directory.
type Tenant struct {
	ID       string
	Name     string
	LastPoll *time.Time
	Status   TenantStatus
	Message  string
}

// MatchMode is the conjunction/disjunction mode for a rule's conditions.
type MatchMode string

const (
	MatchAll MatchMode = "all"
	MatchAny MatchMode = "any"
)

// Operator is one of the four comparison primitives a Condition may use.
type Operator string

const (
	OpExists    Operator = "exists"
	OpEquals    Operator = "equals"
	OpNotEquals Operator = "notEquals"
	OpContains  Operator = "contains"
)

// Condition is a single {field, operator, value} triple evaluated against a
// dotted path of an event.
type Condition struct {
	Field    string   `yaml:"field" json:"field"`
	Operator Operator `yaml:"operator" json:"operator"`
	Value    string   `yaml:"value,omitempty" json:"value,omitempty"`
}

// Conditions is a match-mode paired with the list of Conditions it combines.
type Conditions struct {
	Match MatchMode   `yaml:"match" json:"match"`
	Rules []Condition `yaml:"rules" json:"rules"`
}

// Rule is a declarative detection loaded from the rule catalog.
type Rule struct {
	ID          string
	Name        string      `yaml:"name" json:"name"`
	Description string      `yaml:"description" json:"description"`
	Severity    Severity    `yaml:"severity,omitempty" json:"severity,omitempty"`
	Enabled     bool        `yaml:"enabled" json:"enabled"`
	Source      SourceType  `yaml:"source" json:"source"`
	Conditions  Conditions  `yaml:"conditions" json:"conditions"`
	Exceptions  []Condition `yaml:"exceptions,omitempty" json:"exceptions,omitempty"`
	TenantIDs   []string    `yaml:"tenantIds,omitempty" json:"tenantIds,omitempty"`

	// Informational metadata, never consulted by the evaluator.
	Author    string   `yaml:"author,omitempty" json:"author,omitempty"`
	Framework []string `yaml:"framework,omitempty" json:"framework,omitempty"`
}

// InScope reports whether the rule applies to tenantID. A rule with no
// TenantIDs applies everywhere. A rule scoped to specific tenants is skipped
// when the caller supplies no tenantID at all.
func (r Rule) InScope(tenantID string) bool {
	if len(r.TenantIDs) == 0 {
		return true
	}
	if tenantID == "" {
		return false
	}
	for _, id := range r.TenantIDs {
		if id == tenantID {
			return true
		}
	}
	return false
}

// Alert is emitted when a rule matches and the dedup layer admits the event.
type Alert struct {
	TimeGenerated time.Time
	TimeProcessed time.Time
	TenantID      string
	TenantName    string
	ActingUser    string
	RuleName      string
	Severity      Severity
	Description   string
	Source        SourceType
	SourceEventID string
	RawSummary    string
	ShouldNotify  bool
}

// RunStatus is the terminal state of a completed run.
type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusPartial RunStatus = "partial"
	RunStatusError   RunStatus = "error"
)

// RunSummary is a per-run summary row, stored newest-first.
type RunSummary struct {
	StartTime       time.Time
	EndTime         time.Time
	DurationMs      int64
	ClientsChecked  int
	EventsProcessed int
	AlertsGenerated int
	Status          RunStatus
	ErrorMessage    string
}

// AlertsConfig configures chat-webhook delivery.
type AlertsConfig struct {
	Enabled         bool
	WebhookURL      string
	MinimumSeverity Severity
}

// ZeroTenantID is the reserved placeholder tenant id filtered out of the
// tenants list before the orchestrator ever sees it.
const ZeroTenantID = "00000000-0000-0000-0000-000000000000"
