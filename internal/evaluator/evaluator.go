// Package evaluator implements the rule-matching pipeline: filtering rules by
// source, enabled flag and tenant scope, then evaluating conditions and
// exceptions against an event.
package evaluator

import (
	"graphsentry/internal/accessor"
	"graphsentry/internal/interpolate"
	"graphsentry/internal/model"
	"graphsentry/internal/operator"
)

// Evaluate returns the first enabled rule, in catalog order, whose source
// matches, whose tenant scope admits tenantID, whose conditions are satisfied
// under its match mode, and whose exceptions do not veto it. It returns
// (model.Rule{}, false) when no rule matches.
func Evaluate(event model.Event, source model.SourceType, rules []model.Rule, tenantID string) (model.Rule, bool) {
	for _, rule := range rules {
		if !rule.Enabled || rule.Source != source {
			continue
		}
		if !rule.InScope(tenantID) {
			continue
		}
		if !matches(event, rule.Conditions) {
			continue
		}
		if excepted(event, rule.Exceptions) {
			continue
		}
		return rule, true
	}
	return model.Rule{}, false
}

// matches applies a rule's match mode over its conditions. A rule with zero
// conditions never matches.
func matches(event model.Event, cond model.Conditions) bool {
	if len(cond.Rules) == 0 {
		return false
	}
	switch cond.Match {
	case model.MatchAny:
		for _, c := range cond.Rules {
			if evalCondition(event, c) {
				return true
			}
		}
		return false
	default: // model.MatchAll and anything unrecognized default to conjunction
		for _, c := range cond.Rules {
			if !evalCondition(event, c) {
				return false
			}
		}
		return true
	}
}

// excepted reports whether any exception condition holds for the event; a
// single match vetoes the rule.
func excepted(event model.Event, exceptions []model.Condition) bool {
	for _, c := range exceptions {
		if evalCondition(event, c) {
			return true
		}
	}
	return false
}

func evalCondition(event model.Event, c model.Condition) bool {
	actual, found := accessor.Get(map[string]any(event), c.Field)
	expected := interpolate.Value(c.Value, map[string]any(event))
	return operator.Apply(c.Operator, actual, found, expected)
}
