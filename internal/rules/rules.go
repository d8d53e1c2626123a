// Package rules loads the declarative detection catalog: one YAML document
// per rule, discovered from a directory tree or a database-backed document
// table, both funneled through the same shape validation.
package rules

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"graphsentry/internal/model"
)

// Source supplies raw catalog documents. DirSource and DBSource both
// implement it; the loader is agnostic to where the bytes came from.
type Source interface {
	// Documents returns each document's catalog-relative id (already
	// path-normalized, extension-stripped) paired with its raw YAML bytes,
	// in a stable, deterministic order.
	Documents(ctx context.Context) ([]Document, error)
}

// Document is one raw catalog entry prior to decoding.
type Document struct {
	ID  string
	Raw []byte
}

// Loader decodes and validates catalog documents into rules, in the order
// returned by its Source — that order is the catalog order used for
// first-match-wins evaluation.
type Loader struct {
	source Source
	logger *slog.Logger
}

// New builds a Loader over source.
func New(source Source, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{source: source, logger: logger}
}

// Load enumerates the catalog and decodes each document into a Rule.
// Malformed documents are logged and skipped; Load only fails if the
// Source itself cannot be enumerated.
func (l *Loader) Load(ctx context.Context) ([]model.Rule, error) {
	docs, err := l.source.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("rules: enumerate catalog: %w", err)
	}

	rules := make([]model.Rule, 0, len(docs))
	for _, doc := range docs {
		rule, err := decode(doc)
		if err != nil {
			l.logger.Warn("skipping malformed rule document", slog.String("id", doc.ID), slog.String("error", err.Error()))
			continue
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func decode(doc Document) (model.Rule, error) {
	var rule model.Rule
	if err := yaml.Unmarshal(doc.Raw, &rule); err != nil {
		return model.Rule{}, fmt.Errorf("decode: %w", err)
	}
	var presence struct {
		Enabled *bool `yaml:"enabled"`
	}
	if err := yaml.Unmarshal(doc.Raw, &presence); err != nil || presence.Enabled == nil {
		return model.Rule{}, fmt.Errorf("missing enabled")
	}
	rule.ID = doc.ID
	if err := validate(rule); err != nil {
		return model.Rule{}, err
	}
	return rule, nil
}

// validate enforces spec.md §4.4 on the decoded rule: name, description,
// severity, source, and conditions must be present with the expected shapes.
// The presence of enabled is checked by decode, since a decoded bool cannot
// tell an absent key from false.
func validate(rule model.Rule) error {
	if rule.Name == "" {
		return fmt.Errorf("missing name")
	}
	if rule.Description == "" {
		return fmt.Errorf("missing description")
	}
	if rule.Severity == "" {
		return fmt.Errorf("missing severity")
	}
	switch rule.Severity {
	case model.SeverityLow, model.SeverityMedium, model.SeverityHigh, model.SeverityCritical:
	default:
		return fmt.Errorf("unknown severity %q", rule.Severity)
	}
	switch rule.Source {
	case model.SourceSignIn, model.SourceSecurityAlert, model.SourceAuditLog:
	default:
		return fmt.Errorf("unknown source %q", rule.Source)
	}
	if rule.Conditions.Match != model.MatchAll && rule.Conditions.Match != model.MatchAny {
		return fmt.Errorf("unknown match mode %q", rule.Conditions.Match)
	}
	for i, cond := range rule.Conditions.Rules {
		if cond.Field == "" {
			return fmt.Errorf("condition %d: missing field", i)
		}
		switch cond.Operator {
		case model.OpExists, model.OpEquals, model.OpNotEquals, model.OpContains:
		default:
			return fmt.Errorf("condition %d: unknown operator %q", i, cond.Operator)
		}
	}
	return nil
}
