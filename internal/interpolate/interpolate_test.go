package interpolate

import "testing"

func TestValueSubstitutesPath(t *testing.T) {
	event := map[string]any{
		"ModifiedProperties": []any{
			map[string]any{"NewValue": "Global Admin"},
		},
	}
	got := Value("{{ModifiedProperties.0.NewValue}}", event)
	if got != "Global Admin" {
		t.Fatalf("expected Global Admin, got %q", got)
	}
}

func TestValueAbsentResolvesEmpty(t *testing.T) {
	got := Value("prefix-{{missing.path}}-suffix", map[string]any{})
	if got != "prefix--suffix" {
		t.Fatalf("expected empty substitution, got %q", got)
	}
}

func TestValueNoTokensPassesThrough(t *testing.T) {
	got := Value("automation@example", map[string]any{})
	if got != "automation@example" {
		t.Fatalf("expected literal passthrough, got %q", got)
	}
}

func TestValueTrimsWhitespaceInToken(t *testing.T) {
	event := map[string]any{"a": "b"}
	got := Value("{{ a }}", event)
	if got != "b" {
		t.Fatalf("expected trimmed path to resolve, got %q", got)
	}
}
