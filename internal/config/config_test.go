package config

import (
	"os"
	"testing"
)

// unsetAll clears the given keys for the duration of the test, restoring
// whatever was previously set on cleanup.
func unsetAll(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			}
		})
	}
}

// setEnv sets key=value for the duration of the test, restoring whatever was
// previously set on cleanup.
func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoadPollerFailsFastOnMissingRequired(t *testing.T) {
	unsetAll(t, "MSP_TENANT_ID", "SINK_ENDPOINT_URL", "SINK_RULE_ID", "SINK_STREAM_NAME", "DATABASE_URL", "REDIS_ADDR")
	if _, err := LoadPoller(); err == nil {
		t.Fatalf("expected error for missing required vars")
	}
}

func TestLoadPollerSucceedsWithDefaults(t *testing.T) {
	unsetAll(t, "POLL_INTERVAL_SECONDS", "NATS_URL")
	env := map[string]string{
		"MSP_TENANT_ID":     "tenant-1",
		"SINK_ENDPOINT_URL": "https://sink.example/ingest",
		"SINK_RULE_ID":      "rule-1",
		"SINK_STREAM_NAME":  "stream",
		"DATABASE_URL":      "postgres://localhost/db",
		"REDIS_ADDR":        "localhost:6379",
	}
	for k, v := range env {
		setEnv(t, k, v)
	}

	cfg, err := LoadPoller()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PollInterval.Seconds() != 300 {
		t.Fatalf("expected default poll interval of 300s, got %v", cfg.PollInterval)
	}
	if cfg.NATSURL != "nats://localhost:4222" {
		t.Fatalf("expected default nats url, got %q", cfg.NATSURL)
	}
}

func TestLoadPollerRejectsShortEncryptionKey(t *testing.T) {
	env := map[string]string{
		"MSP_TENANT_ID":     "tenant-1",
		"SINK_ENDPOINT_URL": "https://sink.example/ingest",
		"SINK_RULE_ID":      "rule-1",
		"SINK_STREAM_NAME":  "stream",
		"DATABASE_URL":      "postgres://localhost/db",
		"REDIS_ADDR":        "localhost:6379",
		"ENCRYPTION_KEY":    "too-short",
	}
	for k, v := range env {
		setEnv(t, k, v)
	}

	if _, err := LoadPoller(); err == nil {
		t.Fatalf("expected error for short encryption key")
	}
}

func TestLoadRuleAPIRejectsShortEncryptionKey(t *testing.T) {
	setEnv(t, "DATABASE_URL", "postgres://localhost/db")
	setEnv(t, "ENCRYPTION_KEY", "too-short")

	if _, err := LoadRuleAPI(); err == nil {
		t.Fatalf("expected error for short encryption key")
	}
}
