// Package config parses process environment variables for graphsentry's
// binaries, failing fast on missing required values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"graphsentry/internal/security"
)

// Poller holds cmd/poller's configuration.
type Poller struct {
	MSPTenantID       string
	GraphClientID     string
	GraphClientSecret string
	SinkEndpointURL   string
	SinkRuleID        string
	SinkStreamName    string
	DatabaseURL       string
	RedisAddr         string
	NATSURL           string
	AdminGroupID      string
	PollInterval      time.Duration
	AdminPort         string
	RuleCatalogPath   string
	EncryptionKey     string
}

// LoadPoller reads and validates cmd/poller's environment, returning an
// error naming every missing required variable.
func LoadPoller() (Poller, error) {
	var missing []string
	req := func(key string) string {
		v := os.Getenv(key)
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := Poller{
		MSPTenantID:       req("MSP_TENANT_ID"),
		GraphClientID:     os.Getenv("GRAPH_CLIENT_ID"),
		GraphClientSecret: os.Getenv("GRAPH_CLIENT_SECRET"),
		SinkEndpointURL:   req("SINK_ENDPOINT_URL"),
		SinkRuleID:        req("SINK_RULE_ID"),
		SinkStreamName:    req("SINK_STREAM_NAME"),
		DatabaseURL:       req("DATABASE_URL"),
		RedisAddr:         req("REDIS_ADDR"),
		NATSURL:           getenv("NATS_URL", "nats://localhost:4222"),
		AdminGroupID:      os.Getenv("ADMIN_GROUP_ID"),
		PollInterval:      time.Duration(getenvInt("POLL_INTERVAL_SECONDS", 300)) * time.Second,
		AdminPort:         getenv("WORKER_ADMIN_PORT", "8092"),
		RuleCatalogPath:   os.Getenv("RULE_CATALOG_PATH"),
		EncryptionKey:     os.Getenv("ENCRYPTION_KEY"),
	}

	if len(missing) > 0 {
		return Poller{}, fmt.Errorf("config: missing required environment variables: %v", missing)
	}
	if cfg.EncryptionKey != "" && len(cfg.EncryptionKey) != 32 {
		return Poller{}, fmt.Errorf("config: ENCRYPTION_KEY must be 32 bytes, got %d", len(cfg.EncryptionKey))
	}
	cfg.PollInterval = security.DefaultLimits().ClampPollInterval(cfg.PollInterval)
	return cfg, nil
}

// RuleAPI holds cmd/ruleapi's configuration.
type RuleAPI struct {
	Port            string
	DatabaseURL     string
	NATSURL         string
	UIClientID      string
	EncryptionKey   string
	MinPollInterval int
	MaxPollInterval int
}

// LoadRuleAPI reads and validates cmd/ruleapi's environment.
func LoadRuleAPI() (RuleAPI, error) {
	var missing []string
	req := func(key string) string {
		v := os.Getenv(key)
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := RuleAPI{
		Port:            getenv("PORT", "8090"),
		DatabaseURL:     req("DATABASE_URL"),
		NATSURL:         getenv("NATS_URL", "nats://localhost:4222"),
		UIClientID:      os.Getenv("UI_CLIENT_ID"),
		EncryptionKey:   req("ENCRYPTION_KEY"),
		MinPollInterval: getenvInt("RULE_POLL_MIN", 5),
		MaxPollInterval: getenvInt("RULE_POLL_MAX", 3600),
	}

	if len(missing) > 0 {
		return RuleAPI{}, fmt.Errorf("config: missing required environment variables: %v", missing)
	}
	if len(cfg.EncryptionKey) != 32 {
		return RuleAPI{}, fmt.Errorf("config: ENCRYPTION_KEY must be 32 bytes, got %d", len(cfg.EncryptionKey))
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}
