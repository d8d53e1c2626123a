// Package alertstate implements the two-layer alert-state machine: a
// 5-minute dedup window and a 60-minute notification throttle, both keyed by
// (tenantId, hash(ruleName|user)) and persisted to an external key-value
// store. All operations are best-effort — a store error never blocks an
// alert from being emitted.
package alertstate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"
)

const (
	// DedupWindow suppresses repeated alerts for the same key within this
	// span of event time (absolute difference, not sequential).
	DedupWindow = 5 * time.Minute
	// ThrottleWindow suppresses repeat chat notifications for the same key
	// within this span of wall-clock time.
	ThrottleWindow = 60 * time.Minute

	dedupKeyTTL   = 2 * DedupWindow
	notifyKeyTTL  = 2 * ThrottleWindow
	dedupPrefix   = "alertstate:dedup:"
	notifyPrefix  = "alertstate:notify:"
	digestLength  = 32
)

// ErrNotFound is returned by a KV implementation when a key is absent. Store
// treats it identically to any other read error: the entry is absent.
var ErrNotFound = errors.New("alertstate: not found")

// KV is the minimal external key-value contract the store needs. The
// production implementation is RedisKV (redis.go), which adapts a
// *redis.Client to it.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, prefix string) ([]string, error)
}

// Store is the alert-state machine. It is safe for concurrent use, though
// spec.md's concurrency model only ever calls it sequentially within a run.
type Store struct {
	kv     KV
	logger *slog.Logger
}

// New creates a Store backed by kv.
func New(kv KV, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, logger: logger}
}

type dedupEntry struct {
	Timestamp time.Time `json:"timestamp"`
	RuleName  string    `json:"ruleName"`
	User      string    `json:"user"`
}

type notifyEntry struct {
	LastNotified time.Time `json:"lastNotified"`
	AlertCount   int       `json:"alertCount"`
	RuleName     string    `json:"ruleName"`
	User         string    `json:"user"`
}

// Digest derives the stable per-(rule, user) key component: a
// collision-resistant hash of "ruleName|lowercase(user)", truncated to 32
// hex characters. An empty user hashes as the empty string.
func Digest(ruleName, user string) string {
	sum := sha256.Sum256([]byte(ruleName + "|" + strings.ToLower(user)))
	return hex.EncodeToString(sum[:])[:digestLength]
}

func dedupKey(tenantID, digest string) string {
	return dedupPrefix + tenantID + ":" + digest
}

func notifyKey(tenantID, digest string) string {
	return notifyPrefix + tenantID + ":" + digest
}

// IsDuplicate reports whether an event at eventTime for (tenantID, ruleName,
// user) falls within the dedup window of the last recorded event for that
// key. A store read error is treated as "absent" so the alert proceeds.
func (s *Store) IsDuplicate(ctx context.Context, tenantID, ruleName, user string, eventTime time.Time) bool {
	raw, err := s.kv.Get(ctx, dedupKey(tenantID, Digest(ruleName, user)))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("alertstate dedup read failed", slog.String("error", err.Error()))
		}
		return false
	}
	var entry dedupEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		s.logger.Warn("alertstate dedup entry corrupt", slog.String("error", err.Error()))
		return false
	}
	diff := eventTime.Sub(entry.Timestamp)
	if diff < 0 {
		diff = -diff
	}
	return diff < DedupWindow
}

// RecordDedup upserts the dedup entry for (tenantID, ruleName, user) with the
// given event timestamp. Failures are logged, never propagated.
func (s *Store) RecordDedup(ctx context.Context, tenantID, ruleName, user string, eventTime time.Time) {
	entry := dedupEntry{Timestamp: eventTime, RuleName: ruleName, User: user}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := s.kv.Set(ctx, dedupKey(tenantID, Digest(ruleName, user)), raw, dedupKeyTTL); err != nil {
		s.logger.Warn("alertstate dedup write failed", slog.String("error", err.Error()))
	}
}

// WasNotifiedRecently reports whether (tenantID, ruleName, user) was notified
// within the throttle window of now.
func (s *Store) WasNotifiedRecently(ctx context.Context, tenantID, ruleName, user string, now time.Time) bool {
	raw, err := s.kv.Get(ctx, notifyKey(tenantID, Digest(ruleName, user)))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("alertstate notify read failed", slog.String("error", err.Error()))
		}
		return false
	}
	var entry notifyEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		s.logger.Warn("alertstate notify entry corrupt", slog.String("error", err.Error()))
		return false
	}
	return now.Sub(entry.LastNotified) < ThrottleWindow
}

// RecordNotification upserts the notification entry, incrementing the
// alert count (1 on first write). Best-effort: failures are logged only.
func (s *Store) RecordNotification(ctx context.Context, tenantID, ruleName, user string, now time.Time) {
	key := notifyKey(tenantID, Digest(ruleName, user))
	count := 1
	if raw, err := s.kv.Get(ctx, key); err == nil {
		var prior notifyEntry
		if json.Unmarshal(raw, &prior) == nil {
			count = prior.AlertCount + 1
		}
	}
	entry := notifyEntry{LastNotified: now, AlertCount: count, RuleName: ruleName, User: user}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := s.kv.Set(ctx, key, raw, notifyKeyTTL); err != nil {
		s.logger.Warn("alertstate notify write failed", slog.String("error", err.Error()))
	}
}

// Decision is the outcome of running an admitted match through the
// alert-state machine.
type Decision struct {
	Admit        bool
	ShouldNotify bool
}

// Process runs one matched event through the dedup and throttle layers.
// Critical severity bypasses the throttle unconditionally, per spec: every
// admitted Critical alert notifies, and the notification layer is updated
// regardless of prior state.
func (s *Store) Process(ctx context.Context, tenantID, ruleName string, critical bool, user string, eventTime, now time.Time) Decision {
	if s.IsDuplicate(ctx, tenantID, ruleName, user, eventTime) {
		return Decision{Admit: false, ShouldNotify: false}
	}
	s.RecordDedup(ctx, tenantID, ruleName, user, eventTime)

	if critical {
		s.RecordNotification(ctx, tenantID, ruleName, user, now)
		return Decision{Admit: true, ShouldNotify: true}
	}
	if s.WasNotifiedRecently(ctx, tenantID, ruleName, user, now) {
		return Decision{Admit: true, ShouldNotify: false}
	}
	s.RecordNotification(ctx, tenantID, ruleName, user, now)
	return Decision{Admit: true, ShouldNotify: true}
}

// Sweep removes dedup and notification entries whose recorded time is older
// than their window, bounding storage. It is not required for correctness —
// lookups already apply the window — so a Sweep failure only shortens how
// much gets cleaned this pass, it never surfaces to the caller.
func (s *Store) Sweep(ctx context.Context, now time.Time) (removed int, err error) {
	removed += s.sweepPrefix(ctx, dedupPrefix, now, DedupWindow, func(raw []byte) (time.Time, bool) {
		var e dedupEntry
		if json.Unmarshal(raw, &e) != nil {
			return time.Time{}, false
		}
		return e.Timestamp, true
	})
	removed += s.sweepPrefix(ctx, notifyPrefix, now, ThrottleWindow, func(raw []byte) (time.Time, bool) {
		var e notifyEntry
		if json.Unmarshal(raw, &e) != nil {
			return time.Time{}, false
		}
		return e.LastNotified, true
	})
	return removed, nil
}

func (s *Store) sweepPrefix(ctx context.Context, prefix string, now time.Time, window time.Duration, extract func([]byte) (time.Time, bool)) int {
	keys, err := s.kv.Scan(ctx, prefix)
	if err != nil {
		s.logger.Warn("alertstate sweep scan failed", slog.String("prefix", prefix), slog.String("error", err.Error()))
		return 0
	}
	removed := 0
	for _, key := range keys {
		raw, err := s.kv.Get(ctx, key)
		if err != nil {
			continue
		}
		ts, ok := extract(raw)
		if !ok {
			continue
		}
		if now.Sub(ts) >= window {
			if err := s.kv.Del(ctx, key); err == nil {
				removed++
			}
		}
	}
	return removed
}
