package logclient

import (
	"context"
	"sync"
	"time"
)

// Token is a bearer credential with its expiry, as returned by an OAuth
// client-credentials exchange.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

func (t Token) expired(now time.Time) bool {
	return t.Value == "" || !now.Before(t.ExpiresAt)
}

// Minter mints a fresh Token for a tenant. Implementations perform the
// actual OAuth client-credentials exchange against the upstream identity
// provider.
type Minter interface {
	Mint(ctx context.Context, tenantID string) (Token, error)
}

// CredentialCache caches per-tenant bearer tokens, minting or refreshing
// transparently on a cache miss or expiry. Safe for concurrent use, since
// multiple source fetches for the same tenant run concurrently within a run.
type CredentialCache struct {
	minter Minter

	mu     sync.Mutex
	tokens map[string]Token
}

// NewCredentialCache wraps minter with a shared cache.
func NewCredentialCache(minter Minter) *CredentialCache {
	return &CredentialCache{minter: minter, tokens: make(map[string]Token)}
}

// Get returns a valid bearer token for tenantID, minting or refreshing one
// if the cached entry is absent or expired.
func (c *CredentialCache) Get(ctx context.Context, tenantID string, now time.Time) (string, error) {
	c.mu.Lock()
	tok, ok := c.tokens[tenantID]
	c.mu.Unlock()
	if ok && !tok.expired(now) {
		return tok.Value, nil
	}

	fresh, err := c.minter.Mint(ctx, tenantID)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.tokens[tenantID] = fresh
	c.mu.Unlock()
	return fresh.Value, nil
}
