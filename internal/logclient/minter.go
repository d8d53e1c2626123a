package logclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SecretResolver resolves a tenant-specific client secret that overrides a
// ClientCredentialsMinter's static secret for that one tenant, decrypted
// from wherever it is stored at rest.
type SecretResolver interface {
	TenantSecret(ctx context.Context, tenantID string) (secret string, ok bool, err error)
}

// ClientCredentialsMinter mints bearer tokens via an OAuth2 client
// credentials grant against a per-tenant token endpoint. When ClientSecret
// is empty, callers are expected to run under workload identity federation
// and should install a different Minter instead of this one.
type ClientCredentialsMinter struct {
	httpClient   *http.Client
	tokenURLBase string
	clientID     string
	clientSecret string
	scope        string
	secrets      SecretResolver
}

// NewClientCredentialsMinter builds a Minter against tokenURLBase, a
// template with a single %s placeholder for the tenant id.
func NewClientCredentialsMinter(tokenURLBase, clientID, clientSecret, scope string, timeout time.Duration) *ClientCredentialsMinter {
	return &ClientCredentialsMinter{
		httpClient:   &http.Client{Timeout: timeout},
		tokenURLBase: tokenURLBase,
		clientID:     clientID,
		clientSecret: clientSecret,
		scope:        scope,
	}
}

// SetSecretResolver installs a per-tenant secret override, consulted before
// every mint. Passing nil restores the static client secret for all tenants.
func (m *ClientCredentialsMinter) SetSecretResolver(secrets SecretResolver) {
	m.secrets = secrets
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// Mint exchanges the configured client credentials for a bearer token scoped
// to tenantID.
func (m *ClientCredentialsMinter) Mint(ctx context.Context, tenantID string) (Token, error) {
	secret := m.clientSecret
	if m.secrets != nil {
		tenantSecret, ok, err := m.secrets.TenantSecret(ctx, tenantID)
		if err != nil {
			return Token{}, fmt.Errorf("logclient: resolve tenant secret: %w", err)
		}
		if ok {
			secret = tenantSecret
		}
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {m.clientID},
		"client_secret": {secret},
		"scope":         {m.scope},
	}
	tokenURL := fmt.Sprintf(m.tokenURLBase, tenantID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return Token{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Token{}, fmt.Errorf("logclient: token endpoint returned status %d", resp.StatusCode)
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Token{}, fmt.Errorf("logclient: decode token response: %w", err)
	}
	if body.AccessToken == "" {
		return Token{}, fmt.Errorf("logclient: token endpoint returned no access_token")
	}

	expiresIn := body.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	return Token{
		Value:     body.AccessToken,
		ExpiresAt: time.Now().Add(time.Duration(expiresIn) * time.Second),
	}, nil
}
