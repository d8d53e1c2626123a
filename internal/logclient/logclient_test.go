package logclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"graphsentry/internal/model"
)

type staticMinter struct{}

func (staticMinter) Mint(_ context.Context, _ string) (Token, error) {
	return Token{Value: "test-token", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func TestSignInClientFetchSince(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Fatalf("expected bearer token header, got %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]any{{"id": "1", "userPrincipalName": "a@example"}},
		})
	}))
	defer server.Close()

	cache := NewCredentialCache(staticMinter{})
	client := NewSignInClient(server.URL, cache, 5*time.Second)

	events, err := client.FetchSince(context.Background(), "t1", time.Now().Add(-time.Hour), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || events[0]["id"] != "1" {
		t.Fatalf("unexpected events: %v", events)
	}
}

func TestClassifyStatusMapsForbiddenToPermissionDenied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	cache := NewCredentialCache(staticMinter{})
	client := NewSecurityAlertClient(server.URL, cache, 5*time.Second)

	_, err := client.FetchSince(context.Background(), "t1", time.Now().Add(-time.Hour), time.Now())
	if err == nil {
		t.Fatalf("expected error")
	}
	if Classify(err) != ErrPermissionDenied {
		t.Fatalf("expected permissionDenied, got %v", Classify(err))
	}
}

func TestClassifyStatusMapsNotFoundToTenantNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cache := NewCredentialCache(staticMinter{})
	client := NewSignInClient(server.URL, cache, 5*time.Second)

	_, err := client.FetchSince(context.Background(), "t1", time.Now().Add(-time.Hour), time.Now())
	if Classify(err) != ErrTenantNotFound {
		t.Fatalf("expected tenantNotFound, got %v", Classify(err))
	}
}

func TestEnsureSubscriptionReclassifiesTenantNotFoundAsAuditLogDisabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cache := NewCredentialCache(staticMinter{})
	client := NewAuditLogClient(server.URL, cache, 5*time.Second)

	err := client.EnsureSubscription(context.Background(), "t1", "Audit.General")
	if Classify(err) != ErrAuditLogDisabled {
		t.Fatalf("expected auditLogDisabled, got %v", Classify(err))
	}
}

func TestAuditLogClientFollowsContentBlobs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/subscriptions/content", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{{"contentUri": "/blob/1"}})
	})
	mux.HandleFunc("/blob/1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{{"Id": "e1", "Operation": "UserLoggedIn"}})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cache := NewCredentialCache(staticMinter{})
	client := NewAuditLogClient(server.URL, cache, 5*time.Second)

	events, err := client.FetchSince(context.Background(), "t1", time.Now().Add(-time.Hour), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || events[0]["Operation"] != "UserLoggedIn" {
		t.Fatalf("unexpected events: %v", events)
	}
}

func TestFactorySelectsBySourceType(t *testing.T) {
	cache := NewCredentialCache(staticMinter{})
	signIn := NewSignInClient("http://example", cache, time.Second)
	alert := NewSecurityAlertClient("http://example", cache, time.Second)
	audit := NewAuditLogClient("http://example", cache, time.Second)
	factory := NewFactory(signIn, alert, audit)

	if c, ok := factory.For(model.SourceSignIn); !ok || c != Client(signIn) {
		t.Fatalf("expected signIn client")
	}
	if _, ok := factory.For(model.SourceType("bogus")); ok {
		t.Fatalf("expected no client for unknown source")
	}
}
