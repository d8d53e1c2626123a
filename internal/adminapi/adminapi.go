// Package adminapi is the chi-routed HTTP surface backing the operator UI:
// reads of tenant status and rule bookkeeping, a per-tenant client secret
// upsert, read of alert-delivery config, run history, and a reload hook that
// notifies a running poller over the bus.
package adminapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"graphsentry/internal/bus"
	"graphsentry/internal/configstore"
	"graphsentry/internal/crypto"
	"graphsentry/internal/metrics"
)

// Handler serves the admin/rule API.
type Handler struct {
	Store     *configstore.Store
	Bus       *bus.Publisher
	Metrics   *metrics.Reader
	Encryptor crypto.Encryptor
	Timeout   time.Duration
}

type tenantSecretRequest struct {
	Name   string `json:"name"`
	Secret string `json:"secret"`
}

// RegisterRoutes mounts every admin/rule API route on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.handleHealthz)
	r.Get("/metrics", h.handleMetrics)
	r.Get("/tenants", h.handleTenantsList)
	r.Get("/tenants/{id}", h.handleTenantGet)
	r.Post("/tenants/{id}/secret", h.handleTenantSecretSet)
	r.Route("/rules", func(r chi.Router) {
		r.Get("/", h.handleRulesList)
		r.Post("/{id}/reload", h.handleRuleReload)
	})
	r.Get("/alerts-config", h.handleAlertsConfigGet)
	r.Get("/runs", h.handleRunsList)
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if h.Metrics == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "message": "metrics not configured"})
		return
	}
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	snap, err := h.Metrics.Read(ctx)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleTenantsList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	tenants, err := h.Store.ListTenants(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "failed to list tenants"})
		return
	}
	writeJSON(w, http.StatusOK, tenants)
}

func (h *Handler) handleTenantGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	tenant, err := h.Store.GetTenant(ctx, id)
	if err == configstore.ErrNotFound {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "message": "tenant not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "failed to load tenant"})
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

// handleTenantSecretSet encrypts an incoming client secret at rest and
// upserts it onto the tenant row.
func (h *Handler) handleTenantSecretSet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.Encryptor == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "message": "encryption not configured"})
		return
	}
	var req tenantSecretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": "invalid request body"})
		return
	}
	if req.Secret == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": "secret is required"})
		return
	}
	cipherText, err := h.Encryptor.Encrypt(req.Secret)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "failed to encrypt secret"})
		return
	}
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	if err := h.Store.SetTenantSecret(ctx, id, req.Name, cipherText); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "failed to store tenant secret"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleRulesList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	records, err := h.Store.ListRuleRecords(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "failed to list rule status"})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// handleRuleReload publishes rule.updated for the rule id. A running poller
// logs the event; its catalog is next loaded at the following scheduled tick.
func (h *Handler) handleRuleReload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.Bus == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "message": "bus not configured"})
		return
	}
	if err := h.Bus.Publish(bus.SubjectRuleUpdated, bus.RuleEvent{RuleID: id}); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "failed to publish reload event"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleAlertsConfigGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	cfg, err := h.Store.GetAlertsConfig(ctx)
	if err == configstore.ErrNotFound {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "message": "alerts config not set"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "failed to load alerts config"})
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *Handler) handleRunsList(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := parsePositiveInt(raw); err == nil {
			limit = parsed
		}
	}
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	runs, err := h.Store.ListRunSummaries(ctx, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "failed to list run summaries"})
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *Handler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := h.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func parsePositiveInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("adminapi: %d is not a positive integer", n)
	}
	return n, nil
}
