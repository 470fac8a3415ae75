package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/atinyakov/Vocap/internal/models"
)

// SubscriptionService drives purchase, restore and downgrade.
type SubscriptionService interface {
	Purchase(ctx context.Context, productID string) models.BillingResult
	Restore(ctx context.Context) models.BillingResult
	Downgrade(ctx context.Context) error
	Tier(ctx context.Context) models.Tier
}

// SubscriptionHandler serves the paywall endpoints. Billing outcomes are
// always reported with 200 and a tagged result; only malformed requests
// and storage errors on downgrade produce error statuses.
type SubscriptionHandler struct {
	Subscription SubscriptionService
}

// PurchaseRequest is the body of POST /api/subscription/purchase.
type PurchaseRequest struct {
	ProductID string `json:"productId"`
}

// Status handles GET /api/subscription.
func (h *SubscriptionHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tier":          h.Subscription.Tier(r.Context()),
		"entitlementId": models.EntitlementID,
	})
}

// Offerings handles GET /api/subscription/offerings.
func (h *SubscriptionHandler) Offerings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.Offerings())
}

// Purchase handles POST /api/subscription/purchase.
func (h *SubscriptionHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if !knownProduct(req.ProductID) {
		http.Error(w, "unknown product", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.Subscription.Purchase(r.Context(), req.ProductID))
}

// Restore handles POST /api/subscription/restore.
func (h *SubscriptionHandler) Restore(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Subscription.Restore(r.Context()))
}

// Downgrade handles POST /api/subscription/downgrade.
func (h *SubscriptionHandler) Downgrade(w http.ResponseWriter, r *http.Request) {
	if err := h.Subscription.Downgrade(r.Context()); err != nil {
		http.Error(w, "failed to downgrade", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tier": h.Subscription.Tier(r.Context())})
}

func knownProduct(id string) bool {
	for _, o := range models.Offerings() {
		if o.ProductID == id {
			return true
		}
	}
	return false
}
