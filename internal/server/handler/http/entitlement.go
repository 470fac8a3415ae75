// Package http provides HTTP handlers exposing admission control, usage,
// subscription, memo and preference operations of the Vocap engine.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/atinyakov/Vocap/internal/models"
	"github.com/go-chi/chi/v5"
)

// AdmissionService answers gating questions.
type AdmissionService interface {
	CanRecord(ctx context.Context) models.Decision
	CanAccessFeature(ctx context.Context, feature models.Feature) bool
	MaxRecordingDuration(ctx context.Context) time.Duration
}

// UsageService exposes the monthly recording counter.
type UsageService interface {
	Increment(ctx context.Context)
	Snapshot(ctx context.Context, premium bool) models.UsageSnapshot
}

// TierReader reports the current entitlement tier.
type TierReader interface {
	Tier(ctx context.Context) models.Tier
}

// EntitlementHandler serves admission and usage endpoints.
type EntitlementHandler struct {
	Admission    AdmissionService
	Counter      UsageService
	Entitlements TierReader
}

type admissionResponse struct {
	models.Decision
	// MaxDurationSeconds is 0 when recordings are unlimited.
	MaxDurationSeconds int `json:"maxDurationSeconds"`
}

// CanRecord handles GET /api/admission/record.
func (h *EntitlementHandler) CanRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	writeJSON(w, http.StatusOK, admissionResponse{
		Decision:           h.Admission.CanRecord(ctx),
		MaxDurationSeconds: int(h.Admission.MaxRecordingDuration(ctx) / time.Second),
	})
}

// Feature handles GET /api/features/{feature}.
func (h *EntitlementHandler) Feature(w http.ResponseWriter, r *http.Request) {
	feature, err := models.ParseFeature(chi.URLParam(r, "feature"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"feature": feature,
		"allowed": h.Admission.CanAccessFeature(r.Context(), feature),
	})
}

// Usage handles GET /api/usage.
func (h *EntitlementHandler) Usage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	premium := h.Entitlements.Tier(ctx).IsPremium()
	writeJSON(w, http.StatusOK, h.Counter.Snapshot(ctx, premium))
}

// Increment handles POST /api/usage/increment. Storage failures are absorbed
// by the counter, so the response is always 204.
func (h *EntitlementHandler) Increment(w http.ResponseWriter, r *http.Request) {
	h.Counter.Increment(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
