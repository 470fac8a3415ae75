package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/atinyakov/Vocap/internal/service"
)

// PreferencesService stores presentation preferences.
type PreferencesService interface {
	Get(ctx context.Context) service.PreferencesState
	CompleteOnboarding(ctx context.Context) error
	SetTheme(ctx context.Context, mode service.ThemeMode) error
}

// Wiper erases all local state.
type Wiper interface {
	Wipe(ctx context.Context) error
}

// SettingsHandler serves preferences and the data wipe.
type SettingsHandler struct {
	Preferences PreferencesService
	Wiper       Wiper
}

type preferencesRequest struct {
	OnboardingComplete *bool   `json:"onboardingComplete"`
	Theme              *string `json:"theme"`
}

// GetPreferences handles GET /api/preferences.
func (h *SettingsHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Preferences.Get(r.Context()))
}

// PutPreferences handles PUT /api/preferences. Onboarding can only be
// completed, never reset, short of a full wipe.
func (h *SettingsHandler) PutPreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	if req.OnboardingComplete != nil && *req.OnboardingComplete {
		if err := h.Preferences.CompleteOnboarding(ctx); err != nil {
			http.Error(w, "failed to save preferences", http.StatusInternalServerError)
			return
		}
	}
	if req.Theme != nil {
		if err := h.Preferences.SetTheme(ctx, service.ParseThemeMode(*req.Theme)); err != nil {
			http.Error(w, "failed to save preferences", http.StatusInternalServerError)
			return
		}
	}
	writeJSON(w, http.StatusOK, h.Preferences.Get(ctx))
}

// Wipe handles POST /api/data/wipe.
func (h *SettingsHandler) Wipe(w http.ResponseWriter, r *http.Request) {
	if err := h.Wiper.Wipe(r.Context()); err != nil {
		http.Error(w, "failed to wipe data", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
