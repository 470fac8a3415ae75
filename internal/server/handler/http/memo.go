package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/atinyakov/Vocap/internal/models"
	"github.com/atinyakov/Vocap/internal/service"
	"github.com/go-chi/chi/v5"
)

// MemoService is the memo collection as seen by the handlers.
type MemoService interface {
	List() []models.VoiceMemo
	Search(q string) []models.VoiceMemo
	Get(id string) (models.VoiceMemo, bool)
	Add(ctx context.Context, memo models.VoiceMemo) (models.VoiceMemo, error)
	Update(ctx context.Context, id string, patch models.MemoPatch) (models.VoiceMemo, error)
	Delete(ctx context.Context, id string) error
	Export(id string) (string, error)
}

// FeatureGate reports whether a premium feature is unlocked.
type FeatureGate interface {
	CanAccessFeature(ctx context.Context, feature models.Feature) bool
}

// MemoHandler serves the memo collection.
type MemoHandler struct {
	Memos MemoService
	Gate  FeatureGate
	// Now stamps memos posted without createdAt. Nil means time.Now.
	Now func() time.Time
}

// List handles GET /api/memos, optionally filtered by ?q=.
func (h *MemoHandler) List(w http.ResponseWriter, r *http.Request) {
	memos := h.Memos.Search(r.URL.Query().Get("q"))
	if memos == nil {
		memos = []models.VoiceMemo{}
	}
	writeJSON(w, http.StatusOK, memos)
}

// Create handles POST /api/memos. A missing title is generated from the
// transcript and a missing createdAt is set to now. Quota is consumed
// separately through the usage endpoint.
func (h *MemoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var memo models.VoiceMemo
	if err := json.NewDecoder(r.Body).Decode(&memo); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if memo.Title == "" {
		memo.Title = models.GenerateTitle(memo.Transcript)
	}
	if memo.CreatedAt == 0 {
		memo.CreatedAt = h.now().UnixMilli()
	}
	saved, err := h.Memos.Add(r.Context(), memo)
	if err != nil {
		http.Error(w, "failed to save memo", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// Get handles GET /api/memos/{id}.
func (h *MemoHandler) Get(w http.ResponseWriter, r *http.Request) {
	memo, ok := h.Memos.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "memo not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, memo)
}

// Update handles PATCH /api/memos/{id}.
func (h *MemoHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.MemoPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	memo, err := h.Memos.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if errors.Is(err, service.ErrMemoNotFound) {
		http.Error(w, "memo not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "failed to save memo", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, memo)
}

// Delete handles DELETE /api/memos/{id}.
func (h *MemoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.Memos.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, service.ErrMemoNotFound) {
		http.Error(w, "memo not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "failed to save memos", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /api/memos/{id}/export. Export is a premium feature.
func (h *MemoHandler) Export(w http.ResponseWriter, r *http.Request) {
	if !h.Gate.CanAccessFeature(r.Context(), models.FeatureExport) {
		http.Error(w, "export requires premium", http.StatusPaymentRequired)
		return
	}
	text, err := h.Memos.Export(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "memo not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(text))
}

func (h *MemoHandler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}
