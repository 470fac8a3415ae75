package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/atinyakov/Vocap/internal/models"
	"go.uber.org/zap"
)

// ErrMemoNotFound is returned when no memo has the requested ID.
var ErrMemoNotFound = errors.New("memo not found")

// MemoService holds the ordered memo collection, most recent first, and
// persists the whole list under a single key after every mutation.
//
// When a write fails the in-memory list keeps the mutation and the error is
// returned; the next successful write brings the store back in line.
type MemoService struct {
	store KeyValueStore
	log   *zap.Logger

	mu    sync.RWMutex
	memos []models.VoiceMemo
}

// NewMemoService constructs an empty collection. Call Load to read persisted memos.
func NewMemoService(store KeyValueStore, log *zap.Logger) *MemoService {
	if log == nil {
		log = zap.NewNop()
	}
	return &MemoService{store: store, log: log}
}

// Load replaces the in-memory list with the persisted one.
func (s *MemoService) Load(ctx context.Context) error {
	raw, ok, err := s.store.Get(ctx, models.KeyMemos)
	if err != nil {
		return fmt.Errorf("load memos: %w", err)
	}

	var memos []models.VoiceMemo
	if ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &memos); err != nil {
			return fmt.Errorf("decode memos: %w", err)
		}
	}

	s.mu.Lock()
	s.memos = memos
	s.mu.Unlock()
	s.log.Debug("memos loaded", zap.Int("count", len(memos)))
	return nil
}

// List returns a copy of the collection, most recent first.
func (s *MemoService) List() []models.VoiceMemo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.VoiceMemo, len(s.memos))
	copy(out, s.memos)
	return out
}

// Get returns the memo with id.
func (s *MemoService) Get(id string) (models.VoiceMemo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.memos {
		if m.ID == id {
			return m, true
		}
	}
	return models.VoiceMemo{}, false
}

// Search returns memos whose title, transcript, summary or tags contain q,
// ignoring case. An empty query returns everything.
func (s *MemoService) Search(q string) []models.VoiceMemo {
	q = strings.ToLower(strings.TrimSpace(q))
	all := s.List()
	if q == "" {
		return all
	}
	var out []models.VoiceMemo
	for _, m := range all {
		if memoMatches(m, q) {
			out = append(out, m)
		}
	}
	return out
}

func memoMatches(m models.VoiceMemo, q string) bool {
	for _, field := range []string{m.Title, m.Transcript, m.Summary} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	for _, tag := range m.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// Add prepends memo and persists the collection. An empty ID is filled in.
func (s *MemoService) Add(ctx context.Context, memo models.VoiceMemo) (models.VoiceMemo, error) {
	if memo.ID == "" {
		memo.ID = models.NewMemoID()
	}
	if memo.Tags == nil {
		memo.Tags = []string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.memos = append([]models.VoiceMemo{memo}, s.memos...)
	return memo, s.persist(ctx)
}

// Update merges patch into the memo with id and persists the collection.
func (s *MemoService) Update(ctx context.Context, id string, patch models.MemoPatch) (models.VoiceMemo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.memos {
		if s.memos[i].ID == id {
			s.memos[i] = patch.Apply(s.memos[i])
			return s.memos[i], s.persist(ctx)
		}
	}
	return models.VoiceMemo{}, ErrMemoNotFound
}

// Delete removes the memo with id and persists the collection.
// Releasing the audio file is the caller's responsibility.
func (s *MemoService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.memos {
		if s.memos[i].ID == id {
			s.memos = append(s.memos[:i:i], s.memos[i+1:]...)
			return s.persist(ctx)
		}
	}
	return ErrMemoNotFound
}

// Export renders the memo with id as shareable text.
func (s *MemoService) Export(id string) (string, error) {
	m, ok := s.Get(id)
	if !ok {
		return "", ErrMemoNotFound
	}
	return models.ExportText(m), nil
}

// Reset drops the in-memory list without touching the store.
func (s *MemoService) Reset() {
	s.mu.Lock()
	s.memos = nil
	s.mu.Unlock()
}

// persist must be called with mu held.
func (s *MemoService) persist(ctx context.Context) error {
	memos := s.memos
	if memos == nil {
		memos = []models.VoiceMemo{}
	}
	b, err := json.Marshal(memos)
	if err != nil {
		return fmt.Errorf("encode memos: %w", err)
	}
	if err := s.store.Set(ctx, models.KeyMemos, string(b)); err != nil {
		s.log.Error("failed to save memos", zap.Int("count", len(memos)), zap.Error(err))
		return fmt.Errorf("save memos: %w", err)
	}
	return nil
}
