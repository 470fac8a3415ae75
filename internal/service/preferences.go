package service

import (
	"context"
	"fmt"

	"github.com/atinyakov/Vocap/internal/models"
	"go.uber.org/zap"
)

// ThemeMode is the presentation colour scheme preference.
type ThemeMode string

const (
	ThemeSystem ThemeMode = "system"
	ThemeLight  ThemeMode = "light"
	ThemeDark   ThemeMode = "dark"
)

// ParseThemeMode maps unknown values to ThemeSystem.
func ParseThemeMode(s string) ThemeMode {
	switch m := ThemeMode(s); m {
	case ThemeLight, ThemeDark, ThemeSystem:
		return m
	default:
		return ThemeSystem
	}
}

// PreferencesState is the presentation-side state kept next to the core keys.
type PreferencesState struct {
	OnboardingComplete bool      `json:"onboardingComplete"`
	Theme              ThemeMode `json:"theme"`
}

// Preferences reads and writes presentation preferences.
type Preferences struct {
	store KeyValueStore
	log   *zap.Logger
}

// NewPreferences constructs Preferences over store.
func NewPreferences(store KeyValueStore, log *zap.Logger) *Preferences {
	if log == nil {
		log = zap.NewNop()
	}
	return &Preferences{store: store, log: log}
}

// Get returns the stored preferences; read errors yield the defaults.
func (p *Preferences) Get(ctx context.Context) PreferencesState {
	vals, err := p.store.MultiGet(ctx, models.KeyOnboardingComplete, models.KeyThemeMode)
	if err != nil {
		p.log.Warn("failed to read preferences", zap.Error(err))
		return PreferencesState{Theme: ThemeSystem}
	}
	return PreferencesState{
		OnboardingComplete: vals[models.KeyOnboardingComplete] == "true",
		Theme:              ParseThemeMode(vals[models.KeyThemeMode]),
	}
}

// CompleteOnboarding marks the first-run flow as done.
func (p *Preferences) CompleteOnboarding(ctx context.Context) error {
	if err := p.store.Set(ctx, models.KeyOnboardingComplete, "true"); err != nil {
		return fmt.Errorf("save onboarding flag: %w", err)
	}
	return nil
}

// SetTheme stores the theme preference.
func (p *Preferences) SetTheme(ctx context.Context, mode ThemeMode) error {
	if err := p.store.Set(ctx, models.KeyThemeMode, string(ParseThemeMode(string(mode)))); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}

// DataWiper performs the full data wipe: every key is removed and the
// in-memory memo list is dropped.
type DataWiper struct {
	store KeyValueStore
	memos *MemoService
	log   *zap.Logger
}

// NewDataWiper constructs a DataWiper.
func NewDataWiper(store KeyValueStore, memos *MemoService, log *zap.Logger) *DataWiper {
	if log == nil {
		log = zap.NewNop()
	}
	return &DataWiper{store: store, memos: memos, log: log}
}

// Wipe clears the store. Audio files referenced by memos are not touched.
func (w *DataWiper) Wipe(ctx context.Context) error {
	if err := w.store.Clear(ctx); err != nil {
		w.log.Error("failed to wipe data", zap.Error(err))
		return fmt.Errorf("wipe: %w", err)
	}
	w.memos.Reset()
	w.log.Info("all local data wiped")
	return nil
}
