// Package models defines the core data structures for voice memos,
// entitlement tiers and the free-tier usage policy.
package models

import (
	"github.com/google/uuid"
)

// VoiceMemo is a completed recording together with its AI-produced text.
type VoiceMemo struct {
	// ID is the unique identifier for the memo.
	ID string `json:"id"`
	// Title is derived from the first sentence of the transcript.
	Title string `json:"title"`
	// Transcript is the full speech-to-text output.
	Transcript string `json:"transcript"`
	// Summary is the short AI summary of the transcript.
	Summary string `json:"summary"`
	// Tags holds the extracted keywords in the order the transcriber returned them.
	Tags []string `json:"tags"`
	// AudioURI points at the recorded audio resource.
	AudioURI string `json:"audioUri"`
	// DurationMillis is the recording length in milliseconds.
	DurationMillis int64 `json:"duration"`
	// CreatedAt is the creation time in Unix milliseconds.
	CreatedAt int64 `json:"createdAt"`
	// IsPremium is a snapshot taken at creation time, not a live value.
	IsPremium bool `json:"isPremium"`
}

// MemoPatch carries a partial update for a VoiceMemo.
// Nil fields are left untouched.
type MemoPatch struct {
	Title      *string   `json:"title,omitempty"`
	Transcript *string   `json:"transcript,omitempty"`
	Summary    *string   `json:"summary,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`
	AudioURI   *string   `json:"audioUri,omitempty"`
	IsPremium  *bool     `json:"isPremium,omitempty"`
}

// Apply merges the non-nil fields of p into m and returns the result.
func (p MemoPatch) Apply(m VoiceMemo) VoiceMemo {
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Transcript != nil {
		m.Transcript = *p.Transcript
	}
	if p.Summary != nil {
		m.Summary = *p.Summary
	}
	if p.Tags != nil {
		m.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.AudioURI != nil {
		m.AudioURI = *p.AudioURI
	}
	if p.IsPremium != nil {
		m.IsPremium = *p.IsPremium
	}
	return m
}

// NewMemoID returns a random identifier for a new memo.
func NewMemoID() string {
	return uuid.NewString()
}

// Persisted key names in the flat key-value store.
const (
	KeyPremiumFlag         = "premium_flag"
	KeyRecordingCount      = "recording_count"
	KeyRecordingCountMonth = "recording_count_month"
	KeyMemos               = "memos"
	KeyOnboardingComplete  = "onboarding_complete"
	KeyThemeMode           = "theme_mode"
)
