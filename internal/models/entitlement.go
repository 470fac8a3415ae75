package models

import (
	"fmt"
	"strings"
)

// Tier is the entitlement level of the user.
type Tier string

const (
	// TierFree is the default, quota-limited mode.
	TierFree Tier = "free"
	// TierPremium unlocks every gated feature and removes the quota.
	TierPremium Tier = "premium"
)

// TierFromPremium maps the persisted boolean flag to a Tier.
func TierFromPremium(premium bool) Tier {
	if premium {
		return TierPremium
	}
	return TierFree
}

// IsPremium reports whether t grants premium access.
func (t Tier) IsPremium() bool {
	return t == TierPremium
}

// Feature identifies a premium-gated capability.
type Feature string

const (
	// FeatureAISummary reveals the AI summary of a memo.
	FeatureAISummary Feature = "ai_summary"
	// FeatureExport shares a memo as plain text.
	FeatureExport Feature = "export"
	// FeatureUnlimitedLength lifts the per-recording duration cap.
	FeatureUnlimitedLength Feature = "unlimited_length"
)

// ParseFeature validates a feature name coming from outside the process.
func ParseFeature(s string) (Feature, error) {
	switch f := Feature(strings.ToLower(strings.TrimSpace(s))); f {
	case FeatureAISummary, FeatureExport, FeatureUnlimitedLength:
		return f, nil
	default:
		return "", fmt.Errorf("unknown feature %q", s)
	}
}

// FreeTierLimits is the static usage policy for non-premium users.
type FreeTierLimits struct {
	MaxRecordingsPerMonth       int `json:"maxRecordingsPerMonth"`
	MaxRecordingDurationSeconds int `json:"maxRecordingDurationSeconds"`
}

const (
	// FreeMaxRecordingsPerMonth caps completed recordings per calendar month.
	FreeMaxRecordingsPerMonth = 5
	// FreeMaxRecordingDurationSeconds caps a single free recording.
	FreeMaxRecordingDurationSeconds = 30
)

// FreeLimits is the compiled-in free-tier policy.
var FreeLimits = FreeTierLimits{
	MaxRecordingsPerMonth:       FreeMaxRecordingsPerMonth,
	MaxRecordingDurationSeconds: FreeMaxRecordingDurationSeconds,
}

// Decision is the answer of admission control to a recording request.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// UsageSnapshot describes the usage counter for display purposes.
type UsageSnapshot struct {
	Count    int    `json:"count"`
	MonthKey string `json:"monthKey"`
	Limit    int    `json:"limit"`
	// Remaining is -1 when the user is premium.
	Remaining int `json:"remaining"`
}
