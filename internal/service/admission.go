package service

import (
	"context"
	"fmt"
	"time"

	"github.com/atinyakov/Vocap/internal/models"
)

// Entitlements is the read side of the entitlement store.
type Entitlements interface {
	Tier(ctx context.Context) models.Tier
}

// UsageReader is the read side of the usage counter.
type UsageReader interface {
	Count(ctx context.Context) int
}

// AdmissionController decides whether a recording or a gated feature may proceed.
// It has no side effects; consuming quota is the caller's job once a
// recording has actually been handed off for processing.
type AdmissionController struct {
	entitlements Entitlements
	usage        UsageReader
	limits       models.FreeTierLimits
}

// NewAdmissionController constructs an AdmissionController enforcing limits.
func NewAdmissionController(entitlements Entitlements, usage UsageReader, limits models.FreeTierLimits) *AdmissionController {
	return &AdmissionController{entitlements: entitlements, usage: usage, limits: limits}
}

// CanRecord answers whether a new recording may start now.
// Premium users are admitted without consulting the usage counter.
func (a *AdmissionController) CanRecord(ctx context.Context) models.Decision {
	if a.entitlements.Tier(ctx).IsPremium() {
		return models.Decision{Allowed: true}
	}

	if a.usage.Count(ctx) >= a.limits.MaxRecordingsPerMonth {
		return models.Decision{
			Allowed: false,
			Reason: fmt.Sprintf(
				"You've used all %d free recordings this month. Upgrade to Premium for unlimited recordings.",
				a.limits.MaxRecordingsPerMonth),
		}
	}
	return models.Decision{Allowed: true}
}

// CanAccessFeature reports whether feature is unlocked. Entitlement is
// all-or-nothing, so every feature maps to the premium tier.
func (a *AdmissionController) CanAccessFeature(ctx context.Context, _ models.Feature) bool {
	return a.entitlements.Tier(ctx).IsPremium()
}

// MaxRecordingDuration returns the per-recording cap for the current tier.
// Zero means unlimited. The recorder's polling loop owns the running check.
func (a *AdmissionController) MaxRecordingDuration(ctx context.Context) time.Duration {
	if a.entitlements.Tier(ctx).IsPremium() {
		return 0
	}
	return time.Duration(a.limits.MaxRecordingDurationSeconds) * time.Second
}
