package service

import (
	"context"
	"errors"
	"time"

	"github.com/atinyakov/Vocap/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Errors a BillingProvider returns to distinguish purchase outcomes.
// Any other error is treated as a network failure.
var (
	ErrPurchaseCancelled = errors.New("purchase cancelled by user")
	ErrPaymentDeclined   = errors.New("payment declined")
	ErrAlreadyOwned      = errors.New("product already owned")
	ErrReceiptInvalid    = errors.New("receipt validation failed")
)

// BillingProvider is the platform billing collaborator.
type BillingProvider interface {
	// Purchase submits a purchase for productID and returns a verified receipt.
	Purchase(ctx context.Context, productID string) (models.Receipt, error)
	// Restore reports whether the platform holds an active entitlement.
	Restore(ctx context.Context) (bool, error)
}

// EntitlementWriter is the write side of the entitlement store.
type EntitlementWriter interface {
	Entitlements
	SetPremium(ctx context.Context, premium bool) error
}

// SubscriptionService flips the entitlement according to billing results.
type SubscriptionService struct {
	provider     BillingProvider
	entitlements EntitlementWriter
	timeout      time.Duration
	log          *zap.Logger
}

// NewSubscriptionService constructs a SubscriptionService. A positive
// timeout bounds every provider call.
func NewSubscriptionService(provider BillingProvider, entitlements EntitlementWriter, timeout time.Duration, log *zap.Logger) *SubscriptionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SubscriptionService{
		provider:     provider,
		entitlements: entitlements,
		timeout:      timeout,
		log:          log,
	}
}

// Purchase buys productID and grants premium on success.
func (s *SubscriptionService) Purchase(ctx context.Context, productID string) models.BillingResult {
	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	receipt, err := s.provider.Purchase(callCtx, productID)
	if errors.Is(err, ErrAlreadyOwned) {
		return s.grant(ctx, models.OutcomeAlreadyOwned)
	}
	if err != nil {
		res := s.failure(ctx, err)
		s.log.Warn("purchase failed",
			zap.String("product", productID), zap.String("outcome", string(res.Outcome)), zap.Error(err))
		return res
	}

	s.log.Info("purchase completed",
		zap.String("product", receipt.ProductID), zap.String("transaction", receipt.TransactionID))
	return s.grant(ctx, models.OutcomePurchased)
}

// Restore asks the provider for an existing entitlement and applies it.
func (s *SubscriptionService) Restore(ctx context.Context) models.BillingResult {
	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	entitled, err := s.provider.Restore(callCtx)
	if err != nil {
		res := s.failure(ctx, err)
		s.log.Warn("restore failed", zap.String("outcome", string(res.Outcome)), zap.Error(err))
		return res
	}
	if !entitled {
		return models.BillingResult{Outcome: models.OutcomeNothingToRestore, Tier: s.entitlements.Tier(ctx)}
	}

	return s.grant(ctx, models.OutcomeRestored)
}

// Downgrade drops premium access. Confirmation is the caller's concern.
func (s *SubscriptionService) Downgrade(ctx context.Context) error {
	return s.entitlements.SetPremium(ctx, false)
}

// Tier returns the current entitlement tier.
func (s *SubscriptionService) Tier(ctx context.Context) models.Tier {
	return s.entitlements.Tier(ctx)
}

// grant persists premium access and reports outcome, or a storage failure
// when the flag could not be written.
func (s *SubscriptionService) grant(ctx context.Context, outcome models.BillingOutcome) models.BillingResult {
	if err := s.entitlements.SetPremium(ctx, true); err != nil {
		return models.BillingResult{
			Outcome: models.OutcomeStorageFailure,
			Tier:    s.entitlements.Tier(ctx),
			Detail:  err.Error(),
		}
	}
	return models.BillingResult{Outcome: outcome, Tier: models.TierPremium}
}

func (s *SubscriptionService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *SubscriptionService) failure(ctx context.Context, err error) models.BillingResult {
	res := models.BillingResult{Tier: s.entitlements.Tier(ctx), Detail: err.Error()}
	switch {
	case errors.Is(err, ErrPurchaseCancelled), errors.Is(err, context.Canceled):
		res.Outcome = models.OutcomeCancelled
	case errors.Is(err, ErrPaymentDeclined):
		res.Outcome = models.OutcomeDeclined
	case errors.Is(err, ErrReceiptInvalid):
		res.Outcome = models.OutcomeReceiptInvalid
	case errors.Is(err, context.DeadlineExceeded):
		res.Outcome = models.OutcomeTimeout
	default:
		res.Outcome = models.OutcomeNetworkFailure
	}
	return res
}

// DefaultPurchaseLatency mimics the round trip of a store purchase sheet.
const DefaultPurchaseLatency = 800 * time.Millisecond

// LocalBillingProvider stands in for a platform store. Purchases always
// succeed after a delay; restore reports whatever the entitlement store holds.
type LocalBillingProvider struct {
	entitlements Entitlements
	latency      time.Duration
	now          Clock
}

// NewLocalBillingProvider constructs the mock provider.
func NewLocalBillingProvider(entitlements Entitlements, latency time.Duration, now Clock) *LocalBillingProvider {
	if now == nil {
		now = time.Now
	}
	return &LocalBillingProvider{entitlements: entitlements, latency: latency, now: now}
}

// Purchase waits for the configured latency and returns a fresh receipt.
func (p *LocalBillingProvider) Purchase(ctx context.Context, productID string) (models.Receipt, error) {
	if err := p.wait(ctx); err != nil {
		return models.Receipt{}, err
	}
	return models.Receipt{
		ProductID:     productID,
		TransactionID: uuid.NewString(),
		PurchasedAt:   p.now().UnixMilli(),
	}, nil
}

// Restore waits for the configured latency and reports the stored entitlement.
func (p *LocalBillingProvider) Restore(ctx context.Context) (bool, error) {
	if err := p.wait(ctx); err != nil {
		return false, err
	}
	return p.entitlements.Tier(ctx).IsPremium(), nil
}

func (p *LocalBillingProvider) wait(ctx context.Context) error {
	if p.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
