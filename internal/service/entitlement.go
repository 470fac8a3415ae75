package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/atinyakov/Vocap/internal/models"
	"go.uber.org/zap"
)

// EntitlementStore is the single source of truth for premium status.
// Any read failure is reported as the free tier.
type EntitlementStore struct {
	store KeyValueStore
	log   *zap.Logger
}

// NewEntitlementStore constructs an EntitlementStore over store.
func NewEntitlementStore(store KeyValueStore, log *zap.Logger) *EntitlementStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &EntitlementStore{store: store, log: log}
}

// Tier returns the current entitlement tier.
func (e *EntitlementStore) Tier(ctx context.Context) models.Tier {
	v, ok, err := e.store.Get(ctx, models.KeyPremiumFlag)
	if err != nil {
		e.log.Warn("failed to read premium flag, treating as free", zap.Error(err))
		return models.TierFree
	}
	if !ok {
		return models.TierFree
	}
	switch v {
	case "true":
		return models.TierPremium
	case "false":
		return models.TierFree
	default:
		e.log.Warn("invalid premium flag, treating as free", zap.String("value", v))
		return models.TierFree
	}
}

// IsPremium reports whether the user currently holds premium access.
func (e *EntitlementStore) IsPremium(ctx context.Context) bool {
	return e.Tier(ctx).IsPremium()
}

// SetPremium persists the flag unconditionally.
func (e *EntitlementStore) SetPremium(ctx context.Context, premium bool) error {
	if err := e.store.Set(ctx, models.KeyPremiumFlag, strconv.FormatBool(premium)); err != nil {
		e.log.Error("failed to persist premium flag", zap.Bool("premium", premium), zap.Error(err))
		return fmt.Errorf("set premium: %w", err)
	}
	e.log.Info("entitlement changed", zap.String("tier", string(models.TierFromPremium(premium))))
	return nil
}
