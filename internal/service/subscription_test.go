package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/atinyakov/Vocap/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBilling struct {
	PurchaseFunc func(ctx context.Context, productID string) (models.Receipt, error)
	RestoreFunc  func(ctx context.Context) (bool, error)
}

func (m *mockBilling) Purchase(ctx context.Context, productID string) (models.Receipt, error) {
	return m.PurchaseFunc(ctx, productID)
}

func (m *mockBilling) Restore(ctx context.Context) (bool, error) {
	return m.RestoreFunc(ctx)
}

func purchaseFails(err error) *mockBilling {
	return &mockBilling{PurchaseFunc: func(context.Context, string) (models.Receipt, error) {
		return models.Receipt{}, err
	}}
}

func TestPurchase_Success(t *testing.T) {
	store := newMockStore(nil)
	ent := NewEntitlementStore(store, nil)
	provider := &mockBilling{PurchaseFunc: func(_ context.Context, productID string) (models.Receipt, error) {
		assert.Equal(t, models.ProductMonthly, productID)
		return models.Receipt{ProductID: productID, TransactionID: "tx-1"}, nil
	}}
	svc := NewSubscriptionService(provider, ent, 0, nil)

	res := svc.Purchase(context.Background(), models.ProductMonthly)
	assert.Equal(t, models.OutcomePurchased, res.Outcome)
	assert.Equal(t, models.TierPremium, res.Tier)
	assert.True(t, res.OK())
	assert.True(t, ent.IsPremium(context.Background()))
}

func TestPurchase_FailureOutcomes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want models.BillingOutcome
	}{
		{"cancelled", ErrPurchaseCancelled, models.OutcomeCancelled},
		{"declined", fmt.Errorf("card: %w", ErrPaymentDeclined), models.OutcomeDeclined},
		{"receipt", ErrReceiptInvalid, models.OutcomeReceiptInvalid},
		{"network", errors.New("connection reset"), models.OutcomeNetworkFailure},
		{"deadline", context.DeadlineExceeded, models.OutcomeTimeout},
		{"context cancelled", context.Canceled, models.OutcomeCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ent := NewEntitlementStore(newMockStore(nil), nil)
			svc := NewSubscriptionService(purchaseFails(tt.err), ent, 0, nil)

			res := svc.Purchase(context.Background(), models.ProductAnnual)
			assert.Equal(t, tt.want, res.Outcome)
			assert.Equal(t, models.TierFree, res.Tier)
			assert.NotEmpty(t, res.Detail)
			assert.False(t, ent.IsPremium(context.Background()))
		})
	}
}

func TestPurchase_AlreadyOwnedGrantsPremium(t *testing.T) {
	ent := NewEntitlementStore(newMockStore(nil), nil)
	svc := NewSubscriptionService(purchaseFails(ErrAlreadyOwned), ent, 0, nil)

	res := svc.Purchase(context.Background(), models.ProductMonthly)
	assert.Equal(t, models.OutcomeAlreadyOwned, res.Outcome)
	assert.True(t, res.OK())
	assert.True(t, ent.IsPremium(context.Background()))
}

func TestPurchase_StorageFailure(t *testing.T) {
	store := newMockStore(nil)
	store.SetErr = errStore
	provider := &mockBilling{PurchaseFunc: func(_ context.Context, productID string) (models.Receipt, error) {
		return models.Receipt{ProductID: productID}, nil
	}}
	svc := NewSubscriptionService(provider, NewEntitlementStore(store, nil), 0, nil)

	res := svc.Purchase(context.Background(), models.ProductMonthly)
	assert.Equal(t, models.OutcomeStorageFailure, res.Outcome)
	assert.Equal(t, models.TierFree, res.Tier)
	assert.False(t, res.OK())
}

func TestPurchase_Timeout(t *testing.T) {
	provider := &mockBilling{PurchaseFunc: func(ctx context.Context, _ string) (models.Receipt, error) {
		<-ctx.Done()
		return models.Receipt{}, ctx.Err()
	}}
	ent := NewEntitlementStore(newMockStore(nil), nil)
	svc := NewSubscriptionService(provider, ent, 20*time.Millisecond, nil)

	res := svc.Purchase(context.Background(), models.ProductMonthly)
	assert.Equal(t, models.OutcomeTimeout, res.Outcome)
	assert.True(t, res.Retryable())
	assert.False(t, ent.IsPremium(context.Background()))
}

func TestRestore(t *testing.T) {
	t.Run("entitled", func(t *testing.T) {
		ent := NewEntitlementStore(newMockStore(nil), nil)
		provider := &mockBilling{RestoreFunc: func(context.Context) (bool, error) { return true, nil }}
		res := NewSubscriptionService(provider, ent, 0, nil).Restore(context.Background())

		assert.Equal(t, models.OutcomeRestored, res.Outcome)
		assert.True(t, ent.IsPremium(context.Background()))
	})

	t.Run("nothing to restore", func(t *testing.T) {
		store := newMockStore(nil)
		ent := NewEntitlementStore(store, nil)
		provider := &mockBilling{RestoreFunc: func(context.Context) (bool, error) { return false, nil }}
		res := NewSubscriptionService(provider, ent, 0, nil).Restore(context.Background())

		assert.Equal(t, models.OutcomeNothingToRestore, res.Outcome)
		assert.Equal(t, models.TierFree, res.Tier)
		assert.Equal(t, 0, store.writes)
	})

	t.Run("network failure", func(t *testing.T) {
		ent := NewEntitlementStore(newMockStore(nil), nil)
		provider := &mockBilling{RestoreFunc: func(context.Context) (bool, error) { return false, errors.New("offline") }}
		res := NewSubscriptionService(provider, ent, 0, nil).Restore(context.Background())

		assert.Equal(t, models.OutcomeNetworkFailure, res.Outcome)
		assert.True(t, res.Retryable())
	})
}

func TestDowngradeRoundTrip(t *testing.T) {
	store := newMockStore(nil)
	ent := NewEntitlementStore(store, nil)
	clock := newFixedClock(2025, time.June, 2)
	provider := NewLocalBillingProvider(ent, 0, clock.Now)
	svc := NewSubscriptionService(provider, ent, time.Second, nil)
	ctx := context.Background()

	require.Equal(t, models.OutcomePurchased, svc.Purchase(ctx, models.ProductAnnual).Outcome)
	assert.Equal(t, models.TierPremium, svc.Tier(ctx))

	require.NoError(t, svc.Downgrade(ctx))
	assert.Equal(t, models.TierFree, svc.Tier(ctx))

	res := svc.Restore(ctx)
	assert.Equal(t, models.OutcomeNothingToRestore, res.Outcome)
}

func TestLocalBillingProvider(t *testing.T) {
	store := newMockStore(nil)
	ent := NewEntitlementStore(store, nil)
	clock := newFixedClock(2025, time.June, 2)
	p := NewLocalBillingProvider(ent, time.Millisecond, clock.Now)
	ctx := context.Background()

	r1, err := p.Purchase(ctx, models.ProductMonthly)
	require.NoError(t, err)
	r2, err := p.Purchase(ctx, models.ProductMonthly)
	require.NoError(t, err)
	assert.Equal(t, models.ProductMonthly, r1.ProductID)
	assert.Equal(t, clock.Now().UnixMilli(), r1.PurchasedAt)
	assert.NotEqual(t, r1.TransactionID, r2.TransactionID)

	ok, err := p.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, ent.SetPremium(ctx, true))
	ok, err = p.Restore(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalBillingProvider_RespectsContext(t *testing.T) {
	p := NewLocalBillingProvider(tierOf(models.TierFree), time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Purchase(ctx, models.ProductMonthly)
	assert.ErrorIs(t, err, context.Canceled)
}
