package service

import (
	"context"
	"testing"
	"time"

	"github.com/atinyakov/Vocap/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsageCounter_MonthKey(t *testing.T) {
	clock := newFixedClock(2025, time.March, 9)
	u := NewUsageCounter(newMockStore(nil), clock.Now, nil)
	assert.Equal(t, "2025-03", u.MonthKey())

	clock.set(time.Date(2025, time.December, 31, 23, 59, 0, 0, time.Local))
	assert.Equal(t, "2025-12", u.MonthKey())
}

func TestUsageCounter_FreshInstallIsZeroWithoutWrites(t *testing.T) {
	store := newMockStore(nil)
	u := NewUsageCounter(store, newFixedClock(2025, time.March, 1).Now, nil)

	assert.Equal(t, 0, u.Count(context.Background()))
	assert.Equal(t, 0, store.writes)
}

func TestUsageCounter_IncrementSameMonth(t *testing.T) {
	store := newMockStore(nil)
	u := NewUsageCounter(store, newFixedClock(2025, time.March, 1).Now, nil)
	ctx := context.Background()

	for i := 1; i <= 7; i++ {
		u.Increment(ctx)
		assert.Equal(t, i, u.Count(ctx))
	}

	v, _ := store.value(models.KeyRecordingCount)
	assert.Equal(t, "7", v)
	m, _ := store.value(models.KeyRecordingCountMonth)
	assert.Equal(t, "2025-03", m)
}

func TestUsageCounter_StaleMonthResets(t *testing.T) {
	store := newMockStore(map[string]string{
		models.KeyRecordingCount:      "5",
		models.KeyRecordingCountMonth: "2025-01",
	})
	u := NewUsageCounter(store, newFixedClock(2025, time.February, 1).Now, nil)

	assert.Equal(t, 0, u.Count(context.Background()))

	v, _ := store.value(models.KeyRecordingCount)
	assert.Equal(t, "0", v)
	m, _ := store.value(models.KeyRecordingCountMonth)
	assert.Equal(t, "2025-02", m)
}

func TestUsageCounter_IncrementAcrossMonthBoundary(t *testing.T) {
	clock := newFixedClock(2025, time.January, 31)
	store := newMockStore(nil)
	u := NewUsageCounter(store, clock.Now, nil)
	ctx := context.Background()

	u.Increment(ctx)
	u.Increment(ctx)
	require.Equal(t, 2, u.Count(ctx))

	clock.set(time.Date(2025, time.February, 1, 0, 0, 1, 0, time.Local))
	u.Increment(ctx)

	assert.Equal(t, 1, u.Count(ctx))
	m, _ := store.value(models.KeyRecordingCountMonth)
	assert.Equal(t, "2025-02", m)
}

func TestUsageCounter_ReadFailureFailsOpen(t *testing.T) {
	store := newMockStore(map[string]string{
		models.KeyRecordingCount:      "5",
		models.KeyRecordingCountMonth: "2025-03",
	})
	store.MultiGetErr = errStore
	u := NewUsageCounter(store, newFixedClock(2025, time.March, 1).Now, nil)

	assert.Equal(t, 0, u.Count(context.Background()))
}

func TestUsageCounter_WriteFailureIsSwallowed(t *testing.T) {
	store := newMockStore(nil)
	store.MultiSetErr = errStore
	u := NewUsageCounter(store, newFixedClock(2025, time.March, 1).Now, nil)

	assert.NotPanics(t, func() { u.Increment(context.Background()) })
	assert.Equal(t, 0, u.Count(context.Background()))
}

func TestUsageCounter_InvalidCountIsZero(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"garbage", "abc"},
		{"negative", "-3"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore(map[string]string{
				models.KeyRecordingCount:      tt.value,
				models.KeyRecordingCountMonth: "2025-03",
			})
			u := NewUsageCounter(store, newFixedClock(2025, time.March, 1).Now, nil)
			assert.Equal(t, 0, u.Count(context.Background()))
		})
	}
}

func TestUsageCounter_Snapshot(t *testing.T) {
	store := newMockStore(map[string]string{
		models.KeyRecordingCount:      "3",
		models.KeyRecordingCountMonth: "2025-03",
	})
	u := NewUsageCounter(store, newFixedClock(2025, time.March, 1).Now, nil)
	ctx := context.Background()

	free := u.Snapshot(ctx, false)
	assert.Equal(t, models.UsageSnapshot{Count: 3, MonthKey: "2025-03", Limit: 5, Remaining: 2}, free)

	premium := u.Snapshot(ctx, true)
	assert.Equal(t, -1, premium.Remaining)
	assert.Equal(t, 3, premium.Count)

	store.data[models.KeyRecordingCount] = "9"
	assert.Equal(t, 0, u.Snapshot(ctx, false).Remaining)
}
