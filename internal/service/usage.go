package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/atinyakov/Vocap/internal/models"
	"go.uber.org/zap"
)

// monthKeyLayout renders YYYY-MM.
const monthKeyLayout = "2006-01"

// UsageCounter tracks completed recordings in the current calendar month.
//
// Storage errors never reach the caller: reads fall back to zero and failed
// writes are logged, so a broken store never blocks the user from recording.
type UsageCounter struct {
	store KeyValueStore
	now   Clock
	log   *zap.Logger

	// mu serializes read-modify-write cycles within the process.
	mu sync.Mutex
}

// NewUsageCounter constructs a UsageCounter. A nil clock uses time.Now,
// a nil logger discards output.
func NewUsageCounter(store KeyValueStore, now Clock, log *zap.Logger) *UsageCounter {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &UsageCounter{store: store, now: now, log: log}
}

// MonthKey returns the YYYY-MM key of the current local month.
func (u *UsageCounter) MonthKey() string {
	return u.now().Format(monthKeyLayout)
}

// Count returns the number of recordings made this month.
// If the stored month is stale, the counter is reset to zero on disk first.
func (u *UsageCounter) Count(ctx context.Context) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.current(ctx)
}

// Increment records one completed recording against the current month.
// The stored count is re-read on every call, never cached.
func (u *UsageCounter) Increment(ctx context.Context) {
	u.mu.Lock()
	defer u.mu.Unlock()

	month := u.MonthKey()
	next := u.current(ctx) + 1
	err := u.store.MultiSet(ctx, map[string]string{
		models.KeyRecordingCount:      strconv.Itoa(next),
		models.KeyRecordingCountMonth: month,
	})
	if err != nil {
		u.log.Error("failed to persist recording count",
			zap.Int("count", next), zap.String("month", month), zap.Error(err))
		return
	}
	u.log.Debug("recording counted", zap.Int("count", next), zap.String("month", month))
}

// Snapshot reports the counter together with the free-tier limit.
// Remaining is -1 for premium users.
func (u *UsageCounter) Snapshot(ctx context.Context, premium bool) models.UsageSnapshot {
	count := u.Count(ctx)
	snap := models.UsageSnapshot{
		Count:     count,
		MonthKey:  u.MonthKey(),
		Limit:     models.FreeLimits.MaxRecordingsPerMonth,
		Remaining: -1,
	}
	if !premium {
		snap.Remaining = max(snap.Limit-count, 0)
	}
	return snap
}

// current must be called with mu held.
func (u *UsageCounter) current(ctx context.Context) int {
	month := u.MonthKey()

	vals, err := u.store.MultiGet(ctx, models.KeyRecordingCount, models.KeyRecordingCountMonth)
	if err != nil {
		u.log.Warn("failed to read recording count, assuming zero", zap.Error(err))
		return 0
	}

	storedMonth, hasMonth := vals[models.KeyRecordingCountMonth]
	rawCount, hasCount := vals[models.KeyRecordingCount]
	if !hasMonth && !hasCount {
		return 0
	}

	if storedMonth != month {
		err := u.store.MultiSet(ctx, map[string]string{
			models.KeyRecordingCount:      "0",
			models.KeyRecordingCountMonth: month,
		})
		if err != nil {
			u.log.Error("failed to reset recording count", zap.String("month", month), zap.Error(err))
		} else {
			u.log.Info("recording count reset for new month",
				zap.String("from", storedMonth), zap.String("to", month))
		}
		return 0
	}

	if rawCount == "" {
		return 0
	}
	n, err := strconv.Atoi(rawCount)
	if err != nil || n < 0 {
		u.log.Warn("invalid stored recording count, assuming zero", zap.String("value", rawCount))
		return 0
	}
	return n
}
