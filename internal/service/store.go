// Package service implements the on-device entitlement engine: the monthly
// usage counter, the entitlement store, admission control, the subscription
// lifecycle and the memo collection. All state lives behind a single
// injected KeyValueStore.
package service

import (
	"context"
	"time"
)

// KeyValueStore defines the persistence operations shared by every service.
// Implementations are crash-consistent per key but callers must not rely on
// atomicity across keys.
type KeyValueStore interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key.
	Set(ctx context.Context, key, value string) error
	// MultiGet returns the values of the keys that exist.
	MultiGet(ctx context.Context, keys ...string) (map[string]string, error)
	// MultiSet stores all pairs.
	MultiSet(ctx context.Context, pairs map[string]string) error
	// Clear removes every key.
	Clear(ctx context.Context) error
}

// Clock returns the current wall-clock time in the user's local zone.
type Clock func() time.Time
