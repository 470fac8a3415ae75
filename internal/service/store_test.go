package service

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"
)

var errStore = errors.New("store unavailable")

// mockStore is an in-memory KeyValueStore. Any non-nil XxxErr makes the
// matching method fail without touching the data.
type mockStore struct {
	mu   sync.Mutex
	data map[string]string

	GetErr      error
	SetErr      error
	MultiGetErr error
	MultiSetErr error
	ClearErr    error

	writes int
}

func newMockStore(seed map[string]string) *mockStore {
	data := make(map[string]string, len(seed))
	maps.Copy(data, seed)
	return &mockStore{data: data}
}

func (m *mockStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return "", false, m.GetErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mockStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.writes++
	m.data[key] = value
	return nil
}

func (m *mockStore) MultiGet(ctx context.Context, keys ...string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MultiGetErr != nil {
		return nil, m.MultiGetErr
	}
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *mockStore) MultiSet(ctx context.Context, pairs map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MultiSetErr != nil {
		return m.MultiSetErr
	}
	m.writes++
	maps.Copy(m.data, pairs)
	return nil
}

func (m *mockStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.writes++
	clear(m.data)
	return nil
}

func (m *mockStore) value(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

// fixedClock returns a Clock stuck at t; set moves it.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFixedClock(year int, month time.Month, day int) *fixedClock {
	return &fixedClock{t: time.Date(year, month, day, 12, 0, 0, 0, time.Local)}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}
