// Package storage provides the on-device key-value stores used by the
// entitlement engine and the memo collection.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// DefaultFile is used when no storage path is configured.
const DefaultFile = "vocap.json"

// LocalStorage is a durable string-keyed store persisted as a single JSON
// object. Every mutation rewrites the file through a temp file and rename,
// so a crash leaves either the old or the new content on disk.
type LocalStorage struct {
	path string
	log  *zap.Logger

	mu   sync.Mutex
	data map[string]string
}

// NewLocalStorage returns a store backed by the file at path.
// Call Load before use to pick up existing content.
func NewLocalStorage(path string, log *zap.Logger) *LocalStorage {
	if path == "" {
		path = DefaultFile
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LocalStorage{
		path: path,
		log:  log,
		data: make(map[string]string),
	}
}

// Load reads the backing file. A missing file is an empty store.
func (ls *LocalStorage) Load() error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	f, err := os.Open(ls.path)
	if err != nil {
		if os.IsNotExist(err) {
			ls.data = make(map[string]string)
			return nil
		}
		return fmt.Errorf("open storage: %w", err)
	}
	defer f.Close()

	data := make(map[string]string)
	if err := json.NewDecoder(f).Decode(&data); err != nil {
		return fmt.Errorf("decode storage: %w", err)
	}
	ls.data = data
	ls.log.Debug("local storage loaded", zap.String("path", ls.path), zap.Int("keys", len(data)))
	return nil
}

// Get returns the value stored under key and whether it exists.
func (ls *LocalStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	v, ok := ls.data[key]
	return v, ok, nil
}

// MultiGet returns the values for keys that exist; absent keys are omitted.
func (ls *LocalStorage) MultiGet(ctx context.Context, keys ...string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := ls.data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

// Set stores value under key and persists the store.
func (ls *LocalStorage) Set(ctx context.Context, key, value string) error {
	return ls.MultiSet(ctx, map[string]string{key: value})
}

// MultiSet stores all pairs with a single file write.
func (ls *LocalStorage) MultiSet(ctx context.Context, pairs map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	next := maps.Clone(ls.data)
	if next == nil {
		next = make(map[string]string, len(pairs))
	}
	maps.Copy(next, pairs)
	if err := ls.write(next); err != nil {
		return err
	}
	ls.data = next
	return nil
}

// Clear removes every key and truncates the backing file.
func (ls *LocalStorage) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	empty := make(map[string]string)
	if err := ls.write(empty); err != nil {
		return err
	}
	ls.data = empty
	ls.log.Info("local storage cleared", zap.String("path", ls.path))
	return nil
}

// write must be called with mu held.
func (ls *LocalStorage) write(data map[string]string) error {
	dir := filepath.Dir(ls.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(ls.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := json.NewEncoder(tmp).Encode(data); err != nil {
		tmp.Close()
		return fmt.Errorf("encode storage: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync storage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close storage: %w", err)
	}
	if err := os.Rename(tmpName, ls.path); err != nil {
		return fmt.Errorf("replace storage: %w", err)
	}
	return nil
}
