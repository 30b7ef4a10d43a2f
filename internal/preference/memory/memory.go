// Package memory is an in-process KV used in development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/flexfit/storefront/internal/preference"
)

// KV is a map guarded by a RWMutex. Values are copied on the way in and out.
type KV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New returns an empty KV.
func New() *KV {
	return &KV{data: make(map[string][]byte)}
}

// Get returns preference.ErrNotFound for a missing key.
func (k *KV) Get(_ context.Context, key string) ([]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	v, ok := k.data[key]
	if !ok {
		return nil, preference.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value.
func (k *KV) Set(_ context.Context, key string, value []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.data[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes keys; missing keys are ignored.
func (k *KV) Delete(_ context.Context, keys ...string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, key := range keys {
		delete(k.data, key)
	}
	return nil
}

// Len reports how many keys are stored.
func (k *KV) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.data)
}
