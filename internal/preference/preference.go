// Package preference persists a session's cart and liked set to a
// key-value store.
package preference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/flexfit/storefront/internal/domain"
)

// ErrNotFound is returned by a KV when the key does not exist.
var ErrNotFound = errors.New("preference not found")

// ErrMalformed wraps decode failures of stored values.
var ErrMalformed = errors.New("malformed stored preference")

const keyPrefix = "storefront:"

// CartKey is the storage key for a session's cart.
func CartKey(sessionID string) string { return keyPrefix + sessionID + ":cart" }

// LikedKey is the storage key for a session's liked product IDs.
func LikedKey(sessionID string) string { return keyPrefix + sessionID + ":liked" }

// Store loads and saves the two per-session collections.
type Store interface {
	// LoadCart returns ErrNotFound when nothing was saved for the session.
	LoadCart(ctx context.Context, sessionID string) (domain.Cart, error)
	SaveCart(ctx context.Context, sessionID string, cart domain.Cart) error
	// LoadLiked returns ErrNotFound when nothing was saved for the session.
	LoadLiked(ctx context.Context, sessionID string) ([]string, error)
	SaveLiked(ctx context.Context, sessionID string, liked []string) error
	// Delete removes both collections.
	Delete(ctx context.Context, sessionID string) error
}

// KV is a byte-oriented key-value store.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}

// KVStore implements Store on top of a KV, storing both collections as JSON
// arrays: the cart as [{"product":{...},"quantity":n}] and the liked set as
// ["id", ...].
type KVStore struct {
	kv KV
}

// NewKVStore wraps kv.
func NewKVStore(kv KV) *KVStore {
	return &KVStore{kv: kv}
}

// LoadCart reads and decodes the cart.
func (s *KVStore) LoadCart(ctx context.Context, sessionID string) (domain.Cart, error) {
	data, err := s.kv.Get(ctx, CartKey(sessionID))
	if err != nil {
		return nil, err
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("%w: cart for session %s: %v", ErrMalformed, sessionID, err)
	}
	return cart.Normalize(), nil
}

// SaveCart encodes and writes the whole cart.
func (s *KVStore) SaveCart(ctx context.Context, sessionID string, cart domain.Cart) error {
	if cart == nil {
		cart = domain.Cart{}
	}
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	return s.kv.Set(ctx, CartKey(sessionID), data)
}

// LoadLiked reads and decodes the liked IDs, dropping duplicates.
func (s *KVStore) LoadLiked(ctx context.Context, sessionID string) ([]string, error) {
	data, err := s.kv.Get(ctx, LikedKey(sessionID))
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("%w: liked for session %s: %v", ErrMalformed, sessionID, err)
	}

	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// SaveLiked writes the liked IDs sorted, so equal sets encode identically.
func (s *KVStore) SaveLiked(ctx context.Context, sessionID string, liked []string) error {
	ids := append(make([]string, 0, len(liked)), liked...)
	sort.Strings(ids)

	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal liked: %w", err)
	}
	return s.kv.Set(ctx, LikedKey(sessionID), data)
}

// Delete removes the cart and liked keys.
func (s *KVStore) Delete(ctx context.Context, sessionID string) error {
	return s.kv.Delete(ctx, CartKey(sessionID), LikedKey(sessionID))
}
