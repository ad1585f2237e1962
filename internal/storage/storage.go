package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned by Store.Get when a key has no value.
var ErrNotFound = errors.New("key not found")

// Durable store keys. Every value is a JSON-serialized collection or
// record; writes replace whole collections, so concurrent writers race
// at collection granularity and the last writer wins.
const (
	KeyDestinations = "travel_destinations"
	KeyPackages     = "travel_packages"
	KeyDeals        = "travel_deals"
	KeyTestimonials = "travel_testimonials"
	KeyOrders       = "travel_orders"
	KeyCart         = "travel_cart"
	KeyAuth         = "travel_auth"
	KeyInitialized  = "travel_initialized"
)

// Store is the durable string-keyed medium behind the adapter.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Clear wipes every key in the store, not only this application's.
	Clear(ctx context.Context) error
}

// Adapter is the typed JSON boundary over a Store. Reads never fail:
// a missing key, corrupt entry, or backend error yields the caller's
// default. Writes are best-effort: backend failures are logged and
// swallowed, never propagated.
type Adapter struct {
	store  Store
	logger zerolog.Logger
}

func NewAdapter(store Store, logger zerolog.Logger) *Adapter {
	return &Adapter{store: store, logger: logger}
}

// Read returns the value stored under key, or def when the key is
// absent, unreadable, or not valid JSON for T.
func Read[T any](ctx context.Context, a *Adapter, key string, def T) T {
	raw, err := a.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			a.logger.Warn().Err(err).Str("key", key).Msg("storage read failed, returning default")
		}
		return def
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		a.logger.Warn().Err(err).Str("key", key).Msg("corrupt storage entry, returning default")
		return def
	}
	return v
}

// Write serializes value under key. Failures are logged and swallowed.
func Write[T any](ctx context.Context, a *Adapter, key string, value T) {
	raw, err := json.Marshal(value)
	if err != nil {
		a.logger.Error().Err(err).Str("key", key).Msg("failed to serialize value")
		return
	}
	if err := a.store.Set(ctx, key, raw); err != nil {
		a.logger.Error().Err(err).Str("key", key).Msg("storage write failed")
	}
}

// Remove deletes key. A missing key is not an error.
func (a *Adapter) Remove(ctx context.Context, key string) {
	if err := a.store.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		a.logger.Error().Err(err).Str("key", key).Msg("storage delete failed")
	}
}

// Clear wipes the entire durable store, forcing a re-seed on the next
// initialize.
func (a *Adapter) Clear(ctx context.Context) {
	if err := a.store.Clear(ctx); err != nil {
		a.logger.Error().Err(err).Msg("storage clear failed")
	}
}
