// Package cache is the read-through accelerator shared by the services.
//
// Values are stored as JSON, so a cached entry is always a copy: mutating a
// struct after Set or after Get never changes what other readers see. Cached
// data is never the source of truth; writers race last-write-wins.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Store is a key-value store with per-entry time-to-live.
type Store interface {
	// Get decodes the entry for key into dst. It reports false on a miss.
	Get(ctx context.Context, key string, dst any) (bool, error)
	// Set stores v under key with the default TTL.
	Set(ctx context.Context, key string, v any) error
	// SetWithTTL stores v under key with an explicit TTL.
	SetWithTTL(ctx context.Context, key string, v any, ttl time.Duration) error
	// Delete removes the given keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
	// Incr increments the counter under key and returns the new value. The
	// TTL is applied only when the counter is created, giving a fixed window.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

func encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode cache value: %w", err)
	}
	return data, nil
}

func decode(data []byte, dst any) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode cache value: %w", err)
	}
	return nil
}
