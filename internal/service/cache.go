package service

import (
	"context"

	"github.com/physical-edu/physical-backend/internal/cache"
	"github.com/rs/zerolog"
)

// The cache only accelerates reads, so its failures are logged and the
// request continues against the store.

func cacheGet(ctx context.Context, store cache.Store, log zerolog.Logger, key string, dst any) bool {
	hit, err := store.Get(ctx, key, dst)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		return false
	}
	if hit {
		log.Debug().Str("key", key).Msg("Cache hit")
	}
	return hit
}

func cacheSet(ctx context.Context, store cache.Store, log zerolog.Logger, key string, v any) {
	if err := store.Set(ctx, key, v); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

func cacheDelete(ctx context.Context, store cache.Store, log zerolog.Logger, keys ...string) {
	if err := store.Delete(ctx, keys...); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("Cache delete failed")
	}
}
