package main

import (
	"context"
	"fmt"

	"github.com/physical-edu/physical-backend/internal/cache"
	"github.com/physical-edu/physical-backend/internal/config"
	"github.com/physical-edu/physical-backend/internal/database"
	"github.com/physical-edu/physical-backend/internal/repository"
	"github.com/physical-edu/physical-backend/internal/repository/inmem"
	"github.com/physical-edu/physical-backend/internal/service"
	"github.com/physical-edu/physical-backend/internal/storage"
	"github.com/rs/zerolog"
)

type backendStores struct {
	users     service.UserStore
	questions service.QuestionStore
	subjects  service.SubjectStore
}

// openStores selects the persistence backend for STORAGE_DRIVER.
func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (backendStores, func(), error) {
	switch cfg.StorageDriver {
	case "memory":
		log.Warn().Msg("Using in-memory storage; data is lost on restart")
		return backendStores{
			users:     inmem.NewUserRepository(),
			questions: inmem.NewQuestionRepository(),
			subjects:  inmem.NewSubjectRepository(),
		}, func() {}, nil
	case "postgres":
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			return backendStores{}, nil, err
		}
		return backendStores{
			users:     repository.NewUserRepository(pool),
			questions: repository.NewQuestionRepository(pool),
			subjects:  repository.NewSubjectRepository(pool),
		}, pool.Close, nil
	default:
		return backendStores{}, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// openCache selects the cache backend for CACHE_DRIVER.
func openCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) (cache.Store, func(), error) {
	switch cfg.CacheDriver {
	case "memory":
		return cache.NewMemory(cfg.CacheTTL), func() {}, nil
	case "redis":
		rdb, err := database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewRedis(rdb, cfg.CacheTTL), func() { _ = rdb.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache driver %q", cfg.CacheDriver)
	}
}

// openBlobStore selects the image host for BLOB_DRIVER.
func openBlobStore(cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.BlobDriver {
	case "local":
		return storage.NewLocal(cfg.UploadDir, cfg.PublicBaseURL), nil
	case "oss":
		return storage.NewOSS(cfg.OSSEndpoint, cfg.OSSAccessKeyID, cfg.OSSAccessKeySecret, cfg.OSSBucket)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.BlobDriver)
	}
}
