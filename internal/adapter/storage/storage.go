// Package storage opens the configured store backend.
package storage

import (
	"context"
	"fmt"

	"github.com/energypatrikhu/obs-ui/internal/adapter/filestore"
	"github.com/energypatrikhu/obs-ui/internal/adapter/redis"
	"github.com/energypatrikhu/obs-ui/internal/domain"
	"github.com/energypatrikhu/obs-ui/internal/platform/config"
	"github.com/energypatrikhu/obs-ui/internal/platform/crypto"
	goredis "github.com/redis/go-redis/v9"
)

// Store is both persistence ports of the application.
type Store interface {
	domain.CredentialStore
	domain.WidgetStore
}

// Backend is an opened store. Redis is nil for the file backend.
type Backend struct {
	Store Store
	Redis *goredis.Client
}

func (b *Backend) Close() error {
	if b.Redis == nil {
		return nil
	}
	if err := b.Redis.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	return nil
}

// Open returns the store selected by cfg.StoreBackend. Fresh stores are
// seeded with defaultScopes. Credential secrets in Redis are sealed when
// cfg.TokenEncryptionKey is set.
func Open(ctx context.Context, cfg *config.Config, defaultScopes []string, opts ...redis.HookOption) (*Backend, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendRedis:
		var storeOpts []redis.StoreOption
		if cfg.TokenEncryptionKey != "" {
			sealer, err := crypto.NewAESGCM(cfg.TokenEncryptionKey)
			if err != nil {
				return nil, err
			}
			storeOpts = append(storeOpts, redis.WithSealer(sealer))
		}

		rdb, err := redis.NewClient(ctx, cfg.RedisURL, opts...)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: redis.NewStore(rdb, defaultScopes, storeOpts...), Redis: rdb}, nil
	default:
		store, err := filestore.New(cfg.DataDir, defaultScopes)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: store}, nil
	}
}
