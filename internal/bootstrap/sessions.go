package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	infralogger "github.com/Activ8Auto/ProAutoFill/infrastructure/logger"
	infraredis "github.com/Activ8Auto/ProAutoFill/infrastructure/redis"
	"github.com/Activ8Auto/ProAutoFill/internal/config"
	"github.com/Activ8Auto/ProAutoFill/internal/session"
)

// SessionStores is the selected session store and, for the redis store, its
// client.
type SessionStores struct {
	Store session.Store
	Redis *redis.Client
	log   infralogger.Logger
}

// Ping checks redis, or reports nil for the memory store.
func (s *SessionStores) Ping() error {
	if s.Redis == nil {
		return nil
	}
	return infraredis.Pinger(s.Redis)()
}

// Close releases the redis connection, if any.
func (s *SessionStores) Close() {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Close(); err != nil {
		s.log.Error("Failed to close redis", infralogger.Error(err))
	}
}

// SetupSessionStore builds the store cfg.Session.Store names. A redis store
// that cannot be reached is an error: sessions would silently stop
// surviving restarts otherwise.
func SetupSessionStore(ctx context.Context, cfg *config.Config, log infralogger.Logger) (*SessionStores, error) {
	if cfg.Session.Store != config.StoreRedis {
		log.Info("Using in-memory session store")
		return &SessionStores{Store: session.NewMemoryStore(), log: log}, nil
	}

	client, err := infraredis.NewClient(ctx, infraredis.Config{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	log.Info("Using redis session store",
		infralogger.String("redis_address", cfg.Redis.Address),
		infralogger.String("key_prefix", cfg.Redis.KeyPrefix),
	)
	return &SessionStores{
		Store: session.NewRedisStore(client, cfg.Redis.KeyPrefix),
		Redis: client,
		log:   log,
	}, nil
}
