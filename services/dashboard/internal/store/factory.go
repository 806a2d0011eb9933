package store

import (
	"context"
	"fmt"

	"jobhub/common/cache"
	"jobhub/common/cache/memory"
	"jobhub/common/cache/redis"
	"jobhub/common/database"
	"jobhub/common/database/schema"
	"jobhub/common/database/schema/migrations"
	"jobhub/services/dashboard/internal/config"

	"go.uber.org/zap"
)

// NewCache returns the shared cache: Redis when it is the configured
// backend, otherwise an in-process cache.
func NewCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	opts := cache.Options{
		DefaultTTL:      cfg.CacheTTL,
		CleanupInterval: cache.DefaultOptions().CleanupInterval,
		RedisURL:        cfg.RedisAddr,
		RedisPassword:   cfg.RedisPassword,
		RedisDB:         cfg.RedisDB,
	}

	if cfg.StoreBackend != config.BackendRedis {
		return memory.New(opts), nil
	}

	c := redis.New(opts)
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
	}
	return c, nil
}

// New opens the store selected by cfg.StoreBackend. The memory and redis
// backends share c; the clickhouse backend opens its own connection and
// applies pending migrations.
func New(ctx context.Context, cfg *config.Config, c cache.Cache, logger *zap.Logger) (Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory, config.BackendRedis:
		logger.Info("using key-value store", zap.String("backend", cfg.StoreBackend))
		return NewKVStore(c, logger), nil

	case config.BackendClickHouse:
		db, err := database.New(ctx, database.Options{
			DSN:             cfg.ClickHouseDSN,
			MaxOpenConns:    cfg.ClickHouseMaxOpenConns,
			MaxIdleConns:    cfg.ClickHouseMaxIdleConns,
			ConnMaxLifetime: cfg.ClickHouseConnMaxLife,
			Username:        cfg.ClickHouseUsername,
			Password:        cfg.ClickHousePassword,
			Database:        cfg.ClickHouseDatabase,
		}, logger)
		if err != nil {
			return nil, err
		}

		applied, err := schema.NewMigrator(db.Conn(), logger).Up(ctx, migrations.All)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrating clickhouse: %w", err)
		}
		logger.Info("using clickhouse store", zap.Int("migrations_applied", applied))
		return NewClickHouseStore(db.Conn(), logger), nil
	}

	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
