// Package storage picks the store backend named in the configuration.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/lborres/linkage/adapters/memory"
	pgxadapter "github.com/lborres/linkage/adapters/pgx"
	redisadapter "github.com/lborres/linkage/adapters/redis"
	"github.com/lborres/linkage/core"
	"github.com/lborres/linkage/internal/config"
	"github.com/lborres/linkage/internal/logging"
)

var ErrDSNRequired = errors.New("database DSN is required for the postgres backend")

// Opened is the chosen backend plus whatever must be released on shutdown
type Opened struct {
	Stores  core.StoreProvider
	Backend string
	close   func()
}

func (o *Opened) Close() {
	if o.close != nil {
		o.close()
	}
}

// Open connects the configured backend once, at startup. When a durable
// backend is unreachable and fallback is enabled, the in-memory backend is
// used instead and a warning is logged.
func Open(ctx context.Context, cfg *config.Config, log logging.Logger) (*Opened, error) {
	var (
		opened *Opened
		err    error
	)

	switch cfg.StoreBackend {
	case config.BackendRedis:
		opened, err = openRedis(ctx, cfg)
	case config.BackendPostgres:
		opened, err = openPostgres(ctx, cfg)
	default:
		return openMemory(), nil
	}

	if err == nil {
		log.Info(ctx, "store selected", "backend", opened.Backend)
		return opened, nil
	}

	if !cfg.StoreFallback {
		return nil, err
	}

	log.Warn(ctx, "durable store unavailable, falling back to memory",
		"backend", cfg.StoreBackend, "error", err)
	return openMemory(), nil
}

func openMemory() *Opened {
	return &Opened{
		Stores:  memory.NewProvider(),
		Backend: config.BackendMemory,
	}
}

func openRedis(ctx context.Context, cfg *config.Config) (*Opened, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	provider := redisadapter.NewProvider(client, cfg.RedisPrefix)
	if err := provider.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Opened{
		Stores:  provider,
		Backend: config.BackendRedis,
		close:   func() { _ = client.Close() },
	}, nil
}

func openPostgres(ctx context.Context, cfg *config.Config) (*Opened, error) {
	if cfg.DatabaseDSN == "" {
		return nil, ErrDSNRequired
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}

	adapter := pgxadapter.New(pool)
	if err := adapter.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if err := adapter.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &Opened{
		Stores:  adapter,
		Backend: config.BackendPostgres,
		close:   pool.Close,
	}, nil
}
