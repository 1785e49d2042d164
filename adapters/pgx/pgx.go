// Package pgx is the Postgres store backend. Every row carries the request
// host so one database can serve many tenants.
package pgx

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/lborres/linkage/adapters/pgx/migrations"
	"github.com/lborres/linkage/core"
)

var (
	_ core.StoreProvider = (*Adapter)(nil)
	_ core.Store         = (*Store)(nil)
)

type Adapter struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Adapter {
	return &Adapter{
		pool: pool,
	}
}

// Migrate applies the embedded goose migrations
func (a *Adapter) Migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(a.pool)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (a *Adapter) Ping(ctx context.Context) error {
	if err := a.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

func (a *Adapter) ForHost(host string) core.Store {
	return &Store{pool: a.pool, host: host}
}

type Store struct {
	pool *pgxpool.Pool
	host string
}
