// Package store opens the record store selected by configuration.
package store

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/fundsheet/internal/config"
	"github.com/JonMunkholm/fundsheet/internal/core"
	"github.com/JonMunkholm/fundsheet/internal/store/postgres"
	"github.com/JonMunkholm/fundsheet/internal/store/sqlstore"
)

// Open connects to the database named by cfg and returns a core.Store over
// cfg.Table plus a function that releases the connections.
//
//	pgx       PostgreSQL through a pgx pool (default)
//	postgres  PostgreSQL through lib/pq and sqlx
//	sqlite3   a local SQLite file through go-sqlite3 and sqlx
func Open(ctx context.Context, cfg config.DatabaseConfig) (core.Store, func(), error) {
	switch cfg.Driver {
	case "pgx", "":
		pool, err := postgres.Connect(ctx, cfg.URL, postgres.PoolOptions{
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
			MaxConnIdleTime: cfg.MaxConnIdleTime,
		})
		if err != nil {
			return nil, nil, err
		}
		return postgres.New(pool, cfg.Table), pool.Close, nil

	case "postgres", "sqlite3":
		db, err := sqlstore.Open(ctx, cfg.Driver, cfg.URL, cfg.MaxConns)
		if err != nil {
			return nil, nil, err
		}
		return sqlstore.New(db, cfg.Table), func() { db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
