// Package postgres stores funding records in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/fundsheet/internal/core"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
)

// PoolOptions sizes the connection pool. Zero values keep pgx defaults.
type PoolOptions struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Connect parses url, applies opts and verifies the pool with a ping.
func Connect(ctx context.Context, url string, opts PoolOptions) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if opts.MaxConns > 0 {
		poolConfig.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		poolConfig.MinConns = int32(opts.MinConns)
	}
	if opts.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", wrapErr(err))
	}
	return pool, nil
}

// Store implements core.Store over a pgx pool.
type Store struct {
	pool      *pgxpool.Pool
	reg       *core.Registry
	table     string
	insertSQL string
}

// New returns a store for table. An empty table selects core.DefaultTable.
func New(pool *pgxpool.Pool, table string) *Store {
	if table == "" {
		table = core.DefaultTable
	}
	reg := core.Funding()
	return &Store{
		pool:      pool,
		reg:       reg,
		table:     table,
		insertSQL: sqlx.Rebind(sqlx.DOLLAR, reg.InsertSQL(table)),
	}
}

// EnsureSchema creates the records table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, s.reg.CreateTableSQL(s.table)); err != nil {
		return wrapErr(err)
	}
	return nil
}

// InsertRecord inserts one row of coerced values in registry order.
func (s *Store) InsertRecord(ctx context.Context, values []any) error {
	if len(values) != s.reg.Len() {
		return fmt.Errorf("insert: got %d values, want %d", len(values), s.reg.Len())
	}
	if _, err := s.pool.Exec(ctx, s.insertSQL, values...); err != nil {
		return wrapErr(err)
	}
	return nil
}

// FindRecords runs q with $n placeholders.
func (s *Store) FindRecords(ctx context.Context, q *core.Query) ([]core.Record, error) {
	rows, err := s.pool.Query(ctx, q.Rebind(sqlx.DOLLAR), q.Args...)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	fields := s.reg.Fields()
	var records []core.Record
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, wrapErr(err)
		}
		rec := make(core.Record, len(fields))
		for i, f := range fields {
			if i < len(vals) {
				rec[f.Name] = core.NormalizeValue(vals[i])
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err)
	}
	return records, nil
}

// Ping checks the pool.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// wrapErr attaches the SQLSTATE of PostgreSQL errors.
func wrapErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &core.StateError{State: pgErr.Code, Err: err}
	}
	return err
}

var _ core.Store = (*Store)(nil)
