// Package sqlstore stores funding records through database/sql and sqlx.
//
// Two drivers are supported: "sqlite3" (mattn/go-sqlite3) for local files
// and tests, and "postgres" (lib/pq). Placeholders are rebound per driver.
package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/fundsheet/internal/core"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Open connects with driver ("sqlite3" or "postgres") and pings.
func Open(ctx context.Context, driver, dsn string, maxConns int) (*sqlx.DB, error) {
	switch driver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite3" {
		// One writer; avoids SQLITE_BUSY between pooled connections.
		db.SetMaxOpenConns(1)
	} else if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, wrapErr(err))
	}
	return db, nil
}

// Store implements core.Store over sqlx.
type Store struct {
	db        *sqlx.DB
	reg       *core.Registry
	table     string
	insertSQL string
}

// New returns a store for table. An empty table selects core.DefaultTable.
func New(db *sqlx.DB, table string) *Store {
	if table == "" {
		table = core.DefaultTable
	}
	reg := core.Funding()
	return &Store{
		db:        db,
		reg:       reg,
		table:     table,
		insertSQL: db.Rebind(reg.InsertSQL(table)),
	}
}

// EnsureSchema creates the records table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.reg.CreateTableSQL(s.table)); err != nil {
		return wrapErr(err)
	}
	return nil
}

// InsertRecord inserts one row of coerced values in registry order.
func (s *Store) InsertRecord(ctx context.Context, values []any) error {
	if len(values) != s.reg.Len() {
		return fmt.Errorf("insert: got %d values, want %d", len(values), s.reg.Len())
	}
	if _, err := s.db.ExecContext(ctx, s.insertSQL, values...); err != nil {
		return wrapErr(err)
	}
	return nil
}

// FindRecords runs q with the driver's placeholder style.
func (s *Store) FindRecords(ctx context.Context, q *core.Query) ([]core.Record, error) {
	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(q.SQL), q.Args...)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	fields := s.reg.Fields()
	var records []core.Record
	for rows.Next() {
		vals, err := rows.SliceScan()
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

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// wrapErr attaches the driver's error state.
func wrapErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &core.StateError{State: string(pqErr.Code), Err: err}
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch {
		case liteErr.Code == sqlite3.ErrBusy:
			return &core.StateError{State: "SQLITE_BUSY", Err: err}
		case liteErr.Code == sqlite3.ErrLocked:
			return &core.StateError{State: "SQLITE_LOCKED", Err: err}
		case liteErr.ExtendedCode == sqlite3.ErrConstraintUnique:
			return &core.StateError{State: "23505", Err: err}
		}
	}
	return err
}

var _ core.Store = (*Store)(nil)
