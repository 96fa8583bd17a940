package core

import (
	"context"
	"time"
)

// FieldKind represents the declared value type of a column.
type FieldKind int

const (
	KindText FieldKind = iota
	KindInteger
	KindDate
	KindMoney
	KindMoneyCurrency
	KindFlag
	KindFreeText
)

// String returns the kind name used in logs and error messages.
func (k FieldKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInteger:
		return "integer"
	case KindDate:
		return "date"
	case KindMoney:
		return "money"
	case KindMoneyCurrency:
		return "currency"
	case KindFlag:
		return "flag"
	case KindFreeText:
		return "free text"
	default:
		return "value"
	}
}

// SQLType returns the column type used when bootstrapping the table.
// The names are understood by both PostgreSQL and SQLite.
func (k FieldKind) SQLType() string {
	switch k {
	case KindInteger:
		return "BIGINT"
	case KindDate:
		return "DATE"
	case KindMoney:
		return "NUMERIC"
	case KindFlag:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

// FieldSpec is a named, typed, ordered column definition shared by
// ingestion, query and export.
type FieldSpec struct {
	Name     string    // Column name; also the search criteria key
	Label    string    // Header text in exported sheets
	Kind     FieldKind // Declared value type
	Position int       // 0-based column position, assigned by the registry
}

// Record is one row's worth of field values keyed by field name.
// Absent keys and nil values both mean NULL.
type Record map[string]any

// Values projects the record onto the registry's column order.
func (r Record) Values(reg *Registry) []any {
	out := make([]any, reg.Len())
	for i, f := range reg.fields {
		out[i] = r[f.Name]
	}
	return out
}

// Store persists and retrieves funding records.
// Implementations live in internal/store.
type Store interface {
	// EnsureSchema creates the records table when it does not exist.
	EnsureSchema(ctx context.Context) error

	// InsertRecord inserts one row. values are coerced and in registry order.
	InsertRecord(ctx context.Context, values []any) error

	// FindRecords runs a query produced by [Builder.Build].
	FindRecords(ctx context.Context, q *Query) ([]Record, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
}

// IngestResult contains the outcome of a completed ingestion.
type IngestResult struct {
	ID       string        `json:"upload_id"`
	FileName string        `json:"file_name,omitempty"`
	Rows     int           `json:"rows"`
	Inserted int           `json:"inserted"`
	Duration time.Duration `json:"-"`
}
