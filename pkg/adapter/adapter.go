// Package adapter defines the contract for local result sources: databases
// that run a query and hand back its rows as a viz.Dataset ready for the
// visualization engine.
//
// Concrete adapters live in pkg/adapters/ subdirectories and register
// themselves on import.
package adapter

import (
	"context"
	"database/sql"

	"github.com/leapstack-labs/leapviz/pkg/viz"
)

// Config holds connection settings for an adapter.
type Config struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Schema   string
	Options  map[string]string
	Params   map[string]any
}

// Column describes one column of a table.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Position int    `json:"position"`
}

// Metadata describes a table.
type Metadata struct {
	Schema   string   `json:"schema"`
	Name     string   `json:"name"`
	Columns  []Column `json:"columns"`
	RowCount int64    `json:"rowCount"`
}

// Adapter is a database that can answer queries with datasets.
type Adapter interface {
	// Connect opens the database described by cfg.
	Connect(ctx context.Context, cfg Config) error

	// Close releases the connection.
	Close() error

	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context, sql string) error

	// Query runs sql and returns at most limit rows (all rows when limit <= 0).
	Query(ctx context.Context, sql string, limit int) (viz.Dataset, error)

	// ListTables returns the tables of the default schema, sorted.
	ListTables(ctx context.Context) ([]string, error)

	// GetTableMetadata describes one table.
	GetTableMetadata(ctx context.Context, table string) (*Metadata, error)

	// Dialect returns the adapter's SQL dialect settings.
	Dialect() Dialect
}

// Dialect captures the per-database details the shared SQL helpers need.
type Dialect struct {
	Name          string
	DefaultSchema string
	// Placeholder formats the n-th (1-based) bind parameter.
	Placeholder func(n int) string
}

// QuestionMark is the ? placeholder style.
func QuestionMark(int) string { return "?" }

// SQLHandle is implemented by adapters built on database/sql.
type SQLHandle interface {
	SQLDB() *sql.DB
}
