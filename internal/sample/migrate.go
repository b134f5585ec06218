// Package sample creates and fills the demo sales database that the analysis
// backend is usually pointed at: categories, products, customers, orders and
// their line items.
package sample

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// UnsupportedDialectError is returned for databases goose cannot migrate.
type UnsupportedDialectError struct {
	Dialect string
}

func (e *UnsupportedDialectError) Error() string {
	return fmt.Sprintf("demo dataset is not supported on %q (use sqlite or postgres)", e.Dialect)
}

func gooseDialect(name string) (string, error) {
	switch name {
	case "sqlite", "sqlite3":
		return "sqlite", nil
	case "postgres", "postgresql":
		return "postgres", nil
	default:
		return "", &UnsupportedDialectError{Dialect: name}
	}
}

func configure(dialect string) error {
	d, err := gooseDialect(dialect)
	if err != nil {
		return err
	}
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(d); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return nil
}

// Migrate runs all pending schema migrations.
func Migrate(ctx context.Context, db *sql.DB, dialect string) error {
	if db == nil {
		return fmt.Errorf("database not opened")
	}
	if err := configure(dialect); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Reset rolls every migration back, dropping the demo tables.
func Reset(ctx context.Context, db *sql.DB, dialect string) error {
	if db == nil {
		return fmt.Errorf("database not opened")
	}
	if err := configure(dialect); err != nil {
		return err
	}
	if err := goose.ResetContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to reset migrations: %w", err)
	}
	return nil
}

// Version returns the current migration version.
func Version(ctx context.Context, db *sql.DB, dialect string) (int64, error) {
	if db == nil {
		return 0, fmt.Errorf("database not opened")
	}
	if err := configure(dialect); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, db)
}
