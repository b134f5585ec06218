// Package duckdb provides a DuckDB result source for LeapViz.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapviz/pkg/adapter"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Dialect is DuckDB's dialect description.
var Dialect = adapter.Dialect{
	Name:          "duckdb",
	DefaultSchema: "main",
	Placeholder:   adapter.QuestionMark,
}

// Adapter implements adapter.Adapter for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a DuckDB adapter. A nil logger discards output.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger, DialectInfo: Dialect},
	}
}

// Connect opens a DuckDB database. An empty path or ":memory:" opens an
// in-memory database. Extensions, secrets and settings from cfg.Params are
// applied before the connection is handed out.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := parseParams(cfg.Params)
	if err != nil {
		return err
	}

	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg

	if err := a.applyParams(ctx, params); err != nil {
		_ = db.Close()
		a.DB = nil
		return err
	}
	a.Logger.Debug("connected to duckdb", slog.String("path", path))
	return nil
}

func (a *Adapter) applyParams(ctx context.Context, p *Params) error {
	for _, ext := range p.Extensions {
		if err := a.Exec(ctx, fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext)); err != nil {
			return fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
	}
	for _, stmt := range settingStatements(p.Settings) {
		if err := a.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply setting: %w", err)
		}
	}
	for i, s := range p.Secrets {
		if err := a.Exec(ctx, buildCreateSecretSQL(s)); err != nil {
			return fmt.Errorf("failed to create secret %d (%s): %w", i, s.Type, err)
		}
	}
	return nil
}

// ListTables lists the tables of the configured schema.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	return a.ListTablesCommon(ctx)
}

// GetTableMetadata describes a table.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	return a.GetTableMetadataCommon(ctx, table)
}

var _ adapter.Adapter = (*Adapter)(nil)
