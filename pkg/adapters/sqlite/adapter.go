// Package sqlite provides a SQLite result source for LeapViz, backed by the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite" // sqlite driver

	"github.com/leapstack-labs/leapviz/pkg/adapter"
)

// Dialect is SQLite's dialect description.
var Dialect = adapter.Dialect{
	Name:          "sqlite",
	DefaultSchema: "main",
	Placeholder:   adapter.QuestionMark,
}

// Adapter implements adapter.Adapter for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a SQLite adapter. A nil logger discards output.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger, DialectInfo: Dialect},
	}
}

// Connect opens the database file at cfg.Path, or an in-memory database
// when the path is empty or ":memory:".
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	memory := path == "" || path == ":memory:"
	if memory {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite", buildDSN(path))
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if memory {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	a.Logger.Debug("connected to sqlite", slog.String("path", path))
	return nil
}

func buildDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// ListTables lists user tables, skipping SQLite internals and the migration
// bookkeeping table.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	rows, err := a.DB.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND name <> 'goose_db_version'
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// GetTableMetadata describes a table through pragma_table_info.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	schema, name := adapter.ParseQualifiedName(table, Dialect.DefaultSchema)

	rows, err := a.DB.QueryContext(ctx,
		`SELECT cid, name, type, "notnull", pk FROM pragma_table_info(?, ?) ORDER BY cid`, name, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []adapter.Column
	for rows.Next() {
		var (
			cid, notNull, pk int
			col              adapter.Column
		)
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Position = cid + 1
		col.Nullable = notNull == 0 && pk == 0
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	var count int64
	//nolint:gosec // table name comes from metadata
	if err := a.DB.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM "%s"."%s"`, schema, name)).Scan(&count); err != nil {
		count = 0
	}

	return &adapter.Metadata{Schema: schema, Name: name, Columns: columns, RowCount: count}, nil
}

var _ adapter.Adapter = (*Adapter)(nil)
