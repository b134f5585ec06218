package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapviz/pkg/viz"
)

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed it in concrete adapters to get Close, Exec, Query and the
// information_schema based metadata helpers.
type BaseSQLAdapter struct {
	DB          *sql.DB
	Cfg         Config
	Logger      *slog.Logger
	DialectInfo Dialect
}

// Dialect returns the adapter's dialect settings.
func (b *BaseSQLAdapter) Dialect() Dialect {
	return b.DialectInfo
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, sqlStr string) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	if _, err := b.DB.ExecContext(ctx, sqlStr); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query executes sqlStr and scans up to limit rows into a dataset.
func (b *BaseSQLAdapter) Query(ctx context.Context, sqlStr string, limit int) (viz.Dataset, error) {
	if b.DB == nil {
		return viz.Dataset{}, fmt.Errorf("database connection not established")
	}
	rows, err := b.DB.QueryContext(ctx, sqlStr)
	if err != nil {
		return viz.Dataset{}, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ds, err := ScanDataset(rows, limit)
	if err != nil {
		return viz.Dataset{}, err
	}
	if b.Logger != nil {
		b.Logger.Debug("query returned rows", "rows", ds.Len(), "columns", len(ds.Columns))
	}
	return ds, nil
}

// SQLDB exposes the underlying handle for callers that manage schema, such
// as the demo dataset seeder. It is nil until Connect succeeds.
func (b *BaseSQLAdapter) SQLDB() *sql.DB {
	return b.DB
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

func (b *BaseSQLAdapter) placeholder(n int) string {
	if b.DialectInfo.Placeholder == nil {
		return "?"
	}
	return b.DialectInfo.Placeholder(n)
}

// ParseQualifiedName splits a table reference into schema and name, using
// defaultSchema when none is given.
func ParseQualifiedName(table, defaultSchema string) (schema, name string) {
	if parts := strings.Split(table, "."); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return defaultSchema, table
}

func (b *BaseSQLAdapter) schema() string {
	if b.Cfg.Schema != "" {
		return b.Cfg.Schema
	}
	return b.DialectInfo.DefaultSchema
}

// ListTablesCommon lists base tables of the configured schema through
// information_schema.tables.
func (b *BaseSQLAdapter) ListTablesCommon(ctx context.Context) ([]string, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	//nolint:gosec // placeholder comes from the dialect
	query := fmt.Sprintf(`
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = %s AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, b.placeholder(1))

	rows, err := b.DB.QueryContext(ctx, query, b.schema())
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return tables, nil
}

// GetTableMetadataCommon describes a table through information_schema.columns.
func (b *BaseSQLAdapter) GetTableMetadataCommon(ctx context.Context, table string) (*Metadata, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	schema, tableName := ParseQualifiedName(table, b.schema())

	//nolint:gosec // placeholders come from the dialect
	query := fmt.Sprintf(`
		SELECT
			column_name,
			data_type,
			is_nullable,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = %s AND table_name = %s
		ORDER BY ordinal_position
	`, b.placeholder(1), b.placeholder(2))

	rows, err := b.DB.QueryContext(ctx, query, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []Column
	for rows.Next() {
		var col Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	return &Metadata{
		Schema:   schema,
		Name:     tableName,
		Columns:  columns,
		RowCount: b.countRows(ctx, schema+"."+tableName),
	}, nil
}

// countRows returns the row count of a table, or 0 when it cannot be read.
func (b *BaseSQLAdapter) countRows(ctx context.Context, qualified string) int64 {
	var n int64
	//nolint:gosec // table names come from metadata
	if err := b.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+qualified).Scan(&n); err != nil {
		return 0
	}
	return n
}
