package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapviz/pkg/adapter"
)

func TestBuildPostgresDSN(t *testing.T) {
	tests := []struct {
		name     string
		config   adapter.Config
		expected string
	}{
		{
			name: "basic connection",
			config: adapter.Config{
				Host:     "localhost",
				Port:     5432,
				Database: "sales",
				Username: "analyst",
				Password: "pass",
			},
			expected: "host=localhost port=5432 dbname=sales sslmode=disable user=analyst password=pass",
		},
		{
			name: "sslmode and extra options",
			config: adapter.Config{
				Host:     "prod.example.com",
				Database: "sales",
				Options:  map[string]string{"sslmode": "require", "application_name": "leapviz", "connect_timeout": "5"},
			},
			expected: "host=prod.example.com port=5432 dbname=sales sslmode=require application_name=leapviz connect_timeout=5",
		},
		{
			name:     "defaults",
			config:   adapter.Config{Database: "mydb"},
			expected: "host=localhost port=5432 dbname=mydb sslmode=disable",
		},
		{
			name: "schema and quoted password",
			config: adapter.Config{
				Host:     "db.example.com",
				Port:     5433,
				Database: "analytics",
				Password: "it's secret",
				Schema:   "reporting",
			},
			expected: `host=db.example.com port=5433 dbname=analytics sslmode=disable password='it\'s secret' search_path=reporting`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildPostgresDSN(tt.config))
		})
	}
}

func TestNew(t *testing.T) {
	adp := New(nil)
	require.NotNil(t, adp)
	assert.NotNil(t, adp.Logger)
	assert.Equal(t, "postgres", adp.Dialect().Name)
	assert.Equal(t, "$2", adp.Dialect().Placeholder(2))
	assert.False(t, adp.IsConnected())
}

func TestAdapter_NotConnected(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)

	assert.Error(t, adp.Exec(ctx, "SELECT 1"))
	_, err := adp.Query(ctx, "SELECT 1", 0)
	assert.Error(t, err)
	_, err = adp.GetTableMetadata(ctx, "orders")
	assert.Error(t, err)
	assert.NoError(t, adp.Close())
}

func TestAdapter_MetadataUsesDollarPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	adp := New(nil)
	adp.DB = db

	mock.ExpectQuery(`table_schema = \$1 AND table_name = \$2`).
		WithArgs("public", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "ordinal_position"}).
			AddRow("total_amount", "numeric", "YES", 1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM public.orders`).
		WillReturnError(assert.AnError)

	meta, err := adp.GetTableMetadata(context.Background(), "orders")
	require.NoError(t, err)
	assert.Equal(t, "public", meta.Schema)
	assert.Zero(t, meta.RowCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_Registry(t *testing.T) {
	assert.True(t, adapter.IsRegistered("postgres"))

	adp, err := adapter.NewAdapter(adapter.Config{Type: "postgres"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Adapter{}, adp)
}
