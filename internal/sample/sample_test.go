package sample

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapviz/internal/testutil"
	"github.com/leapstack-labs/leapviz/pkg/adapter"
	"github.com/leapstack-labs/leapviz/pkg/adapters/sqlite"
)

func openDB(t *testing.T) (*sqlite.Adapter, *sql.DB) {
	t.Helper()
	adp := sqlite.New(testutil.NewTestLogger(t))
	require.NoError(t, adp.Connect(context.Background(), adapter.Config{Path: ":memory:"}))
	t.Cleanup(func() { _ = adp.Close() })
	return adp, adp.SQLDB()
}

func testOptions() Options {
	return Options{
		Seed:      7,
		Products:  12,
		Customers: 20,
		Orders:    40,
		End:       time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
	}
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	adp, db := openDB(t)

	require.NoError(t, Migrate(ctx, db, "sqlite"))
	tables, err := adp.ListTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"categories", "customers", "order_items", "orders", "products"}, tables)

	version, err := Version(ctx, db, "sqlite")
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	// Running again is a no-op.
	require.NoError(t, Migrate(ctx, db, "sqlite"))

	require.NoError(t, Reset(ctx, db, "sqlite"))
	tables, err = adp.ListTables(ctx)
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestMigrate_UnsupportedDialect(t *testing.T) {
	_, db := openDB(t)

	err := Migrate(context.Background(), db, "duckdb")
	var target *UnsupportedDialectError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "duckdb", target.Dialect)

	assert.Error(t, Migrate(context.Background(), nil, "sqlite"))
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	adp, db := openDB(t)
	require.NoError(t, Migrate(ctx, db, "sqlite"))

	sum, err := Seed(ctx, db, sqlite.Dialect, testOptions())
	require.NoError(t, err)
	assert.Equal(t, 8, sum.Categories)
	assert.Equal(t, 12, sum.Products)
	assert.Equal(t, 20, sum.Customers)
	assert.Equal(t, 40, sum.Orders)
	assert.GreaterOrEqual(t, sum.OrderItems, 40)
	assert.LessOrEqual(t, sum.OrderItems, 200)

	ds, err := adp.Query(ctx, `SELECT COUNT(*) AS n FROM orders WHERE order_date > '2025-06-30' OR order_date < '2023-06-30'`, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, ds.Records[0]["n"])

	// Order totals match their line items.
	ds, err = adp.Query(ctx, `
		SELECT COUNT(*) AS mismatched FROM orders o
		WHERE ABS(o.total_amount - (SELECT SUM(quantity * unit_price) FROM order_items i WHERE i.order_id = o.id)) > 0.01`, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, ds.Records[0]["mismatched"])

	ds, err = adp.Query(ctx, `SELECT MIN(rating) AS lo, MAX(rating) AS hi FROM products`, 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, ds.Records[0]["lo"], 1.0)
	assert.LessOrEqual(t, ds.Records[0]["hi"], 5.0)
}

func TestSeed_Deterministic(t *testing.T) {
	ctx := context.Background()
	total := func() any {
		adp, db := openDB(t)
		require.NoError(t, Migrate(ctx, db, "sqlite"))
		_, err := Seed(ctx, db, sqlite.Dialect, testOptions())
		require.NoError(t, err)
		ds, err := adp.Query(ctx, `SELECT SUM(total_amount) AS total FROM orders`, 0)
		require.NoError(t, err)
		return ds.Records[0]["total"]
	}
	assert.Equal(t, total(), total())
}

func TestSeed_ReplacesExistingRows(t *testing.T) {
	ctx := context.Background()
	adp, db := openDB(t)
	require.NoError(t, Migrate(ctx, db, "sqlite"))

	_, err := Seed(ctx, db, sqlite.Dialect, testOptions())
	require.NoError(t, err)
	opts := testOptions()
	opts.Orders = 5
	_, err = Seed(ctx, db, sqlite.Dialect, opts)
	require.NoError(t, err)

	ds, err := adp.Query(ctx, `SELECT COUNT(*) AS n FROM orders`, 0)
	require.NoError(t, err)
	assert.Equal(t, 5.0, ds.Records[0]["n"])
}

func TestSeed_NeedsCustomersForOrders(t *testing.T) {
	ctx := context.Background()
	_, db := openDB(t)
	require.NoError(t, Migrate(ctx, db, "sqlite"))

	opts := testOptions()
	opts.Customers = 0
	_, err := Seed(ctx, db, sqlite.Dialect, opts)
	assert.Error(t, err)
}

func TestTriangular(t *testing.T) {
	assert.InDelta(t, 1.0, triangular(0, 1, 5, 4), 1e-9)
	assert.InDelta(t, 4.0, triangular(0.75, 1, 5, 4), 1e-9)
	assert.InDelta(t, 5.0, triangular(0.999999999, 1, 5, 4), 1e-3)
}
