package sample

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/leapstack-labs/leapviz/pkg/adapter"
)

// Options control the size and randomness of the generated data.
type Options struct {
	Seed      uint64
	Products  int
	Customers int
	Orders    int
	// End is the latest order date; orders span the two years before it.
	End time.Time
}

// DefaultOptions mirrors the classic demo: 50 products, 100 customers and
// 500 orders over two years.
func DefaultOptions() Options {
	return Options{
		Seed:      42,
		Products:  50,
		Customers: 100,
		Orders:    500,
		End:       time.Now().UTC().Truncate(24 * time.Hour),
	}
}

// Summary reports how many rows were written per table.
type Summary struct {
	Categories int
	Products   int
	Customers  int
	Orders     int
	OrderItems int
}

// Questions are prompts the demo data answers well.
var Questions = []string{
	"Show me total sales by category",
	"What are the top 10 customers by revenue?",
	"Display monthly orders trend",
	"How many products are in each category?",
	"Compare average product ratings by category",
	"Show products with rating above 4",
}

var categories = [][2]string{
	{"Electronics", "Phones, laptops, and gadgets"},
	{"Clothing", "Fashion and apparel"},
	{"Home & Garden", "Furniture and home decor"},
	{"Sports", "Sports equipment and gear"},
	{"Books", "Physical and digital books"},
	{"Food & Beverages", "Grocery and drinks"},
	{"Health & Beauty", "Personal care products"},
	{"Toys & Games", "Entertainment for all ages"},
}

var (
	adjectives = []string{"Smart", "Classic", "Eco", "Ultra", "Compact", "Deluxe", "Rugged", "Portable", "Vintage", "Modern"}
	nouns      = []string{"Speaker", "Jacket", "Lamp", "Racket", "Novel", "Coffee", "Serum", "Puzzle", "Backpack", "Blender", "Watch", "Kettle"}
	firstNames = []string{"Ada", "Ben", "Chen", "Dana", "Eli", "Fatima", "Gus", "Hana", "Ivan", "Jules", "Kofi", "Lena", "Mateo", "Nia", "Omar", "Priya"}
	lastNames  = []string{"Garcia", "Smith", "Okafor", "Tanaka", "Novak", "Silva", "Brown", "Kowalski", "Haddad", "Lee", "Moreau", "Jensen"}
	places     = [][2]string{
		{"Lisbon", "Portugal"}, {"Austin", "United States"}, {"Osaka", "Japan"}, {"Lagos", "Nigeria"},
		{"Berlin", "Germany"}, {"Toronto", "Canada"}, {"Pune", "India"}, {"Lyon", "France"},
		{"Melbourne", "Australia"}, {"Bogota", "Colombia"},
	}
	statuses = []string{"pending", "processing", "shipped", "delivered", "cancelled"}
)

var seedTables = []string{"order_items", "orders", "customers", "products", "categories"}

// Seed replaces the contents of the demo tables with deterministic data.
// The schema must already be migrated. d supplies the bind placeholder style.
func Seed(ctx context.Context, db *sql.DB, d adapter.Dialect, opts Options) (Summary, error) {
	if db == nil {
		return Summary{}, fmt.Errorf("database not opened")
	}
	if opts.End.IsZero() {
		opts.End = DefaultOptions().End
	}
	ph := d.Placeholder
	if ph == nil {
		ph = adapter.QuestionMark
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range seedTables {
		//nolint:gosec // fixed table names
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return Summary{}, fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	s := &seeder{ctx: ctx, tx: tx, ph: ph, rng: rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))}
	var sum Summary
	if sum.Categories, err = s.categories(); err != nil {
		return Summary{}, err
	}
	prices, err := s.products(opts.Products, sum.Categories)
	if err != nil {
		return Summary{}, err
	}
	sum.Products = len(prices)
	if sum.Customers, err = s.customers(opts.Customers); err != nil {
		return Summary{}, err
	}
	if sum.Orders, sum.OrderItems, err = s.orders(opts.Orders, sum.Customers, prices, opts.End); err != nil {
		return Summary{}, err
	}

	if err := tx.Commit(); err != nil {
		return Summary{}, fmt.Errorf("failed to commit seed: %w", err)
	}
	return sum, nil
}

type seeder struct {
	ctx context.Context
	tx  *sql.Tx
	ph  func(int) string
	rng *rand.Rand
}

func (s *seeder) insert(table string, columns ...string) (*sql.Stmt, error) {
	marks := make([]string, len(columns))
	for i := range columns {
		marks[i] = s.ph(i + 1)
	}
	//nolint:gosec // fixed identifiers
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), strings.Join(marks, ", "))
	stmt, err := s.tx.PrepareContext(s.ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert into %s: %w", table, err)
	}
	return stmt, nil
}

func (s *seeder) categories() (int, error) {
	stmt, err := s.insert("categories", "id", "name", "description")
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	for i, c := range categories {
		if _, err := stmt.ExecContext(s.ctx, i+1, c[0], c[1]); err != nil {
			return 0, fmt.Errorf("failed to insert category %s: %w", c[0], err)
		}
	}
	return len(categories), nil
}

func (s *seeder) products(n, categoryCount int) ([]float64, error) {
	stmt, err := s.insert("products", "id", "name", "category_id", "price", "stock_quantity", "rating")
	if err != nil {
		return nil, err
	}
	defer func() { _ = stmt.Close() }()

	prices := make([]float64, n)
	for i := range n {
		name := adjectives[s.rng.IntN(len(adjectives))] + " " + nouns[s.rng.IntN(len(nouns))]
		prices[i] = round(9.99+s.rng.Float64()*990, 2)
		rating := round(triangular(s.rng.Float64(), 1, 5, 4), 1)
		if _, err := stmt.ExecContext(s.ctx, i+1, name, s.rng.IntN(categoryCount)+1, prices[i], s.rng.IntN(501), rating); err != nil {
			return nil, fmt.Errorf("failed to insert product %d: %w", i+1, err)
		}
	}
	return prices, nil
}

func (s *seeder) customers(n int) (int, error) {
	stmt, err := s.insert("customers", "id", "first_name", "last_name", "email", "city", "country")
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	for i := range n {
		first := firstNames[s.rng.IntN(len(firstNames))]
		last := lastNames[s.rng.IntN(len(lastNames))]
		place := places[s.rng.IntN(len(places))]
		email := fmt.Sprintf("%s.%s.%d@example.com", strings.ToLower(first), strings.ToLower(last), i+1)
		if _, err := stmt.ExecContext(s.ctx, i+1, first, last, email, place[0], place[1]); err != nil {
			return 0, fmt.Errorf("failed to insert customer %d: %w", i+1, err)
		}
	}
	return n, nil
}

func (s *seeder) orders(n, customerCount int, prices []float64, end time.Time) (orders, items int, err error) {
	if n > 0 && (customerCount == 0 || len(prices) == 0) {
		return 0, 0, fmt.Errorf("orders need at least one customer and one product")
	}
	orderStmt, err := s.insert("orders", "id", "customer_id", "order_date", "total_amount", "status")
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = orderStmt.Close() }()
	itemStmt, err := s.insert("order_items", "id", "order_id", "product_id", "quantity", "unit_price")
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = itemStmt.Close() }()

	for i := range n {
		orderID := i + 1
		date := end.AddDate(0, 0, -s.rng.IntN(730)).Format(time.DateOnly)
		customer := s.rng.IntN(customerCount) + 1
		status := statuses[s.rng.IntN(len(statuses))]

		// Items reference the order, so the order row goes in first with its
		// total computed up front.
		type line struct {
			product, qty int
			price        float64
		}
		lines := make([]line, s.rng.IntN(5)+1)
		total := 0.0
		for j := range lines {
			p := s.rng.IntN(len(prices))
			lines[j] = line{product: p + 1, qty: s.rng.IntN(3) + 1, price: prices[p]}
			total += prices[p] * float64(lines[j].qty)
		}

		if _, err := orderStmt.ExecContext(s.ctx, orderID, customer, date, round(total, 2), status); err != nil {
			return 0, 0, fmt.Errorf("failed to insert order %d: %w", orderID, err)
		}
		for _, l := range lines {
			items++
			if _, err := itemStmt.ExecContext(s.ctx, items, orderID, l.product, l.qty, l.price); err != nil {
				return 0, 0, fmt.Errorf("failed to insert item for order %d: %w", orderID, err)
			}
		}
	}
	return n, items, nil
}

// triangular maps a uniform u in [0,1) onto a triangular distribution.
func triangular(u, lo, hi, mode float64) float64 {
	c := (mode - lo) / (hi - lo)
	if u < c {
		return lo + math.Sqrt(u*(hi-lo)*(mode-lo))
	}
	return hi - math.Sqrt((1-u)*(hi-lo)*(hi-mode))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
