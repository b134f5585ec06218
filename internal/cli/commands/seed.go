package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapviz/internal/cli/output"
	"github.com/leapstack-labs/leapviz/internal/sample"
)

// SeedOptions holds options for the seed command.
type SeedOptions struct {
	Seed      uint64
	Products  int
	Customers int
	Orders    int
	Reset     bool
}

// SeedOutput is the JSON shape of the seed command.
type SeedOutput struct {
	Target    string         `json:"target"`
	Database  string         `json:"database"`
	Version   int64          `json:"version"`
	Rows      map[string]int `json:"rows"`
	Questions []string       `json:"questions"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	def := sample.DefaultOptions()
	opts := &SeedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the demo sales database",
		Long: `Create the demo sales tables (categories, products, customers, orders and
order items) on the configured target and fill them with generated data.

The data is deterministic for a given --seed. Existing demo rows are replaced.
Supported targets: sqlite and postgres.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)`,
		Example: `  # Seed a local sqlite file
  leapviz seed --target-type sqlite --database demo.db

  # More orders, different data
  leapviz seed --orders 5000 --seed 7

  # Drop and recreate the tables
  leapviz seed --reset`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, opts)
		},
	}

	cmd.Flags().Uint64Var(&opts.Seed, "seed", def.Seed, "Random seed")
	cmd.Flags().IntVar(&opts.Products, "products", def.Products, "Number of products")
	cmd.Flags().IntVar(&opts.Customers, "customers", def.Customers, "Number of customers")
	cmd.Flags().IntVar(&opts.Orders, "orders", def.Orders, "Number of orders")
	cmd.Flags().BoolVar(&opts.Reset, "reset", false, "Drop the demo tables before seeding")
	addTargetFlags(cmd)

	return cmd
}

func runSeed(cmd *cobra.Command, opts *SeedOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cc.Renderer
	ctx := cmd.Context()

	a, err := cc.openTarget(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	h, err := sqlHandle(a)
	if err != nil {
		return err
	}
	db, dialect := h.SQLDB(), a.Dialect()

	if opts.Reset {
		if err := sample.Reset(ctx, db, dialect.Name); err != nil {
			return err
		}
		cc.Logger.Info("dropped demo tables")
	}
	if err := sample.Migrate(ctx, db, dialect.Name); err != nil {
		return err
	}
	version, err := sample.Version(ctx, db, dialect.Name)
	if err != nil {
		return err
	}

	seedOpts := sample.DefaultOptions()
	seedOpts.Seed = opts.Seed
	seedOpts.Products = opts.Products
	seedOpts.Customers = opts.Customers
	seedOpts.Orders = opts.Orders

	sum, err := sample.Seed(ctx, db, dialect, seedOpts)
	if err != nil {
		return err
	}

	rows := []struct {
		table string
		n     int
	}{
		{"categories", sum.Categories},
		{"products", sum.Products},
		{"customers", sum.Customers},
		{"orders", sum.Orders},
		{"order_items", sum.OrderItems},
	}
	target := cc.Cfg.Target

	switch r.EffectiveMode() {
	case output.ModeJSON:
		out := SeedOutput{
			Target:    target.Type,
			Database:  target.Database,
			Version:   version,
			Rows:      map[string]int{},
			Questions: sample.Questions,
		}
		for _, row := range rows {
			out.Rows[row.table] = row.n
		}
		return r.JSON(out)

	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Demo Data Seeded"))
		r.Println("")
		r.Println(output.FormatKeyValue("Target", target.Type))
		r.Println(output.FormatKeyValue("Schema Version", strconv.FormatInt(version, 10)))
		for _, row := range rows {
			r.Println(output.FormatKeyValue(row.table, strconv.Itoa(row.n)))
		}
		r.Println("")
		r.Println(output.FormatHeader(2, "Try asking"))
		r.Println("")
		for _, q := range sample.Questions {
			r.Println("- " + q)
		}

	default:
		r.Header(2, "Demo Data")
		for _, row := range rows {
			r.StatusLine(row.table, "success", fmt.Sprintf("%d rows", row.n))
		}
		r.Println("")
		r.Success(fmt.Sprintf("Seeded %s (schema version %d)", target.Type, version))
		r.Println(r.Muted("Try asking:"))
		for _, q := range sample.Questions {
			r.Println(r.Muted("  " + q))
		}
	}
	return nil
}
