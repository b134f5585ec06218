package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapviz/internal/backend"
	"github.com/leapstack-labs/leapviz/internal/present"
	"github.com/leapstack-labs/leapviz/pkg/recommend"
)

// PreviewOptions holds options for the preview command.
type PreviewOptions struct {
	SQL      string
	Input    string
	Question string
	Chart    string
	Format   string
}

// NewPreviewCommand creates the preview command.
func NewPreviewCommand() *cobra.Command {
	opts := &PreviewOptions{}

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Chart the result of a SQL query on the local target",
		Long: `Run a SQL query on the configured target database and chart its result
without the analysis backend.

The first text column becomes the category axis and the numeric columns the
metrics. The question, when given, titles the chart and steers the
recommendation the same way the backend's question does.`,
		Example: `  # Chart a query
  leapviz preview --sql "SELECT category, SUM(total) AS sales FROM orders GROUP BY 1"

  # Read the query from a file and title it
  leapviz preview -i sales.sql --question "sales share by category"

  # Against a specific sqlite file
  leapviz preview --target-type sqlite --database demo.db --sql "SELECT * FROM products"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPreview(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.SQL, "sql", "", "SQL query to run")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")
	cmd.Flags().StringVar(&opts.Question, "question", "", "Question the query answers (chart title)")
	cmd.Flags().StringVar(&opts.Chart, "chart", "", "Chart type to draw instead of the AI pick")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format (text|markdown|json|yaml|html)")
	cmd.Flags().Int("limit", 0, "Maximum rows to chart (default from render.preview_limit)")
	addTargetFlags(cmd)

	_ = cmd.RegisterFlagCompletionFunc("chart", completeChartTypes)

	return cmd
}

// addTargetFlags adds the flags that override the target section.
func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().String("target-type", "", "Target database type (duckdb|postgres|sqlite)")
	cmd.Flags().String("database", "", "Target database path or name")
}

func runPreview(cmd *cobra.Command, opts *PreviewOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	query := opts.SQL
	if opts.Input != "" {
		b, err := readInput(cmd, opts.Input)
		if err != nil {
			return err
		}
		query = string(b)
	}
	query = strings.TrimSuffix(strings.TrimSpace(query), ";")
	if query == "" {
		return fmt.Errorf("a query is required (--sql or --input)")
	}
	format, err := cc.Format(opts.Format)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := cc.openTarget(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ds, err := a.Query(ctx, query, cc.Cfg.Render.PreviewLimit)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	cc.Logger.Debug("query returned", "rows", ds.Len(), "columns", len(ds.Columns))

	cfg, err := recommend.BuildConfig(opts.Question, ds)
	if err != nil {
		return err
	}
	snap, err := cc.adopt(&backend.Response{
		Question:            opts.Question,
		SQLQuery:            query,
		VisualizationConfig: cfg,
	}, false, opts.Chart)
	if err != nil {
		return err
	}
	if snap.Instruction == nil {
		return fmt.Errorf("nothing to render")
	}
	r := cc.Renderer
	return present.Write(r.Writer(), format, *snap.Instruction, r.Lipgloss())
}
