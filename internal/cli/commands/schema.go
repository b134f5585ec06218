package commands

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapviz/internal/backend"
	"github.com/leapstack-labs/leapviz/internal/cli/output"
	"github.com/leapstack-labs/leapviz/pkg/adapter"
)

// SchemaOptions holds options for the schema command.
type SchemaOptions struct {
	Remote bool
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	opts := &SchemaOptions{}

	cmd := &cobra.Command{
		Use:   "schema [table...]",
		Short: "Show the tables questions can be asked about",
		Long: `Describe the tables of the configured target database: columns, types and
row counts. With --remote the analysis backend's own schema description is
shown instead.`,
		Example: `  # All tables of the local target
  leapviz schema

  # One table
  leapviz schema orders

  # What the backend sees
  leapviz schema --remote`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Remote, "remote", false, "Ask the analysis backend for its schema")
	addTargetFlags(cmd)

	return cmd
}

func runSchema(cmd *cobra.Command, tables []string, opts *SchemaOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cc.Renderer
	ctx := cmd.Context()

	if opts.Remote {
		client := backend.New(cc.Cfg.Backend.ClientConfig(), cc.Logger)
		text, err := client.Schema(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch schema: %w", err)
		}
		if r.EffectiveMode() == output.ModeJSON {
			return r.JSON(map[string]string{"backend": client.BaseURL(), "schema": text})
		}
		r.Println(text)
		return nil
	}

	a, err := cc.openTarget(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if len(tables) == 0 {
		if tables, err = a.ListTables(ctx); err != nil {
			return fmt.Errorf("failed to list tables: %w", err)
		}
	}
	metas := make([]*adapter.Metadata, 0, len(tables))
	for _, name := range tables {
		m, err := a.GetTableMetadata(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to describe %s: %w", name, err)
		}
		metas = append(metas, m)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(metas)
	case output.ModeMarkdown:
		schemaMarkdown(r, metas)
	default:
		schemaText(r, metas)
	}
	return nil
}

func columnTable(m *adapter.Metadata) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Column", "Type", "Nullable"})
	for _, c := range m.Columns {
		nullable := ""
		if c.Nullable {
			nullable = "yes"
		}
		t.AppendRow(table.Row{c.Position, c.Name, c.Type, nullable})
	}
	return t
}

func schemaText(r *output.Renderer, metas []*adapter.Metadata) {
	if len(metas) == 0 {
		r.Println(r.Muted("No tables"))
		return
	}
	for _, m := range metas {
		r.Header(2, m.Name)
		t := columnTable(m)
		t.SetStyle(table.StyleLight)
		r.Println(t.Render())
		r.Println(r.Muted(fmt.Sprintf("%s rows", strconv.FormatInt(m.RowCount, 10))))
		r.Println("")
	}
}

func schemaMarkdown(r *output.Renderer, metas []*adapter.Metadata) {
	r.Println(output.FormatHeader(1, "Schema"))
	for _, m := range metas {
		r.Println("")
		r.Println(output.FormatHeader(2, m.Name))
		r.Println("")
		r.Println(output.FormatKeyValue("Rows", strconv.FormatInt(m.RowCount, 10)))
		r.Println("")
		r.Println(columnTable(m).RenderMarkdown())
	}
}
