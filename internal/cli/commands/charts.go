package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapviz/internal/backend"
	"github.com/leapstack-labs/leapviz/internal/cli/output"
	"github.com/leapstack-labs/leapviz/internal/cli/picker"
	"github.com/leapstack-labs/leapviz/internal/present"
	"github.com/leapstack-labs/leapviz/internal/session"
	"github.com/leapstack-labs/leapviz/pkg/chart"
	"github.com/leapstack-labs/leapviz/pkg/recommend"
)

// ChartsOptions holds options for the charts command.
type ChartsOptions struct {
	Pick   bool
	Repair bool
	Format string
}

// ChartsOutput is the JSON shape of the charts command.
type ChartsOutput struct {
	Current chart.Type        `json:"current,omitempty"`
	Charts  []recommend.Entry `json:"charts"`
}

// NewChartsCommand creates the charts command.
func NewChartsCommand() *cobra.Command {
	opts := &ChartsOptions{}

	cmd := &cobra.Command{
		Use:   "charts [file|-]",
		Short: "List the charts a config can be drawn as",
		Long: `List every selectable chart, recommended ones first, for a visualization
config or analysis response. The AI pick and the current selection are marked.

With --pick an interactive selector opens and the chosen chart is rendered.
Without an input the full registry is listed.`,
		Example: `  # Ranked list for a saved response
  leapviz charts response.json

  # Choose interactively, then render
  leapviz charts response.json --pick`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			return runCharts(cmd, path, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Pick, "pick", "p", false, "Pick a chart interactively and render it")
	cmd.Flags().BoolVar(&opts.Repair, "repair", false, "Repair mismatched xKey/yKey names")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Format of the rendered pick (text|markdown|json|yaml|html)")

	return cmd
}

func runCharts(cmd *cobra.Command, path string, opts *ChartsOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cc.Renderer
	repair := opts.Repair || cc.Cfg.Render.Repair

	// Without an input on a terminal, list the plain registry.
	var resp *backend.Response
	snap := session.Snapshot{Charts: recommend.RankRegistry(nil)}
	if path != "" || !r.IsTTY() {
		b, err := readInput(cmd, path)
		if err != nil {
			return err
		}
		if resp, err = decodeResponse(b); err != nil {
			return err
		}
		if snap, err = cc.adopt(resp, repair, ""); err != nil {
			return err
		}
	}
	current := snap.Selection.Current

	if opts.Pick {
		if resp == nil || path == "-" || !r.IsTTY() {
			return fmt.Errorf("--pick needs a file argument and an interactive terminal")
		}
		t, ok, err := picker.Run(cmd.Context(), cmd.InOrStdin(), r.Writer(), snap.Charts, current)
		if err != nil || !ok {
			return err
		}
		picked, err := cc.adopt(resp, repair, string(t))
		if err != nil {
			return err
		}
		if picked.Instruction == nil {
			return fmt.Errorf("nothing to render for %s", t)
		}
		format, err := cc.Format(opts.Format)
		if err != nil {
			return err
		}
		return present.Write(r.Writer(), format, *picked.Instruction, r.Lipgloss())
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(ChartsOutput{Current: current, Charts: snap.Charts})
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Charts"))
		r.Println("")
		present.ChartListMarkdown(r.Writer(), snap.Charts, current)
	default:
		present.ChartList(r.Writer(), snap.Charts, current, r.Lipgloss())
	}
	return nil
}
