package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapviz/internal/present"
	"github.com/leapstack-labs/leapviz/pkg/render"
)

// watchDebounce coalesces the bursts of events editors emit on save.
const watchDebounce = 100 * time.Millisecond

// RenderOptions holds options for the render command.
type RenderOptions struct {
	Chart  string
	Format string
	Repair bool
	Watch  bool
}

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render [file|-]",
		Short: "Render a visualization config",
		Long: `Render a visualization config through the chart engine.

The input is an analysis response (with visualization_config), a bare
visualization config, or agent output wrapping one in a code fence. Without
--chart the AI pick is drawn.

Output adapts to environment:
  - Terminal: table of the plotted values with a color legend
  - Piped/Scripted: Markdown`,
		Example: `  # Render a saved analysis response
  leapviz render response.json

  # Force a chart type
  leapviz render response.json --chart stacked_100

  # Write an ECharts page
  leapviz render response.json --format html > chart.html

  # Re-render whenever the file changes
  leapviz render config.json --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			return runRender(cmd, path, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Chart, "chart", "", "Chart type to draw instead of the AI pick")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format (text|markdown|json|yaml|html)")
	cmd.Flags().BoolVar(&opts.Repair, "repair", false, "Repair mismatched xKey/yKey names")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-render when the file changes")

	_ = cmd.RegisterFlagCompletionFunc("chart", completeChartTypes)
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "markdown", "json", "yaml", "html"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runRender(cmd *cobra.Command, path string, opts *RenderOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	format, err := cc.Format(opts.Format)
	if err != nil {
		return err
	}
	repair := opts.Repair || cc.Cfg.Render.Repair

	once := func() error {
		b, err := readInput(cmd, path)
		if err != nil {
			return err
		}
		inst, err := cc.instruction(b, repair, opts.Chart)
		if err != nil {
			return err
		}
		return present.Write(cc.Renderer.Writer(), format, inst, cc.Renderer.Lipgloss())
	}

	if !opts.Watch {
		return once()
	}
	if path == "" || path == "-" {
		return fmt.Errorf("--watch needs a file argument")
	}
	if err := once(); err != nil {
		cc.Renderer.Error(err.Error())
	}
	return watchFile(cmd.Context(), path, cc, once)
}

// instruction decodes an input and renders it, falling back to a tabular
// instruction when no result was produced.
func (cc *CommandContext) instruction(b []byte, repair bool, pick string) (render.Instruction, error) {
	resp, err := decodeResponse(b)
	if err != nil {
		return render.Instruction{}, err
	}
	snap, err := cc.adopt(resp, repair, pick)
	if err != nil {
		return render.Instruction{}, err
	}
	if snap.Instruction == nil {
		return render.Instruction{Kind: render.KindNoData, Message: "No data to display"}, nil
	}
	return *snap.Instruction, nil
}

// watchFile calls fn after every write to path until ctx is done. The
// directory is watched rather than the file so editors that replace the file
// on save keep triggering.
func watchFile(ctx context.Context, path string, cc *CommandContext, fn func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	cc.Logger.Debug("watching for changes", "file", abs)

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if name, _ := filepath.Abs(event.Name); name != abs {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(watchDebounce, func() {
				cc.Logger.Debug("file changed, re-rendering", "file", event.Name)
				rerender(cc, fn)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cc.Logger.Error("watcher error", "error", err)
		}
	}
}

func rerender(cc *CommandContext, fn func() error) {
	if cc.Renderer.IsTTY() {
		_, _ = io.WriteString(cc.Renderer.Writer(), "\033[H\033[2J")
	}
	if err := fn(); err != nil {
		cc.Renderer.Error(err.Error())
	}
}
