package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapviz/internal/backend"
	"github.com/leapstack-labs/leapviz/internal/cli/output"
	"github.com/leapstack-labs/leapviz/internal/present"
	"github.com/leapstack-labs/leapviz/internal/session"
	"github.com/leapstack-labs/leapviz/internal/stream"
	"github.com/leapstack-labs/leapviz/pkg/chart"
	"github.com/leapstack-labs/leapviz/pkg/render"
)

const askPrompt = "leapviz> "

// AskOptions holds options for the ask command.
type AskOptions struct {
	Chart  string
	Format string
	Repair bool
	Quiet  bool
}

// NewAskCommand creates the ask command.
func NewAskCommand() *cobra.Command {
	opts := &AskOptions{}

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the analysis backend a question",
		Long: `Send a question to the analysis backend, follow its steps as they stream in
and render the resulting chart.

Without a question an interactive prompt starts. Each line is a question;
dot-commands inspect the last result (type .help to list them).`,
		Example: `  # One question
  leapviz ask "total sales by category"

  # Force the chart type
  leapviz ask "monthly orders trend" --chart area

  # Interactive session
  leapviz ask`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Chart, "chart", "", "Chart type to draw instead of the AI pick")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format (text|markdown|json|yaml|html)")
	cmd.Flags().BoolVar(&opts.Repair, "repair", false, "Repair mismatched xKey/yKey names")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Do not print analysis steps")

	_ = cmd.RegisterFlagCompletionFunc("chart", completeChartTypes)

	return cmd
}

// asker is one CLI conversation with the backend.
type asker struct {
	cc     *CommandContext
	opts   *AskOptions
	src    session.Source
	sess   *session.Session
	format present.Format

	mu    sync.Mutex
	shown int // steps already printed for the running query
	query stream.QueryID
}

func newAsker(cc *CommandContext, src session.Source, opts *AskOptions) (*asker, error) {
	format, err := cc.Format(opts.Format)
	if err != nil {
		return nil, err
	}
	a := &asker{cc: cc, opts: opts, src: src, format: format}
	sess, err := session.New(uuid.NewString(), session.Options{
		Logger:   cc.Logger,
		Repair:   opts.Repair || cc.Cfg.Render.Repair,
		OnChange: func(string) { a.printSteps() },
	})
	if err != nil {
		return nil, err
	}
	a.sess = sess
	return a, nil
}

// printSteps writes the steps that arrived since the last call.
func (a *asker) printSteps() {
	if a.opts.Quiet || a.sess == nil {
		return
	}
	snap := a.sess.Snapshot()

	a.mu.Lock()
	defer a.mu.Unlock()
	if snap.QueryID != a.query {
		a.query = snap.QueryID
		a.shown = 0
	}
	r := a.cc.Renderer
	for _, step := range snap.Steps[min(a.shown, len(snap.Steps)):] {
		_, _ = fmt.Fprintln(r.ErrWriter(), r.Muted("  → "+step.Text))
	}
	a.shown = len(snap.Steps)
}

// ask runs one question and renders its result.
func (a *asker) ask(ctx context.Context, question string) error {
	m, err := a.sess.Ask(ctx, a.src, question)
	if err != nil {
		return err
	}
	if m.Kind == stream.KindError {
		return fmt.Errorf("analysis failed: %s", m.Text)
	}
	if a.opts.Chart != "" {
		if err := a.sess.Pick(chart.Type(a.opts.Chart)); err != nil {
			return err
		}
	}
	return a.show()
}

// show renders the current instruction.
func (a *asker) show() error {
	snap := a.sess.Snapshot()
	if snap.Instruction == nil {
		return errNoResult
	}
	r := a.cc.Renderer
	return present.Write(r.Writer(), a.format, *snap.Instruction, r.Lipgloss())
}

var errNoResult = errors.New("no result yet, ask a question first")

func runAsk(cmd *cobra.Command, question string, opts *AskOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	client := backend.New(cc.Cfg.Backend.ClientConfig(), cc.Logger)
	a, err := newAsker(cc, client, opts)
	if err != nil {
		return err
	}
	defer a.sess.Close()

	if strings.TrimSpace(question) != "" {
		return a.ask(cmd.Context(), question)
	}
	return runAskREPL(cmd, a, client.BaseURL())
}

func runAskREPL(cmd *cobra.Command, a *asker, baseURL string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          askPrompt,
		HistoryFile:     historyFile(),
		AutoComplete:    newAskCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdin:           io.NopCloser(cmd.InOrStdin()),
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	r := a.cc.Renderer
	r.Printf("LeapViz (backend: %s)\n", baseURL)
	r.Println("Type a question, .help for commands, .quit to exit")
	r.Println("")

	ctx := cmd.Context()
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ".") {
			if quit := a.dotCommand(line); quit {
				break
			}
			continue
		}

		if err := a.ask(ctx, line); err != nil {
			r.Error(err.Error())
		}
		r.Println("")
	}
	return nil
}

// dotCommand runs a REPL command and reports whether the REPL should exit.
func (a *asker) dotCommand(line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	r := a.cc.Renderer
	snap := a.sess.Snapshot()

	var err error
	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printAskHelp(r.Writer())

	case ".charts":
		if !snap.HasResult {
			err = errNoResult
			break
		}
		present.ChartList(r.Writer(), snap.Charts, snap.Selection.Current, r.Lipgloss())

	case ".chart":
		if len(parts) < 2 {
			r.Error("Usage: .chart <type>")
			break
		}
		if !snap.HasResult {
			err = errNoResult
			break
		}
		if err = a.sess.Pick(chart.Type(parts[1])); err == nil {
			err = a.show()
		}

	case ".table":
		if snap.Config == nil {
			err = errNoResult
			break
		}
		err = present.Write(r.Writer(), a.format, render.Build(*snap.Config, chart.TypeTable), r.Lipgloss())

	case ".sql":
		switch {
		case snap.SQL == "":
			r.Warning("No SQL for the last question")
		case r.EffectiveMode() == output.ModeMarkdown:
			r.Println(output.FormatCodeBlock("sql", snap.SQL))
		default:
			r.Println(snap.SQL)
		}

	case ".steps":
		for i, step := range snap.Steps {
			r.Printf("%2d. %s\n", i+1, step.Text)
		}
		if len(snap.Steps) == 0 {
			r.Println(r.Muted("No steps"))
		}

	default:
		r.Error(fmt.Sprintf("Unknown command: %s (type .help for commands)", command))
	}

	if err != nil {
		r.Error(err.Error())
	}
	return false
}

func printAskHelp(w io.Writer) {
	help := `
Commands:
  .charts         List charts for the last result
  .chart <type>   Draw the last result as another chart
  .table          Show the last result as a table
  .sql            Show the SQL the backend ran
  .steps          Show the analysis steps
  .help           Show this help message
  .quit / .exit   Exit

Tips:
  - Anything not starting with a dot is sent as a question
  - Use arrow keys to navigate history
  - Tab completes commands and chart types
`
	_, _ = fmt.Fprintln(w, help)
}

func newAskCompleter() *readline.PrefixCompleter {
	var types []readline.PrefixCompleterInterface
	for _, d := range chart.Selectable() {
		types = append(types, readline.PcItem(string(d.Value)))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem(".charts"),
		readline.PcItem(".chart", types...),
		readline.PcItem(".table"),
		readline.PcItem(".sql"),
		readline.PcItem(".steps"),
		readline.PcItem(".help"),
		readline.PcItem(".quit"),
	)
}

// historyFile returns the REPL history path, empty when there is no cache
// directory.
func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "leapviz")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return ""
	}
	return filepath.Join(dir, "ask_history")
}
