package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapviz/internal/backend"
	"github.com/leapstack-labs/leapviz/internal/cli/output"
	"github.com/leapstack-labs/leapviz/internal/config"
	"github.com/leapstack-labs/leapviz/internal/present"
	"github.com/leapstack-labs/leapviz/internal/session"
	"github.com/leapstack-labs/leapviz/internal/stream"
	"github.com/leapstack-labs/leapviz/pkg/chart"
	"github.com/leapstack-labs/leapviz/pkg/viz"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Loaded
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext builds a CommandContext from the command's context. When
// the root did not load a configuration (a command run on its own), it is
// loaded here from the command's flags.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg, ok := config.FromContext(cmd.Context())
	if !ok {
		var err error
		if cfg, err = config.Load("", cmd.Flags()); err != nil {
			return nil, err
		}
	}
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output)),
	}, nil
}

// Format picks the present format for an explicit --format value, falling
// back to the renderer's effective output mode.
func (cc *CommandContext) Format(explicit string) (present.Format, error) {
	if explicit != "" {
		return present.ParseFormat(explicit)
	}
	switch cc.Renderer.EffectiveMode() {
	case output.ModeJSON:
		return present.FormatJSON, nil
	case output.ModeMarkdown:
		return present.FormatMarkdown, nil
	default:
		return present.FormatText, nil
	}
}

// NewSession creates a session outside any session store.
func (cc *CommandContext) NewSession(repair bool) (*session.Session, error) {
	return session.New(uuid.NewString(), session.Options{Logger: cc.Logger, Repair: repair})
}

// readInput reads a file, or stdin when path is "-" or empty.
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	b, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return b, nil
}

// decodeResponse accepts a full analysis response, a bare visualization
// config, or free-form agent output wrapping one.
func decodeResponse(b []byte) (*backend.Response, error) {
	text := strings.TrimSpace(string(b))
	if text == "" {
		return nil, fmt.Errorf("input is empty")
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &probe); err == nil {
		if _, ok := probe["visualization_config"]; ok {
			var resp backend.Response
			if err := json.Unmarshal([]byte(text), &resp); err != nil {
				return nil, fmt.Errorf("invalid analysis response: %w", err)
			}
			return &resp, nil
		}
	}
	return &backend.Response{VisualizationConfig: viz.ParseAgentOutput(text)}, nil
}

// adopt runs resp through a fresh session the way a streamed result would
// arrive, then applies the user's pick when one is given.
func (cc *CommandContext) adopt(resp *backend.Response, repair bool, pick string) (session.Snapshot, error) {
	sess, err := cc.NewSession(repair)
	if err != nil {
		return session.Snapshot{}, err
	}
	defer sess.Close()

	id := sess.Begin(resp.Question)
	sess.Apply(stream.Message{QueryID: id, Kind: stream.KindResult, Result: resp})
	if pick != "" {
		if err := sess.Pick(chart.Type(pick)); err != nil {
			return session.Snapshot{}, err
		}
	}
	return sess.Snapshot(), nil
}

// completeChartTypes completes selectable chart type names.
func completeChartTypes(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	var names []string
	for _, d := range chart.Selectable() {
		names = append(names, string(d.Value))
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
