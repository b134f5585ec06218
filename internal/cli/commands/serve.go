package commands

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapviz/internal/backend"
	"github.com/leapstack-labs/leapviz/internal/config"
	"github.com/leapstack-labs/leapviz/internal/ui"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	NoBrowser bool
	Repair    bool
	Dev       bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"ui"},
		Short:   "Start the LeapViz web UI",
		Long: `Start a local web server with the question-to-chart dashboard.

The UI provides:
- A question box backed by the analysis backend
- Live analysis steps as they stream in
- The ranked chart picker with the AI pick marked
- ECharts rendering of the selected chart and a data table`,
		Example: `  # Start UI on default port
  leapviz serve

  # Start on custom port against another backend
  leapviz serve --port 3000 --backend http://analysis:8000

  # Start without auto-opening browser
  leapviz serve --no-browser`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().Int("port", 0, fmt.Sprintf("Port to serve on (default: %d)", config.DefaultUIPort))
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Don't auto-open browser")
	cmd.Flags().BoolVar(&opts.Repair, "repair", false, "Repair mismatched xKey/yKey names")
	cmd.Flags().BoolVar(&opts.Dev, "dev", false, "Enable live reload of the page")
	_ = cmd.Flags().MarkHidden("dev")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	uiCfg := cc.Cfg.UI
	r := cc.Renderer

	if uiCfg.SessionSecret == config.DefaultSessionSecret {
		cc.Logger.Warn("using the development session secret; set ui.session_secret or LEAPVIZ_UI__SESSION_SECRET")
	}

	client := backend.New(cc.Cfg.Backend.ClientConfig(), cc.Logger)
	if h, err := client.Health(cmd.Context()); err != nil {
		r.Warning(fmt.Sprintf("analysis backend at %s is not reachable: %v", client.BaseURL(), err))
	} else {
		cc.Logger.Debug("analysis backend is up", "service", h.Service, "version", h.Version)
	}

	server := ui.NewServer(ui.Config{
		Backend:       client,
		Port:          uiCfg.Port,
		SessionSecret: uiCfg.SessionSecret,
		SessionIdle:   uiCfg.SessionIdle,
		MaxConcurrent: uiCfg.MaxConcurrent,
		AskRate:       uiCfg.AskRate,
		Repair:        opts.Repair || cc.Cfg.Render.Repair,
		Dev:           opts.Dev,
		Logger:        cc.Logger,
		OnListen: func(url string) {
			r.Printf("Starting UI server on %s\n", url)
			r.Println("Press Ctrl+C to stop")
			if uiCfg.AutoOpen && !opts.NoBrowser {
				go openBrowser(url)
			}
		},
	})

	return server.Serve(cmd.Context())
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
