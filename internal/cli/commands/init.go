package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapviz/internal/cli/output"
	"github.com/leapstack-labs/leapviz/internal/config"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var example bool
	var database string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a leapviz.yaml configuration",
		Long: `Create a leapviz.yaml configuration with the backend, UI, render and
target sections filled in with their defaults.

Use --example to also add saved analysis responses that render without a
backend, and a sqlite target ready for 'leapviz seed'.`,
		Example: `  # Initialize in current directory
  leapviz init

  # Initialize with example responses
  leapviz init --example

  # Initialize in a new directory
  leapviz init my-project --example

  # Point at a remote analysis service
  leapviz init --backend https://analysis.internal:8000

  # Force overwrite existing config
  leapviz init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			// init runs before any config exists, so the output mode comes
			// from the flag alone.
			mode, _ := cmd.Flags().GetString("output")
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(mode))

			data := scaffoldData{BackendURL: config.DefaultBackendURL, Database: database}
			if url, _ := cmd.Flags().GetString("backend"); url != "" {
				data.BackendURL = url
			}

			if example {
				return runInitExample(r, dir, data, force)
			}
			return runInit(r, dir, data, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	cmd.Flags().BoolVar(&example, "example", false, "Add example responses and a sqlite demo target")
	cmd.Flags().StringVar(&database, "database", "demo.db", "Sqlite database file for the target section")

	return cmd
}

func prepareInitDir(dir string, force bool) error {
	// Create directory if specified and doesn't exist
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, "leapviz.yaml")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("leapviz.yaml already exists. Use --force to overwrite")
	}
	return nil
}

func scaffold(name, dir string, data scaffoldData, force bool) ([]string, error) {
	if err := prepareInitDir(dir, force); err != nil {
		return nil, err
	}
	files, err := renderScaffold(name, data)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize project: %w", err)
	}
	written, err := writeScaffold(dir, files, force)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize project: %w", err)
	}
	return written, nil
}

func runInit(r *output.Renderer, dir string, data scaffoldData, force bool) error {
	files, err := scaffold("minimal", dir, data, force)
	if err != nil {
		return err
	}
	for _, f := range files {
		r.StatusLine(f, "success", "")
	}

	r.Println("")
	r.Success("LeapViz configuration created!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Point backend.url at your analysis service")
	r.Println("  2. Run 'leapviz doctor' to check the setup")
	r.Println("  3. Run 'leapviz serve' to open the dashboard")

	return nil
}

func runInitExample(r *output.Renderer, dir string, data scaffoldData, force bool) error {
	files, err := scaffold("example", dir, data, force)
	if err != nil {
		return err
	}
	groups := groupTemplateFiles(files)

	r.Header(2, "Configuration")
	for _, f := range groups["config"] {
		r.StatusLine(f, "success", "")
	}

	r.Println("")
	r.Header(2, "Examples")
	for _, f := range groups["examples"] {
		r.StatusLine(f, "success", "")
	}

	r.Println("")
	r.Success("LeapViz project initialized with examples!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  leapviz seed                                 Create the demo database")
	r.Println("  leapviz render examples/monthly_sales.json   Render a saved response")
	r.Println("  leapviz charts examples/monthly_sales.json   See the ranked charts")
	r.Println("  leapviz serve                                Open the dashboard")

	return nil
}
