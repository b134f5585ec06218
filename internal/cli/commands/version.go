package commands

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapviz/pkg/adapter"
	"github.com/leapstack-labs/leapviz/pkg/chart"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string   `json:"version"`
	Commit    string   `json:"commit"`
	BuildDate string   `json:"build_date"`
	GoVersion string   `json:"go_version"`
	Adapters  []string `json:"adapters"`
	Charts    int      `json:"charts"`
}

// NewVersionCommand creates the version command. The adapter list and chart
// count are filled in at run time.
func NewVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display LeapViz version, build information and the compiled-in target adapters.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info.GoVersion = runtime.Version()
			info.Adapters = adapter.ListAdapters()
			info.Charts = len(chart.Selectable())

			out := cmd.OutOrStdout()
			if mode, _ := cmd.Flags().GetString("output"); mode == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			_, _ = fmt.Fprintf(out, "LeapViz v%s\n", info.Version)
			_, _ = fmt.Fprintln(out, "Question-to-chart engine built with Go and ECharts")
			if info.Commit != "" {
				_, _ = fmt.Fprintf(out, "  commit:   %s\n", info.Commit)
			}
			if info.BuildDate != "" {
				_, _ = fmt.Fprintf(out, "  built:    %s\n", info.BuildDate)
			}
			_, _ = fmt.Fprintf(out, "  go:       %s\n", info.GoVersion)
			_, _ = fmt.Fprintf(out, "  adapters: %s\n", strings.Join(info.Adapters, ", "))
			_, _ = fmt.Fprintf(out, "  charts:   %d\n", info.Charts)
			return nil
		},
	}
}
