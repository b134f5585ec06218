package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapviz/internal/backend"
	"github.com/leapstack-labs/leapviz/internal/cli/output"
	"github.com/leapstack-labs/leapviz/internal/config"
	"github.com/leapstack-labs/leapviz/internal/sample"
	"github.com/leapstack-labs/leapviz/pkg/chart"
)

// Check statuses.
const (
	statusPass = "pass"
	statusWarn = "warn"
	statusFail = "error"
	statusSkip = "skip"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Offline bool
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the LeapViz setup",
		Long: `Check everything LeapViz depends on and report what needs attention:
- Configuration (config file, session secret)
- Analysis backend (reachable, circuit state)
- Target database (adapter, connection, demo data)
- Chart engine (registry)

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run all checks
  leapviz doctor

  # Skip the backend
  leapviz doctor --offline

  # Output as JSON
  leapviz doctor -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Offline, "offline", false, "Skip the analysis backend checks")
	addTargetFlags(cmd)

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	ConfigFile      string        `json:"config_file,omitempty"`
	HealthChecks    []HealthCheck `json:"health_checks"`
	Score           int           `json:"score"`
	Recommendations []string      `json:"recommendations"`
	IssueCount      int           `json:"issue_count"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Group  string `json:"group"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
	Hint   string `json:"hint,omitempty"`
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cc.Renderer

	checks := configChecks(cc.Cfg)
	if opts.Offline {
		checks = append(checks, HealthCheck{ID: "backend.reachable", Name: "Backend reachable", Group: "backend", Status: statusSkip, Detail: "--offline"})
	} else {
		checks = append(checks, backendChecks(cmd.Context(), cc)...)
	}
	checks = append(checks, targetChecks(cmd.Context(), cc)...)
	checks = append(checks, engineChecks()...)

	out := buildDoctorOutput(cc.Cfg.File, checks)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		return renderDoctorMarkdown(r, out)
	default:
		return renderDoctorText(r, out)
	}
}

func configChecks(cfg *config.Loaded) []HealthCheck {
	file := HealthCheck{ID: "config.file", Name: "Config file", Group: "config", Status: statusPass, Detail: cfg.File}
	if cfg.File == "" {
		file.Status = statusWarn
		file.Detail = "no leapviz.yaml found, using defaults"
		file.Hint = "Run 'leapviz init' to create a configuration"
	}

	secret := HealthCheck{ID: "config.session_secret", Name: "Session secret", Group: "config", Status: statusPass}
	if cfg.UI.SessionSecret == config.DefaultSessionSecret {
		secret.Status = statusWarn
		secret.Detail = "the development secret is in use"
		secret.Hint = "Set ui.session_secret before sharing the UI"
	}
	return []HealthCheck{file, secret}
}

func backendChecks(ctx context.Context, cc *CommandContext) []HealthCheck {
	client := backend.New(cc.Cfg.Backend.ClientConfig(), cc.Logger)

	reach := HealthCheck{ID: "backend.reachable", Name: "Backend reachable", Group: "backend", Status: statusPass}
	h, err := client.Health(ctx)
	if err != nil {
		reach.Status = statusFail
		reach.Detail = err.Error()
		reach.Hint = fmt.Sprintf("Start the analysis service or point backend.url elsewhere (now %s)", client.BaseURL())
	} else {
		reach.Detail = strings.TrimSpace(fmt.Sprintf("%s %s at %s", h.Service, h.Version, client.BaseURL()))
	}

	breaker := HealthCheck{ID: "backend.circuit", Name: "Circuit breaker", Group: "backend", Status: statusPass, Detail: client.BreakerState()}
	if breaker.Detail != "closed" {
		breaker.Status = statusWarn
	}
	return []HealthCheck{reach, breaker}
}

func targetChecks(ctx context.Context, cc *CommandContext) []HealthCheck {
	adapterCheck := HealthCheck{ID: "target.adapter", Name: "Target adapter", Group: "target", Status: statusPass}
	connect := HealthCheck{ID: "target.connect", Name: "Target connection", Group: "target"}
	demo := HealthCheck{ID: "target.demo_data", Name: "Demo data", Group: "target"}

	if err := cc.Cfg.ValidateTarget(); err != nil {
		adapterCheck.Status = statusFail
		adapterCheck.Detail = err.Error()
		adapterCheck.Hint = "Set target.type to one of the compiled-in adapters"
		connect.Status, demo.Status = statusSkip, statusSkip
		return []HealthCheck{adapterCheck, connect, demo}
	}
	adapterCheck.Detail = cc.Cfg.Target.Type

	a, err := cc.openTarget(ctx)
	if err != nil {
		connect.Status = statusFail
		connect.Detail = err.Error()
		connect.Hint = "Check the target section of leapviz.yaml"
		demo.Status = statusSkip
		return []HealthCheck{adapterCheck, connect, demo}
	}
	defer func() { _ = a.Close() }()
	connect.Status = statusPass
	connect.Detail = cc.Cfg.Target.Database

	h, err := sqlHandle(a)
	if err != nil {
		demo.Status, demo.Detail = statusSkip, err.Error()
		return []HealthCheck{adapterCheck, connect, demo}
	}
	version, err := sample.Version(ctx, h.SQLDB(), a.Dialect().Name)
	var unsupported *sample.UnsupportedDialectError
	switch {
	case errors.As(err, &unsupported):
		demo.Status, demo.Detail = statusSkip, err.Error()
	case err != nil || version == 0:
		demo.Status = statusWarn
		demo.Detail = "demo tables not found"
		demo.Hint = "Run 'leapviz seed' to create the demo sales data"
	default:
		demo.Status = statusPass
		demo.Detail = fmt.Sprintf("schema version %d", version)
	}
	return []HealthCheck{adapterCheck, connect, demo}
}

func engineChecks() []HealthCheck {
	used := map[chart.Family]bool{}
	for _, d := range chart.Registry() {
		used[d.Family] = true
	}
	check := HealthCheck{
		ID:     "engine.registry",
		Name:   "Chart registry",
		Group:  "engine",
		Status: statusPass,
		Detail: fmt.Sprintf("%d selectable charts in %d families", len(chart.Selectable()), len(used)),
	}
	if len(used) != int(chart.NumFamilies) {
		check.Status = statusFail
	}
	return []HealthCheck{check}
}

func buildDoctorOutput(file string, checks []HealthCheck) *DoctorOutput {
	out := &DoctorOutput{
		ConfigFile:      file,
		HealthChecks:    checks,
		Score:           calculateHealthScore(checks),
		Recommendations: []string{},
	}
	for _, c := range checks {
		if c.Status == statusWarn || c.Status == statusFail {
			out.IssueCount++
		}
		if c.Hint != "" {
			out.Recommendations = append(out.Recommendations, c.Hint)
		}
	}
	return out
}

// calculateHealthScore computes a health score from 0-100. Failures weigh
// more than warnings; skipped checks do not count.
func calculateHealthScore(checks []HealthCheck) int {
	score := 100
	for _, c := range checks {
		switch c.Status {
		case statusFail:
			score -= 25
		case statusWarn:
			score -= 10
		}
	}
	return max(score, 0)
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Title.Render("LeapViz Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	if out.ConfigFile != "" {
		r.Println(styles.Muted.Render("   Config: " + out.ConfigFile))
	}
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		var icon string
		switch check.Status {
		case statusPass:
			icon = styles.Success.Render("✓")
		case statusWarn:
			icon = styles.Warning.Render("!")
		case statusFail:
			icon = styles.Error.Render("✗")
		default:
			icon = styles.Muted.Render("-")
		}

		line := fmt.Sprintf("%s %s", icon, check.Name)
		if check.Detail != "" {
			line += "  " + styles.Muted.Render(check.Detail)
		}
		r.Println("   " + line)
	}
	r.Println("")

	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println(styles.Title.Render("Recommendations"))
		for i, rec := range out.Recommendations {
			r.Printf("   %d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println("# LeapViz Health Report")
	r.Println("")
	if out.ConfigFile != "" {
		r.Println(output.FormatKeyValue("Config", out.ConfigFile))
		r.Println("")
	}

	r.Println("## Health Checks")
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("### " + titleCaser.String(currentGroup))
			r.Println("")
		}

		r.Printf("- **[%s]** %s", strings.ToUpper(check.Status), check.Name)
		if check.Detail != "" {
			r.Printf(": %s", check.Detail)
		}
		r.Println("")
	}
	r.Println("")

	r.Println("## Health Score")
	r.Println("")
	r.Printf("**%d/100**\n", out.Score)
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println("## Recommendations")
		r.Println("")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}
