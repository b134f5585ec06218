package present

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapviz/pkg/render"
)

// Format names an output format.
type Format string

// Formats.
const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatHTML     Format = "html"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatMarkdown, FormatJSON, FormatYAML, FormatHTML}

// ParseFormat accepts a format name, with "md" as an alias for markdown.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatMarkdown, FormatJSON, FormatYAML, FormatHTML:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, markdown, json, yaml or html)", s)
	}
}

// Write renders inst in format f. lr styles text output and may be nil.
func Write(w io.Writer, f Format, inst render.Instruction, lr *lipgloss.Renderer) error {
	switch f {
	case FormatText:
		return Text(w, inst, lr)
	case FormatMarkdown:
		return Markdown(w, inst)
	case FormatJSON:
		return JSON(w, inst)
	case FormatYAML:
		return YAML(w, inst)
	case FormatHTML:
		return HTML(w, inst)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

// Text writes a terminal view: title, chart summary, a light box table of
// the plotted values and a color legend.
func Text(w io.Writer, inst render.Instruction, lr *lipgloss.Renderer) error {
	if lr == nil {
		lr = lipgloss.DefaultRenderer()
	}
	title := lr.NewStyle().Bold(true)
	muted := lr.NewStyle().Faint(true)

	if inst.Title != "" {
		_, _ = fmt.Fprintln(w, title.Render(inst.Title))
	}
	grid, ok := GridOf(inst)
	if !ok {
		_, _ = fmt.Fprintln(w, inst.Message)
		return nil
	}
	_, _ = fmt.Fprintln(w, muted.Render(Describe(inst)))

	t := newTable(w, grid)
	t.SetStyle(table.StyleLight)
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(grid.Rows))

	if legend := Legend(inst); len(legend) > 0 {
		_, _ = fmt.Fprintln(w, RenderLegend(lr, legend))
	}
	if inst.Data.Hint != "" {
		_, _ = fmt.Fprintln(w, muted.Render(inst.Data.Hint))
	}
	return nil
}

// RenderLegend draws each item as a colored swatch followed by its label.
func RenderLegend(lr *lipgloss.Renderer, items []LegendItem) string {
	parts := make([]string, len(items))
	for i, it := range items {
		swatch := lr.NewStyle().Foreground(lipgloss.Color(it.Color)).Render("■")
		parts[i] = swatch + " " + it.Label
	}
	return strings.Join(parts, "  ")
}

// Markdown writes a markdown section with a pipe table.
func Markdown(w io.Writer, inst render.Instruction) error {
	if inst.Title != "" {
		_, _ = fmt.Fprintf(w, "## %s\n\n", inst.Title)
	}
	grid, ok := GridOf(inst)
	if !ok {
		_, _ = fmt.Fprintf(w, "_%s_\n", inst.Message)
		return nil
	}
	_, _ = fmt.Fprintf(w, "_%s_\n\n", Describe(inst))

	t := newTable(w, grid)
	t.RenderMarkdown()
	_, _ = fmt.Fprintln(w)

	if legend := Legend(inst); len(legend) > 0 {
		_, _ = fmt.Fprintln(w)
		for _, it := range legend {
			_, _ = fmt.Fprintf(w, "- `%s` %s\n", it.Color, it.Label)
		}
	}
	if inst.Data.Hint != "" {
		_, _ = fmt.Fprintf(w, "\n> %s\n", inst.Data.Hint)
	}
	return nil
}

func newTable(w io.Writer, g Grid) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	header := make(table.Row, len(g.Headers))
	for i, h := range g.Headers {
		header[i] = h
	}
	t.AppendHeader(header)

	numeric := numericColumns(g)
	var configs []table.ColumnConfig
	for i, isNum := range numeric {
		if isNum {
			configs = append(configs, table.ColumnConfig{Number: i + 1, Align: text.AlignRight})
		}
	}
	t.SetColumnConfigs(configs)

	for _, r := range g.Rows {
		row := make(table.Row, len(r))
		for i, c := range r {
			row[i] = c
		}
		t.AppendRow(row)
	}
	return t
}

// numericColumns reports the columns whose every non-empty cell looks like a
// number, percentage or K/M tick label.
func numericColumns(g Grid) []bool {
	out := make([]bool, len(g.Headers))
	for i := range out {
		out[i] = len(g.Rows) > 0
		for _, r := range g.Rows {
			if i < len(r) && r[i] != "" && r[i] != render.NullText && !looksNumeric(r[i]) {
				out[i] = false
				break
			}
		}
	}
	return out
}

func looksNumeric(s string) bool {
	s = strings.TrimRight(s, "%KM")
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	dot := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return true
}

// JSON writes v as indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// YAML writes v as YAML, keeping the field names and order of its JSON form.
func YAML(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return fmt.Errorf("failed to convert to yaml: %w", err)
	}
	blockStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// blockStyle clears the flow and quoting styles JSON input parses with.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
