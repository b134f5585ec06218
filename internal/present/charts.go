package present

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/leapviz/pkg/chart"
	"github.com/leapstack-labs/leapviz/pkg/recommend"
)

// Mark returns the flags column for a selector entry.
func Mark(e recommend.Entry, current chart.Type) string {
	var m string
	switch {
	case e.AIPick:
		m = "★ AI pick"
	case e.Recommended:
		m = "recommended"
	}
	if e.Value == current {
		if m != "" {
			m += ", "
		}
		m += "current"
	}
	return m
}

func chartRows(t table.Writer, entries []recommend.Entry, current chart.Type) {
	t.AppendHeader(table.Row{"Type", "Label", "Family", ""})
	for _, e := range entries {
		t.AppendRow(table.Row{string(e.Value), e.Label, e.Family.String(), Mark(e, current)})
	}
}

// ChartList writes the ranked selector entries as a terminal table,
// highlighting the current selection.
func ChartList(w io.Writer, entries []recommend.Entry, current chart.Type, lr *lipgloss.Renderer) {
	if lr == nil {
		lr = lipgloss.DefaultRenderer()
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	chartRows(t, entries, current)
	t.Render()

	recommended := 0
	for _, e := range entries {
		if e.Recommended {
			recommended++
		}
	}
	_, _ = fmt.Fprintln(w, lr.NewStyle().Faint(true).Render(
		fmt.Sprintf("%d charts, %d recommended", len(entries), recommended)))
}

// ChartListMarkdown writes the ranked selector entries as a pipe table.
func ChartListMarkdown(w io.Writer, entries []recommend.Entry, current chart.Type) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	chartRows(t, entries, current)
	t.RenderMarkdown()
}
