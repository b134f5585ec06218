// Package present writes render instructions to terminals, documents and
// browsers: go-pretty tables for text and markdown, a lipgloss palette
// legend, JSON/YAML dumps and go-echarts HTML pages.
package present

import (
	"strconv"

	"github.com/leapstack-labs/leapviz/pkg/chart"
	"github.com/leapstack-labs/leapviz/pkg/render"
	"github.com/leapstack-labs/leapviz/pkg/transform"
	"github.com/leapstack-labs/leapviz/pkg/viz"
)

// Grid is the tabular form of an instruction: what a chart would plot,
// written out as rows.
type Grid struct {
	Headers []string
	Rows    [][]string
}

// GridOf lays out the plotted values of inst. Message-like kinds have no grid.
func GridOf(inst render.Instruction) (Grid, bool) {
	switch inst.Kind {
	case render.KindTable:
		if inst.Table == nil {
			return Grid{}, false
		}
		return Grid{Headers: inst.Table.Headers, Rows: inst.Table.Rows}, true
	case render.KindChart:
	default:
		return Grid{}, false
	}

	switch {
	case len(inst.Data.Steps) > 0:
		return waterfallGrid(inst), true
	case len(inst.Data.Funnel) > 0:
		return funnelGrid(inst), true
	case len(inst.Slices) > 0:
		return pieGrid(inst), true
	default:
		return seriesGrid(inst), true
	}
}

func waterfallGrid(inst render.Instruction) Grid {
	g := Grid{Headers: []string{inst.CategoryLabel, inst.ValueLabel, "Start", "End", "Step"}}
	for _, s := range inst.Data.Steps {
		g.Rows = append(g.Rows, []string{s.Name, number(s.Value), number(s.Start), number(s.End), string(s.Kind)})
	}
	return g
}

func funnelGrid(inst render.Instruction) Grid {
	g := Grid{Headers: []string{"Stage", inst.ValueLabel}}
	for _, s := range inst.Data.Funnel {
		g.Rows = append(g.Rows, []string{s.Name, number(s.Value)})
	}
	return g
}

func pieGrid(inst render.Instruction) Grid {
	var total float64
	for _, s := range inst.Slices {
		total += s.Value
	}
	g := Grid{Headers: []string{inst.CategoryLabel, inst.ValueLabel, "Share"}}
	for _, s := range inst.Slices {
		share := 0.0
		if total != 0 {
			share = s.Value / total * 100
		}
		g.Rows = append(g.Rows, []string{s.Name, number(s.Value), strconv.FormatFloat(share, 'f', 1, 64) + "%"})
	}
	return g
}

func seriesGrid(inst render.Instruction) Grid {
	g := Grid{Headers: []string{inst.CategoryLabel}}
	for _, s := range inst.Series {
		g.Headers = append(g.Headers, render.Humanize(s.Key))
	}
	for i, row := range inst.Data.Rows {
		cells := []string{viz.Text(row[inst.CategoryKey])}
		for _, s := range inst.Series {
			cells = append(cells, seriesCell(inst, s, i, row))
		}
		g.Rows = append(g.Rows, cells)
	}
	return g
}

func seriesCell(inst render.Instruction, s transform.Series, i int, row viz.Record) string {
	if i < len(s.Labels) {
		return s.Labels[i]
	}
	v, ok := viz.Number(row[s.Key])
	if !ok {
		return render.Cell(row[s.Key])
	}
	if inst.Percent {
		return strconv.FormatFloat(v, 'f', 1, 64) + "%"
	}
	return number(v)
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// LegendItem is one colored key of a chart.
type LegendItem struct {
	Label string
	Color string
}

// Legend lists the colors inst assigns, in palette order.
func Legend(inst render.Instruction) []LegendItem {
	if inst.Kind != render.KindChart {
		return nil
	}
	var items []LegendItem
	switch {
	case len(inst.Slices) > 0:
		for _, s := range inst.Slices {
			items = append(items, LegendItem{Label: s.Name, Color: s.Color})
		}
	case len(inst.Data.Funnel) > 0:
		for _, s := range inst.Data.Funnel {
			items = append(items, LegendItem{Label: s.Name, Color: s.Color})
		}
	case len(inst.Data.Steps) > 0:
		seen := map[transform.StepKind]bool{}
		for _, s := range inst.Data.Steps {
			if !seen[s.Kind] {
				seen[s.Kind] = true
				items = append(items, LegendItem{Label: string(s.Kind), Color: s.Color})
			}
		}
	default:
		for _, s := range inst.Series {
			label := render.Humanize(s.Key)
			if s.Axis == transform.AxisSecondary {
				label += " (right axis)"
			}
			items = append(items, LegendItem{Label: label, Color: s.Color})
		}
	}
	return items
}

// Describe summarizes the chart family and layout in a few words.
func Describe(inst render.Instruction) string {
	if inst.Kind != render.KindChart {
		return string(inst.Kind)
	}
	s := string(inst.Type) + " · " + inst.Family.String()
	if inst.Orientation == chart.Horizontal {
		s += " · horizontal"
	}
	if inst.Percent {
		s += " · 100%"
	}
	return s
}
