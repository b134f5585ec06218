package present

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/leapstack-labs/leapviz/pkg/chart"
	"github.com/leapstack-labs/leapviz/pkg/render"
	"github.com/leapstack-labs/leapviz/pkg/transform"
	"github.com/leapstack-labs/leapviz/pkg/viz"
)

// Page is a self-contained HTML document.
type Page interface {
	Render(w io.Writer) error
}

// HTML writes a standalone page: an ECharts chart for chart instructions,
// a plain document for everything else.
func HTML(w io.Writer, inst render.Instruction) error {
	if p, ok := EChart(inst); ok {
		return p.Render(w)
	}
	return FallbackPage(inst).Render(context.Background(), w)
}

// EChart builds the ECharts page for a chart instruction.
func EChart(inst render.Instruction) (Page, bool) {
	if inst.Kind != render.KindChart {
		return nil, false
	}
	switch inst.Family {
	case chart.FamilyRadialPie:
		return pieChart(inst), true
	case chart.FamilyRadialRadar:
		return radarChart(inst), true
	case chart.FamilyFunnel:
		return funnelChart(inst), true
	}
	switch inst.Type {
	case chart.TypeWaterfall:
		return waterfallChart(inst), true
	case chart.TypeLine, chart.TypeArea:
		return lineChart(inst), true
	case chart.TypeScatter:
		return scatterChart(inst), true
	case chart.TypeComposed:
		return composedChart(inst), true
	}
	return barChart(inst), true
}

func globals(inst render.Instruction, colors []string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: pageTitle(inst),
			Width:     "100%",
			Height:    "520px",
		}),
		charts.WithTitleOpts(opts.Title{Title: inst.Title}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
		charts.WithColorsOpts(opts.Colors(colors)),
	}
}

func axisGlobals(inst render.Instruction) []charts.GlobalOpts {
	yAxis := opts.YAxis{Name: inst.ValueLabel}
	if inst.Percent {
		yAxis.Max = 100
	}
	return []charts.GlobalOpts{
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: inst.CategoryLabel}),
		charts.WithYAxisOpts(yAxis),
	}
}

func pageTitle(inst render.Instruction) string {
	if inst.Title != "" {
		return inst.Title
	}
	return viz.FallbackTitle
}

func seriesColors(series []transform.Series) []string {
	out := make([]string, len(series))
	for i, s := range series {
		out[i] = s.Color
	}
	return out
}

// seriesValues returns the plotted values of s, reading them from the rows
// when the derivation did not precompute them.
func seriesValues(inst render.Instruction, s transform.Series) []float64 {
	if len(s.Values) > 0 {
		return s.Values
	}
	out := make([]float64, len(inst.Data.Rows))
	for i, row := range inst.Data.Rows {
		out[i] = viz.NumberOr(row[s.Key], 0)
	}
	return out
}

func barChart(inst render.Instruction) Page {
	bar := charts.NewBar()
	bar.SetGlobalOptions(append(globals(inst, seriesColors(inst.Series)), axisGlobals(inst)...)...)
	bar.SetXAxis(inst.Categories)

	for _, s := range inst.Series {
		values := seriesValues(inst, s)
		data := make([]opts.BarData, len(values))
		for i, v := range values {
			data[i] = opts.BarData{Value: v}
		}
		var so []charts.SeriesOpts
		if inst.Stacked {
			so = append(so, charts.WithBarChartOpts(opts.BarChart{Stack: "total"}))
		}
		bar.AddSeries(render.Humanize(s.Key), data, so...)
	}
	if inst.Orientation == chart.Horizontal {
		bar.XYReversal()
	}
	return bar
}

func lineChart(inst render.Instruction) Page {
	line := charts.NewLine()
	line.SetGlobalOptions(append(globals(inst, seriesColors(inst.Series)), axisGlobals(inst)...)...)
	line.SetXAxis(inst.Categories)

	for _, s := range inst.Series {
		values := seriesValues(inst, s)
		data := make([]opts.LineData, len(values))
		for i, v := range values {
			data[i] = opts.LineData{Value: v}
		}
		so := []charts.SeriesOpts{charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)})}
		if inst.Type == chart.TypeArea {
			so = append(so, charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: 0.3}))
		}
		line.AddSeries(render.Humanize(s.Key), data, so...)
	}
	return line
}

func scatterChart(inst render.Instruction) Page {
	sc := charts.NewScatter()
	sc.SetGlobalOptions(append(globals(inst, seriesColors(inst.Series)), axisGlobals(inst)...)...)
	sc.SetXAxis(inst.Categories)

	for _, s := range inst.Series {
		values := seriesValues(inst, s)
		data := make([]opts.ScatterData, len(values))
		for i, v := range values {
			data[i] = opts.ScatterData{Value: v}
		}
		sc.AddSeries(render.Humanize(s.Key), data)
	}
	return sc
}

// composedChart draws the first metric as bars on the left axis and the
// rest as lines on the right axis.
func composedChart(inst render.Instruction) Page {
	bar := charts.NewBar()
	bar.SetGlobalOptions(append(globals(inst, seriesColors(inst.Series)), axisGlobals(inst)...)...)
	bar.SetXAxis(inst.Categories)
	if len(inst.Series) == 0 {
		return bar
	}

	primary := inst.Series[0]
	values := seriesValues(inst, primary)
	data := make([]opts.BarData, len(values))
	for i, v := range values {
		data[i] = opts.BarData{Value: v}
	}
	bar.AddSeries(render.Humanize(primary.Key), data)

	if len(inst.Series) > 1 {
		bar.ExtendYAxis(opts.YAxis{Name: inst.SecondaryLabel})
		line := charts.NewLine()
		line.SetXAxis(inst.Categories)
		for _, s := range inst.Series[1:] {
			values := seriesValues(inst, s)
			ld := make([]opts.LineData, len(values))
			for i, v := range values {
				ld[i] = opts.LineData{Value: v}
			}
			line.AddSeries(render.Humanize(s.Key), ld, charts.WithLineChartOpts(opts.LineChart{YAxisIndex: 1}))
		}
		bar.Overlap(line)
	}
	return bar
}

// waterfallChart stacks an invisible base under each visible step.
func waterfallChart(inst render.Instruction) Page {
	steps := inst.Data.Steps
	cats := make([]string, len(steps))
	base := make([]opts.BarData, len(steps))
	visible := make([]opts.BarData, len(steps))
	for i, s := range steps {
		cats[i] = s.Name
		base[i] = opts.BarData{Value: s.Low(), ItemStyle: &opts.ItemStyle{Color: "transparent"}}
		visible[i] = opts.BarData{Value: s.High() - s.Low(), ItemStyle: &opts.ItemStyle{Color: s.Color}}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(append(globals(inst, nil), axisGlobals(inst)...)...)
	bar.SetXAxis(cats)
	stack := charts.WithBarChartOpts(opts.BarChart{Stack: "waterfall"})
	bar.AddSeries("base", base, stack)
	bar.AddSeries(inst.ValueLabel, visible, stack)
	return bar
}

func pieChart(inst render.Instruction) Page {
	pie := charts.NewPie()
	colors := make([]string, len(inst.Slices))
	data := make([]opts.PieData, len(inst.Slices))
	for i, s := range inst.Slices {
		colors[i] = s.Color
		data[i] = opts.PieData{Name: s.Name, Value: s.Value}
	}
	pie.SetGlobalOptions(append(globals(inst, colors),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}))...)
	pie.AddSeries(inst.ValueLabel, data,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {d}%"}))
	return pie
}

func radarChart(inst render.Instruction) Page {
	var peak float64
	for _, s := range inst.Series {
		for _, v := range seriesValues(inst, s) {
			peak = max(peak, v)
		}
	}
	if peak <= 0 {
		peak = 1
	}
	indicators := make([]*opts.Indicator, len(inst.Categories))
	for i, c := range inst.Categories {
		indicators[i] = &opts.Indicator{Name: c, Max: float32(peak * 1.1)}
	}

	radar := charts.NewRadar()
	radar.SetGlobalOptions(append(globals(inst, seriesColors(inst.Series)),
		charts.WithRadarComponentOpts(opts.RadarComponent{Indicator: indicators}))...)
	for _, s := range inst.Series {
		values := seriesValues(inst, s)
		radar.AddSeries(render.Humanize(s.Key), []opts.RadarData{{Name: render.Humanize(s.Key), Value: values}})
	}
	return radar
}

func funnelChart(inst render.Instruction) Page {
	stages := inst.Data.Funnel
	colors := make([]string, len(stages))
	data := make([]opts.FunnelData, len(stages))
	for i, s := range stages {
		colors[i] = s.Color
		data[i] = opts.FunnelData{Name: s.Name, Value: s.Value}
	}
	funnel := charts.NewFunnel()
	funnel.SetGlobalOptions(append(globals(inst, colors),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}))...)
	funnel.AddSeries(inst.ValueLabel, data)
	return funnel
}

// FallbackPage renders non-chart instructions as a minimal HTML document.
func FallbackPage(inst render.Instruction) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		title := templ.EscapeString(pageTitle(inst))
		if _, err := fmt.Fprintf(w, "<!doctype html><html><head><meta charset=\"utf-8\"><title>%s</title></head><body><h2>%s</h2>", title, title); err != nil {
			return err
		}
		if grid, ok := GridOf(inst); ok {
			if err := writeHTMLTable(w, grid); err != nil {
				return err
			}
		} else {
			if _, err := fmt.Fprintf(w, "<pre>%s</pre>", templ.EscapeString(inst.Message)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</body></html>")
		return err
	})
}

func writeHTMLTable(w io.Writer, g Grid) error {
	if _, err := io.WriteString(w, "<table><thead><tr>"); err != nil {
		return err
	}
	for _, h := range g.Headers {
		if _, err := fmt.Fprintf(w, "<th>%s</th>", templ.EscapeString(h)); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, "</tr></thead><tbody>"); err != nil {
		return err
	}
	for _, row := range g.Rows {
		if _, err := io.WriteString(w, "<tr>"); err != nil {
			return err
		}
		for _, c := range row {
			if _, err := fmt.Fprintf(w, "<td>%s</td>", templ.EscapeString(c)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "</tr>"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</tbody></table>")
	return err
}
