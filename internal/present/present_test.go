package present

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapviz/pkg/chart"
	"github.com/leapstack-labs/leapviz/pkg/recommend"
	"github.com/leapstack-labs/leapviz/pkg/render"
	"github.com/leapstack-labs/leapviz/pkg/viz"
)

const salesData = `[{"month":"Jan","total_sales":120000,"orders":40},{"month":"Feb","total_sales":95000,"orders":31},{"month":"Mar","total_sales":130000,"orders":45}]`

func build(t *testing.T, typ chart.Type, yKey viz.YKey) render.Instruction {
	t.Helper()
	n := viz.Normalize(viz.Config{Type: typ, Title: "Monthly Sales", XKey: "month", YKey: yKey, Data: json.RawMessage(salesData)})
	return render.Build(n, typ)
}

func plain() *lipgloss.Renderer { return lipgloss.NewRenderer(io.Discard) }

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("md")
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, f)

	f, err = ParseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("svg")
	assert.ErrorContains(t, err, "unknown format")
}

func TestGridOf(t *testing.T) {
	tests := []struct {
		name    string
		typ     chart.Type
		yKey    viz.YKey
		headers []string
		first   []string
	}{
		{"bar", chart.TypeBar, viz.Key("total_sales"), []string{"Month", "Total Sales"}, []string{"Jan", "120000"}},
		{"pie", chart.TypePie, viz.Key("total_sales"), []string{"Month", "Total Sales", "Share"}, []string{"Jan", "120000", "34.8%"}},
		{"funnel", chart.TypeFunnel, viz.Key("total_sales"), []string{"Stage", "Total Sales"}, []string{"Mar", "130000"}},
		{"table", chart.TypeTable, viz.Key("total_sales"), []string{"Month", "Total Sales", "Orders"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, ok := GridOf(build(t, tt.typ, tt.yKey))
			require.True(t, ok)
			if tt.name == "table" {
				assert.ElementsMatch(t, tt.headers, g.Headers)
				assert.Len(t, g.Rows, 3)
				return
			}
			assert.Equal(t, tt.headers, g.Headers)
			require.NotEmpty(t, g.Rows)
			assert.Equal(t, tt.first, g.Rows[0])
		})
	}
}

func TestGridOf_Waterfall(t *testing.T) {
	g, ok := GridOf(build(t, chart.TypeWaterfall, viz.Key("total_sales")))
	require.True(t, ok)
	assert.Equal(t, []string{"Month", "Total Sales", "Start", "End", "Step"}, g.Headers)
	assert.GreaterOrEqual(t, len(g.Rows), 3)
}

func TestGridOf_MessageKinds(t *testing.T) {
	inst := render.Build(viz.Normalize(viz.Config{Type: chart.TypeError, Message: "boom"}), chart.TypeBar)
	_, ok := GridOf(inst)
	assert.False(t, ok)
	assert.Nil(t, Legend(inst))
	assert.Equal(t, "message", Describe(inst))
}

func TestLegend_DualAxis(t *testing.T) {
	items := Legend(build(t, chart.TypeComposed, viz.Keys("total_sales", "orders")))
	require.Len(t, items, 2)
	assert.Equal(t, "Total Sales", items[0].Label)
	assert.Equal(t, "Orders (right axis)", items[1].Label)
	assert.NotEmpty(t, items[0].Color)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "bar · cartesian-single", Describe(build(t, chart.TypeBar, viz.Key("total_sales"))))
	assert.Equal(t, "stacked_bar · cartesian-multi-stacked · horizontal",
		Describe(build(t, chart.TypeStackedBar, viz.Keys("total_sales", "orders"))))
	assert.Equal(t, "stacked_100 · cartesian-multi-stacked · 100%",
		Describe(build(t, chart.TypeStacked100, viz.Keys("total_sales", "orders"))))
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, build(t, chart.TypeBar, viz.Key("total_sales")), plain()))

	out := buf.String()
	assert.Contains(t, out, "Monthly Sales")
	assert.Contains(t, out, "bar · cartesian-single")
	assert.Contains(t, out, "120000")
	assert.Contains(t, out, "(3 rows)")
	assert.Contains(t, out, "■ Total Sales")
	assert.NotContains(t, out, "\x1b[")
}

func TestText_Message(t *testing.T) {
	var buf bytes.Buffer
	inst := render.Build(viz.Normalize(viz.Config{Type: chart.TypeBar, Title: "Empty", Data: json.RawMessage(`[]`)}), chart.TypeBar)
	require.NoError(t, Text(&buf, inst, plain()))
	assert.Contains(t, buf.String(), render.NoDataMessage)
}

func TestMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Markdown(&buf, build(t, chart.TypeLine, viz.Key("total_sales"))))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "## Monthly Sales"))
	assert.Contains(t, out, "| Month |")
	assert.Contains(t, out, "- `")
}

func TestJSONAndYAML(t *testing.T) {
	inst := build(t, chart.TypeBar, viz.Key("total_sales"))

	var js bytes.Buffer
	require.NoError(t, JSON(&js, inst))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, "chart", decoded["kind"])

	var ym bytes.Buffer
	require.NoError(t, YAML(&ym, inst))
	assert.Contains(t, ym.String(), "kind: chart")
}

func TestHTML_AreaFill(t *testing.T) {
	page, ok := EChart(build(t, chart.TypeArea, viz.Key("total_sales")))
	require.True(t, ok)
	area, ok := page.(*charts.Line)
	require.True(t, ok)
	require.NotEmpty(t, area.MultiSeries)
	require.NotNil(t, area.MultiSeries[0].AreaStyle)
	assert.EqualValues(t, float32(0.3), area.MultiSeries[0].AreaStyle.Opacity)

	page, ok = EChart(build(t, chart.TypeLine, viz.Key("total_sales")))
	require.True(t, ok)
	line, ok := page.(*charts.Line)
	require.True(t, ok)
	assert.Nil(t, line.MultiSeries[0].AreaStyle)
}

func TestHTML_Charts(t *testing.T) {
	tests := []struct {
		typ  chart.Type
		yKey viz.YKey
	}{
		{chart.TypeBar, viz.Key("total_sales")},
		{chart.TypeLine, viz.Key("total_sales")},
		{chart.TypeArea, viz.Key("total_sales")},
		{chart.TypeScatter, viz.Key("total_sales")},
		{chart.TypeWaterfall, viz.Key("total_sales")},
		{chart.TypePie, viz.Key("total_sales")},
		{chart.TypeRadar, viz.Keys("total_sales", "orders")},
		{chart.TypeFunnel, viz.Key("total_sales")},
		{chart.TypeComposed, viz.Keys("total_sales", "orders")},
		{chart.TypeStackedBar, viz.Keys("total_sales", "orders")},
		{chart.TypeClusteredColumn, viz.Keys("total_sales", "orders")},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			inst := build(t, tt.typ, tt.yKey)
			_, ok := EChart(inst)
			require.True(t, ok)

			var buf bytes.Buffer
			require.NoError(t, HTML(&buf, inst))
			assert.Contains(t, buf.String(), "Monthly Sales")
			assert.Contains(t, buf.String(), "echarts")
		})
	}
}

func TestHTML_Fallback(t *testing.T) {
	inst := build(t, chart.TypeTable, viz.Key("total_sales"))
	_, ok := EChart(inst)
	assert.False(t, ok)

	var buf bytes.Buffer
	require.NoError(t, HTML(&buf, inst))
	assert.Contains(t, buf.String(), "<table>")
	assert.Contains(t, buf.String(), "<td>Jan</td>")

	buf.Reset()
	inst = render.Build(viz.Normalize(viz.Config{Type: chart.TypeError, Message: "<b>bad</b>"}), chart.TypeBar)
	require.NoError(t, HTML(&buf, inst))
	assert.Contains(t, buf.String(), "&lt;b&gt;bad&lt;/b&gt;")
}

func TestChartList(t *testing.T) {
	entries := recommend.RankRegistry([]chart.Type{chart.TypeLine, chart.TypeBar})

	assert.Equal(t, "recommended, current", Mark(entries[0], chart.TypeBar))
	assert.Equal(t, "★ AI pick", Mark(entries[1], chart.TypeBar))
	assert.Equal(t, "", Mark(entries[2], chart.TypeBar))

	var buf bytes.Buffer
	ChartList(&buf, entries, chart.TypeBar, plain())
	out := buf.String()
	assert.Contains(t, out, "★ AI pick")
	assert.Contains(t, out, "2 recommended")

	buf.Reset()
	ChartListMarkdown(&buf, entries, chart.TypeBar)
	assert.Contains(t, buf.String(), "| line |")
}
