package render

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapviz/pkg/chart"
	"github.com/leapstack-labs/leapviz/pkg/transform"
	"github.com/leapstack-labs/leapviz/pkg/viz"
)

func norm(typ chart.Type, xKey string, yKey viz.YKey, data string) viz.Normalized {
	return viz.Normalize(viz.Config{Type: typ, Title: "T", XKey: xKey, YKey: yKey, Data: json.RawMessage(data)})
}

const salesData = `[{"month":"Jan","total_sales":120000,"growth":5},{"month":"Feb","total_sales":95000,"growth":-3}]`

func TestFamilies_Complete(t *testing.T) {
	for i, fn := range families {
		assert.NotNil(t, fn, "family %s has no renderer", chart.Family(i))
	}
}

func TestDispatch_Precedence(t *testing.T) {
	tests := []struct {
		name    string
		n       viz.Normalized
		current chart.Type
		want    Kind
		message string
	}{
		{
			name:    "error config ignores data and selection",
			n:       viz.Normalize(viz.Config{Type: chart.TypeError, Message: "SQL failed", Data: json.RawMessage(salesData)}),
			current: chart.TypeBar,
			want:    KindMessage,
			message: "SQL failed",
		},
		{
			name:    "error config without message",
			n:       viz.Normalize(viz.Config{Type: chart.TypeError}),
			current: chart.TypeBar,
			want:    KindMessage,
			message: DefaultErrorMessage,
		},
		{
			name:    "opaque text",
			n:       norm(chart.TypeBar, "", viz.YKey{}, `"oops, not json"`),
			current: chart.TypeBar,
			want:    KindText,
			message: "oops, not json",
		},
		{
			name:    "empty data on any family",
			n:       norm(chart.TypeFunnel, "", viz.YKey{}, `[]`),
			current: chart.TypeFunnel,
			want:    KindNoData,
			message: NoDataMessage,
		},
		{
			name:    "empty data with unknown type",
			n:       norm(chart.Type("heatmap"), "", viz.YKey{}, `null`),
			current: chart.Type("heatmap"),
			want:    KindNoData,
			message: NoDataMessage,
		},
		{
			name:    "unknown selection falls back to table",
			n:       norm(chart.TypeBar, "month", viz.Key("total_sales"), salesData),
			current: chart.Type("heatmap"),
			want:    KindTable,
		},
		{
			name:    "unset selection falls back to table",
			n:       norm(chart.TypeBar, "month", viz.Key("total_sales"), salesData),
			current: "",
			want:    KindTable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Build(tt.n, tt.current)
			assert.Equal(t, tt.want, in.Kind)
			if tt.message != "" {
				assert.Equal(t, tt.message, in.Message)
			}
			if tt.want == KindTable {
				require.NotNil(t, in.Table)
				assert.Equal(t, chart.TypeTable, in.Type)
			}
		})
	}
}

func TestBuild_EverySelectableType(t *testing.T) {
	n := norm(chart.TypeBar, "month", viz.Keys("total_sales", "growth"), salesData)
	for _, d := range chart.Selectable() {
		t.Run(string(d.Value), func(t *testing.T) {
			in := Build(n, d.Value)
			assert.Equal(t, d.Family, in.Family)
			if d.Family == chart.FamilyTabular {
				assert.Equal(t, KindTable, in.Kind)
				return
			}
			assert.Equal(t, KindChart, in.Kind)
			assert.Equal(t, "Month", in.CategoryLabel)
			assert.NotEmpty(t, in.Series)
		})
	}
}

func TestBuild_ComposedEndToEnd(t *testing.T) {
	n := norm(chart.TypeComposed, "month", viz.Keys("total_sales", "growth"), salesData)
	in := Build(n, chart.TypeComposed)

	require.Equal(t, KindChart, in.Kind)
	assert.Equal(t, chart.FamilyCartesianClustered, in.Family)
	assert.Equal(t, []string{"Jan", "Feb"}, in.Categories)
	assert.Equal(t, "Total Sales", in.ValueLabel)
	assert.Equal(t, "Growth", in.SecondaryLabel)

	require.Len(t, in.Series, 2)
	assert.Equal(t, transform.AxisPrimary, in.Series[0].Axis)
	assert.Equal(t, []string{"120.0K", "95.0K"}, in.Series[0].Labels)
	assert.Equal(t, transform.AxisSecondary, in.Series[1].Axis)
	assert.Equal(t, []string{"5.0%", "-3.0%"}, in.Series[1].Labels)
	assert.Equal(t, chart.Palette[0], in.Series[0].Color)
	assert.Equal(t, chart.Palette[1], in.Series[1].Color)
}

func TestBuild_Stacked(t *testing.T) {
	n := norm(chart.TypeStacked100, "cat", viz.Keys("x", "y"), `[{"cat":"A","x":10,"y":30}]`)

	in := Build(n, chart.TypeStacked100)
	assert.True(t, in.Stacked)
	assert.True(t, in.Percent)
	assert.Equal(t, 25.0, in.Data.Rows[0]["x"])

	in = Build(n, chart.TypeStackedBar)
	assert.True(t, in.Stacked)
	assert.False(t, in.Percent)
	assert.Equal(t, chart.Horizontal, in.Orientation)
	assert.Equal(t, 10.0, in.Data.Rows[0]["x"])
}

func TestBuild_Pie(t *testing.T) {
	n := norm(chart.TypePie, "name", viz.Key("value"), `[{"name":"A","value":2},{"name":"B","value":"x"}]`)
	in := Build(n, chart.TypePie)
	require.Len(t, in.Slices, 2)
	assert.Equal(t, Slice{Name: "A", Value: 2, Color: chart.Palette[0]}, in.Slices[0])
	assert.Equal(t, 0.0, in.Slices[1].Value)
}

func TestBuild_Funnel(t *testing.T) {
	n := norm(chart.TypeFunnel, "stage", viz.Key("n"), `[{"stage":"visit","n":3},{"stage":"lead","n":9},{"stage":"won","n":1}]`)
	in := Build(n, chart.TypeFunnel)
	assert.Equal(t, []string{"lead", "visit", "won"}, in.Categories)
	require.Len(t, in.Data.Funnel, 3)
}

func TestBuild_Waterfall(t *testing.T) {
	n := norm(chart.TypeWaterfall, "", viz.YKey{}, `[{"name":"a","value":5},{"name":"b","value":-3},{"name":"c","value":2}]`)
	in := Build(n, chart.TypeWaterfall)
	require.Len(t, in.Data.Steps, 4)
	assert.Equal(t, 4.0, in.Data.Steps[3].End)
}

func TestTable(t *testing.T) {
	n := norm(chart.TypeBar, "", viz.YKey{}, `[{"order_id":1,"note":null},{"order_id":2.5,"note":"late"}]`)
	tv := Table(n)

	assert.Equal(t, []string{"order_id", "note"}, tv.Columns)
	assert.Equal(t, []string{"Order Id", "Note"}, tv.Headers)
	assert.Equal(t, [][]string{{"1", NullText}, {"2.5", "late"}}, tv.Rows)
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Total Revenue", Humanize("total_revenue"))
	assert.Equal(t, "Month", Humanize("month"))
	assert.Equal(t, "Avg Order Value", Humanize("avg-order  value"))
}
