package transform

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapviz/pkg/chart"
	"github.com/leapstack-labs/leapviz/pkg/viz"
)

func normalized(t *testing.T, typ chart.Type, xKey string, yKey viz.YKey, data string) viz.Normalized {
	t.Helper()
	n := viz.Normalize(viz.Config{Type: typ, XKey: xKey, YKey: yKey, Data: json.RawMessage(data)})
	require.False(t, n.Opaque)
	return n
}

func descriptor(t *testing.T, typ chart.Type) chart.Descriptor {
	t.Helper()
	d, ok := chart.Lookup(typ)
	require.True(t, ok)
	return d
}

func TestDerivations_Complete(t *testing.T) {
	for i, fn := range derivations {
		assert.NotNil(t, fn, "derivation %s has no function", chart.Derivation(i))
	}
}

func TestApply_EveryRegistryType(t *testing.T) {
	n := normalized(t, chart.TypeBar, "cat", viz.Keys("x", "y"), `[{"cat":"A","x":10,"y":30},{"cat":"B","x":0,"y":0}]`)
	for _, d := range chart.Registry() {
		t.Run(string(d.Value), func(t *testing.T) {
			res := Apply(n, d)
			assert.Equal(t, d.Derivation, res.Derivation)
			assert.Len(t, res.Rows, 2)
			if d.Derivation == chart.DeriveNone {
				assert.Empty(t, res.Series)
			} else {
				assert.NotEmpty(t, res.Series)
			}
		})
	}
}

func TestPercent(t *testing.T) {
	rows := []viz.Record{
		{"cat": "A", "x": 10.0, "y": 30.0},
		{"cat": "B", "x": 0.0, "y": 0.0},
		{"cat": "C", "x": "n/a", "y": 5.0},
	}
	got := Percent(rows, []string{"x", "y"})

	assert.Equal(t, viz.Record{"cat": "A", "x": 25.0, "y": 75.0}, got[0])
	assert.Equal(t, viz.Record{"cat": "B", "x": 0.0, "y": 0.0}, got[1])
	assert.Equal(t, viz.Record{"cat": "C", "x": 0.0, "y": 100.0}, got[2])

	assert.Equal(t, 10.0, rows[0]["x"], "input must not be modified")
}

func TestApply_Stacked100(t *testing.T) {
	n := normalized(t, chart.TypeStacked100, "cat", viz.Keys("x", "y"), `[{"cat":"A","x":10,"y":30}]`)
	res := Apply(n, descriptor(t, chart.TypeStacked100))
	require.Len(t, res.Rows, 1)
	assert.Equal(t, viz.Record{"cat": "A", "x": 25.0, "y": 75.0}, res.Rows[0])
	require.Len(t, res.Series, 2)
	assert.Equal(t, chart.Palette[0], res.Series[0].Color)
	assert.Equal(t, chart.Palette[1], res.Series[1].Color)
}

func TestWaterfall(t *testing.T) {
	rows := []viz.Record{
		{"name": "Q1", "value": 5.0},
		{"name": "Q2", "value": -3.0},
		{"name": "Q3", "value": 2.0},
	}
	steps := Waterfall(rows, "name", "value")
	require.Len(t, steps, 4)

	want := []struct {
		name       string
		start, end float64
		kind       StepKind
	}{
		{"Q1", 0, 5, StepPositive},
		{"Q2", 5, 2, StepNegative},
		{"Q3", 2, 4, StepPositive},
		{TotalLabel, 0, 4, StepTotal},
	}
	for i, w := range want {
		assert.Equal(t, w.name, steps[i].Name)
		assert.Equal(t, w.start, steps[i].Start)
		assert.Equal(t, w.end, steps[i].End)
		assert.Equal(t, w.kind, steps[i].Kind)
	}
	assert.Equal(t, 4.0, steps[3].Value)
	assert.Equal(t, chart.ColorNegative, steps[1].Color)
	assert.Equal(t, chart.ColorTotal, steps[3].Color)
	assert.Equal(t, 2.0, steps[1].Low())
	assert.Equal(t, 5.0, steps[1].High())
}

func TestWaterfall_Empty(t *testing.T) {
	steps := Waterfall(nil, "name", "value")
	require.Len(t, steps, 1)
	assert.Equal(t, StepTotal, steps[0].Kind)
	assert.Equal(t, 0.0, steps[0].Value)
}

func TestFunnel(t *testing.T) {
	rows := []viz.Record{
		{"stage": "a", "n": 3.0},
		{"stage": "b", "n": 9.0},
		{"stage": "c", "n": 1.0},
	}
	got := Funnel(rows, "stage", "n")

	var values []float64
	for _, s := range got {
		values = append(values, s.Value)
	}
	assert.Equal(t, []float64{9, 3, 1}, values)
	assert.Equal(t, chart.Palette[1], got[0].Color, "color follows input position")
	assert.Equal(t, chart.Palette[0], got[1].Color)
}

func TestFunnel_TiesKeepInputOrder(t *testing.T) {
	rows := []viz.Record{
		{"name": "first", "value": 4.0},
		{"name": "second", "value": 4.0},
		{"name": "missing"},
		{"name": "third", "value": 4.0},
	}
	got := Funnel(rows, "name", "value")

	require.Len(t, got, 4)
	assert.Equal(t, "first", got[0].Name)
	assert.Equal(t, chart.Palette[0], got[0].Color)
	assert.Equal(t, "second", got[1].Name)
	assert.Equal(t, chart.Palette[1], got[1].Color)
	assert.Equal(t, "third", got[2].Name)
	assert.Equal(t, chart.Palette[3], got[2].Color)
	assert.Equal(t, "missing", got[3].Name)
	assert.Equal(t, 0.0, got[3].Value)
}

func TestFormatTicks(t *testing.T) {
	tests := []struct {
		v         float64
		primary   string
		secondary string
	}{
		{120000, "120.0K", "120.0K"},
		{95000, "95.0K", "95.0K"},
		{2500000, "2.5M", "2.5M"},
		{-4200, "-4.2K", "-4.2K"},
		{5, "5", "5.0%"},
		{-3, "-3", "-3.0%"},
		{100, "100", "100.0%"},
		{450, "450", "450"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.primary, FormatPrimary(tt.v), "primary %v", tt.v)
		assert.Equal(t, tt.secondary, FormatSecondary(tt.v), "secondary %v", tt.v)
	}
}

func TestApply_DualAxis(t *testing.T) {
	n := normalized(t, chart.TypeComposed, "month", viz.Keys("sales", "growth"),
		`[{"month":"Jan","sales":120000,"growth":5},{"month":"Feb","sales":95000,"growth":-3}]`)
	res := Apply(n, descriptor(t, chart.TypeComposed))

	require.Len(t, res.Series, 2)
	assert.True(t, res.SecondaryAxis)
	assert.Empty(t, res.Hint)

	assert.Equal(t, AxisPrimary, res.Series[0].Axis)
	assert.Equal(t, []string{"120.0K", "95.0K"}, res.Series[0].Labels)
	assert.Equal(t, AxisSecondary, res.Series[1].Axis)
	assert.Equal(t, []string{"5.0%", "-3.0%"}, res.Series[1].Labels)
	assert.Equal(t, []float64{5, -3}, res.Series[1].Values)
}

func TestApply_DualAxisSingleMetric(t *testing.T) {
	n := normalized(t, chart.TypeComposed, "month", viz.Key("sales"), `[{"month":"Jan","sales":1}]`)
	res := Apply(n, descriptor(t, chart.TypeComposed))

	require.Len(t, res.Series, 1)
	assert.False(t, res.SecondaryAxis)
	assert.Equal(t, SingleMetricHint, res.Hint)
}

func TestApply_SingleFamilyUsesPrimaryKeyOnly(t *testing.T) {
	n := normalized(t, chart.TypeBar, "cat", viz.Keys("x", "y"), `[{"cat":"A","x":1,"y":2}]`)
	res := Apply(n, descriptor(t, chart.TypeBar))
	require.Len(t, res.Series, 1)
	assert.Equal(t, "x", res.Series[0].Key)
}

func TestSeriesFor_PaletteWraps(t *testing.T) {
	keys := make([]string, 10)
	for i := range keys {
		keys[i] = string(rune('a' + i))
	}
	s := SeriesFor(keys)
	assert.Equal(t, 0, s[8].PaletteIndex)
	assert.Equal(t, chart.Palette[1], s[9].Color)
}
