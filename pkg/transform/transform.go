// Package transform derives plot-ready data from a normalized config. Every
// function here is pure: inputs are never modified and no state is kept.
package transform

import (
	"github.com/leapstack-labs/leapviz/pkg/chart"
	"github.com/leapstack-labs/leapviz/pkg/viz"
)

// Axis identifies which value axis a series is drawn against.
type Axis string

// Axes.
const (
	AxisPrimary   Axis = "primary"
	AxisSecondary Axis = "secondary"
)

// Series describes one plotted metric.
type Series struct {
	Key          string    `json:"key"`
	Color        string    `json:"color"`
	PaletteIndex int       `json:"paletteIndex"`
	Axis         Axis      `json:"axis"`
	Values       []float64 `json:"values,omitempty"`
	Labels       []string  `json:"labels,omitempty"`
}

// Result is the output of a derivation.
type Result struct {
	Derivation chart.Derivation `json:"derivation"`
	Rows       []viz.Record     `json:"rows"`
	Series     []Series         `json:"series,omitempty"`
	Steps      []Step           `json:"steps,omitempty"`
	Funnel     []FunnelStage    `json:"funnel,omitempty"`

	// SecondaryAxis is set when a dual-axis chart has metrics for both axes.
	SecondaryAxis bool   `json:"secondaryAxis,omitempty"`
	Hint          string `json:"hint,omitempty"`
}

type deriveFunc func(n viz.Normalized, keys []string) Result

var derivations = [chart.NumDerivations]deriveFunc{
	chart.DeriveNone:      deriveNone,
	chart.DeriveIdentity:  deriveIdentity,
	chart.DerivePercent:   derivePercent,
	chart.DeriveWaterfall: deriveWaterfall,
	chart.DeriveFunnel:    deriveFunnel,
	chart.DeriveDualAxis:  deriveDualAxis,
}

// Apply runs the derivation registered for d against n.
func Apply(n viz.Normalized, d chart.Descriptor) Result {
	if d.Derivation < 0 || d.Derivation >= chart.NumDerivations {
		return deriveNone(n, nil)
	}
	keys := n.MetricKeys(d.Multi)
	res := derivations[d.Derivation](n, keys)
	res.Derivation = d.Derivation
	return res
}

// SeriesFor assigns palette colors to keys in order.
func SeriesFor(keys []string) []Series {
	out := make([]Series, len(keys))
	for i, k := range keys {
		out[i] = Series{
			Key:          k,
			Color:        chart.PaletteColor(i),
			PaletteIndex: chart.PaletteIndex(i),
			Axis:         AxisPrimary,
		}
	}
	return out
}

func deriveNone(n viz.Normalized, _ []string) Result {
	return Result{Rows: copyRows(n.Rows())}
}

func deriveIdentity(n viz.Normalized, keys []string) Result {
	return Result{Rows: copyRows(n.Rows()), Series: SeriesFor(keys)}
}

func derivePercent(n viz.Normalized, keys []string) Result {
	return Result{Rows: Percent(n.Rows(), keys), Series: SeriesFor(keys)}
}

func copyRows(rows []viz.Record) []viz.Record {
	out := make([]viz.Record, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}
