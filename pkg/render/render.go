// Package render turns a normalized config and its derived data into a
// render instruction for whatever drawing surface the host provides.
package render

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapviz/pkg/chart"
	"github.com/leapstack-labs/leapviz/pkg/transform"
	"github.com/leapstack-labs/leapviz/pkg/viz"
)

// Kind selects the view a host should show.
type Kind string

// Instruction kinds.
const (
	KindMessage Kind = "message"
	KindText    Kind = "text"
	KindNoData  Kind = "no-data"
	KindTable   Kind = "table"
	KindChart   Kind = "chart"
)

// Placeholder texts.
const (
	NoDataMessage       = "No data available"
	DefaultErrorMessage = "Something went wrong while preparing this chart"
)

// Slice is one wedge of a pie chart.
type Slice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// Instruction is everything a drawing primitive needs to show the current
// selection.
type Instruction struct {
	Kind    Kind       `json:"kind"`
	Type    chart.Type `json:"type,omitempty"`
	Title   string     `json:"title,omitempty"`
	Message string     `json:"message,omitempty"`

	Family      chart.Family      `json:"family"`
	Orientation chart.Orientation `json:"orientation,omitempty"`
	Stacked     bool              `json:"stacked,omitempty"`
	Percent     bool              `json:"percent,omitempty"`

	CategoryKey    string `json:"categoryKey,omitempty"`
	CategoryLabel  string `json:"categoryLabel,omitempty"`
	ValueLabel     string `json:"valueLabel,omitempty"`
	SecondaryLabel string `json:"secondaryLabel,omitempty"`

	Categories []string           `json:"categories,omitempty"`
	Series     []transform.Series `json:"series,omitempty"`
	Slices     []Slice            `json:"slices,omitempty"`
	Data       transform.Result   `json:"data"`

	Table *TableView `json:"table,omitempty"`
}

type familyRenderer func(in Instruction, n viz.Normalized, d chart.Descriptor) Instruction

var families = [chart.NumFamilies]familyRenderer{
	chart.FamilyCartesianSingle:    renderCartesianSingle,
	chart.FamilyCartesianStacked:   renderCartesianStacked,
	chart.FamilyCartesianClustered: renderCartesianClustered,
	chart.FamilyRadialPie:          renderPie,
	chart.FamilyRadialRadar:        renderRadar,
	chart.FamilyFunnel:             renderFunnel,
	chart.FamilyTabular:            renderTabular,
}

// Build derives the data for current and dispatches it.
func Build(n viz.Normalized, current chart.Type) Instruction {
	var data transform.Result
	if d, ok := chart.Lookup(current); ok && n.Type != chart.TypeError && !n.Opaque {
		data = transform.Apply(n, d)
	}
	return Dispatch(n, data, current)
}

// Dispatch picks the view for n under the current selection. Error configs,
// opaque data and empty data are handled before the chart type is looked at;
// an unknown or unset selection falls back to the table view.
func Dispatch(n viz.Normalized, data transform.Result, current chart.Type) Instruction {
	in := Instruction{Title: n.Title, Type: current}

	switch {
	case n.Type == chart.TypeError:
		in.Kind = KindMessage
		in.Type = chart.TypeError
		in.Message = n.Message
		if in.Message == "" {
			in.Message = DefaultErrorMessage
		}
		return in
	case n.Opaque:
		in.Kind = KindText
		in.Message = n.Raw
		return in
	case n.Empty():
		in.Kind = KindNoData
		in.Message = NoDataMessage
		return in
	}

	d, ok := chart.Lookup(current)
	if !ok || d.Family < 0 || d.Family >= chart.NumFamilies {
		in.Type = chart.TypeTable
		return renderTabular(in, n, chart.Descriptor{Value: chart.TypeTable, Family: chart.FamilyTabular})
	}

	in.Family = d.Family
	in.Orientation = d.Orientation
	in.Data = data
	in.Series = data.Series
	in.CategoryKey = n.CategoryKey()
	in.CategoryLabel = Humanize(in.CategoryKey)
	in.ValueLabel = Humanize(n.PrimaryKey())
	in.Categories = categories(n)
	return families[d.Family](in, n, d)
}

func renderCartesianSingle(in Instruction, _ viz.Normalized, _ chart.Descriptor) Instruction {
	in.Kind = KindChart
	return in
}

func renderCartesianStacked(in Instruction, _ viz.Normalized, d chart.Descriptor) Instruction {
	in.Kind = KindChart
	in.Stacked = true
	if d.Derivation == chart.DerivePercent {
		in.Percent = true
		in.ValueLabel = "Percent"
	}
	return in
}

func renderCartesianClustered(in Instruction, _ viz.Normalized, d chart.Descriptor) Instruction {
	in.Kind = KindChart
	if d.Derivation == chart.DeriveDualAxis && len(in.Series) > 1 {
		in.SecondaryLabel = Humanize(in.Series[1].Key)
	}
	return in
}

func renderPie(in Instruction, n viz.Normalized, _ chart.Descriptor) Instruction {
	in.Kind = KindChart
	key := n.PrimaryKey()
	in.Slices = make([]Slice, len(n.Rows()))
	for i, row := range n.Rows() {
		in.Slices[i] = Slice{
			Name:  viz.Text(row[in.CategoryKey]),
			Value: viz.NumberOr(row[key], 0),
			Color: chart.PaletteColor(i),
		}
	}
	return in
}

func renderRadar(in Instruction, _ viz.Normalized, _ chart.Descriptor) Instruction {
	in.Kind = KindChart
	return in
}

func renderFunnel(in Instruction, _ viz.Normalized, _ chart.Descriptor) Instruction {
	in.Kind = KindChart
	in.Categories = make([]string, len(in.Data.Funnel))
	for i, s := range in.Data.Funnel {
		in.Categories[i] = s.Name
	}
	return in
}

func renderTabular(in Instruction, n viz.Normalized, _ chart.Descriptor) Instruction {
	in.Kind = KindTable
	in.Family = chart.FamilyTabular
	t := Table(n)
	in.Table = &t
	return in
}

func categories(n viz.Normalized) []string {
	key := n.CategoryKey()
	out := make([]string, len(n.Rows()))
	for i, row := range n.Rows() {
		out[i] = viz.Text(row[key])
	}
	return out
}

// Humanize turns a column key such as total_revenue into "Total Revenue".
func Humanize(key string) string {
	s := strings.NewReplacer("_", " ", "-", " ").Replace(key)
	return cases.Title(language.English).String(strings.Join(strings.Fields(s), " "))
}
