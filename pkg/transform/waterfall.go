package transform

import (
	"github.com/leapstack-labs/leapviz/pkg/chart"
	"github.com/leapstack-labs/leapviz/pkg/viz"
)

// StepKind classifies a waterfall step.
type StepKind string

// Step kinds.
const (
	StepPositive StepKind = "positive"
	StepNegative StepKind = "negative"
	StepTotal    StepKind = "total"
)

// TotalLabel names the closing waterfall step.
const TotalLabel = "Total"

// Step is one floating bar of a waterfall. It spans Start to End.
type Step struct {
	Name  string   `json:"name"`
	Value float64  `json:"value"`
	Start float64  `json:"start"`
	End   float64  `json:"end"`
	Kind  StepKind `json:"kind"`
	Color string   `json:"color"`
}

// Low returns the lower edge of the bar.
func (s Step) Low() float64 { return min(s.Start, s.End) }

// High returns the upper edge of the bar.
func (s Step) High() float64 { return max(s.Start, s.End) }

// Waterfall accumulates valueKey across rows and appends a Total step.
func Waterfall(rows []viz.Record, categoryKey, valueKey string) []Step {
	steps := make([]Step, 0, len(rows)+1)
	var running float64
	for _, row := range rows {
		v := viz.NumberOr(row[valueKey], 0)
		s := Step{Name: viz.Text(row[categoryKey]), Value: v, Start: running}
		running += v
		s.End = running
		if v >= 0 {
			s.Kind, s.Color = StepPositive, chart.ColorPositive
		} else {
			s.Kind, s.Color = StepNegative, chart.ColorNegative
		}
		steps = append(steps, s)
	}
	return append(steps, Step{
		Name:  TotalLabel,
		Value: running,
		Start: 0,
		End:   running,
		Kind:  StepTotal,
		Color: chart.ColorTotal,
	})
}

func deriveWaterfall(n viz.Normalized, keys []string) Result {
	return Result{
		Rows:   copyRows(n.Rows()),
		Series: SeriesFor(keys),
		Steps:  Waterfall(n.Rows(), n.CategoryKey(), n.PrimaryKey()),
	}
}
