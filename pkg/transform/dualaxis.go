package transform

import (
	"fmt"
	"math"

	"github.com/leapstack-labs/leapviz/pkg/viz"
)

// SingleMetricHint is attached to dual-axis results that only have one metric.
const SingleMetricHint = "Add a second metric to compare on a secondary axis"

// FormatPrimary formats a primary-axis tick: millions as M, thousands as K,
// anything smaller without decimals.
func FormatPrimary(v float64) string {
	if s, ok := formatMagnitude(v); ok {
		return s
	}
	return fmt.Sprintf("%.0f", v)
}

// FormatSecondary formats a secondary-axis tick. Values within [-100, 100]
// are taken to be percentages.
func FormatSecondary(v float64) string {
	if s, ok := formatMagnitude(v); ok {
		return s
	}
	if math.Abs(v) <= 100 {
		return fmt.Sprintf("%.1f%%", v)
	}
	return fmt.Sprintf("%.0f", v)
}

func formatMagnitude(v float64) (string, bool) {
	switch a := math.Abs(v); {
	case a >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6), true
	case a >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3), true
	}
	return "", false
}

func deriveDualAxis(n viz.Normalized, keys []string) Result {
	res := Result{Rows: copyRows(n.Rows()), Series: SeriesFor(keys)}
	rows := n.Rows()
	for i := range res.Series {
		s := &res.Series[i]
		format := FormatPrimary
		if i > 0 {
			s.Axis = AxisSecondary
			format = FormatSecondary
		}
		s.Values = make([]float64, len(rows))
		s.Labels = make([]string, len(rows))
		for j, row := range rows {
			v := viz.NumberOr(row[s.Key], 0)
			s.Values[j] = v
			s.Labels[j] = format(v)
		}
	}
	res.SecondaryAxis = len(keys) > 1
	if !res.SecondaryAxis {
		res.Hint = SingleMetricHint
	}
	return res
}
