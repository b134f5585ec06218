package transform

import "github.com/leapstack-labs/leapviz/pkg/viz"

// Percent rescales each row so that keys sum to 100. Missing or non-numeric
// values count as 0, and a row whose total is not positive becomes all zeros.
// Other keys and row order are kept.
func Percent(rows []viz.Record, keys []string) []viz.Record {
	out := make([]viz.Record, len(rows))
	for i, row := range rows {
		var total float64
		for _, k := range keys {
			total += viz.NumberOr(row[k], 0)
		}

		r := row.Clone()
		for _, k := range keys {
			if total > 0 {
				r[k] = viz.NumberOr(row[k], 0) / total * 100
			} else {
				r[k] = 0.0
			}
		}
		out[i] = r
	}
	return out
}
