package transform

import (
	"sort"

	"github.com/leapstack-labs/leapviz/pkg/chart"
	"github.com/leapstack-labs/leapviz/pkg/viz"
)

// FunnelStage is one band of a funnel.
type FunnelStage struct {
	Name         string  `json:"name"`
	Value        float64 `json:"value"`
	Color        string  `json:"color"`
	PaletteIndex int     `json:"paletteIndex"`
}

// Funnel builds stages colored by their input position, then orders them by
// value, largest first. Equal values keep their input order.
func Funnel(rows []viz.Record, categoryKey, valueKey string) []FunnelStage {
	stages := make([]FunnelStage, len(rows))
	for i, row := range rows {
		stages[i] = FunnelStage{
			Name:         viz.Text(row[categoryKey]),
			Value:        viz.NumberOr(row[valueKey], 0),
			Color:        chart.PaletteColor(i),
			PaletteIndex: chart.PaletteIndex(i),
		}
	}
	sort.SliceStable(stages, func(i, j int) bool {
		return stages[i].Value > stages[j].Value
	})
	return stages
}

func deriveFunnel(n viz.Normalized, keys []string) Result {
	return Result{
		Rows:   copyRows(n.Rows()),
		Series: SeriesFor(keys),
		Funnel: Funnel(n.Rows(), n.CategoryKey(), n.PrimaryKey()),
	}
}
