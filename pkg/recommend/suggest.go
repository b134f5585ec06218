package recommend

import (
	"slices"
	"strings"

	"github.com/leapstack-labs/leapviz/pkg/chart"
	"github.com/leapstack-labs/leapviz/pkg/viz"
)

type keywordRule struct {
	typ      chart.Type
	keywords []string
}

// Checked in order; the first rule with a matching keyword wins.
var overrideRules = []keywordRule{
	{chart.TypePie, []string{"percentage", "distribution", "proportion", "share", "breakdown"}},
	{chart.TypeLine, []string{"trend", "over time", "monthly", "daily", "yearly", "weekly", "timeline"}},
	{chart.TypeArea, []string{"cumulative", "running total", "stacked"}},
	{chart.TypeScatter, []string{"correlation", "relationship between", "price vs", "vs rating"}},
	{chart.TypeRadar, []string{"compare", "multiple metrics", "price, rating", "rating, stock", "price and rating and"}},
	{chart.TypeComposed, []string{"sales and orders", "revenue and count", "amount and number"}},
}

var (
	timeKeywords       = []string{"trend", "time", "monthly", "daily", "yearly"}
	cumulativeKeywords = []string{"cumulative", "total", "stacked"}
)

// Suggestion is the outcome of Suggest.
type Suggestion struct {
	Config viz.Config
	// Overridden is set when the config's type was replaced; From holds
	// the type it had before.
	Overridden bool
	From       chart.Type
}

// Suggest adjusts a bar or line config to the question and the data, and
// fills in its recommended charts. The input is not modified.
func Suggest(question string, cfg viz.Config) Suggestion {
	out := cfg.Clone()
	q := strings.ToLower(question)
	n := viz.Normalize(cfg)

	var override chart.Type
	for _, r := range overrideRules {
		if containsAny(q, r.keywords) {
			override = r.typ
			break
		}
	}

	var numeric []string
	if !n.Opaque && len(n.Rows()) > 0 {
		numeric = numericColumns(n.Dataset)
		switch {
		case len(numeric) >= 3 && isBarOrLine(out.Type):
			if override == "" {
				override = chart.TypeRadar
				out.YKey = viz.Keys(numeric...)
			}
		case len(numeric) == 2 && out.Type == chart.TypeBar:
			if override == "" && strings.Contains(q, "and") {
				override = chart.TypeComposed
				out.YKey = viz.Keys(numeric...)
			}
		}
	}

	s := Suggestion{From: cfg.Type}
	if override != "" && isBarOrLine(out.Type) {
		out.Type = override
		s.Overridden = true
	}

	out.RecommendedCharts = recommended(q, out.Type, n, numeric)
	s.Config = out
	return s
}

func recommended(q string, typ chart.Type, n viz.Normalized, numeric []string) []chart.Type {
	if typ == "" {
		typ = chart.TypeBar
	}
	list := []chart.Type{typ}
	add := func(t chart.Type, ok bool) {
		if ok && !slices.Contains(list, t) {
			list = append(list, t)
		}
	}

	if n.Opaque || len(n.Rows()) == 0 {
		return list
	}
	rows := len(n.Rows())
	cols := len(n.Rows()[0])
	num := len(numeric)

	add(chart.TypeBar, num >= 1)
	add(chart.TypeTable, cols >= 4)
	add(chart.TypeRadar, num >= 3)
	add(chart.TypeComposed, num == 2)
	add(chart.TypeLine, containsAny(q, timeKeywords))
	add(chart.TypePie, num == 1 && rows <= 10)
	add(chart.TypeArea, containsAny(q, cumulativeKeywords))
	add(chart.TypeScatter, num >= 2)
	add(chart.TypeStackedColumn, num >= 2)
	add(chart.TypeClusteredColumn, num >= 2)
	add(chart.TypeStacked100, num >= 2 && rows <= 15)
	return list
}

// BuildConfig assembles a config for a raw dataset: the first non-numeric
// column becomes the category axis and the numeric columns the metrics.
func BuildConfig(question string, ds viz.Dataset) (viz.Config, error) {
	data, err := ds.MarshalRecords()
	if err != nil {
		return viz.Config{}, err
	}
	title := strings.TrimSpace(question)
	if title == "" {
		title = viz.FallbackTitle
	}
	cfg := viz.Config{Type: chart.TypeBar, Title: title, Data: data}

	if len(ds.Records) == 0 {
		cfg.Type = chart.TypeTable
		return Suggest(question, cfg).Config, nil
	}

	numeric := numericColumns(ds)
	first := ds.Records[0]
	for _, c := range ds.Columns {
		if !viz.IsNumeric(first[c]) {
			cfg.XKey = c
			break
		}
	}

	switch len(numeric) {
	case 0:
		cfg.Type = chart.TypeTable
	case 1:
		cfg.YKey = viz.Key(numeric[0])
	default:
		cfg.YKey = viz.Keys(numeric...)
	}
	return Suggest(question, cfg).Config, nil
}

func numericColumns(ds viz.Dataset) []string {
	if len(ds.Records) == 0 {
		return nil
	}
	first := ds.Records[0]
	var out []string
	for _, c := range ds.Columns {
		if viz.IsNumeric(first[c]) {
			out = append(out, c)
		}
	}
	return out
}

func isBarOrLine(t chart.Type) bool {
	return t == chart.TypeBar || t == chart.TypeLine
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
