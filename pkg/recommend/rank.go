// Package recommend orders chart choices for a result and derives the
// recommended list from the question and the shape of the data.
package recommend

import "github.com/leapstack-labs/leapviz/pkg/chart"

// Entry is a selector entry annotated with its recommendation flags.
type Entry struct {
	chart.Descriptor
	Recommended bool `json:"recommended"`
	AIPick      bool `json:"aiPick"`
}

// Rank moves recommended descriptors ahead of the rest, keeping the input's
// relative order inside both groups. The descriptor matching recommended[0]
// is flagged as the AI pick.
func Rank(descs []chart.Descriptor, recommended []chart.Type) []Entry {
	set := make(map[chart.Type]bool, len(recommended))
	for _, t := range recommended {
		set[t] = true
	}
	var pick chart.Type
	if len(recommended) > 0 {
		pick = recommended[0]
	}

	out := make([]Entry, 0, len(descs))
	for _, d := range descs {
		if set[d.Value] {
			out = append(out, Entry{Descriptor: d, Recommended: true, AIPick: d.Value == pick})
		}
	}
	for _, d := range descs {
		if !set[d.Value] {
			out = append(out, Entry{Descriptor: d})
		}
	}
	return out
}

// RankRegistry ranks the selectable registry entries.
func RankRegistry(recommended []chart.Type) []Entry {
	return Rank(chart.Selectable(), recommended)
}

// Descriptors strips the flags from entries.
func Descriptors(entries []Entry) []chart.Descriptor {
	out := make([]chart.Descriptor, len(entries))
	for i, e := range entries {
		out[i] = e.Descriptor
	}
	return out
}
