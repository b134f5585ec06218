package viz

import (
	"encoding/json"
	"strings"

	"github.com/leapstack-labs/leapviz/pkg/chart"
)

// FallbackTitle is the title given to configs recovered from unreadable agent output.
const FallbackTitle = "Query Results"

var preferredCategoryKeys = []string{"name", "customer", "label", "category"}

// ParseAgentOutput reads a config from free-form model output. A surrounding
// markdown code fence is stripped. Output that is not valid JSON becomes a
// table config carrying the raw text, which normalizes to an opaque view.
func ParseAgentOutput(text string) Config {
	cleaned := stripCodeFence(text)

	var cfg Config
	if err := json.Unmarshal([]byte(cleaned), &cfg); err != nil {
		raw, _ := json.Marshal(text)
		return Config{Type: chart.TypeTable, Title: FallbackTitle, Data: raw}
	}
	return RepairKeys(cfg)
}

func stripCodeFence(text string) string {
	cleaned := strings.TrimSpace(text)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	lines := strings.Split(cleaned, "\n")
	end := len(lines)
	if end > 1 && strings.HasPrefix(strings.TrimSpace(lines[end-1]), "```") {
		end--
	}
	if end < 1 {
		end = 1
	}
	return strings.TrimSpace(strings.Join(lines[1:end], "\n"))
}

// RepairKeys returns a copy of cfg whose axis keys name columns that exist
// in its data. Configs without records are returned unchanged.
func RepairKeys(cfg Config) Config {
	out := cfg.Clone()
	n := Normalize(cfg)
	if n.Opaque || len(n.Rows()) == 0 {
		return out
	}
	first := n.Rows()[0]
	cols := n.Columns()

	if out.XKey != "" {
		if _, ok := first[out.XKey]; !ok {
			out.XKey = repairCategoryKey(first, cols, out.XKey)
		}
	}

	if out.YKey.IsMulti() && !keepsMultiKey(out.Type) {
		out.YKey = Key(out.YKey.Primary())
	}
	if !out.YKey.IsMulti() {
		if _, ok := first[out.YKey.Primary()]; !ok {
			for _, c := range cols {
				if IsNumeric(first[c]) {
					out.YKey = Key(c)
					break
				}
			}
		}
	}
	return out
}

func repairCategoryKey(first Record, cols []string, current string) string {
	for _, k := range preferredCategoryKeys {
		if _, ok := first[k]; ok {
			return k
		}
	}
	for _, c := range cols {
		if !IsNumeric(first[c]) {
			return c
		}
	}
	return current
}

func keepsMultiKey(t chart.Type) bool {
	d, ok := chart.Lookup(t)
	return ok && d.Multi
}
