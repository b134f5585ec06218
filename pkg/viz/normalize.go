package viz

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/leapstack-labs/leapviz/pkg/chart"
)

// Defaults used when a config omits its axis keys.
const (
	DefaultCategoryKey = "name"
	DefaultValueKey    = "value"
)

// Normalized is a Config whose data has been decoded into a Dataset, or
// marked opaque when it could not be.
type Normalized struct {
	Type              chart.Type   `json:"type"`
	Title             string       `json:"title"`
	XKey              string       `json:"xKey,omitempty"`
	YKey              YKey         `json:"yKey"`
	Message           string       `json:"message,omitempty"`
	RecommendedCharts []chart.Type `json:"recommendedCharts,omitempty"`
	Dataset           Dataset      `json:"dataset"`

	// Opaque is set when the data could not be read as records. Raw then
	// holds the text to show verbatim.
	Opaque bool   `json:"opaque,omitempty"`
	Raw    string `json:"raw,omitempty"`
}

// Normalize decodes cfg.Data into a Dataset. It never fails and never
// mutates cfg: undecodable data yields an opaque Normalized.
func Normalize(cfg Config) Normalized {
	n := Normalized{
		Type:    cfg.Type,
		Title:   cfg.Title,
		XKey:    cfg.XKey,
		YKey:    cfg.YKey.clone(),
		Message: cfg.Message,
		Dataset: Dataset{Records: []Record{}},
	}
	if cfg.RecommendedCharts != nil {
		n.RecommendedCharts = append([]chart.Type{}, cfg.RecommendedCharts...)
	}

	raw := bytes.TrimSpace(cfg.Data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return n
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return n.opaque(string(raw))
		}
		inner := strings.TrimSpace(s)
		if inner == "null" {
			return n
		}
		ds, err := decodeDataset([]byte(inner))
		if err != nil {
			return n.opaque(s)
		}
		n.Dataset = ds
		return n
	}

	ds, err := decodeDataset(raw)
	if err != nil {
		return n.opaque(string(raw))
	}
	n.Dataset = ds
	return n
}

func (n Normalized) opaque(text string) Normalized {
	n.Opaque = true
	n.Raw = text
	n.Dataset = Dataset{Records: []Record{}}
	return n
}

// Rows returns the decoded records.
func (n Normalized) Rows() []Record { return n.Dataset.Records }

// Columns returns the column order of the decoded records.
func (n Normalized) Columns() []string { return n.Dataset.Columns }

// Empty reports whether there is nothing to plot. Opaque data is not empty.
func (n Normalized) Empty() bool { return !n.Opaque && len(n.Dataset.Records) == 0 }

// PrimaryKey returns the first metric key, defaulting to "value".
func (n Normalized) PrimaryKey() string { return n.YKey.Primary() }

// CategoryKey returns the category axis key, defaulting to "name".
func (n Normalized) CategoryKey() string {
	if n.XKey == "" {
		return DefaultCategoryKey
	}
	return n.XKey
}

// MetricKeys returns the keys to plot. Single-metric families only get the
// primary key; multi-metric families get the whole sequence.
func (n Normalized) MetricKeys(multi bool) []string {
	if !multi || !n.YKey.IsMulti() {
		return []string{n.PrimaryKey()}
	}
	keys := n.YKey.Names()
	if len(keys) == 0 {
		return []string{n.PrimaryKey()}
	}
	return keys
}

// AIPick returns the first recommended chart, or the config's own type when
// nothing was recommended.
func (n Normalized) AIPick() chart.Type {
	if len(n.RecommendedCharts) > 0 {
		return n.RecommendedCharts[0]
	}
	return n.Type
}
