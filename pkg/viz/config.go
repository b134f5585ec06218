// Package viz models the visualization descriptor attached to a query result
// and normalizes it into a shape the transform pipeline can rely on.
package viz

import (
	"encoding/json"
	"fmt"

	"github.com/leapstack-labs/leapviz/pkg/chart"
)

// Config is the visualization descriptor produced once per completed query.
// Data is kept raw: it may be an array of records, a single record, or a
// JSON-encoded string of either. Use Normalize to get at the rows.
type Config struct {
	Type              chart.Type      `json:"type"`
	Title             string          `json:"title"`
	XKey              string          `json:"xKey,omitempty"`
	YKey              YKey            `json:"yKey"`
	Data              json.RawMessage `json:"data,omitempty"`
	Message           string          `json:"message,omitempty"`
	RecommendedCharts []chart.Type    `json:"recommendedCharts,omitempty"`
}

// UnmarshalJSON accepts both recommendedCharts and the backend's
// recommended_charts spelling.
func (c *Config) UnmarshalJSON(b []byte) error {
	type plain Config
	var aux struct {
		plain
		RecommendedSnake []chart.Type `json:"recommended_charts"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*c = Config(aux.plain)
	if len(c.RecommendedCharts) == 0 && len(aux.RecommendedSnake) > 0 {
		c.RecommendedCharts = aux.RecommendedSnake
	}
	return nil
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	if c.Data != nil {
		out.Data = append(json.RawMessage(nil), c.Data...)
	}
	if c.RecommendedCharts != nil {
		out.RecommendedCharts = append([]chart.Type(nil), c.RecommendedCharts...)
	}
	out.YKey = c.YKey.clone()
	return out
}

// YKey is either a single column name or an ordered list of column names.
// It remembers which form it was given in.
type YKey struct {
	keys  []string
	multi bool
}

// Key returns a scalar YKey. An empty name yields the zero YKey.
func Key(name string) YKey {
	if name == "" {
		return YKey{}
	}
	return YKey{keys: []string{name}}
}

// Keys returns a multi-metric YKey.
func Keys(names ...string) YKey {
	return YKey{keys: append([]string{}, names...), multi: true}
}

// IsMulti reports whether the key was given as a sequence.
func (y YKey) IsMulti() bool { return y.multi }

// IsZero reports whether no key was given at all.
func (y YKey) IsZero() bool { return !y.multi && len(y.keys) == 0 }

// Names returns a copy of the key names.
func (y YKey) Names() []string {
	if y.keys == nil {
		return nil
	}
	return append([]string{}, y.keys...)
}

// Primary resolves the primary value key: the first element of a sequence,
// the scalar itself, or DefaultValueKey when neither is available.
func (y YKey) Primary() string {
	if len(y.keys) == 0 || y.keys[0] == "" {
		return DefaultValueKey
	}
	return y.keys[0]
}

func (y YKey) clone() YKey {
	return YKey{keys: y.Names(), multi: y.multi}
}

// MarshalJSON writes a sequence, a string, or null.
func (y YKey) MarshalJSON() ([]byte, error) {
	if y.multi {
		keys := y.keys
		if keys == nil {
			keys = []string{}
		}
		return json.Marshal(keys)
	}
	if len(y.keys) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(y.keys[0])
}

// UnmarshalJSON accepts a string, an array, or null. Non-string array
// elements are stringified rather than rejected.
func (y *YKey) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*y = YKey{}
	case string:
		*y = Key(x)
	case []any:
		keys := make([]string, 0, len(x))
		for _, e := range x {
			if s, ok := e.(string); ok {
				keys = append(keys, s)
				continue
			}
			if e != nil {
				keys = append(keys, fmt.Sprint(e))
			}
		}
		*y = YKey{keys: keys, multi: true}
	default:
		return fmt.Errorf("yKey must be a string or an array, got %T", v)
	}
	return nil
}
