package viz

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/leapviz/pkg/chart"
)

func TestParseAgentOutput(t *testing.T) {
	t.Run("fenced json", func(t *testing.T) {
		text := "```json\n{\"type\":\"bar\",\"title\":\"T\",\"xKey\":\"name\",\"yKey\":\"value\",\"data\":[{\"name\":\"a\",\"value\":1}]}\n```"
		cfg := ParseAgentOutput(text)
		assert.Equal(t, chart.TypeBar, cfg.Type)
		assert.Equal(t, "T", cfg.Title)
		assert.Equal(t, "value", cfg.YKey.Primary())
	})

	t.Run("plain json", func(t *testing.T) {
		cfg := ParseAgentOutput(`  {"type":"pie","title":"P","data":[]}  `)
		assert.Equal(t, chart.TypePie, cfg.Type)
	})

	t.Run("not json", func(t *testing.T) {
		cfg := ParseAgentOutput("Sorry, I could not chart that.")
		assert.Equal(t, chart.TypeTable, cfg.Type)
		assert.Equal(t, FallbackTitle, cfg.Title)

		n := Normalize(cfg)
		assert.True(t, n.Opaque)
		assert.Equal(t, "Sorry, I could not chart that.", n.Raw)
	})
}

func TestRepairKeys(t *testing.T) {
	data := json.RawMessage(`[{"region":"EU","customer":"acme","revenue":10,"orders":3}]`)

	tests := []struct {
		name      string
		cfg       Config
		wantX     string
		wantY     []string
		wantMulti bool
	}{
		{
			name:  "preferred category key",
			cfg:   Config{Type: chart.TypeBar, XKey: "client", YKey: Key("revenue"), Data: data},
			wantX: "customer", wantY: []string{"revenue"},
		},
		{
			name:  "valid keys untouched",
			cfg:   Config{Type: chart.TypeBar, XKey: "region", YKey: Key("orders"), Data: data},
			wantX: "region", wantY: []string{"orders"},
		},
		{
			name:  "missing value key picks first numeric",
			cfg:   Config{Type: chart.TypeLine, XKey: "region", YKey: Key("total"), Data: data},
			wantX: "region", wantY: []string{"revenue"},
		},
		{
			name:  "sequence collapses on single family",
			cfg:   Config{Type: chart.TypeBar, XKey: "region", YKey: Keys("orders", "revenue"), Data: data},
			wantX: "region", wantY: []string{"orders"},
		},
		{
			name:  "sequence kept on radar",
			cfg:   Config{Type: chart.TypeRadar, XKey: "region", YKey: Keys("orders", "revenue"), Data: data},
			wantX: "region", wantY: []string{"orders", "revenue"}, wantMulti: true,
		},
		{
			name:  "empty sequence collapses to value then repairs",
			cfg:   Config{Type: chart.TypePie, XKey: "region", YKey: Keys(), Data: data},
			wantX: "region", wantY: []string{"revenue"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.cfg.Clone()
			got := RepairKeys(tt.cfg)
			assert.Equal(t, tt.wantX, got.XKey)
			assert.Equal(t, tt.wantY, got.YKey.Names())
			assert.Equal(t, tt.wantMulti, got.YKey.IsMulti())
			assert.Equal(t, before, tt.cfg)
		})
	}
}

func TestRepairKeys_FirstNonNumericFallback(t *testing.T) {
	cfg := Config{
		Type: chart.TypeBar,
		XKey: "missing",
		YKey: Key("n"),
		Data: json.RawMessage(`[{"n":1,"city":"Oslo"}]`),
	}
	assert.Equal(t, "city", RepairKeys(cfg).XKey)
}

func TestNumber(t *testing.T) {
	tests := []struct {
		in     any
		want   float64
		wantOK bool
	}{
		{3.5, 3.5, true},
		{int64(7), 7, true},
		{uint8(2), 2, true},
		{json.Number("12.5"), 12.5, true},
		{" 42 ", 42, true},
		{"abc", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}
	for _, tt := range tests {
		got, ok := Number(tt.in)
		assert.Equal(t, tt.wantOK, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}

	assert.False(t, IsNumeric("42"))
	assert.True(t, IsNumeric(42.0))
	assert.Equal(t, 0.0, NumberOr("x", 0))
}

func TestText(t *testing.T) {
	assert.Equal(t, "120000", Text(120000.0))
	assert.Equal(t, "", Text(nil))
	assert.Equal(t, "Q1", Text("Q1"))
	assert.Equal(t, "true", Text(true))
	assert.Equal(t, "7", Text(7))
}
