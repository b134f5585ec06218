package chart

// Palette is the fixed series palette. Metric i is drawn with Palette[i mod 8].
var Palette = [8]string{
	"#8884d8",
	"#82ca9d",
	"#ffc658",
	"#ff7300",
	"#0088fe",
	"#00c49f",
	"#ffbb28",
	"#ff8042",
}

// Waterfall step colors. None of them appear in Palette.
const (
	ColorPositive = "#10b981"
	ColorNegative = "#ef4444"
	ColorTotal    = "#3b82f6"
)

// PaletteIndex maps any index onto the palette.
func PaletteIndex(i int) int {
	n := len(Palette)
	return ((i % n) + n) % n
}

// PaletteColor returns the palette color for index i.
func PaletteColor(i int) string {
	return Palette[PaletteIndex(i)]
}
