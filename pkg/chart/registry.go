package chart

var registry = [...]Descriptor{
	{Value: TypeBar, Label: "Bar Chart", Icon: "bar-chart", Family: FamilyCartesianSingle, Derivation: DeriveIdentity, Orientation: Vertical},
	{Value: TypeLine, Label: "Line Chart", Icon: "line-chart", Family: FamilyCartesianSingle, Derivation: DeriveIdentity, Orientation: Vertical},
	{Value: TypePie, Label: "Pie Chart", Icon: "pie-chart", Family: FamilyRadialPie, Derivation: DeriveIdentity},
	{Value: TypeArea, Label: "Area Chart", Icon: "area-chart", Family: FamilyCartesianSingle, Derivation: DeriveIdentity, Orientation: Vertical},
	{Value: TypeScatter, Label: "Scatter Plot", Icon: "scatter-chart", Family: FamilyCartesianSingle, Derivation: DeriveIdentity, Orientation: Vertical},
	{Value: TypeRadar, Label: "Radar Chart", Icon: "radar", Family: FamilyRadialRadar, Derivation: DeriveIdentity, Multi: true},
	{Value: TypeComposed, Label: "Dual Axis", Icon: "combo-chart", Family: FamilyCartesianClustered, Derivation: DeriveDualAxis, Orientation: Vertical, Multi: true},
	{Value: TypeStackedBar, Label: "Stacked Bar", Icon: "bar-stacked-horizontal", Family: FamilyCartesianStacked, Derivation: DeriveIdentity, Orientation: Horizontal, Multi: true},
	{Value: TypeStackedColumn, Label: "Stacked Column", Icon: "bar-stacked", Family: FamilyCartesianStacked, Derivation: DeriveIdentity, Orientation: Vertical, Multi: true},
	{Value: TypeClusteredBar, Label: "Clustered Bar", Icon: "bar-grouped-horizontal", Family: FamilyCartesianClustered, Derivation: DeriveIdentity, Orientation: Horizontal, Multi: true},
	{Value: TypeClusteredColumn, Label: "Clustered Column", Icon: "bar-grouped", Family: FamilyCartesianClustered, Derivation: DeriveIdentity, Orientation: Vertical, Multi: true},
	{Value: TypeStacked100, Label: "100% Stacked", Icon: "percent", Family: FamilyCartesianStacked, Derivation: DerivePercent, Orientation: Vertical, Multi: true},
	{Value: TypeWaterfall, Label: "Waterfall", Icon: "waterfall", Family: FamilyCartesianSingle, Derivation: DeriveWaterfall, Orientation: Vertical},
	{Value: TypeFunnel, Label: "Funnel", Icon: "funnel", Family: FamilyFunnel, Derivation: DeriveFunnel},
	{Value: TypeTable, Label: "Table", Icon: "table", Family: FamilyTabular, Derivation: DeriveNone},
	{Value: TypeError, Label: "Error", Icon: "alert", Family: FamilyTabular, Derivation: DeriveNone},
}

// Registry returns every descriptor in catalog order. The returned slice is a
// copy; callers may reorder it freely.
func Registry() []Descriptor {
	out := make([]Descriptor, len(registry))
	copy(out, registry[:])
	return out
}

// Selectable returns the descriptors offered in a chart selector: every chart
// family plus the table view, in catalog order. The error type is excluded.
func Selectable() []Descriptor {
	out := make([]Descriptor, 0, len(registry)-1)
	for _, d := range registry {
		if d.Value == TypeError {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Lookup returns the descriptor for t.
func Lookup(t Type) (Descriptor, bool) {
	for _, d := range registry {
		if d.Value == t {
			return d, true
		}
	}
	return Descriptor{}, false
}

// IsKnown reports whether t is a registry member.
func IsKnown(t Type) bool {
	_, ok := Lookup(t)
	return ok
}

// Types returns the chart type values in catalog order.
func Types() []Type {
	out := make([]Type, len(registry))
	for i, d := range registry {
		out[i] = d.Value
	}
	return out
}
