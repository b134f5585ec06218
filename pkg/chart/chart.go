// Package chart defines the static catalog of chart types the engine can
// produce, the rendering family each one belongs to, and the fixed palette
// used for deterministic color assignment.
package chart

import "fmt"

// Type identifies a chart type as it appears on the wire ("bar", "stacked_100", ...).
type Type string

// Chart types, in registry order.
const (
	TypeBar             Type = "bar"
	TypeLine            Type = "line"
	TypePie             Type = "pie"
	TypeArea            Type = "area"
	TypeScatter         Type = "scatter"
	TypeRadar           Type = "radar"
	TypeComposed        Type = "composed"
	TypeStackedBar      Type = "stacked_bar"
	TypeStackedColumn   Type = "stacked_column"
	TypeClusteredBar    Type = "clustered_bar"
	TypeClusteredColumn Type = "clustered_column"
	TypeStacked100      Type = "stacked_100"
	TypeWaterfall       Type = "waterfall"
	TypeFunnel          Type = "funnel"
	TypeTable           Type = "table"
	TypeError           Type = "error"
)

// String implements fmt.Stringer.
func (t Type) String() string { return string(t) }

// Family is the structural category a chart type belongs to. It decides
// which renderer receives the derived data.
type Family int

// Rendering families.
const (
	FamilyCartesianSingle Family = iota
	FamilyCartesianStacked
	FamilyCartesianClustered
	FamilyRadialPie
	FamilyRadialRadar
	FamilyFunnel
	FamilyTabular

	// NumFamilies sizes per-family dispatch tables.
	NumFamilies
)

var familyNames = [NumFamilies]string{
	FamilyCartesianSingle:    "cartesian-single",
	FamilyCartesianStacked:   "cartesian-multi-stacked",
	FamilyCartesianClustered: "cartesian-multi-clustered",
	FamilyRadialPie:          "radial-pie",
	FamilyRadialRadar:        "radial-radar",
	FamilyFunnel:             "funnel",
	FamilyTabular:            "tabular",
}

func (f Family) String() string {
	if f < 0 || f >= NumFamilies {
		return "unknown"
	}
	return familyNames[f]
}

// MarshalText encodes the family by name.
func (f Family) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText decodes a family name.
func (f *Family) UnmarshalText(b []byte) error {
	for i, name := range familyNames {
		if name == string(b) {
			*f = Family(i)
			return nil
		}
	}
	return fmt.Errorf("unknown chart family %q", b)
}

// Derivation selects the row transform applied before rendering.
type Derivation int

// Row derivations.
const (
	DeriveNone Derivation = iota
	DeriveIdentity
	DerivePercent
	DeriveWaterfall
	DeriveFunnel
	DeriveDualAxis

	// NumDerivations sizes per-derivation dispatch tables.
	NumDerivations
)

var derivationNames = [NumDerivations]string{
	DeriveNone:      "none",
	DeriveIdentity:  "identity",
	DerivePercent:   "percent",
	DeriveWaterfall: "waterfall",
	DeriveFunnel:    "funnel",
	DeriveDualAxis:  "dual-axis",
}

func (d Derivation) String() string {
	if d < 0 || d >= NumDerivations {
		return "unknown"
	}
	return derivationNames[d]
}

// MarshalText encodes the derivation by name.
func (d Derivation) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a derivation name.
func (d *Derivation) UnmarshalText(b []byte) error {
	for i, name := range derivationNames {
		if name == string(b) {
			*d = Derivation(i)
			return nil
		}
	}
	return fmt.Errorf("unknown derivation %q", b)
}

// Orientation of the category axis for cartesian charts.
type Orientation string

// Orientations.
const (
	Vertical   Orientation = "vertical"
	Horizontal Orientation = "horizontal"
)

// Descriptor is the immutable catalog entry for one chart type.
type Descriptor struct {
	Value       Type        `json:"value"`
	Label       string      `json:"label"`
	Icon        string      `json:"icon"`
	Family      Family      `json:"family"`
	Derivation  Derivation  `json:"derivation"`
	Orientation Orientation `json:"orientation,omitempty"`
	// Multi reports whether every yKey is plotted, not just the primary one.
	Multi bool `json:"multi"`
}
