package model

import "math"

// Trait names one of the four profile dimensions.
type Trait string

// Profile traits.
const (
	TraitAwareness      Trait = "awareness"
	TraitEmpathy        Trait = "empathy"
	TraitPatience       Trait = "patience"
	TraitRiskPerception Trait = "riskPerception"
)

// Traits lists every trait in display order.
var Traits = []Trait{TraitAwareness, TraitEmpathy, TraitPatience, TraitRiskPerception}

// Impact is a per-trait signed delta. Traits missing from catalog data decode
// as zero.
type Impact struct {
	Awareness      int `json:"awareness" yaml:"awareness"`
	Empathy        int `json:"empathy" yaml:"empathy"`
	Patience       int `json:"patience" yaml:"patience"`
	RiskPerception int `json:"riskPerception" yaml:"risk_perception"`
}

// Add returns the component-wise sum of i and o. Sums saturate at the int
// range instead of wrapping.
func (i Impact) Add(o Impact) Impact {
	return Impact{
		Awareness:      SaturatingAdd(i.Awareness, o.Awareness),
		Empathy:        SaturatingAdd(i.Empathy, o.Empathy),
		Patience:       SaturatingAdd(i.Patience, o.Patience),
		RiskPerception: SaturatingAdd(i.RiskPerception, o.RiskPerception),
	}
}

// SaturatingAdd returns a+b, pinned to math.MaxInt or math.MinInt on overflow.
func SaturatingAdd(a, b int) int {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return math.MaxInt
	case b < 0 && a < math.MinInt-b:
		return math.MinInt
	}
	return a + b
}

// Get returns the delta for t, or 0 for an unknown trait.
func (i Impact) Get(t Trait) int {
	switch t {
	case TraitAwareness:
		return i.Awareness
	case TraitEmpathy:
		return i.Empathy
	case TraitPatience:
		return i.Patience
	case TraitRiskPerception:
		return i.RiskPerception
	}
	return 0
}

// IsZero reports whether every delta is zero.
func (i Impact) IsZero() bool {
	return i == Impact{}
}
