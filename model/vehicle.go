package model

// DefaultFrequencyGHz is the control-link frequency assumed when a vehicle
// profile does not specify one.
const DefaultFrequencyGHz = 2.4

// VehicleProfile describes the operating parameters of an unmanned vehicle
// that matter for route analysis. Catalog metadata (speed, weight,
// description) is carried for display only.
type VehicleProfile struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`

	// MaxRangeKm is the maximum operating radius from the launch point.
	// A pointer is used to distinguish between unconstrained (nil) and an
	// explicit limit.
	MaxRangeKm *float64 `json:"maxRangeKm,omitempty" yaml:"max_range_km,omitempty"`

	// FrequencyGHz is the control-link carrier frequency. Zero means
	// DefaultFrequencyGHz.
	FrequencyGHz float64 `json:"frequencyGHz,omitempty" yaml:"frequency_ghz,omitempty"`

	SpeedKmh    *float64 `json:"speedKmh,omitempty" yaml:"speed_kmh,omitempty"`
	WeightGrams *float64 `json:"weightGrams,omitempty" yaml:"weight_grams,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// EffectiveFrequencyGHz returns FrequencyGHz, or DefaultFrequencyGHz when
// it is unset.
func (v VehicleProfile) EffectiveFrequencyGHz() float64 {
	if v.FrequencyGHz == 0 {
		return DefaultFrequencyGHz
	}
	return v.FrequencyGHz
}

// IsRangeLimited reports whether the vehicle has a maximum operating radius.
func (v VehicleProfile) IsRangeLimited() bool {
	return v.MaxRangeKm != nil
}

// Float64Ptr is a small helper for building profiles with optional fields.
func Float64Ptr(v float64) *float64 { return &v }
