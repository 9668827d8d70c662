package main

import (
	"github.com/pthm-cable/steady/config"
)

// ParamSpec defines a single tunable gain.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of tunable buoyancy gains. Horizontal axes (X
// and Z) share gains; the vertical axis fights gravity and waves on its own.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of buoyancy gains.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Horizontal
			{Name: "p_xz", Path: "buoyancy.pid.proportional_gain.x,z", Min: 50, Max: 2000, Default: 500},
			{Name: "i_xz", Path: "buoyancy.pid.integral_gain.x,z", Min: 0, Max: 20, Default: 2},
			{Name: "d_xz", Path: "buoyancy.pid.derivative_gain.x,z", Min: 1000, Max: 60000, Default: 15000},
			// Vertical
			{Name: "p_y", Path: "buoyancy.pid.proportional_gain.y", Min: 50, Max: 2000, Default: 500},
			{Name: "i_y", Path: "buoyancy.pid.integral_gain.y", Min: 0, Max: 20, Default: 2},
			{Name: "d_y", Path: "buoyancy.pid.derivative_gain.y", Min: 1000, Max: 60000, Default: 15000},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped gains into the buoyancy settings. Limits are
// left as configured.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)
	s := &cfg.Buoyancy.PID

	s.ProportionalGain.X, s.ProportionalGain.Z = c[0], c[0]
	s.IntegralGain.X, s.IntegralGain.Z = c[1], c[1]
	s.DerivativeGain.X, s.DerivativeGain.Z = c[2], c[2]

	s.ProportionalGain.Y = c[3]
	s.IntegralGain.Y = c[4]
	s.DerivativeGain.Y = c[5]
}

// ExtractFromConfig reads the current gains. Horizontal gains come from X.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	s := cfg.Buoyancy.PID
	return []float64{
		s.ProportionalGain.X,
		s.IntegralGain.X,
		s.DerivativeGain.X,
		s.ProportionalGain.Y,
		s.IntegralGain.Y,
		s.DerivativeGain.Y,
	}
}
