package pid

import "gonum.org/v1/gonum/spatial/r3"

// Settings configures a Controller3D. Gains and limits are per axis. A nil
// minimum defaults to the negated maximum, giving a symmetric clamp.
type Settings struct {
	ProportionalGain r3.Vec `yaml:"proportional_gain" json:"proportional_gain"`
	IntegralGain     r3.Vec `yaml:"integral_gain" json:"integral_gain"`
	DerivativeGain   r3.Vec `yaml:"derivative_gain" json:"derivative_gain"`

	PMax r3.Vec `yaml:"p_max" json:"p_max"`
	IMax r3.Vec `yaml:"i_max" json:"i_max"`
	DMax r3.Vec `yaml:"d_max" json:"d_max"`

	PMin *r3.Vec `yaml:"p_min,omitempty" json:"p_min,omitempty"`
	IMin *r3.Vec `yaml:"i_min,omitempty" json:"i_min,omitempty"`
	DMin *r3.Vec `yaml:"d_min,omitempty" json:"d_min,omitempty"`
}

// Uniform returns settings with the same gains and limits on every axis.
func Uniform(p, i, d, pMax, iMax, dMax float64) Settings {
	return Settings{
		ProportionalGain: splat(p),
		IntegralGain:     splat(i),
		DerivativeGain:   splat(d),
		PMax:             splat(pMax),
		IMax:             splat(iMax),
		DMax:             splat(dMax),
	}
}

// Bounds returns the effective [min, max] of each term.
func (s Settings) Bounds() (pMin, pMax, iMin, iMax, dMin, dMax r3.Vec) {
	return orNeg(s.PMin, s.PMax), s.PMax,
		orNeg(s.IMin, s.IMax), s.IMax,
		orNeg(s.DMin, s.DMax), s.DMax
}

// Axis extracts the scalar settings of one channel, with minimums resolved.
func (s Settings) Axis(a Axis) ScalarSettings {
	pMin, pMax, iMin, iMax, dMin, dMax := s.Bounds()
	return ScalarSettings{
		ProportionalGain: Component(s.ProportionalGain, a),
		IntegralGain:     Component(s.IntegralGain, a),
		DerivativeGain:   Component(s.DerivativeGain, a),
		PMax:             Component(pMax, a),
		IMax:             Component(iMax, a),
		DMax:             Component(dMax, a),
		PMin:             ptr(Component(pMin, a)),
		IMin:             ptr(Component(iMin, a)),
		DMin:             ptr(Component(dMin, a)),
	}
}

// Gains are the three gains of one channel.
type Gains struct {
	P, I, D float64
}

// AxisConfig is one channel's gains with its term bounds resolved.
type AxisConfig struct {
	Gains      Gains
	PMin, PMax float64
	IMin, IMax float64
	DMin, DMax float64
}

// ScalarSettings configures a single-channel Controller.
type ScalarSettings struct {
	ProportionalGain float64 `yaml:"proportional_gain" json:"proportional_gain"`
	IntegralGain     float64 `yaml:"integral_gain" json:"integral_gain"`
	DerivativeGain   float64 `yaml:"derivative_gain" json:"derivative_gain"`

	PMax float64 `yaml:"p_max" json:"p_max"`
	IMax float64 `yaml:"i_max" json:"i_max"`
	DMax float64 `yaml:"d_max" json:"d_max"`

	PMin *float64 `yaml:"p_min,omitempty" json:"p_min,omitempty"`
	IMin *float64 `yaml:"i_min,omitempty" json:"i_min,omitempty"`
	DMin *float64 `yaml:"d_min,omitempty" json:"d_min,omitempty"`
}

// Bounds returns the effective [min, max] of each term.
func (s ScalarSettings) Bounds() (pMin, pMax, iMin, iMax, dMin, dMax float64) {
	return orNegScalar(s.PMin, s.PMax), s.PMax,
		orNegScalar(s.IMin, s.IMax), s.IMax,
		orNegScalar(s.DMin, s.DMax), s.DMax
}

// Config resolves the settings into an AxisConfig.
func (s ScalarSettings) Config() AxisConfig {
	cfg := AxisConfig{Gains: Gains{P: s.ProportionalGain, I: s.IntegralGain, D: s.DerivativeGain}}
	cfg.PMin, cfg.PMax, cfg.IMin, cfg.IMax, cfg.DMin, cfg.DMax = s.Bounds()
	return cfg
}

func splat(f float64) r3.Vec {
	return r3.Vec{X: f, Y: f, Z: f}
}

func orNeg(min *r3.Vec, max r3.Vec) r3.Vec {
	if min != nil {
		return *min
	}
	return r3.Scale(-1, max)
}

func orNegScalar(min *float64, max float64) float64 {
	if min != nil {
		return *min
	}
	return -max
}

func ptr[T any](v T) *T {
	return &v
}
