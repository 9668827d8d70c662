// Package pid implements discrete PID feedback controllers.
//
// A controller is advanced one step per Tick. The error is measured as
// processValue - setpoint and the returned force is -(p + i + d), so a
// positive error produces a correction pointing back toward the setpoint.
// Controllers know nothing about time: callers scale the output by their own
// fixed step before applying it.
//
// The first Tick after construction only primes the derivative history and
// returns zero. There is no reset; construct a new controller to discard
// integral and derivative state when switching targets.
//
// A controller is owned by a single caller. Different controllers share no
// state and may be ticked concurrently.
package pid

import "gonum.org/v1/gonum/spatial/r3"

// TermFlags reports which terms of one channel sat on a clamp bound.
type TermFlags struct {
	P, I, D bool
}

// Any reports whether any term saturated.
func (f TermFlags) Any() bool {
	return f.P || f.I || f.D
}

// TermSaturation reports which axes of each term sat on a clamp bound.
type TermSaturation struct {
	P, I, D Saturation
}

// Any reports whether any term saturated on any axis.
func (s TermSaturation) Any() bool {
	return s.P.Any() || s.I.Any() || s.D.Any()
}

// Output is the result of one Controller3D tick.
type Output struct {
	Force r3.Vec // -(P + I + D)
	P     r3.Vec
	I     r3.Vec
	D     r3.Vec
	Error r3.Vec // processValue - setpoint

	Saturated TermSaturation
}

// Option customises the term computations of a controller.
type Option func(*terms)

type terms struct {
	p ProportionalTerm
	i IntegralTerm
	d DerivativeTerm
}

func defaultTerms(opts []Option) terms {
	t := terms{
		p: ClampedProportional{},
		i: GuardedIntegral{},
		d: ClampedDerivative{},
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

type axisStep struct {
	p, i, d float64
	sat     TermFlags
}

// step computes the three terms of one channel. integral is the accumulator
// before this tick; the returned i is its new value.
func (t terms) step(cfg AxisConfig, e, integral, lastError float64) axisStep {
	p := t.p.Compute(ProportionalInput{Gain: cfg.Gains.P, Error: e, Min: cfg.PMin, Max: cfg.PMax})
	i := t.i.Compute(IntegralInput{Gain: cfg.Gains.I, Error: e, Integral: integral, Min: cfg.IMin, Max: cfg.IMax})
	d := t.d.Compute(DerivativeInput{Gain: cfg.Gains.D, Error: e, LastError: lastError, Min: cfg.DMin, Max: cfg.DMax})
	return axisStep{
		p: p,
		i: i,
		d: d,
		sat: TermFlags{
			P: atBound(p, cfg.PMin, cfg.PMax),
			I: atBound(i, cfg.IMin, cfg.IMax),
			D: atBound(d, cfg.DMin, cfg.DMax),
		},
	}
}

// WithProportional overrides the P term. A nil term keeps the default.
func WithProportional(p ProportionalTerm) Option {
	return func(t *terms) {
		if p != nil {
			t.p = p
		}
	}
}

// WithIntegral overrides the I term. A nil term keeps the default.
func WithIntegral(i IntegralTerm) Option {
	return func(t *terms) {
		if i != nil {
			t.i = i
		}
	}
}

// WithDerivative overrides the D term. A nil term keeps the default.
func WithDerivative(d DerivativeTerm) Option {
	return func(t *terms) {
		if d != nil {
			t.d = d
		}
	}
}

// Controller3D runs three independent PID loops, one per axis.
type Controller3D struct {
	settings Settings
	axes     [NumAxes]AxisConfig
	terms    terms

	integral  r3.Vec
	lastError r3.Vec
	primed    bool
	ticks     uint64
}

// New3D creates a controller. Accumulator and error history start at zero.
func New3D(settings Settings, opts ...Option) *Controller3D {
	c := &Controller3D{terms: defaultTerms(opts)}
	c.Retune(settings)
	return c
}

// Retune replaces gains and limits. Integral, error history and the
// first-tick state are kept, so tuning a live controller does not jerk it.
func (c *Controller3D) Retune(settings Settings) {
	c.settings = settings
	for a := AxisX; a < NumAxes; a++ {
		c.axes[a] = settings.Axis(a).Config()
	}
}

// Axis returns the gains and resolved bounds the controller uses on axis a.
func (c *Controller3D) Axis(a Axis) AxisConfig {
	return c.axes[a]
}

// Settings returns the configuration the controller currently runs with.
func (c *Controller3D) Settings() Settings {
	return c.settings
}

// Primed reports whether the first tick has happened.
func (c *Controller3D) Primed() bool {
	return c.primed
}

// Ticks returns the number of completed ticks, including the priming one.
func (c *Controller3D) Ticks() uint64 {
	return c.ticks
}

// Integral returns the current integral accumulator.
func (c *Controller3D) Integral() r3.Vec {
	return c.integral
}

// LastError returns the error recorded on the previous tick.
func (c *Controller3D) LastError() r3.Vec {
	return c.lastError
}

// Tick advances the controller one step toward setpoint.
func (c *Controller3D) Tick(setpoint, processValue r3.Vec) Output {
	errv := r3.Sub(processValue, setpoint)
	c.ticks++

	if !c.primed {
		c.primed = true
		c.lastError = errv
		return Output{Error: errv}
	}

	out := Output{Error: errv}
	for a := AxisX; a < NumAxes; a++ {
		v := c.terms.step(c.axes[a], Component(errv, a), Component(c.integral, a), Component(c.lastError, a))

		c.integral = SetComponent(c.integral, a, v.i)
		out.P = SetComponent(out.P, a, v.p)
		out.I = SetComponent(out.I, a, v.i)
		out.D = SetComponent(out.D, a, v.d)
		out.Force = SetComponent(out.Force, a, -(v.p + v.i + v.d))

		out.Saturated.P[a] = v.sat.P
		out.Saturated.I[a] = v.sat.I
		out.Saturated.D[a] = v.sat.D
	}
	c.lastError = errv

	return out
}

// atBound reports whether v sits on a non-degenerate clamp bound.
func atBound(v, min, max float64) bool {
	if min == max {
		return false
	}
	return v >= max || v <= min
}
