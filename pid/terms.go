package pid

import "math"

// ProportionalInput is what a proportional term sees on one axis.
type ProportionalInput struct {
	Gain  float64
	Error float64
	Min   float64
	Max   float64
}

// IntegralInput is what an integral term sees on one axis. Integral is the
// accumulator value carried over from the previous tick.
type IntegralInput struct {
	Gain     float64
	Error    float64
	Integral float64
	Min      float64
	Max      float64
}

// DerivativeInput is what a derivative term sees on one axis.
type DerivativeInput struct {
	Gain      float64
	Error     float64
	LastError float64
	Min       float64
	Max       float64
}

// ProportionalTerm computes the P contribution for one axis.
type ProportionalTerm interface {
	Compute(in ProportionalInput) float64
}

// IntegralTerm computes the new integral accumulator for one axis. The
// returned value is both the I contribution and the next tick's accumulator.
type IntegralTerm interface {
	Compute(in IntegralInput) float64
}

// DerivativeTerm computes the D contribution for one axis.
type DerivativeTerm interface {
	Compute(in DerivativeInput) float64
}

// ProportionalFunc adapts a function to ProportionalTerm.
type ProportionalFunc func(in ProportionalInput) float64

func (f ProportionalFunc) Compute(in ProportionalInput) float64 { return f(in) }

// IntegralFunc adapts a function to IntegralTerm.
type IntegralFunc func(in IntegralInput) float64

func (f IntegralFunc) Compute(in IntegralInput) float64 { return f(in) }

// DerivativeFunc adapts a function to DerivativeTerm.
type DerivativeFunc func(in DerivativeInput) float64

func (f DerivativeFunc) Compute(in DerivativeInput) float64 { return f(in) }

// ClampedProportional is the default P term: clamp(gain*error, min, max).
type ClampedProportional struct{}

func (ClampedProportional) Compute(in ProportionalInput) float64 {
	return ClampScalar(in.Gain*in.Error, in.Min, in.Max)
}

// GuardedIntegral is the default I term. The accumulator only integrates
// while it sits at or below the upper limit; once above it, it is frozen.
// The lower bound is enforced by the clamp alone.
type GuardedIntegral struct{}

func (GuardedIntegral) Compute(in IntegralInput) float64 {
	integral := in.Integral
	if integral <= in.Max {
		integral = ClampScalar(integral+in.Gain*in.Error, in.Min, in.Max)
	}
	return integral
}

// ClampedDerivative is the default D term:
// clamp(gain*(error-lastError), min, max).
type ClampedDerivative struct{}

func (ClampedDerivative) Compute(in DerivativeInput) float64 {
	return ClampScalar(in.Gain*(in.Error-in.LastError), in.Min, in.Max)
}

// WrappedAngleDerivative is a D term for errors measured in degrees. The
// error delta is wrapped into [-180, 180) so crossing the ±180 seam does
// not produce a full-turn spike.
type WrappedAngleDerivative struct{}

func (WrappedAngleDerivative) Compute(in DerivativeInput) float64 {
	return ClampScalar(in.Gain*WrapDegrees(in.Error-in.LastError), in.Min, in.Max)
}

// WrapDegrees maps an angle in degrees into [-180, 180).
func WrapDegrees(deg float64) float64 {
	wrapped := math.Mod(deg+180, 360)
	if wrapped < 0 {
		wrapped += 360
	}
	return wrapped - 180
}
