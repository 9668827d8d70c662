package pid

import "gonum.org/v1/gonum/spatial/r3"

// Axis indexes one channel of a three-axis controller.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// NumAxes is the number of independent channels in a Controller3D.
const NumAxes = 3

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return "?"
}

// Component returns the value of v on axis a.
func Component(v r3.Vec, a Axis) float64 {
	switch a {
	case AxisX:
		return v.X
	case AxisY:
		return v.Y
	default:
		return v.Z
	}
}

// SetComponent returns v with axis a replaced by f.
func SetComponent(v r3.Vec, a Axis, f float64) r3.Vec {
	switch a {
	case AxisX:
		v.X = f
	case AxisY:
		v.Y = f
	default:
		v.Z = f
	}
	return v
}

// Saturation reports, per axis, whether a term sat on a clamp bound.
type Saturation [NumAxes]bool

// Any reports whether any axis saturated.
func (s Saturation) Any() bool {
	return s[0] || s[1] || s[2]
}

// ClampScalar clamps f into [min, max]. The upper bound is tested first, so
// min > max yields max.
func ClampScalar(f, min, max float64) float64 {
	if f > max {
		return max
	}
	if f < min {
		return min
	}
	return f
}
